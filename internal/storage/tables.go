package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"
)

// tableReadyTimeout bounds the wait for a freshly created table to turn ACTIVE
const tableReadyTimeout = 30 * time.Second

type tableSpec struct {
	name    string
	hashKey string
	keyType dbtypes.ScalarAttributeType
}

func simulatorTables(cfg DynamoConfig) []tableSpec {
	return []tableSpec{
		{cfg.AgentsTable, "ID", dbtypes.ScalarAttributeTypeN},
		{cfg.CallsTable, "CallSID", dbtypes.ScalarAttributeTypeS},
		{cfg.RecordingsTable, "ID", dbtypes.ScalarAttributeTypeN},
	}
}

// EnsureTables creates the simulator tables that do not exist yet and waits
// until they are usable. Used against DynamoDB Local.
func EnsureTables(ctx context.Context, client *dynamodb.Client, cfg DynamoConfig, logger zerolog.Logger) error {
	for _, spec := range simulatorTables(cfg) {
		_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(spec.name),
		})
		if err == nil {
			logger.Debug().Str("table", spec.name).Msg("table present")
			continue
		}
		var missing *dbtypes.ResourceNotFoundException
		if !errors.As(err, &missing) {
			return fmt.Errorf("describe table %s: %w", spec.name, err)
		}

		if err := createTable(ctx, client, spec); err != nil {
			return err
		}
		logger.Info().Str("table", spec.name).Str("hash_key", spec.hashKey).Msg("table created")
	}
	return nil
}

func createTable(ctx context.Context, client *dynamodb.Client, spec tableSpec) error {
	_, err := client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(spec.name),
		KeySchema: []dbtypes.KeySchemaElement{
			{AttributeName: aws.String(spec.hashKey), KeyType: dbtypes.KeyTypeHash},
		},
		AttributeDefinitions: []dbtypes.AttributeDefinition{
			{AttributeName: aws.String(spec.hashKey), AttributeType: spec.keyType},
		},
		BillingMode: dbtypes.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("create table %s: %w", spec.name, err)
	}

	waiter := dynamodb.NewTableExistsWaiter(client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(spec.name)}, tableReadyTimeout); err != nil {
		return fmt.Errorf("wait for table %s: %w", spec.name, err)
	}
	return nil
}
