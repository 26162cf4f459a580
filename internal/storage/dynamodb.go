package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dennisdiepolder/monti/opsdash/internal/types"
	"github.com/rs/zerolog"
)

// callSequenceKey is the CallSID of the item holding the last assigned call id
const callSequenceKey = "#sequence"

// DynamoDBStore implements Store using AWS DynamoDB
type DynamoDBStore struct {
	client *dynamodb.Client
	config DynamoConfig
	logger zerolog.Logger
}

// NewDynamoDBStore creates a new DynamoDB store
func NewDynamoDBStore(ctx context.Context, cfg DynamoConfig, logger zerolog.Logger) (*DynamoDBStore, error) {
	var client *dynamodb.Client

	if cfg.Mode == DynamoModeLocal {
		// Built directly so LoadDefaultConfig never probes IMDS for credentials
		client = dynamodb.New(dynamodb.Options{
			Region:       cfg.Region,
			BaseEndpoint: aws.String(cfg.Endpoint),
			Credentials:  credentials.NewStaticCredentialsProvider("local", "local", ""),
		})
	} else {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client = dynamodb.NewFromConfig(awsCfg)
	}

	store := &DynamoDBStore{
		client: client,
		config: cfg,
		logger: logger,
	}

	if cfg.Mode == DynamoModeLocal {
		if err := EnsureTables(ctx, client, cfg, logger); err != nil {
			return nil, err
		}
	}

	logger.Info().
		Str("mode", string(cfg.Mode)).
		Str("region", cfg.Region).
		Msg("DynamoDB store initialized")

	return store, nil
}

func (s *DynamoDBStore) ListAgents(ctx context.Context) ([]types.Agent, error) {
	var rows []agentRecord
	if err := s.scan(ctx, s.config.AgentsTable, nil, &rows); err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}

	agents := make([]types.Agent, 0, len(rows))
	for _, row := range rows {
		agents = append(agents, row.toAgent())
	}
	return agents, nil
}

func (s *DynamoDBStore) GetAgent(ctx context.Context, id int64) (types.Agent, error) {
	var row agentRecord
	key := map[string]dbtypes.AttributeValue{
		"ID": &dbtypes.AttributeValueMemberN{Value: strconv.FormatInt(id, 10)},
	}
	if err := s.get(ctx, s.config.AgentsTable, key, &row); err != nil {
		return types.Agent{}, err
	}
	return row.toAgent(), nil
}

func (s *DynamoDBStore) SaveAgent(ctx context.Context, agent types.Agent) error {
	if err := s.put(ctx, s.config.AgentsTable, fromAgent(agent)); err != nil {
		return fmt.Errorf("failed to save agent: %w", err)
	}
	return nil
}

func (s *DynamoDBStore) ListCalls(ctx context.Context) ([]types.CallLogEntry, error) {
	filter := expression.Name("CallSID").NotEqual(expression.Value(callSequenceKey))
	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	var rows []callRecord
	if err := s.scan(ctx, s.config.CallsTable, &expr, &rows); err != nil {
		return nil, fmt.Errorf("failed to list calls: %w", err)
	}

	calls := make([]types.CallLogEntry, 0, len(rows))
	for _, row := range rows {
		calls = append(calls, row.toCall())
	}
	return calls, nil
}

func (s *DynamoDBStore) GetCall(ctx context.Context, callSID string) (types.CallLogEntry, error) {
	var row callRecord
	key := map[string]dbtypes.AttributeValue{
		"CallSID": &dbtypes.AttributeValueMemberS{Value: callSID},
	}
	if err := s.get(ctx, s.config.CallsTable, key, &row); err != nil {
		return types.CallLogEntry{}, err
	}
	return row.toCall(), nil
}

func (s *DynamoDBStore) SaveCall(ctx context.Context, call types.CallLogEntry) (types.CallLogEntry, error) {
	if call.ID == 0 {
		existing, err := s.GetCall(ctx, call.CallSID)
		switch {
		case err == nil:
			call.ID = existing.ID
		case errors.Is(err, ErrNotFound):
			id, err := s.nextCallID(ctx)
			if err != nil {
				return types.CallLogEntry{}, err
			}
			call.ID = id
		default:
			return types.CallLogEntry{}, err
		}
	}

	if err := s.put(ctx, s.config.CallsTable, fromCall(call)); err != nil {
		return types.CallLogEntry{}, fmt.Errorf("failed to save call: %w", err)
	}
	return call, nil
}

// nextCallID atomically increments the sequence item of the calls table
func (s *DynamoDBStore) nextCallID(ctx context.Context) (int64, error) {
	update := expression.Add(expression.Name("Seq"), expression.Value(1))
	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return 0, fmt.Errorf("failed to build expression: %w", err)
	}

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.config.CallsTable),
		Key: map[string]dbtypes.AttributeValue{
			"CallSID": &dbtypes.AttributeValueMemberS{Value: callSequenceKey},
		},
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              dbtypes.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to allocate call id: %w", err)
	}

	var seq struct {
		Seq int64 `dynamodbav:"Seq"`
	}
	if err := attributevalue.UnmarshalMap(out.Attributes, &seq); err != nil {
		return 0, fmt.Errorf("failed to unmarshal call id: %w", err)
	}
	return seq.Seq, nil
}

func (s *DynamoDBStore) ListRecordings(ctx context.Context) ([]types.CallRecording, error) {
	var rows []recordingRecord
	if err := s.scan(ctx, s.config.RecordingsTable, nil, &rows); err != nil {
		return nil, fmt.Errorf("failed to list recordings: %w", err)
	}

	recordings := make([]types.CallRecording, 0, len(rows))
	for _, row := range rows {
		recordings = append(recordings, row.toRecording())
	}
	return recordings, nil
}

func (s *DynamoDBStore) SaveRecording(ctx context.Context, recording types.CallRecording) error {
	if err := s.put(ctx, s.config.RecordingsTable, fromRecording(recording)); err != nil {
		return fmt.Errorf("failed to save recording: %w", err)
	}
	return nil
}

func (s *DynamoDBStore) Close() error { return nil }

func (s *DynamoDBStore) put(ctx context.Context, table string, record interface{}) error {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      item,
	})
	return err
}

func (s *DynamoDBStore) get(ctx context.Context, table string, key map[string]dbtypes.AttributeValue, out interface{}) error {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key:       key,
	})
	if err != nil {
		return fmt.Errorf("failed to get item from %s: %w", table, err)
	}
	if result.Item == nil {
		return ErrNotFound
	}
	if err := attributevalue.UnmarshalMap(result.Item, out); err != nil {
		return fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return nil
}

// scan reads every page of table into out, a pointer to a slice of records
func (s *DynamoDBStore) scan(ctx context.Context, table string, expr *expression.Expression, out interface{}) error {
	input := &dynamodb.ScanInput{TableName: aws.String(table)}
	if expr != nil {
		input.FilterExpression = expr.Filter()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	var items []map[string]dbtypes.AttributeValue
	paginator := dynamodb.NewScanPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return err
		}
		items = append(items, page.Items...)
	}

	return attributevalue.UnmarshalListOfMaps(items, out)
}
