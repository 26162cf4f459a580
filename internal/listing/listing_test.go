package listing

import (
	"fmt"
	"reflect"
	"testing"
)

type row struct {
	id     int
	name   string
	phone  string
	status string
}

func rowFields(r row) []string {
	return []string{r.name, r.phone, r.status}
}

func rows(n int) []row {
	out := make([]row, n)
	for i := range out {
		out[i] = row{id: i + 1, name: fmt.Sprintf("Agent %d", i+1), status: "available"}
	}
	return out
}

var roster = []row{
	{1, "Sarah Johnson", "+919325484855", "available"},
	{2, "Mike Chen", "+15552345678", "offline"},
	{3, "Emily Rodriguez", "+15553456789", "available"},
	{4, "David Kim", "+15554567890", "on_call"},
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name string
		term string
		want []int
	}{
		{"empty term is identity", "", []int{1, 2, 3, 4}},
		{"case insensitive name", "sARAH", []int{1}},
		{"phone digits", "555", []int{2, 3, 4}},
		{"status field", "OFF", []int{2}},
		{"matches across fields", "on", []int{1, 4}},
		{"no match", "zzz", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(roster, tt.term, rowFields)
			var ids []int
			for _, r := range got {
				ids = append(ids, r.id)
			}
			if !reflect.DeepEqual(ids, tt.want) {
				t.Errorf("Filter(%q) = %v, want %v", tt.term, ids, tt.want)
			}
		})
	}
}

func TestFilterIsOrderPreservingSubsequence(t *testing.T) {
	for _, term := range []string{"", "a", "e", "555", "available", "x"} {
		got := Filter(roster, term, rowFields)
		j := 0
		for _, r := range got {
			for j < len(roster) && roster[j] != r {
				j++
			}
			if j == len(roster) {
				t.Fatalf("Filter(%q) is not a subsequence of its input", term)
			}
			j++
		}
	}
}

func TestPageCount(t *testing.T) {
	tests := []struct {
		count, size, want int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{23, 10, 3},
		{5, 0, 0},
	}
	for _, tt := range tests {
		if got := PageCount(tt.count, tt.size); got != tt.want {
			t.Errorf("PageCount(%d, %d) = %d, want %d", tt.count, tt.size, got, tt.want)
		}
	}
}

func TestPagesPartitionFiltered(t *testing.T) {
	for _, n := range []int{0, 1, 9, 10, 11, 23, 60} {
		for _, size := range []int{1, 6, 10} {
			items := rows(n)
			total := 0
			for p := 1; p <= PageCount(n, size); p++ {
				total += len(Page(items, p, size))
			}
			if total != n {
				t.Errorf("n=%d size=%d: pages hold %d items", n, size, total)
			}
			if got := Page(items, PageCount(n, size)+1, size); len(got) != 0 {
				t.Errorf("n=%d size=%d: page past the end has %d items", n, size, len(got))
			}
			if got := Page(items, 0, size); len(got) != 0 {
				t.Errorf("n=%d size=%d: page 0 has %d items", n, size, len(got))
			}
		}
	}
}

func TestTwentyThreeRecords(t *testing.T) {
	items := rows(23)

	if got := PageCount(len(items), 10); got != 3 {
		t.Fatalf("expected 3 pages, got %d", got)
	}

	page3 := Page(items, 3, 10)
	if len(page3) != 3 || page3[0].id != 21 || page3[2].id != 23 {
		t.Errorf("unexpected page 3: %+v", page3)
	}

	from, to := DisplayRange(len(items), 3, 10)
	if from != 21 || to != 23 {
		t.Errorf("expected range (21, 23), got (%d, %d)", from, to)
	}
}

func TestDisplayRangeEmpty(t *testing.T) {
	from, to := DisplayRange(0, 1, 10)
	if from != 0 || to != 0 {
		t.Errorf("expected (0, 0), got (%d, %d)", from, to)
	}
}

func TestPageWindow(t *testing.T) {
	w := PageWindow(1, 20)
	if w.Collapsed || len(w.Pages) != 20 {
		t.Errorf("expected 20 jump targets, got %+v", w)
	}
	if w.HasPrev || !w.HasNext {
		t.Errorf("unexpected prev/next on first page: %+v", w)
	}

	w = PageWindow(21, 21)
	if !w.Collapsed || len(w.Pages) != 0 {
		t.Errorf("expected collapsed window, got %+v", w)
	}
	if !w.HasPrev || w.HasNext {
		t.Errorf("unexpected prev/next on last page: %+v", w)
	}

	w = PageWindow(1, 0)
	if w.HasPrev || w.HasNext || len(w.Pages) != 0 {
		t.Errorf("unexpected window for empty list: %+v", w)
	}
}
