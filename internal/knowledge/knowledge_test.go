package knowledge

import (
	"strings"
	"testing"
)

func TestRetrieveRanksRelevantChunks(t *testing.T) {
	base := NewBase()

	results := base.Retrieve("how big should my emergency fund be", DefaultTopK)
	if len(results) == 0 {
		t.Fatal("expected results for an emergency fund query")
	}
	if results[0].Source != "emergency_funds.txt" {
		t.Errorf("top source = %s, want emergency_funds.txt", results[0].Source)
	}
	if !strings.Contains(results[0].Content, "emergency fund") {
		t.Errorf("top chunk should mention the emergency fund, got %q", results[0].Content)
	}
}

func TestRetrieveCapsAtK(t *testing.T) {
	base := NewBase()
	results := base.Retrieve("savings interest rate account", 2)
	if len(results) > 2 {
		t.Errorf("got %d results, want at most 2", len(results))
	}
}

func TestRetrieveNoMatchReturnsNothing(t *testing.T) {
	base := NewBase()
	if results := base.Retrieve("zzzzz qqqqq", DefaultTopK); len(results) != 0 {
		t.Errorf("unmatched query should return nothing, got %d chunks", len(results))
	}
}

func TestRetrieveDefaultKWhenZero(t *testing.T) {
	base := NewBase()
	results := base.Retrieve("savings account interest", 0)
	if len(results) == 0 || len(results) > DefaultTopK {
		t.Errorf("k=0 should fall back to %d, got %d", DefaultTopK, len(results))
	}
}

func TestRetrieveDeterministic(t *testing.T) {
	base := NewBase()
	first := base.Retrieve("mortgage deposit stress test", DefaultTopK)
	second := base.Retrieve("mortgage deposit stress test", DefaultTopK)
	if len(first) != len(second) {
		t.Fatal("repeat query changed result count")
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("result %d differs between identical queries", i)
		}
	}
}

func TestCorpusChunking(t *testing.T) {
	base := newBaseFrom([]Document{
		{Source: "a.txt", Content: "first chunk about boilers\n---\nsecond chunk about boilers"},
	})
	if len(base.chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(base.chunks))
	}
	results := base.Retrieve("boilers", 5)
	if len(results) != 2 {
		t.Errorf("both chunks mention boilers, got %d results", len(results))
	}
}
