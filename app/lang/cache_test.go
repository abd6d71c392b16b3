package lang

import (
	"context"
	"slices"
	"testing"
)

func TestParseCacheHits(t *testing.T) {
	e := NewEvaluator(WithClock(fixedClock))
	ctx := context.Background()
	doc := "1\n2 + 2\n\nx = 3"

	if _, err := e.EvaluateDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}
	hits, misses := e.Cache().Stats()
	if hits != 0 || misses != 3 {
		t.Fatalf("first pass: hits=%d misses=%d, want 0 and 3", hits, misses)
	}

	if _, err := e.EvaluateDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}
	hits, misses = e.Cache().Stats()
	if hits != 3 || misses != 3 {
		t.Errorf("second pass: hits=%d misses=%d, want 3 and 3", hits, misses)
	}
}

func TestParseCacheNeverServesStaleResults(t *testing.T) {
	e := NewEvaluator(WithClock(fixedClock))
	ctx := context.Background()

	snap, err := e.EvaluateDocument(ctx, "a = 1\nb = a + 1\nb * 10")
	if err != nil {
		t.Fatal(err)
	}
	if got := snap.Displays(); !slices.Equal(got, []string{"1", "2", "20"}) {
		t.Fatalf("before edit: %v", got)
	}

	snap, err = e.EvaluateDocument(ctx, "a = 5\nb = a + 1\nb * 10")
	if err != nil {
		t.Fatal(err)
	}
	if got := snap.Displays(); !slices.Equal(got, []string{"5", "6", "60"}) {
		t.Errorf("after edit: %v, want [5 6 60]", got)
	}
	if hits, _ := e.Cache().Stats(); hits != 2 {
		t.Errorf("hits = %d, want the two unchanged lines reused", hits)
	}
}

func TestParseCacheCultureAndTruncate(t *testing.T) {
	en, fr := LookupCulture("en-US"), LookupCulture("fr-FR")
	c := NewParseCache()
	c.Put(0, en, &ParsedLine{Text: "1,5"})
	c.Put(2, en, &ParsedLine{Text: "3"})

	if _, ok := c.Get(0, "1,5", fr); ok {
		t.Error("entry reused across cultures")
	}
	if _, ok := c.Get(0, "1,6", en); ok {
		t.Error("entry reused for different text")
	}
	if p, ok := c.Get(0, "1,5", en); !ok || p.Text != "1,5" {
		t.Error("entry not reused for identical text and culture")
	}
	if _, ok := c.Get(1, "", en); ok {
		t.Error("gap entry reported as a hit")
	}

	c.Truncate(1)
	if _, ok := c.Get(2, "3", en); ok {
		t.Error("truncated entry still served")
	}
	if _, ok := c.Get(0, "1,5", en); !ok {
		t.Error("entry below the truncation point dropped")
	}
}

func TestCollectDeps(t *testing.T) {
	node, err := parseLine(t, "en-US", "x = today + a * line 2")
	if err != nil {
		t.Fatal(err)
	}
	deps := CollectDeps(node)
	if deps.Assigns != "x" || !deps.UsesNow || !slices.Equal(deps.Vars, []string{"a", "#2"}) {
		t.Errorf("CollectDeps = %+v", deps)
	}

	node, err = parseLine(t, "en-US", "max(1, 2) + 3 hours in minutes")
	if err != nil {
		t.Fatal(err)
	}
	deps = CollectDeps(node)
	if deps.Assigns != "" || deps.UsesNow || len(deps.Vars) != 0 {
		t.Errorf("CollectDeps = %+v, want no dependencies", deps)
	}
}
