package index

import (
	"testing"

	"github.com/blevesearch/bleve/v2/search/query"
)

func TestPlanQueryNoBoosts(t *testing.T) {
	q := planQuery("anything", nil)
	if _, ok := q.(*query.MatchNoneQuery); !ok {
		t.Errorf("expected a match-none query, got %T", q)
	}

	q = planQuery("anything", map[string]float64{"unknown_field": 1.0})
	if _, ok := q.(*query.MatchNoneQuery); !ok {
		t.Errorf("unknown fields should plan to match-none, got %T", q)
	}
}

func TestPlanQueryDisjunction(t *testing.T) {
	boosts := map[string]float64{
		FieldPathStem: 3.0,
		FieldPath:     2.0,
		FieldContent:  1.0,
	}

	q := planQuery("hello", boosts)
	disj, ok := q.(*query.DisjunctionQuery)
	if !ok {
		t.Fatalf("expected a disjunction, got %T", q)
	}
	if len(disj.Disjuncts) != 3 {
		t.Fatalf("expected 3 sub-queries, got %d", len(disj.Disjuncts))
	}

	for i, want := range []string{FieldPathStem, FieldPath, FieldContent} {
		mq, ok := disj.Disjuncts[i].(*query.MatchQuery)
		if !ok {
			t.Fatalf("disjunct %d is %T, not a match query", i, disj.Disjuncts[i])
		}
		if mq.Field() != want {
			t.Errorf("disjunct %d scoped to %q, want %q", i, mq.Field(), want)
		}
		if mq.Match != "hello" {
			t.Errorf("disjunct %d matches %q, want the raw query", i, mq.Match)
		}
		if got := mq.Boost(); got != boosts[want] {
			t.Errorf("disjunct %d boost %f, want %f", i, got, boosts[want])
		}
	}
}

func TestPlanQueryPartialBoosts(t *testing.T) {
	q := planQuery("hello", map[string]float64{FieldContent: 1.5})
	disj, ok := q.(*query.DisjunctionQuery)
	if !ok {
		t.Fatalf("expected a disjunction, got %T", q)
	}
	if len(disj.Disjuncts) != 1 {
		t.Fatalf("expected a single sub-query, got %d", len(disj.Disjuncts))
	}
	mq := disj.Disjuncts[0].(*query.MatchQuery)
	if mq.Field() != FieldContent {
		t.Errorf("expected the content field, got %q", mq.Field())
	}
}
