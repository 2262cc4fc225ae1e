package index

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// searchFields is the fixed planning order; it only affects query shape,
// not scoring.
var searchFields = []string{FieldPathStem, FieldPath, FieldContent}

// planQuery translates a raw query string plus per-field boosts into a
// disjunction of field-scoped match sub-queries: a document matching any
// boosted field contributes to the score, and the ranking function
// compounds contributions across fields. With no boosts configured the
// query matches nothing.
func planQuery(qs string, boosts map[string]float64) query.Query {
	disj := bleve.NewDisjunctionQuery()
	for _, field := range searchFields {
		boost, ok := boosts[field]
		if !ok {
			continue
		}
		mq := bleve.NewMatchQuery(qs)
		mq.SetField(field)
		mq.SetBoost(boost)
		disj.AddQuery(mq)
	}
	if len(disj.Disjuncts) == 0 {
		return bleve.NewMatchNoneQuery()
	}
	return disj
}
