package parser

import (
	"github.com/vnadhan/Inverted-Index/internal/indexer/tokenizer"
)

type QueryType int

const (
	QueryEmpty QueryType = iota
	QuerySingle
	QueryMulti
)

func (t QueryType) String() string {
	switch t {
	case QuerySingle:
		return "single"
	case QueryMulti:
		return "multi"
	default:
		return "empty"
	}
}

// QueryPlan is a tokenized query. Terms keeps duplicates in query order;
// the multi-term ranker counts them.
type QueryPlan struct {
	Terms    []string
	Type     QueryType
	RawQuery string
}

// Parse tokenizes query exactly like document text. One token selects the
// single-term ranker, two or more the cosine ranker.
func Parse(query string) *QueryPlan {
	plan := &QueryPlan{
		Terms:    tokenizer.Tokenize(query),
		RawQuery: query,
	}
	switch len(plan.Terms) {
	case 0:
		plan.Type = QueryEmpty
	case 1:
		plan.Type = QuerySingle
	default:
		plan.Type = QueryMulti
	}
	return plan
}

// Distinct returns the plan's terms without repeats, in first-occurrence
// order.
func (p *QueryPlan) Distinct() []string {
	seen := make(map[string]struct{}, len(p.Terms))
	out := make([]string, 0, len(p.Terms))
	for _, t := range p.Terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
