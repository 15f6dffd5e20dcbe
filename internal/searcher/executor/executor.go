package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vnadhan/Inverted-Index/internal/indexer"
	"github.com/vnadhan/Inverted-Index/internal/searcher/parser"
	"github.com/vnadhan/Inverted-Index/internal/searcher/ranker"
	"github.com/vnadhan/Inverted-Index/pkg/tracing"
)

type SearchResult struct {
	Query     string             `json:"query"`
	Mode      string             `json:"mode"`
	TotalHits int                `json:"total_hits"`
	Documents []string           `json:"documents"`
	Results   []ranker.ScoredDoc `json:"results"`
	TermStats map[string]int     `json:"term_stats"`
}

type Executor struct {
	engine *indexer.Engine
	logger *slog.Logger
}

func New(engine *indexer.Engine) *Executor {
	return &Executor{
		engine: engine,
		logger: slog.Default().With("component", "query-executor"),
	}
}

// Execute ranks plan against the engine. TotalHits counts every ranked
// document; Documents and Results are cut to limit when limit is positive.
func (e *Executor) Execute(ctx context.Context, plan *parser.QueryPlan, limit int) (*SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("executing query %q: %w", plan.RawQuery, err)
	}
	_, span := tracing.Start(ctx, "rank", "")
	ranked, err := e.engine.Rank(plan)
	span.SetAttr("mode", plan.Type.String())
	span.SetAttr("hits", len(ranked))
	span.End()
	if err != nil {
		return nil, fmt.Errorf("ranking query %q: %w", plan.RawQuery, err)
	}

	termStats := make(map[string]int)
	for _, term := range plan.Distinct() {
		if df := e.engine.DocumentFrequency(term); df > 0 {
			termStats[term] = df
		}
	}

	total := len(ranked)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	documents := make([]string, len(ranked))
	for i, d := range ranked {
		documents[i] = d.Name
	}

	e.logger.Debug("query executed",
		"query", plan.RawQuery,
		"mode", plan.Type.String(),
		"terms", plan.Terms,
		"hits", total,
		"returned", len(ranked),
	)
	return &SearchResult{
		Query:     plan.RawQuery,
		Mode:      plan.Type.String(),
		TotalHits: total,
		Documents: documents,
		Results:   ranked,
		TermStats: termStats,
	}, nil
}
