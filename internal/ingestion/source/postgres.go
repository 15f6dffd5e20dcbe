package source

import (
	"context"
	"fmt"
)

// Rows is the part of *sql.Rows the Postgres source reads.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// Postgres reads document bodies from the documents table in row id order.
type Postgres struct {
	query func(ctx context.Context) (Rows, error)
}

func NewPostgres(query func(ctx context.Context) (Rows, error)) *Postgres {
	return &Postgres{query: query}
}

func (p *Postgres) Name() string {
	return "postgres"
}

func (p *Postgres) Each(ctx context.Context, fn func(text string) error) error {
	rows, err := p.query(ctx)
	if err != nil {
		return err
	}
	defer rows.Close()

	row := 0
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return fmt.Errorf("scanning row %d: %w", row, err)
		}
		if err := fn(body); err != nil {
			return fmt.Errorf("row %d: %w", row, err)
		}
		row++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating documents: %w", err)
	}
	return nil
}
