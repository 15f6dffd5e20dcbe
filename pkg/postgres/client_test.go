package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnadhan/Inverted-Index/pkg/config"
)

func TestNewGivesUpWhenContextEnded(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(ctx, config.PostgresConfig{
		Host:     "127.0.0.1",
		Port:     1,
		User:     "search",
		Database: "search",
		SSLMode:  "disable",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestCorpusQueriesKeepInsertionOrder(t *testing.T) {
	assert.Contains(t, Schema, "BIGSERIAL PRIMARY KEY")
	assert.Contains(t, SelectDocumentsQuery, "ORDER BY id")
}
