package source

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnadhan/Inverted-Index/internal/ingestion"
	"github.com/vnadhan/Inverted-Index/pkg/config"
	"github.com/vnadhan/Inverted-Index/pkg/kafka"
)

func collect(t *testing.T, src Source) []string {
	t.Helper()
	var got []string
	require.NoError(t, src.Each(context.Background(), func(text string) error {
		got = append(got, text)
		return nil
	}))
	return got
}

func TestFileSkipsEmptyLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.txt")
	require.NoError(t, os.WriteFile(path, []byte("the cat sat\n\nthe dog sat\r\n ... \nthe cat ran"), 0o644))

	src := NewFile(path)
	assert.Equal(t, "file:"+path, src.Name())
	assert.Equal(t, []string{"the cat sat", "the dog sat", " ... ", "the cat ran"}, collect(t, src))
}

func TestFileReadsLinesOfAnyLength(t *testing.T) {
	long := strings.Repeat("cat ", 512*1024)
	path := filepath.Join(t.TempDir(), "corpus.txt")
	require.NoError(t, os.WriteFile(path, []byte("the cat sat\n"+long+"\r\nthe cat ran\n"), 0o644))

	got := collect(t, NewFile(path))
	require.Len(t, got, 3)
	assert.Equal(t, "the cat sat", got[0])
	assert.Equal(t, long, got[1])
	assert.Equal(t, "the cat ran", got[2])
}

func TestFileMissing(t *testing.T) {
	err := NewFile(filepath.Join(t.TempDir(), "nope.txt")).Each(context.Background(), func(string) error { return nil })
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEachLineStopsOnCallbackError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := EachLine(context.Background(), strings.NewReader("a\nb\nc"), func(string) error {
		calls++
		if calls == 2 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "line 2")
}

func TestEachLineHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := EachLine(ctx, strings.NewReader("a\nb"), func(string) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

type fakeReader struct {
	msgs []kafkago.Message
	pos  int
}

func (f *fakeReader) ReadMessage(ctx context.Context) (kafkago.Message, error) {
	if f.pos < len(f.msgs) {
		m := f.msgs[f.pos]
		f.pos++
		return m, nil
	}
	<-ctx.Done()
	return kafkago.Message{}, ctx.Err()
}

func (f *fakeReader) Close() error { return nil }

func corpusMessages(t *testing.T, texts ...string) []kafkago.Message {
	msgs := make([]kafkago.Message, len(texts))
	for i, text := range texts {
		value, err := json.Marshal(ingestion.CorpusDocument{Seq: i, Text: text})
		require.NoError(t, err)
		msgs[i] = kafkago.Message{Offset: int64(i), Value: value}
	}
	return msgs
}

func TestKafkaReplaysTopicUntilIdle(t *testing.T) {
	reader := &fakeReader{msgs: corpusMessages(t, "the cat sat", "the dog sat", "the cat ran")}
	src := NewKafka(20*time.Millisecond, func(h kafka.MessageHandler) *kafka.Consumer {
		return kafka.NewConsumerFromReader(reader, "corpus-documents", h)
	})

	assert.Equal(t, []string{"the cat sat", "the dog sat", "the cat ran"}, collect(t, src))
}

func TestKafkaRejectsUndecodableMessage(t *testing.T) {
	reader := &fakeReader{msgs: []kafkago.Message{{Value: []byte("not json")}}}
	src := NewKafka(20*time.Millisecond, func(h kafka.MessageHandler) *kafka.Consumer {
		return kafka.NewConsumerFromReader(reader, "corpus-documents", h)
	})

	err := src.Each(context.Background(), func(string) error { return nil })
	assert.Error(t, err)
}

type fakeRows struct {
	bodies []string
	pos    int
	err    error
	closed bool
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.bodies) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	*(dest[0].(*string)) = r.bodies[r.pos-1]
	return nil
}

func (r *fakeRows) Err() error   { return r.err }
func (r *fakeRows) Close() error { r.closed = true; return nil }

func TestPostgresReadsRowsInOrder(t *testing.T) {
	rows := &fakeRows{bodies: []string{"the cat sat", "the dog sat"}}
	src := NewPostgres(func(context.Context) (Rows, error) { return rows, nil })

	assert.Equal(t, []string{"the cat sat", "the dog sat"}, collect(t, src))
	assert.True(t, rows.closed)
}

func TestPostgresPropagatesErrors(t *testing.T) {
	failing := NewPostgres(func(context.Context) (Rows, error) { return nil, io.ErrUnexpectedEOF })
	assert.ErrorIs(t, failing.Each(context.Background(), func(string) error { return nil }), io.ErrUnexpectedEOF)

	rows := &fakeRows{bodies: []string{"a"}, err: io.ErrClosedPipe}
	src := NewPostgres(func(context.Context) (Rows, error) { return rows, nil })
	assert.ErrorIs(t, src.Each(context.Background(), func(string) error { return nil }), io.ErrClosedPipe)
}

func TestOpenFileSource(t *testing.T) {
	cfg := &config.Config{Corpus: config.CorpusConfig{Source: config.SourceFile, Path: "corpus.txt"}}
	src, closer, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "file:corpus.txt", src.Name())
	assert.NoError(t, closer())

	cfg.Corpus.Source = "s3"
	_, _, err = Open(context.Background(), cfg)
	assert.Error(t, err)
}
