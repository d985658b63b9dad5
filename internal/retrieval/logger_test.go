package retrieval_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"knowbase/internal/retrieval"
)

func TestQueryLogger_WritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	l := retrieval.NewQueryLogger(&buf)

	l.Log(retrieval.QueryLogEntry{BotID: "bot-1", Query: "first", NumResults: 2})
	l.Log(retrieval.QueryLogEntry{BotID: "bot-1", Query: "second", NumResults: 0})

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	assert.Len(t, lines, 2)

	var entry retrieval.QueryLogEntry
	assert.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "first", entry.Query)
	assert.False(t, entry.Timestamp.IsZero())
}

func TestNewFileQueryLogger_CreatesDirectoryAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "queries.jsonl")

	l, err := retrieval.NewFileQueryLogger(path)
	assert.NoError(t, err)

	l.Log(retrieval.QueryLogEntry{BotID: "bot-1", Query: "hello"})

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Contains(t, string(data), `"query":"hello"`)
}
