package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&Config{Level: DebugLevel, Output: &buf, JSON: true})
	log.With("component", "test").Debug("record created", "id", 7)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "record created", entry["msg"])
	assert.Equal(t, "test", entry["component"])
	assert.EqualValues(t, 7, entry["id"])
}

func TestNewLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&Config{Level: WarnLevel, Output: &buf})
	log.Info("hidden")
	assert.Empty(t, buf.String())
	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	var buf bytes.Buffer
	log := NewLogger(&Config{Level: InfoLevel, Output: &buf})
	ctx := ContextWithLogger(context.Background(), log)
	FromContext(ctx).Info("from context")
	assert.Contains(t, buf.String(), "from context")
}

func TestPrintfLogger(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrintfLogger(NewLogger(&Config{Level: DebugLevel, Output: &buf}))
	p.Printf("OK   %s (%d)\n", "00001_create.sql", 3)
	assert.Contains(t, buf.String(), "00001_create.sql (3)")
}

func TestPrintfLogger_FatalfExits(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrintfLogger(NewLogger(&Config{Level: DebugLevel, Output: &buf}))
	code := -1
	p.exit = func(c int) { code = c }

	p.Fatalf("goose run: %v\n", "no migrations")
	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), "goose run: no migrations")
}
