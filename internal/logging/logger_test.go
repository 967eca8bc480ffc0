package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_ProdIsJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("prod", &buf)

	log.Debug("hidden")
	log.Info("hello", "k", "v")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "v", rec["k"])
}

func TestNewWithWriter_DevIsText(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("dev", &buf)

	log.Debug("visible", "k", "v")

	out := buf.String()
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, "msg=visible")
	assert.Contains(t, out, "k=v")
}
