package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLogger_AddsCallerFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)
	SetFormat("json")

	GetLogger().WithField("pin_id", "p1").Info("hello")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "p1", line["pin_id"])
	assert.Contains(t, line["function"], "TestGetLogger_AddsCallerFields")
	assert.NotEmpty(t, line["file"])
}

func TestSetLevel_IgnoresUnknown(t *testing.T) {
	SetLevel("warn")
	assert.Equal(t, "warning", logger.GetLevel().String())
	SetLevel("nonsense")
	assert.Equal(t, "warning", logger.GetLevel().String())
	SetLevel("debug")
}
