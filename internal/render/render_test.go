package render

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sample() map[string]any {
	return map[string]any{
		"PORT":    8080,
		"DEBUG":   true,
		"RATIO":   0.25,
		"NAME":    "svc",
		"HOSTS":   []any{"a", "b"},
		"TIMEOUT": 90 * time.Second,
		"NULL":    nil,
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sample(), FormatJSON))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 8080.0, got["PORT"])
	assert.Equal(t, "1m30s", got["TIMEOUT"])
	assert.Equal(t, []any{"a", "b"}, got["HOSTS"])
	assert.Contains(t, got, "NULL")
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sample(), FormatYAML))

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 8080, got["PORT"])
	assert.Equal(t, true, got["DEBUG"])
	assert.Equal(t, "1m30s", got["TIMEOUT"])
}

func TestWriteDotEnv(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sample(), FormatDotEnv))

	out := buf.String()
	assert.Contains(t, out, "PORT=8080\n")
	assert.Contains(t, out, `DEBUG="true"`)
	assert.Contains(t, out, `HOSTS="[\"a\",\"b\"]"`)
	assert.Contains(t, out, `TIMEOUT="1m30s"`)
	assert.NotContains(t, out, "NULL")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestWriteUnsupportedFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, sample(), "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xml")
}

func TestNormalizeTimestamp(t *testing.T) {
	ts := time.Date(2018, 10, 30, 19, 12, 48, 969_000_000, time.UTC)
	got := Normalize(map[string]any{"AT": ts})
	assert.Equal(t, "2018-10-30T19:12:48.969Z", got["AT"])
}

func TestNonFiniteFloatsRenderInEveryFormat(t *testing.T) {
	values := map[string]any{"RATE": math.Inf(1), "FLOOR": math.Inf(-1), "RATIO": 0.5}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, values, FormatJSON))
	var fromJSON map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fromJSON))
	assert.Equal(t, "+Inf", fromJSON["RATE"])
	assert.Equal(t, "-Inf", fromJSON["FLOOR"])
	assert.Equal(t, 0.5, fromJSON["RATIO"])

	buf.Reset()
	require.NoError(t, Write(&buf, values, FormatYAML))
	var fromYAML map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &fromYAML))
	assert.Equal(t, "+Inf", fromYAML["RATE"])

	buf.Reset()
	require.NoError(t, Write(&buf, values, FormatDotEnv))
	assert.Contains(t, buf.String(), `RATE="+Inf"`)
}

func TestNormalizeKeepsFiniteFloats(t *testing.T) {
	got := Normalize(map[string]any{"F64": 0.25, "F32": float32(1.5)})
	assert.Equal(t, 0.25, got["F64"])
	assert.Equal(t, float32(1.5), got["F32"])
}
