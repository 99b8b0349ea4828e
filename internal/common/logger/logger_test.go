package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "leveling-test", false, FormatJSON)

	Info().Str("address", "0xabc").Uint64("xp", 520).Msg("Completion confirmed")
	Debug().Msg("hidden below info")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "leveling-test", entry["service"])
	assert.Equal(t, "Completion confirmed", entry["message"])
	assert.Equal(t, "0xabc", entry["address"])
	assert.Equal(t, float64(520), entry["xp"])
	assert.Contains(t, entry, "timestamp")
}

func TestConsoleFormatDebug(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "leveling-test", true, FormatConsole)

	WithLevel(zerolog.WarnLevel).Str("task", "7").Msg("Ledger behind event")

	out := buf.String()
	assert.Contains(t, out, "Logger initialized")
	assert.Contains(t, out, "| Ledger behind event")
	assert.Contains(t, out, "task:7")
}
