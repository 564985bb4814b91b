// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for _, level := range []slog.Level{LevelTrace, LevelDebug, LevelInfo, LevelWarn, LevelError, LevelCrit} {
		parsed, ok := ParseLevel(LevelString(level))
		assert.True(t, ok)
		assert.Equal(t, level, parsed)
	}
	parsed, ok := ParseLevel("WARN")
	assert.True(t, ok)
	assert.Equal(t, LevelWarn, parsed)

	_, ok = ParseLevel("verbose")
	assert.False(t, ok)
}

func TestWithContextFollowsDefault(t *testing.T) {
	root := Root()
	defer SetDefault(root)

	// declared before the default logger is replaced
	logger := WithContext("pkg", "test")

	var buf bytes.Buffer
	var level slog.LevelVar
	level.Set(LevelInfo)
	SetDefault(NewLogger(NewJSONHandler(&buf, &level)))

	logger.Debug("hidden")
	assert.Zero(t, buf.Len())

	logger.With("op", "openStake").Info("committed", "events", 2)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "committed", record["msg"])
	assert.Equal(t, "test", record["pkg"])
	assert.Equal(t, "openStake", record["op"])
	assert.Equal(t, float64(2), record["events"])

	buf.Reset()
	level.Set(LevelDebug)
	logger.Debug("shown")
	assert.NotZero(t, buf.Len())
}
