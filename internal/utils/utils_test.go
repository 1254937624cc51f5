package utils_test

import (
	"encoding/json"
	"testing"

	"github.com/jrsteele09/medihelp-client/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestFirstString(t *testing.T) {
	m := map[string]any{"access": "", "access_token": "A", "token": "B", "n": 3.0}

	s, ok := utils.FirstString(m, "access", "access_token", "token")
	require.True(t, ok)
	require.Equal(t, "A", s)

	_, ok = utils.FirstString(m, "n", "missing")
	require.False(t, ok)
	require.Equal(t, "def", utils.StringOr(m, "def", "missing"))
}

func TestToStringSlice(t *testing.T) {
	require.Equal(t, []string{"a", "b"}, utils.ToStringSlice([]any{"a", 1.0, "b"}))
	require.Nil(t, utils.ToStringSlice("not a slice"))
}

func TestNumbers(t *testing.T) {
	i, ok := utils.Int64(12.0)
	require.True(t, ok)
	require.Equal(t, int64(12), i)

	i, ok = utils.Int64(json.Number("42"))
	require.True(t, ok)
	require.Equal(t, int64(42), i)

	_, ok = utils.Int64("x")
	require.False(t, ok)

	f, ok := utils.Float64("0.75")
	require.True(t, ok)
	require.InDelta(t, 0.75, f, 1e-9)
}

func TestPointers(t *testing.T) {
	require.Equal(t, "x", utils.ValueOr(nil, "x"))
	require.Equal(t, 3, utils.ValueOr(utils.Ptr(3), 0))
}
