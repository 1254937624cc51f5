package logging_test

import (
	"bytes"
	"testing"

	"github.com/jrsteele09/medihelp-client/internal/logging"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter(t *testing.T) {
	t.Run("json outside dev", func(t *testing.T) {
		var buf bytes.Buffer
		l := logging.NewWithWriter(&buf, "warn", "PROD")
		l.Info().Msg("hidden")
		l.Warn().Str("k", "v").Msg("shown")

		require.NotContains(t, buf.String(), "hidden")
		require.Contains(t, buf.String(), `"k":"v"`)
		require.Contains(t, buf.String(), `"message":"shown"`)
	})

	t.Run("unknown level is info", func(t *testing.T) {
		var buf bytes.Buffer
		l := logging.NewWithWriter(&buf, "chatty", "PROD")
		l.Debug().Msg("debug")
		l.Info().Msg("info")

		require.NotContains(t, buf.String(), `"message":"debug"`)
		require.Contains(t, buf.String(), `"message":"info"`)
	})

	t.Run("console in dev", func(t *testing.T) {
		var buf bytes.Buffer
		l := logging.NewWithWriter(&buf, "info", "DEV")
		l.Info().Msg("hello")

		require.Contains(t, buf.String(), "hello")
		require.NotContains(t, buf.String(), `"message"`)
	})
}
