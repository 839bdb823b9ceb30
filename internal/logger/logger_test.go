package logger

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestConfigureLevelAndComponent(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "warn", Output: &buf})
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	l := Component("screens")
	l.Info().Msg("hidden")
	l.Warn().Msg("shown")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, `"component":"screens"`)
	require.Contains(t, out, "shown")
}

func TestConfigureFallsBackToInfo(t *testing.T) {
	Configure(Config{Level: "loud", Output: &bytes.Buffer{}})
	require.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestGinMiddlewareLogsRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	r := gin.New()
	r.Use(GinMiddleware(zerolog.New(&buf)))
	r.GET("/api/questions/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/questions/42", nil))

	out := buf.String()
	require.Contains(t, out, `"route":"/api/questions/:id"`)
	require.Contains(t, out, `"status":404`)
	require.Contains(t, out, `"level":"warn"`)
}
