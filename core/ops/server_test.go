package ops

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/filmbot/core/metrics"
)

func TestHealthz(t *testing.T) {
	healthy := true
	s := New(":0", map[string]Check{
		"catalog": func(context.Context) error {
			if healthy {
				return nil
			}
			return errors.New("catalog unreachable")
		},
	})

	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "ok", body.Checks["catalog"])

	healthy = false
	rec = httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "catalog unreachable")
}

func TestMetricsEndpoint(t *testing.T) {
	metrics.FilmsAdded.Inc()
	rec := httptest.NewRecorder()
	New(":0", nil).Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "bot_films_added_total"))
}

func TestStartAndShutdown(t *testing.T) {
	s := New("127.0.0.1:0", nil)
	require.NoError(t, s.Start(context.Background()))
	assert.NoError(t, s.Shutdown(context.Background()))
}
