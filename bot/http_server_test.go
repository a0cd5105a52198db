package bot

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AvaProtocol/ercx-bot/core/config"
	"github.com/AvaProtocol/ercx-bot/core/testutil"
	"github.com/AvaProtocol/ercx-bot/metrics"
	"github.com/AvaProtocol/ercx-bot/version"
)

func newTestBot() *Bot {
	b := &Bot{
		config:   &config.Config{},
		logger:   testutil.GetLogger(),
		registry: prometheus.NewRegistry(),
		status:   initStatus,
	}
	b.metrics = metrics.NewBotMetrics(b.registry)
	return b
}

func get(t *testing.T, b *Bot, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	b.newHttpServer().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestUpFollowsStatus(t *testing.T) {
	b := newTestBot()

	rec := get(t, b, "/up")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	b.setStatus(runningStatus)
	rec = get(t, b, "/up")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "up", rec.Body.String())

	b.setStatus(shutdownStatus)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, b, "/up").Code)
}

func TestVersionEndpoint(t *testing.T) {
	rec := get(t, newTestBot(), "/version")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HttpJsonResp[versionInfo]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, version.Get(), resp.Data.Version)
	assert.Equal(t, version.Commit(), resp.Data.Revision)
}

func TestMetricsEndpoint(t *testing.T) {
	b := newTestBot()
	b.metrics.IncEvent("text")
	b.metrics.SetActivePolls(2)

	rec := get(t, b, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `ercx_bot_num_events_total{kind="text"} 1`)
	assert.Contains(t, rec.Body.String(), "ercx_bot_active_polls 2")
}

func TestGoSafeRecoversPanics(t *testing.T) {
	b := newTestBot()
	done := make(chan struct{})

	b.goSafe(func() {
		defer close(done)
		panic("boom")
	})

	<-done
}
