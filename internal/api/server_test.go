package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"benchmix/internal/allocation"
	"benchmix/internal/bench"
)

func TestHandlePresets(t *testing.T) {
	s := NewServer(":0")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/presets", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var presets []bench.Preset
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &presets))
	assert.Len(t, presets, len(bench.ListPresets()))
	assert.Equal(t, "balanced", presets[0].Name)
}

func TestHandlersRejectWrongMethod(t *testing.T) {
	s := NewServer(":0")
	tests := []struct {
		method, path string
	}{
		{http.MethodPost, "/api/status"},
		{http.MethodPost, "/api/presets"},
		{http.MethodGet, "/api/plan"},
		{http.MethodGet, "/api/run"},
		{http.MethodPost, "/api/result"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, "%s %s", tt.method, tt.path)
	}
}

func TestHandlePlan(t *testing.T) {
	s := NewServer(":0")
	body := `{"mode":"combined","endpoints":2,"weights":{"shared_counter":1,"transfer_object":1,"delegation":0},
		"load":{"target_qps":100,"workers":4,"in_flight_ratio":2,"hotness_factor":0,"transfer_accounts":1}}`

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/plan", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var plan allocation.Plan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plan))
	assert.Equal(t, "combined", plan.Mode)
	require.Len(t, plan.Quotas, 1)
	assert.Equal(t, uint64(200), plan.Quotas[0].Quota.MaxOps)
	assert.Equal(t, 200, plan.Requests.CounterPayload)
	require.Len(t, plan.Endpoints, 2)
	assert.Equal(t, 100, plan.Endpoints[1].CounterPayload)
}

func TestHandlePlanEmptyBodyUsesDefaults(t *testing.T) {
	s := NewServer(":0")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/plan", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var plan allocation.Plan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plan))
	assert.Equal(t, "disjoint", plan.Mode)
	assert.Len(t, plan.Endpoints, bench.DefaultConfig().EndpointCount)
}

func TestHandlePlanInvalid(t *testing.T) {
	s := NewServer(":0")
	for _, body := range []string{`{"mode":"mixed"}`, `{"load":{"hotness_factor":200}}`, `not json`} {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/plan", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestHandleResultBeforeRun(t *testing.T) {
	s := NewServer(":0")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/result", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunLifecycle(t *testing.T) {
	s := NewServer(":0")
	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/run", strings.NewReader(`{"preset":"quick"}`)))
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"quick"`)

	s.Wait()

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	var status StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.False(t, status.Running)
	assert.True(t, status.HasResult)
	assert.Equal(t, "quick", status.Name)
	assert.Empty(t, status.LastError)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/result", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var result bench.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 6, result.TotalInstances)
	assert.Len(t, result.Endpoints, 2)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "benchmix_provisions_total")
}

func TestRunFailureIsReported(t *testing.T) {
	s := NewServer(":0")
	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/run",
		strings.NewReader(`{"preset":"quick","funding":{"gas_balance":1}}`)))
	require.Equal(t, http.StatusAccepted, rec.Code)
	s.Wait()

	status := s.status()
	assert.False(t, status.HasResult)
	assert.Contains(t, status.LastError, "insufficient funds")
}

func TestWebSocketReceivesRunEvents(t *testing.T) {
	s := NewServer(":0")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ws, err := websocket.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", "", ts.URL)
	require.NoError(t, err)
	defer ws.Close()

	require.Eventually(t, func() bool {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return len(s.wsClients) == 1
	}, time.Second, 5*time.Millisecond)

	go s.forwardEvents(ctx)
	require.Eventually(t, func() bool { return s.bus.SubscriberCount() == 1 }, time.Second, 5*time.Millisecond)

	resp, err := http.Post(ts.URL+"/api/run", "application/json", strings.NewReader(`{"preset":"quick"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	seen := map[string]int{}
	// 直接送信される完了通知がバス経由のイベントより先に届くことがある
	for seen["run_complete"] == 0 || seen["allocation_completed"] == 0 {
		var msg string
		require.NoError(t, websocket.Message.Receive(ws, &msg))

		var envelope struct {
			Type  string `json:"type"`
			Event struct {
				Type string `json:"type"`
			} `json:"event"`
		}
		require.NoError(t, json.Unmarshal([]byte(msg), &envelope))
		seen[envelope.Type]++
		if envelope.Type == "event" {
			seen[envelope.Event.Type]++
		}
	}

	assert.Positive(t, seen["event"])
	assert.Equal(t, 2, seen["endpoint_provisioned"])
	s.Wait()
}
