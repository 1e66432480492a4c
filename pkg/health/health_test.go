package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passing(_ context.Context) error { return nil }

func failing(msg string) CheckFunc {
	return func(_ context.Context) error { return errors.New(msg) }
}

type statusBody struct {
	Status string
	Checks map[string]string
}

func decodeStatus(t *testing.T, w *httptest.ResponseRecorder) statusBody {
	t.Helper()
	body := statusBody{Checks: map[string]string{}}
	err := jx.DecodeBytes(w.Body.Bytes()).Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "status":
			s, err := d.Str()
			body.Status = s
			return err
		case "checks":
			return d.Obj(func(d *jx.Decoder, name string) error {
				msg, err := d.Str()
				body.Checks[name] = msg
				return err
			})
		default:
			return d.Skip()
		}
	})
	require.NoError(t, err)
	return body
}

func runN(h *Health, i, n int) {
	for range n {
		h.probes[i].run(context.Background())
	}
}

func TestEndpoints(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(h *Health)
		endpoint   func(h *Health) http.HandlerFunc
		wantStatus int
		wantChecks []string
	}{
		{
			name:       "live without checks",
			setup:      func(*Health) {},
			endpoint:   func(h *Health) http.HandlerFunc { return h.LiveEndpoint },
			wantStatus: http.StatusOK,
		},
		{
			name: "live with passing checks",
			setup: func(h *Health) {
				h.AddLivenessCheck("a", time.Second, passing)
				h.AddLivenessCheck("b", time.Second, passing)
			},
			endpoint:   func(h *Health) http.HandlerFunc { return h.LiveEndpoint },
			wantStatus: http.StatusOK,
		},
		{
			name: "live failing past threshold",
			setup: func(h *Health) {
				h.AddLivenessCheck("sessions", time.Second, failing("size 11 exceeds limit 10"))
				runN(h, 0, 3)
			},
			endpoint:   func(h *Health) http.HandlerFunc { return h.LiveEndpoint },
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: []string{"sessions"},
		},
		{
			name: "live failing below threshold",
			setup: func(h *Health) {
				h.AddLivenessCheck("flaky", time.Second, failing("temporary"))
				runN(h, 0, 2)
			},
			endpoint:   func(h *Health) http.HandlerFunc { return h.LiveEndpoint },
			wantStatus: http.StatusOK,
		},
		{
			name: "ready gate closed",
			setup: func(h *Health) {
				h.AddReadinessCheck("menu", time.Second, passing)
			},
			endpoint:   func(h *Health) http.HandlerFunc { return h.ReadyEndpoint },
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: []string{"_readiness"},
		},
		{
			name: "ready and passing",
			setup: func(h *Health) {
				h.AddReadinessCheck("menu", time.Second, passing)
				h.SetReady(true)
			},
			endpoint:   func(h *Health) http.HandlerFunc { return h.ReadyEndpoint },
			wantStatus: http.StatusOK,
		},
		{
			name: "ready with one failing check",
			setup: func(h *Health) {
				h.AddReadinessCheck("postgres", time.Second, passing)
				h.AddReadinessCheck("menu", time.Second, failing("no data loaded"))
				h.SetReady(true)
				runN(h, 1, 3)
			},
			endpoint:   func(h *Health) http.HandlerFunc { return h.ReadyEndpoint },
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: []string{"menu"},
		},
		{
			name: "liveness failure does not affect readiness",
			setup: func(h *Health) {
				h.AddLivenessCheck("goroutines", time.Second, failing("too many"))
				h.SetReady(true)
				runN(h, 0, 3)
			},
			endpoint:   func(h *Health) http.HandlerFunc { return h.ReadyEndpoint },
			wantStatus: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New()
			tt.setup(h)

			w := httptest.NewRecorder()
			tt.endpoint(h)(w, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			body := decodeStatus(t, w)
			if len(tt.wantChecks) == 0 {
				assert.Equal(t, "ok", body.Status)
				assert.Empty(t, body.Checks)
				return
			}
			assert.Equal(t, "unhealthy", body.Status)
			for _, name := range tt.wantChecks {
				assert.Contains(t, body.Checks, name)
			}
			assert.Len(t, body.Checks, len(tt.wantChecks))
		})
	}
}

func TestFailureMessage(t *testing.T) {
	h := New()
	h.AddLivenessCheck("db", time.Second, failing("connection refused"))
	runN(h, 0, 3)

	w := httptest.NewRecorder()
	h.LiveEndpoint(w, httptest.NewRequest(http.MethodGet, "/livez", nil))

	assert.Equal(t, "connection refused", decodeStatus(t, w).Checks["db"])
}

func TestThresholds(t *testing.T) {
	down := true
	h := New()
	h.Add(Check{
		Name: "flaky",
		Kind: Liveness,
		Func: func(_ context.Context) error {
			if down {
				return errors.New("down")
			}
			return nil
		},
		FailureThreshold: 1,
		SuccessThreshold: 2,
	})
	p := h.probes[0]

	runN(h, 0, 1)
	assert.False(t, p.healthy.Load())

	down = false
	runN(h, 0, 1)
	assert.False(t, p.healthy.Load(), "one success is below the threshold")
	runN(h, 0, 1)
	assert.True(t, p.healthy.Load())
	assert.Nil(t, p.lastErr.Load())
}

func TestIsReady(t *testing.T) {
	h := New()
	h.AddReadinessCheck("menu", time.Second, passing)
	assert.False(t, h.IsReady())

	h.SetReady(true)
	assert.True(t, h.IsReady())

	h.SetReady(false)
	assert.False(t, h.IsReady())
}

func TestStartStop(t *testing.T) {
	h := New()
	h.AddReadinessCheck("menu", time.Second, failing("no data loaded"))
	h.SetReady(true)

	h.Start(context.Background(), 5*time.Millisecond)
	assert.Eventually(t, func() bool { return !h.IsReady() }, time.Second, 5*time.Millisecond)

	h.Stop()
	h.Stop()
}

func TestConcurrentAccess(t *testing.T) {
	h := New()
	h.AddLivenessCheck("live", time.Second, failing("err"))
	h.AddReadinessCheck("ready", time.Second, passing)
	h.SetReady(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.Start(ctx, time.Millisecond)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				h.IsReady()
				h.LiveEndpoint(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/livez", nil))
				h.ReadyEndpoint(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/readyz", nil))
			}
		}()
	}
	wg.Wait()
	h.Stop()
}

func TestCheckers(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, GoroutineCountCheck(100000)(ctx))
	assert.ErrorContains(t, GoroutineCountCheck(0)(ctx), "exceeds threshold")

	count := func(n int, err error) func(context.Context) (int, error) {
		return func(context.Context) (int, error) { return n, err }
	}
	assert.NoError(t, NonEmptyCheck(count(7, nil))(ctx))
	assert.Error(t, NonEmptyCheck(count(0, nil))(ctx))
	assert.ErrorContains(t, NonEmptyCheck(count(0, errors.New("db down")))(ctx), "db down")
}
