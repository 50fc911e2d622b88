package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/nerrad567/gray-logic-hub/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-hub/internal/infrastructure/logging"
)

type published struct {
	topic string
	msg   any
}

type fakeBus struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (b *fakeBus) Publish(topic string, msg any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, published{topic, msg})
	return b.err
}

func testServer(t *testing.T, bus *fakeBus, status func(context.Context) Status) *Server {
	t.Helper()
	return newTestServer(t, Deps{Bus: bus, Status: status})
}

// newTestServer fills in the config, logger and version of deps.
func newTestServer(t *testing.T, deps Deps) *Server {
	t.Helper()

	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
	srv, err := New(Deps{
		Config: config.APIConfig{
			Host:     "127.0.0.1",
			Port:     0,
			Timeouts: config.APITimeoutConfig{Read: 5, Write: 5, Idle: 5},
		},
		Logger:  log,
		Bus:     deps.Bus,
		Status:  deps.Status,
		Checks:  deps.Checks,
		Version: "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return srv
}

func TestNewRequiresDeps(t *testing.T) {
	log := logging.Default()
	if _, err := New(Deps{Bus: &fakeBus{}}); err == nil {
		t.Error("New() without logger should fail")
	}
	if _, err := New(Deps{Logger: log}); err == nil {
		t.Error("New() without broker should fail")
	}
}

func TestAttach(t *testing.T) {
	bus := &fakeBus{}
	srv := testServer(t, bus, nil)

	req := httptest.NewRequest(http.MethodPost, "/attach", strings.NewReader(`{"mac":"aa:bb","device_ip":"spoofed"}`))
	req.RemoteAddr = "192.168.1.50:40123"
	rec := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rec.Code, rec.Body.String())
	}
	var resp attachResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Result != "ok" {
		t.Errorf("result = %q, want ok", resp.Result)
	}

	if len(bus.msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(bus.msgs))
	}
	got := bus.msgs[0]
	if got.topic != "device/attach" {
		t.Errorf("topic = %q, want device/attach", got.topic)
	}
	body, ok := got.msg.(map[string]any)
	if !ok {
		t.Fatalf("message type = %T, want map[string]any", got.msg)
	}
	if body["device_ip"] != "192.168.1.50" {
		t.Errorf("device_ip = %v, want 192.168.1.50", body["device_ip"])
	}
	if body["mac"] != "aa:bb" {
		t.Errorf("mac = %v, want aa:bb", body["mac"])
	}
}

func TestAttachRejectsNonObject(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"array", `[1,2]`},
		{"string", `"hello"`},
		{"null", `null`},
		{"malformed", `{"mac":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := &fakeBus{}
			srv := testServer(t, bus, nil)

			req := httptest.NewRequest(http.MethodPost, "/attach", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			srv.buildRouter().ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if len(bus.msgs) != 0 {
				t.Errorf("published %d messages, want 0", len(bus.msgs))
			}
		})
	}
}

func TestAttachAcksWhenBrokerStopped(t *testing.T) {
	bus := &fakeBus{err: errors.New("broker: not running")}
	srv := testServer(t, bus, nil)

	req := httptest.NewRequest(http.MethodPost, "/attach", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	srv := testServer(t, &fakeBus{}, func(context.Context) Status {
		return Status{Bootstrap: "authenticated", Paired: true, Dispatcher: true}
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body["bootstrap"] != "authenticated" {
		t.Errorf("bootstrap = %v, want authenticated", body["bootstrap"])
	}
	if body["dispatcher_running"] != true {
		t.Errorf("dispatcher_running = %v, want true", body["dispatcher_running"])
	}
	if body["version"] != "test" {
		t.Errorf("version = %v, want test", body["version"])
	}
	if body["paired"] != true {
		t.Errorf("paired = %v, want true", body["paired"])
	}
}

// checkFunc adapts a function to HealthChecker.
type checkFunc func(ctx context.Context) error

func (f checkFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

func TestHealthChecks(t *testing.T) {
	ok := checkFunc(func(context.Context) error { return nil })
	down := checkFunc(func(context.Context) error { return errors.New("not connected") })
	bounded := checkFunc(func(ctx context.Context) error {
		if _, set := ctx.Deadline(); !set {
			return errors.New("no deadline")
		}
		return nil
	})

	tests := []struct {
		name       string
		checks     map[string]HealthChecker
		wantCode   int
		wantStatus string
		wantChecks map[string]string
	}{
		{
			name:       "all healthy",
			checks:     map[string]HealthChecker{"database": ok, "transport": bounded},
			wantCode:   http.StatusOK,
			wantStatus: "ok",
			wantChecks: map[string]string{"database": "ok", "transport": "ok"},
		},
		{
			name:       "transport down",
			checks:     map[string]HealthChecker{"database": ok, "transport": down},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "degraded",
			wantChecks: map[string]string{"database": "ok", "transport": "not connected"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, Deps{Bus: &fakeBus{}, Checks: tt.checks})

			rec := httptest.NewRecorder()
			srv.buildRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("status code = %d, want %d", rec.Code, tt.wantCode)
			}
			var body struct {
				Status string            `json:"status"`
				Checks map[string]string `json:"checks"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decoding response: %v", err)
			}
			if body.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", body.Status, tt.wantStatus)
			}
			for name, want := range tt.wantChecks {
				if body.Checks[name] != want {
					t.Errorf("checks[%s] = %q, want %q", name, body.Checks[name], want)
				}
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	srv := testServer(t, &fakeBus{}, nil)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if id := rec.Header().Get("X-Request-ID"); len(id) != 36 {
		t.Errorf("generated X-Request-ID = %q, want a UUID", id)
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc123")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if id := rec.Header().Get("X-Request-ID"); id != "abc123" {
		t.Errorf("X-Request-ID = %q, want abc123", id)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	srv := testServer(t, &fakeBus{}, nil)
	h := srv.recoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestStartStop(t *testing.T) {
	bus := &fakeBus{}
	srv := testServer(t, bus, nil)

	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	addr := srv.Addr()
	if addr == "" {
		t.Fatal("Addr() empty after Start")
	}

	resp, err := http.Post("http://"+addr+"/attach", "application/json", strings.NewReader(`{"mac":"01"}`))
	if err != nil {
		t.Fatalf("POST /attach: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	bus.mu.Lock()
	body := bus.msgs[0].msg.(map[string]any)
	bus.mu.Unlock()
	if body["device_ip"] != "127.0.0.1" {
		t.Errorf("device_ip = %v, want 127.0.0.1", body["device_ip"])
	}

	if err := srv.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if err := srv.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}

func TestStartPortInUse(t *testing.T) {
	first := testServer(t, &fakeBus{}, nil)
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer first.Stop()

	second := testServer(t, &fakeBus{}, nil)
	_, portStr, err := net.SplitHostPort(first.Addr())
	if err != nil {
		t.Fatalf("SplitHostPort(%q): %v", first.Addr(), err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("Atoi(%q): %v", portStr, err)
	}
	second.cfg.Port = port
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Error("Start() on a bound port should fail")
	}
}
