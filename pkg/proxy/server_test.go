package proxy

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/RichardSufliarsky/apikeywall/pkg/config"
	"github.com/RichardSufliarsky/apikeywall/pkg/telemetry/logging"
)

func testProxyConfig() *config.ProxyConfig {
	return &config.ProxyConfig{
		ListenAddress:     "127.0.0.1:0",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   time.Second,
	}
}

// echoAuthorization returns an upstream that echoes the Authorization header.
func echoAuthorization(t *testing.T) *httptest.Server {
	t.Helper()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, r.Header.Get("Authorization"))
	}))
	t.Cleanup(upstream.Close)
	return upstream
}

func setBearer(value string) RequestHookFunc {
	return func(f *Flow) {
		f.Request.Header.Set("Authorization", value)
	}
}

func TestServer_ForwardsAndRunsHooks(t *testing.T) {
	upstream := echoAuthorization(t)

	var seen *Flow
	record := RequestHookFunc(func(f *Flow) { seen = f })

	srv := NewServer(testProxyConfig(), NewOptions(), NewShutdown(),
		WithHooks(setBearer("Bearer replaced"), record),
		WithLogger(logging.Discard()),
	)

	req := httptest.NewRequest(http.MethodGet, upstream.URL+"/v1/models", nil)
	req.Header.Set("Authorization", "Bearer original")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %q)", w.Code, w.Body.String())
	}
	if got := w.Body.String(); got != "Bearer replaced" {
		t.Errorf("upstream saw Authorization %q, want %q", got, "Bearer replaced")
	}
	if seen == nil {
		t.Fatal("second hook did not run")
	}
	if seen.Host != "127.0.0.1" {
		t.Errorf("flow host = %q, want 127.0.0.1", seen.Host)
	}
	if seen.ID == "" {
		t.Error("flow ID is empty")
	}
}

func TestServer_AllowListScopesHooks(t *testing.T) {
	upstream := echoAuthorization(t)

	tests := []struct {
		name  string
		hosts []string
		want  string
	}{
		{name: "empty list", hosts: nil, want: "Bearer replaced"},
		{name: "host listed", hosts: []string{"127.0.0.1"}, want: "Bearer replaced"},
		{name: "host not listed", hosts: []string{"api.example.com"}, want: "Bearer original"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := NewOptions()
			opts.SetAllowHosts(tt.hosts)
			srv := NewServer(testProxyConfig(), opts, NewShutdown(),
				WithHooks(setBearer("Bearer replaced")),
				WithLogger(logging.Discard()),
			)

			req := httptest.NewRequest(http.MethodGet, upstream.URL, nil)
			req.Header.Set("Authorization", "Bearer original")
			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, req)

			if got := w.Body.String(); got != tt.want {
				t.Errorf("upstream saw %q, want %q", got, tt.want)
			}
		})
	}
}

func TestServer_RejectsNonProxyRequests(t *testing.T) {
	srv := NewServer(testProxyConfig(), NewOptions(), NewShutdown(), WithLogger(logging.Discard()))
	handler := srv.Handler()

	tests := []struct {
		name     string
		method   string
		target   string
		wantCode int
	}{
		{name: "connect", method: http.MethodConnect, target: "api.example.com:443", wantCode: http.StatusMethodNotAllowed},
		{name: "origin form", method: http.MethodGet, target: "/v1/models", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(tt.method, tt.target, nil))
			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
			}
		})
	}
}

func TestServer_UpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	target := upstream.URL
	upstream.Close()

	srv := NewServer(testProxyConfig(), NewOptions(), NewShutdown(), WithLogger(logging.Discard()))

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))

	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadGateway)
	}
}

func TestServer_UpstreamTLS(t *testing.T) {
	upstream := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "tls ok")
	}))
	defer upstream.Close()

	cfg := testProxyConfig()
	cfg.UpstreamTLS = true
	srv := NewServer(cfg, NewOptions(), NewShutdown(),
		WithTransport(upstream.Client().Transport),
		WithLogger(logging.Discard()),
	)

	plain := strings.Replace(upstream.URL, "https://", "http://", 1)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, plain, nil))

	if w.Code != http.StatusOK || w.Body.String() != "tls ok" {
		t.Errorf("got %d %q, want 200 %q", w.Code, w.Body.String(), "tls ok")
	}
}

func TestServer_MiddlewareRunsBeforeHooks(t *testing.T) {
	upstream := echoAuthorization(t)

	var order []string
	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "middleware")
			next.ServeHTTP(w, r)
		})
	}
	hook := RequestHookFunc(func(f *Flow) { order = append(order, "hook") })

	srv := NewServer(testProxyConfig(), NewOptions(), NewShutdown(),
		WithMiddleware(mw),
		WithHooks(hook),
		WithLogger(logging.Discard()),
	)
	srv.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, upstream.URL, nil))

	if strings.Join(order, ",") != "middleware,hook" {
		t.Errorf("order = %v, want [middleware hook]", order)
	}
}

func TestServer_StartAndShutdownFlag(t *testing.T) {
	upstream := echoAuthorization(t)
	shutdown := NewShutdown()
	srv := NewServer(testProxyConfig(), NewOptions(), shutdown,
		WithHooks(setBearer("Bearer via-proxy")),
		WithLogger(logging.Discard()),
	)

	done := make(chan error, 1)
	go func() { done <- srv.Start(context.Background()) }()

	deadline := time.Now().Add(5 * time.Second)
	for srv.Addr() == nil {
		if time.Now().After(deadline) {
			t.Fatal("server did not start")
		}
		time.Sleep(10 * time.Millisecond)
	}

	proxyURL, _ := url.Parse("http://" + srv.Addr().String())
	client := &http.Client{Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)}}

	resp, err := client.Get(upstream.URL)
	if err != nil {
		t.Fatalf("request through proxy failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "Bearer via-proxy" {
		t.Errorf("upstream saw %q, want %q", body, "Bearer via-proxy")
	}

	shutdown.Set()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after shutdown flag was set")
	}
	if srv.IsRunning() {
		t.Error("server still reports running")
	}
}

func TestFlowHost(t *testing.T) {
	tests := []struct {
		target string
		want   string
	}{
		{"http://api.example.com/v1", "api.example.com"},
		{"http://api.example.com:8443/v1", "api.example.com"},
		{"http://[::1]:8080/", "::1"},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, tt.target, nil)
		if got := flowHost(r); got != tt.want {
			t.Errorf("flowHost(%q) = %q, want %q", tt.target, got, tt.want)
		}
	}
}
