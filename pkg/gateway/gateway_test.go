package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/RichardSufliarsky/apikeywall/pkg/config"
	"github.com/RichardSufliarsky/apikeywall/pkg/reload"
	"github.com/RichardSufliarsky/apikeywall/pkg/telemetry/logging"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Proxy.ListenAddress = "127.0.0.1:0"
	cfg.Proxy.ShutdownTimeout = time.Second
	cfg.Secrets.Path = filepath.Join(t.TempDir(), "apikeywall.json")
	cfg.Telemetry.Metrics.Enabled = true
	cfg.Telemetry.Metrics.ListenAddress = "127.0.0.1:0"
	return cfg
}

func writeSecrets(t *testing.T, cfg *config.Config, content string) {
	t.Helper()
	if err := os.WriteFile(cfg.Secrets.Path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write secrets: %v", err)
	}
}

// echoUpstream reports the Authorization header it received.
func echoUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, r.Header.Get("Authorization"))
	}))
	t.Cleanup(upstream.Close)
	return upstream
}

type running struct {
	gw   *Gateway
	done chan error
}

func start(t *testing.T, cfg *config.Config) *running {
	t.Helper()
	gw, err := New(cfg, WithLogger(logging.Discard()), WithRegistry(prometheus.NewRegistry()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	r := &running{gw: gw, done: make(chan error, 1)}
	go func() { r.done <- gw.Start(context.Background()) }()

	deadline := time.Now().Add(5 * time.Second)
	for gw.ProxyAddr() == nil || gw.AdminAddr() == nil {
		select {
		case err := <-r.done:
			t.Fatalf("Start() returned early: %v", err)
		default:
		}
		if time.Now().After(deadline) {
			t.Fatal("gateway did not start")
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Cleanup(func() {
		gw.Shutdown()
		select {
		case <-r.done:
		case <-time.After(5 * time.Second):
			t.Error("gateway did not stop")
		}
		if err := gw.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return r
}

func (r *running) client() *http.Client {
	proxyURL, _ := url.Parse("http://" + r.gw.ProxyAddr().String())
	return &http.Client{
		Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)},
		Timeout:   5 * time.Second,
	}
}

func get(t *testing.T, client *http.Client, target, authorization string) string {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, target, nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", authorization)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("GET %s via proxy: %v", target, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return string(body)
}

func TestGateway_EndToEnd(t *testing.T) {
	upstream := echoUpstream(t)
	_, port, err := net.SplitHostPort(upstream.Listener.Addr().String())
	if err != nil {
		t.Fatal(err)
	}

	cfg := testConfig(t)
	writeSecrets(t, cfg, `[{"tokenin":"ph1","tokenout":"sk-real","endpoints":["127.0.0.1"]}]`)

	r := start(t, cfg)
	client := r.client()

	if _, err := os.Stat(cfg.Secrets.Path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("secrets file not consumed at startup: %v", err)
	}

	tests := []struct {
		name   string
		target string
		auth   string
		want   string
	}{
		{name: "matching host", target: "http://127.0.0.1:" + port + "/v1", auth: "Bearer ph1", want: "Bearer sk-real"},
		{name: "lowercase scheme", target: "http://127.0.0.1:" + port + "/v1", auth: "bearer ph1", want: "Bearer sk-real"},
		{name: "other host passes through", target: "http://localhost:" + port + "/v1", auth: "Bearer ph1", want: "Bearer ph1"},
		{name: "unknown token passes through", target: "http://127.0.0.1:" + port + "/v1", auth: "Bearer other", want: "Bearer other"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := get(t, client, tt.target, tt.auth); got != tt.want {
				t.Errorf("upstream saw %q, want %q", got, tt.want)
			}
		})
	}

	st := r.gw.Status()
	if st.Generation != 1 || st.Rules != 1 || st.AllowHosts != 1 {
		t.Errorf("Status() = %+v", st)
	}
}

func TestGateway_HotReload(t *testing.T) {
	upstream := echoUpstream(t)
	target := upstream.URL + "/v1"

	cfg := testConfig(t)
	cfg.Reload.Interval = time.Second
	writeSecrets(t, cfg, `[{"tokenin":"ph1","tokenout":"sk-one","endpoints":["127.0.0.1"]}]`)

	r := start(t, cfg)
	client := r.client()

	if got := get(t, client, target, "Bearer ph1"); got != "Bearer sk-one" {
		t.Fatalf("before reload upstream saw %q", got)
	}

	writeSecrets(t, cfg, `[{"tokenin":"ph1","tokenout":"sk-two","endpoints":["127.0.0.1"]}]`)

	deadline := time.Now().Add(5 * time.Second)
	for r.gw.Store().Generation() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("secrets were not reloaded")
		}
		time.Sleep(20 * time.Millisecond)
	}

	if got := get(t, client, target, "Bearer ph1"); got != "Bearer sk-two" {
		t.Errorf("after reload upstream saw %q, want %q", got, "Bearer sk-two")
	}
}

func TestGateway_AdminEndpoints(t *testing.T) {
	cfg := testConfig(t)
	writeSecrets(t, cfg, `[{"tokenin":"ph1","tokenout":"sk-real","endpoints":["a.com","b.com"]}]`)
	r := start(t, cfg)

	base := "http://" + r.gw.AdminAddr().String()

	resp, err := http.Get(base + HealthPath)
	if err != nil {
		t.Fatalf("GET %s: %v", HealthPath, err)
	}
	defer resp.Body.Close()

	var health map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("invalid health JSON: %v", err)
	}
	if health["status"] != "ok" || health["generation"] != float64(1) || health["allow_hosts"] != float64(2) {
		t.Errorf("health = %v", health)
	}

	mresp, err := http.Get(base + cfg.Telemetry.Metrics.Path)
	if err != nil {
		t.Fatalf("GET metrics: %v", err)
	}
	defer mresp.Body.Close()
	body, _ := io.ReadAll(mresp.Body)

	for _, want := range []string{
		`apikeywall_reloads_total{outcome="applied"} 1`,
		"apikeywall_rules_generation 1",
		"apikeywall_allow_hosts 2",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics missing %q", want)
		}
	}
	if strings.Contains(string(body), "sk-real") {
		t.Error("metrics output contains a credential")
	}
}

func TestGateway_Journal(t *testing.T) {
	cfg := testConfig(t)
	cfg.Journal.Enabled = true
	cfg.Journal.Path = filepath.Join(t.TempDir(), "journal.db")
	writeSecrets(t, cfg, `[{"tokenin":"ph1","tokenout":"sk-real","endpoints":["a.com"]}]`)
	r := start(t, cfg)

	resp, err := http.Get("http://" + r.gw.AdminAddr().String() + JournalPath)
	if err != nil {
		t.Fatalf("GET %s: %v", JournalPath, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	var got struct {
		Entries []struct {
			Outcome    string `json:"outcome"`
			Generation uint64 `json:"generation"`
			Rules      int    `json:"rules"`
		} `json:"entries"`
	}
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("invalid journal JSON: %v", err)
	}
	if len(got.Entries) != 1 || got.Entries[0].Outcome != "applied" || got.Entries[0].Rules != 1 {
		t.Errorf("journal = %s", body)
	}
	if strings.Contains(string(body), "sk-real") || strings.Contains(string(body), "ph1") {
		t.Error("journal output contains rule tokens")
	}
}

func TestGateway_StartupRequiresSecrets(t *testing.T) {
	cfg := testConfig(t)

	gw, err := New(cfg, WithLogger(logging.Discard()), WithRegistry(prometheus.NewRegistry()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	err = gw.Start(context.Background())
	if !errors.Is(err, reload.ErrSecretsMissing) {
		t.Fatalf("Start() error = %v, want %v", err, reload.ErrSecretsMissing)
	}
	if !gw.Status().ShutDown {
		t.Error("shutdown flag not raised")
	}
}

func TestGateway_StartupToleratesMissingSecrets(t *testing.T) {
	cfg := testConfig(t)
	cfg.Secrets.AllowMissingOnStartup = true

	r := start(t, cfg)
	if st := r.gw.Status(); st.Generation != 0 || st.ShutDown {
		t.Errorf("Status() = %+v, want empty running gateway", st)
	}
}

func TestGateway_RequestMode(t *testing.T) {
	upstream := echoUpstream(t)
	target := upstream.URL + "/v1"

	cfg := testConfig(t)
	cfg.Reload.Mode = config.ReloadModeRequest
	cfg.Reload.MinInterval = time.Millisecond
	cfg.Secrets.AllowMissingOnStartup = true

	r := start(t, cfg)
	client := r.client()

	writeSecrets(t, cfg, `[{"tokenin":"ph1","tokenout":"sk-req","endpoints":["127.0.0.1"]}]`)

	// The check runs inline before this request is intercepted.
	if got := get(t, client, target, "Bearer ph1"); got != "Bearer sk-req" {
		t.Errorf("upstream saw %q, want %q", got, "Bearer sk-req")
	}
}

func TestNew_InvalidReloadMode(t *testing.T) {
	cfg := testConfig(t)
	cfg.Reload.Mode = "sometimes"

	if _, err := New(cfg, WithLogger(logging.Discard())); err == nil {
		t.Fatal("New() error = nil, want error")
	}
}

func ExampleGateway_Status() {
	cfg := config.Default()
	cfg.Secrets.Path = filepath.Join(os.TempDir(), "apikeywall-example.json")

	gw, err := New(cfg, WithLogger(logging.Discard()), WithRegistry(prometheus.NewRegistry()))
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("%+v\n", gw.Status())
	// Output: {Generation:0 Rules:0 AllowHosts:0 ShutDown:false}
}
