package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	home := t.TempDir()
	cfg, err := Load(Options{HomeDir: home, WorkDir: t.TempDir()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.APIURL != "http://127.0.0.1:8000" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.WSPath != "/api/ws/board" {
		t.Errorf("WSPath = %q", cfg.WSPath)
	}
	if cfg.OverdueAfter != 72*time.Hour {
		t.Errorf("OverdueAfter = %v", cfg.OverdueAfter)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.RequestTimeout)
	}
	if cfg.Realtime.InitialBackoff != time.Second || cfg.Realtime.MaxBackoff != 30*time.Second {
		t.Errorf("unexpected backoff: %+v", cfg.Realtime)
	}
	if want := filepath.Join(home, ".newsdesk", "token.json"); cfg.TokenFile != want {
		t.Errorf("TokenFile = %q, want %q", cfg.TokenFile, want)
	}
}

func TestLoad_ProjectOverridesGlobal(t *testing.T) {
	home := t.TempDir()
	work := t.TempDir()

	writeFile(t, GlobalConfigPath(home), "api_url: http://global.example:8000\nrequest_timeout: 5s\n")
	writeFile(t, ProjectConfigPath(work), "api_url: https://project.example\n")

	cfg, err := Load(Options{HomeDir: home, WorkDir: work})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.APIURL != "https://project.example" {
		t.Errorf("expected project api_url, got %q", cfg.APIURL)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("expected global request_timeout to survive merge, got %v", cfg.RequestTimeout)
	}
}

func TestLoad_EnvOverridesFiles(t *testing.T) {
	home := t.TempDir()
	work := t.TempDir()
	writeFile(t, ProjectConfigPath(work), "realtime:\n  max_backoff: 10s\n")

	t.Setenv("NEWSDESK_REALTIME_MAX_BACKOFF", "45s")
	t.Setenv("NEWSDESK_LOG_LEVEL", "debug")

	cfg, err := Load(Options{HomeDir: home, WorkDir: work})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Realtime.MaxBackoff != 45*time.Second {
		t.Errorf("expected env max_backoff 45s, got %v", cfg.Realtime.MaxBackoff)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected env log level, got %q", cfg.Log.Level)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	work := t.TempDir()
	writeFile(t, filepath.Join(work, ".env"), "NEWSDESK_WS_PATH=/ws/custom\n")
	t.Cleanup(func() { os.Unsetenv("NEWSDESK_WS_PATH") })

	cfg, err := Load(Options{HomeDir: t.TempDir(), WorkDir: work})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.WSPath != "/ws/custom" {
		t.Errorf("expected ws_path from .env, got %q", cfg.WSPath)
	}
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	_, err := Load(Options{HomeDir: t.TempDir(), WorkDir: t.TempDir(), ConfigFile: "/nonexistent/newsdesk.yaml"})
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoad_TokenFileTildeExpansion(t *testing.T) {
	home := t.TempDir()
	work := t.TempDir()
	writeFile(t, ProjectConfigPath(work), "token_file: ~/tokens/desk.json\n")

	cfg, err := Load(Options{HomeDir: home, WorkDir: work})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := filepath.Join(home, "tokens", "desk.json"); cfg.TokenFile != want {
		t.Errorf("TokenFile = %q, want %q", cfg.TokenFile, want)
	}
}

func TestLoad_InvalidBackoff(t *testing.T) {
	work := t.TempDir()
	writeFile(t, ProjectConfigPath(work), "realtime:\n  initial_backoff: 10s\n  max_backoff: 1s\n")

	_, err := Load(Options{HomeDir: t.TempDir(), WorkDir: work})
	if err == nil || !strings.Contains(err.Error(), "backoff") {
		t.Fatalf("expected backoff error, got %v", err)
	}
}

func TestWebSocketURL(t *testing.T) {
	tests := []struct {
		api, path, want string
	}{
		{"http://127.0.0.1:8000", "/api/ws/board", "ws://127.0.0.1:8000/api/ws/board"},
		{"https://crm.example.com/", "api/ws/board", "wss://crm.example.com/api/ws/board"},
		{"https://crm.example.com/backend", "/api/ws/board", "wss://crm.example.com/backend/api/ws/board"},
	}
	for _, tc := range tests {
		cfg := &Config{APIURL: tc.api, WSPath: tc.path}
		got, err := cfg.WebSocketURL()
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.api, err)
		}
		if got != tc.want {
			t.Errorf("WebSocketURL(%q, %q) = %q, want %q", tc.api, tc.path, got, tc.want)
		}
	}

	cfg := &Config{APIURL: "ftp://example.com", WSPath: "/x"}
	if _, err := cfg.WebSocketURL(); err == nil {
		t.Error("expected error for ftp scheme")
	}
}

func TestWriteDefault_IsLoadable(t *testing.T) {
	work := t.TempDir()
	path := ProjectConfigPath(work)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault failed: %v", err)
	}

	cfg, err := Load(Options{HomeDir: t.TempDir(), WorkDir: work})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Realtime.PingInterval != 25*time.Second {
		t.Errorf("PingInterval = %v", cfg.Realtime.PingInterval)
	}
}
