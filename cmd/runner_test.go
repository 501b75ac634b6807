package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/musij/internal/shared"
	"github.com/urfave/cli/v3"
)

func newTestApp(runner *Runner) *cli.Command {
	return &cli.Command{
		Name:     "musij",
		Commands: runner.register(),
	}
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
		})

		t.Run("with nil dependencies uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("compact output", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"status": "OK"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "{\"status\":\"OK\"}\n" {
				t.Errorf("unexpected output: %q", output.String())
			}
		})

		t.Run("pretty output", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"status": "OK"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !strings.Contains(output.String(), "  \"status\": \"OK\"") {
				t.Errorf("expected indented output, got %q", output.String())
			}
		})
	})

	t.Run("loadConfig", func(t *testing.T) {
		t.Run("missing file falls back to defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			config := runner.loadConfig(filepath.Join(t.TempDir(), "missing.toml"))
			if config.Server.Port == 0 {
				t.Error("expected default port to be set")
			}
		})

		t.Run("environment overrides file values", func(t *testing.T) {
			t.Setenv("LASTFM_API_KEY", "env_key")
			t.Setenv("PORT", "4100")

			runner := NewRunner(RunnerOpts{})
			config := runner.loadConfig(filepath.Join(t.TempDir(), "missing.toml"))

			if config.Credentials.LastFM.APIKey != "env_key" {
				t.Errorf("expected env api key, got %q", config.Credentials.LastFM.APIKey)
			}
			if config.Server.Port != 4100 {
				t.Errorf("expected env port 4100, got %d", config.Server.Port)
			}
		})
	})

	t.Run("Setup", func(t *testing.T) {
		t.Run("creates config file", func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.toml")
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			app := newTestApp(runner)
			if err := app.Run(context.Background(), []string{"musij", "setup", "--config", configPath}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if _, err := os.Stat(configPath); os.IsNotExist(err) {
				t.Error("expected config file to be created")
			}
		})

		t.Run("initializes database when path configured", func(t *testing.T) {
			dir := t.TempDir()
			configPath := filepath.Join(dir, "config.toml")
			dbPath := filepath.Join(dir, "musij.db")
			t.Setenv("DATABASE_PATH", dbPath)

			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			app := newTestApp(runner)
			if err := app.Run(context.Background(), []string{"musij", "setup", "--config", configPath}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if _, err := os.Stat(dbPath); os.IsNotExist(err) {
				t.Error("expected database file to be created")
			}
		})
	})

	t.Run("Cache", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		app := newTestApp(runner)
		if err := app.Run(context.Background(), []string{"musij", "cache"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		for _, key := range []string{"events", "song", "artist", "track", "spotify_token"} {
			if !strings.Contains(output.String(), key) {
				t.Errorf("expected %s ttl in output, got %q", key, output.String())
			}
		}
	})

	t.Run("Health", func(t *testing.T) {
		t.Run("prints report from running server", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/health" {
					http.NotFound(w, r)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"status": "OK", "apis": {"stripe": true}}`))
			}))
			defer server.Close()

			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output, HTTPClient: server.Client()})

			app := newTestApp(runner)
			if err := app.Run(context.Background(), []string{"musij", "health", "--url", server.URL}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if !strings.Contains(output.String(), `"status":"OK"`) {
				t.Errorf("unexpected output: %q", output.String())
			}
		})

		t.Run("fails on unreachable server", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			app := newTestApp(runner)
			err := app.Run(context.Background(), []string{"musij", "health", "--url", "http://127.0.0.1:1"})
			if err == nil {
				t.Error("expected an error for an unreachable server")
			}
		})

		t.Run("fails on non-200 response", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "down", http.StatusServiceUnavailable)
			}))
			defer server.Close()

			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, HTTPClient: server.Client()})

			app := newTestApp(runner)
			err := app.Run(context.Background(), []string{"musij", "health", "--url", server.URL})
			if err == nil {
				t.Error("expected an error for a non-200 response")
			}
		})
	})
}
