package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/urfave/cli/v3"
)

// Health queries a running aggregator's /health endpoint and prints the report.
func (r *Runner) Health(ctx context.Context, cmd *cli.Command) error {
	url := cmd.String("url") + "/health"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build health request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read health response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned %d: %s", resp.StatusCode, body)
	}

	var report map[string]any
	if err := json.Unmarshal(body, &report); err != nil {
		return fmt.Errorf("failed to decode health response: %w", err)
	}

	return r.writeJSON(report, cmd.Bool("pretty"))
}
