package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type Status struct {
	BaseURL   string
	Reachable bool
	Models    []string
	Error     string
	Latency   time.Duration
}

// Check verifies that the inference server is reachable and responding
// by hitting its /models endpoint.
func Check(ctx context.Context, baseURL, apiKey string) Status {
	s := Status{BaseURL: baseURL}
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	url := strings.TrimRight(baseURL, "/") + "/models"
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		s.Error = err.Error()
		return s
	}
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		s.Error = fmt.Sprintf("cannot reach %s: %s", baseURL, friendlyError(err))
		s.Latency = time.Since(start)
		return s
	}
	defer resp.Body.Close()
	s.Latency = time.Since(start)

	if resp.StatusCode == 401 || resp.StatusCode == 403 {
		s.Error = "authentication failed — check your API key"
		return s
	}
	if resp.StatusCode != 200 {
		s.Error = fmt.Sprintf("endpoint returned HTTP %d", resp.StatusCode)
		return s
	}

	var result struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		// Some endpoints return non-standard JSON but are still reachable
		s.Reachable = true
		return s
	}

	s.Reachable = true
	for _, m := range result.Data {
		s.Models = append(s.Models, m.ID)
	}
	return s
}

// CheckModel verifies that a specific model is available on the server.
func CheckModel(ctx context.Context, baseURL, apiKey, modelName string) error {
	status := Check(ctx, baseURL, apiKey)
	if !status.Reachable {
		return fmt.Errorf("server not reachable: %s", status.Error)
	}
	if len(status.Models) == 0 {
		return nil // endpoint doesn't list models, skip check
	}
	for _, m := range status.Models {
		if m == modelName {
			return nil
		}
	}
	return fmt.Errorf("model %q not found — available: %s", modelName, strings.Join(status.Models, ", "))
}

func friendlyError(err error) string {
	msg := err.Error()
	if strings.Contains(msg, "connection refused") {
		return "connection refused (is the server running?)"
	}
	if strings.Contains(msg, "no such host") {
		return "host not found (check the URL)"
	}
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded") {
		return "connection timed out (server may be starting up)"
	}
	return msg
}
