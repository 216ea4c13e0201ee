package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func modelsHandler(body string, status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}
}

func TestCheck_Healthy(t *testing.T) {
	server := httptest.NewServer(modelsHandler(`{"data": [{"id": "llama3.2"}, {"id": "qwen2.5"}]}`, 200))
	defer server.Close()

	s := Check(context.Background(), server.URL, "")
	if !s.Reachable {
		t.Fatalf("server should be reachable: %s", s.Error)
	}
	if len(s.Models) != 2 {
		t.Errorf("expected 2 models, got %v", s.Models)
	}
	if s.Latency <= 0 {
		t.Error("latency not measured")
	}
}

func TestCheck_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	s := Check(context.Background(), server.URL, "")
	if s.Reachable {
		t.Error("closed server reported reachable")
	}
	if !strings.Contains(s.Error, "cannot reach") {
		t.Errorf("unexpected error text: %s", s.Error)
	}
}

func TestCheck_AuthFailure(t *testing.T) {
	server := httptest.NewServer(modelsHandler(`{}`, 401))
	defer server.Close()

	s := Check(context.Background(), server.URL, "wrong-key")
	if s.Reachable {
		t.Error("401 reported reachable")
	}
	if !strings.Contains(s.Error, "API key") {
		t.Errorf("auth failure should mention the key: %s", s.Error)
	}
}

func TestCheck_NonStandardBody(t *testing.T) {
	// Some local servers answer /models with non-OpenAI JSON; that still
	// counts as reachable.
	server := httptest.NewServer(modelsHandler(`["llama3.2"]`, 200))
	defer server.Close()

	s := Check(context.Background(), server.URL, "")
	if !s.Reachable {
		t.Errorf("non-standard body should still be reachable: %s", s.Error)
	}
}

func TestCheckModel(t *testing.T) {
	server := httptest.NewServer(modelsHandler(`{"data": [{"id": "llama3.2"}]}`, 200))
	defer server.Close()

	if err := CheckModel(context.Background(), server.URL, "", "llama3.2"); err != nil {
		t.Errorf("present model reported missing: %v", err)
	}
	err := CheckModel(context.Background(), server.URL, "", "gpt-5")
	if err == nil {
		t.Fatal("missing model not reported")
	}
	if !strings.Contains(err.Error(), "llama3.2") {
		t.Errorf("error should list available models: %v", err)
	}
}
