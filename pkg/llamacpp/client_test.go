package llamacpp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/menta2k/minimap-analyzer/pkg/client"
)

func TestNewClient(t *testing.T) {
	c, err := NewClient("")
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if c.baseURL != "http://localhost:8080" {
		t.Errorf("Expected default base URL, got %s", c.baseURL)
	}
	if c.Provider() != client.ProviderLlamaCpp {
		t.Errorf("Expected provider llamacpp, got %s", c.Provider())
	}

	if _, err := NewClient("localhost:8080"); err == nil {
		t.Error("Expected error for URL without scheme")
	}
}

func TestStructuredQuery(t *testing.T) {
	var got ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"{\"mapName\":\"Ascent\"}"}}]}`))
	}))
	defer srv.Close()

	c, err := NewClientWithHTTP(srv.URL+"/", srv.Client())
	if err != nil {
		t.Fatalf("NewClientWithHTTP failed: %v", err)
	}

	schema := json.RawMessage(`{"type":"object"}`)
	text, err := c.StructuredQuery(context.Background(), "qwen2.5-vl", "find the minimap", "iVBORw0KGgoAAAA", schema)
	if err != nil {
		t.Fatalf("StructuredQuery failed: %v", err)
	}
	if text != `{"mapName":"Ascent"}` {
		t.Errorf("unexpected reply %q", text)
	}

	if got.Model != "qwen2.5-vl" {
		t.Errorf("Expected model qwen2.5-vl, got %s", got.Model)
	}
	if got.ResponseFormat == nil || got.ResponseFormat.Type != "json_schema" {
		t.Fatalf("Expected json_schema response format, got %+v", got.ResponseFormat)
	}
	if string(got.ResponseFormat.JSONSchema.Schema) != `{"type":"object"}` {
		t.Errorf("schema not forwarded: %s", got.ResponseFormat.JSONSchema.Schema)
	}

	parts, ok := got.Messages[0].Content.([]interface{})
	if !ok || len(parts) != 2 {
		t.Fatalf("Expected text and image parts, got %#v", got.Messages[0].Content)
	}
	img := parts[1].(map[string]interface{})["image_url"].(map[string]interface{})["url"].(string)
	if !strings.HasPrefix(img, "data:image/png;base64,") {
		t.Errorf("Expected png data URL, got %s", img)
	}
}

func TestStructuredQuery_ArrayContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":[{"type":"text","text":"{}"}]}}]}`))
	}))
	defer srv.Close()

	c, _ := NewClientWithHTTP(srv.URL, srv.Client())
	text, err := c.StructuredQuery(context.Background(), "m", "p", "", nil)
	if err != nil {
		t.Fatalf("StructuredQuery failed: %v", err)
	}
	if text != "{}" {
		t.Errorf("unexpected reply %q", text)
	}
}

func TestStructuredQuery_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `model crashed`},
		{"no choices", http.StatusOK, `{"choices":[]}`},
		{"not json", http.StatusOK, `<html>`},
		{"empty content", http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"  "}}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, _ := NewClientWithHTTP(srv.URL, srv.Client())
			if _, err := c.StructuredQuery(context.Background(), "m", "p", "", nil); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestSniffMime(t *testing.T) {
	cases := map[string]string{
		"iVBORw0KGgoAAA":   "image/png",
		"UklGRlYAAABXRUJQ": "image/webp",
		"/9j/4AAQSkZJRg":   "image/jpeg",
	}
	for in, want := range cases {
		if got := sniffMime(in); got != want {
			t.Errorf("sniffMime(%q) = %s, want %s", in, got, want)
		}
	}
}
