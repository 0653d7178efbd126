package client

import (
	"context"
	"encoding/json"
)

// Provider tags which hosted inference backend a client talks to
type Provider string

const (
	ProviderOllama   Provider = "ollama"
	ProviderLlamaCpp Provider = "llamacpp"
)

// VisionClient is a multimodal chat backend that accepts one image per request
type VisionClient interface {
	Provider() Provider
	SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error)
	// StructuredQuery asks for a reply constrained to schema and returns the raw reply text
	StructuredQuery(ctx context.Context, model, prompt, imgB64 string, schema json.RawMessage) (string, error)
}
