package client

import "fmt"

// DefaultURL returns the conventional local endpoint for a provider
func DefaultURL(p Provider) string {
	switch p {
	case ProviderOllama:
		return "http://localhost:11434"
	case ProviderLlamaCpp:
		return "http://localhost:8080"
	}
	return ""
}

// ParseProvider validates a backend name
func ParseProvider(name string) (Provider, error) {
	switch p := Provider(name); p {
	case ProviderOllama, ProviderLlamaCpp:
		return p, nil
	}
	return "", fmt.Errorf("unknown backend: %s (use 'ollama' or 'llamacpp')", name)
}
