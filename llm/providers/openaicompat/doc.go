// Package openaicompat implements llm.Provider against any endpoint that
// speaks the OpenAI chat-completions wire format: self-hosted vLLM/Ollama
// gateways, or any managed provider exposing an OpenAI-compatible API.
//
// Usage:
//
//	p := openaicompat.New(openaicompat.Config{
//	    ProviderName: "local-vllm",
//	    APIKey:       cfg.APIKey,
//	    BaseURL:      "http://localhost:8000",
//	    DefaultModel: "llama-3.1-70b",
//	}, logger)
package openaicompat
