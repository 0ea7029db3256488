// Package rag assembles a grounded answer from the orchestrator's ranked
// evidence and recent chat history: a security preflight sanitizes the
// incoming question, prompt assembly builds the system/user messages sent
// to an llm.Provider, and Answer/StreamAnswer return the completion in
// either full or incremental form.
package rag
