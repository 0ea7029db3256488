// Package router implements the gateway's query classification stage:
// deterministic pattern rules first, one LLM completion as a fallback,
// and the source-required policy that short-circuits a query before it
// reaches the orchestrator when a needed backend isn't configured.
package router
