// Copyright (c) Fedquery Authors.
// Licensed under the MIT License.

/*
Package types provides the federated query gateway's shared data model.

# Overview

types sits at the bottom of the module's dependency graph: it imports
nothing internal, giving adapters, cache, circuitbreaker, ratelimit,
orchestrator, router, rag, store, and gateway a common type vocabulary
without creating import cycles.

# Core types

  - Source / Intent — closed enums: Source identifies a backend
    knowledge service, Intent identifies a router classification.
  - Record — the unified evidence unit every adapter produces.
  - SearchQuery — the retrieval request the orchestrator dispatches to
    each integrated service.
  - QueryAnalysis — the router's classification of an incoming
    question.
  - ServiceConfig — one backend service's connectivity and tuning
    configuration.
  - CircuitState — the circuit breaker's three-state lifecycle.
  - HealthStatus / ServiceMetricsSnapshot — health and metrics
    snapshots.
  - Settings — per-user runtime settings stored in the KV store and
    served through /api/settings.
  - Error / ErrorCode — the structured error hierarchy, carrying an
    HTTP status code and a Retryable flag.
*/
package types
