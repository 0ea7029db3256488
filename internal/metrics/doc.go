// Copyright 2026 AgentFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package metrics provides Prometheus-based instrumentation for the gateway,
covering the HTTP surface, the per-backend integration envelopes, LLM
provider calls, and the KV store.

# Overview

Collector registers and records every Prometheus metric the gateway
exports, using promauto's automatic registration so callers never touch
a Registry directly. Metrics are namespaced and labeled so Grafana-style
dashboards can slice by backend source, LLM provider, or HTTP route.

# Core types

  - Collector: holds the Counter/Histogram/Gauge vectors, grouped by
    concern.

# Coverage

  - HTTP metrics: request totals and duration, labeled by method/path,
    with status bucketed into 2xx/3xx/4xx/5xx.
  - Backend service metrics: search call totals, failures, cache
    hits/misses, call latency, and circuit breaker state, labeled by
    source — mirrors types.ServiceMetricsSnapshot.
  - LLM metrics: request totals and duration, labeled by
    provider/model/purpose (router classification vs. answer
    assembly).
  - Store metrics: query duration, labeled by operation.
*/
package metrics
