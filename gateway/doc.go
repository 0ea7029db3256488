// Copyright 2026 AgentFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package gateway implements the HTTP and SSE surface of the federated query
gateway: request validation, the middleware chain, and the handlers that
drive the router, orchestrator, RAG assembler, and store to answer a
question grounded in the organization's knowledge services.

# Overview

NewRouter builds a *http.ServeMux wired with every endpoint spec.md names,
wrapped in a middleware chain (recovery, request ID, logging, metrics,
security headers, CORS, rate limiting, and API key / JWT authentication).
Handlers never talk to an adapter directly; they go through the
orchestrator, router, and assembler that were wired up in cmd/gateway.

# Core types

  - Deps: every dependency a handler needs, held on a *Gateway.
  - Response / ErrorInfo: the JSON envelope written by WriteError for
    every failure path; success paths mostly write the raw domain shape
    spec.md specifies (e.g. {response, sources, context} for chat) rather
    than a generic {success, data} wrapper.
*/
package gateway
