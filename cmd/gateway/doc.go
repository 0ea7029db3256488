// Copyright 2026 AgentFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Command gateway runs the federated query gateway: it loads configuration,
wires the backend service adapters into the orchestrator, constructs the
LLM-backed router and RAG assembler, and serves the HTTP/SSE API.

Usage:

	gateway serve [--config path]
	gateway version
	gateway health [--addr url]
	gateway help
*/
package main
