// Copyright 2024 AgentFlow Authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

/*
Package server provides HTTP/HTTPS server lifecycle management: a
non-blocking start, graceful shutdown, and OS signal handling, used by
cmd/gateway for both the main gateway listener and the metrics
listener.

# Overview

Manager wraps net/http.Server, driving its listen/serve/shutdown
sequence and propagating startup and runtime errors onto a channel the
caller can select on. It supports both plain HTTP and TLS, and
installs a SIGINT/SIGTERM handler for graceful shutdown in production.

# Core types

  - Manager: holds the http.Server, its net.Listener, and an async
    error channel, providing Start/StartTLS/Shutdown/WaitForShutdown.
  - Config: listen address, read/write/idle timeouts, max header size,
    and the graceful shutdown timeout.

# Capabilities

  - Non-blocking start: Start/StartTLS run the server on a background
    goroutine so the caller's main thread isn't blocked.
  - Graceful shutdown: Shutdown drains in-flight requests and releases
    connections within the configured timeout.
  - Signal handling: WaitForShutdown listens for SIGINT/SIGTERM and
    triggers graceful shutdown automatically.
  - Error propagation: Errors() returns the async error channel so the
    caller can monitor server failures.
  - TLS support: StartTLS accepts a certificate and key file.
  - Status queries: IsRunning reports whether the server is currently
    serving; Addr returns the configured listen address, while
    ListenerAddr returns the address actually bound by the OS —
    the one to use when Addr is an ephemeral ":0".
*/
package server
