// Copyright 2026 Fedquery Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
Package anthropic provides the Provider adapter for Anthropic's Claude
models, built on the official anthropic-sdk-go client rather than a
hand-rolled HTTP+SSE transport.

# Protocol differences

  - Authentication is handled internally by the SDK client (x-api-key,
    not a Bearer token).
  - The system message is extracted out of the messages array and
    passed separately as the System field.
  - Streaming events have their own shape (message_start /
    content_block_delta / message_stop) distinct from OpenAI's.

# Capabilities

  - Chat completion (/v1/messages, synchronous).
  - Streaming output (incremental text deltas).
  - Health checks (HealthCheck, a single-token probe request).
*/
package anthropic
