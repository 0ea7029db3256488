// Copyright 2024 AgentFlow Authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

/*
Package cache provides a generic Redis-backed key/value manager: pooled
connections, a background health check, JSON convenience methods, and
parsed hit/miss/memory stats.

# Overview

This is distinct from the top-level cache/ package, which is the
two-layer LRU+Redis cache wired into every integration.Envelope for
backend search results. This package backs a narrower, single use:
router.Router's optional Tier B classification cache, which memoizes an
LLM-classified types.QueryAnalysis by normalized question text so a
repeated question skips a second model round-trip.

# Core types

  - Manager: holds the Redis client and pool configuration, providing
    Get/Set/Delete/Exists/Expire plus GetJSON/SetJSON convenience
    serialization.
  - Config: address, password, pool size, default TTL, and health-check
    interval.
  - Stats: parsed Redis INFO hit/miss counts, key count, memory usage,
    and connection count.

# Capabilities

  - Key/value reads and writes in both raw-string and JSON form.
  - Connection pooling via PoolSize/MinIdleConns.
  - A background health-check loop that pings Redis on an interval and
    logs failures through zap.
  - Graceful Close that releases the underlying Redis connection.
  - ErrCacheMiss sentinel and IsCacheMiss helper for miss detection.
*/
package cache
