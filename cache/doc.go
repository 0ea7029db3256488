// Copyright 2026 Fedquery Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package cache implements the gateway's multi-layer cache: an in-process
LRU (L1) in front of a shared Redis instance (L2), keyed by backend
service and normalized query text.

Every Integration Envelope reads through Cache before calling its
adapter and writes through on a miss, so repeated identical questions
within the TTL window never re-hit a backend service.
*/
package cache
