// Copyright 2026 Fedquery Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package orchestrator selects which backend services a query should hit,
dispatches them in parallel bounded by a semaphore, aggregates and ranks
the results deterministically by keyword overlap plus service priority,
and exposes both a one-shot Search and a streaming StreamSearch that
emits per-service events as they settle.
*/
package orchestrator
