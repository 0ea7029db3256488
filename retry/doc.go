// Copyright 2026 Fedquery Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

// Package retry implements exponential-backoff-with-jitter retry for
// transient backend failures, consulted by every Integration Envelope
// before a failure counts against its circuit breaker.
package retry
