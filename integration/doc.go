// Copyright 2026 Fedquery Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package integration provides the uniform fault-tolerant envelope every
backend adapter runs behind: cache lookup, rate-limit admission, a
circuit breaker guarding a bounded retry loop around the adapter's own
call, cache write-back, and a health snapshot for the orchestrator's
admin surface.
*/
package integration
