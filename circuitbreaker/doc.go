// Copyright 2026 Fedquery Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package circuitbreaker implements a three-state (closed/open/half-open)
breaker used by every Integration Envelope to stop hammering a backend
service that's already failing.

Rate-limit and pure client-input errors never count toward tripping the
breaker — see isExcluded — since they reflect admission control or a bad
request, not a degraded backend.
*/
package circuitbreaker
