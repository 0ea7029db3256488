// Copyright 2026 Fedquery Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package ratelimit implements per-service admission control: a token
bucket for steady-state throughput, a sliding window cap, and an
adaptive penalty that escalates backoff for a caller hitting the limit
repeatedly. Manager owns one Limiter per types.Source.
*/
package ratelimit
