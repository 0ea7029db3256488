// Copyright 2026 Fedquery Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package adapters implements one thin translator per backend knowledge
service, each satisfying integration.Adapter. Every adapter's job is
narrow: issue the vendor-specific HTTP call and map its response into
types.Record. Everything else — caching, admission control, retries,
fault isolation — is the calling integration.Envelope's job.
*/
package adapters
