// Copyright 2026 Fedquery Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package chunk splits retrieved documents into token-bounded pieces for
LLM context assembly, and greedily fits a ranked document list into a
fixed token budget. The chunker never calls the model; token counts are
estimates (or, for recognized model families, a precise tiktoken count)
used only for sizing decisions.
*/
package chunk
