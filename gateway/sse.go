package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/fedquery/gateway/internal/pool"
)

// sseWriter writes Server-Sent Events frames of the form
// "data: <json>\n\n", flushing after each event so a slow LLM stream
// still reaches the client token by token.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// newSSEWriter sets the SSE response headers and returns a writer, or
// nil if the underlying ResponseWriter doesn't support flushing.
func newSSEWriter(w http.ResponseWriter) *sseWriter {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	return &sseWriter{w: w, flusher: flusher}
}

// event is the common envelope shape: a "type" discriminator plus
// whatever payload fields that type carries. The frame is assembled in
// a pooled buffer, since a long answer stream writes one of these per
// token.
func (s *sseWriter) event(payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	buf := pool.ByteBufferPool.Get()
	defer pool.ByteBufferPool.Put(buf)

	buf.WriteString("data: ")
	buf.Write(data)
	buf.WriteString("\n\n")

	if _, err := s.w.Write(buf.Bytes()); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
