package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/TimurManjosov/segmentd/internal/snapshot"
	"github.com/TimurManjosov/segmentd/internal/telemetry"
)

// handleStream handles GET /v1/segments/stream, a Server-Sent Events feed of
// snapshot changes. Clients get an init event with the current ETag, then an
// update event whenever the snapshot is swapped. Payloads carry only the
// ETag; clients re-fetch /v1/segments to get the new definitions.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		InternalError(w, r, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	telemetry.SSEClients.Inc()
	defer telemetry.SSEClients.Dec()

	updates, unsub := snapshot.Subscribe()
	defer unsub()

	writeEvent := func(event, etag string) {
		fmt.Fprintf(w, "event: %s\ndata: {\"etag\":%q}\n\n", event, etag)
		flusher.Flush()
	}

	writeEvent("init", snapshot.Load().ETag)

	keepalive := time.NewTicker(15 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case etag, ok := <-updates:
			if !ok {
				return
			}
			writeEvent("update", etag)
		case <-keepalive.C:
			// comment line per SSE spec, keeps proxies from closing the stream
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}
