package api

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// sseEvent represents a parsed Server-Sent Event
type sseEvent struct {
	Event string
	Data  map[string]string
}

// parseSSEStream reads SSE events from a response body
func parseSSEStream(t *testing.T, body io.Reader) <-chan sseEvent {
	t.Helper()
	events := make(chan sseEvent, 10)
	scanner := bufio.NewScanner(body)

	go func() {
		defer close(events)
		var currentEvent string
		var currentData string

		for scanner.Scan() {
			line := scanner.Text()

			if strings.HasPrefix(line, "event:") {
				currentEvent = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			} else if strings.HasPrefix(line, "data:") {
				currentData = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			} else if line == "" && currentEvent != "" {
				// End of event (blank line)
				var data map[string]string
				if currentData != "" {
					if err := json.Unmarshal([]byte(currentData), &data); err != nil {
						t.Logf("Warning: failed to parse SSE data as JSON: %v", err)
					}
				}
				events <- sseEvent{Event: currentEvent, Data: data}
				currentEvent = ""
				currentData = ""
			}
		}
	}()

	return events
}

func TestStreamHeaders(t *testing.T) {
	_, h, _ := newTestServer(t)

	reqCtx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/v1/segments/stream", nil).WithContext(reqCtx)
	rr := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.ServeHTTP(rr, req)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	result := rr.Result()
	defer result.Body.Close()

	if ct := result.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}
	if cc := result.Header.Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("Cache-Control = %q, want no-cache", cc)
	}
	if conn := result.Header.Get("Connection"); conn != "keep-alive" {
		t.Errorf("Connection = %q, want keep-alive", conn)
	}
}

func TestStreamInitAndUpdate(t *testing.T) {
	srv, h, st := newTestServer(t)
	seedSegment(t, srv, st, "beta", "country = 'DE'")
	initialETag := doJSON(t, h, http.MethodGet, "/v1/segments", nil, nil).Header().Get("ETag")

	reqCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/v1/segments/stream", nil).WithContext(reqCtx)

	pr, pw := io.Pipe()
	rw := &pipeResponseWriter{header: http.Header{}, w: pw}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer pw.Close()
		h.ServeHTTP(rw, req)
	}()

	events := parseSSEStream(t, pr)

	select {
	case ev := <-events:
		if ev.Event != "init" {
			t.Fatalf("first event = %q, want init", ev.Event)
		}
		if ev.Data["etag"] != initialETag {
			t.Errorf("init etag = %q, want %q", ev.Data["etag"], initialETag)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for init event")
	}

	// mutate and expect an update event with the new etag
	seedSegment(t, srv, st, "vip", "score > 100")

	select {
	case ev := <-events:
		if ev.Event != "update" {
			t.Fatalf("second event = %q, want update", ev.Event)
		}
		if ev.Data["etag"] == initialETag || ev.Data["etag"] == "" {
			t.Errorf("update etag should differ from initial, got %q", ev.Data["etag"])
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for update event")
	}

	cancel()
	<-done
}

// pipeResponseWriter lets a test read a streaming response while the handler
// is still running. httptest.ResponseRecorder only exposes the body after
// the handler returns.
type pipeResponseWriter struct {
	header http.Header
	w      io.Writer
}

func (p *pipeResponseWriter) Header() http.Header         { return p.header }
func (p *pipeResponseWriter) WriteHeader(int)             {}
func (p *pipeResponseWriter) Write(b []byte) (int, error) { return p.w.Write(b) }
func (p *pipeResponseWriter) Flush()                      {}
