package rollup

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// hostDouble is an in-process rollup node. It hands out queued requests
// and records every status, report and notice it receives.
type hostDouble struct {
	mu       sync.Mutex
	queue    []map[string]any
	statuses []string
	reports  []string
	notices  []string
	failures int
	drained  func()
	server   *httptest.Server
}

func newHostDouble(t *testing.T, queue ...map[string]any) *hostDouble {
	t.Helper()
	h := &hostDouble{queue: queue}
	h.server = httptest.NewServer(http.HandlerFunc(h.serve))
	t.Cleanup(h.server.Close)
	return h
}

func (h *hostDouble) serve(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	switch r.URL.Path {
	case "/finish":
		if h.failures > 0 {
			h.failures--
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		h.statuses = append(h.statuses, body["status"])
		if len(h.queue) == 0 {
			if h.drained != nil {
				h.drained()
			}
			w.WriteHeader(http.StatusAccepted)
			return
		}
		next := h.queue[0]
		h.queue = h.queue[1:]
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(next)
	case "/report":
		h.reports = append(h.reports, body["payload"])
		w.WriteHeader(http.StatusAccepted)
	case "/notice":
		h.notices = append(h.notices, body["payload"])
		_ = json.NewEncoder(w).Encode(map[string]int{"index": len(h.notices) - 1})
	default:
		http.NotFound(w, r)
	}
}

func (h *hostDouble) snapshot() (statuses, reports, notices []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.statuses...), append([]string(nil), h.reports...), append([]string(nil), h.notices...)
}

func advanceRequest(sender, payload string, index uint64) map[string]any {
	return map[string]any{
		"request_type": "advance_state",
		"data": map[string]any{
			"metadata": map[string]any{
				"msg_sender":   sender,
				"epoch_index":  0,
				"input_index":  index,
				"block_number": 10 + index,
				"timestamp":    1700000000 + index,
			},
			"payload": EncodeHex([]byte(payload)),
		},
	}
}

func inspectRequest(query string) map[string]any {
	return map[string]any{
		"request_type": "inspect_state",
		"data":         map[string]any{"payload": EncodeHex([]byte(query))},
	}
}
