package testsupport

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
)

// Request is one call observed by Backend.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   map[string]any
}

// Failure scripts an error response for a method/doctype pair.
type Failure struct {
	Status  int
	Message string
	// Hang closes the connection without a response, simulating a transport
	// failure.
	Hang bool
}

// Backend is an in-memory implementation of the resource API contract.
type Backend struct {
	Server *httptest.Server

	mu          sync.Mutex
	collections map[string][]map[string]any
	failures    map[string]Failure
	requests    []Request
	nextID      int
}

// NewBackend starts a backend and closes it when the test ends.
func NewBackend(t *testing.T) *Backend {
	t.Helper()
	b := &Backend{
		collections: make(map[string][]map[string]any),
		failures:    make(map[string]Failure),
	}
	b.Server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.Server.Close)
	return b
}

// URL returns the backend base URL.
func (b *Backend) URL() string {
	return b.Server.URL
}

// Seed appends records to the doctype collection.
func (b *Backend) Seed(doctype string, records ...map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.collections[doctype] = append(b.collections[doctype], records...)
}

// Fail scripts a failure for method on doctype ("GET", "POST", ...).
func (b *Backend) Fail(method, doctype string, failure Failure) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[method+" "+doctype] = failure
}

// Requests returns the observed calls in order.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Request(nil), b.requests...)
}

// RequestsFor returns observed calls matching method and path prefix.
func (b *Backend) RequestsFor(method, pathPrefix string) []Request {
	var out []Request
	for _, req := range b.Requests() {
		if req.Method == method && strings.HasPrefix(req.Path, pathPrefix) {
			out = append(out, req)
		}
	}
	return out
}

// Records returns the stored records of doctype.
func (b *Backend) Records(doctype string) []map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]map[string]any(nil), b.collections[doctype]...)
}

func (b *Backend) serve(w http.ResponseWriter, r *http.Request) {
	rest, ok := strings.CutPrefix(r.URL.Path, "/api/resource/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	doctype, id, _ := strings.Cut(rest, "/")

	var body map[string]any
	if r.Body != nil {
		data, _ := io.ReadAll(r.Body)
		if len(data) > 0 {
			_ = json.Unmarshal(data, &body)
		}
	}

	b.mu.Lock()
	b.requests = append(b.requests, Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   body,
	})
	failure, failing := b.failures[r.Method+" "+doctype]
	b.mu.Unlock()

	if failing {
		if failure.Hang {
			if hj, ok := w.(http.Hijacker); ok {
				conn, _, err := hj.Hijack()
				if err == nil {
					_ = conn.Close()
					return
				}
			}
		}
		status := failure.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		payload := map[string]any{}
		if failure.Message != "" {
			payload["error"] = failure.Message
		}
		writeJSON(w, status, payload)
		return
	}

	switch {
	case r.Method == http.MethodGet && id == "":
		writeJSON(w, http.StatusOK, map[string]any{"data": b.filter(doctype, r.URL.Query())})
	case r.Method == http.MethodGet:
		record, found := b.find(doctype, id)
		if !found {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "record not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": record})
	case r.Method == http.MethodPost && id == "":
		b.mu.Lock()
		b.nextID++
		record := map[string]any{"id": fmt.Sprintf("%s-%d", doctype, b.nextID)}
		for key, value := range body {
			record[key] = value
		}
		b.collections[doctype] = append(b.collections[doctype], record)
		b.mu.Unlock()
		writeJSON(w, http.StatusCreated, map[string]any{"data": record})
	case r.Method == http.MethodPut && id != "":
		b.mu.Lock()
		defer b.mu.Unlock()
		for _, record := range b.collections[doctype] {
			if fmt.Sprint(record["id"]) == id {
				for key, value := range body {
					record[key] = value
				}
				writeJSON(w, http.StatusOK, map[string]any{"data": record})
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "record not found"})
	case r.Method == http.MethodDelete && id != "":
		b.mu.Lock()
		defer b.mu.Unlock()
		records := b.collections[doctype]
		for idx, record := range records {
			if fmt.Sprint(record["id"]) == id {
				b.collections[doctype] = append(records[:idx:idx], records[idx+1:]...)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "record not found"})
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
	}
}

// filter applies equality filters on every query parameter the records carry.
func (b *Backend) filter(doctype string, query url.Values) []map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := []map[string]any{}
	for _, record := range b.collections[doctype] {
		match := true
		for key := range query {
			value, has := record[key]
			if has && fmt.Sprint(value) != query.Get(key) {
				match = false
				break
			}
		}
		if match {
			out = append(out, record)
		}
	}
	return out
}

func (b *Backend) find(doctype, id string) (map[string]any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, record := range b.collections[doctype] {
		if fmt.Sprint(record["id"]) == id {
			return record, true
		}
	}
	return nil, false
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
