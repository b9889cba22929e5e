package crm

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// fakeCRM is an in-memory stand-in for the CRM REST API.
type fakeCRM struct {
	t *testing.T

	mu        sync.Mutex
	locations []Location
	fields    []CustomField
	requests  []string
	rawPaths  []string
	bodies    map[string][]map[string]any
	failPaths map[string]int
}

func newFakeCRM(t *testing.T) (*fakeCRM, *httptest.Server) {
	f := &fakeCRM{
		t:         t,
		locations: []Location{{ID: "loc-1", Name: "Main Campus"}, {ID: "loc-2", Name: "Other"}},
		bodies:    make(map[string][]map[string]any),
		failPaths: make(map[string]int),
	}
	server := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(server.Close)
	return f, server
}

func (f *fakeCRM) count(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if r == method+" "+path {
			n++
		}
	}
	return n
}

func (f *fakeCRM) lastRawPath() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.rawPaths) == 0 {
		return ""
	}
	return f.rawPaths[len(f.rawPaths)-1]
}

func (f *fakeCRM) lastBody(path string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	bodies := f.bodies[path]
	if len(bodies) == 0 {
		return nil
	}
	return bodies[len(bodies)-1]
}

func (f *fakeCRM) serve(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer test-key" {
		f.t.Errorf("Expected bearer auth, got %q", r.Header.Get("Authorization"))
	}
	if r.Header.Get("Version") != APIVersion {
		f.t.Errorf("Expected Version header %s, got %q", APIVersion, r.Header.Get("Version"))
	}

	f.mu.Lock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	f.rawPaths = append(f.rawPaths, r.URL.EscapedPath())
	var body map[string]any
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&body)
	}
	if body != nil {
		f.bodies[r.URL.Path] = append(f.bodies[r.URL.Path], body)
	}
	status, fail := f.failPaths[r.URL.Path]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if fail {
		w.WriteHeader(status)
		w.Write([]byte(`{"message":"boom"}`))
		return
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/locations/search":
		json.NewEncoder(w).Encode(map[string]any{"locations": f.locations})
	case r.Method == http.MethodGet && r.URL.Path == "/locations/loc-1/customFields":
		f.mu.Lock()
		fields := append([]CustomField(nil), f.fields...)
		f.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{"customFields": fields})
	case r.Method == http.MethodPost && r.URL.Path == "/locations/loc-1/customFields":
		f.mu.Lock()
		created := CustomField{ID: "cf-" + body["name"].(string), Name: body["name"].(string), DataType: body["dataType"].(string)}
		f.fields = append(f.fields, created)
		f.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{"customField": created})
	case r.Method == http.MethodPost && r.URL.Path == "/contacts/upsert":
		json.NewEncoder(w).Encode(map[string]any{"new": true, "contact": map[string]any{"id": "contact-1"}})
	case r.Method == http.MethodPost && r.URL.Path == "/opportunities/":
		json.NewEncoder(w).Encode(map[string]any{"opportunity": map[string]any{"id": "opp-1"}})
	case r.Method == http.MethodPost && r.URL.Path == "/contacts/contact-1/tasks":
		json.NewEncoder(w).Encode(map[string]any{"task": map[string]any{"id": "task-1"}})
	case r.Method == http.MethodPost && r.URL.Path == "/contacts/contact-1/notes":
		json.NewEncoder(w).Encode(map[string]any{"note": map[string]any{"id": "note-1"}})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestClient(url string) *Client {
	return NewClient(url, "test-key", 5*time.Second)
}
