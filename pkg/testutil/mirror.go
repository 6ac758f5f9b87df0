package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// MirrorServer is an HTTP mirror serving fixed resources
type MirrorServer struct {
	*httptest.Server

	mu        sync.Mutex
	resources map[string]resource
	hits      []string
}

type resource struct {
	status int
	body   []byte
}

// NewMirrorServer starts a mirror closed automatically when the test ends
func NewMirrorServer(t *testing.T) *MirrorServer {
	t.Helper()
	m := &MirrorServer{resources: map[string]resource{}}
	m.Server = httptest.NewServer(http.HandlerFunc(m.serve))
	t.Cleanup(m.Close)
	return m
}

// Serve registers body for path with status 200
func (m *MirrorServer) Serve(path string, body []byte) *MirrorServer {
	return m.ServeStatus(path, http.StatusOK, body)
}

// ServeStatus registers a response for path
func (m *MirrorServer) ServeStatus(path string, status int, body []byte) *MirrorServer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resources[path] = resource{status: status, body: body}
	return m
}

// Hits returns the requested paths in order
func (m *MirrorServer) Hits() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.hits...)
}

func (m *MirrorServer) serve(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.hits = append(m.hits, r.URL.Path)
	res, ok := m.resources[r.URL.Path]
	m.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(res.status)
	_, _ = w.Write(res.body)
}
