package backup

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
)

// mockDevice is an httptest server answering fixed routes and recording
// every request URI it sees.
type mockDevice struct {
	*httptest.Server

	mu       sync.Mutex
	routes   map[string]string
	statuses map[string]int
	requests []string
}

func newMockDevice(t *testing.T, routes map[string]string) *mockDevice {
	t.Helper()
	d := &mockDevice{routes: routes, statuses: map[string]int{}}
	d.Server = httptest.NewServer(http.HandlerFunc(d.serve))
	t.Cleanup(d.Close)
	return d
}

func (d *mockDevice) serve(w http.ResponseWriter, r *http.Request) {
	uri := r.URL.RequestURI()

	d.mu.Lock()
	d.requests = append(d.requests, uri)
	status, hasStatus := d.statuses[uri]
	body, ok := d.routes[uri]
	d.mu.Unlock()

	if hasStatus {
		w.WriteHeader(status)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write([]byte(body))
}

func (d *mockDevice) failWith(uri string, status int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.statuses[uri] = status
}

func (d *mockDevice) requested(uri string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, r := range d.requests {
		if r == uri {
			return true
		}
	}
	return false
}

// listTree returns every regular file under root as slash-separated
// relative paths, sorted.
func listTree(t *testing.T, root string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(root, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", root, err)
	}
	sort.Strings(files)
	return files
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
