package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nupdate/nupdate/module/choco/types"
	"github.com/nupdate/nupdate/util/common/errors"
)

func TestFetch(t *testing.T) {
	payload := "fake msi payload"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer server.Close()

	dir := t.TempDir()
	f := NewFetcher(dir, 1, time.Millisecond)

	path, err := f.Fetch(context.Background(), server.URL+"/installer-x64.msi", types.X64)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading downloaded file: %v", err)
	}
	if string(data) != payload {
		t.Errorf("downloaded content = %q, want %q", data, payload)
	}

	name := filepath.Base(path)
	if !strings.HasPrefix(name, "x64_") {
		t.Errorf("destination %q does not carry the role prefix", name)
	}
	if !strings.HasSuffix(name, ".msi") {
		t.Errorf("destination %q does not keep the source extension", name)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("destination dir = %q, want %q", filepath.Dir(path), dir)
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok after retries"))
	}))
	defer server.Close()

	f := NewFetcher(t.TempDir(), 3, time.Millisecond)

	path, err := f.Fetch(context.Background(), server.URL+"/installer.msi", types.X32)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Errorf("server hit %d times, want 3", got)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "ok after retries" {
		t.Errorf("downloaded content = %q", data)
	}
}

func TestFetchGivesUpAfterConfiguredAttempts(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	f := NewFetcher(t.TempDir(), 2, time.Millisecond)

	_, err := f.Fetch(context.Background(), server.URL+"/installer.msi", types.X64)
	if err == nil {
		t.Fatal("Fetch() expected error after exhausting attempts")
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Errorf("server hit %d times, want 2", got)
	}

	var dlErr *errors.DownloadError
	if !errors.As(err, &dlErr) {
		t.Fatalf("Fetch() error = %T, want *errors.DownloadError", err)
	}
	if dlErr.Attempts != 2 {
		t.Errorf("DownloadError.Attempts = %d, want 2", dlErr.Attempts)
	}
}

func TestFetchTerminalStatusNotRetried(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := NewFetcher(t.TempDir(), 3, time.Millisecond)

	_, err := f.Fetch(context.Background(), server.URL+"/gone.msi", types.X64)
	if err == nil {
		t.Fatal("Fetch() expected error for 404")
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("server hit %d times, want 1", got)
	}

	var dlErr *errors.DownloadError
	if !errors.As(err, &dlErr) {
		t.Fatalf("Fetch() error = %T, want *errors.DownloadError", err)
	}
}

func TestFetchCreatesDownloadDir(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("x"))
	}))
	defer server.Close()

	dir := filepath.Join(t.TempDir(), "nested", "downloads")
	f := NewFetcher(dir, 1, time.Millisecond)

	if _, err := f.Fetch(context.Background(), server.URL+"/a.msi", types.X32); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("download dir %q not created", dir)
	}
}

func TestDestName(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		role    types.Role
		prefix  string
		wantExt string
	}{
		{name: "msi extension kept", url: "https://example.com/path/setup-x64.msi", role: types.X64, prefix: "x64_", wantExt: ".msi"},
		{name: "exe extension kept", url: "https://example.com/setup.exe", role: types.X32, prefix: "x32_", wantExt: ".exe"},
		{name: "query string ignored", url: "https://example.com/setup.msi?token=abc.def", role: types.X64, prefix: "x64_", wantExt: ".msi"},
		{name: "no extension defaults to msi", url: "https://example.com/download", role: types.X32, prefix: "x32_", wantExt: ".msi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := destName(tt.url, tt.role)
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("destName() = %q, want prefix %q", got, tt.prefix)
			}
			if !strings.HasSuffix(got, tt.wantExt) {
				t.Errorf("destName() = %q, want extension %q", got, tt.wantExt)
			}
		})
	}
}

func TestDestNameUnique(t *testing.T) {
	a := destName("https://example.com/setup.msi", types.X64)
	b := destName("https://example.com/setup.msi", types.X64)
	if a == b {
		t.Errorf("destName() produced colliding names: %q", a)
	}
}
