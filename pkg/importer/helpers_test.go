package importer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func fastRetries(t *testing.T) {
	t.Helper()
	old := retryBase
	retryBase = time.Millisecond
	t.Cleanup(func() { retryBase = old })
}

func TestDownloadFile(t *testing.T) {
	content := "nid,Last Name\n1,Doe\n"
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(content))
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "judges.csv")
	if err := downloadFile(context.Background(), ts.URL, dest); err != nil {
		t.Fatalf("downloadFile: %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != content {
		t.Errorf("content = %q, want %q", string(data), content)
	}
	if _, err := os.Stat(dest + ".part"); !os.IsNotExist(err) {
		t.Errorf("temporary file left behind: %v", err)
	}
}

func TestDownloadFile_Retry(t *testing.T) {
	fastRetries(t)
	attempts := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "retry.txt")
	if err := downloadFile(context.Background(), ts.URL, dest); err != nil {
		t.Fatalf("downloadFile with retries: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestDownloadFile_NotFoundIsNotRetried(t *testing.T) {
	fastRetries(t)
	attempts := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	err := downloadFile(context.Background(), ts.URL, filepath.Join(t.TempDir(), "x"))
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("err = %v, want HTTP 404", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestDownloadFile_AllFail(t *testing.T) {
	fastRetries(t)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "fail.txt")
	if err := downloadFile(context.Background(), ts.URL, dest); err == nil {
		t.Error("expected error after all retries exhausted")
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Errorf("dest should not exist after failure: %v", err)
	}
}

func TestBackupFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.gob")

	if got, err := backupFile(path); err != nil || got != "" {
		t.Fatalf("backupFile(missing) = %q, %v; want no-op", got, err)
	}

	os.WriteFile(path, []byte("v1"), 0o644)
	mtime := time.Date(2024, 3, 5, 14, 7, 9, 0, time.Local)
	os.Chtimes(path, mtime, mtime)

	got, err := backupFile(path)
	if err != nil {
		t.Fatalf("backupFile: %v", err)
	}
	want := filepath.Join(dir, "data20240305140709.gob")
	if got != want {
		t.Errorf("backup = %q, want %q", got, want)
	}
	if data, _ := os.ReadFile(want); string(data) != "v1" {
		t.Errorf("backup content = %q, want v1", data)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("original should be gone: %v", err)
	}

	// Same mtime again: the name must not collide.
	os.WriteFile(path, []byte("v2"), 0o644)
	os.Chtimes(path, mtime, mtime)
	got2, err := backupFile(path)
	if err != nil {
		t.Fatalf("backupFile again: %v", err)
	}
	if got2 == want {
		t.Errorf("second backup overwrote the first: %q", got2)
	}
}
