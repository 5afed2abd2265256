package fetcher

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/daxhub/dax/internal/domain"
)

func TestFetchVerifiesChecksum(t *testing.T) {
	payload := []byte("dataset archive bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	sum := sha512.Sum512(payload)

	f := New(t.TempDir(), time.Minute).Quiet()
	result := f.Fetch(context.Background(), domain.Dataset{
		Name:        "tiny",
		Version:     "1.0.0",
		DownloadURL: srv.URL + "/tiny-1.0.0.tar.gz",
		SHA512:      hex.EncodeToString(sum[:]),
	})
	if result.Error != nil {
		t.Fatalf("fetch: %v", result.Error)
	}

	data, err := os.ReadFile(result.Path)
	if err != nil || string(data) != string(payload) {
		t.Fatalf("downloaded = %q, %v", data, err)
	}
}

func TestFetchRejectsChecksumMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("tampered content"))
	}))
	defer srv.Close()

	f := New(t.TempDir(), time.Minute).Quiet()
	result := f.Fetch(context.Background(), domain.Dataset{
		Name:        "tiny",
		Version:     "1.0.0",
		DownloadURL: srv.URL + "/tiny-1.0.0.tar.gz",
		SHA512:      "deadbeef",
	})
	if result.Error == nil {
		t.Fatal("expected checksum mismatch error")
	}
	if result.Path != "" {
		if _, err := os.Stat(result.Path); !os.IsNotExist(err) {
			t.Fatal("bad download should be deleted")
		}
	}
}

func TestFetchNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := New(t.TempDir(), time.Minute).Quiet()
	result := f.Fetch(context.Background(), domain.Dataset{
		Name:        "gone",
		Version:     "1.0.0",
		DownloadURL: srv.URL + "/gone.tar.gz",
	})
	if result.Error == nil {
		t.Fatal("expected error for 404")
	}
}
