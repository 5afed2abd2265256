package dataset

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha512"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/daxhub/dax/internal/cache"
	"github.com/daxhub/dax/internal/domain"
	"github.com/daxhub/dax/internal/extractor"
	"github.com/daxhub/dax/internal/fetcher"
	"github.com/daxhub/dax/internal/state"
)

func buildArchive(t *testing.T) []byte {
	t.Helper()
	var raw bytes.Buffer
	tw := tar.NewWriter(&raw)
	files := []struct {
		name    string
		content string
	}{
		{"gmb/train.txt", "training sentences\n"},
		{"gmb/valid.txt", "validation sentences\n"},
	}
	for _, f := range files {
		hdr := &tar.Header{Name: f.name, Typeflag: tar.TypeReg, Mode: 0644, Size: int64(len(f.content))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("tar header: %v", err)
		}
		if _, err := tw.Write([]byte(f.content)); err != nil {
			t.Fatalf("tar write: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("tar close: %v", err)
	}

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(raw.Bytes()); err != nil {
		t.Fatalf("gzip: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

type testEnv struct {
	mgr     *Manager
	dataDir string
	ds      domain.Dataset
	srvHits *int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	archive := buildArchive(t)
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write(archive)
	}))
	t.Cleanup(srv.Close)

	base := t.TempDir()
	c, err := cache.New(filepath.Join(base, "cache"))
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	st, err := state.NewSQLite(filepath.Join(base, "state.db"), "")
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	dataDir := filepath.Join(base, "data")
	sum := sha512.Sum512(archive)

	return &testEnv{
		mgr: New(
			fetcher.New(filepath.Join(base, "downloads"), time.Minute).Quiet(),
			c,
			extractor.NewDispatcher(nil),
			st,
			dataDir,
		),
		dataDir: dataDir,
		ds: domain.Dataset{
			Name:        "gmb",
			Version:     "1.0.2",
			DownloadURL: srv.URL + "/gmb-1.0.2.tar.gz",
			SHA512:      hex.EncodeToString(sum[:]),
		},
		srvHits: &hits,
	}
}

func TestPullDownloadsExtractsAndRecords(t *testing.T) {
	env := newTestEnv(t)

	row, err := env.mgr.Pull(context.Background(), env.ds)
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if row.Name != "gmb" || row.Version != "1.0.2" {
		t.Fatalf("row = %+v", row)
	}

	data, err := os.ReadFile(filepath.Join(env.dataDir, "gmb", "1.0.2", "gmb", "train.txt"))
	if err != nil || string(data) != "training sentences\n" {
		t.Fatalf("extracted = %q, %v", data, err)
	}

	list, err := extractor.ReadFileList(row.FileListPath)
	if err != nil {
		t.Fatalf("file list: %v", err)
	}
	if list.Len() != 2 {
		t.Fatalf("file list entries = %d", list.Len())
	}

	ok, err := env.mgr.IsDownloaded("gmb")
	if err != nil || !ok {
		t.Fatalf("IsDownloaded = %v, %v", ok, err)
	}

	if _, err := env.mgr.Pull(context.Background(), env.ds); err == nil {
		t.Fatal("second pull should report already pulled")
	}
}

func TestIsDownloadedDetectsTampering(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.mgr.Pull(context.Background(), env.ds); err != nil {
		t.Fatalf("pull: %v", err)
	}

	target := filepath.Join(env.dataDir, "gmb", "1.0.2", "gmb", "valid.txt")
	if err := os.WriteFile(target, []byte("shrunk"), 0644); err != nil {
		t.Fatalf("tamper: %v", err)
	}

	ok, err := env.mgr.IsDownloaded("gmb")
	if err != nil {
		t.Fatalf("IsDownloaded: %v", err)
	}
	if ok {
		t.Fatal("size mismatch should fail verification")
	}
}

func TestPullUsesCacheAfterExternalDeletion(t *testing.T) {
	env := newTestEnv(t)

	row, err := env.mgr.Pull(context.Background(), env.ds)
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if *env.srvHits != 1 {
		t.Fatalf("server hits = %d, want 1", *env.srvHits)
	}

	// data removed behind our back; reconcile drops the state row but the
	// cached archive survives
	if err := os.RemoveAll(row.Path); err != nil {
		t.Fatalf("delete data: %v", err)
	}
	if removed := env.mgr.Reconcile(); len(removed) != 1 || removed[0] != "gmb" {
		t.Fatalf("reconcile = %v", removed)
	}

	if _, err := env.mgr.Pull(context.Background(), env.ds); err != nil {
		t.Fatalf("re-pull: %v", err)
	}
	if *env.srvHits != 1 {
		t.Fatalf("re-pull should come from the cache, hits = %d", *env.srvHits)
	}
	if ok, err := env.mgr.IsDownloaded("gmb"); err != nil || !ok {
		t.Fatalf("IsDownloaded after re-pull = %v, %v", ok, err)
	}
}

func TestFailedExtractionLeavesNoStateRow(t *testing.T) {
	archive := []byte("no registered codec can decode this")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	}))
	defer srv.Close()

	base := t.TempDir()
	c, err := cache.New(filepath.Join(base, "cache"))
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	st, err := state.NewSQLite(filepath.Join(base, "state.db"), "")
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	defer st.Close()

	mgr := New(
		fetcher.New(filepath.Join(base, "downloads"), time.Minute).Quiet(),
		c,
		extractor.NewDispatcher(nil),
		st,
		filepath.Join(base, "data"),
	)

	sum := sha512.Sum512(archive)
	_, err = mgr.Pull(context.Background(), domain.Dataset{
		Name:        "junk",
		Version:     "1.0.0",
		DownloadURL: srv.URL + "/junk-1.0.0.dat",
		SHA512:      hex.EncodeToString(sum[:]),
	})
	if err == nil {
		t.Fatal("expected extraction failure")
	}

	pulled, _, stErr := st.IsPulled("junk")
	if stErr != nil || pulled {
		t.Fatalf("state after failed pull = %v, %v", pulled, stErr)
	}
	list, stErr := st.ListPulled()
	if stErr != nil || len(list) != 0 {
		t.Fatalf("list after failed pull = %v, %v", list, stErr)
	}
}

func TestInitModes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if row, err := env.mgr.Init(ctx, env.ds, ModeLazy); err != nil || row != nil {
		t.Fatalf("lazy init = %v, %v", row, err)
	}

	if _, err := env.mgr.Init(ctx, env.ds, ModeLoadOnly); err == nil {
		t.Fatal("load-only before download should fail")
	}

	row, err := env.mgr.Init(ctx, env.ds, ModeDownloadAndLoad)
	if err != nil || row == nil {
		t.Fatalf("download-and-load = %v, %v", row, err)
	}

	row, err = env.mgr.Init(ctx, env.ds, ModeLoadOnly)
	if err != nil || row.Name != "gmb" {
		t.Fatalf("load-only after download = %+v, %v", row, err)
	}
}

func TestRemoveCleansUp(t *testing.T) {
	env := newTestEnv(t)

	row, err := env.mgr.Pull(context.Background(), env.ds)
	if err != nil {
		t.Fatalf("pull: %v", err)
	}

	name, version, err := env.mgr.Remove("gmb")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if name != "gmb" || version != "1.0.2" {
		t.Fatalf("removed = %s %s", name, version)
	}

	if _, err := os.Stat(row.Path); !os.IsNotExist(err) {
		t.Fatal("data dir should be gone")
	}
	if _, err := os.Stat(row.FileListPath); !os.IsNotExist(err) {
		t.Fatal("file list should be gone")
	}

	list, err := env.mgr.ListPulled()
	if err != nil || len(list) != 0 {
		t.Fatalf("list after remove = %v, %v", list, err)
	}

	if _, _, err := env.mgr.Remove("gmb"); err == nil {
		t.Fatal("removing a dataset twice should fail")
	}
}
