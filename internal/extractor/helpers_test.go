package extractor

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"
)

type tarMember struct {
	name     string
	typeflag byte
	content  string
	linkname string
}

// corpusMembers is the fixture archive used across tests: a directory, two
// regular files and a symlink, in a fixed order.
var corpusMembers = []tarMember{
	{name: "corpus/", typeflag: tar.TypeDir},
	{name: "corpus/train.txt", typeflag: tar.TypeReg, content: "the quick brown fox\n"},
	{name: "corpus/valid.txt", typeflag: tar.TypeReg, content: "jumps over\n"},
	{name: "corpus/latest", typeflag: tar.TypeSymlink, linkname: "train.txt"},
}

func buildTar(t *testing.T, members []tarMember) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, m := range members {
		hdr := &tar.Header{Name: m.name, Typeflag: m.typeflag, Mode: 0644}
		switch m.typeflag {
		case tar.TypeDir:
			hdr.Mode = 0755
		case tar.TypeReg:
			hdr.Size = int64(len(m.content))
		case tar.TypeSymlink:
			hdr.Linkname = m.linkname
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("write header %s: %v", m.name, err)
		}
		if m.typeflag == tar.TypeReg {
			if _, err := tw.Write([]byte(m.content)); err != nil {
				t.Fatalf("write content %s: %v", m.name, err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	return buf.Bytes()
}

func buildZip(t *testing.T, files map[string]string, order []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range order {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(files[name])); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(data); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func writeFixture(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
	return path
}
