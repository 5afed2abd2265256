package extractor

import (
	"archive/tar"
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type ZIPExtractor struct{}

func NewZIP() *ZIPExtractor {
	return &ZIPExtractor{}
}

func (ze *ZIPExtractor) Name() string { return "zip" }

func (ze *ZIPExtractor) Extract(src, dst string) (*FileList, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return nil, &ArchiveReadError{Path: src, Err: err}
	}
	defer r.Close()

	list := NewFileList()

	for _, f := range r.File {
		target, err := memberPath(dst, f.Name)
		if err != nil {
			return nil, &ArchiveReadError{Path: src, Err: err}
		}

		list.Add(f.Name, zipEntry(f))

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return nil, err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return nil, err
		}

		if f.Mode()&os.ModeSymlink != 0 {
			rc, err := f.Open()
			if err != nil {
				return nil, &ArchiveReadError{Path: src, Err: err}
			}
			// the member body holds the link target
			linkname, err := io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return nil, &ArchiveReadError{Path: src, Err: err}
			}
			os.Remove(target)
			if err := os.Symlink(string(linkname), target); err != nil {
				return nil, err
			}
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, &ArchiveReadError{Path: src, Err: err}
		}

		outFile, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, f.Mode())
		if err != nil {
			rc.Close()
			return nil, err
		}

		if _, err := io.Copy(outFile, rc); err != nil {
			rc.Close()
			outFile.Close()
			return nil, &ArchiveReadError{Path: src, Err: err}
		}

		rc.Close()
		outFile.Close()
	}

	return list, nil
}

// zipEntry maps a zip member onto the tar-derived type codes so both
// archive families produce the same file list vocabulary.
func zipEntry(f *zip.File) Entry {
	switch {
	case f.FileInfo().IsDir():
		return Entry{Type: tarEntryType(tar.TypeDir)}
	case f.Mode()&os.ModeSymlink != 0:
		return Entry{Type: tarEntryType(tar.TypeSymlink)}
	default:
		size := int64(f.UncompressedSize64)
		return Entry{Type: tarEntryType(tar.TypeReg), Size: &size}
	}
}

// memberPath joins an archive member name onto dst and rejects members
// that would resolve outside it.
func memberPath(dst, name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid path in archive: %s", name)
	}
	target := filepath.Join(dst, name)
	rel, err := filepath.Rel(dst, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid path in archive: %s", name)
	}
	return target, nil
}
