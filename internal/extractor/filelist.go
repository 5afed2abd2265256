package extractor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Entry describes one archive member. Type uses the tar typeflag digit
// codes (0 regular, 2 symlink, 5 directory, ...). Size is present only
// for regular files.
type Entry struct {
	Type int    `json:"type"`
	Size *int64 `json:"size,omitempty"`
}

// FileList records archive members keyed by member path, preserving the
// order in which the archive yields them. Go maps do not keep insertion
// order, so (un)marshaling is done by hand.
type FileList struct {
	names   []string
	entries map[string]Entry
}

func NewFileList() *FileList {
	return &FileList{entries: make(map[string]Entry)}
}

// Add appends a member. A member seen twice keeps its original position
// and takes the latest metadata, matching how archives override entries.
func (l *FileList) Add(name string, e Entry) {
	if _, ok := l.entries[name]; !ok {
		l.names = append(l.names, name)
	}
	l.entries[name] = e
}

func (l *FileList) Get(name string) (Entry, bool) {
	e, ok := l.entries[name]
	return e, ok
}

func (l *FileList) Len() int { return len(l.names) }

func (l *FileList) Names() []string {
	names := make([]string, len(l.names))
	copy(names, l.names)
	return names
}

func (l *FileList) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range l.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(l.entries[name])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (l *FileList) UnmarshalJSON(data []byte) error {
	l.names = nil
	l.entries = make(map[string]Entry)

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("file list: expected object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("file list: expected member name, got %v", tok)
		}
		var e Entry
		if err := dec.Decode(&e); err != nil {
			return err
		}
		l.Add(name, e)
	}

	_, err = dec.Token()
	return err
}

// WriteFile persists the list as indented JSON, overwriting any previous
// file at path.
func (l *FileList) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func ReadFileList(path string) (*FileList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	l := NewFileList()
	if err := json.Unmarshal(data, l); err != nil {
		return nil, fmt.Errorf("parsing file list %s: %w", path, err)
	}
	return l, nil
}
