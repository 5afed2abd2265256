package extractor

import "fmt"

// ArchiveReadError reports a container that could not be read as its
// expected format. The dispatcher swallows it while probing; it only
// survives as the cause inside an UnsupportedFormatError.
type ArchiveReadError struct {
	Path string
	Err  error
}

func (e *ArchiveReadError) Error() string {
	return fmt.Sprintf("failed to unarchive %q: %v", e.Path, e.Err)
}

func (e *ArchiveReadError) Unwrap() error { return e.Err }

// UnsupportedFormatError is the only error Extract surfaces: every
// registered extractor failed on the file. Cause holds the most relevant
// underlying error, from the hinted extractor when there was a hint.
type UnsupportedFormatError struct {
	Path  string
	Cause error
}

func (e *UnsupportedFormatError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("unsupported file type: %s: %v", e.Path, e.Cause)
	}
	return fmt.Sprintf("unsupported file type: %s", e.Path)
}

func (e *UnsupportedFormatError) Unwrap() error { return e.Cause }
