package extractor

import (
	"path/filepath"
	"strings"
)

// Type identifiers used by the registry. Archive types and encodings form
// disjoint key spaces.
const (
	TypeTar = "application/x-tar"
	TypeZip = "application/zip"

	EncodingGzip  = "gzip"
	EncodingBzip2 = "bzip2"
	EncodingXz    = "xz"
	EncodingZstd  = "zstd"
)

var encodingByExt = map[string]string{
	".gz":   EncodingGzip,
	".bz2":  EncodingBzip2,
	".xz":   EncodingXz,
	".zst":  EncodingZstd,
	".zstd": EncodingZstd,
}

// Short forms that fold the archive and compression suffix into one.
var shortTarByExt = map[string]string{
	".tgz":  EncodingGzip,
	".tbz2": EncodingBzip2,
	".txz":  EncodingXz,
	".tzst": EncodingZstd,
}

var typeByExt = map[string]string{
	".tar":  TypeTar,
	".zip":  TypeZip,
	".csv":  "text/csv",
	".tsv":  "text/tab-separated-values",
	".txt":  "text/plain",
	".json": "application/json",
	".xml":  "text/xml",
}

// Guess classifies a file by name alone, returning its guessed type and
// compression encoding; either may be empty. A double extension such as
// "corpus.tar.gz" yields the inner type plus the outer encoding.
func Guess(path string) (ftype, fencoding string) {
	base := strings.ToLower(filepath.Base(path))

	ext := filepath.Ext(base)
	if enc, ok := shortTarByExt[ext]; ok {
		return TypeTar, enc
	}
	if enc, ok := encodingByExt[ext]; ok {
		fencoding = enc
		base = strings.TrimSuffix(base, ext)
		ext = filepath.Ext(base)
	}
	ftype = typeByExt[ext]
	return ftype, fencoding
}
