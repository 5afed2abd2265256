package extractor

// Extractor unpacks one downloaded file into dst and reports the files it
// produced. Archive extractors return the full member list; stream
// extractors return a single entry for their decompressed output.
type Extractor interface {
	Name() string
	Extract(src, dst string) (*FileList, error)
}

// Registry is the fixed table of extractors, partitioned into archive
// types and compression encodings. Built once at startup, read-only
// afterwards, safe for concurrent lookups.
type Registry struct {
	archives  map[string]Extractor
	encodings map[string]Extractor
	order     []Extractor
}

// NewRegistry builds the default registry: tar and zip archives, then the
// gzip, bzip2, xz and zstd single-stream codecs. The fallback sweep walks
// them in this order, so archives are always probed before codecs that
// would happily peel one layer off a compressed archive.
func NewRegistry() *Registry {
	r := &Registry{
		archives:  make(map[string]Extractor),
		encodings: make(map[string]Extractor),
	}

	r.registerArchive(TypeTar, NewTAR())
	r.registerArchive(TypeZip, NewZIP())

	r.registerEncoding(EncodingGzip, NewGzipStream())
	r.registerEncoding(EncodingBzip2, NewBzip2Stream())
	r.registerEncoding(EncodingXz, NewXzStream())
	r.registerEncoding(EncodingZstd, NewZstdStream())

	return r
}

func (r *Registry) registerArchive(id string, e Extractor) {
	r.archives[id] = e
	r.order = append(r.order, e)
}

func (r *Registry) registerEncoding(id string, e Extractor) {
	r.encodings[id] = e
	r.order = append(r.order, e)
}

// Lookup resolves a type identifier to its extractor. Archive entries
// take precedence over encoding entries.
func (r *Registry) Lookup(id string) (Extractor, bool) {
	if id == "" {
		return nil, false
	}
	if e, ok := r.archives[id]; ok {
		return e, true
	}
	e, ok := r.encodings[id]
	return e, ok
}

// All returns every registered extractor in registration order.
func (r *Registry) All() []Extractor {
	out := make([]Extractor, len(r.order))
	copy(out, r.order)
	return out
}
