package domain

// Extensions lists archive/compression suffixes in match order. Longer,
// more specific suffixes come first so ".tar.gz" wins over ".gz".
func Extensions() []string {
	return []string{
		".tar.gz", ".tar.bz2", ".tar.xz", ".tar.zst",
		".tgz", ".tbz2", ".txz", ".tzst",
		".tar", ".zip",
		".gz", ".bz2", ".xz", ".zst",
	}
}
