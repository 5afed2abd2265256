package domain

import "time"

// Dataset is one version of a dataset as described by the dataset schema.
type Dataset struct {
	Name          string
	Version       string
	Title         string
	Description   string
	Homepage      string
	DownloadURL   string
	SHA512        string
	EstimatedSize string
	Published     string
	License       string
	Format        string
}

type FetchResult struct {
	Dataset string
	Version string
	Path    string
	Error   error
}

type PulledDataset struct {
	Name         string    `json:"name"`
	Version      string    `json:"version"`
	URL          string    `json:"url"`
	Path         string    `json:"path"`
	FileListPath string    `json:"file_list_path"`
	PulledAt     time.Time `json:"pulled_at"`
}

// Manifest is the legacy JSON state file, kept only for migration into SQLite.
type Manifest struct {
	Datasets map[string]*PulledDataset `json:"datasets"`
}

func NewManifest() *Manifest {
	return &Manifest{Datasets: make(map[string]*PulledDataset)}
}

type Format struct {
	ID       string
	Name     string
	Homepage string
}

type License struct {
	ID           string
	Name         string
	Homepage     string
	Commercial   bool
	Modification bool
}
