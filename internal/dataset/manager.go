package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/daxhub/dax/internal/domain"
	"github.com/daxhub/dax/internal/extractor"
)

// Mode controls what a dataset initialization does.
type Mode int

const (
	// ModeLazy wires a dataset up without touching the network or disk.
	ModeLazy Mode = iota
	// ModeDownloadOnly downloads and extracts, skipping verification.
	ModeDownloadOnly
	// ModeLoadOnly verifies an already-downloaded dataset and fails if it
	// is missing or incomplete.
	ModeLoadOnly
	// ModeDownloadAndLoad downloads, extracts, then verifies.
	ModeDownloadAndLoad
)

// Manager orchestrates the dataset lifecycle: fetch, cache, extract,
// record. One Manager can serve concurrent pulls of distinct datasets;
// the dispatcher and state are safe for that.
type Manager struct {
	fetcher    domain.Fetcher
	cache      domain.Cache
	dispatcher *extractor.Dispatcher
	state      domain.State
	dataDir    string
}

func New(
	fetcher domain.Fetcher,
	cache domain.Cache,
	dispatcher *extractor.Dispatcher,
	state domain.State,
	dataDir string,
) *Manager {

	return &Manager{
		fetcher:    fetcher,
		cache:      cache,
		dispatcher: dispatcher,
		state:      state,
		dataDir:    dataDir,
	}
}

func (m *Manager) Init(ctx context.Context, ds domain.Dataset, mode Mode) (*domain.PulledDataset, error) {
	switch mode {
	case ModeLazy:
		return nil, nil
	case ModeDownloadOnly:
		return m.Pull(ctx, ds)
	case ModeLoadOnly:
		ok, row, err := m.state.IsPulled(ds.Name)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("dataset %s is not downloaded; pull it first", ds.Name)
		}
		complete, err := m.IsDownloaded(ds.Name)
		if err != nil {
			return nil, err
		}
		if !complete {
			return nil, fmt.Errorf("dataset %s is incomplete on disk; pull it again", ds.Name)
		}
		return row, nil
	case ModeDownloadAndLoad:
		row, err := m.Pull(ctx, ds)
		if err != nil {
			return nil, err
		}
		complete, err := m.IsDownloaded(ds.Name)
		if err != nil {
			return nil, err
		}
		if !complete {
			return nil, fmt.Errorf("dataset %s extracted but failed verification", ds.Name)
		}
		return row, nil
	default:
		return nil, fmt.Errorf("unknown initialization mode: %d", mode)
	}
}

func (m *Manager) Pull(ctx context.Context, ds domain.Dataset) (*domain.PulledDataset, error) {
	if pulled, _, _ := m.state.IsPulled(ds.Name); pulled {
		return nil, fmt.Errorf("dataset %s already pulled", ds.Name)
	}

	var archivePath string
	if m.cache.Has(ds.Name, ds.Version) {
		archivePath = m.cache.GetPath(ds.Name, ds.Version)
	} else {
		result := m.fetcher.Fetch(ctx, ds)
		if result.Error != nil {
			return nil, result.Error
		}

		stored, err := m.cache.Store(ds.Name, ds.Version, result.Path)
		if err != nil {
			return nil, err
		}
		archivePath = stored
	}

	dataPath := filepath.Join(m.dataDir, ds.Name, ds.Version)
	fileListPath := m.fileListPath(ds.Name, ds.Version)

	pulledDs := &domain.PulledDataset{
		Name:         ds.Name,
		Version:      ds.Version,
		URL:          ds.DownloadURL,
		Path:         dataPath,
		FileListPath: fileListPath,
		PulledAt:     time.Now(),
	}

	// pending row first, so an interrupted extraction is cleaned up on
	// the next open
	if err := m.state.BeginPull(pulledDs); err != nil {
		return nil, err
	}

	if err := m.dispatcher.Extract(archivePath, dataPath, fileListPath); err != nil {
		m.state.Remove(ds.Name)
		return nil, err
	}

	pulledDs.PulledAt = time.Now()
	if err := m.state.Add(pulledDs); err != nil {
		return nil, err
	}

	return pulledDs, nil
}

// IsDownloaded reports whether every regular file recorded in the file
// list exists under the dataset's data path with the recorded size.
func (m *Manager) IsDownloaded(name string) (bool, error) {
	pulled, row, err := m.state.IsPulled(name)
	if err != nil {
		return false, err
	}
	if !pulled {
		return false, nil
	}

	list, err := extractor.ReadFileList(row.FileListPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	for _, member := range list.Names() {
		entry, _ := list.Get(member)
		if entry.Size == nil {
			continue
		}
		info, err := os.Stat(filepath.Join(row.Path, filepath.FromSlash(member)))
		if err != nil {
			if os.IsNotExist(err) {
				return false, nil
			}
			return false, err
		}
		if info.Size() != *entry.Size {
			return false, nil
		}
	}
	return true, nil
}

func (m *Manager) Remove(name string) (string, string, error) {
	pulled, row, _ := m.state.IsPulled(name)
	if !pulled {
		return "", "", fmt.Errorf("dataset %s is not pulled", name)
	}

	if err := m.cache.Remove(name); err != nil {
		return "", "", err
	}

	if err := os.RemoveAll(row.Path); err != nil {
		return "", "", err
	}
	if err := os.Remove(row.FileListPath); err != nil && !os.IsNotExist(err) {
		return "", "", err
	}

	// drop the dataset dir if this was its last version
	parent := filepath.Dir(row.Path)
	if entries, err := os.ReadDir(parent); err == nil && len(entries) == 0 {
		os.Remove(parent)
	}

	if err := m.state.Remove(name); err != nil {
		return "", "", err
	}

	return row.Name, row.Version, nil
}

func (m *Manager) ListPulled() (map[string]*domain.PulledDataset, error) {
	return m.state.ListPulled()
}

// Reconcile drops state rows whose data was removed outside dax.
func (m *Manager) Reconcile() []string {
	removed, err := m.state.Reconcile()
	if err != nil {
		return nil
	}
	return removed
}

func (m *Manager) fileListPath(name, version string) string {
	return filepath.Join(m.dataDir, ".dax", fmt.Sprintf("%s-%s.filelist.json", name, version))
}
