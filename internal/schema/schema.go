package schema

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/daxhub/dax/internal/domain"
)

const cacheTTL = 10 * time.Minute

type datasetEntry struct {
	Name          string `yaml:"name"`
	Published     string `yaml:"published"`
	Homepage      string `yaml:"homepage"`
	DownloadURL   string `yaml:"download_url"`
	SHA512Sum     string `yaml:"sha512sum"`
	License       string `yaml:"license"`
	EstimatedSize string `yaml:"estimated_size"`
	Description   string `yaml:"description"`
	Format        string `yaml:"format"`
}

type datasetDoc struct {
	APIVersion  string                             `yaml:"api_version"`
	Name        string                             `yaml:"name"`
	LastUpdated string                             `yaml:"last_updated"`
	Datasets    map[string]map[string]datasetEntry `yaml:"datasets"`
}

type formatDoc struct {
	Formats map[string]struct {
		Name     string `yaml:"name"`
		Homepage string `yaml:"homepage"`
	} `yaml:"formats"`
}

type licenseDoc struct {
	Licenses map[string]struct {
		Name              string `yaml:"name"`
		Homepage          string `yaml:"homepage"`
		CommercialUse     bool   `yaml:"commercial_use"`
		ModificationAllow bool   `yaml:"modification"`
	} `yaml:"licenses"`
}

// Loader fetches and indexes the dataset, format and license schemata.
// Schema locations may be http(s) URLs or local file paths; remote
// documents are cached on disk with a short TTL. The index is built once
// and read-only afterwards.
type Loader struct {
	sync.RWMutex
	client     *http.Client
	cacheDir   string
	datasetURL string
	formatURL  string
	licenseURL string

	loadOnce sync.Once
	loadErr  error
	datasets map[string]map[string]datasetEntry
	formats  formatDoc
	licenses licenseDoc
}

func New(datasetURL, formatURL, licenseURL, cacheDir string) *Loader {
	return &Loader{
		client:     &http.Client{Timeout: 30 * time.Second},
		cacheDir:   cacheDir,
		datasetURL: datasetURL,
		formatURL:  formatURL,
		licenseURL: licenseURL,
	}
}

func (l *Loader) load(ctx context.Context) error {
	l.loadOnce.Do(func() {
		data, err := l.fetchDoc(ctx, l.datasetURL)
		if err != nil {
			l.loadErr = fmt.Errorf("loading dataset schema: %w", err)
			return
		}
		var doc datasetDoc
		if err := yaml.Unmarshal(data, &doc); err != nil {
			l.loadErr = fmt.Errorf("parsing dataset schema: %w", err)
			return
		}
		l.datasets = doc.Datasets

		if l.formatURL != "" {
			data, err := l.fetchDoc(ctx, l.formatURL)
			if err != nil {
				l.loadErr = fmt.Errorf("loading format schema: %w", err)
				return
			}
			if err := yaml.Unmarshal(data, &l.formats); err != nil {
				l.loadErr = fmt.Errorf("parsing format schema: %w", err)
				return
			}
		}

		if l.licenseURL != "" {
			data, err := l.fetchDoc(ctx, l.licenseURL)
			if err != nil {
				l.loadErr = fmt.Errorf("loading license schema: %w", err)
				return
			}
			if err := yaml.Unmarshal(data, &l.licenses); err != nil {
				l.loadErr = fmt.Errorf("parsing license schema: %w", err)
				return
			}
		}
	})
	return l.loadErr
}

// fetchDoc retrieves one schema document. Local paths are read directly;
// remote URLs go through the on-disk cache.
func (l *Loader) fetchDoc(ctx context.Context, loc string) ([]byte, error) {
	u, err := url.Parse(loc)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return os.ReadFile(loc)
	}

	if cached, ok := l.getFromCache(loc, cacheTTL); ok {
		return cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "dax")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching schema: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading schema: %w", err)
	}

	_ = l.storeToCache(loc, data)
	return data, nil
}

func (l *Loader) Get(ctx context.Context, name, version string) (*domain.Dataset, error) {
	if err := l.load(ctx); err != nil {
		return nil, err
	}

	versions, ok := l.datasets[name]
	if !ok {
		return nil, fmt.Errorf("dataset %q not found", name)
	}

	if version == "" {
		version = latestOf(versions)
	}
	entry, ok := versions[version]
	if !ok {
		return nil, fmt.Errorf("dataset %q has no version %q", name, version)
	}

	return l.toDataset(name, version, entry), nil
}

func (l *Loader) LatestVersion(ctx context.Context, name string) (string, error) {
	if err := l.load(ctx); err != nil {
		return "", err
	}
	versions, ok := l.datasets[name]
	if !ok {
		return "", fmt.Errorf("dataset %q not found", name)
	}
	return latestOf(versions), nil
}

func (l *Loader) Search(ctx context.Context, query string) ([]domain.Dataset, error) {
	if err := l.load(ctx); err != nil {
		return nil, err
	}

	query = strings.ToLower(query)
	var results []domain.Dataset
	for name, versions := range l.datasets {
		version := latestOf(versions)
		entry := versions[version]
		if strings.Contains(strings.ToLower(name), query) ||
			strings.Contains(strings.ToLower(entry.Name), query) ||
			strings.Contains(strings.ToLower(entry.Description), query) {
			results = append(results, *l.toDataset(name, version, entry))
		}
	}

	slices.SortFunc(results, func(a, b domain.Dataset) int {
		nameA := strings.ToLower(a.Name)
		nameB := strings.ToLower(b.Name)

		if (nameA == query) != (nameB == query) {
			if nameA == query {
				return -1
			}
			return 1
		}

		if strings.HasPrefix(nameA, query) != strings.HasPrefix(nameB, query) {
			if strings.HasPrefix(nameA, query) {
				return -1
			}
		}

		return strings.Compare(nameA, nameB)
	})

	return results, nil
}

func (l *Loader) Format(ctx context.Context, id string) (*domain.Format, error) {
	if err := l.load(ctx); err != nil {
		return nil, err
	}
	f, ok := l.formats.Formats[id]
	if !ok {
		return nil, fmt.Errorf("format %q not found", id)
	}
	return &domain.Format{ID: id, Name: f.Name, Homepage: f.Homepage}, nil
}

func (l *Loader) License(ctx context.Context, id string) (*domain.License, error) {
	if err := l.load(ctx); err != nil {
		return nil, err
	}
	lic, ok := l.licenses.Licenses[id]
	if !ok {
		return nil, fmt.Errorf("license %q not found", id)
	}
	return &domain.License{
		ID:           id,
		Name:         lic.Name,
		Homepage:     lic.Homepage,
		Commercial:   lic.CommercialUse,
		Modification: lic.ModificationAllow,
	}, nil
}

func (l *Loader) toDataset(name, version string, e datasetEntry) *domain.Dataset {
	return &domain.Dataset{
		Name:          name,
		Version:       version,
		Title:         e.Name,
		Description:   e.Description,
		Homepage:      e.Homepage,
		DownloadURL:   e.DownloadURL,
		SHA512:        e.SHA512Sum,
		EstimatedSize: e.EstimatedSize,
		Published:     e.Published,
		License:       e.License,
		Format:        e.Format,
	}
}

func latestOf(versions map[string]datasetEntry) string {
	keys := make([]string, 0, len(versions))
	for v := range versions {
		keys = append(keys, v)
	}
	slices.SortFunc(keys, compareVersions)
	if len(keys) == 0 {
		return ""
	}
	return keys[len(keys)-1]
}

// compareVersions orders dotted version strings numerically per segment,
// falling back to string comparison for non-numeric segments.
func compareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		an, aerr := strconv.Atoi(as[i])
		bn, berr := strconv.Atoi(bs[i])
		if aerr == nil && berr == nil {
			if an != bn {
				return an - bn
			}
			continue
		}
		if c := strings.Compare(as[i], bs[i]); c != 0 {
			return c
		}
	}
	return len(as) - len(bs)
}

func (l *Loader) getFromCache(loc string, ttl time.Duration) ([]byte, bool) {
	l.RLock()
	defer l.RUnlock()

	path := l.cachePath(loc)
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}

	if time.Since(info.ModTime()) > ttl {
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	return data, true
}

func (l *Loader) storeToCache(loc string, data []byte) error {
	l.Lock()
	defer l.Unlock()

	path := l.cachePath(loc)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (l *Loader) cachePath(loc string) string {
	u, err := url.Parse(loc)
	name := "schema.yaml"
	if err == nil && u.Path != "" {
		name = filepath.Base(u.Path)
	}
	return filepath.Join(l.cacheDir, "schemata", name)
}
