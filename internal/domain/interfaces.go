package domain

import (
	"context"
)

type Fetcher interface {
	Fetch(ctx context.Context, ds Dataset) FetchResult
}

type Cache interface {
	Has(name, version string) bool
	GetPath(name, version string) string
	Store(name, version, src string) (string, error)
	Size() (int64, error)
	Clear() error
	Remove(name string) error
}

type State interface {
	IsPulled(name string) (bool, *PulledDataset, error)
	BeginPull(ds *PulledDataset) error
	Add(ds *PulledDataset) error
	Remove(name string) error
	ListPulled() (map[string]*PulledDataset, error)
	Reconcile() ([]string, error)
}

type Schemata interface {
	Get(ctx context.Context, name, version string) (*Dataset, error)
	Search(ctx context.Context, query string) ([]Dataset, error)
	LatestVersion(ctx context.Context, name string) (string, error)
	Format(ctx context.Context, id string) (*Format, error)
	License(ctx context.Context, id string) (*License, error)
}
