package reference

import (
	"context"
	"errors"

	"woundtrack-backend/internal/shared/telemetry"
)

// Fetcher loads a reference table from the remote backend.
type Fetcher interface {
	FetchReferenceEnumeration(ctx context.Context, token, name string) ([]Option, error)
}

// Service serves picker entries. Remote tables are preferred; the local catalog
// is used for validation and on explicit request.
type Service struct {
	Catalog *Catalog
	Remote  Fetcher
}

// NewService constructs a Service.
func NewService(catalog *Catalog, remote Fetcher) *Service {
	return &Service{Catalog: catalog, Remote: remote}
}

// Picker returns the remote entries of a table. Any failure yields an empty list.
func (s *Service) Picker(ctx context.Context, token, name string) []Option {
	if s.Remote == nil {
		return []Option{}
	}
	opts, err := s.Remote.FetchReferenceEnumeration(ctx, token, name)
	if err != nil {
		telemetry.Warn("reference.fetch_failed", map[string]any{
			"table": name,
			"error": err,
		})
		return []Option{}
	}
	if opts == nil {
		return []Option{}
	}
	return opts
}

// Local returns a table from the local catalog.
func (s *Service) Local(name string) ([]Option, error) {
	if s.Catalog == nil {
		return nil, errors.New("reference catalog not loaded")
	}
	return s.Catalog.Options(name)
}
