package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

const checkTimeout = 2 * time.Second

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

// Service runs registered dependency checks for the health endpoint.
type Service struct {
	mu     sync.RWMutex
	checks map[string]Check
}

// NewService constructs a new health service.
func NewService() *Service {
	return &Service{checks: make(map[string]Check)}
}

// Register adds a named check, replacing any previous check with that name.
func (s *Service) Register(name string, check Check) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = check
}

// Status runs every check and returns overall health plus a per-check result.
func (s *Service) Status(ctx context.Context) (bool, map[string]string) {
	s.mu.RLock()
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	checks := make(map[string]Check, len(s.checks))
	for k, v := range s.checks {
		checks[k] = v
	}
	s.mu.RUnlock()
	sort.Strings(names)

	ok := true
	report := make(map[string]string, len(names))
	for _, name := range names {
		cctx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := checks[name](cctx)
		cancel()
		if err != nil {
			ok = false
			report[name] = err.Error()
			continue
		}
		report[name] = "ok"
	}
	return ok, report
}
