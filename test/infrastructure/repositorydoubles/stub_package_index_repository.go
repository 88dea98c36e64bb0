//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rios0rios0/reqguard/internal/domain/entities"
	"github.com/rios0rios0/reqguard/internal/domain/repositories"
)

// StubPackageIndexRepository implements repositories.PackageIndexRepository
// and is safe for concurrent use.
type StubPackageIndexRepository struct {
	Versions map[string]string // name -> latest version
	Errs     map[string]error  // name -> failure
	Delay    time.Duration     // per lookup

	mu          sync.Mutex
	calls       map[string]int
	inFlight    int
	maxInFlight int
}

var _ repositories.PackageIndexRepository = (*StubPackageIndexRepository)(nil)

func (s *StubPackageIndexRepository) LatestVersion(ctx context.Context, name string) (string, error) {
	s.mu.Lock()
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[name]++
	s.inFlight++
	if s.inFlight > s.maxInFlight {
		s.maxInFlight = s.inFlight
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	if s.Delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.Delay):
		}
	}

	if err, ok := s.Errs[name]; ok {
		return "", err
	}
	version, ok := s.Versions[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", entities.ErrIndexPackageNotFound, name)
	}
	return version, nil
}

// Calls returns how many lookups were made for name.
func (s *StubPackageIndexRepository) Calls(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

// TotalCalls returns the number of lookups made.
func (s *StubPackageIndexRepository) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, count := range s.calls {
		total += count
	}
	return total
}

// MaxInFlight returns the highest number of concurrent lookups observed.
func (s *StubPackageIndexRepository) MaxInFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxInFlight
}
