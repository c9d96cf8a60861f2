package opportunities

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/spreadscan/internal/domain"
)

// JSONLStore appends one JSON object per line to a log file. The field
// names are the wire format consumed by downstream analysis tools; the
// store owns the file handle and guarantees release on Close.
type JSONLStore struct {
	mu sync.Mutex
	f  *os.File
}

// NewJSONLStore opens (or creates) the log file for appending.
func NewJSONLStore(path string) (*JSONLStore, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "open opportunity log %s", path)
	}

	return &JSONLStore{f: f}, nil
}

// Persist appends the record as one JSON line.
func (s *JSONLStore) Persist(opp domain.Opportunity) error {
	payload, err := json.Marshal(opp)
	if err != nil {
		return errors.Wrap(err, "marshal opportunity")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.f == nil {
		return errors.New("opportunity log is closed")
	}
	if _, err := s.f.Write(append(payload, '\n')); err != nil {
		return errors.Wrap(err, "append opportunity")
	}

	return nil
}

// Close releases the file handle. Further Persist calls fail.
func (s *JSONLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil

	return err
}
