package opportunities

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"
	"github.com/vadiminshakov/spreadscan/internal/domain"
)

const (
	// DefaultWALDir is used when no directory is configured.
	DefaultWALDir = "./wal/opportunities"
	segmentLimit  = 100
	maxSegments   = 10

	opportunityKeyPrefix = "opportunity_"
)

// Record pairs an opportunity with its WAL index, so readers can resume
// replay from where they stopped.
type Record struct {
	Index       uint64
	Opportunity domain.Opportunity
}

// WALStore persists opportunities in an append-only WAL and replays them
// for the viewer and the dashboard stream.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore initializes a WAL-backed opportunity store.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = DefaultWALDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "opportunity_",
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init opportunity WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Persist appends the opportunity to the WAL.
func (s *WALStore) Persist(opp domain.Opportunity) error {
	if s == nil || s.wal == nil {
		return errors.New("opportunity store is not initialized")
	}
	if opp.BaseAsset == "" {
		return fmt.Errorf("opportunity base asset is required")
	}

	payload, err := json.Marshal(opp)
	if err != nil {
		return errors.Wrap(err, "marshal opportunity")
	}

	key := fmt.Sprintf("%s%s", opportunityKeyPrefix, opp.BaseAsset)

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, key, payload)
}

// After returns all opportunities written after the provided WAL index.
func (s *WALStore) After(index uint64) ([]Record, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("opportunity store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	records := make([]Record, 0, current-index)
	for idx := index + 1; idx <= current; idx++ {
		key, payload, err := s.wal.Get(idx)
		if err != nil {
			continue
		}
		if !strings.HasPrefix(key, opportunityKeyPrefix) {
			continue
		}

		var opp domain.Opportunity
		if err := json.Unmarshal(payload, &opp); err != nil {
			return nil, errors.Wrap(err, "decode opportunity")
		}
		records = append(records, Record{Index: idx, Opportunity: opp})
	}

	return records, nil
}

// All replays every stored opportunity.
func (s *WALStore) All() ([]Record, error) {
	return s.After(0)
}

// CurrentIndex returns the latest WAL index stored.
func (s *WALStore) CurrentIndex() uint64 {
	if s == nil || s.wal == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("opportunity store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
