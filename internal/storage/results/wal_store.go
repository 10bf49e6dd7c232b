package results

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"github.com/kavikulu/shadowmine/internal/domain"
)

const (
	DefaultDir   = "./wal/verdicts"
	segmentLimit = 100
	maxSegments  = 10

	verdictKeyPrefix = "verdict_"
)

// WALStore persists verdict events in a WAL.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore initializes a WAL-backed verdict store.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = DefaultDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "verdict_",
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init verdict WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Save writes the verdict event to WAL.
func (s *WALStore) Save(event domain.VerdictEvent) error {
	if s == nil || s.wal == nil {
		return errors.New("verdict store is not initialized")
	}
	if event.Sequence == "" {
		return fmt.Errorf("verdict event sequence name is required")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal verdict event")
	}

	key := fmt.Sprintf("%s%s", verdictKeyPrefix, event.Sequence)

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, key, payload)
}

// EventsAfter returns all verdict events written after the provided WAL index.
func (s *WALStore) EventsAfter(index uint64) ([]domain.VerdictEventRecord, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("verdict store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	records := make([]domain.VerdictEventRecord, 0, current-index)
	for idx := index + 1; idx <= current; idx++ {
		key, payload, err := s.wal.Get(idx)
		if err != nil {
			continue
		}
		if !strings.HasPrefix(key, verdictKeyPrefix) {
			continue
		}

		var event domain.VerdictEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, errors.Wrap(err, "decode verdict event")
		}
		records = append(records, domain.VerdictEventRecord{Index: idx, Event: event})
	}

	return records, nil
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
		return errors.New("verdict store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
