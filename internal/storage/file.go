package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	logx "fcsched/pkg/logx"
)

// recentKeep bounds the in-memory tail served by RecentEvents.
const recentKeep = 512

// fileStore appends JSON Lines:
//   - <prefix>.samples.jsonl
//   - <prefix>.events.jsonl
//
// The events tail is replayed on open so RecentEvents survives restarts.
type fileStore struct {
	log logx.Logger

	mu      sync.Mutex
	samples *os.File
	events  *os.File
	recent  []EventRecord
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	dir := filepath.Dir(path)
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	prefix := filepath.Join(dir, base)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	sf, err := os.OpenFile(prefix+".samples.jsonl", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	eventsPath := prefix + ".events.jsonl"
	recent, err := replayEvents(eventsPath, recentKeep)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("events replay failed", logx.Err(err))
	}
	ef, err := os.OpenFile(eventsPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		_ = sf.Close()
		return nil, err
	}
	log.Debug("file store opened", logx.String("prefix", prefix), logx.Int("recent", len(recent)))
	return &fileStore{log: log, samples: sf, events: ef, recent: recent}, nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	if s.samples != nil {
		errs = append(errs, s.samples.Close())
		s.samples = nil
	}
	if s.events != nil {
		errs = append(errs, s.events.Close())
		s.events = nil
	}
	return errors.Join(errs...)
}

func (s *fileStore) AppendSamples(ctx context.Context, b SampleBatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.samples == nil {
		return ErrDisabled
	}
	return json.NewEncoder(s.samples).Encode(b)
}

func (s *fileStore) AppendEvent(ctx context.Context, e EventRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.events == nil {
		return ErrDisabled
	}
	if err := json.NewEncoder(s.events).Encode(e); err != nil {
		return err
	}
	s.recent = appendBounded(s.recent, e, recentKeep)
	return nil
}

func (s *fileStore) RecentEvents(ctx context.Context, limit int) ([]EventRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > len(s.recent) {
		limit = len(s.recent)
	}
	return append([]EventRecord(nil), s.recent[len(s.recent)-limit:]...), nil
}

func appendBounded(buf []EventRecord, e EventRecord, keep int) []EventRecord {
	buf = append(buf, e)
	if len(buf) > keep {
		n := copy(buf, buf[len(buf)-keep:])
		buf = buf[:n]
	}
	return buf
}

func replayEvents(path string, keep int) ([]EventRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []EventRecord
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e EventRecord
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil || e.Type == "" {
			continue
		}
		out = appendBounded(out, e, keep)
	}
	return out, sc.Err()
}
