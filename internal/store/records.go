package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/away0419/eunoia/internal/errors"
	"github.com/away0419/eunoia/internal/word"
)

// validKey matches keys produced by word.Slug / word.GenerateKey.
var validKey = regexp.MustCompile(`^[a-z0-9가-힣_]+$`)

// FileRecordStore keeps each category record in <dir>/<key>.json.
type FileRecordStore struct {
	dir string
	log logrus.FieldLogger
	mu  sync.Mutex
}

// NewFileRecordStore returns a record store rooted at dir.
func NewFileRecordStore(dir string, log logrus.FieldLogger) *FileRecordStore {
	return &FileRecordStore{dir: dir, log: log}
}

func (s *FileRecordStore) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", errors.NewInvalidRequest(fmt.Sprintf("invalid category key: %q", key))
	}
	return filepath.Join(s.dir, key+".json"), nil
}

// Read loads the record for key. Entries written without an id get one and
// the record is rewritten so the ids stay stable across reads.
func (s *FileRecordStore) Read(ctx context.Context, key string) (*word.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewCancelled("read record")
	}
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := OpenNoFollowRead(path)
	if err != nil {
		if errors.Is(err, errors.ErrFileNotFound) {
			return nil, nil
		}
		return nil, errors.NewStorage("read record "+key, err)
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		return nil, errors.NewStorage("read record "+key, err)
	}

	var rec word.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.NewStorage("decode record "+key, err)
	}

	assigned := false
	for i := range rec.Words {
		rec.Words[i] = rec.Words[i].Normalized()
		if rec.Words[i].ID == "" {
			rec.Words[i].ID = word.NewID()
			assigned = true
		}
	}
	if assigned {
		if err := s.write(key, path, rec); err != nil {
			// ids are still usable for this read; the next read assigns new ones
			s.log.WithError(err).WithField("category", key).Warn("failed to persist assigned word ids")
		}
	}
	return &rec, nil
}

// Write replaces the record for key atomically.
func (s *FileRecordStore) Write(ctx context.Context, key string, rec word.Record) error {
	if err := ctx.Err(); err != nil {
		return errors.NewCancelled("write record")
	}
	path, err := s.path(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(key, path, rec)
}

func (s *FileRecordStore) write(key, path string, rec word.Record) error {
	if rec.Words == nil {
		rec.Words = []word.Entry{}
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return errors.NewInternal(err)
	}
	if err := WriteFileAtomic(path, data); err != nil {
		return errors.NewStorage("write record "+key, err)
	}
	return nil
}

// Delete removes the record file for key.
func (s *FileRecordStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return errors.NewCancelled("delete record")
	}
	path, err := s.path(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.NewStorage("delete record "+key, err)
	}
	return nil
}
