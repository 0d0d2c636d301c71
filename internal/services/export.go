package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/happythoughts/apiserver/types"
	"go.uber.org/zap"
)

const exportKeyPrefix = "exports/thoughts-"

// ObjectWriter stores an object under a key.
type ObjectWriter interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
}

// ExportSnapshot is the document written by ExportRecent.
type ExportSnapshot struct {
	ExportedAt time.Time       `json:"exportedAt"`
	Thoughts   []types.Thought `json:"thoughts"`
}

// ExportService writes snapshots of the recent window to object storage.
type ExportService struct {
	thoughts *ThoughtService
	objects  ObjectWriter
	logger   *zap.Logger
	now      func() time.Time
}

func NewExportService(thoughts *ThoughtService, objects ObjectWriter, opts ...Option) *ExportService {
	o := buildOptions(opts)
	return &ExportService{
		thoughts: thoughts,
		objects:  objects,
		logger:   o.logger,
		now:      o.now,
	}
}

// ExportRecent uploads the most recent thoughts and returns the object key.
func (s *ExportService) ExportRecent(ctx context.Context) (string, error) {
	thoughts, err := s.thoughts.List(ctx, RecentLimit)
	if err != nil {
		return "", err
	}

	exportedAt := s.now().UTC()
	data, err := json.MarshalIndent(ExportSnapshot{ExportedAt: exportedAt, Thoughts: thoughts}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode export: %w", err)
	}

	key := exportKeyPrefix + exportedAt.Format(time.RFC3339) + ".json"
	if err := s.objects.Put(ctx, key, bytes.NewReader(data), int64(len(data)), "application/json"); err != nil {
		return "", fmt.Errorf("upload export %s: %w", key, err)
	}

	s.logger.Info("thoughts exported", zap.String("key", key), zap.Int("count", len(thoughts)))
	return key, nil
}
