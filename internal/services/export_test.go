package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/happythoughts/apiserver/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedObject struct {
	key         string
	data        []byte
	size        int64
	contentType string
}

type fakeObjectWriter struct {
	objects []capturedObject
	err     error
}

func (w *fakeObjectWriter) Put(_ context.Context, key string, r io.Reader, size int64, contentType string) error {
	if w.err != nil {
		return w.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	w.objects = append(w.objects, capturedObject{key: key, data: data, size: size, contentType: contentType})
	return nil
}

func TestExportService_ExportRecent(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)
	thoughts := NewThoughtService(memory.NewThoughtRepository(), WithClock(fixedClock(now)))
	for _, message := range []string{"first thought", "second thought"} {
		_, err := thoughts.Create(ctx, message)
		require.NoError(t, err)
	}

	writer := &fakeObjectWriter{}
	key, err := NewExportService(thoughts, writer, WithClock(fixedClock(now))).ExportRecent(ctx)
	require.NoError(t, err)

	assert.Equal(t, "exports/thoughts-2024-03-04T05:06:07Z.json", key)
	require.Len(t, writer.objects, 1)
	object := writer.objects[0]
	assert.Equal(t, key, object.key)
	assert.Equal(t, "application/json", object.contentType)
	assert.Equal(t, int64(len(object.data)), object.size)

	var snapshot ExportSnapshot
	require.NoError(t, json.Unmarshal(object.data, &snapshot))
	assert.Len(t, snapshot.Thoughts, 2)
	assert.True(t, snapshot.ExportedAt.Equal(now))
}

func TestExportService_UploadFailure(t *testing.T) {
	boom := errors.New("bucket missing")
	thoughts := NewThoughtService(memory.NewThoughtRepository())

	_, err := NewExportService(thoughts, &fakeObjectWriter{err: boom}).ExportRecent(context.Background())
	assert.ErrorIs(t, err, boom)
}
