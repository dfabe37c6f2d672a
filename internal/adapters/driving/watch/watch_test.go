package watch

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/importer/internal/core/domain"
)

// recordingImporter records the references and content it imports.
type recordingImporter struct {
	mu       sync.Mutex
	imported map[string]string
}

func newRecordingImporter() *recordingImporter {
	return &recordingImporter{imported: make(map[string]string)}
}

func (r *recordingImporter) Import(ctx context.Context, req domain.ImportRequest) (*domain.ImportResult, error) {
	return r.ImportTo(ctx, req, nil)
}

func (r *recordingImporter) ImportTo(_ context.Context, req domain.ImportRequest, _ io.Writer) (*domain.ImportResult, error) {
	rc, err := req.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.imported[req.Reference] = string(b)
	r.mu.Unlock()
	return &domain.ImportResult{ID: req.Reference, Reference: req.Reference, Accepted: true}, nil
}

func (r *recordingImporter) ImportAll(ctx context.Context, reqs []domain.ImportRequest) ([]*domain.ImportResult, error) {
	out := make([]*domain.ImportResult, len(reqs))
	for i, req := range reqs {
		res, err := r.Import(ctx, req)
		if err != nil {
			return out, err
		}
		out[i] = res
	}
	return out, nil
}

func (r *recordingImporter) get(ref string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.imported[ref]
	return v, ok
}

func TestIsHidden(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"file.txt", false},
		{"dir/file.txt", false},
		{".hidden", true},
		{"dir/.hidden/file.txt", true},
		{".", false},
		{"../file.txt", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, isHidden(tt.path))
		})
	}
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))
	for _, name := range []string{"a.txt", "sub/b.html", ".hidden", ".git/config"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	single := filepath.Join(t.TempDir(), "single.txt")
	require.NoError(t, os.WriteFile(single, []byte("x"), 0o644))

	files, err := Files([]string{dir, single})
	require.NoError(t, err)
	sort.Strings(files)

	expected := []string{
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "sub", "b.html"),
		single,
	}
	sort.Strings(expected)
	assert.Equal(t, expected, files)

	_, err = Files([]string{filepath.Join(dir, "missing")})
	assert.Error(t, err)
}

func TestFileRequest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))

	req := FileRequest(path, "text/plain")
	assert.Equal(t, path, req.Reference)
	assert.Equal(t, "text/plain", req.ContentType)

	for range 2 {
		rc, err := req.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		assert.Equal(t, "content", string(b))
	}
}

func TestWatcher_importPath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "doc.txt")
	hidden := filepath.Join(dir, ".doc.txt")
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(hidden, []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(sub, 0o755))

	w := New(dir, newRecordingImporter())

	tests := []struct {
		name     string
		event    fsnotify.Event
		expected string
	}{
		{"create file", fsnotify.Event{Name: file, Op: fsnotify.Create}, file},
		{"write file", fsnotify.Event{Name: file, Op: fsnotify.Write}, file},
		{"chmod ignored", fsnotify.Event{Name: file, Op: fsnotify.Chmod}, ""},
		{"remove ignored", fsnotify.Event{Name: filepath.Join(dir, "gone"), Op: fsnotify.Remove}, ""},
		{"hidden ignored", fsnotify.Event{Name: hidden, Op: fsnotify.Create}, ""},
		{"directory ignored", fsnotify.Event{Name: sub, Op: fsnotify.Create}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, w.importPath(tt.event))
		})
	}
}

func TestWatcher_ImportsWrittenFiles(t *testing.T) {
	dir := t.TempDir()
	importer := newRecordingImporter()

	var mu sync.Mutex
	var outcomes []string
	w := New(dir, importer,
		WithDebounce(20*time.Millisecond),
		WithResults(func(path string, _ *domain.ImportResult, err error) {
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				outcomes = append(outcomes, path)
			}
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(dir, "new.txt")
	require.NoError(t, os.WriteFile(path, []byte("fresh"), 0o644))

	assert.Eventually(t, func() bool {
		content, ok := importer.get(path)
		return ok && content == "fresh"
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, outcomes, path)
}

func TestWatcher_RequiresImporter(t *testing.T) {
	w := New(t.TempDir(), nil)
	assert.Error(t, w.Run(context.Background()))
}
