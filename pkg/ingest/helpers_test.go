package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vango-dev/formstore/pkg/storage"
)

type testPart struct {
	field       string
	filename    string
	contentType string
	body        []byte
}

// formValue is a named part without a file name.
type formValue struct {
	name  string
	value string
}

func encodeBody(t *testing.T, items ...any) ([]byte, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, item := range items {
		switch it := item.(type) {
		case testPart:
			h := make(textproto.MIMEHeader)
			disposition := "form-data"
			if it.field != "" {
				disposition += fmt.Sprintf(`; name="%s"`, it.field)
			}
			if it.filename != "" {
				disposition += fmt.Sprintf(`; filename="%s"`, it.filename)
			}
			h.Set("Content-Disposition", disposition)
			if it.contentType != "" {
				h.Set("Content-Type", it.contentType)
			}
			pw, err := w.CreatePart(h)
			require.NoError(t, err)
			_, err = pw.Write(it.body)
			require.NoError(t, err)
		case formValue:
			require.NoError(t, w.WriteField(it.name, it.value))
		default:
			t.Fatalf("unexpected item %T", item)
		}
	}
	require.NoError(t, w.Close())

	return buf.Bytes(), w.Boundary()
}

func newReader(t *testing.T, items ...any) *multipart.Reader {
	t.Helper()
	body, boundary := encodeBody(t, items...)
	return multipart.NewReader(bytes.NewReader(body), boundary)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testDirectories(t *testing.T) map[Category]string {
	t.Helper()
	root := t.TempDir()
	return map[Category]string{
		ProfileImage: filepath.Join(root, "images", "profile"),
		TeamImage:    filepath.Join(root, "images", "teams"),
		Video:        filepath.Join(root, "videos"),
	}
}

func newDiskPipeline(t *testing.T, cfg Config, opts ...Option) *Pipeline {
	t.Helper()
	if cfg.Directories == nil {
		cfg.Directories = testDirectories(t)
	}
	opts = append([]Option{WithLogger(discardLogger())}, opts...)
	p, err := New(cfg, storage.NewDiskBackend(storage.WithDiskLogger(discardLogger())), opts...)
	require.NoError(t, err)
	return p
}

// listFiles returns every file name under dir, temp files included.
func listFiles(t *testing.T, dir string) []string {
	t.Helper()
	var names []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			names = append(names, d.Name())
		}
		return nil
	})
	require.NoError(t, err)
	sort.Strings(names)
	return names
}

var errDisk = errors.New("disk on fire")

// stubBackend keeps objects in memory and fails on demand, keyed by the
// field prefix of the generated name.
type stubBackend struct {
	mu      sync.Mutex
	failOn  map[string]string
	objects map[string][]byte
	removed []string
	aborted int
}

func newStubBackend(failOn map[string]string) *stubBackend {
	return &stubBackend{failOn: failOn, objects: make(map[string][]byte)}
}

func (b *stubBackend) mode(name string) string {
	for field, mode := range b.failOn {
		if strings.HasPrefix(name, field+"-") {
			return mode
		}
	}
	return ""
}

func (b *stubBackend) Create(ctx context.Context, t storage.Target, _ string) (storage.Writer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mode := b.mode(t.Name)
	if mode == "create" {
		return nil, errDisk
	}
	return &stubWriter{b: b, key: t.Key(), mode: mode}, nil
}

func (b *stubBackend) Remove(_ context.Context, t storage.Target) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, t.Key())
	b.removed = append(b.removed, t.Key())
	return nil
}

type stubWriter struct {
	b    *stubBackend
	key  string
	mode string
	buf  bytes.Buffer
}

func (w *stubWriter) Write(p []byte) (int, error) {
	if w.mode == "write" {
		return 0, errDisk
	}
	return w.buf.Write(p)
}

func (w *stubWriter) Commit() error {
	if w.mode == "commit" {
		return errDisk
	}
	w.b.mu.Lock()
	defer w.b.mu.Unlock()
	w.b.objects[w.key] = w.buf.Bytes()
	return nil
}

func (w *stubWriter) Abort() error {
	w.b.mu.Lock()
	defer w.b.mu.Unlock()
	w.b.aborted++
	return nil
}

// cancelingBackend cancels the request context when the nth artifact is created.
type cancelingBackend struct {
	storage.Backend
	cancel context.CancelFunc
	nth    int
	calls  int
}

func (b *cancelingBackend) Create(ctx context.Context, t storage.Target, contentType string) (storage.Writer, error) {
	b.calls++
	if b.calls == b.nth {
		b.cancel()
	}
	return b.Backend.Create(ctx, t, contentType)
}
