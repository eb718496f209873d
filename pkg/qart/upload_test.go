package qart

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quatton/qsite/pkg/qerr"
)

type recordingSink struct {
	mu   sync.Mutex
	puts map[string]string // key -> content type
}

func (s *recordingSink) Put(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.puts == nil {
		s.puts = map[string]string{}
	}
	s.puts[rec.Key] = rec.ContentType
	return nil
}

// memStore is an in-memory Store for tests.
type memStore struct {
	mu      sync.Mutex
	objects map[string]*Object
	bodies  map[string]string
	ensured bool
}

func newMemStore() *memStore {
	return &memStore{objects: map[string]*Object{}, bodies: map[string]string{}}
}

func (m *memStore) Upload(_ context.Context, key string, r io.Reader, size int64, contentType string, metadata map[string]string) (*Object, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) != size {
		return nil, errors.New("size mismatch")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	obj := &Object{Key: key, Size: size, ContentType: contentType, Metadata: metadata, LastModified: time.Now()}
	m.objects[key] = obj
	m.bodies[key] = string(data)
	return obj, nil
}

func (m *memStore) List(_ context.Context, prefix string) ([]*Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Object
	for k, o := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return ErrNotFound
	}
	delete(m.objects, key)
	delete(m.bodies, key)
	return nil
}

func (m *memStore) EnsureBucket(context.Context) error {
	m.ensured = true
	return nil
}

var _ Store = (*memStore)(nil)

func TestUploadTree_OnePutPerFile(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "index.html", "assets/app.js", "assets/app.css", "assets/img/logo.png")

	sink := &recordingSink{}
	records, err := UploadTree(context.Background(), root, sink, Options{Concurrency: 4})
	require.NoError(t, err)
	assert.Len(t, records, 4)
	assert.Equal(t, map[string]string{
		"index.html":          "text/html",
		"assets/app.js":       "text/javascript",
		"assets/app.css":      "text/css",
		"assets/img/logo.png": "image/png",
	}, sink.puts)
}

func TestUploadTree_Idempotent(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "index.html", "a/b.js", "a/c/d.css")

	first := &recordingSink{}
	_, err := UploadTree(context.Background(), root, first, Options{})
	require.NoError(t, err)

	second := &recordingSink{}
	_, err = UploadTree(context.Background(), root, second, Options{Concurrency: 8})
	require.NoError(t, err)

	assert.Equal(t, first.puts, second.puts)
}

func TestUpload_RespectsConcurrencyLimit(t *testing.T) {
	var records []Record
	for i := 0; i < 20; i++ {
		records = append(records, Record{Key: string(rune('a' + i))})
	}

	var inFlight, peak int32
	sink := SinkFunc(func(ctx context.Context, rec Record) error {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return nil
	})

	require.NoError(t, Upload(context.Background(), records, sink, Options{Concurrency: 3}))
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
}

func TestUpload_FailureNamesFile(t *testing.T) {
	records := []Record{
		{Key: "ok.html", SourcePath: "/art/ok.html"},
		{Key: "bad.js", SourcePath: "/art/bad.js"},
	}
	boom := errors.New("access denied")
	sink := SinkFunc(func(_ context.Context, rec Record) error {
		if rec.Key == "bad.js" {
			return boom
		}
		return nil
	})

	err := Upload(context.Background(), records, sink, Options{})
	require.Error(t, err)
	assert.True(t, qerr.IsCode(err, qerr.CodeUploadFailure))
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "/art/bad.js")
}

func TestUpload_RejectsDuplicateKeys(t *testing.T) {
	records := []Record{{Key: "a"}, {Key: "a"}}
	err := Upload(context.Background(), records, &recordingSink{}, Options{})
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestStoreSink_UploadsBodies(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "index.html", "assets/app.js")
	store := newMemStore()

	_, err := UploadTree(context.Background(), root, StoreSink{Store: store, Prefix: "site/"}, Options{Concurrency: 2})
	require.NoError(t, err)

	assert.Equal(t, "content of index.html", store.bodies["site/index.html"])
	assert.Equal(t, "text/javascript", store.objects["site/assets/app.js"].ContentType)
}

func TestPrune_RemovesStaleKeys(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "index.html", "old.js")
	store := newMemStore()
	ctx := context.Background()

	_, err := UploadTree(ctx, root, StoreSink{Store: store}, Options{})
	require.NoError(t, err)

	// new bundle drops old.js
	fresh := t.TempDir()
	writeTree(t, fresh, "index.html", "new.js")
	records, err := UploadTree(ctx, fresh, StoreSink{Store: store}, Options{})
	require.NoError(t, err)

	deleted, err := Prune(ctx, store, "", records)
	require.NoError(t, err)
	assert.Equal(t, []string{"old.js"}, deleted)

	remaining, _ := store.List(ctx, "")
	var keys []string
	for _, o := range remaining {
		keys = append(keys, o.Key)
	}
	assert.Equal(t, []string{"index.html", "new.js"}, keys)
}

func TestPrune_HonoursPrefix(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	for _, k := range []string{"site/index.html", "site/stale.css", "other/keep.txt"} {
		_, err := store.Upload(ctx, k, strings.NewReader(""), 0, "text/plain", nil)
		require.NoError(t, err)
	}

	deleted, err := Prune(ctx, store, "site/", []Record{{Key: "index.html"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"site/stale.css"}, deleted)
	assert.Contains(t, store.objects, "other/keep.txt")
}

func TestPrune_PrefixIsADirectory(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "index.html")
	store := newMemStore()
	ctx := context.Background()

	_, err := store.Upload(ctx, "app-v2/index.html", strings.NewReader(""), 0, "text/html", nil)
	require.NoError(t, err)

	records, err := UploadTree(ctx, root, StoreSink{Store: store, Prefix: "app"}, Options{})
	require.NoError(t, err)
	assert.Contains(t, store.objects, "app/index.html")

	deleted, err := Prune(ctx, store, "app", records)
	require.NoError(t, err)
	assert.Empty(t, deleted)
	assert.Contains(t, store.objects, "app-v2/index.html")
}

func TestDirPrefix(t *testing.T) {
	assert.Equal(t, "", DirPrefix(""))
	assert.Equal(t, "app/", DirPrefix("app"))
	assert.Equal(t, "app/", DirPrefix("app/"))
}
