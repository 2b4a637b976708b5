package library

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readingnook/readingnook-server/internal/domain"
	"github.com/readingnook/readingnook-server/internal/errors"
	"github.com/readingnook/readingnook-server/internal/search"
	"github.com/readingnook/readingnook-server/internal/store"
)

// flakyKV fails writes on demand and counts them.
type flakyKV struct {
	*store.Memory
	failSet atomic.Bool
	failGet atomic.Bool
	sets    atomic.Int32
}

func (f *flakyKV) Set(ctx context.Context, key string, value []byte) error {
	if f.failSet.Load() {
		return errors.New("disk full")
	}
	f.sets.Add(1)
	return f.Memory.Set(ctx, key, value)
}

func (f *flakyKV) Get(ctx context.Context, key string) ([]byte, error) {
	if f.failGet.Load() {
		return nil, errors.New("io error")
	}
	return f.Memory.Get(ctx, key)
}

var fixedNow = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func setupTestLibrary(t *testing.T) (*Store, *flakyKV) {
	t.Helper()
	kv := &flakyKV{Memory: store.NewMemory()}
	s := New(kv, nil, WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, s.Load(context.Background(), "user-1"))
	return s, kv
}

func candidate(id, title string) domain.Book {
	return domain.Book{
		ID:          id,
		Title:       title,
		Authors:     []string{"Author"},
		Description: "desc",
		Categories:  []string{"Fiction"},
	}
}

func TestAdd_DefaultsAndListByStatus(t *testing.T) {
	s, _ := setupTestLibrary(t)
	ctx := context.Background()

	added, err := s.Add(ctx, candidate("vol-1", "Dune"))
	require.NoError(t, err)
	require.NotNil(t, added)

	assert.Equal(t, "vol-1", added.ID)
	assert.Equal(t, domain.StatusWantToRead, added.Status)
	assert.Equal(t, domain.FormatPhysical, added.Format)
	assert.Equal(t, 0, added.Rating)
	assert.Equal(t, "", added.Notes)
	assert.Equal(t, fixedNow, added.AddedAt)

	wantToRead := s.ListByStatus(domain.StatusWantToRead)
	require.Len(t, wantToRead, 1)
	assert.Equal(t, *added, wantToRead[0])
}

func TestAdd_KeepsProvidedPersonalFields(t *testing.T) {
	s, _ := setupTestLibrary(t)

	c := candidate("vol-1", "Dune")
	c.Status = domain.StatusReading
	c.Format = domain.FormatAudiobook
	c.Rating = 3
	c.Notes = "re-read"
	c.AddedAt = time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)

	added, err := s.Add(context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusReading, added.Status)
	assert.Equal(t, domain.FormatAudiobook, added.Format)
	assert.Equal(t, 3, added.Rating)
	assert.Equal(t, "re-read", added.Notes)
	assert.Equal(t, fixedNow, added.AddedAt, "addedAt is always stamped by the store")
}

func TestAdd_GeneratesTimestampID(t *testing.T) {
	s, _ := setupTestLibrary(t)
	ctx := context.Background()

	a, err := s.Add(ctx, candidate("", "Manual One"))
	require.NoError(t, err)
	b, err := s.Add(ctx, candidate("", "Manual Two"))
	require.NoError(t, err)

	assert.Equal(t, "1714555800000", a.ID)
	assert.Equal(t, "1714555800001", b.ID, "same-millisecond adds still get distinct ids")
}

func TestAdd_DuplicateID(t *testing.T) {
	s, kv := setupTestLibrary(t)
	ctx := context.Background()

	_, err := s.Add(ctx, candidate("vol-1", "Dune"))
	require.NoError(t, err)
	writes := kv.sets.Load()

	_, err = s.Add(ctx, candidate("vol-1", "Dune again"))
	assert.ErrorIs(t, err, errors.ErrAlreadyExists)
	assert.Len(t, s.Books(), 1)
	assert.Equal(t, writes, kv.sets.Load())
}

func TestAdd_RejectsInvalidFields(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*domain.Book)
	}{
		{"status", func(b *domain.Book) { b.Status = "finished" }},
		{"format", func(b *domain.Book) { b.Format = "scroll" }},
		{"rating high", func(b *domain.Book) { b.Rating = 6 }},
		{"rating negative", func(b *domain.Book) { b.Rating = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := setupTestLibrary(t)
			c := candidate("vol-1", "Dune")
			tt.mod(&c)

			got, err := s.Add(context.Background(), c)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, errors.ErrValidation)
			assert.Empty(t, s.Books())
		})
	}
}

func TestAdd_NoUserIsNoop(t *testing.T) {
	kv := &flakyKV{Memory: store.NewMemory()}
	s := New(kv, nil)

	got, err := s.Add(context.Background(), candidate("vol-1", "Dune"))
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.Empty(t, s.Books())
	assert.Equal(t, int32(0), kv.sets.Load())
}

func TestAdd_DoesNotAliasCandidate(t *testing.T) {
	s, _ := setupTestLibrary(t)
	c := candidate("vol-1", "Dune")

	_, err := s.Add(context.Background(), c)
	require.NoError(t, err)
	c.Authors[0] = "Mutated"

	got, ok := s.Get("vol-1")
	require.True(t, ok)
	assert.Equal(t, "Author", got.Authors[0])
}

func TestUpdate_MergesPatch(t *testing.T) {
	s, _ := setupTestLibrary(t)
	ctx := context.Background()

	before, err := s.Add(ctx, candidate("vol-1", "Dune"))
	require.NoError(t, err)

	rating := 4
	after, err := s.Update(ctx, "vol-1", domain.BookPatch{Rating: &rating})
	require.NoError(t, err)
	require.NotNil(t, after)

	expected := *before
	expected.Rating = 4
	assert.Equal(t, expected, *after)

	got, ok := s.Get("vol-1")
	require.True(t, ok)
	assert.Equal(t, expected, got)
}

func TestUpdate_UnknownIDLeavesStorageUntouched(t *testing.T) {
	s, kv := setupTestLibrary(t)
	ctx := context.Background()

	_, err := s.Add(ctx, candidate("vol-1", "Dune"))
	require.NoError(t, err)

	raw, err := kv.Get(ctx, Key("user-1"))
	require.NoError(t, err)
	writes := kv.sets.Load()

	notes := "nope"
	got, err := s.Update(ctx, "missing", domain.BookPatch{Notes: &notes})
	assert.NoError(t, err)
	assert.Nil(t, got)

	after, err := kv.Get(ctx, Key("user-1"))
	require.NoError(t, err)
	assert.Equal(t, raw, after, "byte-for-byte unchanged")
	assert.Equal(t, writes, kv.sets.Load())
}

func TestUpdate_RejectsInvalidPatch(t *testing.T) {
	s, _ := setupTestLibrary(t)
	ctx := context.Background()
	_, err := s.Add(ctx, candidate("vol-1", "Dune"))
	require.NoError(t, err)

	rating := 9
	_, err = s.Update(ctx, "vol-1", domain.BookPatch{Rating: &rating})
	assert.ErrorIs(t, err, errors.ErrValidation)

	status := domain.Status("abandoned")
	_, err = s.Update(ctx, "vol-1", domain.BookPatch{Status: &status})
	assert.ErrorIs(t, err, errors.ErrValidation)

	got, _ := s.Get("vol-1")
	assert.Equal(t, 0, got.Rating)
	assert.Equal(t, domain.StatusWantToRead, got.Status)
}

func TestDelete_Idempotent(t *testing.T) {
	s, _ := setupTestLibrary(t)
	ctx := context.Background()

	_, err := s.Add(ctx, candidate("vol-1", "Dune"))
	require.NoError(t, err)
	_, err = s.Add(ctx, candidate("vol-2", "Emma"))
	require.NoError(t, err)

	removed, err := s.Delete(ctx, "vol-1")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.Delete(ctx, "vol-1")
	require.NoError(t, err)
	assert.False(t, removed)

	books := s.Books()
	require.Len(t, books, 1)
	assert.Equal(t, "vol-2", books[0].ID)
}

func TestListCurrentlyReading_PreservesOrder(t *testing.T) {
	s, _ := setupTestLibrary(t)
	ctx := context.Background()

	for _, c := range []struct {
		id     string
		status domain.Status
	}{
		{"a", domain.StatusReading},
		{"b", domain.StatusRead},
		{"c", domain.StatusReading},
		{"d", domain.StatusWantToRead},
		{"e", domain.StatusReading},
	} {
		b := candidate(c.id, c.id)
		b.Status = c.status
		_, err := s.Add(ctx, b)
		require.NoError(t, err)
	}

	reading := s.ListCurrentlyReading()
	ids := make([]string, len(reading))
	for i, b := range reading {
		ids[i] = b.ID
	}
	assert.Equal(t, []string{"a", "c", "e"}, ids)
	assert.Empty(t, New(store.NewMemory(), nil).ListCurrentlyReading())
}

func TestStats(t *testing.T) {
	s, _ := setupTestLibrary(t)
	ctx := context.Background()

	assert.Equal(t, 0, s.Stats().Total)
	assert.Equal(t, "0.0", s.Stats().AvgRating)

	for i, r := range []int{5, 0, 4} {
		c := candidate(string(rune('a'+i)), "T")
		c.Rating = r
		c.Status = domain.StatusRead
		_, err := s.Add(ctx, c)
		require.NoError(t, err)
	}

	stats := s.Stats()
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 3, stats.Read)
	assert.Equal(t, "4.5", stats.AvgRating)
	assert.Equal(t, 3, stats.FormatCounts.Physical)
}

func TestPersistence_RoundTrip(t *testing.T) {
	kv := &flakyKV{Memory: store.NewMemory()}
	ctx := context.Background()

	first := New(kv, nil, WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, first.Load(ctx, "user-1"))
	_, err := first.Add(ctx, candidate("vol-1", "Dune"))
	require.NoError(t, err)
	c := candidate("", "Manual")
	c.Format = domain.FormatEbook
	_, err = first.Add(ctx, c)
	require.NoError(t, err)
	notes := "great"
	_, err = first.Update(ctx, "vol-1", domain.BookPatch{Notes: &notes})
	require.NoError(t, err)

	second := New(kv, nil)
	require.NoError(t, second.Load(ctx, "user-1"))

	assert.Equal(t, first.Books(), second.Books())
}

func TestPersistence_KeyedPerUser(t *testing.T) {
	s, kv := setupTestLibrary(t)
	ctx := context.Background()

	_, err := s.Add(ctx, candidate("vol-1", "Dune"))
	require.NoError(t, err)

	require.NoError(t, s.Load(ctx, "user-2"))
	assert.Empty(t, s.Books(), "another user's shelf starts empty")

	raw, err := kv.Get(ctx, "reading-nook-books-user-1")
	require.NoError(t, err)
	var stored []map[string]any
	require.NoError(t, json.Unmarshal(raw, &stored))
	require.Len(t, stored, 1)
	assert.Equal(t, "vol-1", stored[0]["id"])
	assert.Equal(t, "want-to-read", stored[0]["status"])
}

func TestPersistence_WriteFailureLeavesMemory(t *testing.T) {
	s, kv := setupTestLibrary(t)
	ctx := context.Background()

	_, err := s.Add(ctx, candidate("vol-1", "Dune"))
	require.NoError(t, err)

	kv.failSet.Store(true)

	_, err = s.Add(ctx, candidate("vol-2", "Emma"))
	assert.ErrorIs(t, err, errors.ErrInternal)
	assert.ErrorContains(t, err, "persist library for user-1: disk full")

	rating := 5
	_, err = s.Update(ctx, "vol-1", domain.BookPatch{Rating: &rating})
	assert.Error(t, err)

	_, err = s.Delete(ctx, "vol-1")
	assert.Error(t, err)

	books := s.Books()
	require.Len(t, books, 1)
	assert.Equal(t, 0, books[0].Rating)
}

func TestLoad_CorruptBlobStartsEmpty(t *testing.T) {
	kv := &flakyKV{Memory: store.NewMemory()}
	ctx := context.Background()
	require.NoError(t, kv.Memory.Set(ctx, Key("user-1"), []byte("{broken")))

	s := New(kv, nil)
	require.NoError(t, s.Load(ctx, "user-1"))
	assert.Equal(t, "user-1", s.UserID())
	assert.Empty(t, s.Books())
}

func TestLoad_ReadFailureSignsOut(t *testing.T) {
	kv := &flakyKV{Memory: store.NewMemory()}
	kv.failGet.Store(true)

	s := New(kv, nil)
	err := s.Load(context.Background(), "user-1")
	assert.ErrorIs(t, err, errors.ErrUnavailable)
	assert.Equal(t, "", s.UserID())

	got, err := s.Add(context.Background(), candidate("vol-1", "Dune"))
	assert.NoError(t, err)
	assert.Nil(t, got, "mutations are no-ops until a load succeeds")
}

func TestLoad_BrowserFormatBlob(t *testing.T) {
	kv := store.NewMemory()
	ctx := context.Background()
	blob := `[{"id":"1700000000000","title":"Dune","authors":["Frank Herbert"],"thumbnail":"","description":"No description available","publishedDate":"","pageCount":0,"categories":[],"averageRating":0,"isbn":"","status":"reading","rating":4,"notes":"","format":"ebook","addedAt":"2023-11-14T22:13:20.000Z"}]`
	require.NoError(t, kv.Set(ctx, Key("42"), []byte(blob)))

	s := New(kv, nil)
	require.NoError(t, s.Load(ctx, "42"))

	books := s.Books()
	require.Len(t, books, 1)
	assert.Equal(t, domain.StatusReading, books[0].Status)
	assert.Equal(t, domain.FormatEbook, books[0].Format)
	assert.Equal(t, int64(1700000000000), books[0].AddedAt.UnixMilli())
}

func TestLoad_NormalizesInvalidStoredBooks(t *testing.T) {
	kv := store.NewMemory()
	ctx := context.Background()
	blob := `[{"id":"b1","title":"Dune","status":"bogus","format":"tablet","rating":9}]`
	require.NoError(t, kv.Set(ctx, Key("user-1"), []byte(blob)))

	s := New(kv, nil)
	require.NoError(t, s.Load(ctx, "user-1"))

	got, ok := s.Get("b1")
	require.True(t, ok)
	assert.Equal(t, domain.StatusWantToRead, got.Status)
	assert.Equal(t, domain.FormatPhysical, got.Format)
	assert.Equal(t, domain.MaxRating, got.Rating)

	notes := "still worth it"
	updated, err := s.Update(ctx, "b1", domain.BookPatch{Notes: &notes})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, notes, updated.Notes)
}

// hookIndex wraps a real index and runs onRebuild before the first Rebuild.
// searchIndex names the embedded field so it does not shadow the Index method.
type searchIndex = search.Index

type hookIndex struct {
	*searchIndex
	once      sync.Once
	onRebuild func()
}

func (h *hookIndex) Rebuild(books []domain.Book) error {
	h.once.Do(func() {
		if h.onRebuild != nil {
			h.onRebuild()
		}
	})
	return h.searchIndex.Rebuild(books)
}

func TestLoad_AddDuringRebuildStaysSearchable(t *testing.T) {
	ix, err := search.New(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ix.Close() })

	kv := &flakyKV{Memory: store.NewMemory()}
	ctx := context.Background()
	hook := &hookIndex{searchIndex: ix}
	s := New(kv, nil, WithIndexer(hook))

	added := make(chan error, 1)
	hook.onRebuild = func() {
		go func() {
			_, err := s.Add(ctx, candidate("b1", "Zanzibar Chronicles"))
			added <- err
		}()
		// The add is committed once it has written; its index update must
		// still land after this rebuild.
		require.Eventually(t, func() bool { return kv.sets.Load() == 1 }, time.Second, time.Millisecond)
	}

	require.NoError(t, s.Load(ctx, "user-1"))
	require.NoError(t, <-added)

	assert.Len(t, s.Books(), 1)
	found, err := s.Search(ctx, "Zanzibar")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "b1", found[0].ID)
}

// recordingIndex remembers the notes of every book it is asked to index.
type recordingIndex struct {
	mu    sync.Mutex
	notes map[string][]string
}

func (r *recordingIndex) Rebuild([]domain.Book) error { return nil }
func (r *recordingIndex) Remove(string) error         { return nil }
func (r *recordingIndex) Reset() error                { return nil }

func (r *recordingIndex) Index(b domain.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes[b.ID] = append(r.notes[b.ID], b.Notes)
	return nil
}

func (r *recordingIndex) Search(context.Context, string, int) ([]string, error) {
	return nil, nil
}

func (r *recordingIndex) last(bookID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.notes[bookID]
	if len(n) == 0 {
		return ""
	}
	return n[len(n)-1]
}

func TestConcurrentUpdates_IndexFollowsCommitOrder(t *testing.T) {
	rec := &recordingIndex{notes: make(map[string][]string)}
	s := New(store.NewMemory(), nil, WithIndexer(rec))
	ctx := context.Background()
	require.NoError(t, s.Load(ctx, "user-1"))
	_, err := s.Add(ctx, candidate("b1", "Dune"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			notes := strconv.Itoa(i)
			_, err := s.Update(ctx, "b1", domain.BookPatch{Notes: &notes})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, ok := s.Get("b1")
	require.True(t, ok)
	assert.Equal(t, got.Notes, rec.last("b1"), "index holds the last committed version")
}

func TestClear_KeepsStorage(t *testing.T) {
	s, kv := setupTestLibrary(t)
	ctx := context.Background()
	_, err := s.Add(ctx, candidate("vol-1", "Dune"))
	require.NoError(t, err)

	s.Clear()

	assert.Empty(t, s.Books())
	assert.Equal(t, "", s.UserID())
	_, err = kv.Get(ctx, Key("user-1"))
	assert.NoError(t, err)
}

func TestSubscribe(t *testing.T) {
	s, _ := setupTestLibrary(t)
	ctx := context.Background()

	var (
		mu     sync.Mutex
		seen   []ChangeKind
		second []ChangeKind
	)
	unsubscribe := s.Subscribe(func(c Change) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, c.Kind)
		// Subscribers may read the store.
		_ = s.Books()
	})
	s.Subscribe(func(c Change) {
		mu.Lock()
		defer mu.Unlock()
		second = append(second, c.Kind)
	})

	_, err := s.Add(ctx, candidate("vol-1", "Dune"))
	require.NoError(t, err)
	rating := 2
	_, err = s.Update(ctx, "vol-1", domain.BookPatch{Rating: &rating})
	require.NoError(t, err)
	_, err = s.Update(ctx, "missing", domain.BookPatch{Rating: &rating})
	require.NoError(t, err)
	_, err = s.Delete(ctx, "vol-1")
	require.NoError(t, err)

	unsubscribe()
	unsubscribe()
	s.Clear()

	assert.Equal(t, []ChangeKind{ChangeAdded, ChangeUpdated, ChangeDeleted}, seen)
	assert.Equal(t, []ChangeKind{ChangeAdded, ChangeUpdated, ChangeDeleted, ChangeCleared}, second)
}

func TestConcurrentAdds(t *testing.T) {
	s, kv := setupTestLibrary(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Add(ctx, candidate("", "Concurrent"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, s.Books(), 25)

	reloaded := New(kv, nil)
	require.NoError(t, reloaded.Load(ctx, "user-1"))
	assert.Len(t, reloaded.Books(), 25, "last write holds every add")
}
