package listing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/emprendecr/emprende/internal/core/domain"
	"github.com/emprendecr/emprende/internal/core/listing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Helpers
// =============================================================================

type call struct {
	filter domain.ListFilter
	page   domain.Page
}

// fakeSource serves pages from a script of responses, one per call.
type fakeSource struct {
	mu        sync.Mutex
	calls     []call
	responses []response
}

type response struct {
	n   int
	err error
}

func (f *fakeSource) fetch(_ context.Context, q domain.ListFilter, p domain.Page) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{filter: q, page: p})
	if len(f.responses) == 0 {
		return nil, nil
	}
	r := f.responses[0]
	f.responses = f.responses[1:]
	if r.err != nil {
		return nil, r.err
	}
	return items(r.n, (p.Number-1)*p.Size), nil
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func items(n, start int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = start + i
	}
	return out
}

func sanJoseFood() domain.Filters {
	return domain.Filters{}.
		WithCategory(domain.Scalar("cat-1")).
		WithProvincia(domain.Scalar("San José"))
}

// =============================================================================
// Pagination Tests
// =============================================================================

func TestListing_PaginatesUntilShortPage(t *testing.T) {
	src := &fakeSource{responses: []response{{n: 50}, {n: 12}}}
	l := New("products", src.fetch, WithPageSize(50))
	ctx := context.Background()

	require.NoError(t, l.Load(ctx, sanJoseFood()))

	snap := l.Snapshot()
	assert.Equal(t, listing.StateReady, snap.State)
	assert.True(t, snap.HasMore())
	assert.Equal(t, 1, snap.Cursor.Page)
	assert.Len(t, snap.Items, 50)

	first := src.calls[0]
	assert.Equal(t, domain.Page{Number: 1, Size: 50}, first.page)
	assert.Equal(t, []string{"cat-1"}, first.filter.CategoryIDs)
	assert.Equal(t, []string{"San José"}, first.filter.Provincias)

	started, err := l.LoadMore(ctx)
	require.NoError(t, err)
	assert.True(t, started)
	assert.Equal(t, domain.Page{Number: 2, Size: 50}, src.calls[1].page)

	snap = l.Snapshot()
	assert.Len(t, snap.Items, 62)
	assert.Equal(t, 61, snap.Items[61])
	assert.False(t, snap.Cursor.HasMore)
	assert.Equal(t, listing.StateExhausted, snap.State)

	for i := 0; i < 3; i++ {
		started, err = l.LoadMore(ctx)
		require.NoError(t, err)
		assert.False(t, started)
	}
	assert.Equal(t, 2, src.callCount())
}

func TestListing_EmptyFirstPageExhausts(t *testing.T) {
	src := &fakeSource{responses: []response{{n: 0}}}
	l := New("services", src.fetch)

	require.NoError(t, l.Load(context.Background(), domain.Filters{}))
	snap := l.Snapshot()
	assert.Equal(t, listing.StateExhausted, snap.State)
	assert.Empty(t, snap.Items)
}

func TestListing_LoadMoreBeforeLoadDoesNothing(t *testing.T) {
	src := &fakeSource{}
	l := New("products", src.fetch)

	started, err := l.LoadMore(context.Background())
	require.NoError(t, err)
	assert.False(t, started)
	assert.Zero(t, src.callCount())
}

// =============================================================================
// Filter Change Tests
// =============================================================================

func TestListing_FilterChangeResetsBeforeFetch(t *testing.T) {
	src := &fakeSource{responses: []response{{n: 50}, {n: 50}}}
	l := New("products", src.fetch, WithPageSize(50))
	ctx := context.Background()
	require.NoError(t, l.Load(ctx, sanJoseFood()))

	var during Snapshot[int]
	l.fetch = func(ctx context.Context, q domain.ListFilter, p domain.Page) ([]int, error) {
		during = l.Snapshot()
		return src.fetch(ctx, q, p)
	}

	fetched, err := l.SetFilters(ctx, sanJoseFood().WithCategory(domain.Scalar("cat-2")))
	require.NoError(t, err)
	assert.True(t, fetched)

	assert.Equal(t, listing.StateLoading, during.State)
	assert.Empty(t, during.Items)
	assert.Equal(t, 1, during.Cursor.Page)
	assert.True(t, during.Cursor.HasMore)
	assert.Equal(t, domain.Page{Number: 1, Size: 50}, src.calls[1].page)
	assert.Equal(t, []string{"cat-2"}, src.calls[1].filter.CategoryIDs)
}

func TestListing_SameFiltersDoNotRefetch(t *testing.T) {
	src := &fakeSource{responses: []response{{n: 3}}}
	l := New("products", src.fetch)
	ctx := context.Background()

	fetched, err := l.SetFilters(ctx, sanJoseFood())
	require.NoError(t, err)
	assert.True(t, fetched)

	fetched, err = l.SetFilters(ctx, sanJoseFood())
	require.NoError(t, err)
	assert.False(t, fetched)
	assert.Equal(t, 1, src.callCount())
}

func TestListing_UpdateClearsCantonWithProvincia(t *testing.T) {
	src := &fakeSource{}
	l := New("businesses", src.fetch)
	ctx := context.Background()

	require.NoError(t, l.Load(ctx, sanJoseFood().WithCanton(domain.Scalar("Escazú"))))
	require.NoError(t, l.Update(ctx, func(f domain.Filters) domain.Filters {
		return f.WithProvincia(domain.Scalar("Heredia"))
	}))

	last := src.calls[len(src.calls)-1]
	assert.Equal(t, []string{"Heredia"}, last.filter.Provincias)
	assert.Nil(t, last.filter.Cantons)
}

// =============================================================================
// Concurrency Tests
// =============================================================================

// blockingSource holds every fetch until released.
type blockingSource struct {
	entered chan domain.Page
	release chan struct{}
	n       int

	mu    sync.Mutex
	calls int
}

func newBlockingSource(n int) *blockingSource {
	return &blockingSource{entered: make(chan domain.Page, 16), release: make(chan struct{}), n: n}
}

func (b *blockingSource) fetch(_ context.Context, _ domain.ListFilter, p domain.Page) ([]int, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	b.entered <- p
	<-b.release
	return items(b.n, 0), nil
}

func (b *blockingSource) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func TestListing_AtMostOneFetchInFlight(t *testing.T) {
	src := &fakeSource{responses: []response{{n: 50}}}
	l := New("products", src.fetch, WithPageSize(50))
	ctx := context.Background()
	require.NoError(t, l.Load(ctx, domain.Filters{}))

	blocking := newBlockingSource(50)
	l.fetch = blocking.fetch

	done := make(chan bool)
	go func() {
		started, _ := l.LoadMore(ctx)
		done <- started
	}()

	select {
	case <-blocking.entered:
	case <-time.After(time.Second):
		t.Fatal("fetch did not start")
	}
	assert.Equal(t, listing.StateLoadingMore, l.Snapshot().State)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started, err := l.LoadMore(ctx)
			assert.NoError(t, err)
			assert.False(t, started)
		}()
	}
	wg.Wait()

	close(blocking.release)
	assert.True(t, <-done)
	assert.Equal(t, 1, blocking.callCount())
	assert.Len(t, l.Snapshot().Items, 100)
}

func TestListing_StaleResponseDiscarded(t *testing.T) {
	blocking := newBlockingSource(50)
	l := New("products", blocking.fetch, WithPageSize(50))
	ctx := context.Background()

	staleErr := make(chan error)
	go func() {
		staleErr <- l.Load(ctx, sanJoseFood())
	}()
	<-blocking.entered

	fresh := &fakeSource{responses: []response{{n: 7}}}
	l.mu.Lock()
	l.fetch = fresh.fetch
	l.mu.Unlock()

	newer := sanJoseFood().WithCategory(domain.Scalar("cat-2"))
	require.NoError(t, l.Load(ctx, newer))

	close(blocking.release)
	assert.ErrorIs(t, <-staleErr, ErrStale)

	snap := l.Snapshot()
	assert.Len(t, snap.Items, 7)
	assert.Equal(t, listing.StateExhausted, snap.State)
	assert.True(t, snap.Filters.Equal(newer))
	assert.Equal(t, uint64(2), snap.Generation)
}

// =============================================================================
// Failure Tests
// =============================================================================

func TestListing_InitialFailureLeavesIdle(t *testing.T) {
	boom := errors.New("network down")
	src := &fakeSource{responses: []response{{err: boom}}}
	l := New("products", src.fetch)
	ctx := context.Background()

	err := l.Load(ctx, sanJoseFood())
	assert.ErrorIs(t, err, boom)

	snap := l.Snapshot()
	assert.Equal(t, listing.StateIdle, snap.State)
	assert.Empty(t, snap.Items)
	assert.ErrorIs(t, snap.Err, boom)

	started, err := l.LoadMore(ctx)
	require.NoError(t, err)
	assert.False(t, started)
}

func TestListing_LoadMoreFailureIsRetryable(t *testing.T) {
	boom := errors.New("timeout")
	src := &fakeSource{responses: []response{{n: 50}, {err: boom}, {n: 5}}}
	l := New("products", src.fetch, WithPageSize(50))
	ctx := context.Background()
	require.NoError(t, l.Load(ctx, domain.Filters{}))

	started, err := l.LoadMore(ctx)
	assert.True(t, started)
	assert.ErrorIs(t, err, boom)

	snap := l.Snapshot()
	assert.Equal(t, listing.StateReady, snap.State)
	assert.Equal(t, 1, snap.Cursor.Page)
	assert.Len(t, snap.Items, 50)
	assert.ErrorIs(t, snap.Err, boom)

	started, err = l.LoadMore(ctx)
	require.NoError(t, err)
	assert.True(t, started)
	assert.Equal(t, src.calls[1].page, src.calls[2].page)

	snap = l.Snapshot()
	assert.Len(t, snap.Items, 55)
	assert.NoError(t, snap.Err)
}

func TestListing_SnapshotsAreStable(t *testing.T) {
	src := &fakeSource{responses: []response{{n: 50}, {n: 50}}}
	l := New("products", src.fetch, WithPageSize(50))
	ctx := context.Background()
	require.NoError(t, l.Load(ctx, domain.Filters{}))

	before := l.Snapshot()
	_, err := l.LoadMore(ctx)
	require.NoError(t, err)

	assert.Len(t, before.Items, 50)
	assert.Len(t, l.Snapshot().Items, 100)
}

func TestListing_RejectsInvalidTransition(t *testing.T) {
	l := New("products", (&fakeSource{}).fetch)

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.False(t, l.transition(listing.StateLoadingMore))
	assert.Equal(t, listing.StateIdle, l.state)

	assert.True(t, l.transition(listing.StateLoading))
	assert.True(t, l.transition(listing.StateExhausted))
	assert.False(t, l.transition(listing.StateReady))
	assert.Equal(t, listing.StateExhausted, l.state)
}
