package enrich

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeLister records the chunks it was called with and serves canned pages.
type fakeLister struct {
	mu     sync.Mutex
	calls  [][]string
	pages  map[string]Page // keyed by first id of the chunk
	err    error
	allIDs bool // when true, answer every chunk with one item per id
}

func (f *fakeLister) List(ctx context.Context, ids []string) (Page, error) {
	f.mu.Lock()
	chunk := make([]string, len(ids))
	copy(chunk, ids)
	f.calls = append(f.calls, chunk)
	f.mu.Unlock()

	if f.err != nil {
		return Page{}, f.err
	}
	if f.allIDs {
		page := Page{TotalResults: len(ids)}
		for _, id := range ids {
			page.Items = append(page.Items, Item{ID: id})
		}
		return page, nil
	}
	if page, ok := f.pages[ids[0]]; ok {
		return page, nil
	}
	return Page{}, nil
}

func TestChunk_Properties(t *testing.T) {
	makeIDs := func(n int) []string {
		ids := make([]string, n)
		for i := range ids {
			ids[i] = fmt.Sprintf("UC%03d", i)
		}
		return ids
	}

	for _, size := range []int{1, 2, 3, 7, 50, 100} {
		for _, n := range []int{0, 1, 2, 49, 50, 51, 120} {
			t.Run(fmt.Sprintf("size=%d n=%d", size, n), func(t *testing.T) {
				ids := makeIDs(n)
				chunks := Chunk(ids, size)

				// Exhaustive and disjoint: every id appears exactly once.
				seen := map[string]int{}
				total := 0
				for _, chunk := range chunks {
					assert.LessOrEqual(t, len(chunk), size)
					assert.NotEmpty(t, chunk)
					total += len(chunk)
					for _, id := range chunk {
						seen[id]++
					}
				}
				assert.Equal(t, n, total)
				for _, count := range seen {
					assert.Equal(t, 1, count)
				}
			})
		}
	}
}

func TestDedupe(t *testing.T) {
	got := Dedupe([]string{"UC1", "UC2", "UC1", "", "UC3", "UC2"})
	assert.Equal(t, []string{"UC1", "UC2", "UC3"}, got)
}

func TestFetch_DedupesBeforeLookup(t *testing.T) {
	lister := &fakeLister{allIDs: true}
	f := NewFetcher(lister, nil, Config{ChunkSize: 10, Concurrency: 1}, zap.NewNop())

	results, err := f.Fetch(context.Background(), []string{"UC1", "UC1", "UC2", "UC1"}, false)
	require.NoError(t, err)

	require.Len(t, lister.calls, 1)
	assert.Equal(t, []string{"UC1", "UC2"}, lister.calls[0])
	assert.Len(t, results, 2)
}

func TestFetch_EmptyInput(t *testing.T) {
	lister := &fakeLister{allIDs: true}
	f := NewFetcher(lister, nil, Config{}, zap.NewNop())

	results, err := f.Fetch(context.Background(), nil, false)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, lister.calls)
}

func TestFetch_ZeroResultChunkIsNotAnError(t *testing.T) {
	// First chunk resolves, second chunk reports zero results (all ids
	// belong to deleted channels).
	lister := &fakeLister{pages: map[string]Page{
		"UC1": {
			TotalResults: 1,
			Items:        []Item{{ID: "UC1"}},
		},
	}}
	f := NewFetcher(lister, nil, Config{ChunkSize: 2, Concurrency: 1}, zap.NewNop())

	results, err := f.Fetch(context.Background(), []string{"UC1", "UC2", "UC3", "UC4"}, false)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "UC1", results[0].Placement)
}

func TestFetch_LookupErrorPropagates(t *testing.T) {
	lister := &fakeLister{err: assert.AnError}
	f := NewFetcher(lister, nil, Config{ChunkSize: 2, Concurrency: 2}, zap.NewNop())

	_, err := f.Fetch(context.Background(), []string{"UC1", "UC2", "UC3"}, false)
	assert.Error(t, err)
}

func TestMapItem_AbsentFieldsDefaultTyped(t *testing.T) {
	f := NewFetcher(&fakeLister{}, nil, Config{}, zap.NewNop())

	// Hidden subscriber count and missing snippet fields.
	item := Item{
		ID: "UC1",
		Statistics: ItemStatistics{
			ViewCount: "1200",
			// SubscriberCount hidden by the channel owner
			VideoCount: "not-a-number",
		},
	}
	meta := f.mapItem(context.Background(), item, false)

	require.NotNil(t, meta.ViewCount)
	assert.Equal(t, int64(1200), *meta.ViewCount)
	assert.Nil(t, meta.SubscriberCount)
	assert.Nil(t, meta.VideoCount)
	assert.Empty(t, meta.Title)
	assert.Empty(t, meta.Country)
	assert.Empty(t, meta.TitleLanguage)
	assert.Zero(t, meta.TitleLanguageConfidence)
}

type fakeDetector struct{}

func (fakeDetector) Detect(ctx context.Context, text string) (string, float64, error) {
	return "en", 0.93, nil
}

func TestMapItem_DetectorFlag(t *testing.T) {
	item := Item{ID: "UC1", Snippet: ItemSnippet{Title: "Cooking with Gas"}}

	t.Run("Flag off emits empty fields even with a detector", func(t *testing.T) {
		f := NewFetcher(&fakeLister{}, fakeDetector{}, Config{}, zap.NewNop())
		meta := f.mapItem(context.Background(), item, false)
		assert.Empty(t, meta.TitleLanguage)
		assert.Zero(t, meta.TitleLanguageConfidence)
	})

	t.Run("Flag on without a detector is a no-op", func(t *testing.T) {
		f := NewFetcher(&fakeLister{}, nil, Config{}, zap.NewNop())
		meta := f.mapItem(context.Background(), item, true)
		assert.Empty(t, meta.TitleLanguage)
	})

	t.Run("Flag on with detector fills language fields", func(t *testing.T) {
		f := NewFetcher(&fakeLister{}, fakeDetector{}, Config{}, zap.NewNop())
		meta := f.mapItem(context.Background(), item, true)
		assert.Equal(t, "en", meta.TitleLanguage)
		assert.Equal(t, 0.93, meta.TitleLanguageConfidence)
	})
}
