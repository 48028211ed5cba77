package enrich

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"
)

// ChannelLister looks up metadata for a batch of channel ids. The provider
// enforces a documented maximum batch size; the fetcher never passes more
// than its configured chunk size in one call.
type ChannelLister interface {
	List(ctx context.Context, ids []string) (Page, error)
}

// LanguageDetector detects the language of a channel title. Detection is an
// optional, billed enrichment and is disabled unless configured.
type LanguageDetector interface {
	Detect(ctx context.Context, text string) (language string, confidence float64, err error)
}

// Fetcher enriches placement ids with channel metadata, chunking lookups to
// respect the provider's per-call limit.
type Fetcher struct {
	lister      ChannelLister
	detector    LanguageDetector // nil when title translation is disabled
	chunkSize   int
	concurrency int
	logger      *zap.Logger
}

// NewFetcher creates a fetcher. The detector may be nil, in which case
// title-language detection stays off regardless of the per-call flag; the
// output schema is unchanged either way.
func NewFetcher(lister ChannelLister, detector LanguageDetector, cfg Config, logger *zap.Logger) *Fetcher {
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 50
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Fetcher{
		lister:      lister,
		detector:    detector,
		chunkSize:   chunkSize,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Fetch looks up metadata for the given placement ids. Ids are deduplicated
// before chunking since the provider bills per id. Chunk lookups run
// concurrently up to the configured bound; the combined result is keyed by
// id, so chunk completion order does not matter.
//
// detectLanguage toggles title-language detection per call; the stage reads
// the flag from configuration on each run. When disabled, or when no
// detector is wired, language fields are emitted empty.
//
// A chunk whose page reports zero results is logged and skipped, not treated
// as an error: all ids in a chunk may belong to deleted channels.
func (f *Fetcher) Fetch(ctx context.Context, ids []string, detectLanguage bool) ([]ChannelMetadata, error) {
	deduped := Dedupe(ids)
	if len(deduped) == 0 {
		return nil, nil
	}

	chunks := Chunk(deduped, f.chunkSize)
	f.logger.Info("Fetching channel metadata",
		zap.Int("ids", len(deduped)),
		zap.Int("chunks", len(chunks)))

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		results  []ChannelMetadata
		firstErr error
	)
	sem := make(chan struct{}, f.concurrency)

	for i, chunk := range chunks {
		wg.Add(1)
		sem <- struct{}{}
		go func(index int, chunk []string) {
			defer wg.Done()
			defer func() { <-sem }()

			metadata, err := f.fetchChunk(ctx, index, len(chunks), chunk, detectLanguage)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			results = append(results, metadata...)
		}(i, chunk)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

func (f *Fetcher) fetchChunk(ctx context.Context, index, total int, ids []string, detectLanguage bool) ([]ChannelMetadata, error) {
	f.logger.Debug("Processing chunk",
		zap.Int("chunk", index+1),
		zap.Int("of", total),
		zap.Int("ids", len(ids)))

	page, err := f.lister.List(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("chunk %d/%d lookup failed: %w", index+1, total, err)
	}

	if page.TotalResults == 0 {
		f.logger.Warn("Lookup returned no results for chunk",
			zap.Int("chunk", index+1),
			zap.Strings("ids", ids))
		return nil, nil
	}

	metadata := make([]ChannelMetadata, 0, len(page.Items))
	for _, item := range page.Items {
		metadata = append(metadata, f.mapItem(ctx, item, detectLanguage))
	}
	return metadata, nil
}

// mapItem converts one provider item into the fixed output schema. Absent
// fields get typed zero values; partial metadata is preserved, not rejected.
func (f *Fetcher) mapItem(ctx context.Context, item Item, detectLanguage bool) ChannelMetadata {
	meta := ChannelMetadata{
		Placement:            item.ID,
		ViewCount:            parseCount(item.Statistics.ViewCount),
		SubscriberCount:      parseCount(item.Statistics.SubscriberCount),
		VideoCount:           parseCount(item.Statistics.VideoCount),
		Title:                item.Snippet.Title,
		Country:              item.Snippet.Country,
		DefaultLanguage:      item.Snippet.DefaultLanguage,
		BrandDefaultLanguage: item.Branding.Channel.DefaultLanguage,
	}

	if detectLanguage && f.detector != nil && meta.Title != "" {
		language, confidence, err := f.detector.Detect(ctx, meta.Title)
		if err != nil {
			f.logger.Warn("Title language detection failed",
				zap.String("placement", item.ID), zap.Error(err))
		} else {
			meta.TitleLanguage = language
			meta.TitleLanguageConfidence = confidence
		}
	}
	return meta
}

// parseCount converts a provider count string into a nullable integer.
// An empty or malformed count maps to nil, never to zero.
func parseCount(s string) *int64 {
	if s == "" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// Dedupe removes repeated ids, preserving first-seen order so chunking is
// deterministic for a given input.
func Dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Chunk partitions ids into consecutive chunks of at most size elements.
// Every id lands in exactly one chunk; the final chunk may be smaller.
func Chunk(ids []string, size int) [][]string {
	if size <= 0 {
		size = 1
	}
	chunks := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
