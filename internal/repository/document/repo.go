package document

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/kailas-cloud/qubitchat/internal/db"
	"github.com/kailas-cloud/qubitchat/internal/domain"
	domdoc "github.com/kailas-cloud/qubitchat/internal/domain/document"
	"github.com/kailas-cloud/qubitchat/internal/domain/search/result"
	"github.com/kailas-cloud/qubitchat/internal/domain/similarity"
)

// store is the consumer interface for documents (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	HDel(ctx context.Context, key string, fields ...string) error
	DelMulti(ctx context.Context, keys []string) (int, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo is the vector store: one Redis hash per chunk, scanned for brute-force search.
type Repo struct {
	store store
}

// New creates a document repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Upsert replaces the given records. New fields are written before stale metadata
// fields of the previous versions are removed, so a failed write leaves the old
// versions readable.
func (r *Repo) Upsert(ctx context.Context, records []domdoc.Record) error {
	if len(records) == 0 {
		return nil
	}

	keys := make([]string, len(records))
	items := make([]db.HashSetItem, len(records))
	for i := range records {
		keys[i] = docKey(records[i].ID())
		items[i] = db.HashSetItem{Key: keys[i], Fields: buildHashFields(&records[i])}
	}

	previous, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return fmt.Errorf("load previous versions: %w", err)
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("hset documents: %w", err)
	}

	for i, old := range previous {
		if i >= len(items) {
			break
		}
		var stale []string
		for field := range old {
			if _, ok := items[i].Fields[field]; !ok {
				stale = append(stale, field)
			}
		}
		if len(stale) == 0 {
			continue
		}
		slices.Sort(stale)
		if err := r.store.HDel(ctx, keys[i], stale...); err != nil {
			return fmt.Errorf("drop stale fields of %s: %w", keys[i], err)
		}
	}
	return nil
}

// Get returns a record by ID.
func (r *Repo) Get(ctx context.Context, id string) (domdoc.Record, error) {
	key := docKey(id)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return domdoc.Record{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(m) == 0 {
		return domdoc.Record{}, domain.ErrDocumentNotFound
	}
	return parseHashFields(id, m), nil
}

// All returns every record matching filter, ordered by ID.
// A filter entry matches when the metadata value equals it case-insensitively;
// a missing key reads as the empty string.
func (r *Repo) All(ctx context.Context, filter map[string]string) ([]domdoc.Record, error) {
	keys, err := r.keys(ctx)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return []domdoc.Record{}, nil
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}

	out := make([]domdoc.Record, 0, len(keys))
	for i, m := range hashes {
		// Key deleted between SCAN and HGETALL.
		if len(m) == 0 {
			continue
		}
		rec := parseHashFields(extractDocID(keys[i]), m)
		if matches(&rec, filter) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// SimilaritySearch ranks the filtered store by cosine similarity and returns the best n.
func (r *Repo) SimilaritySearch(
	ctx context.Context, query []float32, n int, filter map[string]string,
) ([]result.Result, error) {
	pool, err := r.All(ctx, filter)
	if err != nil {
		return nil, err
	}

	scores, err := similarity.Score(query, domdoc.Embeddings(pool))
	if err != nil {
		return nil, fmt.Errorf("score documents: %w", err)
	}

	order := make([]int, len(pool))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		switch {
		case scores[a] > scores[b]:
			return -1
		case scores[a] < scores[b]:
			return 1
		}
		return a - b
	})

	n = min(n, len(order))
	out := make([]result.Result, 0, n)
	for _, i := range order[:n] {
		rec := &pool[i]
		out = append(out, result.NewClassical(rec.ID(), rec.Text(), rec.Metadata(), scores[i]))
	}
	return out, nil
}

// Delete removes records by ID and returns how many existed.
func (r *Repo) Delete(ctx context.Context, ids []string) (int, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = docKey(id)
	}
	n, err := r.store.DelMulti(ctx, keys)
	if err != nil {
		return 0, fmt.Errorf("delete documents: %w", err)
	}
	return n, nil
}

// DeleteAll removes every record and returns how many were deleted.
func (r *Repo) DeleteAll(ctx context.Context) (int, error) {
	keys, err := r.keys(ctx)
	if err != nil {
		return 0, err
	}
	n, err := r.store.DelMulti(ctx, keys)
	if err != nil {
		return 0, fmt.Errorf("delete documents: %w", err)
	}
	return n, nil
}

// Count returns the number of stored records.
func (r *Repo) Count(ctx context.Context) (int, error) {
	keys, err := r.keys(ctx)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// keys returns every document key once, sorted. SCAN may repeat a key.
func (r *Repo) keys(ctx context.Context) ([]string, error) {
	keys, err := r.store.Scan(ctx, docPattern())
	if err != nil {
		return nil, fmt.Errorf("scan documents: %w", err)
	}
	slices.Sort(keys)
	return slices.Compact(keys), nil
}

func matches(rec *domdoc.Record, filter map[string]string) bool {
	for k, v := range filter {
		if !strings.EqualFold(rec.MetadataValue(k), v) {
			return false
		}
	}
	return true
}

func docKey(id string) string {
	return domain.KeyPrefix + "doc:" + id
}

func docPattern() string {
	return domain.KeyPrefix + "doc:*"
}

func extractDocID(key string) string {
	return strings.TrimPrefix(key, domain.KeyPrefix+"doc:")
}
