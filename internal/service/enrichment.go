package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"

	"propmatch/internal/model"
)

// EmbeddingStore persists an embedding vector for a catalog row.
type EmbeddingStore interface {
	UpdateEmbedding(ctx context.Context, link string, embedding []float32) error
}

// Embedder generates embedding vectors for texts.
type Embedder interface {
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// embedBatchSize is how many texts go into one embedding API call.
const embedBatchSize = 16

// Enricher computes and stores embeddings for catalog rows using a
// bounded worker pool, so large batches do not fan out unbounded
// concurrent API calls.
type Enricher struct {
	store    EmbeddingStore
	embedder Embedder
	pool     *ants.Pool
}

// NewEnricher creates an enricher with the given worker pool size.
func NewEnricher(store EmbeddingStore, embedder Embedder, workers int) (*Enricher, error) {
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	return &Enricher{store: store, embedder: embedder, pool: pool}, nil
}

// Close releases the worker pool.
func (e *Enricher) Close() {
	e.pool.Release()
}

// Process embeds and stores every item, chunked into batches that run
// concurrently on the pool. The response counts per-item outcomes; a
// failed embedding call fails every item in its batch.
func (e *Enricher) Process(ctx context.Context, items []model.EmbeddingItem) model.EmbeddingBatchResponse {
	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		resp model.EmbeddingBatchResponse
	)

	fail := func(n int, err error) {
		mu.Lock()
		resp.Failed += n
		resp.Errors = append(resp.Errors, err.Error())
		mu.Unlock()
	}

	for start := 0; start < len(items); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(items) {
			end = len(items)
		}
		batch := items[start:end]

		wg.Add(1)
		err := e.pool.Submit(func() {
			defer wg.Done()
			e.processBatch(ctx, batch, &mu, &resp)
		})
		if err != nil {
			wg.Done()
			fail(len(batch), fmt.Errorf("failed to submit batch: %w", err))
		}
	}

	wg.Wait()
	return resp
}

func (e *Enricher) processBatch(ctx context.Context, batch []model.EmbeddingItem, mu *sync.Mutex, resp *model.EmbeddingBatchResponse) {
	texts := make([]string, len(batch))
	for i, item := range batch {
		texts[i] = item.Text
	}

	embeddings, err := e.embedder.CreateEmbeddings(ctx, texts)
	if err != nil {
		mu.Lock()
		resp.Failed += len(batch)
		resp.Errors = append(resp.Errors, fmt.Sprintf("embedding call failed: %v", err))
		mu.Unlock()
		return
	}

	for i, item := range batch {
		if i >= len(embeddings) || len(embeddings[i]) == 0 {
			mu.Lock()
			resp.Failed++
			resp.Errors = append(resp.Errors, fmt.Sprintf("%s: no embedding returned", item.Link))
			mu.Unlock()
			continue
		}
		if err := e.store.UpdateEmbedding(ctx, item.Link, embeddings[i]); err != nil {
			mu.Lock()
			resp.Failed++
			resp.Errors = append(resp.Errors, fmt.Sprintf("%s: %v", item.Link, err))
			mu.Unlock()
			continue
		}
		mu.Lock()
		resp.Success++
		mu.Unlock()
	}
}
