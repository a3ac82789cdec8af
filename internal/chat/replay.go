package chat

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"propmatch/internal/model"
)

// TurnRecord is the cacheable outcome of one chat turn: the visible
// reply text plus the search that ran, if any.
type TurnRecord struct {
	Text         string                  `json:"text"`
	Searched     bool                    `json:"searched"`
	SearchPrompt string                  `json:"searchPrompt,omitempty"`
	Results      []model.EvaluatedResult `json:"results,omitempty"`
}

// Emitter is the per-turn event sink, implemented by the transport.
type Emitter interface {
	Reply(text string) error
	Stream(text string) error
	Searching() error
	Recommend(results []model.EvaluatedResult) error
}

// Replayer plays a cached turn back as a paced token stream, so a cache
// hit reads like a live reply instead of a single text dump.
type Replayer struct {
	chunkSize int
	interval  time.Duration
}

// NewReplayer creates a replayer emitting chunkSize runes per tick.
func NewReplayer(chunkSize int, interval time.Duration) *Replayer {
	if chunkSize <= 0 {
		chunkSize = 1
	}
	return &Replayer{chunkSize: chunkSize, interval: interval}
}

// Replay streams the record's text in fixed-size chunks at a fixed
// pace, then replays the search events when the original turn searched.
func (r *Replayer) Replay(ctx context.Context, record TurnRecord, emitter Emitter) error {
	limiter := rate.NewLimiter(rate.Every(r.interval), 1)

	runes := []rune(record.Text)
	for start := 0; start < len(runes); start += r.chunkSize {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		end := start + r.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		if err := emitter.Stream(string(runes[start:end])); err != nil {
			return err
		}
	}

	if !record.Searched {
		return nil
	}
	if err := emitter.Searching(); err != nil {
		return err
	}
	return emitter.Recommend(record.Results)
}
