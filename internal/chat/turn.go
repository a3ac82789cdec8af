package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"propmatch/internal/cache"
	"propmatch/internal/config"
	"propmatch/internal/model"
	"propmatch/internal/service"
)

// PropertySearcher runs a catalog search for a prompt.
type PropertySearcher interface {
	Search(ctx context.Context, prompt string) ([]model.EvaluatedResult, error)
}

const turnSystemPromptTemplate = `You are a friendly property search assistant for a Thai real-estate catalog. Chat naturally with the user about what they are looking for.

When the user has given enough detail to search, emit the marker %s followed by a one-line search request summarizing all their criteria, followed by the marker %s. Emit the markers at most once per reply, always as a pair, and put any conversational text BEFORE the first marker. If you do not have enough detail yet, ask a follow-up question instead of searching.`

// TurnRunner executes one chat turn: replay it from the cache when the
// same message was answered before, otherwise stream a live reply
// through the marker state machine and cache the outcome.
type TurnRunner struct {
	client   service.ChatClient
	searcher PropertySearcher
	replayer *Replayer
	cache    *cache.Cache
	cacheCfg *config.CacheConfig
	chatCfg  *config.ChatConfig
}

// NewTurnRunner wires a turn runner.
func NewTurnRunner(
	client service.ChatClient,
	searcher PropertySearcher,
	c *cache.Cache,
	cacheCfg *config.CacheConfig,
	chatCfg *config.ChatConfig,
) *TurnRunner {
	return &TurnRunner{
		client:   client,
		searcher: searcher,
		replayer: NewReplayer(chatCfg.ReplayChunkSize, chatCfg.ReplayInterval),
		cache:    c,
		cacheCfg: cacheCfg,
		chatCfg:  chatCfg,
	}
}

// RunTurn handles one user message for the session, emitting events to
// the transport. Exactly one reply is produced per call; the transport
// owns the terminal end-of-turn signal.
func (t *TurnRunner) RunTurn(ctx context.Context, session *Session, userText string, emitter Emitter) error {
	key := t.cache.Key(cache.PurposeChatTurn, userText)

	if data, ok, err := t.cache.Get(key); err == nil && ok {
		var record TurnRecord
		if err := json.Unmarshal(data, &record); err == nil {
			if err := t.replayer.Replay(ctx, record, emitter); err != nil {
				return err
			}
			if err := emitter.Reply(record.Text); err != nil {
				return err
			}
			t.fold(session, userText, record.Text)
			return nil
		}
	}

	record, err := t.runLive(ctx, session, userText, emitter)
	if err != nil {
		return err
	}

	if data, err := json.Marshal(record); err == nil {
		if err := t.cache.Set(key, data, t.cacheCfg.ChatTurnTTL); err != nil {
			log.Printf("Failed to cache chat turn: %v", err)
		}
	}

	// The full assembled text closes the turn for clients that do not
	// stitch stream chunks together.
	if err := emitter.Reply(record.Text); err != nil {
		return err
	}
	t.fold(session, userText, record.Text)
	return nil
}

func (t *TurnRunner) runLive(ctx context.Context, session *Session, userText string, emitter Emitter) (TurnRecord, error) {
	var record TurnRecord
	var visible strings.Builder

	machine := NewTurnMachine(
		t.chatCfg.OpenMarker,
		t.chatCfg.CloseMarker,
		func(text string) error {
			visible.WriteString(text)
			return emitter.Stream(text)
		},
		func(prompt string) error {
			record.SearchPrompt = prompt
			if err := emitter.Searching(); err != nil {
				return err
			}
			results, err := t.searcher.Search(ctx, prompt)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
			record.Results = results
			return emitter.Recommend(results)
		},
	)

	system := fmt.Sprintf(turnSystemPromptTemplate, t.chatCfg.OpenMarker, t.chatCfg.CloseMarker)
	messages := append([]service.ChatMessage{{Role: service.RoleSystem, Content: system}}, session.History()...)
	messages = append(messages, service.ChatMessage{Role: service.RoleUser, Content: userText})

	if _, err := t.client.CompleteStream(ctx, messages, machine.ProcessToken); err != nil {
		return record, err
	}
	if err := machine.Finish(); err != nil {
		return record, err
	}

	record.Text = visible.String()
	record.Searched = machine.Searched()
	return record, nil
}

// fold appends the completed exchange to the session history. The
// assistant side records only the visible reply text, never markers or
// search payloads.
func (t *TurnRunner) fold(session *Session, userText, replyText string) {
	session.Append(
		service.ChatMessage{Role: service.RoleUser, Content: userText},
		service.ChatMessage{Role: service.RoleAssistant, Content: replyText},
	)
}
