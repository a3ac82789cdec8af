package quota

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"propmatch/internal/repository"
)

// ErrQuotaExceeded is returned when an identity has used up its quota.
var ErrQuotaExceeded = errors.New("quota exceeded")

// Ticket is a one-time quota reset voucher. A ticket only works on the
// calendar day it was issued, and only once per identity.
type Ticket struct {
	ID       string    `json:"id"`
	IssuedAt time.Time `json:"issuedAt"`
}

// Record is the persisted quota state for one identity. WindowStart
// anchors the fixed quota window; rewrites shorten the entry TTL so the
// record still expires when the original window does.
type Record struct {
	Count       int       `json:"count"`
	UsedTickets []string  `json:"usedTickets,omitempty"`
	WindowStart time.Time `json:"windowStart"`
}

// Tracker counts usage per identity against a ceiling. Records expire
// after the configured TTL, which is what resets the daily count.
type Tracker struct {
	kv        *repository.KVStore
	namespace string
	ceiling   int
	ttl       time.Duration

	now func() time.Time
}

// NewTracker creates a quota tracker on top of the key-value store.
func NewTracker(kv *repository.KVStore, namespace string, ceiling int, ttl time.Duration) *Tracker {
	return &Tracker{
		kv:        kv,
		namespace: namespace,
		ceiling:   ceiling,
		ttl:       ttl,
		now:       time.Now,
	}
}

func (t *Tracker) key(identity string) string {
	return fmt.Sprintf("%s:%s", t.namespace, identity)
}

func (t *Tracker) load(identity string) (Record, error) {
	data, ok, err := t.kv.Get(t.key(identity))
	if err != nil {
		return Record{}, err
	}
	if !ok {
		return Record{}, nil
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		// A corrupt record counts as absent rather than locking the
		// identity out forever.
		return Record{}, nil
	}
	return rec, nil
}

func (t *Tracker) store(identity string, rec Record) error {
	now := t.now()
	if rec.WindowStart.IsZero() {
		rec.WindowStart = now
	}

	// Fixed window: a steadily active identity must still reset when
	// the window elapses, so updates keep the original expiry.
	remaining := t.ttl - now.Sub(rec.WindowStart)
	if remaining <= 0 {
		rec.WindowStart = now
		remaining = t.ttl
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return t.kv.Set(t.key(identity), data, remaining)
}

// Check returns ErrQuotaExceeded when the identity is at or above the
// ceiling.
func (t *Tracker) Check(identity string) error {
	rec, err := t.load(identity)
	if err != nil {
		return err
	}
	if rec.Count >= t.ceiling {
		return ErrQuotaExceeded
	}
	return nil
}

// Increment records one use for the identity within the current window.
func (t *Tracker) Increment(identity string) error {
	rec, err := t.load(identity)
	if err != nil {
		return err
	}
	rec.Count++
	return t.store(identity, rec)
}

// Count returns the current usage count for the identity.
func (t *Tracker) Count(identity string) (int, error) {
	rec, err := t.load(identity)
	if err != nil {
		return 0, err
	}
	return rec.Count, nil
}

// Ceiling returns the configured quota ceiling.
func (t *Tracker) Ceiling() int {
	return t.ceiling
}

// Redeem resets the identity's count to zero in exchange for a valid
// ticket. A ticket issued on another calendar day, or one the identity
// already used, is silently ignored and the count stands.
func (t *Tracker) Redeem(identity string, ticket Ticket) error {
	if ticket.ID == "" || !sameDay(ticket.IssuedAt, t.now()) {
		return nil
	}

	rec, err := t.load(identity)
	if err != nil {
		return err
	}
	for _, used := range rec.UsedTickets {
		if used == ticket.ID {
			return nil
		}
	}

	rec.Count = 0
	rec.UsedTickets = append(rec.UsedTickets, ticket.ID)
	return t.store(identity, rec)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
