package chat

import (
	"strings"
)

// turnState is where a streamed reply currently is relative to the
// search markers.
type turnState int

const (
	stateStreaming turnState = iota
	stateSearching
	stateDone
)

// TurnMachine consumes one streamed assistant reply token by token.
// Ordinary text is forwarded as it arrives; when the open marker shows
// up mid-stream the machine switches to collecting the search prompt,
// and the close marker triggers the search callback exactly once. Text
// after the close marker is dropped.
//
// Markers can be split across token boundaries, so the machine holds
// back the shortest suffix of forwarded text that could still turn out
// to be the start of a marker.
type TurnMachine struct {
	openMarker  string
	closeMarker string

	state     turnState
	pending   string
	searchBuf strings.Builder
	searched  bool

	emit     func(text string) error
	onSearch func(prompt string) error
}

// NewTurnMachine creates a machine for one turn. emit receives visible
// reply text; onSearch receives the trimmed search prompt, at most once.
func NewTurnMachine(openMarker, closeMarker string, emit func(text string) error, onSearch func(prompt string) error) *TurnMachine {
	return &TurnMachine{
		openMarker:  openMarker,
		closeMarker: closeMarker,
		emit:        emit,
		onSearch:    onSearch,
	}
}

// Searched reports whether the search callback fired this turn.
func (m *TurnMachine) Searched() bool {
	return m.searched
}

// ProcessToken feeds one stream token through the machine.
func (m *TurnMachine) ProcessToken(token string) error {
	if token == "" || m.state == stateDone {
		return nil
	}
	return m.consume(m.pendingTake() + token)
}

func (m *TurnMachine) pendingTake() string {
	p := m.pending
	m.pending = ""
	return p
}

func (m *TurnMachine) consume(buf string) error {
	switch m.state {
	case stateStreaming:
		if idx := strings.Index(buf, m.openMarker); idx >= 0 {
			if idx > 0 {
				if err := m.emit(buf[:idx]); err != nil {
					return err
				}
			}
			m.state = stateSearching
			return m.consume(buf[idx+len(m.openMarker):])
		}

		hold := holdback(buf, m.openMarker)
		if visible := buf[:len(buf)-hold]; visible != "" {
			if err := m.emit(visible); err != nil {
				return err
			}
		}
		m.pending = buf[len(buf)-hold:]
		return nil

	case stateSearching:
		if idx := strings.Index(buf, m.closeMarker); idx >= 0 {
			m.searchBuf.WriteString(buf[:idx])
			m.state = stateDone
			m.searched = true
			return m.onSearch(strings.TrimSpace(m.searchBuf.String()))
		}

		hold := holdback(buf, m.closeMarker)
		m.searchBuf.WriteString(buf[:len(buf)-hold])
		m.pending = buf[len(buf)-hold:]
		return nil

	default:
		return nil
	}
}

// Finish flushes the machine at end of stream. Held-back text is
// released; an open marker that never closed degrades to ordinary reply
// text instead of a search.
func (m *TurnMachine) Finish() error {
	switch m.state {
	case stateStreaming:
		if p := m.pendingTake(); p != "" {
			return m.emit(p)
		}
	case stateSearching:
		m.state = stateDone
		leftover := m.searchBuf.String() + m.pendingTake()
		if leftover != "" {
			return m.emit(leftover)
		}
	}
	return nil
}

// holdback returns the length of the longest suffix of buf that is a
// proper prefix of marker.
func holdback(buf, marker string) int {
	max := len(marker) - 1
	if max > len(buf) {
		max = len(buf)
	}
	for n := max; n > 0; n-- {
		if strings.HasPrefix(marker, buf[len(buf)-n:]) {
			return n
		}
	}
	return 0
}
