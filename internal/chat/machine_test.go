package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testOpen  = "[SEARCHING]"
	testClose = "[DONE]"
)

// collector records everything the machine emits.
type collector struct {
	visible  strings.Builder
	searches []string
}

func (c *collector) machine() *TurnMachine {
	return NewTurnMachine(testOpen, testClose,
		func(text string) error {
			c.visible.WriteString(text)
			return nil
		},
		func(prompt string) error {
			c.searches = append(c.searches, prompt)
			return nil
		},
	)
}

// feed streams text through the machine in chunks of the given size,
// simulating arbitrary token boundaries.
func feed(t *testing.T, m *TurnMachine, text string, chunkSize int) {
	t.Helper()
	runes := []rune(text)
	for start := 0; start < len(runes); start += chunkSize {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		require.NoError(t, m.ProcessToken(string(runes[start:end])))
	}
	require.NoError(t, m.Finish())
}

func TestMachine_PlainReplyForwardedVerbatim(t *testing.T) {
	for _, chunkSize := range []int{1, 3, 7, 100} {
		c := &collector{}
		m := c.machine()
		reply := "Could you tell me your budget and preferred area?"

		feed(t, m, reply, chunkSize)

		assert.Equal(t, reply, c.visible.String(), "chunk size %d", chunkSize)
		assert.Empty(t, c.searches)
		assert.False(t, m.Searched())
	}
}

func TestMachine_MarkersTriggerOneSearch(t *testing.T) {
	for _, chunkSize := range []int{1, 2, 5, 11, 100} {
		c := &collector{}
		m := c.machine()

		feed(t, m, "Let me look that up. [SEARCHING] 2 bedroom condo in Phuket [DONE] ignored trailer", chunkSize)

		assert.Equal(t, "Let me look that up. ", c.visible.String(), "chunk size %d", chunkSize)
		require.Len(t, c.searches, 1, "chunk size %d", chunkSize)
		assert.Equal(t, "2 bedroom condo in Phuket", c.searches[0])
		assert.True(t, m.Searched())
	}
}

func TestMachine_TextAfterCloseDropped(t *testing.T) {
	c := &collector{}
	m := c.machine()

	feed(t, m, "[SEARCHING]query[DONE]this must never surface", 4)

	assert.Equal(t, "", c.visible.String())
	require.Len(t, c.searches, 1)
	assert.Equal(t, "query", c.searches[0])
}

func TestMachine_BracketTextThatIsNotAMarker(t *testing.T) {
	c := &collector{}
	m := c.machine()
	reply := "The [SEA] view units [START] at 3M THB."

	feed(t, m, reply, 2)

	assert.Equal(t, reply, c.visible.String())
	assert.Empty(t, c.searches)
}

func TestMachine_UnclosedMarkerDegradesToText(t *testing.T) {
	c := &collector{}
	m := c.machine()

	feed(t, m, "Searching now [SEARCHING] condo in Bangkok", 3)

	// The open marker never closed, so the collected text is released
	// as ordinary reply output and no search runs.
	assert.Equal(t, "Searching now  condo in Bangkok", c.visible.String())
	assert.Empty(t, c.searches)
	assert.False(t, m.Searched())
}

func TestMachine_TokensAfterDoneIgnored(t *testing.T) {
	c := &collector{}
	m := c.machine()

	require.NoError(t, m.ProcessToken("[SEARCHING]q[DONE]"))
	require.NoError(t, m.ProcessToken("late token"))
	require.NoError(t, m.Finish())

	assert.Equal(t, "", c.visible.String())
	require.Len(t, c.searches, 1)
}

func TestMachine_MarkerSplitAcrossManyTokens(t *testing.T) {
	c := &collector{}
	m := c.machine()

	// Every rune is its own token, including the markers
	for _, r := range "Hi! [SEARCHING]pool villa[DONE]" {
		require.NoError(t, m.ProcessToken(string(r)))
	}
	require.NoError(t, m.Finish())

	assert.Equal(t, "Hi! ", c.visible.String())
	require.Len(t, c.searches, 1)
	assert.Equal(t, "pool villa", c.searches[0])
}
