// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import "strings"

// Turn is one completed exchange.
type Turn struct {
	User      string
	Assistant string
}

// Memory keeps the conversation so far. MaxTurns bounds how many recent
// turns are kept; zero keeps all of them.
type Memory struct {
	MaxTurns int
	turns    []Turn
}

// Add records a completed exchange.
func (m *Memory) Add(user, assistant string) {
	m.turns = append(m.turns, Turn{User: user, Assistant: assistant})
	if m.MaxTurns > 0 && len(m.turns) > m.MaxTurns {
		m.turns = m.turns[len(m.turns)-m.MaxTurns:]
	}
}

// Turns returns a copy of the kept turns, oldest first.
func (m *Memory) Turns() []Turn {
	out := make([]Turn, len(m.turns))
	copy(out, m.turns)
	return out
}

// Len returns the number of kept turns.
func (m *Memory) Len() int { return len(m.turns) }

// Transcript renders the kept turns as "Human:"/"AI:" lines.
func (m *Memory) Transcript() string {
	var b strings.Builder
	for _, t := range m.turns {
		b.WriteString("Human: ")
		b.WriteString(t.User)
		b.WriteString("\nAI: ")
		b.WriteString(t.Assistant)
		b.WriteString("\n")
	}
	return b.String()
}
