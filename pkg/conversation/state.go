// Package conversation holds the transcript of the active chat session.
//
// State is a value: Append and Reset return a new State and never modify the
// receiver, so whoever owns the session passes it explicitly from one event to
// the next. Retention is bounded: once more than Max() turns have been
// appended, the oldest turns are dropped.
package conversation

// DefaultMaxTurns keeps three user/assistant exchanges.
const DefaultMaxTurns = 6

type State struct {
	turns    []Turn
	maxTurns int
}

// New returns an empty state retaining at most maxTurns turns. A non-positive
// maxTurns selects DefaultMaxTurns.
func New(maxTurns int) State {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return State{maxTurns: maxTurns}
}

// Max returns the retention cap.
func (s State) Max() int {
	if s.maxTurns <= 0 {
		return DefaultMaxTurns
	}
	return s.maxTurns
}

func (s State) Len() int { return len(s.turns) }

// Append adds t at the end and trims the front so that at most Max() turns
// remain.
func (s State) Append(t Turn) State {
	limit := s.Max()
	start := 0
	if len(s.turns)+1 > limit {
		start = len(s.turns) + 1 - limit
	}

	turns := make([]Turn, 0, len(s.turns)-start+1)
	turns = append(turns, s.turns[start:]...)
	turns = append(turns, t)

	return State{turns: turns, maxTurns: limit}
}

// All returns the retained turns, oldest first. The returned slice is a copy.
func (s State) All() []Turn {
	if len(s.turns) == 0 {
		return nil
	}
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Reset drops every turn and keeps the cap.
func (s State) Reset() State {
	return State{maxTurns: s.Max()}
}

// Last returns the most recent turn, if any.
func (s State) Last() (Turn, bool) {
	if len(s.turns) == 0 {
		return Turn{}, false
	}
	return s.turns[len(s.turns)-1], true
}

// LastAssistant returns the most recent assistant turn, if any.
func (s State) LastAssistant() (Turn, bool) {
	for i := len(s.turns) - 1; i >= 0; i-- {
		if s.turns[i].IsAssistant() {
			return s.turns[i], true
		}
	}
	return Turn{}, false
}
