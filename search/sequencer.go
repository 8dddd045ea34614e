package search

import "sync/atomic"

// Token identifies one issued search. Tokens start at 1 and strictly increase.
type Token uint64

// Sequencer stamps searches so that only the most recently issued one may
// commit its results.
type Sequencer struct {
	latest atomic.Uint64
}

// Next issues a new token and makes it the latest.
func (s *Sequencer) Next() Token {
	return Token(s.latest.Add(1))
}

// IsCurrent reports whether t is the latest issued token.
func (s *Sequencer) IsCurrent(t Token) bool {
	return t != 0 && uint64(t) == s.latest.Load()
}

func (s *Sequencer) Latest() Token {
	return Token(s.latest.Load())
}
