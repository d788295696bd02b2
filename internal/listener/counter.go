package listener

// Counts holds the per-minute tallies for one application.
type Counts struct {
	Chars      int
	Words      int
	Paragraphs int
	Backspaces int
}

// Counter turns a stream of key kinds into character, word, paragraph, and
// backspace counts. Characters include the whitespace keys that produce
// them (space, tab, enter). A word is counted when a boundary key ends a
// run of at least one surviving character; backspace erases pending
// characters, so a fully backspaced run never counts as a word.
type Counter struct {
	counts  Counts
	pending int
}

// Record tallies one key press.
func (c *Counter) Record(kind KeyKind) {
	switch kind {
	case KeyCharacter:
		c.counts.Chars++
		c.pending++
	case KeyBackspace:
		c.counts.Backspaces++
		if c.pending > 0 {
			c.pending--
		}
	case KeyEnter:
		c.counts.Chars++
		c.counts.Paragraphs++
		c.endWord()
	case KeySpace, KeyTab:
		c.counts.Chars++
		c.endWord()
	}
}

func (c *Counter) endWord() {
	if c.pending > 0 {
		c.counts.Words++
		c.pending = 0
	}
}

// Counts returns the tallies so far. A run of characters not yet ended by
// a boundary key is not counted as a word.
func (c *Counter) Counts() Counts {
	return c.counts
}
