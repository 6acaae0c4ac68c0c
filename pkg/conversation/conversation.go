// Package conversation holds the turn log of a chat session as a plain value.
package conversation

// Turn is one exchange: what the user said and what the assistant replied.
type Turn struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// Conversation is the ordered list of turns so far. The zero value is an
// empty conversation.
type Conversation struct {
	Turns []Turn `json:"turns"`
}

// Append returns a new Conversation with turn added at the end. The receiver
// is left untouched and the two values never share a backing array.
func (c Conversation) Append(turn Turn) Conversation {
	turns := make([]Turn, len(c.Turns), len(c.Turns)+1)
	copy(turns, c.Turns)
	return Conversation{Turns: append(turns, turn)}
}

// Len returns the number of turns.
func (c Conversation) Len() int {
	return len(c.Turns)
}

// Last returns the most recent turn and false when the conversation is empty.
func (c Conversation) Last() (Turn, bool) {
	if len(c.Turns) == 0 {
		return Turn{}, false
	}
	return c.Turns[len(c.Turns)-1], true
}
