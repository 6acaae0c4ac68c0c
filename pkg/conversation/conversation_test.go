package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppend(t *testing.T) {
	var empty Conversation
	_, ok := empty.Last()
	assert.False(t, ok)

	one := empty.Append(Turn{User: "hi", Assistant: "hello"})
	assert.Equal(t, 0, empty.Len())
	require.Equal(t, 1, one.Len())

	last, ok := one.Last()
	require.True(t, ok)
	assert.Equal(t, "hi", last.User)
}

func TestAppend_NoAliasing(t *testing.T) {
	base := Conversation{}.Append(Turn{User: "a"}).Append(Turn{User: "b"})

	left := base.Append(Turn{User: "left"})
	right := base.Append(Turn{User: "right"})

	assert.Equal(t, "left", left.Turns[2].User)
	assert.Equal(t, "right", right.Turns[2].User)
	assert.Equal(t, 2, base.Len())

	left.Turns[0].User = "changed"
	assert.Equal(t, "a", base.Turns[0].User)
	assert.Equal(t, "a", right.Turns[0].User)
}
