package blacklist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet_Basics(t *testing.T) {
	s := NewSet("foo", "bar", "foo")
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Has("foo"))
	assert.False(t, s.Has("baz"))

	s.Add("baz")
	assert.Equal(t, []string{"bar", "baz", "foo"}, s.Sorted())
}

func TestSet_Minus(t *testing.T) {
	current := NewSet("foo", "bar")
	desired := NewSet("bar", "baz")

	assert.Equal(t, NewSet("baz"), desired.Minus(current))
	assert.Equal(t, NewSet("foo"), current.Minus(desired))
	assert.Empty(t, current.Minus(current))
}

func TestSet_Equal(t *testing.T) {
	assert.True(t, NewSet().Equal(NewSet()))
	assert.True(t, NewSet("a", "b").Equal(NewSet("b", "a")))
	assert.False(t, NewSet("a").Equal(NewSet("a", "b")))
	assert.False(t, NewSet("a", "c").Equal(NewSet("a", "b")))
}

func TestSet_SortedEmpty(t *testing.T) {
	sorted := NewSet().Sorted()
	assert.NotNil(t, sorted)
	assert.Empty(t, sorted)
}
