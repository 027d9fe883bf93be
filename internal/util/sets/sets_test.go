package sets

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	s := New("a", "b")
	assert.True(t, s.Has("a"))
	assert.False(t, s.Has("c"))
	assert.Equal(t, 2, s.Len())

	s.Add("c")
	assert.True(t, s.Has("c"))
	s.Add("c")
	assert.Equal(t, 3, s.Len(), "adding an existing value is a no-op")

	s.Delete("a")
	assert.False(t, s.Has("a"))
	s.Delete("never-there")
	assert.Equal(t, 2, s.Len())

	vals := s.Values()
	sort.Strings(vals)
	assert.Equal(t, []string{"b", "c"}, vals)
}

func TestSet_Empty(t *testing.T) {
	s := New[int]()
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Values())
	assert.False(t, s.Has(1))
}
