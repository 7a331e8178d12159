package program

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeArenas(t *testing.T) {
	tr := NewTree(2, 1)
	assert.True(t, tr.Empty())

	rp, err := tr.AddRepeat(Repeat{Iterations: 3, Remaining: 3})
	require.NoError(t, err)
	assert.Equal(t, rp, tr.First(), "first allocation is the entry point")
	assert.Equal(t, rp, tr.Current())

	a, err := tr.AddLeaf(Leaf{Text: "a", Parent: rp})
	require.NoError(t, err)
	b, err := tr.AddLeaf(Leaf{Text: "b", Parent: rp})
	require.NoError(t, err)
	tr.SetNext(a, b)
	tr.Repeat(rp).FirstChild = a

	assert.Equal(t, b, tr.Next(a))
	assert.Equal(t, None, tr.Next(b))
	assert.Equal(t, rp, tr.Parent(b))
	assert.Equal(t, None, tr.Parent(rp))

	_, err = tr.AddLeaf(Leaf{})
	assert.ErrorIs(t, err, ErrArenaFull)
	_, err = tr.AddRepeat(Repeat{})
	assert.ErrorIs(t, err, ErrArenaFull)

	tr.Reset()
	assert.True(t, tr.Empty())
	assert.Equal(t, None, tr.Current())
	assert.Equal(t, 0, tr.Leaves())
	assert.Equal(t, 2, tr.LeafCapacity(), "reset keeps capacity")
	assert.Nil(t, tr.Leaf(a))
}

func TestRefLookupRejectsWrongKind(t *testing.T) {
	tr := NewTree(1, 1)
	l, _ := tr.AddLeaf(Leaf{})
	assert.Nil(t, tr.Repeat(l))
	assert.Nil(t, tr.Leaf(Ref{Kind: KindLeaf, Index: 5}))
	assert.Equal(t, "leaf[0]", l.String())
	assert.Equal(t, "none", None.String())
}

func TestRepeatCounters(t *testing.T) {
	r := Repeat{Iterations: 2}
	r.ResetIterations()
	assert.Equal(t, 1, r.Decrement())
	assert.Equal(t, 0, r.Decrement())
	assert.Equal(t, 0, r.Decrement(), "never goes negative")

	inf := Repeat{Iterations: Infinite}
	assert.True(t, inf.IsInfinite())
}

func TestLeafReset(t *testing.T) {
	l := Leaf{Duration: 3, TotalSteps: 4}
	l.Reset()
	assert.Equal(t, 3, l.CurrentDuration)
	assert.Equal(t, 4, l.RemainingSteps)
	assert.Equal(t, 0, l.Step())
	l.RemainingSteps = 1
	assert.Equal(t, 3, l.Step())
}
