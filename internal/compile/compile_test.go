package compile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-lightserver/internal/effect"
	"github.com/coreman2200/funtimes-lightserver/internal/program"
	"github.com/coreman2200/funtimes-lightserver/internal/validate"
)

const (
	clearLeaf = `{"instruction":"0001000000"}`
	redLeaf   = `{"instruction":"01030000FF0000"}`
	// fade 0A, in, black to (100,150,200): 21 steps
	fadeLeaf = `{"instruction":"040200000A00000006496C8"}`
)

func lp(entries ...string) string {
	return `{"name":"compiled","instructions":[` + strings.Join(entries, ",") + `]}`
}

func repeat(times string, entries ...string) string {
	return `{"repeat":{"times":` + times + `,"instructions":[` + strings.Join(entries, ",") + `]}}`
}

func build(t *testing.T, text string) *program.Tree {
	t.Helper()
	env := effect.Env{Pixels: 60}
	r := validate.New(validate.DefaultLimits(), env).Validate(text)
	require.True(t, r.OK(), r.String())
	tr := program.NewTree(65, 15)
	_, err := New(env).Build(text, tr)
	require.NoError(t, err)
	return tr
}

func TestBuildSingleLeaf(t *testing.T) {
	tr := build(t, `{"name":"test1","instructions":[{"instruction":"0001000000"}]}`)
	require.Equal(t, 1, tr.Leaves())
	first := tr.First()
	assert.True(t, first.IsLeaf())
	assert.Equal(t, first, tr.Current())

	l := tr.Leaf(first)
	assert.Equal(t, effect.OpClear, l.Opcode)
	assert.Equal(t, 1, l.Duration)
	assert.Equal(t, 1, l.CurrentDuration)
	assert.Equal(t, 1, l.TotalSteps)
	assert.Equal(t, 1, l.RemainingSteps)
	assert.Equal(t, "00", l.Params)
	assert.Equal(t, program.None, l.Parent)
}

func TestBuildLinksTree(t *testing.T) {
	tr := build(t, lp(redLeaf, repeat("3", clearLeaf, repeat("0", fadeLeaf)), clearLeaf))
	require.Equal(t, 4, tr.Leaves())
	require.Equal(t, 2, tr.Repeats())

	red := tr.First()
	require.True(t, red.IsLeaf())
	outer := tr.Next(red)
	require.True(t, outer.IsRepeat())
	last := tr.Next(outer)
	require.True(t, last.IsLeaf())
	assert.Equal(t, program.None, tr.Next(last))

	o := tr.Repeat(outer)
	assert.Equal(t, 3, o.Iterations)
	assert.Equal(t, 3, o.Remaining)

	inClear := o.FirstChild
	require.True(t, inClear.IsLeaf())
	assert.Equal(t, outer, tr.Parent(inClear))
	inner := tr.Next(inClear)
	require.True(t, inner.IsRepeat())
	assert.Equal(t, outer, tr.Parent(inner))

	i := tr.Repeat(inner)
	assert.True(t, i.IsInfinite())
	fade := tr.Leaf(i.FirstChild)
	require.NotNil(t, fade)
	assert.Equal(t, 21, fade.TotalSteps)
	assert.Equal(t, 2, fade.Duration)
	assert.Equal(t, inner, fade.Parent)
}

func TestBuildRepeatFirst(t *testing.T) {
	tr := build(t, lp(repeat("2", redLeaf)))
	assert.True(t, tr.First().IsRepeat(), "first allocated node is the entry point")
	assert.Equal(t, tr.First(), tr.Current())
}

func TestLeafCountMatchesSource(t *testing.T) {
	texts := map[string]int{
		lp(clearLeaf):                    1,
		lp(clearLeaf, redLeaf, fadeLeaf): 3,
		lp(repeat("2", clearLeaf, redLeaf), repeat("0", fadeLeaf)):        3,
		lp(repeat("1", repeat("1", repeat("1", clearLeaf))), redLeaf): 2,
		`{"name":"mixed","instructions":["0001000000",{"instruction":"0001000000","repeat":{"times":2,"instructions":["0001000000"]}}]}`: 3,
	}
	for text, leaves := range texts {
		tr := build(t, text)
		assert.Equal(t, leaves, tr.Leaves(), text)
	}
}

func TestBuildArenaExhausted(t *testing.T) {
	env := effect.Env{Pixels: 60}
	tr := program.NewTree(2, 1)
	_, err := New(env).Build(lp(clearLeaf, clearLeaf, clearLeaf), tr)
	assert.ErrorIs(t, err, program.ErrArenaFull)
	assert.True(t, tr.Empty(), "failed build leaves the tree empty")

	_, err = New(env).Build(lp(repeat("2", repeat("2", clearLeaf))), tr)
	assert.ErrorIs(t, err, program.ErrArenaFull)
}

func TestBuildRejectsMalformed(t *testing.T) {
	tr := program.NewTree(4, 4)
	_, err := New(effect.Env{Pixels: 60}).Build(lp(`{"instruction":"zz"}`), tr)
	assert.ErrorIs(t, err, ErrMalformed)

	p, err := New(effect.Env{Pixels: 60}).Build(lp(clearLeaf), tr)
	require.NoError(t, err)
	assert.Equal(t, Program{Name: "compiled", Leaves: 1}, p)
}
