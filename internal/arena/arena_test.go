package arena_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tacir/internal/arena"
)

func TestZeroKeyIsSentinel(t *testing.T) {
	var k arena.Key
	require.True(t, k.IsZero())
	require.Equal(t, "<nil>", k.String())
}

func TestInsertGet(t *testing.T) {
	a := arena.New[string]()
	k := a.Insert("hello")
	require.False(t, k.IsZero())

	v, ok := a.Get(k)
	require.True(t, ok)
	require.Equal(t, "hello", *v)
	require.True(t, a.Contains(k))
	require.Equal(t, 1, a.Len())
}

func TestRemoveBumpsGenerationAndStalesOldHandle(t *testing.T) {
	a := arena.New[string]()
	k := a.Insert("hello")

	removed := a.Remove(k)
	require.Equal(t, "hello", removed)
	require.False(t, a.Contains(k))

	_, ok := a.Get(k)
	require.False(t, ok)
	require.Equal(t, 0, a.Len())
}

func TestFreedSlotIsReusedWithBumpedGeneration(t *testing.T) {
	a := arena.New[string]()
	first := a.Insert("a")
	a.Remove(first)
	second := a.Insert("b")

	require.Equal(t, first.Slot(), second.Slot(), "freed slot should be reused")
	require.NotEqual(t, first, second, "reused slot must carry a new generation")

	// the stale handle must not resolve to the new occupant
	_, ok := a.Get(first)
	require.False(t, ok)

	v, ok := a.Get(second)
	require.True(t, ok)
	require.Equal(t, "b", *v)
}

func TestMustGetPanicsOnStaleHandle(t *testing.T) {
	a := arena.New[string]()
	k := a.Insert("hello")
	a.Remove(k)
	require.Panics(t, func() { a.MustGet(k) })
}

func TestRemovePanicsOnStaleHandle(t *testing.T) {
	a := arena.New[string]()
	k := a.Insert("hello")
	a.Remove(k)
	require.Panics(t, func() { a.Remove(k) })
}

func TestGet2PanicsOnAliasingHandles(t *testing.T) {
	a := arena.New[string]()
	k := a.Insert("hello")
	require.Panics(t, func() { a.Get2(k, k) })
}

func TestGet2ReturnsDistinctPointers(t *testing.T) {
	a := arena.New[string]()
	k1 := a.Insert("a")
	k2 := a.Insert("b")
	p1, p2 := a.Get2(k1, k2)
	require.Equal(t, "a", *p1)
	require.Equal(t, "b", *p2)
}

func TestKeysReturnsOnlyLiveHandles(t *testing.T) {
	a := arena.New[string]()
	k1 := a.Insert("a")
	k2 := a.Insert("b")
	a.Remove(k1)
	k3 := a.Insert("c")

	keys := a.Keys()
	require.ElementsMatch(t, []arena.Key{k2, k3}, keys)
}

type node struct {
	links arena.Links
	val   string
}

func (n *node) Links() *arena.Links { return &n.links }

func TestAttachAfterPanicsOnNonFreestandingElement(t *testing.T) {
	a := arena.New[node]()
	x := a.Insert(node{val: "x"})
	y := a.Insert(node{val: "y"})

	arena.AttachAfter[node, *node](a, x, y)
	require.Panics(t, func() { arena.AttachAfter[node, *node](a, x, y) }, "y is no longer freestanding")
}

func TestAttachAfterThreadsThreeNodes(t *testing.T) {
	a := arena.New[node]()
	x := a.Insert(node{val: "x"})
	y := a.Insert(node{val: "y"})
	z := a.Insert(node{val: "z"})

	arena.AttachAfter[node, *node](a, x, y)
	arena.AttachAfter[node, *node](a, y, z)

	xn, _ := a.Get(x)
	yn, _ := a.Get(y)
	zn, _ := a.Get(z)

	require.Equal(t, y, xn.links.Next)
	require.Equal(t, x, yn.links.Prev)
	require.Equal(t, z, yn.links.Next)
	require.Equal(t, y, zn.links.Prev)
}

func TestAttachBeforeThreadsNode(t *testing.T) {
	a := arena.New[node]()
	before := a.Insert(node{val: "before"})
	x := a.Insert(node{val: "x"})

	arena.AttachBefore[node, *node](a, before, x)

	bn, _ := a.Get(before)
	xn, _ := a.Get(x)
	require.Equal(t, x, bn.links.Prev)
	require.Equal(t, before, xn.links.Next)
}

func TestDetachRemovesNodeFromChainAndRelinksNeighbors(t *testing.T) {
	a := arena.New[node]()
	x := a.Insert(node{val: "x"})
	y := a.Insert(node{val: "y"})
	z := a.Insert(node{val: "z"})
	arena.AttachAfter[node, *node](a, x, y)
	arena.AttachAfter[node, *node](a, y, z)

	arena.Detach[node, *node](a, y)

	xn, _ := a.Get(x)
	yn, _ := a.Get(y)
	zn, _ := a.Get(z)
	require.Equal(t, z, xn.links.Next)
	require.Equal(t, x, zn.links.Prev)
	require.True(t, yn.links.Prev.IsZero())
	require.True(t, yn.links.Next.IsZero())
}

func TestDetachOfFreestandingElementIsNoOp(t *testing.T) {
	a := arena.New[node]()
	x := a.Insert(node{val: "x"})
	require.NotPanics(t, func() { arena.Detach[node, *node](a, x) })
}

func TestConnectPanicsOnSameElement(t *testing.T) {
	a := arena.New[node]()
	x := a.Insert(node{val: "x"})
	require.Panics(t, func() { arena.Connect[node, *node](a, x, x) })
}

func TestConnectPanicsWhenEndpointAlreadyLinked(t *testing.T) {
	a := arena.New[node]()
	x := a.Insert(node{val: "x"})
	y := a.Insert(node{val: "y"})
	z := a.Insert(node{val: "z"})
	arena.AttachAfter[node, *node](a, x, y)

	require.Panics(t, func() { arena.Connect[node, *node](a, x, z) }, "x already has a next neighbor")
}

func TestConnectJoinsTwoFreestandingChains(t *testing.T) {
	a := arena.New[node]()
	x := a.Insert(node{val: "x"})
	y := a.Insert(node{val: "y"})

	arena.Connect[node, *node](a, x, y)

	xn, _ := a.Get(x)
	yn, _ := a.Get(y)
	require.Equal(t, y, xn.links.Next)
	require.Equal(t, x, yn.links.Prev)
}

func TestSplitAfterDetachesTailChain(t *testing.T) {
	a := arena.New[node]()
	x := a.Insert(node{val: "x"})
	y := a.Insert(node{val: "y"})
	arena.AttachAfter[node, *node](a, x, y)

	next, ok := arena.SplitAfter[node, *node](a, x)
	require.True(t, ok)
	require.Equal(t, y, next)

	xn, _ := a.Get(x)
	yn, _ := a.Get(y)
	require.True(t, xn.links.Next.IsZero())
	require.True(t, yn.links.Prev.IsZero())
}

func TestSplitAfterOnTailReturnsFalse(t *testing.T) {
	a := arena.New[node]()
	x := a.Insert(node{val: "x"})
	_, ok := arena.SplitAfter[node, *node](a, x)
	require.False(t, ok)
}

func TestSplitBeforeDetachesHeadChain(t *testing.T) {
	a := arena.New[node]()
	x := a.Insert(node{val: "x"})
	y := a.Insert(node{val: "y"})
	arena.AttachAfter[node, *node](a, x, y)

	prev, ok := arena.SplitBefore[node, *node](a, y)
	require.True(t, ok)
	require.Equal(t, x, prev)

	xn, _ := a.Get(x)
	yn, _ := a.Get(y)
	require.True(t, xn.links.Next.IsZero())
	require.True(t, yn.links.Prev.IsZero())
}
