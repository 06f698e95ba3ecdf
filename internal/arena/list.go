package arena

import "fmt"

// Links is the intrusive doubly-linked-list thread embedded in an arena
// element. No node owns another: ownership lives with the arena, and Links
// only records neighbor handles within the arena's own key space.
type Links struct {
	Prev Key
	Next Key
}

// Listed is satisfied by *T for any element type T that exposes its own
// Links, letting a single set of list primitives work over any arena
// regardless of what it stores (basic blocks, instructions, ...).
type Listed[T any] interface {
	*T
	Links() *Links
}

func linksOf[T any, PT Listed[T]](a *Arena[T], k Key) *Links {
	return PT(a.MustGet(k)).Links()
}

// AttachAfter attaches the freestanding element x immediately after after.
// Panics if x is not freestanding.
func AttachAfter[T any, PT Listed[T]](a *Arena[T], after, x Key) {
	xl := linksOf[T, PT](a, x)
	if !xl.Prev.IsZero() || !xl.Next.IsZero() {
		panic(fmt.Sprintf("arena: attach_after requires a freestanding element, got %s", x))
	}
	afterL := linksOf[T, PT](a, after)
	next := afterL.Next
	afterL.Next = x
	xl.Prev = after
	xl.Next = next
	if !next.IsZero() {
		linksOf[T, PT](a, next).Prev = x
	}
}

// AttachBefore attaches the freestanding element x immediately before
// before. Panics if x is not freestanding.
func AttachBefore[T any, PT Listed[T]](a *Arena[T], before, x Key) {
	xl := linksOf[T, PT](a, x)
	if !xl.Prev.IsZero() || !xl.Next.IsZero() {
		panic(fmt.Sprintf("arena: attach_before requires a freestanding element, got %s", x))
	}
	beforeL := linksOf[T, PT](a, before)
	prev := beforeL.Prev
	beforeL.Prev = x
	xl.Next = before
	xl.Prev = prev
	if !prev.IsZero() {
		linksOf[T, PT](a, prev).Next = x
	}
}

// Detach removes x from whatever list it is threaded into, leaving it
// freestanding. Detaching an already-freestanding element is a no-op
// (Prev and Next stay zero).
func Detach[T any, PT Listed[T]](a *Arena[T], x Key) {
	xl := linksOf[T, PT](a, x)
	prev, next := xl.Prev, xl.Next
	if !prev.IsZero() {
		linksOf[T, PT](a, prev).Next = next
	}
	if !next.IsZero() {
		linksOf[T, PT](a, next).Prev = prev
	}
	xl.Prev = Key{}
	xl.Next = Key{}
}

// Connect joins two freestanding chains: tail's Next becomes head, head's
// Prev becomes tail. Panics if tail == head, or if either endpoint already
// has the corresponding neighbor populated.
func Connect[T any, PT Listed[T]](a *Arena[T], tail, head Key) {
	if tail == head {
		panic("arena: connect requires two distinct elements")
	}
	tailL := linksOf[T, PT](a, tail)
	headL := linksOf[T, PT](a, head)
	if !tailL.Next.IsZero() {
		panic(fmt.Sprintf("arena: connect: %s already has a next neighbor", tail))
	}
	if !headL.Prev.IsZero() {
		panic(fmt.Sprintf("arena: connect: %s already has a prev neighbor", head))
	}
	tailL.Next = head
	headL.Prev = tail
}

// SplitAfter detaches the chain starting at x's successor from x, returning
// that former successor (now a freestanding chain head) if one existed.
func SplitAfter[T any, PT Listed[T]](a *Arena[T], x Key) (Key, bool) {
	xl := linksOf[T, PT](a, x)
	next := xl.Next
	if next.IsZero() {
		return Key{}, false
	}
	xl.Next = Key{}
	linksOf[T, PT](a, next).Prev = Key{}
	return next, true
}

// SplitBefore detaches the chain ending at x's predecessor from x, returning
// that former predecessor (now a freestanding chain tail) if one existed.
func SplitBefore[T any, PT Listed[T]](a *Arena[T], x Key) (Key, bool) {
	xl := linksOf[T, PT](a, x)
	prev := xl.Prev
	if prev.IsZero() {
		return Key{}, false
	}
	xl.Prev = Key{}
	linksOf[T, PT](a, prev).Next = Key{}
	return prev, true
}
