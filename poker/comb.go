package poker

import "iter"

// Combinations lazily produces k-subsets of a source slice. Elements inside a
// subset keep source order and subsets come out in lexicographic index order.
// The cursor stack makes it resumable at any point; Reset starts over.
//
//	c := NewCombinations(cards, 5)
//	for c.Next() {
//		use(c.Value())
//	}
type Combinations[T any] struct {
	src     []T
	k       int
	repeat  bool
	cursors []int
	value   []T
	started bool
	done    bool
}

// NewCombinations enumerates subsets of size k without repetition.
func NewCombinations[T any](src []T, k int) *Combinations[T] {
	return newCombinations(src, k, false)
}

// NewCombinationsWithReplacement enumerates multisets of size k.
func NewCombinationsWithReplacement[T any](src []T, k int) *Combinations[T] {
	return newCombinations(src, k, true)
}

func newCombinations[T any](src []T, k int, repeat bool) *Combinations[T] {
	if k < 0 {
		k = 0
	}
	return &Combinations[T]{
		src:     src,
		k:       k,
		repeat:  repeat,
		cursors: make([]int, k),
		value:   make([]T, k),
	}
}

// Reset rewinds the generator to the first subset.
func (c *Combinations[T]) Reset() {
	c.started = false
	c.done = false
}

// Next advances to the next subset and reports whether there is one.
func (c *Combinations[T]) Next() bool {
	if c.done {
		return false
	}
	if !c.started {
		c.started = true
		return c.first()
	}
	if !c.advance() {
		c.done = true
		return false
	}
	return true
}

// Value returns the current subset. The slice is reused by Next.
func (c *Combinations[T]) Value() []T {
	return c.value
}

// Indices returns the source positions of the current subset. The slice is
// reused by Next.
func (c *Combinations[T]) Indices() []int {
	return c.cursors
}

func (c *Combinations[T]) first() bool {
	n := len(c.src)
	if c.k == 0 {
		return true
	}
	if n == 0 || (!c.repeat && c.k > n) {
		c.done = true
		return false
	}
	for i := range c.cursors {
		if c.repeat {
			c.cursors[i] = 0
		} else {
			c.cursors[i] = i
		}
		c.value[i] = c.src[c.cursors[i]]
	}
	return true
}

// advance pops cursors that can no longer move, bumps the deepest movable
// one, then pushes fresh cursors after it.
func (c *Combinations[T]) advance() bool {
	n := len(c.src)
	depth := c.k - 1
	for depth >= 0 {
		limit := n - 1
		if !c.repeat {
			limit = n - c.k + depth
		}
		if c.cursors[depth] < limit {
			break
		}
		depth--
	}
	if depth < 0 {
		return false
	}
	c.cursors[depth]++
	c.value[depth] = c.src[c.cursors[depth]]
	for i := depth + 1; i < c.k; i++ {
		if c.repeat {
			c.cursors[i] = c.cursors[i-1]
		} else {
			c.cursors[i] = c.cursors[i-1] + 1
		}
		c.value[i] = c.src[c.cursors[i]]
	}
	return true
}

// All adapts the generator to a range-over-func iterator, resetting first.
func (c *Combinations[T]) All() iter.Seq[[]T] {
	return func(yield func([]T) bool) {
		c.Reset()
		for c.Next() {
			if !yield(c.value) {
				return
			}
		}
	}
}

// Subsets is shorthand for NewCombinations(src, k).All().
func Subsets[T any](src []T, k int) iter.Seq[[]T] {
	return NewCombinations(src, k).All()
}
