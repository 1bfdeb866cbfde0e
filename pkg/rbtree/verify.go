package rbtree

import (
	"errors"
	"fmt"
)

// Invariant violations reported by Validate.
var (
	ErrSentinelMutated = errors.New("sentinel node was mutated")
	ErrRootParent      = errors.New("root parent is not the sentinel")
	ErrRootColor       = errors.New("root is not black")
	ErrRedRed          = errors.New("red node has a red child")
	ErrBlackHeight     = errors.New("unequal black height")
	ErrOrder           = errors.New("keys out of order")
	ErrBrokenLink      = errors.New("child does not point back to its parent")
	ErrCount           = errors.New("node count mismatch")
)

type verifyFrame struct {
	idx     uint32
	visited bool
}

// Validate walks the whole tree and checks the red-black invariants, the
// parent links, the key order, and the node count.
func (tree *Tree[K]) Validate() error {
	tree.mustLive()

	st := tree.store

	var zero K

	guard := st.nodes[sentinel]
	if guard.color != black || guard.key != zero || guard.live {
		return ErrSentinelMutated
	}

	if tree.root == sentinel {
		if tree.count != 0 {
			return fmt.Errorf("%w: empty tree counts %d", ErrCount, tree.count)
		}

		return nil
	}

	if st.parentOf(tree.root) != sentinel {
		return fmt.Errorf("%w: %d", ErrRootParent, st.parentOf(tree.root))
	}

	if st.colorOf(tree.root) != black {
		return ErrRootColor
	}

	heights := make(map[uint32]int, tree.count)
	stack := []verifyFrame{{idx: tree.root}}
	pushed, seen := 1, 0

	// Post-order: children are checked before their parent combines their heights.
	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !frame.visited {
			stack = append(stack, verifyFrame{idx: frame.idx, visited: true})

			for _, s := range [2]side{left, right} {
				if c := st.childOf(frame.idx, s); c != sentinel {
					stack = append(stack, verifyFrame{idx: c})
					pushed++
				}
			}

			if pushed > tree.count {
				return fmt.Errorf("%w: more than %d nodes reachable", ErrCount, tree.count)
			}

			continue
		}

		height, err := tree.checkNode(frame.idx, heights)
		if err != nil {
			return err
		}

		heights[frame.idx] = height
		seen++
	}

	if seen != tree.count {
		return fmt.Errorf("%w: reachable %d, counted %d", ErrCount, seen, tree.count)
	}

	return tree.checkOrder()
}

// checkNode validates one node whose children were already checked and returns its black height.
func (tree *Tree[K]) checkNode(idx uint32, heights map[uint32]int) (int, error) {
	st := tree.store
	nd := &st.nodes[idx]

	if !nd.live {
		return 0, fmt.Errorf("%w: node %d is released", ErrBrokenLink, idx)
	}

	var childHeights [2]int

	for _, s := range [2]side{left, right} {
		c := nd.child[s]
		if c == sentinel {
			continue
		}

		if st.parentOf(c) != idx {
			return 0, fmt.Errorf("%w: node %d, child %d", ErrBrokenLink, idx, c)
		}

		if nd.color == red && st.colorOf(c) == red {
			return 0, fmt.Errorf("%w: node %d, child %d", ErrRedRed, idx, c)
		}

		childHeights[s] = heights[c]
	}

	if childHeights[left] != childHeights[right] {
		return 0, fmt.Errorf("%w: node %d has %d on the left and %d on the right",
			ErrBlackHeight, idx, childHeights[left], childHeights[right])
	}

	height := childHeights[left]
	if nd.color == black {
		height++
	}

	return height, nil
}

// checkOrder verifies the in-order sequence never decreases.
func (tree *Tree[K]) checkOrder() error {
	keys := tree.ToSortedSequence(tree.count)

	for i := 1; i < len(keys); i++ {
		if keys[i] < keys[i-1] {
			return fmt.Errorf("%w: position %d", ErrOrder, i)
		}
	}

	return nil
}
