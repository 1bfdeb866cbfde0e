package rbtree

// rotate performs a tree rotation around pivot. dir == left is a left rotation:
// the right child is promoted and pivot becomes its left child.
//
// Left rotation:
//
//	  X              Y
//	A   Y    =>    X   C
//	  B C        A B
//
// Right rotation:
//
//	    Y            X
//	  X   C  =>    A   Y
//	A B              B C
//
//nolint:dupword // ASCII art diagrams contain intentional repeated letters.
func (tree *Tree[K]) rotate(pivot uint32, dir side) {
	st := tree.store

	doAssert(pivot != sentinel)

	promoted := st.childOf(pivot, dir.opposite())
	doAssert(promoted != sentinel)

	// Move the inner subtree.
	inner := st.childOf(promoted, dir)
	st.setChild(pivot, dir.opposite(), inner)
	st.setParent(inner, pivot)

	// Re-link the pivot's former parent.
	grand := st.parentOf(pivot)
	st.setParent(promoted, grand)

	if grand == sentinel {
		tree.root = promoted
	} else {
		st.setChild(grand, st.sideOf(pivot), promoted)
	}

	st.setChild(promoted, dir, pivot)
	st.setParent(pivot, promoted)

	tree.stats.Rotations++
}

func (tree *Tree[K]) rotateLeft(pivot uint32) {
	tree.rotate(pivot, left)
}

func (tree *Tree[K]) rotateRight(pivot uint32) {
	tree.rotate(pivot, right)
}
