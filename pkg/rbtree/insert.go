package rbtree

import "fmt"

// insertCase names the shape met by one insert-fixup iteration.
type insertCase uint8

const (
	// Parent is black: nothing to repair.
	insertDone insertCase = iota
	// Uncle red: recolor and move the violation two levels up.
	insertUncleRed
	// Uncle black, node on the inner side of its grandparent: straighten the path.
	insertInner
	// Uncle black, node on the outer side: recolor and rotate the grandparent.
	insertOuter
)

func (ic insertCase) String() string {
	switch ic {
	case insertDone:
		return "insert_done"
	case insertUncleRed:
		return "insert_uncle_red"
	case insertInner:
		return "insert_inner"
	case insertOuter:
		return "insert_outer"
	default:
		return fmt.Sprintf("insert_case(%d)", uint8(ic))
	}
}

// Insert adds key to the tree and returns its node. Duplicate keys are kept;
// they land in the right subtree of their equals.
func (tree *Tree[K]) Insert(key K) (NodeRef, error) {
	tree.mustLive()

	st := tree.store

	parent := sentinel
	dir := left

	for cursor := tree.root; cursor != sentinel; {
		parent = cursor

		if key < st.nodes[cursor].key {
			dir = left
		} else {
			dir = right
		}

		cursor = st.nodes[cursor].child[dir]
	}

	nodeIdx, ok := st.alloc(key)
	if !ok {
		return NodeRef{}, fmt.Errorf("%w: store holds %d nodes", ErrAllocation, st.used())
	}

	st.setParent(nodeIdx, parent)

	if parent == sentinel {
		tree.root = nodeIdx
	} else {
		st.setChild(parent, dir, nodeIdx)
	}

	tree.count++

	if parent == sentinel {
		st.paint(nodeIdx, black)
	} else {
		tree.insertFixup(nodeIdx)
	}

	return st.ref(nodeIdx), nil
}

func (tree *Tree[K]) classifyInsert(nodeIdx uint32) insertCase {
	st := tree.store
	parent := st.parentOf(nodeIdx)

	if !st.isRed(parent) {
		return insertDone
	}

	// A red parent is never the root, so the grandparent is real.
	parentSide := st.sideOf(parent)
	uncle := st.childOf(st.parentOf(parent), parentSide.opposite())

	switch {
	case st.isRed(uncle):
		return insertUncleRed
	case st.sideOf(nodeIdx) != parentSide:
		return insertInner
	default:
		return insertOuter
	}
}

func (tree *Tree[K]) insertFixup(nodeIdx uint32) {
	st := tree.store

	for {
		fixCase := tree.classifyInsert(nodeIdx)
		if fixCase == insertDone {
			break
		}

		parent := st.parentOf(nodeIdx)
		grand := st.parentOf(parent)
		parentSide := st.sideOf(parent)

		switch fixCase {
		case insertUncleRed:
			tree.stats.InsertUncleRed++

			st.paint(parent, black)
			st.paint(st.childOf(grand, parentSide.opposite()), black)
			st.paint(grand, red)

			nodeIdx = grand
		case insertInner:
			tree.stats.InsertInner++

			// The old parent becomes the outer grandchild; the next round is insertOuter.
			tree.rotate(parent, parentSide)

			nodeIdx = parent
		case insertOuter:
			tree.stats.InsertOuter++

			st.paint(parent, black)
			st.paint(grand, red)
			tree.rotate(grand, parentSide.opposite())
		default:
			doAssert(false)
		}
	}

	st.paint(tree.root, black)
}
