package rbtree

import "fmt"

// eraseCase names the shape met by one delete-fixup iteration. The node being
// repaired carries an extra black; "near" and "far" are the sibling's children
// on the same and on the opposite side as that node.
type eraseCase uint8

const (
	// The node is the root or red: absorb the extra black.
	eraseDone eraseCase = iota
	// Sibling red: rotate it above the parent to get a black sibling.
	eraseSiblingRed
	// Sibling black with two black children: push the extra black up.
	eraseSiblingBlack
	// Far child black, near child red: rotate the sibling to make the far child red.
	eraseNearChildRed
	// Far child red: rotate the parent and terminate.
	eraseFarChildRed
)

func (ec eraseCase) String() string {
	switch ec {
	case eraseDone:
		return "erase_done"
	case eraseSiblingRed:
		return "erase_sibling_red"
	case eraseSiblingBlack:
		return "erase_sibling_black"
	case eraseNearChildRed:
		return "erase_near_child_red"
	case eraseFarChildRed:
		return "erase_far_child_red"
	default:
		return fmt.Sprintf("erase_case(%d)", uint8(ec))
	}
}

// Erase removes the node referenced by ref.
func (tree *Tree[K]) Erase(ref NodeRef) error {
	tree.mustLive()

	st := tree.store
	if !st.valid(ref) {
		return fmt.Errorf("%w: %d", ErrInvalidReference, ref.index)
	}

	target := ref.index
	vacated := st.colorOf(target)

	var replacement, replacementParent uint32

	switch {
	case st.childOf(target, left) == sentinel:
		replacement = st.childOf(target, right)
		replacementParent = st.parentOf(target)
		tree.transplant(target, replacement)
	case st.childOf(target, right) == sentinel:
		replacement = st.childOf(target, left)
		replacementParent = st.parentOf(target)
		tree.transplant(target, replacement)
	default:
		successor := st.extreme(st.childOf(target, right), left)
		vacated = st.colorOf(successor)
		replacement = st.childOf(successor, right)

		if st.parentOf(successor) == target {
			replacementParent = successor
		} else {
			replacementParent = st.parentOf(successor)
			tree.transplant(successor, replacement)

			st.setChild(successor, right, st.childOf(target, right))
			st.setParent(st.childOf(successor, right), successor)
		}

		tree.transplant(target, successor)

		st.setChild(successor, left, st.childOf(target, left))
		st.setParent(st.childOf(successor, left), successor)
		st.paint(successor, st.colorOf(target))
	}

	if vacated == black {
		tree.eraseFixup(replacement, replacementParent)
	}

	st.release(target)
	tree.count--

	return nil
}

// transplant puts the subtree rooted at sub in old's position.
func (tree *Tree[K]) transplant(old, sub uint32) {
	st := tree.store
	parent := st.parentOf(old)

	if parent == sentinel {
		tree.root = sub
	} else {
		st.setChild(parent, st.sideOf(old), sub)
	}

	st.setParent(sub, parent)
}

// nodeSide reports which child of parent nodeIdx is. nodeIdx may be the sentinel,
// in which case its sibling is known to be real.
func (tree *Tree[K]) nodeSide(nodeIdx, parent uint32) side {
	if tree.store.childOf(parent, left) == nodeIdx {
		return left
	}

	return right
}

func (tree *Tree[K]) classifyErase(nodeIdx, parent uint32) eraseCase {
	st := tree.store

	if nodeIdx == tree.root || st.isRed(nodeIdx) {
		return eraseDone
	}

	dir := tree.nodeSide(nodeIdx, parent)
	sibling := st.childOf(parent, dir.opposite())

	// The missing black on nodeIdx's side implies a real sibling.
	doAssert(sibling != sentinel)

	near := st.childOf(sibling, dir)
	far := st.childOf(sibling, dir.opposite())

	switch {
	case st.isRed(sibling):
		return eraseSiblingRed
	case !st.isRed(near) && !st.isRed(far):
		return eraseSiblingBlack
	case !st.isRed(far):
		return eraseNearChildRed
	default:
		return eraseFarChildRed
	}
}

// eraseFixup restores the black-height after a black node left the position now
// held by nodeIdx. The parent is tracked explicitly because nodeIdx may be the sentinel.
func (tree *Tree[K]) eraseFixup(nodeIdx, parent uint32) {
	st := tree.store

	for {
		fixCase := tree.classifyErase(nodeIdx, parent)
		if fixCase == eraseDone {
			break
		}

		dir := tree.nodeSide(nodeIdx, parent)
		sibling := st.childOf(parent, dir.opposite())

		switch fixCase {
		case eraseSiblingRed:
			tree.stats.EraseSiblingRed++

			st.paint(sibling, black)
			st.paint(parent, red)
			tree.rotate(parent, dir)
		case eraseSiblingBlack:
			tree.stats.EraseSiblingBlack++

			st.paint(sibling, red)

			nodeIdx = parent
			parent = st.parentOf(nodeIdx)
		case eraseNearChildRed:
			tree.stats.EraseNearChildRed++

			st.paint(st.childOf(sibling, dir), black)
			st.paint(sibling, red)
			tree.rotate(sibling, dir.opposite())
		case eraseFarChildRed:
			tree.stats.EraseFarChildRed++

			st.paint(sibling, st.colorOf(parent))
			st.paint(parent, black)
			st.paint(st.childOf(sibling, dir.opposite()), black)
			tree.rotate(parent, dir)

			nodeIdx = tree.root
			parent = sentinel
		default:
			doAssert(false)
		}
	}

	st.paint(nodeIdx, black)
}
