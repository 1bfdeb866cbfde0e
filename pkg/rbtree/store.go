package rbtree

import (
	"math"

	"github.com/Sumatoshi-tech/redblack/pkg/safeconv"
)

// sentinel is the arena slot standing for every absent child and for the root's parent.
const sentinel uint32 = 0

// maxIndex bounds the arena; [math.MaxUint32] is never handed out.
const maxIndex = math.MaxUint32 - 1

type color bool

const (
	red   color = false
	black color = true
)

func (c color) String() string {
	if c == black {
		return "black"
	}

	return "red"
}

type side uint8

const (
	left side = iota
	right
)

func (s side) opposite() side {
	return 1 - s
}

type node[K any] struct {
	key    K
	parent uint32
	child  [2]uint32
	gen    uint32
	color  color
	live   bool
}

// store is the arena owning every node of one tree. Slot 0 is the sentinel.
type store[K any] struct {
	nodes    []node[K]
	free     []uint32
	maxNodes int
}

func newStore[K any](capacity, maxNodes int) *store[K] {
	nodes := make([]node[K], 1, capacity+1)
	nodes[sentinel] = node[K]{color: black}

	return &store[K]{nodes: nodes, maxNodes: maxNodes}
}

// used returns the number of live nodes, excluding the sentinel.
func (st *store[K]) used() int {
	return len(st.nodes) - 1 - len(st.free)
}

// alloc returns a fresh red node slot, or false when the store is exhausted.
func (st *store[K]) alloc(key K) (uint32, bool) {
	if st.maxNodes > 0 && st.used() >= st.maxNodes {
		return sentinel, false
	}

	if n := len(st.free); n > 0 {
		idx := st.free[n-1]
		st.free = st.free[:n-1]

		nd := &st.nodes[idx]
		nd.key = key
		nd.color = red
		nd.live = true

		return idx, true
	}

	if uint64(len(st.nodes)) > maxIndex {
		return sentinel, false
	}

	idx := safeconv.MustIntToUint32(len(st.nodes))
	st.nodes = append(st.nodes, node[K]{key: key, color: red, live: true})

	return idx, true
}

// release returns a slot to the free list and invalidates outstanding handles to it.
func (st *store[K]) release(idx uint32) {
	doAssert(idx != sentinel)
	doAssert(st.nodes[idx].live)

	var zero K

	nd := &st.nodes[idx]
	nd.key = zero
	nd.parent, nd.child = sentinel, [2]uint32{}
	nd.color = red
	nd.live = false
	nd.gen++

	st.free = append(st.free, idx)
}

// valid reports whether ref addresses a live slot of this store.
func (st *store[K]) valid(ref NodeRef) bool {
	if ref.index == sentinel || int(ref.index) >= len(st.nodes) {
		return false
	}

	nd := &st.nodes[ref.index]

	return nd.live && nd.gen == ref.gen
}

func (st *store[K]) ref(idx uint32) NodeRef {
	return NodeRef{index: idx, gen: st.nodes[idx].gen}
}

func (st *store[K]) colorOf(idx uint32) color {
	if idx == sentinel {
		return black
	}

	return st.nodes[idx].color
}

func (st *store[K]) isRed(idx uint32) bool {
	return st.colorOf(idx) == red
}

// paint recolors a node. The sentinel only accepts black, as a no-op.
func (st *store[K]) paint(idx uint32, c color) {
	if idx == sentinel {
		doAssert(c == black)

		return
	}

	st.nodes[idx].color = c
}

func (st *store[K]) parentOf(idx uint32) uint32 {
	return st.nodes[idx].parent
}

// setParent links idx to parent. The sentinel's own parent link is never written.
func (st *store[K]) setParent(idx, parent uint32) {
	if idx != sentinel {
		st.nodes[idx].parent = parent
	}
}

func (st *store[K]) childOf(idx uint32, s side) uint32 {
	return st.nodes[idx].child[s]
}

func (st *store[K]) setChild(idx uint32, s side, c uint32) {
	doAssert(idx != sentinel)

	st.nodes[idx].child[s] = c
}

// sideOf reports which child of its parent a non-sentinel node is.
func (st *store[K]) sideOf(idx uint32) side {
	if st.nodes[st.nodes[idx].parent].child[left] == idx {
		return left
	}

	return right
}

// extreme descends from idx to the last node on side s.
func (st *store[K]) extreme(idx uint32, s side) uint32 {
	for st.nodes[idx].child[s] != sentinel {
		idx = st.nodes[idx].child[s]
	}

	return idx
}
