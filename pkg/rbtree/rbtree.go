// Package rbtree provides an arena-backed red-black tree over ordered scalar keys.
package rbtree

import (
	"cmp"
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrAllocation is returned when the node store cannot be created or grown.
	ErrAllocation = errors.New("node allocation failed")

	// ErrInvalidReference is returned when Erase receives an absent or released node.
	ErrInvalidReference = errors.New("invalid node reference")
)

// NodeRef is a handle to a node owned by a Tree. The zero value refers to no node.
//
// A NodeRef stays valid until the node is erased or the tree is destroyed.
type NodeRef struct {
	index uint32
	gen   uint32
}

// IsZero reports whether the handle refers to no node.
func (ref NodeRef) IsZero() bool {
	return ref.index == sentinel
}

// Option configures a Tree at construction time.
type Option func(*options)

type options struct {
	capacity int
	maxNodes int
}

// WithCapacity preallocates room for n nodes.
func WithCapacity(n int) Option {
	return func(opts *options) {
		opts.capacity = n
	}
}

// WithMaxNodes bounds the number of live nodes. Zero means unbounded.
func WithMaxNodes(n int) Option {
	return func(opts *options) {
		opts.maxNodes = n
	}
}

// Tree is a red-black tree. Equal keys are kept as distinct nodes.
//
// Tree is not safe for concurrent use; callers serialize mutations.
type Tree[K cmp.Ordered] struct {
	store *store[K]
	root  uint32
	count int
	stats Stats
}

// New creates an empty tree.
func New[K cmp.Ordered](opts ...Option) (*Tree[K], error) {
	cfg := options{}

	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.capacity < 0 || uint64(cfg.capacity) > maxIndex {
		return nil, fmt.Errorf("%w: capacity %d", ErrAllocation, cfg.capacity)
	}

	if cfg.maxNodes < 0 || uint64(cfg.maxNodes) > maxIndex {
		return nil, fmt.Errorf("%w: max nodes %d", ErrAllocation, cfg.maxNodes)
	}

	return &Tree[K]{store: newStore[K](cfg.capacity, cfg.maxNodes), root: sentinel}, nil
}

// Len returns the number of nodes in the tree.
func (tree *Tree[K]) Len() int {
	tree.mustLive()

	return tree.count
}

// Stats returns the fixup and rotation counters accumulated since creation.
func (tree *Tree[K]) Stats() Stats {
	return tree.stats
}

// Key returns the key stored at ref.
func (tree *Tree[K]) Key(ref NodeRef) (K, bool) {
	tree.mustLive()

	if !tree.store.valid(ref) {
		var zero K

		return zero, false
	}

	return tree.store.nodes[ref.index].key, true
}

// Find returns the first node equal to key met on the descent from the root.
func (tree *Tree[K]) Find(key K) (NodeRef, bool) {
	tree.mustLive()

	nodes := tree.store.nodes
	idx := tree.root

	for idx != sentinel {
		switch nd := &nodes[idx]; {
		case key < nd.key:
			idx = nd.child[left]
		case key > nd.key:
			idx = nd.child[right]
		default:
			return tree.store.ref(idx), true
		}
	}

	return NodeRef{}, false
}

// Min returns the node holding the smallest key.
func (tree *Tree[K]) Min() (NodeRef, bool) {
	return tree.edge(left)
}

// Max returns the node holding the largest key.
func (tree *Tree[K]) Max() (NodeRef, bool) {
	return tree.edge(right)
}

func (tree *Tree[K]) edge(s side) (NodeRef, bool) {
	tree.mustLive()

	if tree.root == sentinel {
		return NodeRef{}, false
	}

	return tree.store.ref(tree.store.extreme(tree.root, s)), true
}

// ToSortedSequence returns up to limit keys in ascending order.
// The result has min(Len(), limit) elements.
func (tree *Tree[K]) ToSortedSequence(limit int) []K {
	tree.mustLive()

	if limit <= 0 {
		return []K{}
	}

	keys := make([]K, 0, min(limit, tree.count))
	nodes := tree.store.nodes
	stack := make([]uint32, 0, stackHint(tree.count))
	idx := tree.root

	for len(keys) < limit && (idx != sentinel || len(stack) > 0) {
		for idx != sentinel {
			stack = append(stack, idx)
			idx = nodes[idx].child[left]
		}

		idx = stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		keys = append(keys, nodes[idx].key)
		idx = nodes[idx].child[right]
	}

	return keys
}

// Destroy releases every node and the sentinel. It returns the number of nodes released.
// The tree must not be used afterwards.
func (tree *Tree[K]) Destroy() int {
	tree.mustLive()

	st := tree.store
	released := 0

	// Post-order over the parent links: descend to a leaf, unlink it, release it, climb.
	idx := tree.root

	for idx != sentinel {
		if lc := st.childOf(idx, left); lc != sentinel {
			idx = lc

			continue
		}

		if rc := st.childOf(idx, right); rc != sentinel {
			idx = rc

			continue
		}

		parent := st.parentOf(idx)
		if parent != sentinel {
			st.setChild(parent, st.sideOf(idx), sentinel)
		}

		st.release(idx)

		released++
		idx = parent
	}

	doAssert(released == tree.count)

	tree.store = nil
	tree.root = sentinel
	tree.count = 0

	return released
}

func (tree *Tree[K]) mustLive() {
	if tree.store == nil {
		panic("rbtree: use of destroyed tree")
	}
}

// stackHint sizes traversal stacks: a red-black tree of n nodes is at most 2*log2(n+1) deep.
func stackHint(count int) int {
	depth := 0

	for n := count + 1; n > 1; n >>= 1 {
		depth++
	}

	return 2*depth + 1
}

func doAssert(condition bool) {
	if !condition {
		panic("rbtree internal assertion failed")
	}
}
