package rbtree_test

import (
	"math"
	"math/rand"
	"slices"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/redblack/pkg/rbtree"
)

var sampleKeys = []int{5, 3, 8, 1, 4, 7, 9, 2, 6}

func newIntTree(tb testing.TB, keys ...int) *rbtree.Tree[int] {
	tb.Helper()

	tree, err := rbtree.New[int]()
	require.NoError(tb, err)

	for _, key := range keys {
		_, insErr := tree.Insert(key)
		require.NoError(tb, insErr)
		require.NoError(tb, tree.Validate(), "after inserting %d", key)
	}

	return tree
}

func keyOf(tb testing.TB, tree *rbtree.Tree[int], ref rbtree.NodeRef) int {
	tb.Helper()

	key, ok := tree.Key(ref)
	require.True(tb, ok)

	return key
}

func TestEmpty(t *testing.T) {
	t.Parallel()

	tree := newIntTree(t)

	assert.Equal(t, 0, tree.Len())
	require.NoError(t, tree.Validate())

	_, found := tree.Min()
	assert.False(t, found, "Min")

	_, found = tree.Max()
	assert.False(t, found, "Max")

	_, found = tree.Find(10)
	assert.False(t, found, "Find")

	assert.Empty(t, tree.ToSortedSequence(10))
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	tree := newIntTree(t, sampleKeys...)

	assert.Equal(t, 9, tree.Len())
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9}, tree.ToSortedSequence(9))
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9}, tree.ToSortedSequence(100))
}

func TestToSortedSequenceLimit(t *testing.T) {
	t.Parallel()

	tree := newIntTree(t, sampleKeys...)

	assert.Empty(t, tree.ToSortedSequence(0))
	assert.Empty(t, tree.ToSortedSequence(-3))
	assert.Equal(t, []int{1}, tree.ToSortedSequence(1))
	assert.Equal(t, []int{1, 2, 3, 4}, tree.ToSortedSequence(4))
}

func TestMinMax(t *testing.T) {
	t.Parallel()

	tree := newIntTree(t, sampleKeys...)

	minRef, found := tree.Min()
	require.True(t, found)
	assert.Equal(t, 1, keyOf(t, tree, minRef))

	maxRef, found := tree.Max()
	require.True(t, found)
	assert.Equal(t, 9, keyOf(t, tree, maxRef))
}

func TestFind(t *testing.T) {
	t.Parallel()

	tree := newIntTree(t, sampleKeys...)

	for _, key := range sampleKeys {
		ref, found := tree.Find(key)
		require.True(t, found, "Find %d", key)
		assert.Equal(t, key, keyOf(t, tree, ref))
	}

	for _, key := range []int{-1, 0, 10, 100} {
		ref, found := tree.Find(key)
		assert.False(t, found, "Find %d", key)
		assert.True(t, ref.IsZero())
	}
}

func TestInsertReturnsNode(t *testing.T) {
	t.Parallel()

	tree := newIntTree(t)

	ref, err := tree.Insert(42)
	require.NoError(t, err)
	assert.False(t, ref.IsZero())
	assert.Equal(t, 42, keyOf(t, tree, ref))

	found, ok := tree.Find(42)
	require.True(t, ok)
	assert.Equal(t, ref, found)
}

func TestDuplicateKeys(t *testing.T) {
	t.Parallel()

	tree := newIntTree(t, 5, 5, 3, 5, 8)

	assert.Equal(t, 5, tree.Len())
	assert.Equal(t, []int{3, 5, 5, 5, 8}, tree.ToSortedSequence(10))

	for range 3 {
		ref, found := tree.Find(5)
		require.True(t, found)
		require.NoError(t, tree.Erase(ref))
		require.NoError(t, tree.Validate())
	}

	_, found := tree.Find(5)
	assert.False(t, found)
	assert.Equal(t, []int{3, 8}, tree.ToSortedSequence(10))
}

func TestEraseAll(t *testing.T) {
	t.Parallel()

	orders := [][]int{
		{5, 3, 8, 1, 4, 7, 9, 2, 6},
		{1, 2, 3, 4, 5, 6, 7, 8, 9},
		{9, 8, 7, 6, 5, 4, 3, 2, 1},
		{4, 6, 2, 8, 5, 1, 9, 3, 7},
	}

	for _, order := range orders {
		tree := newIntTree(t, sampleKeys...)
		live := slices.Clone(sampleKeys)

		for _, key := range order {
			ref, found := tree.Find(key)
			require.True(t, found, "Find %d", key)
			require.NoError(t, tree.Erase(ref))
			require.NoError(t, tree.Validate(), "after erasing %d", key)

			live = slices.DeleteFunc(live, func(k int) bool { return k == key })
			slices.Sort(live)
			assert.Equal(t, live, tree.ToSortedSequence(len(sampleKeys)))
		}

		assert.Equal(t, 0, tree.Len())

		_, found := tree.Min()
		assert.False(t, found)
	}
}

func TestEraseInvalidReference(t *testing.T) {
	t.Parallel()

	tree := newIntTree(t, 1, 2, 3)

	require.ErrorIs(t, tree.Erase(rbtree.NodeRef{}), rbtree.ErrInvalidReference)

	ref, found := tree.Find(2)
	require.True(t, found)
	require.NoError(t, tree.Erase(ref))

	// The handle is stale now, even once its slot is reused.
	require.ErrorIs(t, tree.Erase(ref), rbtree.ErrInvalidReference)

	_, err := tree.Insert(7)
	require.NoError(t, err)
	require.ErrorIs(t, tree.Erase(ref), rbtree.ErrInvalidReference)

	_, ok := tree.Key(ref)
	assert.False(t, ok)
	assert.Equal(t, []int{1, 3, 7}, tree.ToSortedSequence(5))
}

func TestNewOptions(t *testing.T) {
	t.Parallel()

	_, err := rbtree.New[int](rbtree.WithCapacity(-1))
	require.ErrorIs(t, err, rbtree.ErrAllocation)

	_, err = rbtree.New[int](rbtree.WithMaxNodes(-1))
	require.ErrorIs(t, err, rbtree.ErrAllocation)

	// Only 64-bit ints can exceed the uint32 arena.
	if strconv.IntSize == 64 {
		_, err = rbtree.New[int](rbtree.WithMaxNodes(math.MaxInt))
		require.ErrorIs(t, err, rbtree.ErrAllocation)
	}

	tree, err := rbtree.New[string](rbtree.WithCapacity(16), rbtree.WithMaxNodes(2))
	require.NoError(t, err)

	_, err = tree.Insert("b")
	require.NoError(t, err)

	ref, err := tree.Insert("a")
	require.NoError(t, err)

	_, err = tree.Insert("c")
	require.ErrorIs(t, err, rbtree.ErrAllocation)
	assert.Equal(t, 2, tree.Len())

	// Erasing frees room again.
	require.NoError(t, tree.Erase(ref))

	_, err = tree.Insert("c")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, tree.ToSortedSequence(2))
}

func TestDestroy(t *testing.T) {
	t.Parallel()

	tree := newIntTree(t, sampleKeys...)

	assert.Equal(t, len(sampleKeys), tree.Destroy())
	assert.PanicsWithValue(t, "rbtree: use of destroyed tree", func() { tree.Len() })
	assert.PanicsWithValue(t, "rbtree: use of destroyed tree", func() { _, _ = tree.Insert(1) })

	empty := newIntTree(t)
	assert.Equal(t, 0, empty.Destroy())
}

func TestDestroyLarge(t *testing.T) {
	t.Parallel()

	tree := newIntTree(t)

	for key := range 10000 {
		_, err := tree.Insert(key)
		require.NoError(t, err)
	}

	assert.Equal(t, 10000, tree.Destroy())

	descending := newIntTree(t)

	for key := 10000; key > 0; key-- {
		_, err := descending.Insert(key)
		require.NoError(t, err)
	}

	assert.Equal(t, 10000, descending.Destroy())
}

func TestDestroyShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		keys   []int
		erase  []int
		expect int
	}{
		{name: "left child only", keys: []int{2, 1}, expect: 2},
		{name: "right child only", keys: []int{1, 2}, expect: 2},
		{name: "descending triple", keys: []int{3, 2, 1}, expect: 3},
		{name: "right child erased", keys: []int{2, 1, 3}, erase: []int{3}, expect: 2},
		{name: "left child erased", keys: []int{2, 1, 3}, erase: []int{1}, expect: 2},
		{name: "left spine", keys: []int{8, 4, 12, 2, 6, 1}, erase: []int{6, 12}, expect: 4},
		{name: "duplicates", keys: []int{5, 5, 5, 5}, expect: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tree := newIntTree(t, tt.keys...)

			for _, key := range tt.erase {
				ref, found := tree.Find(key)
				require.True(t, found)
				require.NoError(t, tree.Erase(ref))
				require.NoError(t, tree.Validate())
			}

			require.Equal(t, tt.expect, tree.Len())
			assert.Equal(t, tt.expect, tree.Destroy())
		})
	}
}

func TestStatsAccumulate(t *testing.T) {
	t.Parallel()

	tree := newIntTree(t)
	before := tree.Stats()

	for key := range 64 {
		_, err := tree.Insert(key)
		require.NoError(t, err)
	}

	delta := tree.Stats().Sub(before)

	// Ascending inserts only ever meet red uncles or outer grandchildren.
	assert.Positive(t, delta.InsertUncleRed)
	assert.Positive(t, delta.InsertOuter)
	assert.Zero(t, delta.InsertInner)
	assert.Equal(t, delta.InsertOuter, delta.Rotations)
	assert.Len(t, delta.Cases(), 7)
}

// Randomized tests.

// oracle keeps the live keys of a multiset in a sorted slice.
type oracle struct {
	data []int
}

func newOracle() *oracle {
	return &oracle{data: []int{}}
}

func (o *oracle) insert(key int) {
	idx, _ := slices.BinarySearch(o.data, key)
	o.data = slices.Insert(o.data, idx, key)
}

func (o *oracle) erase(key int) bool {
	idx, found := slices.BinarySearch(o.data, key)
	if !found {
		return false
	}

	o.data = slices.Delete(o.data, idx, idx+1)

	return true
}

func (o *oracle) contains(key int) bool {
	_, found := slices.BinarySearch(o.data, key)

	return found
}

func TestRandomized(t *testing.T) {
	t.Parallel()

	const numKeys = 300

	orc := newOracle()
	tree := newIntTree(t)
	rng := rand.New(rand.NewSource(0))

	for step := range 5000 {
		key := rng.Intn(numKeys)

		switch op := rng.Intn(100); {
		case op < 50:
			orc.insert(key)

			_, err := tree.Insert(key)
			require.NoError(t, err)
		case op < 85:
			ref, found := tree.Find(key)
			require.Equal(t, orc.erase(key), found, "step %d erase %d", step, key)

			if found {
				require.NoError(t, tree.Erase(ref))
			}
		default:
			_, found := tree.Find(key)
			require.Equal(t, orc.contains(key), found, "step %d find %d", step, key)
		}

		require.NoError(t, tree.Validate(), "step %d", step)
		require.Equal(t, len(orc.data), tree.Len())

		if step%50 == 0 {
			require.Equal(t, orc.data, tree.ToSortedSequence(len(orc.data)))
		}
	}

	require.Equal(t, orc.data, tree.ToSortedSequence(len(orc.data)+1))
	require.Equal(t, len(orc.data), tree.Destroy())
}

func FuzzTree(f *testing.F) {
	f.Add([]byte{5, 3, 8, 1, 4, 7, 9, 2, 6})
	f.Add([]byte{1, 129, 2, 130, 3, 131})

	f.Fuzz(func(t *testing.T, ops []byte) {
		orc := newOracle()
		tree := newIntTree(t)

		// The high bit selects erase, the rest is the key.
		for _, op := range ops {
			key := int(op & 0x7f)

			if op&0x80 == 0 {
				orc.insert(key)

				_, err := tree.Insert(key)
				require.NoError(t, err)
			} else if ref, found := tree.Find(key); found {
				require.True(t, orc.erase(key))
				require.NoError(t, tree.Erase(ref))
			}

			require.NoError(t, tree.Validate())
		}

		require.Equal(t, orc.data, tree.ToSortedSequence(len(ops)))
		require.Equal(t, len(orc.data), tree.Destroy())
	})
}
