package workload

import "slices"

// oracle is a sorted multiset the tree is checked against.
type oracle struct {
	keys []uint32
}

func newOracle() *oracle {
	return &oracle{keys: []uint32{}}
}

func (o *oracle) insert(key uint32) {
	idx, _ := slices.BinarySearch(o.keys, key)
	o.keys = slices.Insert(o.keys, idx, key)
}

// erase removes one occurrence of key and reports whether there was one.
func (o *oracle) erase(key uint32) bool {
	idx, found := slices.BinarySearch(o.keys, key)
	if !found {
		return false
	}

	o.keys = slices.Delete(o.keys, idx, idx+1)

	return true
}

func (o *oracle) contains(key uint32) bool {
	_, found := slices.BinarySearch(o.keys, key)

	return found
}

func (o *oracle) len() int {
	return len(o.keys)
}
