package rbtree

// Stats counts the rebalancing work performed by a tree.
type Stats struct {
	// Insert-fixup cases: uncle red, inner grandchild, outer grandchild.
	InsertUncleRed uint64 `json:"insert_uncle_red" yaml:"insert_uncle_red"`
	InsertInner    uint64 `json:"insert_inner"     yaml:"insert_inner"`
	InsertOuter    uint64 `json:"insert_outer"     yaml:"insert_outer"`

	// Delete-fixup cases 1-4.
	EraseSiblingRed   uint64 `json:"erase_sibling_red"    yaml:"erase_sibling_red"`
	EraseSiblingBlack uint64 `json:"erase_sibling_black"  yaml:"erase_sibling_black"`
	EraseNearChildRed uint64 `json:"erase_near_child_red" yaml:"erase_near_child_red"`
	EraseFarChildRed  uint64 `json:"erase_far_child_red"  yaml:"erase_far_child_red"`

	Rotations uint64 `json:"rotations" yaml:"rotations"`
}

// Sub returns the counters accumulated between prev and stats.
func (stats Stats) Sub(prev Stats) Stats {
	return Stats{
		InsertUncleRed:    stats.InsertUncleRed - prev.InsertUncleRed,
		InsertInner:       stats.InsertInner - prev.InsertInner,
		InsertOuter:       stats.InsertOuter - prev.InsertOuter,
		EraseSiblingRed:   stats.EraseSiblingRed - prev.EraseSiblingRed,
		EraseSiblingBlack: stats.EraseSiblingBlack - prev.EraseSiblingBlack,
		EraseNearChildRed: stats.EraseNearChildRed - prev.EraseNearChildRed,
		EraseFarChildRed:  stats.EraseFarChildRed - prev.EraseFarChildRed,
		Rotations:         stats.Rotations - prev.Rotations,
	}
}

// Cases returns the fixup counters keyed by case name.
func (stats Stats) Cases() map[string]uint64 {
	return map[string]uint64{
		insertUncleRed.String():    stats.InsertUncleRed,
		insertInner.String():       stats.InsertInner,
		insertOuter.String():       stats.InsertOuter,
		eraseSiblingRed.String():   stats.EraseSiblingRed,
		eraseSiblingBlack.String(): stats.EraseSiblingBlack,
		eraseNearChildRed.String(): stats.EraseNearChildRed,
		eraseFarChildRed.String():  stats.EraseFarChildRed,
	}
}
