// SPDX-License-Identifier: MIT

package capture

import (
	"sort"

	"github.com/katalvlaran/asnet/sketch"
)

// Table maps layer ids to their sketches. Entries are added on first sight
// of a layer and never removed.
type Table struct {
	sketches map[int]*sketch.FrequentDirections
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{sketches: make(map[int]*sketch.FrequentDirections)}
}

// Put stores fd under layer, keeping an existing entry. It reports whether fd was stored.
func (t *Table) Put(layer int, fd *sketch.FrequentDirections) bool {
	if _, ok := t.sketches[layer]; ok {
		return false
	}
	t.sketches[layer] = fd
	return true
}

// Get returns the sketch of layer.
func (t *Table) Get(layer int) (*sketch.FrequentDirections, bool) {
	fd, ok := t.sketches[layer]
	return fd, ok
}

// Layers returns the layer ids in ascending order.
func (t *Table) Layers() []int {
	ids := make([]int, 0, len(t.sketches))
	for id := range t.sketches {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Len returns the number of sketches.
func (t *Table) Len() int { return len(t.sketches) }
