// Package history is a bounded undo/redo log of fog map snapshots.
package history

import (
	"github.com/paulmach/orb"
	"github.com/rotblauer/catfog/fog"
	"github.com/rotblauer/catfog/params"
)

// Entry is one snapshot and the region that changed to produce it.
type Entry struct {
	Map    *fog.Map
	Region orb.Bound
}

// History is not safe for concurrent use.
type History struct {
	entries []Entry
	pos     int
	max     int
}

// New starts a history holding initial at position 0.
// A size below 1 uses params.MaxHistorySize.
func New(initial *fog.Map, size int) *History {
	if size < 1 {
		size = params.MaxHistorySize
	}
	return &History{
		entries: []Entry{{Map: initial}},
		max:     size,
	}
}

// Append discards any redoable entries and records m as the current entry.
// When the log is full the oldest entry is dropped; either way the new
// entry is current afterwards.
func (h *History) Append(m *fog.Map, region orb.Bound) {
	clear(h.entries[h.pos+1:])
	h.entries = append(h.entries[:h.pos+1], Entry{Map: m, Region: region})
	if len(h.entries) > h.max {
		drop := len(h.entries) - h.max
		clear(h.entries[:drop])
		h.entries = h.entries[drop:]
	}
	h.pos = len(h.entries) - 1
}

// Undo steps back one entry. It returns the map now current and the region
// of the entry left behind, or ok false at the oldest entry.
func (h *History) Undo() (m *fog.Map, region orb.Bound, ok bool) {
	if !h.CanUndo() {
		return h.entries[h.pos].Map, orb.Bound{}, false
	}
	left := h.entries[h.pos]
	h.pos--
	return h.entries[h.pos].Map, left.Region, true
}

// Redo steps forward one entry. It returns the map now current and the
// region of that entry, or ok false at the newest entry.
func (h *History) Redo() (m *fog.Map, region orb.Bound, ok bool) {
	if !h.CanRedo() {
		return h.entries[h.pos].Map, orb.Bound{}, false
	}
	h.pos++
	e := h.entries[h.pos]
	return e.Map, e.Region, true
}

func (h *History) CanUndo() bool {
	return h.pos > 0
}

func (h *History) CanRedo() bool {
	return h.pos < len(h.entries)-1
}

func (h *History) Len() int {
	return len(h.entries)
}

func (h *History) Pos() int {
	return h.pos
}

// Current returns the map at the current position.
func (h *History) Current() *fog.Map {
	return h.entries[h.pos].Map
}
