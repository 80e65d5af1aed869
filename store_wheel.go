package chronographer

import "time"

// WheelStore buckets pending entries into a ring of time slots (a
// timing wheel) instead of a comparison-based heap: Push places an entry
// into the slot its due time falls into, and Pop advances the wheel to
// the earliest non-empty slot. This trades the heap's O(log n) push for
// O(1) push; within one slot the entry with the earliest DueAt is
// returned first.
//
// An entry's slot is its whole ticks since epoch modulo the slot count,
// and slots are searched by their distance ahead of the cursor (the slot
// of the last Pop). No revolution count is kept: entries due one or more
// full revolutions apart share a slot, and across slots the order follows
// slot distance from the cursor, not due time.
type WheelStore struct {
	tickDuration time.Duration
	slots        [][]StoredEntry
	cursor       int
	epoch        time.Time
	byID         map[TaskIdentifier]int // slot index, for Contains/Remove
	count        int
}

// NewWheelStore builds a wheel with the given slot count and tick
// duration. epoch anchors slot 0 to a concrete instant so ticksSince is
// deterministic (and testable with a VirtualClock).
func NewWheelStore(slotCount int, tickDuration time.Duration, epoch time.Time) *WheelStore {
	if slotCount < 1 {
		slotCount = 1
	}
	return &WheelStore{
		tickDuration: tickDuration,
		slots:        make([][]StoredEntry, slotCount),
		epoch:        epoch,
		byID:         make(map[TaskIdentifier]int),
	}
}

func (w *WheelStore) ticksSince(t time.Time) int {
	if w.tickDuration <= 0 {
		return 0
	}
	d := t.Sub(w.epoch)
	if d < 0 {
		return 0
	}
	return int(d / w.tickDuration)
}

func (w *WheelStore) slotFor(t time.Time) int {
	ticks := w.ticksSince(t)
	return ticks % len(w.slots)
}

func (w *WheelStore) Push(entry StoredEntry) {
	id := entry.Task.ID()
	if oldSlot, ok := w.byID[id]; ok {
		w.removeFromSlot(oldSlot, id)
	}
	slot := w.slotFor(entry.DueAt)
	w.slots[slot] = append(w.slots[slot], entry)
	w.byID[id] = slot
	w.count++
}

func (w *WheelStore) removeFromSlot(slot int, id TaskIdentifier) {
	bucket := w.slots[slot]
	for i, e := range bucket {
		if e.Task.ID() == id {
			w.slots[slot] = append(bucket[:i:i], bucket[i+1:]...)
			w.count--
			return
		}
	}
}

// earliest scans the whole ring for the lowest-indexed non-empty slot,
// measured in ticks from the current cursor, and the earliest entry
// within it by DueAt.
func (w *WheelStore) earliest() (slot int, idx int, found bool) {
	n := len(w.slots)
	best := -1
	bestOffset := n + 1
	for s, bucket := range w.slots {
		if len(bucket) == 0 {
			continue
		}
		offset := s - w.cursor
		if offset < 0 {
			offset += n
		}
		if offset < bestOffset {
			bestOffset = offset
			best = s
		}
	}
	if best == -1 {
		return 0, 0, false
	}
	bestIdx := 0
	for i, e := range w.slots[best] {
		if e.DueAt.Before(w.slots[best][bestIdx].DueAt) {
			bestIdx = i
			_ = e
		}
	}
	return best, bestIdx, true
}

func (w *WheelStore) Peek() (StoredEntry, bool) {
	slot, idx, ok := w.earliest()
	if !ok {
		return StoredEntry{}, false
	}
	return w.slots[slot][idx], true
}

func (w *WheelStore) Pop() (StoredEntry, bool) {
	slot, idx, ok := w.earliest()
	if !ok {
		return StoredEntry{}, false
	}
	bucket := w.slots[slot]
	entry := bucket[idx]
	w.slots[slot] = append(bucket[:idx:idx], bucket[idx+1:]...)
	delete(w.byID, entry.Task.ID())
	w.count--
	w.cursor = slot
	return entry, true
}

func (w *WheelStore) Remove(id TaskIdentifier) bool {
	slot, ok := w.byID[id]
	if !ok {
		return false
	}
	w.removeFromSlot(slot, id)
	delete(w.byID, id)
	return true
}

func (w *WheelStore) Contains(id TaskIdentifier) bool {
	_, ok := w.byID[id]
	return ok
}

func (w *WheelStore) Len() int { return w.count }
