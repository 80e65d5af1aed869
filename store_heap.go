package chronographer

import "container/heap"

// HeapStore orders pending entries by due time (ties broken by task
// priority, highest first) using container/heap, with an id-to-index map
// so Remove and re-Push of an already-pending task stay O(log n) instead
// of requiring a linear scan.
type HeapStore struct {
	items heapItems
	byID  map[TaskIdentifier]*heapItem
}

func NewHeapStore() *HeapStore {
	s := &HeapStore{byID: make(map[TaskIdentifier]*heapItem)}
	heap.Init(&s.items)
	return s
}

type heapItem struct {
	entry StoredEntry
	index int
}

type heapItems []*heapItem

func (h heapItems) Len() int { return len(h) }

func (h heapItems) Less(i, j int) bool {
	if h[i].entry.DueAt.Equal(h[j].entry.DueAt) {
		return h[i].entry.Task.Priority() > h[j].entry.Task.Priority()
	}
	return h[i].entry.DueAt.Before(h[j].entry.DueAt)
}

func (h heapItems) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *heapItems) Push(x any) {
	item := x.(*heapItem)
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *heapItems) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

func (s *HeapStore) Push(entry StoredEntry) {
	id := entry.Task.ID()
	if item, ok := s.byID[id]; ok {
		item.entry = entry
		heap.Fix(&s.items, item.index)
		return
	}
	item := &heapItem{entry: entry}
	heap.Push(&s.items, item)
	s.byID[id] = item
}

func (s *HeapStore) Peek() (StoredEntry, bool) {
	if s.items.Len() == 0 {
		return StoredEntry{}, false
	}
	return s.items[0].entry, true
}

func (s *HeapStore) Pop() (StoredEntry, bool) {
	if s.items.Len() == 0 {
		return StoredEntry{}, false
	}
	item := heap.Pop(&s.items).(*heapItem)
	delete(s.byID, item.entry.Task.ID())
	return item.entry, true
}

func (s *HeapStore) Remove(id TaskIdentifier) bool {
	item, ok := s.byID[id]
	if !ok {
		return false
	}
	heap.Remove(&s.items, item.index)
	delete(s.byID, id)
	return true
}

func (s *HeapStore) Contains(id TaskIdentifier) bool {
	_, ok := s.byID[id]
	return ok
}

func (s *HeapStore) Len() int { return s.items.Len() }
