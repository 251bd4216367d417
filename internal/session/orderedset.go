package session

// orderedSet keeps insertion order with O(1) membership.
type orderedSet struct {
	items []string
	index map[string]struct{}
}

func newOrderedSet() *orderedSet {
	return &orderedSet{index: make(map[string]struct{})}
}

// Add appends s unless present. Reports whether it was added.
func (o *orderedSet) Add(s string) bool {
	if _, ok := o.index[s]; ok {
		return false
	}
	o.index[s] = struct{}{}
	o.items = append(o.items, s)
	return true
}

func (o *orderedSet) Has(s string) bool {
	_, ok := o.index[s]
	return ok
}

// Remove deletes s. Reports whether it was present.
func (o *orderedSet) Remove(s string) bool {
	if !o.Has(s) {
		return false
	}
	delete(o.index, s)
	for i, item := range o.items {
		if item == s {
			o.items = append(o.items[:i], o.items[i+1:]...)
			break
		}
	}
	return true
}

// RemoveIf deletes every element matching drop, keeping order.
func (o *orderedSet) RemoveIf(drop func(string) bool) {
	kept := o.items[:0]
	for _, item := range o.items {
		if drop(item) {
			delete(o.index, item)
			continue
		}
		kept = append(kept, item)
	}
	o.items = kept
}

// PopFront removes and returns the first element.
func (o *orderedSet) PopFront() (string, bool) {
	if len(o.items) == 0 {
		return "", false
	}
	first := o.items[0]
	o.items = o.items[1:]
	delete(o.index, first)
	return first, true
}

// Truncate keeps the first n elements and returns the rest.
func (o *orderedSet) Truncate(n int) []string {
	if len(o.items) <= n {
		return nil
	}
	spill := append([]string(nil), o.items[n:]...)
	for _, s := range spill {
		delete(o.index, s)
	}
	o.items = o.items[:n]
	return spill
}

func (o *orderedSet) Len() int {
	return len(o.items)
}

// Items returns a copy of the elements in order.
func (o *orderedSet) Items() []string {
	return append([]string{}, o.items...)
}
