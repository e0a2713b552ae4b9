package parts

import "sync"

// Inventory tracks on-site stock per part name. Stock lives in memory only;
// it is a convenience view for the dashboard, not a system of record.
type Inventory struct {
	mu    sync.RWMutex
	stock map[string]int
}

// NewInventory seeds the stock levels a fresh site starts with.
func NewInventory() *Inventory {
	return &Inventory{stock: map[string]int{
		"Main Bearing (B-54)": 1,
		"Hoist Motor":         2,
		"Hydraulic Filter":    12,
	}}
}

// Stock returns a copy of current levels.
func (i *Inventory) Stock() map[string]int {
	i.mu.RLock()
	defer i.mu.RUnlock()

	out := make(map[string]int, len(i.stock))
	for name, count := range i.stock {
		out[name] = count
	}
	return out
}

// Adjust changes the level of a known part and returns the new count. Unknown
// parts report ok=false and leave stock untouched; requests for parts not yet
// stocked are legal, they just never land inventory.
func (i *Inventory) Adjust(partName string, delta int) (int, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	current, ok := i.stock[partName]
	if !ok {
		return 0, false
	}
	i.stock[partName] = current + delta
	return current + delta, true
}
