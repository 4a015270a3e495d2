package coordinator

import "sync"

// holdRegistry активные удержания, ключ — idSlot
// Карта защищена собственным мьютексом; поля записей (cancelled) меняются
// только под блокировкой соответствующего слота
type holdRegistry struct {
	mu      sync.Mutex
	entries map[int64]*activeHold
}

func (r *holdRegistry) init() {
	r.entries = make(map[int64]*activeHold)
}

func (c *Coordinator) lookupHold(idSlot int64) *activeHold {
	c.holds.mu.Lock()
	defer c.holds.mu.Unlock()
	return c.holds.entries[idSlot]
}

func (c *Coordinator) registerHold(entry *activeHold) {
	c.holds.mu.Lock()
	defer c.holds.mu.Unlock()
	c.holds.entries[entry.hold.IDSlot] = entry
}

func (c *Coordinator) removeHold(idSlot int64) {
	c.holds.mu.Lock()
	defer c.holds.mu.Unlock()
	delete(c.holds.entries, idSlot)
}
