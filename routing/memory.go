package routing

import (
	"slices"
	"sync"
)

// MemoryInterfaceTable is an InterfaceTable backed by a fixed list.
type MemoryInterfaceTable struct {
	ifaces map[string]*Interface
}

func NewMemoryInterfaceTable(names ...string) *MemoryInterfaceTable {
	t := &MemoryInterfaceTable{ifaces: make(map[string]*Interface, len(names))}
	for idx, name := range names {
		t.ifaces[name] = &Interface{Name: name, Index: idx + 1}
	}
	return t
}

func (t *MemoryInterfaceTable) GetInterfaceByName(name string) (*Interface, bool) {
	iface, ok := t.ifaces[name]
	return iface, ok
}

// MemoryTable collects routes without touching the system.
type MemoryTable struct {
	mutex  sync.Mutex
	routes []*Entry
}

func (t *MemoryTable) AddRoute(e *Entry) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.routes = append(t.routes, e)
	return nil
}

func (t *MemoryTable) Routes() []*Entry {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return slices.Clone(t.routes)
}
