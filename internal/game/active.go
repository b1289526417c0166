package game

import "sync"

// ActiveRoom is the process-wide pointer to the promoted room. It has its
// own lock because lifecycle calls read it before taking any room lock.
type ActiveRoom struct {
	mu sync.RWMutex
	id string
}

func NewActiveRoom() *ActiveRoom { return &ActiveRoom{} }

func (a *ActiveRoom) Get() (string, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.id, a.id != ""
}

// Set points at id and returns the previous value.
func (a *ActiveRoom) Set(id string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	prev := a.id
	a.id = id
	return prev
}

// Clear unsets the pointer and returns the previous value.
func (a *ActiveRoom) Clear() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	prev := a.id
	a.id = ""
	return prev
}

// ClearIf unsets the pointer only while it still names room.
func (a *ActiveRoom) ClearIf(room string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.id == "" || a.id != room {
		return false
	}
	a.id = ""
	return true
}

// Resolve prefers the active room and falls back to requested.
func (a *ActiveRoom) Resolve(requested string) string {
	if id, ok := a.Get(); ok {
		return id
	}
	return requested
}

// ResolveExplicit prefers requested and falls back to the active room.
func (a *ActiveRoom) ResolveExplicit(requested string) string {
	if requested != "" {
		return requested
	}
	id, _ := a.Get()
	return id
}
