package game

import (
	"sync"

	"github.com/scythe504/speedboard/internal"
)

// Progress keeps the latest reported score per connection per room. Every
// operation is a bounded in-memory update, so one lock covers all rooms.
type Progress struct {
	mu    sync.Mutex
	rooms map[string]map[string]internal.ProgressEntry
}

func NewProgress() *Progress {
	return &Progress{rooms: make(map[string]map[string]internal.ProgressEntry)}
}

// Update overwrites the entry for connID and returns the room's top 3.
func (p *Progress) Update(room string, entry internal.ProgressEntry) []internal.ProgressEntry {
	p.mu.Lock()
	defer p.mu.Unlock()

	entries, ok := p.rooms[room]
	if !ok {
		entries = make(map[string]internal.ProgressEntry)
		p.rooms[room] = entries
	}
	entries[entry.ID] = entry

	return TopN(p.rankedLocked(room), internal.LeaderboardSize)
}

// Ranked returns every entry of room in final ranking order.
func (p *Progress) Ranked(room string) []internal.ProgressEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rankedLocked(room)
}

func (p *Progress) Top(room string) []internal.ProgressEntry {
	return TopN(p.Ranked(room), internal.LeaderboardSize)
}

func (p *Progress) rankedLocked(room string) []internal.ProgressEntry {
	entries := p.rooms[room]
	out := make([]internal.ProgressEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, e)
	}
	return RankEntries(out)
}

func (p *Progress) Clear(room string) {
	p.mu.Lock()
	delete(p.rooms, room)
	p.mu.Unlock()
}

func (p *Progress) RemoveConnection(room, connID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if entries, ok := p.rooms[room]; ok {
		delete(entries, connID)
		if len(entries) == 0 {
			delete(p.rooms, room)
		}
	}
}
