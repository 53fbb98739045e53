package ws

import (
	"context"
	"sync"

	"quizlive/internal/domain"
)

// RoomLiveness marks live game PINs in an external store so other
// instances (or an ops dashboard) can see which rooms exist. Best effort;
// the in-process map is authoritative.
type RoomLiveness interface {
	MarkActive(ctx context.Context, pin string)
	Clear(ctx context.Context, pin string)
}

// Manager tracks game rooms by PIN.
type Manager struct {
	mu       sync.Mutex
	rooms    map[string]*room
	liveness RoomLiveness
}

func NewManager(liveness RoomLiveness) *Manager {
	return &Manager{
		rooms:    make(map[string]*room),
		liveness: liveness,
	}
}

// Create builds a room for the quiz under a fresh collision-checked PIN
// and starts its run loop.
func (m *Manager) Create(ctx context.Context, quiz domain.Quiz) *room {
	m.mu.Lock()
	defer m.mu.Unlock()

	pin := generatePIN()
	for _, taken := m.rooms[pin]; taken; _, taken = m.rooms[pin] {
		pin = generatePIN()
	}

	r := newRoom(pin, quiz)
	r.onClose = m.remove
	m.rooms[pin] = r
	if m.liveness != nil {
		m.liveness.MarkActive(ctx, pin)
	}
	go r.run()
	return r
}

// Get looks up a live room by PIN.
func (m *Manager) Get(pin string) (*room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[pin]
	return r, ok
}

func (m *Manager) remove(pin string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, pin)
	if m.liveness != nil {
		m.liveness.Clear(context.Background(), pin)
	}
}

// Shutdown stops every live room.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	rooms := make([]*room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.Unlock()

	for _, r := range rooms {
		r.stop()
	}
}
