package ws

import (
	"sync"

	"github.com/cwrk-planet/chatcord/internal/domain"
)

// Registry — identity id -> активное соединение. Одна сессия на пользователя:
// новый handshake вытесняет старый.
type Registry struct {
	mu    sync.RWMutex
	conns map[int64]*Client
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[int64]*Client)}
}

// Put регистрирует c и возвращает вытесненное соединение (или nil).
func (r *Registry) Put(c *Client) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.conns[c.UserID()]
	r.conns[c.UserID()] = c
	if prev == c {
		return nil
	}
	return prev
}

func (r *Registry) Get(userID int64) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.conns[userID]
	return c, ok
}

func (r *Registry) Remove(userID int64) {
	r.mu.Lock()
	delete(r.conns, userID)
	r.mu.Unlock()
}

// RemoveConn удаляет запись, только если она всё ещё указывает на c:
// teardown вытесненной сессии не должен снести её преемника.
func (r *Registry) RemoveConn(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.conns[c.UserID()]; ok && cur == c {
		delete(r.conns, c.UserID())
		return true
	}
	return false
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Identities резолвит ids в Identity; отсутствующие в реестре пропускаются.
func (r *Registry) Identities(ids []int64) []domain.Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Identity, 0, len(ids))
	for _, id := range ids {
		if c, ok := r.conns[id]; ok {
			out = append(out, c.Identity())
		}
	}
	return out
}

func (r *Registry) Snapshot() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Client, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	return out
}

func (r *Registry) Clear() {
	r.mu.Lock()
	r.conns = make(map[int64]*Client)
	r.mu.Unlock()
}
