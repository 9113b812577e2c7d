package ws

import (
	"sort"
	"sync"

	"github.com/cwrk-planet/chatcord/internal/domain"
)

// Presence — live-участники комнат: roomID -> userID -> соединение-владелец.
//
// Порядок блокировок: room.mu, затем Presence.mu (и Registry.mu для чтения).
// Пустая комната удаляется из карты и помечается dead; тот, кто успел
// получить на неё указатель, повторяет попытку со свежей записью.
type Presence struct {
	reg *Registry

	mu    sync.RWMutex
	rooms map[int64]*roomState
}

type roomState struct {
	id      int64
	mu      sync.Mutex
	members map[int64]*Client
	dead    bool
}

func NewPresence(reg *Registry) *Presence {
	return &Presence{reg: reg, rooms: make(map[int64]*roomState)}
}

// RoomView даёт доступ к комнате под её блокировкой.
// Валиден только внутри колбэка WithRoom/ViewRoom/Drop.
type RoomView struct {
	p  *Presence
	rs *roomState
}

func (v *RoomView) ID() int64 { return v.rs.id }

func (v *RoomView) Len() int { return len(v.rs.members) }

// Join добавляет c. added=false, если identity уже была в комнате;
// владельцем записи в любом случае становится c.
func (v *RoomView) Join(c *Client) bool {
	_, present := v.rs.members[c.UserID()]
	v.rs.members[c.UserID()] = c
	return !present
}

// Leave удаляет запись, только если ей владеет c.
func (v *RoomView) Leave(c *Client) bool {
	if cur, ok := v.rs.members[c.UserID()]; ok && cur == c {
		delete(v.rs.members, c.UserID())
		return true
	}
	return false
}

func (v *RoomView) Has(c *Client) bool {
	cur, ok := v.rs.members[c.UserID()]
	return ok && cur == c
}

// Members резолвит участников через Registry в момент чтения, по возрастанию id.
func (v *RoomView) Members() []domain.Identity {
	return v.p.reg.Identities(v.userIDs())
}

// Clients — соединения комнаты кроме except (nil — все).
func (v *RoomView) Clients(except *Client) []*Client {
	ids := v.userIDs()
	out := make([]*Client, 0, len(ids))
	for _, id := range ids {
		if c := v.rs.members[id]; c != except {
			out = append(out, c)
		}
	}
	return out
}

func (v *RoomView) userIDs() []int64 {
	ids := make([]int64, 0, len(v.rs.members))
	for id := range v.rs.members {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// WithRoom выполняет fn под блокировкой комнаты, создавая запись при
// необходимости. Мутация и рассылка снапшота внутри fn атомарны для комнаты.
func (p *Presence) WithRoom(roomID int64, fn func(v *RoomView)) {
	rs := p.acquire(roomID, true)
	defer p.release(rs)
	fn(&RoomView{p: p, rs: rs})
}

// ViewRoom — как WithRoom, но без создания; false, если комнаты нет.
func (p *Presence) ViewRoom(roomID int64, fn func(v *RoomView)) bool {
	rs := p.acquire(roomID, false)
	if rs == nil {
		return false
	}
	defer p.release(rs)
	fn(&RoomView{p: p, rs: rs})
	return true
}

func (p *Presence) Join(roomID int64, c *Client) (added bool) {
	p.WithRoom(roomID, func(v *RoomView) { added = v.Join(c) })
	return added
}

func (p *Presence) Leave(roomID int64, c *Client) (removed bool) {
	p.ViewRoom(roomID, func(v *RoomView) { removed = v.Leave(c) })
	return removed
}

func (p *Presence) Members(roomID int64) []domain.Identity {
	var out []domain.Identity
	p.ViewRoom(roomID, func(v *RoomView) { out = v.Members() })
	if out == nil {
		out = []domain.Identity{}
	}
	return out
}

func (p *Presence) IsEmpty(roomID int64) bool {
	empty := true
	p.ViewRoom(roomID, func(v *RoomView) { empty = v.Len() == 0 })
	return empty
}

func (p *Presence) Rooms() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.rooms)
}

// Drop снимает live-трекинг комнаты целиком. fn (может быть nil) видит
// комнату до очистки. Возвращает соединения, которые в ней были.
func (p *Presence) Drop(roomID int64, fn func(v *RoomView)) []*Client {
	rs := p.acquire(roomID, false)
	if rs == nil {
		return nil
	}
	defer rs.mu.Unlock()

	v := &RoomView{p: p, rs: rs}
	if fn != nil {
		fn(v)
	}
	clients := v.Clients(nil)
	rs.members = make(map[int64]*Client)
	p.kill(rs)
	return clients
}

// Clear сбрасывает все комнаты (shutdown).
func (p *Presence) Clear() {
	p.mu.Lock()
	old := p.rooms
	p.rooms = make(map[int64]*roomState)
	p.mu.Unlock()

	for _, rs := range old {
		rs.mu.Lock()
		rs.dead = true
		rs.members = make(map[int64]*Client)
		rs.mu.Unlock()
	}
}

// acquire возвращает живую комнату под заблокированным rs.mu (или nil).
func (p *Presence) acquire(roomID int64, create bool) *roomState {
	for {
		p.mu.RLock()
		rs := p.rooms[roomID]
		p.mu.RUnlock()

		if rs == nil {
			if !create {
				return nil
			}
			p.mu.Lock()
			if rs = p.rooms[roomID]; rs == nil {
				rs = &roomState{id: roomID, members: make(map[int64]*Client)}
				p.rooms[roomID] = rs
			}
			p.mu.Unlock()
		}

		rs.mu.Lock()
		if !rs.dead {
			return rs
		}
		rs.mu.Unlock()
	}
}

func (p *Presence) release(rs *roomState) {
	if len(rs.members) == 0 && !rs.dead {
		p.kill(rs)
	}
	rs.mu.Unlock()
}

// kill: вызывается под rs.mu.
func (p *Presence) kill(rs *roomState) {
	rs.dead = true
	p.mu.Lock()
	if p.rooms[rs.id] == rs {
		delete(p.rooms, rs.id)
	}
	p.mu.Unlock()
}
