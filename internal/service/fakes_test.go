package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/cwrk-planet/chatcord/internal/domain"
	"github.com/cwrk-planet/chatcord/internal/security"
)

func nopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeStore struct {
	mu       sync.Mutex
	users    map[int64]domain.Identity
	rooms    map[int64]*domain.Room
	members  map[[2]int64]time.Time
	messages []domain.Message
	nextID   int64
	failWith error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:   map[int64]domain.Identity{},
		rooms:   map[int64]*domain.Room{},
		members: map[[2]int64]time.Time{},
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

// users

func (f *fakeStore) GetIdentity(_ context.Context, id int64) (*domain.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	u, ok := f.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

// rooms

type fakeRooms struct{ *fakeStore }

func (f fakeRooms) Create(_ context.Context, room *domain.Room) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	room.ID = f.id()
	room.CreatedAt = time.Now()
	cp := *room
	if u, ok := f.users[room.CreatedBy]; ok {
		cp.Creator = &u
	}
	f.rooms[room.ID] = &cp
	f.members[[2]int64{room.CreatedBy, room.ID}] = time.Now()
	return nil
}

func (f fakeRooms) Get(_ context.Context, id int64) (*domain.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rooms[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	cp := *r
	return &cp, nil
}

func (f fakeRooms) Exists(_ context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.rooms[id]
	return ok, nil
}

func (f fakeRooms) List(_ context.Context, userID int64) ([]domain.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Room, 0, len(f.rooms))
	for _, r := range f.rooms {
		cp := *r
		_, joined := f.members[[2]int64{userID, r.ID}]
		cp.IsJoined = &joined
		out = append(out, cp)
	}
	return out, nil
}

func (f fakeRooms) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rooms[id]; !ok {
		return domain.ErrRoomNotFound
	}
	delete(f.rooms, id)
	return nil
}

// memberships

type fakeMembers struct{ *fakeStore }

func (f fakeMembers) Join(_ context.Context, userID, roomID int64) (*domain.Membership, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := [2]int64{userID, roomID}
	if _, ok := f.members[key]; ok {
		return nil, false, nil
	}
	now := time.Now()
	f.members[key] = now
	return &domain.Membership{UserID: userID, RoomID: roomID, JoinedAt: now}, true, nil
}

func (f fakeMembers) Leave(_ context.Context, userID, roomID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := [2]int64{userID, roomID}
	if _, ok := f.members[key]; !ok {
		return domain.ErrNotMember
	}
	delete(f.members, key)
	return nil
}

func (f fakeMembers) IsMember(_ context.Context, userID, roomID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.members[[2]int64{userID, roomID}]
	return ok, nil
}

// messages

type fakeMessages struct{ *fakeStore }

func (f fakeMessages) Create(_ context.Context, in domain.NewMessage) (*domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	m := domain.Message{
		ID:        f.id(),
		Content:   in.Content,
		Type:      in.Type,
		IsAI:      in.IsAI,
		UserID:    in.UserID,
		RoomID:    in.RoomID,
		CreatedAt: time.Now(),
	}
	f.messages = append(f.messages, m)
	return &m, nil
}

func (f fakeMessages) GetWithAuthor(_ context.Context, id int64) (*domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages {
		if m.ID == id {
			if u, ok := f.users[m.UserID]; ok {
				m.User = &u
			}
			return &m, nil
		}
	}
	return nil, domain.ErrMessageNotFound
}

func (f fakeMessages) ListByRoom(_ context.Context, roomID int64, _ string, limit int, aiOnly bool) ([]domain.Message, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Message
	for _, m := range f.messages {
		if m.RoomID != roomID || (aiOnly && !m.IsAI) {
			continue
		}
		if u, ok := f.users[m.UserID]; ok {
			m.User = &u
		}
		out = append(out, m)
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, "", nil
}

// notifier

type notification struct {
	kind   string
	roomID int64
	isAI   bool
	msg    *domain.Message
}

type fakeNotifier struct {
	mu  sync.Mutex
	got []notification
}

func (n *fakeNotifier) NotifyRoomCreated(room *domain.Room) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.got = append(n.got, notification{kind: "room_created", roomID: room.ID})
}

func (n *fakeNotifier) NotifyRoomDeleted(roomID int64, _ domain.RoomInfo) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.got = append(n.got, notification{kind: "room_deleted", roomID: roomID})
}

func (n *fakeNotifier) NotifyNewMessage(roomID int64, msg *domain.Message, isAI bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.got = append(n.got, notification{kind: "new_message", roomID: roomID, isAI: isAI, msg: msg})
}

func (n *fakeNotifier) all() []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification(nil), n.got...)
}

// verifier

type fakeVerifier struct {
	claims map[string]*security.AccessClaims
}

func (v fakeVerifier) ParseAndValidate(token string) (*security.AccessClaims, error) {
	c, ok := v.claims[token]
	if !ok {
		return nil, security.ErrInvalidToken
	}
	return c, nil
}

// ai provider

type fakeProvider struct {
	configured bool
	reply      string
	err        error
	seen       []domain.Message
}

func (p *fakeProvider) Configured() bool { return p.configured }
func (p *fakeProvider) Model() string { return "gpt-4.1-nano" }

func (p *fakeProvider) Summarize(_ context.Context, msgs []domain.Message, _ string) (string, error) {
	p.seen = msgs
	return p.reply, p.err
}

func (p *fakeProvider) Respond(_ context.Context, history []domain.Message, _, _ string) (string, error) {
	p.seen = history
	return p.reply, p.err
}
