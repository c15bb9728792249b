package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/watchroom/server/internal/repository/room"
)

type roomState struct {
	memberIds  []string
	members    map[string]room.Member
	hostId     string
	player     room.Player
	video      *room.Video
	log        []room.LogEntry
	emptySince time.Time
}

type repo struct {
	rooms       map[string]*roomState
	logCapacity int
	mu          sync.RWMutex
}

func NewRepo(logCapacity int) *repo {
	return &repo{
		rooms:       make(map[string]*roomState),
		logCapacity: logCapacity,
	}
}

// getOrCreateRoom is the only room creation path. Callers must hold mu.
func (r *repo) getOrCreateRoom(roomId string) *roomState {
	rs, ok := r.rooms[roomId]
	if !ok {
		rs = &roomState{
			members: make(map[string]room.Member),
		}
		r.rooms[roomId] = rs
	}

	return rs
}

func (r *repo) RoomExists(_ context.Context, roomId string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.rooms[roomId]
	return ok, nil
}

func (r *repo) AddMember(_ context.Context, params *room.AddMemberParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rs := r.getOrCreateRoom(params.RoomId)
	if _, ok := rs.members[params.MemberId]; ok {
		return room.ErrMemberAlreadyExists
	}

	rs.members[params.MemberId] = room.Member{Username: params.Username}
	rs.memberIds = append(rs.memberIds, params.MemberId)
	rs.emptySince = time.Time{}

	return nil
}

// RemoveMember is idempotent: an absent room or member is a no-op. The host
// pointer is cleared immediately when it references the removed member, so it
// never dangles; electing a replacement is the caller's policy.
func (r *repo) RemoveMember(_ context.Context, params *room.RemoveMemberParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rs, ok := r.rooms[params.RoomId]
	if !ok {
		return nil
	}
	if _, ok := rs.members[params.MemberId]; !ok {
		return nil
	}

	delete(rs.members, params.MemberId)
	for i, id := range rs.memberIds {
		if id == params.MemberId {
			rs.memberIds = append(rs.memberIds[:i], rs.memberIds[i+1:]...)
			break
		}
	}

	if rs.hostId == params.MemberId {
		rs.hostId = ""
	}
	if len(rs.memberIds) == 0 {
		rs.emptySince = time.Now()
	}

	return nil
}

func (r *repo) GetMember(_ context.Context, params *room.GetMemberParams) (room.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rs, ok := r.rooms[params.RoomId]
	if !ok {
		return room.Member{}, room.ErrRoomNotFound
	}

	member, ok := rs.members[params.MemberId]
	if !ok {
		return room.Member{}, room.ErrMemberNotFound
	}

	return member, nil
}

// GetMemberIds returns member ids in join order.
func (r *repo) GetMemberIds(_ context.Context, roomId string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rs, ok := r.rooms[roomId]
	if !ok {
		return nil, room.ErrRoomNotFound
	}

	ids := make([]string, len(rs.memberIds))
	copy(ids, rs.memberIds)

	return ids, nil
}

func (r *repo) UpdateMemberUsername(_ context.Context, roomId, memberId, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rs, ok := r.rooms[roomId]
	if !ok {
		return room.ErrRoomNotFound
	}

	member, ok := rs.members[memberId]
	if !ok {
		return room.ErrMemberNotFound
	}

	member.Username = username
	rs.members[memberId] = member

	return nil
}

func (r *repo) GetHostId(_ context.Context, roomId string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rs, ok := r.rooms[roomId]
	if !ok {
		return "", room.ErrRoomNotFound
	}

	return rs.hostId, nil
}

func (r *repo) SetHostId(_ context.Context, roomId, memberId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rs, ok := r.rooms[roomId]
	if !ok {
		return room.ErrRoomNotFound
	}
	if _, ok := rs.members[memberId]; !ok {
		return room.ErrMemberNotFound
	}

	rs.hostId = memberId

	return nil
}

func (r *repo) GetPlayer(_ context.Context, roomId string) (room.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rs, ok := r.rooms[roomId]
	if !ok {
		return room.Player{}, room.ErrRoomNotFound
	}

	return rs.player, nil
}

// UpdatePlayerState merges only the provided fields and returns the resulting
// player state.
func (r *repo) UpdatePlayerState(_ context.Context, params *room.UpdatePlayerStateParams) (room.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rs, ok := r.rooms[params.RoomId]
	if !ok {
		return room.Player{}, room.ErrRoomNotFound
	}

	if params.IsPlaying != nil {
		rs.player.IsPlaying = *params.IsPlaying
	}
	if params.CurrentTime != nil {
		rs.player.CurrentTime = *params.CurrentTime
	}

	return rs.player, nil
}

func (r *repo) GetVideo(_ context.Context, roomId string) (*room.Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rs, ok := r.rooms[roomId]
	if !ok {
		return nil, room.ErrRoomNotFound
	}
	if rs.video == nil {
		return nil, nil
	}

	video := *rs.video
	return &video, nil
}

// SetVideo replaces the room video wholesale.
func (r *repo) SetVideo(_ context.Context, params *room.SetVideoParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rs, ok := r.rooms[params.RoomId]
	if !ok {
		return room.ErrRoomNotFound
	}

	video := params.Video
	rs.video = &video

	return nil
}

// AppendLog assigns the entry id and timestamp, appends to the tail and
// evicts from the head past the configured capacity.
func (r *repo) AppendLog(_ context.Context, params *room.AppendLogParams) (room.LogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rs, ok := r.rooms[params.RoomId]
	if !ok {
		return room.LogEntry{}, room.ErrRoomNotFound
	}

	entry := room.LogEntry{
		Id:   uuid.NewString(),
		Kind: params.Kind,
		Text: params.Text,
		Time: time.Now(),
	}

	rs.log = append(rs.log, entry)
	if len(rs.log) > r.logCapacity {
		rs.log = rs.log[len(rs.log)-r.logCapacity:]
	}

	return entry, nil
}

// GetLastLog returns up to limit newest entries in chronological order.
// limit <= 0 returns the whole log.
func (r *repo) GetLastLog(_ context.Context, roomId string, limit int) ([]room.LogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rs, ok := r.rooms[roomId]
	if !ok {
		return nil, room.ErrRoomNotFound
	}

	entries := rs.log
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	log := make([]room.LogEntry, len(entries))
	copy(log, entries)

	return log, nil
}

// DeleteEmptyRooms removes rooms that have had zero members for at least
// emptyFor and reports how many were removed.
func (r *repo) DeleteEmptyRooms(_ context.Context, emptyFor time.Duration) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleted := 0
	cutoff := time.Now().Add(-emptyFor)
	for roomId, rs := range r.rooms {
		if len(rs.memberIds) == 0 && !rs.emptySince.IsZero() && rs.emptySince.Before(cutoff) {
			delete(r.rooms, roomId)
			deleted++
		}
	}

	return deleted, nil
}
