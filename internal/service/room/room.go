package room

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/watchroom/server/internal/repository/room"
)

type JoinRoomParams struct {
	Username string
	RoomId   string
	Conn     *websocket.Conn
}

type JoinRoomResponse struct {
	JoinedMember Member
	JoinedLog    LogEntry
	State        RoomState
	Members      []Member
	OthersConns  []*websocket.Conn
	Conns        []*websocket.Conn
}

// JoinRoom creates the room on first join, adds the member and makes them
// host if the room has none. The returned state snapshot is for the joiner;
// the conn slices are the broadcast sets for everyone / everyone else.
func (s *service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	username := normalizeUsername(params.Username)
	if username == "" {
		username = s.generateGuestName()
	}
	if utf8.RuneCountInString(username) > maxUsernameLength {
		return JoinRoomResponse{}, fmt.Errorf("%w: username too long", ErrInvalidName)
	}

	if s.membersLimit > 0 {
		if memberIds, err := s.roomRepo.GetMemberIds(ctx, params.RoomId); err == nil && len(memberIds) >= s.membersLimit {
			return JoinRoomResponse{}, ErrRoomFull
		}
	}

	memberId := uuid.NewString()
	if err := s.roomRepo.AddMember(ctx, &room.AddMemberParams{
		MemberId: memberId,
		Username: username,
		RoomId:   params.RoomId,
	}); err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to add member: %w", err)
	}

	if err := s.connRepo.Add(params.Conn, params.RoomId, memberId); err != nil {
		// keep membership and connection registry in sync
		_ = s.roomRepo.RemoveMember(ctx, &room.RemoveMemberParams{MemberId: memberId, RoomId: params.RoomId})
		return JoinRoomResponse{}, fmt.Errorf("failed to register connection: %w", err)
	}

	hostId, err := s.roomRepo.GetHostId(ctx, params.RoomId)
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to get host id: %w", err)
	}
	if hostId == "" {
		if err := s.roomRepo.SetHostId(ctx, params.RoomId, memberId); err != nil {
			return JoinRoomResponse{}, fmt.Errorf("failed to set host id: %w", err)
		}
		if _, err := s.roomRepo.AppendLog(ctx, &room.AppendLogParams{
			Kind:   room.LogKindHostAssigned,
			Text:   fmt.Sprintf("%s became the host", username),
			RoomId: params.RoomId,
		}); err != nil {
			return JoinRoomResponse{}, fmt.Errorf("failed to append log: %w", err)
		}
	}

	joinedEntry, err := s.roomRepo.AppendLog(ctx, &room.AppendLogParams{
		Kind:   room.LogKindUserJoined,
		Text:   fmt.Sprintf("%s joined the room", username),
		RoomId: params.RoomId,
	})
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to append log: %w", err)
	}

	state, err := s.getRoomState(ctx, params.RoomId)
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to get room state: %w", err)
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to get conns by room id: %w", err)
	}

	othersConns := make([]*websocket.Conn, 0, len(conns))
	for _, conn := range conns {
		if conn != params.Conn {
			othersConns = append(othersConns, conn)
		}
	}

	s.logger.InfoContext(ctx, "member joined", "room_id", params.RoomId, "member_id", memberId)

	return JoinRoomResponse{
		JoinedMember: Member{Id: memberId, Username: username},
		JoinedLog:    logEntryFromRepo(joinedEntry),
		State:        state,
		Members:      state.Members,
		OthersConns:  othersConns,
		Conns:        conns,
	}, nil
}

func (s *service) GetRoomState(ctx context.Context, roomId string) (RoomState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getRoomState(ctx, roomId)
}

func (s *service) getRoomState(ctx context.Context, roomId string) (RoomState, error) {
	members, err := s.getMembers(ctx, roomId)
	if err != nil {
		return RoomState{}, mapRepoError(err)
	}

	hostId, err := s.roomRepo.GetHostId(ctx, roomId)
	if err != nil {
		return RoomState{}, mapRepoError(err)
	}

	player, err := s.roomRepo.GetPlayer(ctx, roomId)
	if err != nil {
		return RoomState{}, mapRepoError(err)
	}

	repoVideo, err := s.roomRepo.GetVideo(ctx, roomId)
	if err != nil {
		return RoomState{}, mapRepoError(err)
	}
	var video *Video
	if repoVideo != nil {
		video = &Video{
			OriginalName: repoVideo.OriginalName,
			StoredName:   repoVideo.StoredName,
			Size:         repoVideo.Size,
			URL:          repoVideo.URL,
			UploadedAt:   repoVideo.UploadedAt,
		}
	}

	entries, err := s.roomRepo.GetLastLog(ctx, roomId, roomStateLogLimit)
	if err != nil {
		return RoomState{}, mapRepoError(err)
	}

	return RoomState{
		RoomId:  roomId,
		HostId:  hostId,
		Members: members,
		Video:   video,
		Player: Player{
			IsPlaying:   player.IsPlaying,
			CurrentTime: player.CurrentTime,
		},
		Log: logFromRepo(entries),
	}, nil
}

// EvictEmptyRooms deletes rooms that have been empty for the configured grace
// period and reports how many were removed.
func (s *service) EvictEmptyRooms(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.roomRepo.DeleteEmptyRooms(ctx, s.emptyRoomTTL)
}
