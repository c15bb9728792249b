package room

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/watchroom/server/internal/repository/room"
)

// PlayerAction is the closed set of host playback commands. Anything else is
// rejected with ErrValidationError.
type PlayerAction string

const (
	PlayerActionPlay  PlayerAction = "play"
	PlayerActionPause PlayerAction = "pause"
	PlayerActionSeek  PlayerAction = "seek"
)

type UpdatePlayerStateParams struct {
	Action   PlayerAction
	Time     *float64
	SenderId string
	RoomId   string
}

type UpdatePlayerStateResponse struct {
	Player Player
	Log    LogEntry
	Conns  []*websocket.Conn
}

// UpdatePlayerState applies a host playback command. Play and pause keep the
// last known position unless a time is given; seek requires one. The server
// never advances the position itself, it relays what the host reports.
func (s *service) UpdatePlayerState(ctx context.Context, params *UpdatePlayerStateParams) (UpdatePlayerStateResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hostId, err := s.roomRepo.GetHostId(ctx, params.RoomId)
	if err != nil {
		return UpdatePlayerStateResponse{}, mapRepoError(err)
	}
	if hostId == "" || hostId != params.SenderId {
		return UpdatePlayerStateResponse{}, ErrPermissionDenied
	}

	if params.Time != nil && *params.Time < 0 {
		return UpdatePlayerStateResponse{}, fmt.Errorf("%w: negative time", ErrValidationError)
	}

	var (
		isPlaying *bool
		logKind   room.LogKind
	)
	switch params.Action {
	case PlayerActionPlay:
		playing := true
		isPlaying = &playing
		logKind = room.LogKindVideoPlay
	case PlayerActionPause:
		playing := false
		isPlaying = &playing
		logKind = room.LogKindVideoPause
	case PlayerActionSeek:
		if params.Time == nil {
			return UpdatePlayerStateResponse{}, fmt.Errorf("%w: seek requires time", ErrValidationError)
		}
		logKind = room.LogKindVideoSeek
	default:
		return UpdatePlayerStateResponse{}, fmt.Errorf("%w: unknown action %q", ErrValidationError, params.Action)
	}

	player, err := s.roomRepo.UpdatePlayerState(ctx, &room.UpdatePlayerStateParams{
		IsPlaying:   isPlaying,
		CurrentTime: params.Time,
		RoomId:      params.RoomId,
	})
	if err != nil {
		return UpdatePlayerStateResponse{}, fmt.Errorf("failed to update player state: %w", err)
	}

	host, err := s.roomRepo.GetMember(ctx, &room.GetMemberParams{
		MemberId: params.SenderId,
		RoomId:   params.RoomId,
	})
	if err != nil {
		return UpdatePlayerStateResponse{}, mapRepoError(err)
	}

	var text string
	switch params.Action {
	case PlayerActionPlay:
		text = fmt.Sprintf("%s started playback at %s", host.Username, formatPlaybackTime(player.CurrentTime))
	case PlayerActionPause:
		text = fmt.Sprintf("%s paused playback at %s", host.Username, formatPlaybackTime(player.CurrentTime))
	case PlayerActionSeek:
		text = fmt.Sprintf("%s jumped to %s", host.Username, formatPlaybackTime(player.CurrentTime))
	}

	entry, err := s.roomRepo.AppendLog(ctx, &room.AppendLogParams{
		Kind:   logKind,
		Text:   text,
		RoomId: params.RoomId,
	})
	if err != nil {
		return UpdatePlayerStateResponse{}, fmt.Errorf("failed to append log: %w", err)
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		return UpdatePlayerStateResponse{}, fmt.Errorf("failed to get conns by room id: %w", err)
	}

	return UpdatePlayerStateResponse{
		Player: Player{
			IsPlaying:   player.IsPlaying,
			CurrentTime: player.CurrentTime,
		},
		Log:   logEntryFromRepo(entry),
		Conns: conns,
	}, nil
}
