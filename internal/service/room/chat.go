package room

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gorilla/websocket"

	"github.com/watchroom/server/internal/repository/room"
)

type SendChatParams struct {
	Text     string
	SenderId string
	RoomId   string
}

type SendChatResponse struct {
	// Message is set for a plain chat message, RenamedMember and Members for
	// a rename command. Exactly one of the two shapes applies per call.
	Message       *ChatMessage
	RenamedMember *Member
	Members       []Member
	Log           LogEntry
	Conns         []*websocket.Conn
}

func (s *service) SendChat(ctx context.Context, params *SendChatParams) (SendChatResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sender, err := s.roomRepo.GetMember(ctx, &room.GetMemberParams{
		MemberId: params.SenderId,
		RoomId:   params.RoomId,
	})
	if err != nil {
		return SendChatResponse{}, mapRepoError(err)
	}

	text := strings.TrimSpace(params.Text)
	if text == "" {
		return SendChatResponse{}, fmt.Errorf("%w: empty message", ErrValidationError)
	}

	if strings.HasPrefix(text, renameCommandPrefix) {
		return s.renameMember(ctx, params.RoomId, params.SenderId, sender.Username, text)
	}

	entry, err := s.roomRepo.AppendLog(ctx, &room.AppendLogParams{
		Kind:   room.LogKindChat,
		Text:   fmt.Sprintf("%s: %s", sender.Username, text),
		RoomId: params.RoomId,
	})
	if err != nil {
		return SendChatResponse{}, fmt.Errorf("failed to append log: %w", err)
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		return SendChatResponse{}, fmt.Errorf("failed to get conns by room id: %w", err)
	}

	return SendChatResponse{
		Message: &ChatMessage{
			Id:       entry.Id,
			MemberId: params.SenderId,
			Username: sender.Username,
			Text:     text,
			Time:     entry.Time,
		},
		Log:   logEntryFromRepo(entry),
		Conns: conns,
	}, nil
}

func (s *service) renameMember(ctx context.Context, roomId, memberId, oldName, text string) (SendChatResponse, error) {
	newName := strings.TrimSpace(strings.TrimPrefix(text, renameCommandPrefix))
	if newName == "" || utf8.RuneCountInString(newName) > maxUsernameLength {
		return SendChatResponse{}, ErrInvalidName
	}

	if err := s.roomRepo.UpdateMemberUsername(ctx, roomId, memberId, newName); err != nil {
		return SendChatResponse{}, mapRepoError(err)
	}

	entry, err := s.roomRepo.AppendLog(ctx, &room.AppendLogParams{
		Kind:   room.LogKindNameChanged,
		Text:   fmt.Sprintf("%s changed name to %s", oldName, newName),
		RoomId: roomId,
	})
	if err != nil {
		return SendChatResponse{}, fmt.Errorf("failed to append log: %w", err)
	}

	members, err := s.getMembers(ctx, roomId)
	if err != nil {
		return SendChatResponse{}, fmt.Errorf("failed to get member list: %w", err)
	}

	conns, err := s.getConnsByRoomId(ctx, roomId)
	if err != nil {
		return SendChatResponse{}, fmt.Errorf("failed to get conns by room id: %w", err)
	}

	s.logger.InfoContext(ctx, "member renamed", "room_id", roomId, "member_id", memberId, "username", newName)

	return SendChatResponse{
		RenamedMember: &Member{Id: memberId, Username: newName},
		Members:       members,
		Log:           logEntryFromRepo(entry),
		Conns:         conns,
	}, nil
}
