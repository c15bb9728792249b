package room

import (
	"context"
	"fmt"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/watchroom/server/internal/repository/room"
)

func (s *service) getMembers(ctx context.Context, roomId string) ([]Member, error) {
	memberIds, err := s.roomRepo.GetMemberIds(ctx, roomId)
	if err != nil {
		return nil, err
	}

	members := make([]Member, 0, len(memberIds))
	for _, memberId := range memberIds {
		member, err := s.roomRepo.GetMember(ctx, &room.GetMemberParams{
			MemberId: memberId,
			RoomId:   roomId,
		})
		if err != nil {
			return nil, err
		}

		members = append(members, Member{
			Id:       memberId,
			Username: member.Username,
		})
	}

	return members, nil
}

func (s *service) getConnsByRoomId(ctx context.Context, roomId string) ([]*websocket.Conn, error) {
	memberIds, err := s.roomRepo.GetMemberIds(ctx, roomId)
	if err != nil {
		return nil, err
	}

	conns := make([]*websocket.Conn, 0, len(memberIds))
	for _, memberId := range memberIds {
		conn, err := s.connRepo.GetConn(memberId)
		if err != nil {
			s.logger.DebugContext(ctx, "failed to get conn", "member_id", memberId, "error", err)
			continue
		}

		conns = append(conns, conn)
	}

	return conns, nil
}

func (s *service) generateGuestName() string {
	return "Guest-" + s.generator.GenerateRandomString(3)
}

func logEntryFromRepo(entry room.LogEntry) LogEntry {
	return LogEntry{
		Id:   entry.Id,
		Kind: string(entry.Kind),
		Text: entry.Text,
		Time: entry.Time,
	}
}

func logFromRepo(entries []room.LogEntry) []LogEntry {
	log := make([]LogEntry, 0, len(entries))
	for _, entry := range entries {
		log = append(log, logEntryFromRepo(entry))
	}

	return log
}

// formatPlaybackTime renders seconds as m:ss or h:mm:ss for log texts.
func formatPlaybackTime(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := total % 3600 / 60
	sec := total % 60

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}

	return fmt.Sprintf("%d:%02d", m, sec)
}

func normalizeUsername(username string) string {
	return strings.TrimSpace(username)
}
