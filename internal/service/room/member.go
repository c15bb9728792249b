package room

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/watchroom/server/internal/repository/room"
)

type TakeHostParams struct {
	SenderId string
	RoomId   string
}

type TakeHostResponse struct {
	HostId  string
	Log     LogEntry
	Members []Member
	Conns   []*websocket.Conn
}

// TakeHost reassigns the host to the sender unconditionally; any present
// member can seize control.
func (s *service) TakeHost(ctx context.Context, params *TakeHostParams) (TakeHostResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sender, err := s.roomRepo.GetMember(ctx, &room.GetMemberParams{
		MemberId: params.SenderId,
		RoomId:   params.RoomId,
	})
	if err != nil {
		return TakeHostResponse{}, mapRepoError(err)
	}

	prevHostId, err := s.roomRepo.GetHostId(ctx, params.RoomId)
	if err != nil {
		return TakeHostResponse{}, mapRepoError(err)
	}

	prevHostName := "none"
	if prevHostId != "" {
		if prevHost, err := s.roomRepo.GetMember(ctx, &room.GetMemberParams{
			MemberId: prevHostId,
			RoomId:   params.RoomId,
		}); err == nil {
			prevHostName = prevHost.Username
		}
	}

	if err := s.roomRepo.SetHostId(ctx, params.RoomId, params.SenderId); err != nil {
		return TakeHostResponse{}, mapRepoError(err)
	}

	entry, err := s.roomRepo.AppendLog(ctx, &room.AppendLogParams{
		Kind:   room.LogKindHostChanged,
		Text:   fmt.Sprintf("host changed from %s to %s", prevHostName, sender.Username),
		RoomId: params.RoomId,
	})
	if err != nil {
		return TakeHostResponse{}, fmt.Errorf("failed to append log: %w", err)
	}

	members, err := s.getMembers(ctx, params.RoomId)
	if err != nil {
		return TakeHostResponse{}, fmt.Errorf("failed to get member list: %w", err)
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		return TakeHostResponse{}, fmt.Errorf("failed to get conns by room id: %w", err)
	}

	s.logger.InfoContext(ctx, "host taken", "room_id", params.RoomId, "host_id", params.SenderId)

	return TakeHostResponse{
		HostId:  params.SenderId,
		Log:     logEntryFromRepo(entry),
		Members: members,
		Conns:   conns,
	}, nil
}

type DisconnectMemberParams struct {
	MemberId string
	RoomId   string
}

type DisconnectMemberResponse struct {
	LeftMemberId string
	LeftLog      *LogEntry
	NewHostId    string
	HostLog      *LogEntry
	Members      []Member
	Conns        []*websocket.Conn
}

// DisconnectMember tears down one room membership of a dropped connection.
// Unknown member or room is a no-op. If the removed member was host, the
// earliest-joined remaining member becomes the new host.
func (s *service) DisconnectMember(ctx context.Context, params *DisconnectMemberParams) (DisconnectMemberResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	member, err := s.roomRepo.GetMember(ctx, &room.GetMemberParams{
		MemberId: params.MemberId,
		RoomId:   params.RoomId,
	})
	if err != nil {
		return DisconnectMemberResponse{}, nil
	}

	hostId, err := s.roomRepo.GetHostId(ctx, params.RoomId)
	if err != nil {
		return DisconnectMemberResponse{}, mapRepoError(err)
	}
	wasHost := hostId == params.MemberId

	if err := s.connRepo.RemoveByMemberId(params.MemberId); err != nil {
		s.logger.DebugContext(ctx, "failed to remove conn", "member_id", params.MemberId, "error", err)
	}

	if err := s.roomRepo.RemoveMember(ctx, &room.RemoveMemberParams{
		MemberId: params.MemberId,
		RoomId:   params.RoomId,
	}); err != nil {
		return DisconnectMemberResponse{}, fmt.Errorf("failed to remove member: %w", err)
	}

	leftEntry, err := s.roomRepo.AppendLog(ctx, &room.AppendLogParams{
		Kind:   room.LogKindUserLeft,
		Text:   fmt.Sprintf("%s left the room", member.Username),
		RoomId: params.RoomId,
	})
	if err != nil {
		return DisconnectMemberResponse{}, fmt.Errorf("failed to append log: %w", err)
	}
	leftLog := logEntryFromRepo(leftEntry)

	resp := DisconnectMemberResponse{
		LeftMemberId: params.MemberId,
		LeftLog:      &leftLog,
	}

	memberIds, err := s.roomRepo.GetMemberIds(ctx, params.RoomId)
	if err != nil {
		return DisconnectMemberResponse{}, fmt.Errorf("failed to get member ids: %w", err)
	}
	if len(memberIds) == 0 {
		// nobody left to notify; host pointer is already cleared
		s.logger.InfoContext(ctx, "member left, room empty", "room_id", params.RoomId, "member_id", params.MemberId)
		return resp, nil
	}

	if wasHost {
		newHostId := memberIds[0]
		if err := s.roomRepo.SetHostId(ctx, params.RoomId, newHostId); err != nil {
			return DisconnectMemberResponse{}, fmt.Errorf("failed to set host id: %w", err)
		}

		newHost, err := s.roomRepo.GetMember(ctx, &room.GetMemberParams{
			MemberId: newHostId,
			RoomId:   params.RoomId,
		})
		if err != nil {
			return DisconnectMemberResponse{}, fmt.Errorf("failed to get member: %w", err)
		}

		hostEntry, err := s.roomRepo.AppendLog(ctx, &room.AppendLogParams{
			Kind:   room.LogKindHostAssigned,
			Text:   fmt.Sprintf("%s became the host", newHost.Username),
			RoomId: params.RoomId,
		})
		if err != nil {
			return DisconnectMemberResponse{}, fmt.Errorf("failed to append log: %w", err)
		}
		hostLog := logEntryFromRepo(hostEntry)

		resp.NewHostId = newHostId
		resp.HostLog = &hostLog
	}

	members, err := s.getMembers(ctx, params.RoomId)
	if err != nil {
		return DisconnectMemberResponse{}, fmt.Errorf("failed to get member list: %w", err)
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		return DisconnectMemberResponse{}, fmt.Errorf("failed to get conns by room id: %w", err)
	}

	resp.Members = members
	resp.Conns = conns

	s.logger.InfoContext(ctx, "member left", "room_id", params.RoomId, "member_id", params.MemberId, "new_host_id", resp.NewHostId)

	return resp, nil
}
