package controller

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/watchroom/server/internal/service/room"
)

// joinRoom upgrades the connection, joins the member into the room and then
// serves websocket messages until the connection drops. The join failure
// signal goes over the already-upgraded connection so the client gets a
// structured error instead of a bare close.
func (c controller) joinRoom(w http.ResponseWriter, r *http.Request) {
	roomId := chi.URLParam(r, "room-id")
	if roomId == "" {
		c.logger.DebugContext(r.Context(), "empty room id")
		w.WriteHeader(http.StatusNotFound)
		return
	}

	var query joinRoomQuery
	query.Username = r.URL.Query().Get("username")
	if validationErrors, ok := c.validate.Validate(query); !ok {
		c.logger.DebugContext(r.Context(), "invalid join query", "errors", validationErrors)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	joinRoomResponse, err := c.roomService.JoinRoom(r.Context(), &room.JoinRoomParams{
		Username: query.Username,
		RoomId:   roomId,
		Conn:     conn,
	})
	if err != nil {
		c.logger.InfoContext(r.Context(), "failed to join room", "room_id", roomId, "error", err)
		c.writeToConn(r.Context(), conn, &Output{
			Type:    "JOIN_FAILED",
			Payload: map[string]any{"error": errorMessage(err)},
		})
		return
	}
	defer c.disconnect(r.Context(), roomId, joinRoomResponse.JoinedMember.Id)

	if err := c.writeToConn(r.Context(), conn, &Output{
		Type:    "ROOM_STATE",
		Payload: joinRoomResponse.State,
	}); err != nil {
		return
	}

	c.broadcast(r.Context(), joinRoomResponse.OthersConns, &Output{
		Type: "MEMBER_JOINED",
		Payload: map[string]any{
			"joined_member": joinRoomResponse.JoinedMember,
			"log":           joinRoomResponse.JoinedLog,
		},
	})
	c.broadcast(r.Context(), joinRoomResponse.Conns, &Output{
		Type:    "MEMBER_LIST",
		Payload: map[string]any{"members": joinRoomResponse.Members},
	})

	ctx := context.WithValue(r.Context(), roomIdCtxKey, roomId)
	ctx = context.WithValue(ctx, memberIdCtxKey, joinRoomResponse.JoinedMember.Id)

	if err := c.wsmux.ServeConn(ctx, conn); err != nil {
		c.logger.DebugContext(r.Context(), "connection closed", "room_id", roomId, "error", err)
	}
}

type joinRoomQuery struct {
	Username string `json:"username" validate:"omitempty,max=32"`
}

func (c controller) disconnect(ctx context.Context, roomId, memberId string) {
	disconnectResponse, err := c.roomService.DisconnectMember(ctx, &room.DisconnectMemberParams{
		MemberId: memberId,
		RoomId:   roomId,
	})
	if err != nil {
		c.logger.WarnContext(ctx, "failed to disconnect member", "room_id", roomId, "member_id", memberId, "error", err)
		return
	}
	if disconnectResponse.LeftLog == nil || len(disconnectResponse.Conns) == 0 {
		return
	}

	c.broadcast(ctx, disconnectResponse.Conns, &Output{
		Type: "MEMBER_LEFT",
		Payload: map[string]any{
			"member_id": disconnectResponse.LeftMemberId,
			"log":       disconnectResponse.LeftLog,
		},
	})
	c.broadcast(ctx, disconnectResponse.Conns, &Output{
		Type:    "MEMBER_LIST",
		Payload: map[string]any{"members": disconnectResponse.Members},
	})

	if disconnectResponse.HostLog != nil {
		c.broadcast(ctx, disconnectResponse.Conns, &Output{
			Type: "HOST_CHANGED",
			Payload: map[string]any{
				"host_id": disconnectResponse.NewHostId,
				"log":     disconnectResponse.HostLog,
			},
		})
	}
}
