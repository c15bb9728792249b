package controller

import (
	"context"
	"errors"

	"github.com/gorilla/websocket"

	"github.com/watchroom/server/internal/service/room"
	"github.com/watchroom/server/internal/service/upload"
	"github.com/watchroom/server/pkg/wsrouter"
)

func (c controller) writeToConn(ctx context.Context, conn *websocket.Conn, output *Output) error {
	if err := conn.WriteJSON(output); err != nil {
		c.logger.DebugContext(ctx, "failed to write to conn", "type", output.Type, "error", err)
		return err
	}

	return nil
}

// broadcast delivers the output to every conn, skipping the ones that fail;
// a dying connection must not block the rest of the room.
func (c controller) broadcast(ctx context.Context, conns []*websocket.Conn, output *Output) {
	for _, conn := range conns {
		if err := conn.WriteJSON(output); err != nil {
			c.logger.DebugContext(ctx, "failed to broadcast to conn", "type", output.Type, "error", err)
		}
	}
}

func (c controller) handleWSError(ctx context.Context, conn *websocket.Conn, err error) {
	c.logger.InfoContext(ctx, "websocket message failed", "error", err)

	c.writeToConn(ctx, conn, &Output{
		Type:    "ERROR",
		Payload: map[string]any{"error": errorMessage(err)},
	})
}

// errorMessage maps internal errors to the message shown to the client.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, room.ErrPermissionDenied):
		return "not the host"
	case errors.Is(err, room.ErrInvalidName):
		return "invalid name"
	case errors.Is(err, room.ErrMemberNotFound):
		return "member not found"
	case errors.Is(err, room.ErrRoomNotFound):
		return "room not found"
	case errors.Is(err, room.ErrRoomFull):
		return "room is full"
	case errors.Is(err, room.ErrValidationError):
		return "invalid request"
	case errors.Is(err, upload.ErrFileTooLarge):
		return "file too large"
	case errors.Is(err, wsrouter.ErrUnknownMessageType):
		return "unknown message type"
	}

	return "internal error"
}
