package controller

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/watchroom/server/internal/service/room"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type EmptyStruct struct{}

func (es *EmptyStruct) UnmarshalJSON([]byte) error {
	return nil
}

func (c controller) handleAlive(_ context.Context, _ *websocket.Conn, _ EmptyStruct) error {
	return nil
}

func (c controller) handleGetState(ctx context.Context, conn *websocket.Conn, _ EmptyStruct) error {
	roomId := c.getRoomIdFromCtx(ctx)

	roomState, err := c.roomService.GetRoomState(ctx, roomId)
	if err != nil {
		return fmt.Errorf("failed to get room state: %w", err)
	}

	return c.writeToConn(ctx, conn, &Output{
		Type:    "ROOM_STATE",
		Payload: roomState,
	})
}

type ChatInput struct {
	Text string `json:"text"`
}

func (c controller) handleChat(ctx context.Context, _ *websocket.Conn, input ChatInput) error {
	roomId := c.getRoomIdFromCtx(ctx)
	memberId := c.getMemberIdFromCtx(ctx)

	sendChatResponse, err := c.roomService.SendChat(ctx, &room.SendChatParams{
		Text:     input.Text,
		SenderId: memberId,
		RoomId:   roomId,
	})
	if err != nil {
		return fmt.Errorf("failed to send chat: %w", err)
	}

	if sendChatResponse.RenamedMember != nil {
		c.broadcast(ctx, sendChatResponse.Conns, &Output{
			Type: "CHAT_LOG",
			Payload: map[string]any{
				"log":     sendChatResponse.Log,
				"members": sendChatResponse.Members,
			},
		})
		return nil
	}

	c.broadcast(ctx, sendChatResponse.Conns, &Output{
		Type:    "CHAT_MESSAGE",
		Payload: sendChatResponse.Message,
	})

	return nil
}

type PlayerActionInput struct {
	Time *float64 `json:"time"`
}

func (c controller) handlePlayerPlay(ctx context.Context, conn *websocket.Conn, input PlayerActionInput) error {
	return c.handlePlayerAction(ctx, room.PlayerActionPlay, "PLAYER_PLAYED", input.Time)
}

func (c controller) handlePlayerPause(ctx context.Context, conn *websocket.Conn, input PlayerActionInput) error {
	return c.handlePlayerAction(ctx, room.PlayerActionPause, "PLAYER_PAUSED", input.Time)
}

func (c controller) handlePlayerSeek(ctx context.Context, conn *websocket.Conn, input PlayerActionInput) error {
	return c.handlePlayerAction(ctx, room.PlayerActionSeek, "PLAYER_SEEKED", input.Time)
}

func (c controller) handlePlayerAction(ctx context.Context, action room.PlayerAction, outputType string, time *float64) error {
	roomId := c.getRoomIdFromCtx(ctx)
	memberId := c.getMemberIdFromCtx(ctx)

	updatePlayerStateResponse, err := c.roomService.UpdatePlayerState(ctx, &room.UpdatePlayerStateParams{
		Action:   action,
		Time:     time,
		SenderId: memberId,
		RoomId:   roomId,
	})
	if err != nil {
		return fmt.Errorf("failed to update player state: %w", err)
	}

	c.broadcast(ctx, updatePlayerStateResponse.Conns, &Output{
		Type: outputType,
		Payload: map[string]any{
			"player": updatePlayerStateResponse.Player,
			"log":    updatePlayerStateResponse.Log,
		},
	})

	return nil
}

func (c controller) handleTakeHost(ctx context.Context, _ *websocket.Conn, _ EmptyStruct) error {
	roomId := c.getRoomIdFromCtx(ctx)
	memberId := c.getMemberIdFromCtx(ctx)

	takeHostResponse, err := c.roomService.TakeHost(ctx, &room.TakeHostParams{
		SenderId: memberId,
		RoomId:   roomId,
	})
	if err != nil {
		return fmt.Errorf("failed to take host: %w", err)
	}

	c.broadcast(ctx, takeHostResponse.Conns, &Output{
		Type: "HOST_CHANGED",
		Payload: map[string]any{
			"host_id": takeHostResponse.HostId,
			"log":     takeHostResponse.Log,
		},
	})
	c.broadcast(ctx, takeHostResponse.Conns, &Output{
		Type:    "MEMBER_LIST",
		Payload: map[string]any{"members": takeHostResponse.Members},
	})

	return nil
}
