package app

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	connInmemory "github.com/watchroom/server/internal/repository/connection/inmemory"
	roomInmemory "github.com/watchroom/server/internal/repository/room/inmemory"
	"github.com/watchroom/server/internal/service/room"
)

func TestRoomSession(t *testing.T) {
	slog.SetLogLoggerLevel(slog.LevelDebug)
	roomRepo := roomInmemory.NewRepo(activityLogCapacity)
	connRepo := connInmemory.NewRepo()
	service := room.NewService(roomRepo, connRepo, &room.Config{
		MembersLimit: 9,
		EmptyRoomTTL: 30 * time.Second,
	}, slog.Default())

	ctx := context.Background()

	// member 1 joins, room is created lazily
	join1Resp, err := service.JoinRoom(ctx, &room.JoinRoomParams{
		Username: "user1",
		RoomId:   "movie-night",
		Conn:     &websocket.Conn{},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, join1Resp.JoinedMember.Id, "member id is empty")
	assert.Equal(t, join1Resp.JoinedMember.Id, join1Resp.State.HostId, "first joiner must be host")
	t.Log("room created")

	// member 2 joins
	join2Resp, err := service.JoinRoom(ctx, &room.JoinRoomParams{
		Username: "user2",
		RoomId:   "movie-night",
		Conn:     &websocket.Conn{},
	})
	require.NoError(t, err)
	assert.Equal(t, "user2", join2Resp.JoinedMember.Username, "username is not equal")
	assert.Equal(t, join1Resp.JoinedMember.Id, join2Resp.State.HostId, "host must not change")
	assert.Equal(t, len(join2Resp.Members), 2, "member list must contain 2 members")
	assert.Equal(t, len(join2Resp.OthersConns), 1, "others conns must contain 1 conn")
	t.Log("member joined")

	// host starts playback
	playResp, err := service.UpdatePlayerState(ctx, &room.UpdatePlayerStateParams{
		Action:   room.PlayerActionPlay,
		SenderId: join1Resp.JoinedMember.Id,
		RoomId:   "movie-night",
	})
	require.NoError(t, err)
	assert.True(t, playResp.Player.IsPlaying, "player must be playing")
	assert.Equal(t, len(playResp.Conns), 2, "conns must contain 2 conns")
	t.Log("playback started")

	// member 2 chats
	chatResp, err := service.SendChat(ctx, &room.SendChatParams{
		Text:     "great movie",
		SenderId: join2Resp.JoinedMember.Id,
		RoomId:   "movie-night",
	})
	require.NoError(t, err)
	require.NotNil(t, chatResp.Message)
	assert.Equal(t, "user2: great movie", chatResp.Log.Text, "log text is not equal")
	t.Log("chat sent")

	// host disconnects, member 2 takes over
	discResp, err := service.DisconnectMember(ctx, &room.DisconnectMemberParams{
		MemberId: join1Resp.JoinedMember.Id,
		RoomId:   "movie-night",
	})
	require.NoError(t, err)
	assert.Equal(t, join2Resp.JoinedMember.Id, discResp.NewHostId, "remaining member must become host")
	assert.Equal(t, len(discResp.Members), 1, "member list must contain 1 member")
	t.Log("member 1 disconnected")

	state, err := service.GetRoomState(ctx, "movie-night")
	require.NoError(t, err)
	assert.True(t, state.Player.IsPlaying, "player state must survive host change")
}

func TestAppConfigValidate(t *testing.T) {
	cfg := AppConfig{
		Host:         "127.0.0.1",
		Port:         8080,
		LogLevel:     "DEBUG",
		MembersLimit: 9,
		UploadDir:    t.TempDir(),
		MaxUploadMB:  512,
		RoomTTL:      30 * time.Second,
	}
	require.NoError(t, cfg.Validate())

	invalid := cfg
	invalid.MembersLimit = 0
	require.Error(t, invalid.Validate())

	invalid = cfg
	invalid.MaxUploadMB = 0
	require.Error(t, invalid.Validate())

	invalid = cfg
	invalid.RoomTTL = 0
	require.Error(t, invalid.Validate())
}
