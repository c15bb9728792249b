package room_test

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	connInmemory "github.com/watchroom/server/internal/repository/connection/inmemory"
	roomInmemory "github.com/watchroom/server/internal/repository/room/inmemory"
	"github.com/watchroom/server/internal/service/room"
)

type roomService interface {
	JoinRoom(ctx context.Context, params *room.JoinRoomParams) (room.JoinRoomResponse, error)
	DisconnectMember(ctx context.Context, params *room.DisconnectMemberParams) (room.DisconnectMemberResponse, error)
	SendChat(ctx context.Context, params *room.SendChatParams) (room.SendChatResponse, error)
	UpdatePlayerState(ctx context.Context, params *room.UpdatePlayerStateParams) (room.UpdatePlayerStateResponse, error)
	TakeHost(ctx context.Context, params *room.TakeHostParams) (room.TakeHostResponse, error)
	NotifyVideoUploaded(ctx context.Context, params *room.NotifyVideoUploadedParams) (room.NotifyVideoUploadedResponse, error)
	GetRoomState(ctx context.Context, roomId string) (room.RoomState, error)
	EvictEmptyRooms(ctx context.Context) (int, error)
}

func newTestService(t *testing.T, membersLimit int, emptyRoomTTL time.Duration) roomService {
	t.Helper()

	roomRepo := roomInmemory.NewRepo(500)
	connRepo := connInmemory.NewRepo()

	return room.NewService(roomRepo, connRepo, &room.Config{
		MembersLimit: membersLimit,
		EmptyRoomTTL: emptyRoomTTL,
	}, slog.Default())
}

func join(t *testing.T, s roomService, roomId, username string) room.JoinRoomResponse {
	t.Helper()

	resp, err := s.JoinRoom(context.Background(), &room.JoinRoomParams{
		Username: username,
		RoomId:   roomId,
		Conn:     &websocket.Conn{},
	})
	require.NoError(t, err)

	return resp
}

func floatPtr(v float64) *float64 {
	return &v
}

func TestJoinRoom(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, 9, time.Minute)

	aliceResp := join(t, s, "abc", "Alice")
	assert.NotEmpty(t, aliceResp.JoinedMember.Id)
	assert.Equal(t, "Alice", aliceResp.JoinedMember.Username)
	assert.Equal(t, aliceResp.JoinedMember.Id, aliceResp.State.HostId, "first joiner must become host")
	assert.Len(t, aliceResp.Members, 1)
	assert.Empty(t, aliceResp.OthersConns)
	assert.Len(t, aliceResp.Conns, 1)

	// host assignment and join are both logged
	require.Len(t, aliceResp.State.Log, 2)
	assert.Equal(t, "Alice became the host", aliceResp.State.Log[0].Text)
	assert.Equal(t, "Alice joined the room", aliceResp.State.Log[1].Text)

	bobResp := join(t, s, "abc", "Bob")
	assert.Equal(t, aliceResp.JoinedMember.Id, bobResp.State.HostId, "host must not change on later joins")
	assert.Len(t, bobResp.Members, 2)
	assert.Len(t, bobResp.OthersConns, 1)
	assert.Len(t, bobResp.Conns, 2)
	assert.Equal(t, "Bob joined the room", bobResp.JoinedLog.Text)

	// members are listed in join order
	assert.Equal(t, "Alice", bobResp.Members[0].Username)
	assert.Equal(t, "Bob", bobResp.Members[1].Username)

	// rooms are independent
	otherResp := join(t, s, "xyz", "Carol")
	assert.Equal(t, otherResp.JoinedMember.Id, otherResp.State.HostId)
	assert.Len(t, otherResp.Members, 1)

	state, err := s.GetRoomState(ctx, "abc")
	require.NoError(t, err)
	assert.Len(t, state.Members, 2)
}

func TestJoinRoomGuestName(t *testing.T) {
	s := newTestService(t, 9, time.Minute)

	resp := join(t, s, "abc", "   ")
	assert.Regexp(t, regexp.MustCompile(`^Guest-\d{3}$`), resp.JoinedMember.Username)
}

func TestJoinRoomNameTooLong(t *testing.T) {
	s := newTestService(t, 9, time.Minute)

	_, err := s.JoinRoom(context.Background(), &room.JoinRoomParams{
		Username: strings.Repeat("a", 33),
		RoomId:   "abc",
		Conn:     &websocket.Conn{},
	})
	require.ErrorIs(t, err, room.ErrInvalidName)
}

func TestJoinRoomFull(t *testing.T) {
	s := newTestService(t, 2, time.Minute)

	join(t, s, "abc", "Alice")
	join(t, s, "abc", "Bob")

	_, err := s.JoinRoom(context.Background(), &room.JoinRoomParams{
		Username: "Carol",
		RoomId:   "abc",
		Conn:     &websocket.Conn{},
	})
	require.ErrorIs(t, err, room.ErrRoomFull)

	// a different room is unaffected
	join(t, s, "xyz", "Carol")
}

func TestUpdatePlayerState(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, 9, time.Minute)

	aliceResp := join(t, s, "abc", "Alice")
	bobResp := join(t, s, "abc", "Bob")

	playResp, err := s.UpdatePlayerState(ctx, &room.UpdatePlayerStateParams{
		Action:   room.PlayerActionPlay,
		Time:     floatPtr(10),
		SenderId: aliceResp.JoinedMember.Id,
		RoomId:   "abc",
	})
	require.NoError(t, err)
	assert.True(t, playResp.Player.IsPlaying)
	assert.Equal(t, float64(10), playResp.Player.CurrentTime)
	assert.Equal(t, "Alice started playback at 0:10", playResp.Log.Text)
	assert.Len(t, playResp.Conns, 2, "playback updates go to every member")

	// non-host commands are rejected and state stays put
	_, err = s.UpdatePlayerState(ctx, &room.UpdatePlayerStateParams{
		Action:   room.PlayerActionPause,
		SenderId: bobResp.JoinedMember.Id,
		RoomId:   "abc",
	})
	require.ErrorIs(t, err, room.ErrPermissionDenied)

	state, err := s.GetRoomState(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, state.Player.IsPlaying)
	assert.Equal(t, float64(10), state.Player.CurrentTime)

	// pause without a time keeps the last known position
	pauseResp, err := s.UpdatePlayerState(ctx, &room.UpdatePlayerStateParams{
		Action:   room.PlayerActionPause,
		SenderId: aliceResp.JoinedMember.Id,
		RoomId:   "abc",
	})
	require.NoError(t, err)
	assert.False(t, pauseResp.Player.IsPlaying)
	assert.Equal(t, float64(10), pauseResp.Player.CurrentTime)
	assert.Equal(t, "Alice paused playback at 0:10", pauseResp.Log.Text)

	// seek changes the position only
	seekResp, err := s.UpdatePlayerState(ctx, &room.UpdatePlayerStateParams{
		Action:   room.PlayerActionSeek,
		Time:     floatPtr(3725),
		SenderId: aliceResp.JoinedMember.Id,
		RoomId:   "abc",
	})
	require.NoError(t, err)
	assert.False(t, seekResp.Player.IsPlaying)
	assert.Equal(t, float64(3725), seekResp.Player.CurrentTime)
	assert.Equal(t, "Alice jumped to 1:02:05", seekResp.Log.Text)
}

func TestUpdatePlayerStateValidation(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, 9, time.Minute)

	aliceResp := join(t, s, "abc", "Alice")

	_, err := s.UpdatePlayerState(ctx, &room.UpdatePlayerStateParams{
		Action:   room.PlayerActionSeek,
		SenderId: aliceResp.JoinedMember.Id,
		RoomId:   "abc",
	})
	require.ErrorIs(t, err, room.ErrValidationError, "seek without time must be rejected")

	_, err = s.UpdatePlayerState(ctx, &room.UpdatePlayerStateParams{
		Action:   room.PlayerAction("rewind"),
		SenderId: aliceResp.JoinedMember.Id,
		RoomId:   "abc",
	})
	require.ErrorIs(t, err, room.ErrValidationError, "unknown action must be rejected")

	_, err = s.UpdatePlayerState(ctx, &room.UpdatePlayerStateParams{
		Action:   room.PlayerActionPlay,
		Time:     floatPtr(-1),
		SenderId: aliceResp.JoinedMember.Id,
		RoomId:   "abc",
	})
	require.ErrorIs(t, err, room.ErrValidationError, "negative time must be rejected")
}

func TestTakeHost(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, 9, time.Minute)

	join(t, s, "abc", "Alice")
	bobResp := join(t, s, "abc", "Bob")

	takeResp, err := s.TakeHost(ctx, &room.TakeHostParams{
		SenderId: bobResp.JoinedMember.Id,
		RoomId:   "abc",
	})
	require.NoError(t, err)
	assert.Equal(t, bobResp.JoinedMember.Id, takeResp.HostId)
	assert.Equal(t, "host changed from Alice to Bob", takeResp.Log.Text)
	assert.Len(t, takeResp.Conns, 2)

	// the new host can drive playback
	playResp, err := s.UpdatePlayerState(ctx, &room.UpdatePlayerStateParams{
		Action:   room.PlayerActionPlay,
		Time:     floatPtr(0),
		SenderId: bobResp.JoinedMember.Id,
		RoomId:   "abc",
	})
	require.NoError(t, err)
	assert.True(t, playResp.Player.IsPlaying)
}

func TestSendChat(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, 9, time.Minute)

	aliceResp := join(t, s, "abc", "Alice")
	join(t, s, "abc", "Bob")

	chatResp, err := s.SendChat(ctx, &room.SendChatParams{
		Text:     "hello there",
		SenderId: aliceResp.JoinedMember.Id,
		RoomId:   "abc",
	})
	require.NoError(t, err)
	require.NotNil(t, chatResp.Message)
	assert.Equal(t, aliceResp.JoinedMember.Id, chatResp.Message.MemberId)
	assert.Equal(t, "Alice", chatResp.Message.Username)
	assert.Equal(t, "hello there", chatResp.Message.Text)
	assert.Equal(t, "Alice: hello there", chatResp.Log.Text)
	assert.Nil(t, chatResp.RenamedMember)
	assert.Len(t, chatResp.Conns, 2)

	_, err = s.SendChat(ctx, &room.SendChatParams{
		Text:     "   ",
		SenderId: aliceResp.JoinedMember.Id,
		RoomId:   "abc",
	})
	require.ErrorIs(t, err, room.ErrValidationError)

	_, err = s.SendChat(ctx, &room.SendChatParams{
		Text:     "hi",
		SenderId: "no-such-member",
		RoomId:   "abc",
	})
	require.ErrorIs(t, err, room.ErrMemberNotFound)
}

func TestRenameCommand(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, 9, time.Minute)

	guestResp := join(t, s, "abc", "Guest-512")
	join(t, s, "abc", "Bob")

	renameResp, err := s.SendChat(ctx, &room.SendChatParams{
		Text:     "/name Alice",
		SenderId: guestResp.JoinedMember.Id,
		RoomId:   "abc",
	})
	require.NoError(t, err)
	assert.Nil(t, renameResp.Message)
	require.NotNil(t, renameResp.RenamedMember)
	assert.Equal(t, "Alice", renameResp.RenamedMember.Username)
	assert.Equal(t, "Guest-512 changed name to Alice", renameResp.Log.Text)
	require.Len(t, renameResp.Members, 2)
	assert.Equal(t, "Alice", renameResp.Members[0].Username)

	// the new name shows up in later log texts
	chatResp, err := s.SendChat(ctx, &room.SendChatParams{
		Text:     "hi",
		SenderId: guestResp.JoinedMember.Id,
		RoomId:   "abc",
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice: hi", chatResp.Log.Text)

	_, err = s.SendChat(ctx, &room.SendChatParams{
		Text:     "/name   ",
		SenderId: guestResp.JoinedMember.Id,
		RoomId:   "abc",
	})
	require.ErrorIs(t, err, room.ErrInvalidName)

	_, err = s.SendChat(ctx, &room.SendChatParams{
		Text:     "/name " + strings.Repeat("x", 33),
		SenderId: guestResp.JoinedMember.Id,
		RoomId:   "abc",
	})
	require.ErrorIs(t, err, room.ErrInvalidName)
}

func TestDisconnectMember(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, 9, time.Minute)

	aliceResp := join(t, s, "abc", "Alice")
	bobResp := join(t, s, "abc", "Bob")
	carolResp := join(t, s, "abc", "Carol")

	// host leaves, earliest-joined remaining member takes over
	discResp, err := s.DisconnectMember(ctx, &room.DisconnectMemberParams{
		MemberId: aliceResp.JoinedMember.Id,
		RoomId:   "abc",
	})
	require.NoError(t, err)
	assert.Equal(t, aliceResp.JoinedMember.Id, discResp.LeftMemberId)
	require.NotNil(t, discResp.LeftLog)
	assert.Equal(t, "Alice left the room", discResp.LeftLog.Text)
	assert.Equal(t, bobResp.JoinedMember.Id, discResp.NewHostId)
	require.NotNil(t, discResp.HostLog)
	assert.Equal(t, "Bob became the host", discResp.HostLog.Text)
	assert.Len(t, discResp.Members, 2)
	assert.Len(t, discResp.Conns, 2)

	// non-host leaves, host stays
	discResp, err = s.DisconnectMember(ctx, &room.DisconnectMemberParams{
		MemberId: carolResp.JoinedMember.Id,
		RoomId:   "abc",
	})
	require.NoError(t, err)
	assert.Empty(t, discResp.NewHostId)
	assert.Nil(t, discResp.HostLog)
	assert.Len(t, discResp.Members, 1)

	state, err := s.GetRoomState(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, bobResp.JoinedMember.Id, state.HostId)

	// last member leaves, nobody to notify
	discResp, err = s.DisconnectMember(ctx, &room.DisconnectMemberParams{
		MemberId: bobResp.JoinedMember.Id,
		RoomId:   "abc",
	})
	require.NoError(t, err)
	require.NotNil(t, discResp.LeftLog)
	assert.Empty(t, discResp.NewHostId)
	assert.Empty(t, discResp.Conns)

	// unknown member is a no-op
	discResp, err = s.DisconnectMember(ctx, &room.DisconnectMemberParams{
		MemberId: "no-such-member",
		RoomId:   "abc",
	})
	require.NoError(t, err)
	assert.Nil(t, discResp.LeftLog)
}

func TestNotifyVideoUploaded(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, 9, time.Minute)

	// absent room: upload is accepted, nobody to notify
	resp, err := s.NotifyVideoUploaded(ctx, &room.NotifyVideoUploadedParams{
		Video:  room.Video{OriginalName: "movie.mp4"},
		RoomId: "no-such-room",
	})
	require.NoError(t, err)
	assert.False(t, resp.Notified)

	join(t, s, "abc", "Alice")
	join(t, s, "abc", "Bob")

	resp, err = s.NotifyVideoUploaded(ctx, &room.NotifyVideoUploadedParams{
		Video: room.Video{
			OriginalName: "movie.mp4",
			StoredName:   "deadbeef.mp4",
			Size:         1024,
			URL:          "/uploads/deadbeef.mp4",
			UploadedAt:   time.Now(),
		},
		RoomId: "abc",
	})
	require.NoError(t, err)
	assert.True(t, resp.Notified)
	assert.Equal(t, "video uploaded: movie.mp4", resp.Log.Text)
	assert.Len(t, resp.Conns, 2)

	state, err := s.GetRoomState(ctx, "abc")
	require.NoError(t, err)
	require.NotNil(t, state.Video)
	assert.Equal(t, "deadbeef.mp4", state.Video.StoredName)
}

func TestRoomStateLogWindow(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, 9, time.Minute)

	aliceResp := join(t, s, "abc", "Alice")

	for i := 0; i < 60; i++ {
		_, err := s.SendChat(ctx, &room.SendChatParams{
			Text:     fmt.Sprintf("message %d", i),
			SenderId: aliceResp.JoinedMember.Id,
			RoomId:   "abc",
		})
		require.NoError(t, err)
	}

	state, err := s.GetRoomState(ctx, "abc")
	require.NoError(t, err)
	require.Len(t, state.Log, 50)
	assert.Equal(t, "Alice: message 59", state.Log[49].Text)
	assert.Equal(t, "Alice: message 10", state.Log[0].Text)
}

func TestEvictEmptyRooms(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, 9, time.Millisecond)

	aliceResp := join(t, s, "abc", "Alice")
	join(t, s, "xyz", "Bob")

	_, err := s.DisconnectMember(ctx, &room.DisconnectMemberParams{
		MemberId: aliceResp.JoinedMember.Id,
		RoomId:   "abc",
	})
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	deleted, err := s.EvictEmptyRooms(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	_, err = s.GetRoomState(ctx, "abc")
	require.ErrorIs(t, err, room.ErrRoomNotFound)

	// the occupied room survives
	state, err := s.GetRoomState(ctx, "xyz")
	require.NoError(t, err)
	assert.Len(t, state.Members, 1)
}
