package room

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/watchroom/server/internal/repository/room"
	"github.com/watchroom/server/pkg/randstr"
)

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrMemberNotFound   = errors.New("member not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrRoomFull         = errors.New("room is full")
	ErrInvalidName      = errors.New("invalid name")
	ErrValidationError  = errors.New("validation error")
)

const (
	renameCommandPrefix = "/name "
	maxUsernameLength   = 32
	roomStateLogLimit   = 50
)

type iRoomRepo interface {
	RoomExists(ctx context.Context, roomId string) (bool, error)
	AddMember(context.Context, *room.AddMemberParams) error
	RemoveMember(context.Context, *room.RemoveMemberParams) error
	GetMember(context.Context, *room.GetMemberParams) (room.Member, error)
	GetMemberIds(ctx context.Context, roomId string) ([]string, error)
	UpdateMemberUsername(ctx context.Context, roomId, memberId, username string) error
	GetHostId(ctx context.Context, roomId string) (string, error)
	SetHostId(ctx context.Context, roomId, memberId string) error
	GetPlayer(ctx context.Context, roomId string) (room.Player, error)
	UpdatePlayerState(context.Context, *room.UpdatePlayerStateParams) (room.Player, error)
	GetVideo(ctx context.Context, roomId string) (*room.Video, error)
	SetVideo(context.Context, *room.SetVideoParams) error
	AppendLog(context.Context, *room.AppendLogParams) (room.LogEntry, error)
	GetLastLog(ctx context.Context, roomId string, limit int) ([]room.LogEntry, error)
	DeleteEmptyRooms(ctx context.Context, emptyFor time.Duration) (int, error)
}

type iConnRepo interface {
	Add(conn *websocket.Conn, roomId, memberId string) error
	RemoveByMemberId(memberId string) error
	GetConn(memberId string) (*websocket.Conn, error)
}

type iGenerator interface {
	GenerateRandomString(length int) string
}

type Config struct {
	MembersLimit int
	EmptyRoomTTL time.Duration
}

type service struct {
	roomRepo     iRoomRepo
	connRepo     iConnRepo
	generator    iGenerator
	membersLimit int
	emptyRoomTTL time.Duration
	logger       *slog.Logger

	// serializes every room mutation so each inbound event is applied and its
	// broadcast set computed as one unit
	mu sync.Mutex
}

func NewService(roomRepo iRoomRepo, connRepo iConnRepo, cfg *Config, logger *slog.Logger) *service {
	s := service{
		roomRepo:     roomRepo,
		connRepo:     connRepo,
		membersLimit: cfg.MembersLimit,
		emptyRoomTTL: cfg.EmptyRoomTTL,
		logger:       logger,
	}

	s.generator = randstr.New([]byte("0123456789"))

	return &s
}

func mapRepoError(err error) error {
	switch {
	case errors.Is(err, room.ErrRoomNotFound):
		return ErrRoomNotFound
	case errors.Is(err, room.ErrMemberNotFound):
		return ErrMemberNotFound
	}

	return err
}
