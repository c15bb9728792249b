package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/watchroom/server/internal/service/room"
	"github.com/watchroom/server/internal/service/upload"
	"github.com/watchroom/server/pkg/validator"
	"github.com/watchroom/server/pkg/wsrouter"
)

type iRoomService interface {
	JoinRoom(context.Context, *room.JoinRoomParams) (room.JoinRoomResponse, error)
	DisconnectMember(context.Context, *room.DisconnectMemberParams) (room.DisconnectMemberResponse, error)
	SendChat(context.Context, *room.SendChatParams) (room.SendChatResponse, error)
	UpdatePlayerState(context.Context, *room.UpdatePlayerStateParams) (room.UpdatePlayerStateResponse, error)
	TakeHost(context.Context, *room.TakeHostParams) (room.TakeHostResponse, error)
	NotifyVideoUploaded(context.Context, *room.NotifyVideoUploadedParams) (room.NotifyVideoUploadedResponse, error)
	GetRoomState(ctx context.Context, roomId string) (room.RoomState, error)
}

type iUploadService interface {
	Store(context.Context, *upload.StoreParams) (upload.StoreResponse, error)
	Dir() string
	MaxFileSize() int64
}

type controller struct {
	roomService   iRoomService
	uploadService iUploadService
	upgrader      websocket.Upgrader
	validate      *validator.Validator
	wsmux         *wsrouter.WSRouter
	logger        *slog.Logger
}

func NewController(roomService iRoomService, uploadService iUploadService, logger *slog.Logger) *controller {
	c := controller{
		roomService:   roomService,
		uploadService: uploadService,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		validate: validator.NewValidator(),
		logger:   logger,
	}

	c.wsmux = c.getWSRouter()

	return &c
}
