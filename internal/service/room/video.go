package room

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/watchroom/server/internal/repository/room"
)

type NotifyVideoUploadedParams struct {
	Video  Video
	RoomId string
}

type NotifyVideoUploadedResponse struct {
	// Notified is false when the room does not exist; the upload itself is
	// still fine, there is just nobody to tell.
	Notified bool
	Video    Video
	Log      LogEntry
	Conns    []*websocket.Conn
}

// NotifyVideoUploaded replaces the room video wholesale after the upload
// collaborator stored the file.
func (s *service) NotifyVideoUploaded(ctx context.Context, params *NotifyVideoUploadedParams) (NotifyVideoUploadedResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.roomRepo.RoomExists(ctx, params.RoomId)
	if err != nil {
		return NotifyVideoUploadedResponse{}, fmt.Errorf("failed to check room: %w", err)
	}
	if !exists {
		return NotifyVideoUploadedResponse{}, nil
	}

	if err := s.roomRepo.SetVideo(ctx, &room.SetVideoParams{
		Video: room.Video{
			OriginalName: params.Video.OriginalName,
			StoredName:   params.Video.StoredName,
			Size:         params.Video.Size,
			URL:          params.Video.URL,
			UploadedAt:   params.Video.UploadedAt,
		},
		RoomId: params.RoomId,
	}); err != nil {
		return NotifyVideoUploadedResponse{}, fmt.Errorf("failed to set video: %w", err)
	}

	entry, err := s.roomRepo.AppendLog(ctx, &room.AppendLogParams{
		Kind:   room.LogKindVideoUploaded,
		Text:   fmt.Sprintf("video uploaded: %s", params.Video.OriginalName),
		RoomId: params.RoomId,
	})
	if err != nil {
		return NotifyVideoUploadedResponse{}, fmt.Errorf("failed to append log: %w", err)
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		return NotifyVideoUploadedResponse{}, fmt.Errorf("failed to get conns by room id: %w", err)
	}

	s.logger.InfoContext(ctx, "video uploaded", "room_id", params.RoomId, "stored_name", params.Video.StoredName)

	return NotifyVideoUploadedResponse{
		Notified: true,
		Video:    params.Video,
		Log:      logEntryFromRepo(entry),
		Conns:    conns,
	}, nil
}
