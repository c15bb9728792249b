package controller

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/watchroom/server/internal/service/room"
	"github.com/watchroom/server/internal/service/upload"
	"github.com/watchroom/server/pkg/rest"
)

const uploadFormField = "video"

type uploadVideoForm struct {
	FileName string `json:"file_name" validate:"required"`
	Size     int64  `json:"size" validate:"gt=0"`
}

// uploadVideo accepts a multipart media payload, stores it and, when the
// route carries a room id, notifies the room about the new video.
func (c controller) uploadVideo(w http.ResponseWriter, r *http.Request) {
	roomId := chi.URLParam(r, "room-id")

	r.Body = http.MaxBytesReader(w, r.Body, c.uploadService.MaxFileSize()+1)

	file, header, err := r.FormFile(uploadFormField)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			c.logger.InfoContext(r.Context(), "upload rejected", "error", err)
			rest.WriteJSON(w, http.StatusRequestEntityTooLarge, rest.Envelope{"error": "file too large"})
			return
		}

		c.logger.InfoContext(r.Context(), "failed to read upload form", "error", err)
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": "missing video file"})
		return
	}
	defer file.Close()

	form := uploadVideoForm{FileName: header.Filename, Size: header.Size}
	if validationErrors, ok := c.validate.Validate(form); !ok {
		c.logger.InfoContext(r.Context(), "invalid upload", "errors", validationErrors)
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	storeResponse, err := c.uploadService.Store(r.Context(), &upload.StoreParams{
		FileName: header.Filename,
		Size:     header.Size,
		File:     file,
	})
	if err != nil {
		if errors.Is(err, upload.ErrFileTooLarge) {
			rest.WriteJSON(w, http.StatusRequestEntityTooLarge, rest.Envelope{"error": "file too large"})
			return
		}

		c.logger.WarnContext(r.Context(), "failed to store upload", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "failed to store file"})
		return
	}

	video := room.Video{
		OriginalName: storeResponse.Video.OriginalName,
		StoredName:   storeResponse.Video.StoredName,
		Size:         storeResponse.Video.Size,
		URL:          storeResponse.Video.URL,
		UploadedAt:   storeResponse.Video.UploadedAt,
	}

	if roomId != "" {
		notifyResponse, err := c.roomService.NotifyVideoUploaded(r.Context(), &room.NotifyVideoUploadedParams{
			Video:  video,
			RoomId: roomId,
		})
		if err != nil {
			c.logger.WarnContext(r.Context(), "failed to notify room", "room_id", roomId, "error", err)
		} else if notifyResponse.Notified {
			c.broadcast(r.Context(), notifyResponse.Conns, &Output{
				Type: "VIDEO_UPLOADED",
				Payload: map[string]any{
					"video": notifyResponse.Video,
					"log":   notifyResponse.Log,
				},
			})
		}
	}

	rest.WriteJSON(w, http.StatusCreated, rest.Envelope{"data": video})
}
