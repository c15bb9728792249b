package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

var ErrFileTooLarge = errors.New("file too large")

const urlPrefix = "/uploads/"

type Video struct {
	OriginalName string    `json:"original_name"`
	StoredName   string    `json:"stored_name"`
	Size         int64     `json:"size"`
	URL          string    `json:"url"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

type Config struct {
	Dir         string
	MaxFileSize int64
}

type service struct {
	dir         string
	maxFileSize int64
	logger      *slog.Logger
}

func NewService(cfg *Config, logger *slog.Logger) *service {
	return &service{
		dir:         cfg.Dir,
		maxFileSize: cfg.MaxFileSize,
		logger:      logger,
	}
}

func (s *service) Dir() string {
	return s.dir
}

func (s *service) MaxFileSize() int64 {
	return s.maxFileSize
}

type StoreParams struct {
	FileName string
	Size     int64
	File     io.Reader
}

type StoreResponse struct {
	Video Video
}

// Store writes the payload under a generated unique name with the original
// extension preserved and returns the video metadata record.
func (s *service) Store(ctx context.Context, params *StoreParams) (StoreResponse, error) {
	if params.Size > s.maxFileSize {
		return StoreResponse{}, fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, params.Size, s.maxFileSize)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return StoreResponse{}, fmt.Errorf("failed to create upload dir: %w", err)
	}

	storedName := uuid.NewString() + filepath.Ext(params.FileName)
	path := filepath.Join(s.dir, storedName)

	dst, err := os.Create(path)
	if err != nil {
		return StoreResponse{}, fmt.Errorf("failed to create file: %w", err)
	}

	written, err := io.Copy(dst, io.LimitReader(params.File, s.maxFileSize+1))
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err == nil && written > s.maxFileSize {
		err = ErrFileTooLarge
	}
	if err != nil {
		os.Remove(path)
		return StoreResponse{}, fmt.Errorf("failed to store file: %w", err)
	}

	s.logger.InfoContext(ctx, "file stored", "stored_name", storedName, "size", written)

	return StoreResponse{
		Video: Video{
			OriginalName: params.FileName,
			StoredName:   storedName,
			Size:         written,
			URL:          urlPrefix + storedName,
			UploadedAt:   time.Now(),
		},
	}, nil
}
