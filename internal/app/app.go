package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/watchroom/server/internal/controller"
	connInmemory "github.com/watchroom/server/internal/repository/connection/inmemory"
	roomInmemory "github.com/watchroom/server/internal/repository/room/inmemory"
	"github.com/watchroom/server/internal/service/room"
	"github.com/watchroom/server/internal/service/upload"
	"github.com/watchroom/server/pkg/ctxlogger"
)

const (
	activityLogCapacity = 500
	sweepInterval       = 15 * time.Second
)

type AppConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	LogLevel     string        `json:"log_level"`
	MembersLimit int           `json:"members_limit"`
	UploadDir    string        `json:"upload_dir"`
	MaxUploadMB  int64         `json:"max_upload_mb"`
	RoomTTL      time.Duration `json:"room_ttl"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.MembersLimit < 1 {
		return fmt.Errorf("members limit must be greater than 0")
	}
	if cfg.MaxUploadMB < 1 {
		return fmt.Errorf("max upload size must be greater than 0")
	}
	if cfg.RoomTTL <= 0 {
		return fmt.Errorf("room ttl must be greater than 0")
	}
	return nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		log.Fatal(err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	logger := slog.New(&h)

	roomRepo := roomInmemory.NewRepo(activityLogCapacity)
	connRepo := connInmemory.NewRepo()
	roomService := room.NewService(roomRepo, connRepo, &room.Config{
		MembersLimit: cfg.MembersLimit,
		EmptyRoomTTL: cfg.RoomTTL,
	}, logger)
	uploadService := upload.NewService(&upload.Config{
		Dir:         cfg.UploadDir,
		MaxFileSize: cfg.MaxUploadMB << 20,
	}, logger)
	controller := controller.NewController(roomService, uploadService, logger)
	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: controller.GetMux()}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	// sweep rooms that stayed empty past the grace period
	go func() {
		t := time.NewTicker(sweepInterval)
		defer t.Stop()

		for {
			select {
			case <-serverCtx.Done():
				return
			case <-t.C:
				deleted, err := roomService.EvictEmptyRooms(serverCtx)
				if err != nil {
					logger.WarnContext(serverCtx, "failed to evict empty rooms", "error", err)
					continue
				}
				if deleted > 0 {
					logger.InfoContext(serverCtx, "evicted empty rooms", "count", deleted)
				}
			}
		}
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}
