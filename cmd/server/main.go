package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/watchroom/server/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 80,
	}
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
	membersLimit = configVar[int]{
		envKey:       "SERVER_MEMBERS_LIMIT",
		flagKey:      "members-limit",
		defaultValue: 9,
	}
	uploadDir = configVar[string]{
		envKey:       "SERVER_UPLOAD_DIR",
		flagKey:      "upload-dir",
		defaultValue: "/var/lib/watchroom/uploads",
	}
	maxUploadMB = configVar[int64]{
		envKey:       "SERVER_MAX_UPLOAD_MB",
		flagKey:      "max-upload-mb",
		defaultValue: 512,
	}
	roomTTL = configVar[time.Duration]{
		envKey:       "SERVER_ROOM_TTL",
		flagKey:      "room-ttl",
		defaultValue: 30 * time.Second,
	}
)

func loadAppConfig() *app.AppConfig {
	pflag.Int(port.flagKey, port.defaultValue, "Server port")
	pflag.String(host.flagKey, host.defaultValue, "Server host")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.Int(membersLimit.flagKey, membersLimit.defaultValue, "Maximum number of members in the room")
	pflag.String(uploadDir.flagKey, uploadDir.defaultValue, "Directory for uploaded videos")
	pflag.Int64(maxUploadMB.flagKey, maxUploadMB.defaultValue, "Maximum upload size in megabytes")
	pflag.Duration(roomTTL.flagKey, roomTTL.defaultValue, "How long an empty room is kept before eviction")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	viper.BindEnv(port.flagKey, port.envKey)
	viper.BindEnv(host.flagKey, host.envKey)
	viper.BindEnv(logLevel.flagKey, logLevel.envKey)
	viper.BindEnv(membersLimit.flagKey, membersLimit.envKey)
	viper.BindEnv(uploadDir.flagKey, uploadDir.envKey)
	viper.BindEnv(maxUploadMB.flagKey, maxUploadMB.envKey)
	viper.BindEnv(roomTTL.flagKey, roomTTL.envKey)

	viper.SetDefault(port.flagKey, port.defaultValue)
	viper.SetDefault(host.flagKey, host.defaultValue)
	viper.SetDefault(logLevel.flagKey, logLevel.defaultValue)
	viper.SetDefault(membersLimit.flagKey, membersLimit.defaultValue)
	viper.SetDefault(uploadDir.flagKey, uploadDir.defaultValue)
	viper.SetDefault(maxUploadMB.flagKey, maxUploadMB.defaultValue)
	viper.SetDefault(roomTTL.flagKey, roomTTL.defaultValue)

	config := &app.AppConfig{
		Host:         viper.GetString(host.flagKey),
		Port:         viper.GetInt(port.flagKey),
		LogLevel:     viper.GetString(logLevel.flagKey),
		MembersLimit: viper.GetInt(membersLimit.flagKey),
		UploadDir:    viper.GetString(uploadDir.flagKey),
		MaxUploadMB:  viper.GetInt64(maxUploadMB.flagKey),
		RoomTTL:      viper.GetDuration(roomTTL.flagKey),
	}

	return config
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	log.Fatal(app.Run(ctx, appConfig))
}
