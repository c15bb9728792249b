package room

import "time"

type LogKind string

const (
	LogKindUserJoined    LogKind = "user_joined"
	LogKindUserLeft      LogKind = "user_left"
	LogKindHostAssigned  LogKind = "host_assigned"
	LogKindHostChanged   LogKind = "host_changed"
	LogKindNameChanged   LogKind = "name_changed"
	LogKindVideoUploaded LogKind = "video_uploaded"
	LogKindVideoPlay     LogKind = "video_play"
	LogKindVideoPause    LogKind = "video_pause"
	LogKindVideoSeek     LogKind = "video_seek"
	LogKindChat          LogKind = "chat"
)

type Member struct {
	Username string
}

type Player struct {
	IsPlaying   bool
	CurrentTime float64
}

type Video struct {
	OriginalName string
	StoredName   string
	Size         int64
	URL          string
	UploadedAt   time.Time
}

type LogEntry struct {
	Id   string
	Kind LogKind
	Text string
	Time time.Time
}
