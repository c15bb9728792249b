package room

import "time"

type Member struct {
	Id       string `json:"id"`
	Username string `json:"username"`
}

type Player struct {
	IsPlaying   bool    `json:"is_playing"`
	CurrentTime float64 `json:"current_time"`
}

type Video struct {
	OriginalName string    `json:"original_name"`
	StoredName   string    `json:"stored_name"`
	Size         int64     `json:"size"`
	URL          string    `json:"url"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

type LogEntry struct {
	Id   string    `json:"id"`
	Kind string    `json:"kind"`
	Text string    `json:"text"`
	Time time.Time `json:"time"`
}

type ChatMessage struct {
	Id       string    `json:"id"`
	MemberId string    `json:"member_id"`
	Username string    `json:"username"`
	Text     string    `json:"text"`
	Time     time.Time `json:"time"`
}

type RoomState struct {
	RoomId  string     `json:"room_id"`
	HostId  string     `json:"host_id"`
	Members []Member   `json:"members"`
	Video   *Video     `json:"video"`
	Player  Player     `json:"player"`
	Log     []LogEntry `json:"log"`
}
