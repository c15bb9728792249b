package room

type AddMemberParams struct {
	MemberId string
	Username string
	RoomId   string
}

type RemoveMemberParams struct {
	MemberId string
	RoomId   string
}

type GetMemberParams struct {
	MemberId string
	RoomId   string
}

type UpdatePlayerStateParams struct {
	IsPlaying   *bool
	CurrentTime *float64
	RoomId      string
}

type SetVideoParams struct {
	Video  Video
	RoomId string
}

type AppendLogParams struct {
	Kind   LogKind
	Text   string
	RoomId string
}
