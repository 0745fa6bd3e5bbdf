package room

type SetRoomParams struct {
	RoomId     string
	HostId     string
	IsActive   bool
	Visibility string
	JoinCode   string
	CreatedAt  int64
}

type SetPlaybackParams struct {
	RoomId   string
	Playback Playback
}

type SetCredentialsParams struct {
	Identity    string
	Credentials Credentials
}

type SetConnectTokenParams struct {
	Token    string
	RoomId   string
	MemberId string
	Role     string
}

type AddMemberParams struct {
	RoomId   string
	MemberId string
}

type RemoveMemberParams struct {
	RoomId   string
	MemberId string
}
