package room

import "errors"

var (
	ErrRoomNotFound         = errors.New("room not found")
	ErrPlaybackNotFound     = errors.New("playback not found")
	ErrCredentialsNotFound  = errors.New("credentials not found")
	ErrMemberNotFound       = errors.New("member not found")
	ErrConnectTokenNotFound = errors.New("connect token not found")
)
