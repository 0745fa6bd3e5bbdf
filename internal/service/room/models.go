package room

import "github.com/auxroom/server/internal/domain"

type MemberJoinPayload struct {
	MemberId    string `json:"member_id"`
	MemberCount int    `json:"member_count"`
}

type MemberLeavePayload struct {
	MemberId    string `json:"member_id"`
	MemberCount int    `json:"member_count"`
}

// ConnectedPayload is sent directly to a freshly registered connection so
// it can render the room without waiting for the next host tick.
type ConnectedPayload struct {
	RoomId    string           `json:"room_id"`
	MemberId  string           `json:"member_id"`
	Role      string           `json:"role"`
	MemberIds []string         `json:"member_ids"`
	Playback  *domain.Playback `json:"playback"`
}
