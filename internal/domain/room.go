package domain

const (
	RoleHost   = "host"
	RoleViewer = "viewer"
)

const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

type Room struct {
	Id         string `json:"id"`
	HostId     string `json:"host_id"`
	IsActive   bool   `json:"is_active"`
	Visibility string `json:"visibility"`
	JoinCode   string `json:"join_code,omitempty"`
	CreatedAt  int64  `json:"created_at"`
}
