package room

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/auxroom/server/internal/domain"
)

type ControlParams struct {
	ConnId  string
	Payload json.RawMessage
}

// Control re-publishes a host control message to the whole room, including
// back to the host for UI consistency. A non-host attempt is rejected and
// never forwarded.
func (s *service) Control(ctx context.Context, params *ControlParams) error {
	conn, err := s.connRepo.GetById(params.ConnId)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}

	if conn.Role != domain.RoleHost {
		s.logger.WarnContext(ctx, "control message from non-host dropped",
			"conn_id", conn.Id,
			"member_id", conn.MemberId,
			"room_id", conn.RoomId,
		)
		return ErrPermissionDenied
	}

	event := domain.Event{
		Type:      domain.EventTypeControl,
		Payload:   params.Payload,
		Timestamp: s.clock.Now().UnixMilli(),
	}

	if err := s.pubsub.Publish(ctx, conn.RoomId, event); err != nil {
		return fmt.Errorf("failed to publish control: %w", err)
	}

	return nil
}
