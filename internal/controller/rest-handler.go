package controller

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/auxroom/server/internal/service/room"
	"github.com/auxroom/server/pkg/rest"
)

type createRoomRequest struct {
	HostId       string `json:"host_id" validate:"required"`
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
	ExpiresAt    int64  `json:"expires_at" validate:"required"`
	Visibility   string `json:"visibility" validate:"required,oneof=public private"`
}

type createRoomResponse struct {
	RoomId       string `json:"room_id"`
	JoinCode     string `json:"join_code,omitempty"`
	ConnectToken string `json:"connect_token"`
}

func (c controller) createRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := rest.ReadJSON(r, &req); err != nil {
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	resp, err := c.roomService.CreateRoom(r.Context(), &room.CreateRoomParams{
		HostId:       req.HostId,
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		ExpiresAt:    req.ExpiresAt,
		Visibility:   req.Visibility,
	})
	if err != nil {
		c.logger.ErrorContext(r.Context(), "failed to create room", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal error"})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": createRoomResponse{
		RoomId:       resp.RoomId,
		JoinCode:     resp.JoinCode,
		ConnectToken: resp.ConnectToken,
	}})
}

type joinRoomRequest struct {
	JoinCode string `json:"join_code"`
}

type joinRoomResponse struct {
	MemberId     string `json:"member_id"`
	ConnectToken string `json:"connect_token"`
}

func (c controller) joinRoom(w http.ResponseWriter, r *http.Request) {
	roomId := chi.URLParam(r, "room-id")
	if roomId == "" {
		rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "room not found"})
		return
	}

	var req joinRoomRequest
	if err := rest.ReadJSON(r, &req); err != nil {
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	resp, err := c.roomService.JoinRoom(r.Context(), &room.JoinRoomParams{
		RoomId:   roomId,
		JoinCode: req.JoinCode,
	})
	if err != nil {
		c.writeRoomError(w, r, err, "failed to join room")
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": joinRoomResponse{
		MemberId:     resp.MemberId,
		ConnectToken: resp.ConnectToken,
	}})
}

type setRoomActiveRequest struct {
	HostId string `json:"host_id" validate:"required"`
}

func (c controller) startRoom(w http.ResponseWriter, r *http.Request) {
	c.setRoomActive(w, r, true)
}

func (c controller) stopRoom(w http.ResponseWriter, r *http.Request) {
	c.setRoomActive(w, r, false)
}

func (c controller) setRoomActive(w http.ResponseWriter, r *http.Request, isActive bool) {
	roomId := chi.URLParam(r, "room-id")
	if roomId == "" {
		rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "room not found"})
		return
	}

	var req setRoomActiveRequest
	if err := rest.ReadJSON(r, &req); err != nil {
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	if err := c.roomService.SetRoomActive(r.Context(), &room.SetRoomActiveParams{
		RoomId:   roomId,
		HostId:   req.HostId,
		IsActive: isActive,
	}); err != nil {
		c.writeRoomError(w, r, err, "failed to set room active")
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": "OK"})
}

func (c controller) getStatus(w http.ResponseWriter, r *http.Request) {
	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": c.pollerStatus.GetStatus()})
}

func (c controller) writeRoomError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, room.ErrRoomNotFound):
		rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "room not found"})
	case errors.Is(err, room.ErrPermissionDenied):
		rest.WriteJSON(w, http.StatusForbidden, rest.Envelope{"error": "permission denied"})
	default:
		c.logger.ErrorContext(r.Context(), msg, "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal error"})
	}
}
