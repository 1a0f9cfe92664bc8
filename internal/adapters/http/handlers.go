package http

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Huddle/internal/app/orch"
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
)

// Handlers is the REST boundary over the room directory and peer bindings.
type Handlers struct {
	Orch *orch.Orchestrator
	ICE  webrtc.Configuration
}

type roomRequest struct {
	Name   string   `json:"name"`
	Emails []string `json:"emails"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type peerRequest struct {
	Email  string `json:"email"`
	PeerID string `json:"peerId"`
}

const sessionEmailKey = "email"

// sessionIdentity returns the identity remembered by POST /api/user, if any.
func sessionIdentity(c *gin.Context) domain.Identity {
	raw, ok := sessions.Default(c).Get(sessionEmailKey).(string)
	if !ok {
		return ""
	}
	id, err := domain.NewIdentity(raw)
	if err != nil {
		return ""
	}
	return id
}

func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrNotFound), errors.Is(err, core.ErrNotInRoom):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrAlreadyExists), errors.Is(err, core.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, core.ErrMalformedMessage):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("module", "adapters.http").Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func (h *Handlers) listRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.Orch.Rooms.List()})
}

func (h *Handlers) getRoom(c *gin.Context) {
	room, err := h.Orch.Rooms.Get(domain.RoomName(c.Param("roomName")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (h *Handlers) createRoom(c *gin.Context) {
	var req roomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	name, err := domain.NewRoomName(req.Name)
	if err != nil {
		badRequest(c, err)
		return
	}
	room, err := h.Orch.Rooms.Create(c.Request.Context(), name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, room)
}

// updateRoom replaces an empty room, renaming it when the body carries a new name.
func (h *Handlers) updateRoom(c *gin.Context) {
	var req roomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	current := domain.RoomName(c.Param("roomName"))
	room := domain.Room{Name: current}
	if req.Name != "" {
		name, err := domain.NewRoomName(req.Name)
		if err != nil {
			badRequest(c, err)
			return
		}
		room.Name = name
	}
	for _, raw := range req.Emails {
		id, err := domain.NewIdentity(raw)
		if err != nil {
			badRequest(c, err)
			return
		}
		room.Emails = append(room.Emails, id)
	}
	if err := h.Orch.Rooms.Replace(c.Request.Context(), current, room); err != nil {
		writeError(c, err)
		return
	}
	updated, err := h.Orch.Rooms.Get(room.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handlers) deleteRoom(c *gin.Context) {
	if err := h.Orch.Rooms.Delete(c.Request.Context(), domain.RoomName(c.Param("roomName"))); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) addParticipant(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	id, err := domain.NewIdentity(req.Email)
	if err != nil {
		badRequest(c, err)
		return
	}
	name := domain.RoomName(c.Param("roomName"))
	emails, err := h.Orch.Rooms.AddMember(c.Request.Context(), name, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, domain.Room{Name: name, Emails: emails})
}

// removeParticipant drops the member and broadcasts leave-room to the rest of the room.
func (h *Handlers) removeParticipant(c *gin.Context) {
	id, err := domain.NewIdentity(c.Param("email"))
	if err != nil {
		badRequest(c, err)
		return
	}
	err = h.Orch.RemoveParticipant(c.Request.Context(), domain.RoomName(c.Param("roomName")), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) bindPeer(c *gin.Context) {
	var req peerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	id, err := domain.NewIdentity(req.Email)
	if err != nil {
		badRequest(c, err)
		return
	}
	if req.PeerID == "" || len(req.PeerID) > domain.MaxPeerIDLen {
		badRequest(c, errors.New("invalid peerId"))
		return
	}
	if err := h.Orch.Peers.SetPeerID(c.Request.Context(), id, domain.PeerID(req.PeerID)); err != nil {
		writeError(c, err)
		return
	}
	// the signaling socket opened by this browser binds to id on connect
	session := sessions.Default(c)
	session.Set(sessionEmailKey, string(id))
	if err := session.Save(); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("email", string(id)).Msg("session save")
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) emailForPeer(c *gin.Context) {
	id, ok := h.Orch.Peers.IdentityFor(c.Request.Context(), domain.PeerID(c.Param("peerId")))
	if !ok {
		writeError(c, core.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, id)
}

func (h *Handlers) peerForEmail(c *gin.Context) {
	peer, ok := h.Orch.Peers.PeerIDFor(c.Request.Context(), domain.Identity(c.Param("email")))
	if !ok {
		writeError(c, core.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, peer)
}

func (h *Handlers) iceServers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"iceServers": h.ICE.ICEServers})
}
