package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/parleychat/parley/internal/service"
	"github.com/parleychat/parley/internal/transport/http/middleware"
	"github.com/parleychat/parley/pkg/validator"
	"go.uber.org/zap"
)

type RoomHandler struct {
	roomService *service.RoomService
	logger      *zap.Logger
}

func NewRoomHandler(roomService *service.RoomService, logger *zap.Logger) *RoomHandler {
	return &RoomHandler{roomService: roomService, logger: logger}
}

func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input service.CreateRoomInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateRoom(input.Name, input.Description); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	room, err := h.roomService.Create(r.Context(), userID, input)
	if err != nil {
		writeDomainError(w, h.logger, "create room", err)
		return
	}

	writeJSON(w, http.StatusCreated, room)
}

// List returns the rooms visible to the caller: every public room plus the
// private rooms the caller belongs to.
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	rooms, err := h.roomService.List(r.Context(), userID)
	if err != nil {
		writeDomainError(w, h.logger, "list rooms", err)
		return
	}

	writeJSON(w, http.StatusOK, rooms)
}

func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	roomID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid room ID")
		return
	}

	room, err := h.roomService.Get(r.Context(), userID, roomID)
	if err != nil {
		writeDomainError(w, h.logger, "get room", err)
		return
	}

	writeJSON(w, http.StatusOK, room)
}

func (h *RoomHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	roomID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid room ID")
		return
	}

	room, alreadyMember, err := h.roomService.Join(r.Context(), userID, roomID)
	if err != nil {
		writeDomainError(w, h.logger, "join room", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"room":          room,
		"alreadyMember": alreadyMember,
	})
}

func (h *RoomHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	roomID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid room ID")
		return
	}

	members, err := h.roomService.Members(r.Context(), userID, roomID)
	if err != nil {
		writeDomainError(w, h.logger, "list room members", err)
		return
	}

	writeJSON(w, http.StatusOK, members)
}

func (h *RoomHandler) Leave(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	roomID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid room ID")
		return
	}

	if err := h.roomService.Leave(r.Context(), userID, roomID); err != nil {
		writeDomainError(w, h.logger, "leave room", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
