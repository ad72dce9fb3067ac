package handlers

import (
	"net/http"

	"github.com/LeBonSushi/ft-transcendence-sub000/internal/dto"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/middleware"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/models"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/services"
	"github.com/gin-gonic/gin"
)

type RoomHandler struct {
	roomService *services.RoomService
}

func NewRoomHandler(roomService *services.RoomService) *RoomHandler {
	return &RoomHandler{roomService: roomService}
}

// CreateRoom creates a new room with the current user as its admin
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	type CreateRoomRequest struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}

	var req CreateRoomRequest
	if !bindJSON(c, &req) {
		return
	}

	room, err := h.roomService.CreateRoom(c.Request.Context(), userID, req.Name, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToRoomDetailDTO(*room, userID))
}

// ListRooms returns all rooms the user is a member of
func (h *RoomHandler) ListRooms(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	memberships, err := h.roomService.ListRoomsForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	rooms := make([]dto.RoomWithRoleDTO, len(memberships))
	for i, m := range memberships {
		rooms[i] = dto.ToRoomWithRoleDTO(m)
	}

	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

// GetRoom returns room details with members
func (h *RoomHandler) GetRoom(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	room, err := h.roomService.GetRoom(c.Request.Context(), middleware.IDParam(c, "id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToRoomDetailDTO(*room, userID))
}

// UpdateRoom updates the name, description or status of a room
func (h *RoomHandler) UpdateRoom(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	type UpdateRoomRequest struct {
		Name        *string            `json:"name"`
		Description *string            `json:"description"`
		Status      *models.RoomStatus `json:"status"`
	}

	var req UpdateRoomRequest
	if !bindJSON(c, &req) {
		return
	}

	room, err := h.roomService.UpdateRoom(c.Request.Context(), middleware.IDParam(c, "id"), userID, services.UpdateRoomInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToRoomDTO(*room))
}

// DeleteRoom deletes a room. Only its creator can do this.
func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.roomService.DeleteRoom(c.Request.Context(), middleware.IDParam(c, "id"), userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Room deleted successfully"})
}

// JoinRoom adds the current user to a room as a member
func (h *RoomHandler) JoinRoom(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	member, err := h.roomService.JoinRoom(c.Request.Context(), middleware.IDParam(c, "id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToRoomMemberDTO(*member))
}

// LeaveRoom removes the current user from a room
func (h *RoomHandler) LeaveRoom(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.roomService.LeaveRoom(c.Request.Context(), middleware.IDParam(c, "id"), userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Left room successfully"})
}

// ListMembers returns the members of a room
func (h *RoomHandler) ListMembers(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	members, err := h.roomService.ListMembers(c.Request.Context(), middleware.IDParam(c, "id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": dto.ToRoomMemberDTOs(members)})
}

// UpdateMemberRole promotes or demotes a member
func (h *RoomHandler) UpdateMemberRole(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	type UpdateRoleRequest struct {
		Role models.RoomRole `json:"role" binding:"required"`
	}

	var req UpdateRoleRequest
	if !bindJSON(c, &req) {
		return
	}

	member, err := h.roomService.UpdateMemberRole(c.Request.Context(),
		middleware.IDParam(c, "id"),
		middleware.IDParam(c, "user_id"),
		req.Role,
		userID,
	)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToRoomMemberDTO(*member))
}

// KickMember removes another member from a room
func (h *RoomHandler) KickMember(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	err := h.roomService.KickMember(c.Request.Context(),
		middleware.IDParam(c, "id"),
		middleware.IDParam(c, "user_id"),
		userID,
	)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Member removed successfully"})
}
