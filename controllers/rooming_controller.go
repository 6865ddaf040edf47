package controllers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"hotel-rooming/middleware"
	"hotel-rooming/models"
	"hotel-rooming/services"
	"hotel-rooming/utils"

	"github.com/gin-gonic/gin"
)

// ---------------------------
// Payload / DTOs
// ---------------------------

type SaveRoomsPayload struct {
	Rooms    []models.Room `json:"rooms"`
	LayoutID *uint         `json:"layoutId,omitempty"`
	Version  *int          `json:"version,omitempty"`
}

type AutoAssignPayload struct {
	BookingID uint   `json:"bookingId" binding:"required"`
	HotelName string `json:"hotelName"`
}

type AssignedPayload struct {
	IDs []uint `json:"ids"`
}

// ---------------------------
// Controller
// ---------------------------

type RoomingController struct {
	Svc *services.RoomingService
}

func NewRoomingController(svc *services.RoomingService) *RoomingController {
	return &RoomingController{Svc: svc}
}

// layoutKey builds the key from the authenticated user and the path.
func (rc *RoomingController) layoutKey(c *gin.Context) (services.LayoutKey, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "unauthorized")
		return services.LayoutKey{}, false
	}
	programID, ok := utils.ParseUintParam(c, "programId")
	if !ok {
		utils.JSONError(c, http.StatusBadRequest, "invalid_program_id")
		return services.LayoutKey{}, false
	}
	hotel := strings.TrimSpace(c.Param("hotel"))
	if hotel == "" {
		utils.JSONError(c, http.StatusBadRequest, "invalid_hotel_name")
		return services.LayoutKey{}, false
	}
	return services.LayoutKey{UserID: userID, ProgramID: programID, HotelName: hotel}, true
}

func (rc *RoomingController) program(c *gin.Context) (uint, uint, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "unauthorized")
		return 0, 0, false
	}
	programID, ok := utils.ParseUintParam(c, "programId")
	if !ok {
		utils.JSONError(c, http.StatusBadRequest, "invalid_program_id")
		return 0, 0, false
	}
	return userID, programID, true
}

// ----------------------------------------------------
// GET /api/programs/:programId/rooms/:hotel
// ----------------------------------------------------

func (rc *RoomingController) GetLayout(c *gin.Context) {
	key, ok := rc.layoutKey(c)
	if !ok {
		return
	}
	layout, err := rc.Svc.GetLayout(c.Request.Context(), key)
	if err != nil {
		respondError(c, "get layout", err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, layout)
}

// ----------------------------------------------------
// PUT /api/programs/:programId/rooms/:hotel
// ----------------------------------------------------

func (rc *RoomingController) SaveLayout(c *gin.Context) {
	key, ok := rc.layoutKey(c)
	if !ok {
		return
	}
	var payload SaveRoomsPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		log.Printf("❌ JSON BINDING ERROR (400): %v", err)
		utils.JSONError(c, http.StatusBadRequest, "invalid_request_payload")
		return
	}
	layout, err := rc.Svc.ManualSave(c.Request.Context(), key, payload.Rooms, services.SaveOptions{
		LayoutID: payload.LayoutID,
		Version:  payload.Version,
	})
	if err != nil {
		respondError(c, "save layout", err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, layout)
}

// ----------------------------------------------------
// POST /api/programs/:programId/rooms/auto-assign
// ----------------------------------------------------

func (rc *RoomingController) AutoAssign(c *gin.Context) {
	userID, programID, ok := rc.program(c)
	if !ok {
		return
	}
	var payload AutoAssignPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		log.Printf("❌ JSON BINDING ERROR (400): %v", err)
		utils.JSONError(c, http.StatusBadRequest, "invalid_request_payload")
		return
	}
	results, err := rc.Svc.AutoAssign(c.Request.Context(), userID, programID, payload.HotelName, payload.BookingID)
	if err != nil {
		respondError(c, "auto-assign", err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, results)
}

// ----------------------------------------------------
// POST /api/programs/:programId/rooms/assigned
// ----------------------------------------------------

func (rc *RoomingController) IsAssigned(c *gin.Context) {
	userID, programID, ok := rc.program(c)
	if !ok {
		return
	}
	var payload AssignedPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		log.Printf("❌ JSON BINDING ERROR (400): %v", err)
		utils.JSONError(c, http.StatusBadRequest, "invalid_request_payload")
		return
	}
	assigned, err := rc.Svc.IsAssigned(c.Request.Context(), userID, programID, payload.IDs)
	if err != nil {
		respondError(c, "is-assigned", err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"assigned": assigned})
}

// ----------------------------------------------------
// GET /api/programs/:programId/rooms/:hotel/unassigned?q=
// ----------------------------------------------------

func (rc *RoomingController) SearchUnassigned(c *gin.Context) {
	key, ok := rc.layoutKey(c)
	if !ok {
		return
	}
	hits, err := rc.Svc.SearchUnassigned(c.Request.Context(), key, c.Query("q"))
	if err != nil {
		respondError(c, "search unassigned", err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, hits)
}

// ----------------------------------------------------
// GET /api/programs/:programId/rooms
// ----------------------------------------------------

func (rc *RoomingController) ListLayouts(c *gin.Context) {
	userID, programID, ok := rc.program(c)
	if !ok {
		return
	}
	rows, err := rc.Svc.ListLayouts(c.Request.Context(), userID, programID)
	if err != nil {
		respondError(c, "list layouts", err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, rows)
}

// respondError maps service errors onto HTTP statuses.
func respondError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidKey):
		utils.JSONError(c, http.StatusBadRequest, services.ErrInvalidKey.Error())
	case errors.Is(err, services.ErrInvalidCapacity):
		log.Printf("⚠️ %s: %v", op, err)
		utils.JSONError(c, http.StatusUnprocessableEntity, services.ErrInvalidCapacity.Error())
	case errors.Is(err, services.ErrConcurrentModification):
		log.Printf("⚠️ %s: %v", op, err)
		utils.JSONError(c, http.StatusConflict, services.ErrConcurrentModification.Error())
	case errors.Is(err, services.ErrLeaderConflict):
		log.Printf("⚠️ %s: %v", op, err)
		utils.JSONError(c, http.StatusConflict, services.ErrLeaderConflict.Error())
	case errors.Is(err, services.ErrLockTimeout):
		log.Printf("⚠️ %s: %v", op, err)
		utils.JSONError(c, http.StatusServiceUnavailable, services.ErrLockTimeout.Error())
	default:
		log.Printf("❌ %s: %v", op, err)
		utils.JSONError(c, http.StatusInternalServerError, "internal_error")
	}
}
