package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/carebridge/carebridge-server/src/middleware"
	"github.com/carebridge/carebridge-server/src/models"
	"github.com/carebridge/carebridge-server/src/repositories"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ShiftHandler handles shift schedule requests
type ShiftHandler struct {
	shifts repositories.ShiftRepository
}

// NewShiftHandler creates a new shift handler
func NewShiftHandler(shifts repositories.ShiftRepository) *ShiftHandler {
	return &ShiftHandler{shifts: shifts}
}

// ShiftRequest is the create/update payload
type ShiftRequest struct {
	PatientID   uuid.UUID          `json:"patientId" binding:"required"`
	CaregiverID uuid.UUID          `json:"caregiverId" binding:"required"`
	StartTime   time.Time          `json:"startTime" binding:"required"`
	EndTime     time.Time          `json:"endTime" binding:"required"`
	Status      models.ShiftStatus `json:"status"`
	Notes       string             `json:"notes"`
}

// HandleList handles GET /shifts
func (h *ShiftHandler) HandleList(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	page := middleware.GetPagination(c)
	shifts, total, err := h.shifts.List(ctx, page)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    shifts,
		"pagination": gin.H{
			"total": total,
			"page":  page.Number,
			"limit": page.Limit,
		},
	})
}

// HandleGet handles GET /shifts/:id
func (h *ShiftHandler) HandleGet(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeBadRequest(c, "Invalid shift ID format.")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	shift, err := h.shifts.GetByID(ctx, id)
	if err != nil {
		writeRepoError(c, err, "Shift not found.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": shift})
}

// HandleCreate handles POST /shifts
func (h *ShiftHandler) HandleCreate(c *gin.Context) {
	var req ShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "Patient, caregiver and shift times are required.")
		return
	}
	if !req.EndTime.After(req.StartTime) {
		writeBadRequest(c, "Shift end time must be after start time.")
		return
	}

	status := req.Status
	if status == "" {
		status = models.ShiftStatusScheduled
	}
	if !status.Valid() {
		writeBadRequest(c, "Invalid shift status.")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	shift := &models.Shift{
		ID:          uuid.New(),
		PatientID:   req.PatientID,
		CaregiverID: req.CaregiverID,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Status:      status,
		Notes:       req.Notes,
	}
	if err := h.shifts.Create(ctx, shift); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": shift})
}

// HandleUpdate handles PATCH /shifts/:id
func (h *ShiftHandler) HandleUpdate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeBadRequest(c, "Invalid shift ID format.")
		return
	}

	var req ShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "Patient, caregiver and shift times are required.")
		return
	}
	if !req.EndTime.After(req.StartTime) {
		writeBadRequest(c, "Shift end time must be after start time.")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	shift, err := h.shifts.GetByID(ctx, id)
	if err != nil {
		writeRepoError(c, err, "Shift not found.")
		return
	}

	shift.PatientID = req.PatientID
	shift.CaregiverID = req.CaregiverID
	shift.StartTime = req.StartTime
	shift.EndTime = req.EndTime
	if req.Status != "" {
		if !req.Status.Valid() {
			writeBadRequest(c, "Invalid shift status.")
			return
		}
		shift.Status = req.Status
	}
	shift.Notes = req.Notes
	if err := h.shifts.Update(ctx, shift); err != nil {
		writeRepoError(c, err, "Shift not found.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": shift})
}

// HandleDelete handles DELETE /shifts/:id
func (h *ShiftHandler) HandleDelete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeBadRequest(c, "Invalid shift ID format.")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := h.shifts.Delete(ctx, id); err != nil {
		writeRepoError(c, err, "Shift not found.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Shift deleted successfully."})
}
