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

// HandoverNoteHandler handles shift-change handover note requests
type HandoverNoteHandler struct {
	notes repositories.HandoverNoteRepository
}

// NewHandoverNoteHandler creates a new handover note handler
func NewHandoverNoteHandler(notes repositories.HandoverNoteRepository) *HandoverNoteHandler {
	return &HandoverNoteHandler{notes: notes}
}

// HandoverNoteRequest is the create/update payload. The author comes from
// the authenticated identity, never the body.
type HandoverNoteRequest struct {
	PatientID uuid.UUID `json:"patientId" binding:"required"`
	Body      string    `json:"body" binding:"required"`
}

// HandleListByPatient handles GET /patients/:id/handover-notes
func (h *HandoverNoteHandler) HandleListByPatient(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeBadRequest(c, "Invalid patient ID format.")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	page := middleware.GetPagination(c)
	notes, total, err := h.notes.ListByPatient(ctx, patientID, page)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    notes,
		"pagination": gin.H{
			"total": total,
			"page":  page.Number,
			"limit": page.Limit,
		},
	})
}

// HandleCreate handles POST /handover-notes
// HandleGet returns a single handover note
func (h *HandoverNoteHandler) HandleGet(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeBadRequest(c, "Invalid note ID format.")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	note, err := h.notes.GetByID(ctx, id)
	if err != nil {
		writeRepoError(c, err, "Handover note not found.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": note})
}

func (h *HandoverNoteHandler) HandleCreate(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Authentication required."})
		return
	}
	authorID, err := uuid.Parse(identity.UserID)
	if err != nil {
		writeBadRequest(c, "Invalid user ID format.")
		return
	}

	var req HandoverNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "Patient and note body are required.")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	note := &models.HandoverNote{
		ID:        uuid.New(),
		PatientID: req.PatientID,
		AuthorID:  authorID,
		Body:      req.Body,
	}
	if err := h.notes.Create(ctx, note); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": note})
}

// HandleUpdate handles PATCH /handover-notes/:id. Only the author or an
// admin may edit a note.
func (h *HandoverNoteHandler) HandleUpdate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeBadRequest(c, "Invalid note ID format.")
		return
	}

	var req struct {
		Body string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "Note body is required.")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	note, err := h.notes.GetByID(ctx, id)
	if err != nil {
		writeRepoError(c, err, "Handover note not found.")
		return
	}

	identity, _ := middleware.GetIdentity(c)
	if identity.UserID != note.AuthorID.String() && identity.Role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"message": "You can only edit your own handover notes.",
		})
		return
	}

	note.Body = req.Body
	if err := h.notes.Update(ctx, note); err != nil {
		writeRepoError(c, err, "Handover note not found.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": note})
}

// HandleDelete handles DELETE /handover-notes/:id (Admin only)
func (h *HandoverNoteHandler) HandleDelete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeBadRequest(c, "Invalid note ID format.")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := h.notes.Delete(ctx, id); err != nil {
		writeRepoError(c, err, "Handover note not found.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Handover note deleted successfully."})
}
