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

// MedicationHandler handles medication record requests
type MedicationHandler struct {
	medications repositories.MedicationRepository
}

// NewMedicationHandler creates a new medication handler
func NewMedicationHandler(medications repositories.MedicationRepository) *MedicationHandler {
	return &MedicationHandler{medications: medications}
}

// MedicationRequest is the create/update payload
type MedicationRequest struct {
	PatientID    uuid.UUID `json:"patientId" binding:"required"`
	Name         string    `json:"name" binding:"required"`
	Dosage       string    `json:"dosage" binding:"required"`
	Schedule     string    `json:"schedule" binding:"required"`
	Instructions string    `json:"instructions"`
	IsActive     *bool     `json:"isActive"`
}

// HandleListByPatient handles GET /patients/:id/medications
func (h *MedicationHandler) HandleListByPatient(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeBadRequest(c, "Invalid patient ID format.")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	page := middleware.GetPagination(c)
	medications, total, err := h.medications.ListByPatient(ctx, patientID, page)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    medications,
		"pagination": gin.H{
			"total": total,
			"page":  page.Number,
			"limit": page.Limit,
		},
	})
}

// HandleGet handles GET /medications/:id
func (h *MedicationHandler) HandleGet(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeBadRequest(c, "Invalid medication ID format.")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	medication, err := h.medications.GetByID(ctx, id)
	if err != nil {
		writeRepoError(c, err, "Medication not found.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": medication})
}

// HandleCreate handles POST /medications (Admin only)
func (h *MedicationHandler) HandleCreate(c *gin.Context) {
	var req MedicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "Patient, name, dosage and schedule are required.")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	medication := &models.Medication{
		ID:           uuid.New(),
		PatientID:    req.PatientID,
		Name:         req.Name,
		Dosage:       req.Dosage,
		Schedule:     req.Schedule,
		Instructions: req.Instructions,
		IsActive:     true,
	}
	if err := h.medications.Create(ctx, medication); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": medication})
}

// HandleUpdate handles PATCH /medications/:id (Admin only)
func (h *MedicationHandler) HandleUpdate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeBadRequest(c, "Invalid medication ID format.")
		return
	}

	var req MedicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "Patient, name, dosage and schedule are required.")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	medication, err := h.medications.GetByID(ctx, id)
	if err != nil {
		writeRepoError(c, err, "Medication not found.")
		return
	}

	medication.Name = req.Name
	medication.Dosage = req.Dosage
	medication.Schedule = req.Schedule
	medication.Instructions = req.Instructions
	if req.IsActive != nil {
		medication.IsActive = *req.IsActive
	}
	if err := h.medications.Update(ctx, medication); err != nil {
		writeRepoError(c, err, "Medication not found.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": medication})
}

// HandleDelete handles DELETE /medications/:id (Admin only)
func (h *MedicationHandler) HandleDelete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeBadRequest(c, "Invalid medication ID format.")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := h.medications.Delete(ctx, id); err != nil {
		writeRepoError(c, err, "Medication not found.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Medication deleted successfully."})
}
