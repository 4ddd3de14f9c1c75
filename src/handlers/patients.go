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

// PatientHandler handles patient CRUD requests
type PatientHandler struct {
	patients repositories.PatientRepository
}

// NewPatientHandler creates a new patient handler
func NewPatientHandler(patients repositories.PatientRepository) *PatientHandler {
	return &PatientHandler{patients: patients}
}

// PatientRequest is the create/update payload
type PatientRequest struct {
	FirstName   string     `json:"firstName" binding:"required"`
	LastName    string     `json:"lastName" binding:"required"`
	DateOfBirth *time.Time `json:"dateOfBirth"`
	CareNotes   string     `json:"careNotes"`
	IsActive    *bool      `json:"isActive"`
}

// HandleList handles GET /patients
func (h *PatientHandler) HandleList(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	page := middleware.GetPagination(c)
	patients, total, err := h.patients.List(ctx, page)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    patients,
		"pagination": gin.H{
			"total": total,
			"page":  page.Number,
			"limit": page.Limit,
		},
	})
}

// HandleGet handles GET /patients/:id
func (h *PatientHandler) HandleGet(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeBadRequest(c, "Invalid patient ID format.")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	patient, err := h.patients.GetByID(ctx, id)
	if err != nil {
		writeRepoError(c, err, "Patient not found.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": patient})
}

// HandleCreate handles POST /patients (Admin only)
func (h *PatientHandler) HandleCreate(c *gin.Context) {
	var req PatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "First and last name are required.")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	patient := &models.Patient{
		ID:          uuid.New(),
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DateOfBirth: req.DateOfBirth,
		CareNotes:   req.CareNotes,
		IsActive:    true,
	}
	if err := h.patients.Create(ctx, patient); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": patient})
}

// HandleUpdate handles PATCH /patients/:id (Admin only)
func (h *PatientHandler) HandleUpdate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeBadRequest(c, "Invalid patient ID format.")
		return
	}

	var req PatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "First and last name are required.")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	patient, err := h.patients.GetByID(ctx, id)
	if err != nil {
		writeRepoError(c, err, "Patient not found.")
		return
	}

	patient.FirstName = req.FirstName
	patient.LastName = req.LastName
	patient.DateOfBirth = req.DateOfBirth
	patient.CareNotes = req.CareNotes
	if req.IsActive != nil {
		patient.IsActive = *req.IsActive
	}
	if err := h.patients.Update(ctx, patient); err != nil {
		writeRepoError(c, err, "Patient not found.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": patient})
}

// HandleDelete handles DELETE /patients/:id (Admin only)
func (h *PatientHandler) HandleDelete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeBadRequest(c, "Invalid patient ID format.")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := h.patients.Delete(ctx, id); err != nil {
		writeRepoError(c, err, "Patient not found.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Patient deleted successfully."})
}
