package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/colegio-api/internal/models"
	"github.com/noah-isme/colegio-api/internal/service"
	appErrors "github.com/noah-isme/colegio-api/pkg/errors"
	"github.com/noah-isme/colegio-api/pkg/response"
)

// EnrollmentHandler exposes enrollment endpoints.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// List godoc
// @Summary List enrollments
// @Tags Matriculas
// @Produce json
// @Param student_id query string false "Filter by student"
// @Param period query string false "Filter by academic period"
// @Param state query string false "Filter by state"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /matriculas [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	var filter models.EnrollmentFilter
	filter.StudentID = c.Query("student_id")
	filter.Period = c.Query("period")
	filter.State = models.EnrollmentState(c.Query("state"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "10")); err == nil {
		filter.Limit = limit
	}

	enrollments, pagination, err := h.enrollments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, enrollments, pagination)
}

// Get godoc
// @Summary Get enrollment detail with lines
// @Tags Matriculas
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /matriculas/{id} [get]
func (h *EnrollmentHandler) Get(c *gin.Context) {
	enrollment, err := h.enrollments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment)
}

// Create godoc
// @Summary Enroll a student in a set of courses
// @Tags Matriculas
// @Accept json
// @Produce json
// @Param payload body service.CreateEnrollmentRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Router /matriculas [post]
func (h *EnrollmentHandler) Create(c *gin.Context) {
	var req service.CreateEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.enrollments.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "enrollment created", enrollment)
}

// UpdateState godoc
// @Summary Change the state of an enrollment
// @Tags Matriculas
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body service.UpdateEnrollmentStateRequest true "State payload"
// @Success 200 {object} response.Envelope
// @Router /matriculas/{id}/estado [patch]
func (h *EnrollmentHandler) UpdateState(c *gin.Context) {
	var req service.UpdateEnrollmentStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.enrollments.UpdateState(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Updated(c, "enrollment state updated", enrollment)
}

// UpdateLineState godoc
// @Summary Change the state of one enrolled course
// @Tags Matriculas
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param lineId path string true "Enrollment line ID"
// @Param payload body service.UpdateLineStateRequest true "State payload"
// @Success 200 {object} response.Envelope
// @Router /matriculas/{id}/cursos/{lineId}/estado [patch]
func (h *EnrollmentHandler) UpdateLineState(c *gin.Context) {
	var req service.UpdateLineStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.enrollments.UpdateLineState(c.Request.Context(), c.Param("id"), c.Param("lineId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Updated(c, "enrollment course state updated", enrollment)
}

// Stats godoc
// @Summary Enrollment statistics per area
// @Tags Matriculas
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /matriculas/{id}/estadisticas [get]
func (h *EnrollmentHandler) Stats(c *gin.Context) {
	stats, err := h.enrollments.Stats(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats)
}

// Certificate godoc
// @Summary Download the enrollment certificate as PDF
// @Tags Matriculas
// @Produce application/pdf
// @Param id path string true "Enrollment ID"
// @Success 200 {file} binary
// @Router /matriculas/{id}/comprobante [get]
func (h *EnrollmentHandler) Certificate(c *gin.Context) {
	pdfBytes, err := h.enrollments.Certificate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("matricula-%s.pdf", c.Param("id"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

// Delete godoc
// @Summary Delete an enrollment and its lines
// @Tags Matriculas
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /matriculas/{id} [delete]
func (h *EnrollmentHandler) Delete(c *gin.Context) {
	if err := h.enrollments.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "enrollment deleted")
}
