package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Smalik1203/Classbridge-V1-sub001/internal/middleware"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/response"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/service"
)

// ClassHandler lists the classes an operator can take attendance for.
type ClassHandler struct {
	attendance *service.AttendanceService
	log        zerolog.Logger
}

// NewClassHandler creates a new ClassHandler.
func NewClassHandler(attendance *service.AttendanceService, log zerolog.Logger) *ClassHandler {
	return &ClassHandler{
		attendance: attendance,
		log:        log.With().Str("component", "class_handler").Logger(),
	}
}

// ListClasses godoc
// GET /api/v1/admin/classes
// Lists the class instances of the operator's school.
func (h *ClassHandler) ListClasses(c *gin.Context) {
	classes, err := h.attendance.ListClasses(c.Request.Context(), middleware.GetOperator(c))
	if err != nil {
		failWith(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"classes": classes})
}

// GetClass godoc
// GET /api/v1/admin/classes/:id
func (h *ClassHandler) GetClass(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	class, err := h.attendance.GetClass(c.Request.Context(), middleware.GetOperator(c), id)
	if err != nil {
		failWith(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"class": class, "label": class.Label()})
}
