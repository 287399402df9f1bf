package handler

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Smalik1203/Classbridge-V1-sub001/internal/middleware"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/model"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/response"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/service"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/validator"
)

// AttendanceHandler serves attendance sheets, analytics and exports over HTTP.
type AttendanceHandler struct {
	attendance *service.AttendanceService
	log        zerolog.Logger
}

// NewAttendanceHandler creates a new AttendanceHandler.
func NewAttendanceHandler(attendance *service.AttendanceService, log zerolog.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		attendance: attendance,
		log:        log.With().Str("component", "attendance_handler").Logger(),
	}
}

// GetSheet godoc
// GET /api/v1/admin/classes/:id/attendance?date=YYYY-MM-DD
// Loads the sheet of a class for one day, seeded from stored records.
func (h *AttendanceHandler) GetSheet(c *gin.Context) {
	classID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var q model.SheetQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidDate, fields)
		return
	}
	date, err := model.ParseDay(q.Date)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidDate)
		return
	}

	view, err := h.attendance.GetSheet(c.Request.Context(), middleware.GetOperator(c), classID, date)
	if err != nil {
		failWith(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"sheet": view})
}

// SubmitSheet godoc
// PUT /api/v1/admin/classes/:id/attendance?date=YYYY-MM-DD
// Replaces the class's attendance for the day. The first call returns the
// summary with 409 CONFIRMATION_REQUIRED; resend with confirm=true. When the day
// was already submitted, confirm_resubmit=true is needed as well.
func (h *AttendanceHandler) SubmitSheet(c *gin.Context) {
	classID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var q model.SheetQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidDate, fields)
		return
	}
	date, err := model.ParseDay(q.Date)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidDate)
		return
	}

	var req model.SubmitAttendanceRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	op := middleware.GetOperator(c)
	conf, err := h.attendance.SubmitSheet(c.Request.Context(), op, classID, date, req)
	switch {
	case err == nil:
		h.log.Info().
			Int("class_id", classID).
			Str("date", conf.Date).
			Int("operator_id", op.ID).
			Msg("Attendance submitted")
		response.Success(c, http.StatusOK, gin.H{"confirmation": conf})
	case errors.Is(err, service.ErrConfirmationRequired), errors.Is(err, service.ErrResubmitConfirmationRequired):
		status, code := classify(err)
		response.FailWithData(c, status, code, gin.H{"confirmation": conf})
	default:
		failWith(c, h.log, err)
	}
}

// ClassAnalytics godoc
// GET /api/v1/admin/classes/:id/attendance/analytics?from=&to=&period=
func (h *AttendanceHandler) ClassAnalytics(c *gin.Context) {
	classID, ok := paramID(c, "id")
	if !ok {
		return
	}
	q, ok := bindRange(c)
	if !ok {
		return
	}

	report, err := h.attendance.ClassAnalytics(c.Request.Context(), middleware.GetOperator(c), classID, q)
	if err != nil {
		failWith(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, report)
}

// ClassTimeline godoc
// GET /api/v1/admin/classes/:id/attendance/timeline?from=&to=
// One entry per day, with no-data for days nobody marked.
func (h *AttendanceHandler) ClassTimeline(c *gin.Context) {
	classID, ok := paramID(c, "id")
	if !ok {
		return
	}
	q, ok := bindRange(c)
	if !ok {
		return
	}

	days, err := h.attendance.ClassTimeline(c.Request.Context(), middleware.GetOperator(c), classID, q)
	if err != nil {
		failWith(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"days": days})
}

// StudentAnalytics godoc
// GET /api/v1/admin/students/:id/attendance/analytics?from=&to=&period=
func (h *AttendanceHandler) StudentAnalytics(c *gin.Context) {
	studentID, ok := paramID(c, "id")
	if !ok {
		return
	}
	q, ok := bindRange(c)
	if !ok {
		return
	}

	report, err := h.attendance.StudentAnalytics(c.Request.Context(), middleware.GetOperator(c), studentID, q)
	if err != nil {
		failWith(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, report)
}

// ExportStudent godoc
// GET /api/v1/admin/students/:id/attendance/export?from=&to=
// Downloads the student's records as Date,Status CSV.
func (h *AttendanceHandler) ExportStudent(c *gin.Context) {
	studentID, ok := paramID(c, "id")
	if !ok {
		return
	}
	q, ok := bindRange(c)
	if !ok {
		return
	}

	// Render into memory first so a failure can still produce a JSON error.
	var buf bytes.Buffer
	if err := h.attendance.ExportStudent(c.Request.Context(), middleware.GetOperator(c), studentID, q, &buf); err != nil {
		failWith(c, h.log, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="attendance_student_%d.csv"`, studentID))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportClassRegister godoc
// GET /api/v1/admin/classes/:id/attendance/register.xlsx?from=&to=
// Downloads the class register, one row per student and one column per marked day.
func (h *AttendanceHandler) ExportClassRegister(c *gin.Context) {
	classID, ok := paramID(c, "id")
	if !ok {
		return
	}
	q, ok := bindRange(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.attendance.ExportClassRegister(c.Request.Context(), middleware.GetOperator(c), classID, q, &buf); err != nil {
		failWith(c, h.log, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="attendance_class_%d.xlsx"`, classID))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ImportStudent godoc
// POST /api/v1/admin/students/:id/attendance/import
// Applies an uploaded Date,Status CSV (form field "file") to the student's history.
func (h *AttendanceHandler) ImportStudent(c *gin.Context) {
	studentID, ok := paramID(c, "id")
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes)
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	defer file.Close()

	result, err := h.attendance.ImportStudent(c.Request.Context(), middleware.GetOperator(c), studentID, file)
	if err != nil {
		failWith(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"import": result})
}

// SchoolOverview godoc
// GET /api/v1/admin/attendance/overview?from=&to=&period=
// Summarizes every class of the operator's school over the range.
func (h *AttendanceHandler) SchoolOverview(c *gin.Context) {
	q, ok := bindRange(c)
	if !ok {
		return
	}

	report, err := h.attendance.SchoolOverview(c.Request.Context(), middleware.GetOperator(c), q)
	if err != nil {
		failWith(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, report)
}

const maxImportBytes = 1 << 20

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func bindRange(c *gin.Context) (model.RangeQuery, bool) {
	var q model.RangeQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return q, false
	}
	return q, true
}
