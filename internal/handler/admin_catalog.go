package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fario/flyschool/internal/model"
	"github.com/fario/flyschool/internal/repository"
)

// AdminCatalogHandler manages the purchasable catalog: course
// sessions, lesson offerings and voucher options.
type AdminCatalogHandler struct {
	Catalog *repository.CatalogRepo
}

func NewAdminCatalogHandler(catalog *repository.CatalogRepo) *AdminCatalogHandler {
	return &AdminCatalogHandler{Catalog: catalog}
}

func pathID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// ----- course sessions -----

type courseSessionReq struct {
	CourseTitle  string `json:"course_title"`
	StartsAt     string `json:"starts_at"` // RFC3339
	Location     string `json:"location"`
	UnitPriceCHF int64  `json:"unit_price_chf"`
	SeatsTotal   int    `json:"seats_total"`
	IsActive     *bool  `json:"is_active"`
}

func (r *courseSessionReq) validate() (time.Time, bool) {
	starts, err := time.Parse(time.RFC3339, r.StartsAt)
	if err != nil || strings.TrimSpace(r.CourseTitle) == "" || r.UnitPriceCHF <= 0 || r.SeatsTotal <= 0 {
		return time.Time{}, false
	}
	return starts, true
}

// ListCourseSessions includes inactive sessions:
// GET /v1/admin/courses.
func (h *AdminCatalogHandler) ListCourseSessions(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sessions, err := h.Catalog.ListCourseSessions(ctx, false)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"courses": sessions})
}

// CreateCourseSession: POST /v1/admin/courses.
func (h *AdminCatalogHandler) CreateCourseSession(c echo.Context) error {
	var req courseSessionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	starts, ok := req.validate()
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_fields"})
	}

	s := model.CourseSession{
		CourseTitle:  strings.TrimSpace(req.CourseTitle),
		StartsAt:     starts,
		Location:     strings.TrimSpace(req.Location),
		UnitPriceCHF: req.UnitPriceCHF,
		SeatsTotal:   req.SeatsTotal,
		SeatsLeft:    req.SeatsTotal, // new sessions start fully available
		IsActive:     req.IsActive == nil || *req.IsActive,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Catalog.CreateCourseSession(ctx, &s); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, s)
}

// UpdateCourseSession: PUT /v1/admin/courses/:id. Changing seats_total
// shifts seats_left by the same delta; sold seats stay sold.
func (h *AdminCatalogHandler) UpdateCourseSession(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req courseSessionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	starts, okReq := req.validate()
	if !okReq {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_fields"})
	}

	s := model.CourseSession{
		ID:           id,
		CourseTitle:  strings.TrimSpace(req.CourseTitle),
		StartsAt:     starts,
		Location:     strings.TrimSpace(req.Location),
		UnitPriceCHF: req.UnitPriceCHF,
		SeatsTotal:   req.SeatsTotal,
		IsActive:     req.IsActive == nil || *req.IsActive,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Catalog.UpdateCourseSession(ctx, s); err != nil {
		if err == repository.ErrSessionNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id})
}

// ----- lesson offerings -----

type lessonOfferingReq struct {
	Kind         string `json:"kind"` // PRIVATE | TASTER
	Title        string `json:"title"`
	BasePriceCHF int64  `json:"base_price_chf"`
	SurchargeCHF int64  `json:"surcharge_chf"`
	MinHours     int    `json:"min_hours"`
	IsActive     *bool  `json:"is_active"`
}

func (r *lessonOfferingReq) validate() (model.LessonKind, bool) {
	kind := model.LessonKind(strings.ToUpper(strings.TrimSpace(r.Kind)))
	if kind != model.LessonPrivate && kind != model.LessonTaster {
		return "", false
	}
	if strings.TrimSpace(r.Title) == "" || r.BasePriceCHF <= 0 || r.SurchargeCHF < 0 || r.MinHours <= 0 {
		return "", false
	}
	return kind, true
}

// ListLessonOfferings: GET /v1/admin/lessons.
func (h *AdminCatalogHandler) ListLessonOfferings(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	offerings, err := h.Catalog.ListLessonOfferings(ctx, false)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"lessons": offerings})
}

// CreateLessonOffering: POST /v1/admin/lessons.
func (h *AdminCatalogHandler) CreateLessonOffering(c echo.Context) error {
	var req lessonOfferingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	kind, ok := req.validate()
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_fields"})
	}

	o := model.LessonOffering{
		Kind:         kind,
		Title:        strings.TrimSpace(req.Title),
		BasePriceCHF: req.BasePriceCHF,
		SurchargeCHF: req.SurchargeCHF,
		MinHours:     req.MinHours,
		IsActive:     req.IsActive == nil || *req.IsActive,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Catalog.CreateLessonOffering(ctx, &o); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, o)
}

// UpdateLessonOffering: PUT /v1/admin/lessons/:id.
func (h *AdminCatalogHandler) UpdateLessonOffering(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req lessonOfferingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	kind, okReq := req.validate()
	if !okReq {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_fields"})
	}

	o := model.LessonOffering{
		ID:           id,
		Kind:         kind,
		Title:        strings.TrimSpace(req.Title),
		BasePriceCHF: req.BasePriceCHF,
		SurchargeCHF: req.SurchargeCHF,
		MinHours:     req.MinHours,
		IsActive:     req.IsActive == nil || *req.IsActive,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Catalog.UpdateLessonOffering(ctx, o); err != nil {
		if err == repository.ErrOfferingNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id})
}

// ----- voucher options -----

type voucherOptionReq struct {
	Title         string  `json:"title"`
	AllowedValues []int64 `json:"allowed_values"`
	IsActive      *bool   `json:"is_active"`
}

func (r *voucherOptionReq) validate() bool {
	if strings.TrimSpace(r.Title) == "" || len(r.AllowedValues) == 0 {
		return false
	}
	for _, v := range r.AllowedValues {
		if v <= 0 {
			return false
		}
	}
	return true
}

// ListVoucherOptions: GET /v1/admin/voucher-options.
func (h *AdminCatalogHandler) ListVoucherOptions(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	options, err := h.Catalog.ListVoucherOptions(ctx, false)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"voucher_options": options})
}

// CreateVoucherOption: POST /v1/admin/voucher-options.
func (h *AdminCatalogHandler) CreateVoucherOption(c echo.Context) error {
	var req voucherOptionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if !req.validate() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_fields"})
	}

	o := model.VoucherOption{
		Title:         strings.TrimSpace(req.Title),
		AllowedValues: req.AllowedValues,
		IsActive:      req.IsActive == nil || *req.IsActive,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Catalog.CreateVoucherOption(ctx, &o); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, o)
}

// UpdateVoucherOption: PUT /v1/admin/voucher-options/:id.
func (h *AdminCatalogHandler) UpdateVoucherOption(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req voucherOptionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if !req.validate() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_fields"})
	}

	o := model.VoucherOption{
		ID:            id,
		Title:         strings.TrimSpace(req.Title),
		AllowedValues: req.AllowedValues,
		IsActive:      req.IsActive == nil || *req.IsActive,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Catalog.UpdateVoucherOption(ctx, o); err != nil {
		if err == repository.ErrVoucherOptionNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id})
}
