package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fario/flyschool/internal/repository"
)

// PublicHandler serves the unauthenticated catalog and site content
// the booking site renders from. All endpoints are read-only and sit
// behind the response cache.
type PublicHandler struct {
	Catalog *repository.CatalogRepo
	Content *repository.ContentRepo
}

func NewPublicHandler(catalog *repository.CatalogRepo, content *repository.ContentRepo) *PublicHandler {
	return &PublicHandler{Catalog: catalog, Content: content}
}

// ListCourses returns bookable course sessions: GET /v1/courses.
func (h *PublicHandler) ListCourses(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sessions, err := h.Catalog.ListCourseSessions(ctx, true)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"courses": sessions})
}

// GetCourse returns one bookable course session with its remaining
// seats: GET /v1/courses/:id.
func (h *PublicHandler) GetCourse(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	session, err := h.Catalog.GetCourseSession(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, session)
}

// ListLessons returns bookable lesson offerings: GET /v1/lessons.
func (h *PublicHandler) ListLessons(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	offerings, err := h.Catalog.ListLessonOfferings(ctx, true)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"lessons": offerings})
}

// ListVoucherOptions returns purchasable voucher denominations:
// GET /v1/voucher-options.
func (h *PublicHandler) ListVoucherOptions(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	options, err := h.Catalog.ListVoucherOptions(ctx, true)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"voucher_options": options})
}

// GetContent returns all editable site sections keyed by name:
// GET /v1/content.
func (h *PublicHandler) GetContent(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sections, err := h.Content.ListRaw(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, sections)
}
