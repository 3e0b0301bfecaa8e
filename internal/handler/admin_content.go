package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fario/flyschool/internal/model"
	"github.com/fario/flyschool/internal/repository"
)

// AdminContentHandler edits the site content sections. Each section
// decodes into its typed structure before saving, so a typo in a
// payload is rejected instead of silently stored.
type AdminContentHandler struct {
	Content *repository.ContentRepo
}

func NewAdminContentHandler(content *repository.ContentRepo) *AdminContentHandler {
	return &AdminContentHandler{Content: content}
}

// List returns every section payload: GET /v1/admin/content.
func (h *AdminContentHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sections, err := h.Content.ListRaw(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, sections)
}

// Get returns one section payload: GET /v1/admin/content/:section.
func (h *AdminContentHandler) Get(c echo.Context) error {
	section := strings.ToLower(strings.TrimSpace(c.Param("section")))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	raw, updatedAt, err := h.Content.GetRaw(ctx, section)
	if err != nil {
		if err == repository.ErrContentNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"section": section, "payload": raw, "updated_at": updatedAt})
}

// Update replaces one section: PUT /v1/admin/content/:section.
func (h *AdminContentHandler) Update(c echo.Context) error {
	section := strings.ToLower(strings.TrimSpace(c.Param("section")))

	var payload interface{}
	switch section {
	case model.SectionHero:
		var hero model.HeroContent
		if err := c.Bind(&hero); err != nil || strings.TrimSpace(hero.Title) == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_fields"})
		}
		payload = hero
	case model.SectionFAQ:
		var faq model.FAQContent
		if err := c.Bind(&faq); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
		}
		for _, e := range faq.Entries {
			if strings.TrimSpace(e.Question) == "" || strings.TrimSpace(e.Answer) == "" {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_fields"})
			}
		}
		payload = faq
	case model.SectionContact:
		var contact model.ContactContent
		if err := c.Bind(&contact); err != nil || strings.TrimSpace(contact.SchoolName) == "" || strings.TrimSpace(contact.Email) == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_fields"})
		}
		payload = contact
	default:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Content.Upsert(ctx, section, payload); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"section": section})
}
