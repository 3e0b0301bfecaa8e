package handler

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fario/flyschool/internal/model"
	"github.com/fario/flyschool/internal/pdf"
	"github.com/fario/flyschool/internal/repository"
	"github.com/fario/flyschool/internal/service"
)

// AdminBookingHandler is the back office view on bookings, payments
// and vouchers: listing, status management, marking invoices paid,
// CSV export and document downloads.
type AdminBookingHandler struct {
	Bookings *repository.BookingRepo
	Payments *repository.PaymentRepo
	Vouchers *repository.VoucherRepo
	Catalog  *repository.CatalogRepo
	Content  *repository.ContentRepo
	Confirm  *service.Confirmation
}

func NewAdminBookingHandler(bookings *repository.BookingRepo, payments *repository.PaymentRepo,
	vouchers *repository.VoucherRepo, catalog *repository.CatalogRepo,
	content *repository.ContentRepo, confirm *service.Confirmation) *AdminBookingHandler {
	return &AdminBookingHandler{
		Bookings: bookings, Payments: payments, Vouchers: vouchers,
		Catalog: catalog, Content: content, Confirm: confirm,
	}
}

// parseFilter reads the optional status/kind/since query parameters.
func parseFilter(c echo.Context) (repository.BookingFilter, error) {
	var f repository.BookingFilter
	if s := strings.ToUpper(strings.TrimSpace(c.QueryParam("status"))); s != "" {
		f.Status = model.BookingStatus(s)
	}
	if k := strings.ToUpper(strings.TrimSpace(c.QueryParam("kind"))); k != "" {
		f.Kind = model.BookingKind(k)
	}
	if since := strings.TrimSpace(c.QueryParam("since")); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return f, fmt.Errorf("since must be RFC3339: %w", err)
		}
		f.Since = t
	}
	return f, nil
}

// List returns bookings, newest first: GET /v1/admin/bookings.
func (h *AdminBookingHandler) List(c echo.Context) error {
	f, err := parseFilter(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_fields"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	bookings, err := h.Bookings.List(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}

// Get returns one booking with its payment and voucher, if any:
// GET /v1/admin/bookings/:id.
func (h *AdminBookingHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	b, err := h.Bookings.GetByID(ctx, c.Param("id"))
	if err != nil {
		if err == repository.ErrBookingNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	resp := echo.Map{"booking": b}
	if p, err := h.Payments.GetByBookingID(ctx, b.ID); err == nil {
		resp["payment"] = p
	} else if err != sql.ErrNoRows {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if v, err := h.Vouchers.GetByBookingID(ctx, b.ID); err == nil {
		resp["voucher"] = v
	} else if err != repository.ErrVoucherNotFound {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, resp)
}

type statusReq struct {
	Status string `json:"status"`
}

// UpdateStatus moves a booking through its lifecycle, typically to
// CANCELLED: PATCH /v1/admin/bookings/:id/status. Transitions to PAID
// are rejected here; they must run the settle flow via MarkPaid so
// seats and vouchers follow.
func (h *AdminBookingHandler) UpdateStatus(c echo.Context) error {
	var req statusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status := model.BookingStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	switch status {
	case model.StatusCancelled, model.StatusAwaitingPayment, model.StatusInvoiceRequested:
	case model.StatusPaid:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "use mark-paid"})
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_fields"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Bookings.UpdateStatus(ctx, c.Param("id"), status); err != nil {
		switch err {
		case repository.ErrBookingNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found"})
		case repository.ErrPaidImmutable:
			return c.JSON(http.StatusConflict, echo.Map{"error": "already_paid"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"id": c.Param("id"), "status": status})
}

// MarkPaid records a received bank transfer:
// POST /v1/admin/bookings/:id/mark-paid.
func (h *AdminBookingHandler) MarkPaid(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	out, err := h.Confirm.MarkInvoicePaid(ctx, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrBookingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found"})
		case errors.Is(err, service.ErrBookingCancelled):
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking_cancelled"})
		default:
			c.Logger().Errorf("mark paid %s: %v", c.Param("id"), err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal"})
		}
	}
	return c.JSON(http.StatusOK, out)
}

// ExportCSV streams the filtered booking list as CSV:
// GET /v1/admin/bookings/export.csv.
func (h *AdminBookingHandler) ExportCSV(c echo.Context) error {
	f, err := parseFilter(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_fields"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	bookings, err := h.Bookings.List(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="bookings.csv"`)
	c.Response().WriteHeader(http.StatusOK)

	w := csv.NewWriter(c.Response())
	header := []string{"id", "kind", "target_id", "customer_name", "customer_email",
		"quantity", "hours", "amount_chf", "payment_mode", "status", "created_at"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, b := range bookings {
		row := []string{
			b.ID, string(b.Kind), strconv.FormatUint(b.TargetID, 10),
			b.CustomerName, b.CustomerEmail,
			strconv.Itoa(b.Quantity), strconv.Itoa(b.Hours),
			strconv.FormatInt(b.AmountCHF, 10),
			string(b.PaymentMode), string(b.Status),
			b.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// InvoicePDF renders the invoice for a booking so the back office can
// re-send or print it: GET /v1/admin/bookings/:id/invoice.pdf.
func (h *AdminBookingHandler) InvoicePDF(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	b, err := h.Bookings.GetByID(ctx, c.Param("id"))
	if err != nil {
		if err == repository.ErrBookingNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	var contact model.ContactContent
	if err := h.Content.Get(ctx, model.SectionContact, &contact); err != nil && err != repository.ErrContentNotFound {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	number := pdf.InvoiceNumber(b.ID, b.CreatedAt)
	doc, err := pdf.RenderInvoice(pdf.InvoiceData{
		Number:       number,
		IssuedAt:     b.CreatedAt,
		DueAt:        b.CreatedAt.AddDate(0, 0, 30),
		CustomerName: b.CustomerName,
		CustomerMail: b.CustomerEmail,
		Lines:        invoiceLines(ctx, h.Catalog, b),
		TotalCHF:     b.AmountCHF,
		IBAN:         contact.IBAN,
		SchoolName:   contact.SchoolName,
		SchoolAddr:   contact.Address,
	})
	if err != nil {
		c.Logger().Errorf("invoice pdf %s: %v", b.ID, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "render failed"})
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, number+".pdf"))
	return c.Blob(http.StatusOK, "application/pdf", doc)
}

// VoucherPDF renders the printable voucher for a paid voucher booking:
// GET /v1/admin/bookings/:id/voucher.pdf.
func (h *AdminBookingHandler) VoucherPDF(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	v, err := h.Vouchers.GetByBookingID(ctx, c.Param("id"))
	if err != nil {
		if err == repository.ErrVoucherNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	var contact model.ContactContent
	if err := h.Content.Get(ctx, model.SectionContact, &contact); err != nil && err != repository.ErrContentNotFound {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	doc, err := pdf.RenderVoucher(pdf.VoucherData{
		Code:       v.Code,
		ValueCHF:   v.OriginalCHF,
		Recipient:  v.Recipient,
		Message:    v.Message,
		IssuedAt:   v.CreatedAt,
		SchoolName: contact.SchoolName,
		SchoolAddr: contact.Address,
	})
	if err != nil {
		c.Logger().Errorf("voucher pdf %s: %v", v.Code, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "render failed"})
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, "voucher-"+v.Code+".pdf"))
	return c.Blob(http.StatusOK, "application/pdf", doc)
}

// ListVouchers returns all issued vouchers: GET /v1/admin/vouchers.
func (h *AdminBookingHandler) ListVouchers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	vouchers, err := h.Vouchers.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"vouchers": vouchers})
}

type redeemReq struct {
	RemainingCHF *int64 `json:"remaining_chf"`
}

// RedeemVoucher records a (partial) redemption by setting the
// remaining balance: PATCH /v1/admin/vouchers/:code.
func (h *AdminBookingHandler) RedeemVoucher(c echo.Context) error {
	var req redeemReq
	if err := c.Bind(&req); err != nil || req.RemainingCHF == nil || *req.RemainingCHF < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_fields"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Vouchers.SetRemaining(ctx, c.Param("code"), *req.RemainingCHF); err != nil {
		if err == repository.ErrVoucherNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"code": c.Param("code"), "remaining_chf": *req.RemainingCHF})
}

// invoiceLines builds the billed positions for an invoice from the
// booking and its catalog target.
func invoiceLines(ctx context.Context, catalog *repository.CatalogRepo, b model.Booking) []pdf.InvoiceLine {
	quantity := b.Quantity
	if quantity <= 0 || b.AmountCHF%int64(quantity) != 0 {
		quantity = 1
	}
	return []pdf.InvoiceLine{{
		Description: describeForInvoice(ctx, catalog, b),
		Quantity:    quantity,
		UnitCHF:     b.AmountCHF / int64(quantity),
		TotalCHF:    b.AmountCHF,
	}}
}

func describeForInvoice(ctx context.Context, catalog *repository.CatalogRepo, b model.Booking) string {
	switch b.Kind {
	case model.KindCourse:
		if sess, err := catalog.GetCourseSession(ctx, b.TargetID); err == nil {
			return fmt.Sprintf("%s, %s", sess.CourseTitle, sess.StartsAt.Format("02.01.2006"))
		}
		return fmt.Sprintf("Course session #%d", b.TargetID)
	case model.KindPrivateLesson, model.KindTasterLesson:
		if off, err := catalog.GetLessonOffering(ctx, b.TargetID); err == nil {
			return fmt.Sprintf("%s, %d hour(s)", off.Title, b.Hours)
		}
		return fmt.Sprintf("Lesson #%d, %d hour(s)", b.TargetID, b.Hours)
	case model.KindVoucher:
		return fmt.Sprintf("Gift voucher CHF %d", b.AmountCHF)
	}
	return "Booking " + b.ID
}
