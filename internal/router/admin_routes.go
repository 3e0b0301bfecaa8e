package router

import (
	"github.com/labstack/echo/v4"

	"github.com/fario/flyschool/internal/handler"
	"github.com/fario/flyschool/internal/middleware"
)

// RegisterAdmin registers the back office under /v1/admin. Every
// route requires a valid access token carrying the ADMIN role.
func RegisterAdmin(e *echo.Echo, bookings *handler.AdminBookingHandler,
	catalog *handler.AdminCatalogHandler, content *handler.AdminContentHandler, jwtSecret string) {

	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("ADMIN"))

	// Bookings and payments.
	g.GET("/bookings", bookings.List)
	g.GET("/bookings/export.csv", bookings.ExportCSV)
	g.GET("/bookings/:id", bookings.Get)
	g.PATCH("/bookings/:id/status", bookings.UpdateStatus)
	g.POST("/bookings/:id/mark-paid", bookings.MarkPaid)
	g.GET("/bookings/:id/invoice.pdf", bookings.InvoicePDF)
	g.GET("/bookings/:id/voucher.pdf", bookings.VoucherPDF)

	// Issued vouchers.
	g.GET("/vouchers", bookings.ListVouchers)
	g.PATCH("/vouchers/:code", bookings.RedeemVoucher)

	// Catalog management.
	g.GET("/courses", catalog.ListCourseSessions)
	g.POST("/courses", catalog.CreateCourseSession)
	g.PUT("/courses/:id", catalog.UpdateCourseSession)
	g.GET("/lessons", catalog.ListLessonOfferings)
	g.POST("/lessons", catalog.CreateLessonOffering)
	g.PUT("/lessons/:id", catalog.UpdateLessonOffering)
	g.GET("/voucher-options", catalog.ListVoucherOptions)
	g.POST("/voucher-options", catalog.CreateVoucherOption)
	g.PUT("/voucher-options/:id", catalog.UpdateVoucherOption)

	// Site content.
	g.GET("/content", content.List)
	g.GET("/content/:section", content.Get)
	g.PUT("/content/:section", content.Update)
}
