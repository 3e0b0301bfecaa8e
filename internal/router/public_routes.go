package router

import (
	"github.com/labstack/echo/v4"

	"github.com/fario/flyschool/internal/handler"
)

// RegisterPublic registers the unauthenticated read endpoints the
// booking site renders from. The cache middleware is applied per
// route so authenticated traffic never shares cached responses.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/courses", p.ListCourses, cache)
	e.GET("/v1/courses/:id", p.GetCourse, cache)
	e.GET("/v1/lessons", p.ListLessons, cache)
	e.GET("/v1/voucher-options", p.ListVoucherOptions, cache)
	e.GET("/v1/content", p.GetContent, cache)
}

// RegisterBooking registers checkout and the payment callbacks. The
// rate limiter shields the endpoints that create state or talk to the
// payment provider; the webhook stays unlimited because the provider
// retries aggressively and the handler is idempotent anyway.
func RegisterBooking(e *echo.Echo, ch *handler.CheckoutHandler, pay *handler.PaymentHandler, ratelimit echo.MiddlewareFunc) {
	e.POST("/v1/checkout", ch.Create, ratelimit)
	e.POST("/v1/payments/webhook", pay.Webhook)
	e.POST("/v1/payments/confirm", pay.ConfirmPoll, ratelimit)
}
