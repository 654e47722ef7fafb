// Package httpserver wires the HTTP surface: health, session introspection,
// and the voice websocket endpoint.
package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/dsiemon2/Boomer-AI-Docker/internal/voice"
)

// New constructs the Echo application with routes and middleware.
func New(voiceHandler *voice.Handler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/api/voice/sessions", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]int{"active": voiceHandler.ActiveSessions()})
	})

	e.GET("/ws/voice", voiceHandler.ServeWS)

	return e
}
