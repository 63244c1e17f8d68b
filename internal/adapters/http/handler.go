package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/randomtoy/horobingo-go/internal/app"
	"github.com/randomtoy/horobingo-go/internal/domain"
	"github.com/randomtoy/horobingo-go/internal/ports"
)

// Game is the session the handler drives.
type Game interface {
	State() app.Snapshot
	Toggle(ctx context.Context, tileID int) (app.Result, error)
	Reroll(ctx context.Context) (app.Result, error)
	Reset(ctx context.Context) (app.Result, error)
	SetPreferences(ctx context.Context, prefs ports.Preferences) (app.Result, error)
	Share(ctx context.Context) (string, error)
}

// EventSource hands out event subscriptions for the websocket feed.
type EventSource interface {
	Subscribe() (<-chan domain.Event, func())
}

// Names resolves localized display names.
type Names interface {
	SignName(lang string, sign domain.ZodiacSign) string
	ThemeName(lang string, theme domain.Theme) string
	AchievementName(lang string, id domain.AchievementID) string
}

type Handler struct {
	game   Game
	events EventSource
	names  Names
	logger *slog.Logger
}

func NewHandler(game Game, events EventSource, names Names, logger *slog.Logger) *Handler {
	return &Handler{game: game, events: events, names: names, logger: logger}
}

func (h *Handler) Register(e *echo.Echo) {
	e.GET("/healthz", h.Healthz)

	v1 := e.Group("/v1")
	v1.GET("/state", h.GetState)
	v1.POST("/tiles/:id/toggle", h.ToggleTile)
	v1.POST("/reroll", h.Reroll)
	v1.POST("/reset", h.Reset)
	v1.PUT("/preferences", h.SetPreferences)
	v1.GET("/share", h.Share)
	v1.GET("/events", h.Events)
}

func (h *Handler) Healthz(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (h *Handler) GetState(c echo.Context) error {
	return c.JSON(http.StatusOK, toStateResponse(h.game.State(), h.names))
}

func (h *Handler) ToggleTile(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "tile id must be an integer"})
	}
	res, err := h.game.Toggle(c.Request().Context(), id)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, toTransitionResponse(res, h.names))
}

func (h *Handler) Reroll(c echo.Context) error {
	res, err := h.game.Reroll(c.Request().Context())
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, toTransitionResponse(res, h.names))
}

func (h *Handler) Reset(c echo.Context) error {
	res, err := h.game.Reset(c.Request().Context())
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, toTransitionResponse(res, h.names))
}

// SetPreferences accepts a partial body; omitted fields keep their current value.
func (h *Handler) SetPreferences(c echo.Context) error {
	var req PreferencesRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid preferences body"})
	}

	current := h.game.State().Key
	prefs := ports.Preferences{
		Sign:     current.Sign,
		Theme:    current.Theme,
		Language: current.Language,
	}
	if req.Sign != "" {
		prefs.Sign = domain.ZodiacSign(req.Sign)
	}
	if req.Theme != "" {
		prefs.Theme = domain.Theme(req.Theme)
	}
	if req.Language != "" {
		prefs.Language = req.Language
	}

	res, err := h.game.SetPreferences(c.Request().Context(), prefs)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, toTransitionResponse(res, h.names))
}

func (h *Handler) Share(c echo.Context) error {
	text, err := h.game.Share(c.Request().Context())
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, ShareResponse{Text: text})
}

func (h *Handler) mapError(c echo.Context, err error) error {
	requestID, _ := c.Get("request_id").(string)

	switch {
	case errors.Is(err, domain.ErrTileNotFound), errors.Is(err, domain.ErrNoBoard):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrUnknownSign), errors.Is(err, domain.ErrUnknownTheme),
		errors.Is(err, domain.ErrUnknownLanguage):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInsufficientCoins):
		return c.JSON(http.StatusPaymentRequired, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrGenerationInProgress):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	default:
		h.logger.Error("internal error", "request_id", requestID, "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
