package httpapi

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/i474232898/weather-widgets/internal/store"
	"github.com/i474232898/weather-widgets/internal/weather"
)

var validate = validator.New()

const (
	msgLocationRequired = "Location query parameter is required and must be a non-empty string"
	msgWidgetLocation   = "Location is required and must be a non-empty string"
	msgLocationTooLong  = "Location cannot exceed 100 characters"
	msgInvalidLocation  = "Invalid location name"
	msgInvalidBody      = "Request body must be JSON with a location field"
	msgInvalidWidgetID  = "Invalid widget ID format"
	msgWidgetNotFound   = "Widget not found"
	msgWidgetExists     = "Widget already exists"
	msgWeatherFailed    = "Failed to fetch weather data"
)

// WeatherService is the weather lookup surface used by the handlers.
type WeatherService interface {
	GetWeatherForLocation(ctx context.Context, location string) (weather.Snapshot, error)
	SearchCities(ctx context.Context, query string) []weather.CitySuggestion
}

// WidgetRepository is the widget persistence surface used by the handlers.
type WidgetRepository interface {
	Create(ctx context.Context, location string) (store.Widget, error)
	List(ctx context.Context) ([]store.Widget, error)
	Get(ctx context.Context, id string) (store.Widget, error)
	Delete(ctx context.Context, id string) error
}

type handlers struct {
	weather WeatherService
	widgets WidgetRepository
	logger  *zap.Logger
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service WeatherService, widgets WidgetRepository, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handlers{weather: service, widgets: widgets, logger: logger}

	w := app.Group("/weather")
	w.Get("/search", h.searchCities)
	w.Get("/", h.getWeather)

	wg := app.Group("/widgets")
	wg.Get("/", h.listWidgets)
	wg.Post("/", h.createWidget)
	wg.Get("/:id", h.getWidget)
	wg.Delete("/:id", h.deleteWidget)
}

// ErrorHandler renders every error as {"error": message}. Only *fiber.Error
// messages reach the client; anything else becomes a generic 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": message,
	})
}

// NotFound answers any request that matched no route. Register it last.
func NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": "Route not found",
		"path":  c.OriginalURL(),
	})
}

func (h *handlers) getWeather(c *fiber.Ctx) error {
	location := strings.TrimSpace(c.Query("location"))
	if location == "" {
		return fiber.NewError(fiber.StatusBadRequest, msgLocationRequired)
	}

	snapshot, err := h.weather.GetWeatherForLocation(c.UserContext(), location)
	if err != nil {
		var lookupErr *weather.LookupFailedError
		switch {
		case errors.Is(err, weather.ErrInvalidInput):
			return fiber.NewError(fiber.StatusBadRequest, msgLocationRequired)
		case errors.As(err, &lookupErr):
			return fiber.NewError(fiber.StatusInternalServerError, lookupErr.Error())
		default:
			h.logger.Error("weather route error", zap.String("location", location), zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, msgWeatherFailed)
		}
	}

	return c.JSON(snapshot)
}

func (h *handlers) searchCities(c *fiber.Ctx) error {
	return c.JSON(h.weather.SearchCities(c.UserContext(), c.Query("q")))
}

func (h *handlers) listWidgets(c *fiber.Ctx) error {
	widgets, err := h.widgets.List(c.UserContext())
	if err != nil {
		h.logger.Error("list widgets failed", zap.Error(err))
		return err
	}
	return c.JSON(widgets)
}

// createWidgetRequest is the body of POST /widgets.
type createWidgetRequest struct {
	Location string `json:"location" validate:"required,max=100"`
}

func (h *handlers) createWidget(c *fiber.Ctx) error {
	var req createWidgetRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, msgInvalidBody)
	}

	req.Location = strings.TrimSpace(req.Location)
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, validationMessage(err))
	}

	normalized := weather.Normalize(req.Location)
	if normalized == "" {
		return fiber.NewError(fiber.StatusBadRequest, msgInvalidLocation)
	}

	widget, err := h.widgets.Create(c.UserContext(), normalized)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return fiber.NewError(fiber.StatusConflict, msgWidgetExists)
		}
		h.logger.Error("create widget failed", zap.String("location", normalized), zap.Error(err))
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(widget)
}

func (h *handlers) getWidget(c *fiber.Ctx) error {
	id, err := parseWidgetID(c)
	if err != nil {
		return err
	}

	widget, err := h.widgets.Get(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, msgWidgetNotFound)
		}
		h.logger.Error("get widget failed", zap.String("id", id), zap.Error(err))
		return err
	}

	return c.JSON(widget)
}

func (h *handlers) deleteWidget(c *fiber.Ctx) error {
	id, err := parseWidgetID(c)
	if err != nil {
		return err
	}

	if err := h.widgets.Delete(c.UserContext(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, msgWidgetNotFound)
		}
		h.logger.Error("delete widget failed", zap.String("id", id), zap.Error(err))
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func parseWidgetID(c *fiber.Ctx) (string, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, msgInvalidWidgetID)
	}
	return id.String(), nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Field() == "Location" && fe.Tag() == "max" {
				return msgLocationTooLong
			}
		}
	}
	return msgWidgetLocation
}
