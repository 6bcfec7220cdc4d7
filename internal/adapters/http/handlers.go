package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/core/domain"
	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/core/usecases"
)

// ListRoutesHandler returns every route sheet document.
func ListRoutesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		routes, err := deps.Routes.List(c.UserContext())
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(fiber.Map{"data": routes, "count": len(routes)})
	}
}

// GetRouteHandler returns one route sheet by ID.
func GetRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		route, err := deps.Routes.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			if errors.Is(err, usecases.ErrRouteNotFound) {
				return errNotFound(c, "route not found")
			}
			return errInternal(c, err.Error())
		}
		return c.JSON(route)
	}
}

// ReplaceRoutesHandler replaces the whole route sheet list.
func ReplaceRoutesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var routes []domain.Route
		if err := c.BodyParser(&routes); err != nil {
			return errBadRequest(c, "invalid route list: "+err.Error())
		}
		if err := deps.Routes.ReplaceAll(c.UserContext(), routes); err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.JSON(fiber.Map{"status": "saved", "count": len(routes)})
	}
}

// BuildRouteHandler resolves every anchor of a route and returns the set of
// polylines the map should render.
func BuildRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		route, err := deps.Routes.Get(ctx, c.Params("id"))
		if err != nil {
			if errors.Is(err, usecases.ErrRouteNotFound) {
				return errNotFound(c, "route not found")
			}
			return errInternal(c, err.Error())
		}

		result, err := deps.Builder.BuildRoute(ctx, route)
		if err != nil {
			return errInternal(c, err.Error())
		}
		LoggerFromCtx(ctx).Info("route built",
			"routeId", route.ID,
			"polylines", len(result.Polylines),
			"failedSegments", result.FailedSegments)
		return c.JSON(result)
	}
}

// GeocodeHandler resolves a free-text label to a coordinate, used by the
// authoring UI for ad-hoc lookups.
func GeocodeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := c.Query("q")
		if query == "" {
			return errBadRequest(c, "q query parameter is required")
		}

		var hint *domain.GeoPoint
		lat := c.QueryFloat("lat", 0)
		lng := c.QueryFloat("lng", 0)
		if lat != 0 || lng != 0 {
			hint = &domain.GeoPoint{Lat: lat, Lng: lng}
		}

		point, err := deps.Geocoder.Geocode(c.UserContext(), query, hint)
		if err != nil {
			var gerr *domain.GeocodeError
			if errors.As(err, &gerr) {
				return errNotFound(c, gerr.Error())
			}
			return errInternal(c, err.Error())
		}
		return c.JSON(point)
	}
}

// --- Interactive capture ---

type startDrawRequest struct {
	RouteID string `json:"routeId"`
	Chain   bool   `json:"chain"`
	Snap    bool   `json:"snap"`
}

type clickRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type previewRequest struct {
	From domain.GeoPoint `json:"from"`
	To   domain.GeoPoint `json:"to"`
}

// StartPickHandler arms pick mode: the next map click lands in the target
// anchor.
func StartPickHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var target usecases.PickTarget
		if err := c.BodyParser(&target); err != nil {
			return errBadRequest(c, "invalid pick target: "+err.Error())
		}
		if err := deps.Capture.StartPick(target); err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.JSON(fiber.Map{"status": "armed", "mode": "pick"})
	}
}

// StartDrawHandler arms draw mode for a route.
func StartDrawHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req startDrawRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid draw request: "+err.Error())
		}
		if err := deps.Capture.StartDraw(req.RouteID, req.Chain, req.Snap); err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.JSON(fiber.Map{"status": "armed", "mode": "draw"})
	}
}

// ClickHandler feeds one map click into the active capture operation.
func ClickHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req clickRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid click: "+err.Error())
		}

		result, err := deps.Capture.Click(c.UserContext(), domain.GeoPoint{Lat: req.Lat, Lng: req.Lng})
		if err != nil {
			var berr *domain.BoundsViolation
			switch {
			case errors.As(err, &berr):
				return errBadRequest(c, berr.Error())
			case errors.Is(err, usecases.ErrNoActiveCapture):
				return errConflict(c, "no capture operation active")
			case errors.Is(err, usecases.ErrRouteNotFound):
				return errNotFound(c, "route not found")
			default:
				return errInternal(c, err.Error())
			}
		}
		return c.JSON(result)
	}
}

// PreviewHandler returns the debounced polyline a draw pair would produce.
// A null line means the preview was superseded by a newer one.
func PreviewHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req previewRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid preview request: "+err.Error())
		}
		line, err := deps.Capture.PreviewDraw(c.UserContext(), req.From, req.To)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(fiber.Map{"line": line})
	}
}

// CaptureStateHandler reports the pending capture mode.
func CaptureStateHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"active": deps.Capture.Active()})
	}
}

// CancelCaptureHandler clears any pending capture operation.
func CancelCaptureHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		deps.Capture.Cancel()
		return c.SendStatus(fiber.StatusNoContent)
	}
}
