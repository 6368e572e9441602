package ride

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

type submitRequest struct {
	DistanceKm      any    `json:"distance_km"`
	DurationSeconds any    `json:"duration_seconds"`
	RideDate        string `json:"ride_date"`
}

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req submitRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		userID := localUserID(c)
		if userID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing user")
		}

		result, err := svc.SubmitRide(c.Context(), userID, req.submission())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{
			"msg":    "ride registered",
			"streak": result.Streak,
			"record": result.Record,
		})
	})

	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		userID := localUserID(c)
		if userID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing user")
		}
		rides, err := svc.History(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(rides)
	})

	r.Get("/dashboard", authMiddleware, func(c *fiber.Ctx) error {
		userID := localUserID(c)
		if userID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing user")
		}
		dashboard, err := svc.Dashboard(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(dashboard)
	})
}

func (req submitRequest) submission() Submission {
	sub := Submission{
		DistanceKm:      numericField(req.DistanceKm),
		DurationSeconds: int(numericField(req.DurationSeconds)),
	}
	if day, err := time.Parse("2006-01-02", req.RideDate); err == nil {
		sub.RideDate = day
	}
	return sub
}

// numericField coerces a loosely typed JSON value to a number; anything
// that is not a number becomes 0 so a write is never rejected.
func numericField(v any) float64 {
	f, ok := v.(float64)
	if !ok {
		return 0
	}
	return f
}

func localUserID(c *fiber.Ctx) string {
	userID, _ := c.Locals("user_id").(string)
	return userID
}
