package live

import (
	"context"

	"github.com/wellingtonpereira12/cycling-streak/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type wsMessage struct {
	Type   string             `json:"type"`
	Points []session.Position `json:"points,omitempty"`
	Save   bool               `json:"save,omitempty"`
}

// RegisterRoutes exposes the rider ingress: a websocket carrying
// `points`, `pause`, `resume` and `stop` messages for one session. A
// dropped connection discards the session without saving.
func RegisterRoutes(r fiber.Router, ctl *Controller) {
	r.Get("/ws/:userID", websocket.New(func(c *websocket.Conn) {
		userID := c.Params("userID")
		ctx := context.Background()

		if err := ctl.StartSession(ctx, userID); err != nil {
			_ = c.WriteJSON(map[string]string{"error": err.Error()})
			return
		}

		for {
			var msg wsMessage
			if err := c.ReadJSON(&msg); err != nil {
				_, _ = ctl.StopSession(ctx, userID, false)
				return
			}

			switch msg.Type {
			case "points":
				_ = ctl.AddPoints(userID, msg.Points)
			case "pause":
				_ = ctl.PauseSession(userID)
			case "resume":
				_ = ctl.ResumeSession(userID)
			case "stop":
				result, err := ctl.StopSession(ctx, userID, msg.Save)
				if err != nil {
					_ = c.WriteJSON(map[string]string{"error": err.Error()})
				} else {
					_ = c.WriteJSON(result)
				}
				return
			}
		}
	}))
}
