package server

import (
	"github.com/wellingtonpereira12/cycling-streak/internal/achievement"
	"github.com/wellingtonpereira12/cycling-streak/internal/auth"
	"github.com/wellingtonpereira12/cycling-streak/internal/config"
	"github.com/wellingtonpereira12/cycling-streak/internal/live"
	"github.com/wellingtonpereira12/cycling-streak/internal/ride"
	"github.com/wellingtonpereira12/cycling-streak/internal/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Stream *stream.Hub
	Live   *live.Controller
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	hub := stream.NewHub(redisClient)
	rides := ride.NewService(db)

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Stream: hub,
		Live:   live.NewController(rides, hub),
	}

	registerRoutes(s, rides)
	return s
}

func registerRoutes(s *Server, rides *ride.Service) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.DB))
	ride.RegisterRoutes(s.App.Group("/rides"), rides, jwtMiddleware)
	achievement.RegisterRoutes(s.App.Group("/achievements"), achievement.NewService(s.DB), jwtMiddleware)
	live.RegisterRoutes(s.App.Group("/live"), s.Live)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
