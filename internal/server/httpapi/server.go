// Package httpapi exposes the card market REST API over Fiber.
package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/and161185/card-market/internal/convert"
	"github.com/and161185/card-market/internal/service"
)

// DefaultCORSOrigin is the frontend dev server.
const DefaultCORSOrigin = "http://localhost:3000"

// Options tune the HTTP surface.
type Options struct {
	CORSOrigin string
	// AuthBurst caps register/login calls per IP per minute; 0 disables.
	AuthBurst int
}

// Server wires services into Fiber handlers.
type Server struct {
	auth  service.AuthService
	cards service.CardService
	log   *zap.Logger
	opts  Options
}

// New constructs an HTTP server with injected services.
func New(auth service.AuthService, cards service.CardService, log *zap.Logger, opts Options) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{auth: auth, cards: cards, log: log, opts: opts}
}

// App builds a Fiber application with middleware and routes registered.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "card-market",
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
	})

	app.Use(RequestLogger(s.log))
	app.Use(Recover(s.log))
	app.Use(CORS(s.opts.CORSOrigin))

	s.Routes(app)
	return app
}

// Routes registers all endpoints on r.
func (s *Server) Routes(r fiber.Router) {
	authMW := Auth(s.auth, s.log)

	r.Get("/", s.Root)

	api := r.Group("/api")

	authGroup := api.Group("/auth", BurstLimit(s.opts.AuthBurst))
	authGroup.Post("/register", s.Register)
	authGroup.Post("/login", s.Login)

	api.Get("/profile", authMW, s.Profile)

	cards := api.Group("/cards")
	cards.Get("/", s.ListCards)
	cards.Get("/:id", s.GetCard)
	cards.Post("/", authMW, s.CreateCard)
	cards.Put("/:id", authMW, s.UpdateCard)
	cards.Delete("/:id", authMW, s.DeleteCard)
}

// Root answers the welcome message.
func (s *Server) Root(c *fiber.Ctx) error {
	return c.SendString(msgWelcome)
}

// errorHandler renders errors that escaped handlers as {"message": ...}.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		msg := fe.Message
		switch fe.Code {
		case fiber.StatusNotFound:
			msg = msgRouteNotFound
		case fiber.StatusInternalServerError:
			msg = msgServerError
		}
		return reply(c, fe.Code, msg)
	}
	s.log.Error("unhandled", zap.Error(err), zap.String("path", c.Path()))
	return reply(c, fiber.StatusInternalServerError, msgServerError)
}

func reply(c *fiber.Ctx, code int, msg string) error {
	return c.Status(code).JSON(convert.Message{Message: msg})
}
