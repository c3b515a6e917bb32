package server

import (
	"errors"
	"io"
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"jokebot/internal/fulfillment"
)

const (
	healthMsg   = "Express Server Works!"
	notFoundMsg = "Not found!"

	// morgan's ':date ":method :url" :status - :response-time ms'
	logFormat = "${time} \"${method} ${url}\" ${status} - ${latency} ${locals:requestid}\n"
)

// MessageResponse is the body of every non-fulfillment reply.
type MessageResponse struct {
	Msg string `json:"msg"`
}

// Registrar mounts extra routes, such as the voice channel.
type Registrar interface {
	Register(r fiber.Router)
}

type options struct {
	user, token string
	logOutput   io.Writer
	extra       []Registrar
}

type Option func(*options)

// WithBasicAuth requires user/token on the webhook.
func WithBasicAuth(user, token string) Option {
	return func(o *options) { o.user, o.token = user, token }
}

func WithLogOutput(w io.Writer) Option {
	return func(o *options) { o.logOutput = w }
}

func WithRoutes(r Registrar) Option {
	return func(o *options) { o.extra = append(o.extra, r) }
}

type Server struct {
	app    *fiber.App
	router *fulfillment.Router
	opts   options
}

func New(router *fulfillment.Router, opts ...Option) *Server {
	o := options{logOutput: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Server{
		app: fiber.New(fiber.Config{
			AppName:               "jokebot",
			DisableStartupMessage: true,
			ErrorHandler:          errorHandler,
		}),
		router: router,
		opts:   o,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Use(recover.New())
	s.app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	s.app.Use(logger.New(logger.Config{
		Format:        logFormat,
		Output:        s.opts.logOutput,
		DisableColors: true,
	}))

	s.app.Get("/", s.handleHealth)

	if s.opts.token != "" {
		auth := basicauth.New(basicauth.Config{
			Users: map[string]string{s.opts.user: s.opts.token},
			Realm: "fulfillment",
		})
		s.app.Post("/", auth, s.handleFulfillment)
	} else {
		s.app.Post("/", s.handleFulfillment)
	}

	for _, r := range s.opts.extra {
		r.Register(s.app)
	}
}

func (s *Server) App() *fiber.App { return s.app }

func (s *Server) Listen(addr string) error {
	log.Printf("DialogFlow Handler listening on %s (intents: %q)", addr, s.router.Intents())
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(MessageResponse{Msg: healthMsg})
}

func (s *Server) handleFulfillment(c *fiber.Ctx) error {
	req, err := fulfillment.DecodeRequest(c.Body())
	if err != nil {
		log.Printf("[webhook] %v", err)
		return fiber.NewError(fiber.StatusBadRequest, "Malformed webhook request!")
	}

	resp, err := s.router.Route(c.UserContext(), req)
	switch {
	case errors.Is(err, fulfillment.ErrIntentNotFound):
		return fiber.NewError(fiber.StatusNotFound, notFoundMsg)
	case errors.Is(err, fulfillment.ErrMissingFollowupContext),
		errors.Is(err, fulfillment.ErrMissingParameter):
		log.Printf("[webhook] %v", err)
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case err != nil:
		return err
	}
	log.Printf("[webhook] %s -> %s", req.IntentName, resp)

	body, err := fulfillment.EncodeResponse(resp)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(fiber.StatusOK).Send(body)
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Internal error!"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	} else {
		log.Printf("[webhook] unhandled error: %v", err)
	}
	return c.Status(code).JSON(MessageResponse{Msg: msg})
}
