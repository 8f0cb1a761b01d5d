package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	nanoid "github.com/matoous/go-nanoid/v2"
	"github.com/tester22000/simpleshare/internal/controller/content"
	"github.com/tester22000/simpleshare/internal/metrics"
)

type App struct {
	fiber *fiber.App
}

type Options struct {
	BodyLimit uint
}

// DefaultBodyLimit leaves room for multipart overhead above the content limit.
const DefaultBodyLimit = 16 * 1024 * 1024

func New(contentController content.Controller, m *metrics.Metrics, opts Options) *App {
	if opts.BodyLimit == 0 {
		opts.BodyLimit = DefaultBodyLimit
	}

	f := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             int(opts.BodyLimit),
		ErrorHandler:          errorHandler,
	})

	f.Use(recover.New())
	f.Use(requestid.New(requestid.Config{
		Generator: func() string {
			return nanoid.Must(12)
		},
	}))
	f.Use(logRequests)
	f.Use(m.Middleware())

	f.Get("/healthz", func(ctx *fiber.Ctx) error {
		return ctx.SendString("ok")
	})
	f.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	f.Get("/", contentController.Index)
	f.Get("/upload", contentController.UploadForm)
	f.Get("/new", contentController.NewForm)
	f.Get("/content/:id", contentController.View)
	f.Get("/download/:id", contentController.Download)

	api := f.Group("/api")
	api.Get("/contents", contentController.List)
	api.Get("/types", contentController.Types)
	api.Post("/upload", contentController.Upload)
	api.Post("/new", contentController.CreateText)
	api.Delete("/delete/:id", contentController.Delete)

	return &App{f}
}

func (a *App) Listen(addr string, ctx context.Context) error {
	errch := make(chan error)

	go func() {
		errch <- a.fiber.Listen(addr)
	}()

	select {
	case <-ctx.Done():
		return a.fiber.Shutdown()
	case err := <-errch:
		if err != nil {
			return err
		}
	}

	return nil
}

func logRequests(ctx *fiber.Ctx) error {
	start := time.Now()

	err := ctx.Next()

	slog.Info("request",
		"id", ctx.GetRespHeader(fiber.HeaderXRequestID),
		"method", ctx.Method(),
		"path", ctx.Path(),
		"status", statusOf(ctx, err),
		"latency", time.Since(start),
	)

	return err
}

// statusOf predicts the code errorHandler will send, which runs after
// the middleware chain has returned.
func statusOf(ctx *fiber.Ctx, err error) int {
	if err == nil {
		return ctx.Response().StatusCode()
	}

	var e *fiber.Error
	if errors.As(err, &e) {
		return e.Code
	}

	return fiber.StatusInternalServerError
}

func errorHandler(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	if code == fiber.StatusInternalServerError {
		slog.Error("internal error", "err", err)
	}

	return ctx.Status(code).JSON(fiber.Map{"error": err.Error()})
}
