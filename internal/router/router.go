package router

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"

	"github.com/wichananm65/user-service/internal/user"
)

type Options struct {
	AllowOrigins string
	// JWTSecret enables bearer token checks on mutating routes when set.
	JWTSecret string
}

// New builds the fiber app serving the users API.
func New(opts Options, logger *logrus.Logger, userHandler *user.Handler) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: opts.AllowOrigins,
		AllowMethods: "GET,POST,HEAD,PUT,DELETE",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(requestLogger(logger))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	userHandler.RegisterPublicRoutes(app)

	if opts.JWTSecret != "" {
		app.Use(user.BasePath, jwtware.New(jwtware.Config{
			SigningKey:    []byte(opts.JWTSecret),
			SigningMethod: "HS256",
			ErrorHandler: func(c *fiber.Ctx, err error) error {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": err.Error()})
			},
		}))
	}

	userHandler.RegisterProtectedRoutes(app)
	return app
}

func requestLogger(logger *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		fields := logrus.Fields{
			"method":     c.Method(),
			"path":       c.OriginalURL(),
			"status":     statusOf(c, err),
			"latency":    time.Since(start).String(),
			"request_id": c.GetRespHeader(fiber.HeaderXRequestID),
		}
		if sub := subject(c); sub != "" {
			fields["subject"] = sub
		}

		entry := logger.WithFields(fields)
		if err != nil {
			entry.WithError(err).Warn("request failed")
			return err
		}
		entry.Info("request")
		return nil
	}
}

// statusOf reports the status the app's error handler will send for err,
// which has not run yet when the middleware chain unwinds.
func statusOf(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}

// subject returns the "sub" claim of the token the jwt middleware stored, if any.
func subject(c *fiber.Ctx) string {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return ""
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	sub, _ := claims["sub"].(string)
	return sub
}
