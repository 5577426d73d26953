// Package devserver is an in-memory implementation of the shopping-list
// API for local development and end-to-end tests.
package devserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"ai-shopping-list/internal/api"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Generator proposes products for a generated list.
type Generator interface {
	Generate(ctx context.Context, profile *api.UserProfileResponse, req api.GenerateShoppingListRequest) ([]api.ProductRequest, error)
}

type Options struct {
	Secret    string
	TokenTTL  time.Duration
	Logger    *zap.Logger
	Generator Generator
	Now       func() time.Time
}

// JWTClaims represents the claims in our JWT token
type JWTClaims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type Server struct {
	app       *fiber.App
	store     *memoryStore
	secret    []byte
	ttl       time.Duration
	logger    *zap.Logger
	generator Generator
	now       func() time.Time
}

func New(opts Options) (*Server, error) {
	if opts.Secret == "" {
		return nil, errors.New("dev server secret not set")
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Generator == nil {
		opts.Generator = StapleGenerator{}
	}

	s := &Server{
		store:     newMemoryStore(opts.Now),
		secret:    []byte(opts.Secret),
		ttl:       opts.TokenTTL,
		logger:    opts.Logger,
		generator: opts.Generator,
		now:       opts.Now,
	}

	s.app = fiber.New(fiber.Config{
		ErrorHandler:          s.errorHandler,
		DisableStartupMessage: true,
		AppName:               "ai-shopping-list dev server",
	})
	s.app.Use(recover.New())
	s.app.Use(s.requestLogger)
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	apiGroup := s.app.Group("/api")
	apiGroup.Post("/auth/register", s.register)
	apiGroup.Post("/auth/login", s.login)

	apiGroup.Get("/users/profile", s.authRequired, s.getProfile)
	apiGroup.Put("/users/profile", s.authRequired, s.updateProfile)
	apiGroup.Get("/shoppinglists", s.authRequired, s.listLists)
	apiGroup.Post("/shoppinglists", s.authRequired, s.createList)
	apiGroup.Post("/shoppinglists/generate", s.authRequired, s.generateList)
	apiGroup.Get("/shoppinglists/:id", s.authRequired, s.getList)
	apiGroup.Put("/shoppinglists/:id", s.authRequired, s.updateList)
	apiGroup.Delete("/shoppinglists/:id", s.authRequired, s.deleteList)
}

// App exposes the fiber app for in-process tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	return s.app.Listener(ln)
}

func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.logger.Debug("request",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", c.Response().StatusCode()),
		zap.Duration("latency", time.Since(start)),
	)
	return err
}

// errorHandler renders unhandled errors as problem details.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	} else {
		s.logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	}
	return problem(c, code, message)
}

// problem writes an RFC 7807 style error body.
func problem(c *fiber.Ctx, status int, detail string) error {
	return c.Status(status).JSON(fiber.Map{
		"title":  httpTitle(status),
		"status": status,
		"detail": detail,
	})
}

func httpTitle(status int) string {
	if t := http.StatusText(status); t != "" {
		return t
	}
	return "Error"
}

// authRequired middleware checks for a valid JWT token
func (s *Server) authRequired(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok || tokenString == "" {
		return problem(c, fiber.StatusUnauthorized, "Missing or invalid authorization header")
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "invalid signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return problem(c, fiber.StatusUnauthorized, "Invalid or expired token")
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return problem(c, fiber.StatusUnauthorized, "Invalid token claims")
	}
	if _, err := s.store.profile(claims.UserID); err != nil {
		return problem(c, fiber.StatusUnauthorized, "Unknown user")
	}

	c.Locals("user_id", claims.UserID)
	return c.Next()
}

func (s *Server) issueToken(u *user) (*api.AuthResponse, error) {
	now := s.now().UTC()
	expires := now.Add(s.ttl)
	claims := JWTClaims{
		UserID: u.id,
		Email:  u.email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}
	return &api.AuthResponse{
		UserID:      u.id,
		UserName:    u.userName,
		AccessToken: signed,
		ExpiresAt:   expires.Format(timeLayout),
	}, nil
}

// getUserID extracts user ID from context
func getUserID(c *fiber.Ctx) int64 {
	id, _ := c.Locals("user_id").(int64)
	return id
}
