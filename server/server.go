// Package server exposes the orchestrator over HTTP and pushes the
// transaction log to WebSocket subscribers.
package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/benhmida0588/solbot2026/bot"
	"github.com/benhmida0588/solbot2026/config"
	"github.com/benhmida0588/solbot2026/models"
)

const lamportsPerSOL = 1_000_000_000

// Service is the orchestrator surface the API exposes. *bot.Engine
// satisfies it.
type Service interface {
	MainWalletInfo(ctx context.Context) (models.MainWalletInfo, error)
	Wallets() []models.Wallet
	Config() models.Config
	UpdateConfig(p config.Partial) error
	Logs() []models.TransactionLogEntry
	ProvisionWallets() error
	FundWallets(ctx context.Context, lamports uint64) error
	CreateTokenAccounts(ctx context.Context) error
	RestoreSolToMainWallet(ctx context.Context) error
	StartTrade() error
	StopTrade() error
	TradeWallets(ctx context.Context) error
	SellAllTokens(ctx context.Context) error
}

// Server wires the REST routes onto a fiber app.
type Server struct {
	log logrus.FieldLogger
	svc Service
	app *fiber.App
}

// New builds the app with its middleware and routes. allowOrigins is
// passed straight to the CORS layer; "*" during development.
func New(log logrus.FieldLogger, svc Service, allowOrigins string) *Server {
	s := &Server{log: log, svc: svc}

	app := fiber.New(fiber.Config{
		AppName:               "solbot",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{AllowOrigins: allowOrigins}))
	app.Use(s.requestLogger)

	api := app.Group("/api")
	api.Get("/health", s.health)
	api.Get("/main-wallet", s.mainWallet)
	api.Get("/wallets", s.wallets)
	api.Get("/config", s.getConfig)
	api.Post("/config", s.updateConfig)
	api.Get("/transaction-logs", s.transactionLogs)
	api.Post("/create-wallets", s.createWallets)
	api.Post("/fund-wallets", s.fundWallets)
	api.Post("/create-token-accounts", s.createTokenAccounts)
	api.Post("/restore-sol", s.restoreSol)
	api.Post("/start-trade", s.startTrade)
	api.Post("/stop-trade", s.stopTrade)
	api.Post("/trade-wallets", s.tradeWallets)
	api.Post("/sell-all", s.sellAll)

	s.app = app
	return s
}

// App exposes the underlying fiber app for in-process testing.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	s.log.WithField("addr", addr).Info("api server listening")
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// requestLogger tags every request with an id and logs its outcome.
func (s *Server) requestLogger(c *fiber.Ctx) error {
	id := uuid.NewString()
	c.Locals("requestID", id)
	c.Set("X-Request-ID", id)

	start := time.Now()
	err := c.Next()

	s.log.WithFields(logrus.Fields{
		"id":       id,
		"method":   c.Method(),
		"path":     c.Path(),
		"status":   c.Response().StatusCode(),
		"duration": time.Since(start).String(),
	}).Info("request")
	return err
}

// statusFor maps orchestrator errors onto HTTP statuses. Precondition
// and validation failures are the caller's to fix; everything else is
// an internal failure.
func statusFor(err error) int {
	switch {
	case errors.Is(err, bot.ErrAlreadyTrading):
		return fiber.StatusConflict
	case errors.Is(err, bot.ErrInvalidAmount),
		errors.Is(err, bot.ErrNoWallets),
		errors.Is(err, bot.ErrNoToken),
		errors.Is(err, bot.ErrNoMainWallet),
		errors.Is(err, config.ErrInvalid):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func (s *Server) fail(c *fiber.Ctx, err error) error {
	s.log.WithError(err).WithField("path", c.Path()).Error("request failed")
	return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
}

func ok(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true})
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) mainWallet(c *fiber.Ctx) error {
	info, err := s.svc.MainWalletInfo(c.Context())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(info)
}

func (s *Server) wallets(c *fiber.Ctx) error {
	return c.JSON(s.svc.Wallets())
}

func (s *Server) getConfig(c *fiber.Ctx) error {
	return c.JSON(s.svc.Config())
}

func (s *Server) updateConfig(c *fiber.Ctx) error {
	var p config.Partial
	if err := c.BodyParser(&p); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := s.svc.UpdateConfig(p); err != nil {
		return s.fail(c, err)
	}
	return ok(c)
}

func (s *Server) transactionLogs(c *fiber.Ctx) error {
	return c.JSON(s.svc.Logs())
}

func (s *Server) createWallets(c *fiber.Ctx) error {
	if err := s.svc.ProvisionWallets(); err != nil {
		return s.fail(c, err)
	}
	return ok(c)
}

func (s *Server) fundWallets(c *fiber.Ctx) error {
	var body struct {
		FundAmount float64 `json:"fundAmount"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if body.FundAmount <= 0 {
		return s.fail(c, bot.ErrInvalidAmount)
	}
	lamports := uint64(body.FundAmount * lamportsPerSOL)
	if err := s.svc.FundWallets(c.Context(), lamports); err != nil {
		return s.fail(c, err)
	}
	return ok(c)
}

func (s *Server) createTokenAccounts(c *fiber.Ctx) error {
	if err := s.svc.CreateTokenAccounts(c.Context()); err != nil {
		return s.fail(c, err)
	}
	return ok(c)
}

func (s *Server) restoreSol(c *fiber.Ctx) error {
	if err := s.svc.RestoreSolToMainWallet(c.Context()); err != nil {
		return s.fail(c, err)
	}
	return ok(c)
}

func (s *Server) startTrade(c *fiber.Ctx) error {
	if err := s.svc.StartTrade(); err != nil {
		return s.fail(c, err)
	}
	return ok(c)
}

func (s *Server) stopTrade(c *fiber.Ctx) error {
	if err := s.svc.StopTrade(); err != nil {
		return s.fail(c, err)
	}
	return ok(c)
}

func (s *Server) tradeWallets(c *fiber.Ctx) error {
	if err := s.svc.TradeWallets(c.Context()); err != nil {
		return s.fail(c, err)
	}
	return ok(c)
}

func (s *Server) sellAll(c *fiber.Ctx) error {
	if err := s.svc.SellAllTokens(c.Context()); err != nil {
		return s.fail(c, err)
	}
	return ok(c)
}
