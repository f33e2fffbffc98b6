package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/idexio/idex-contracts/internal/journal"
)

// Config holds the API server settings.
type Config struct {
	Port int `envconfig:"SERVER_PORT" default:"8080"`
}

// Enqueuer is the slice of the queue client the server uses.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Server accepts transfer requests, journals them as pending and hands them
// to the queue. Execution and verification happen in the worker; the server
// itself never touches asset contracts.
type Server struct {
	cfg     Config
	logger  *logrus.Logger
	queue   Enqueuer
	journal journal.Repo
	echo    *echo.Echo
}

// DefaultMiddlewares returns the middleware stack every deployment runs.
func DefaultMiddlewares() []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		middleware.Recover(),
		middleware.RequestID(),
	}
}

func NewServer(cfg Config, logger *logrus.Logger, queue Enqueuer, repo journal.Repo, middlewares ...echo.MiddlewareFunc) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	for _, m := range middlewares {
		e.Use(m)
	}

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		queue:   queue,
		journal: repo,
		echo:    e,
	}

	e.GET("/healthz", s.handleHealth)

	v1 := e.Group("/v1")
	v1.POST("/deposits", s.handleCreateDeposit)
	v1.POST("/withdrawals", s.handleCreateWithdrawal)
	v1.GET("/transfers/:id", s.handleGetTransfer)
	v1.GET("/accounts/:address/balances/:asset", s.handleGetBalance)

	return s
}

// Start serves until the context is canceled, then drains connections.
func (s *Server) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Infof("api server listening on :%d", s.cfg.Port)
		err := s.echo.Start(fmt.Sprintf(":%d", s.cfg.Port))
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.echo.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
