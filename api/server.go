// Package api is the HTTP admin surface over drops, claim links, inventory
// and the endpoint registry.
package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"cosmossdk.io/log"
	"github.com/gin-gonic/gin"

	"github.com/crptomonkeys/greenwiz/drops"
	"github.com/crptomonkeys/greenwiz/lib/chainregistry"
	"github.com/crptomonkeys/greenwiz/lib/inventory"
	"github.com/crptomonkeys/greenwiz/modes/raffle"
	"github.com/crptomonkeys/greenwiz/modules/atomictoolsx"
	"github.com/crptomonkeys/greenwiz/types"
)

// Distributor runs recipient drops.
type Distributor interface {
	Distribute(ctx context.Context, req drops.Request) (*drops.Result, error)
}

// Links creates, lists and cancels claim links.
type Links interface {
	Create(ctx context.Context, collection string, assetIDs []uint64, memo string, wait bool) (*atomictoolsx.Claimlink, error)
	CancelMany(ctx context.Context, collection string, linkIDs []uint64, maxBatch int) (*drops.CancelResult, error)
	FindStaleLinks(ctx context.Context, collection string, olderThan time.Duration, limit int) ([]drops.StaleLink, error)
}

// Inventory reports pool sizes.
type Inventory interface {
	Sizes() []inventory.PoolStatus
}

// Usage reports per-sender drop counts for a day.
type Usage interface {
	Day(ctx context.Context, day string) (map[string]int, error)
}

// Raffle runs one mining raffle.
type Raffle interface {
	RunOnce(ctx context.Context) (*raffle.Outcome, error)
}

// Deps are the services behind the routes. Nil services leave their routes
// answering 503.
type Deps struct {
	Registry    *chainregistry.Registry
	Inventory   Inventory
	Distributor Distributor
	Links       Links
	Usage       Usage
	Raffle      Raffle
}

type Server struct {
	deps    Deps
	token   string
	started time.Time
	engine  *gin.Engine
	logger  log.Logger
}

// New builds the router. With an empty token only loopback clients are
// admitted; otherwise requests need "Authorization: Bearer <token>".
func New(deps Deps, token string, logger log.Logger) *Server {
	s := &Server{
		deps:    deps,
		token:   token,
		started: time.Now(),
		logger:  logger.With("module", "api"),
	}

	r := gin.New()
	// Forwarding headers are never trusted.
	if err := r.SetTrustedProxies(nil); err != nil {
		s.logger.Warn("failed to reset trusted proxies", "err", err)
	}
	r.Use(gin.Recovery(), s.accessLog())
	r.GET("/healthz", s.healthz)

	admin := r.Group("/", s.authorize())
	admin.GET("/endpoints", s.listEndpoints)
	admin.GET("/inventory", s.listInventory)
	admin.GET("/usage", s.usage)
	admin.POST("/drops", s.createDrop)
	admin.POST("/claimlinks", s.createClaimLink)
	admin.GET("/claimlinks/stale", s.staleClaimLinks)
	admin.DELETE("/claimlinks/:id", s.cancelClaimLink)
	admin.POST("/raffle/run", s.runRaffle)

	s.engine = r
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("admin API listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"took", time.Since(start))
	}
}

func (s *Server) authorize() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.token == "" {
			ip := net.ParseIP(c.RemoteIP())
			if ip == nil || !ip.IsLoopback() {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "local access only"})
				return
			}
			c.Next()
			return
		}
		got, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(s.token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}

// statusFor maps domain errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrInvalidRecipient),
		errors.Is(err, types.ErrInvalidQuantity),
		errors.Is(err, types.ErrInvalidMemo):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, types.ErrBusy), errors.Is(err, types.ErrInventoryExhausted):
		return http.StatusConflict
	case errors.Is(err, types.ErrDailyLimit):
		return http.StatusTooManyRequests
	case errors.Is(err, types.ErrConfigurationUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, types.ErrBroadcastExhausted), errors.Is(err, types.ErrIndexerExhausted):
		return http.StatusBadGateway
	case errors.Is(err, types.ErrConfirmationTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.FullPath(), "err", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func unavailable(c *gin.Context, what string) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": what + " is not configured"})
}
