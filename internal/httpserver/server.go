package httpserver

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"honeyhive/internal/docstore"
	"honeyhive/internal/localstorage"
	"honeyhive/internal/service/catalog"
	"honeyhive/internal/service/checkout"
	"honeyhive/internal/service/customer"
)

// Deps carries the collaborators the routes need.
type Deps struct {
	CatalogSvc  *catalog.Service
	CustomerSvc *customer.Service
	CheckoutSvc *checkout.Service
	Docs        docstore.Store
	Local       localstorage.Storage
	AdminToken  string
}

// Server wraps the HTTP server setup.
type Server struct {
	httpServer *http.Server
	logger     *log.Logger
}

// New builds a Server, wires the per-device cart sessions and subscribes
// them to the auth-state signal.
func New(addr string, logger *log.Logger, pool *pgxpool.Pool, rdb *redis.Client, deps Deps) (*Server, error) {
	sess := newSessions(deps.Docs, deps.Local, logger)
	if deps.CustomerSvc != nil {
		deps.CustomerSvc.Subscribe(sess.onAuthChange)
	}

	router := buildRouter(logger, pool, rdb, deps, sess)

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Server{
		httpServer: httpSrv,
		logger:     logger,
	}, nil
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func readyHandler(pool *pgxpool.Pool, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()
		if pool != nil {
			if err := pool.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "db not reachable"})
				return
			}
		}
		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "redis not reachable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}
