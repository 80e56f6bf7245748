package httpapi

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"classroll/internal/archive"
	"classroll/internal/audit"
	"classroll/internal/auth"
	"classroll/internal/httpmiddleware"
	"classroll/internal/ledger"
	"classroll/internal/metrics"
	"classroll/internal/queue"
	"classroll/internal/store"
)

// AuditReader lists the audit trail written by the worker.
type AuditReader interface {
	List(ctx context.Context, q audit.Query) ([]audit.Entry, error)
}

// Dependencies wires the HTTP layer. Ledger is required; every other
// collaborator is optional and its routes degrade when absent.
type Dependencies struct {
	Logger  *log.Logger
	Ledger  *ledger.Ledger
	Queue   queue.Queue
	Archive archive.Store
	Audit   AuditReader
	Metrics *metrics.Metrics
	// Gatherer backs /metrics when set.
	Gatherer prometheus.Gatherer
	Redis    *store.Redis

	AdminPassword    string
	JWTIssuer        string
	JWTSigningKey    string
	AdminTokenTTL    time.Duration
	GuardAdminRoutes bool
	RateLimitPerMin  int
	StaticDir        string
}

// Server serves the attendance API.
type Server struct {
	deps   Dependencies
	log    *log.Logger
	router *gin.Engine
}

// NewServer builds the router.
func NewServer(deps Dependencies) *Server {
	s := &Server{deps: deps, log: deps.Logger}
	if s.log == nil {
		s.log = log.Default()
	}
	if s.deps.AdminTokenTTL <= 0 {
		s.deps.AdminTokenTTL = 12 * time.Hour
	}
	s.router = s.routes()
	return s
}

// Handler returns the http.Handler for use with http.Server or httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestID())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewTokenBucket(s.deps.RateLimitPerMin, s.deps.RateLimitPerMin).GinMiddleware())

	if s.deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{})))
	}
	r.GET("/healthz", s.healthz)

	r.POST("/admin/token", s.issueToken)

	r.POST("/mark", s.mark)
	r.POST("/mark_fingerprint", s.markFingerprint)
	r.GET("/records", s.records)
	r.GET("/summary", s.summary)
	r.GET("/export_records", s.exportRecords)
	r.GET("/students", s.students)
	r.GET("/backup", s.backup)

	admin := r.Group("/")
	if s.deps.GuardAdminRoutes {
		admin.Use(auth.AdminAuth(s.deps.JWTSigningKey, s.deps.JWTIssuer))
	}
	admin.POST("/add_student", s.addStudent)
	admin.POST("/reset", s.reset)
	admin.POST("/restore", s.restore)
	admin.GET("/backup/archive", s.listArchive)
	admin.POST("/backup/archive", s.saveArchive)
	admin.POST("/restore/archive/:id", s.restoreArchive)
	admin.GET("/audit", s.auditTrail)

	if dir := s.deps.StaticDir; dir != "" {
		r.StaticFile("/", dir+"/index.html")
		r.Static("/static", dir)
	}

	s.observeSizes()
	return r
}

func (s *Server) observeSizes() {
	students, records := s.deps.Ledger.Counts()
	s.deps.Metrics.ObserveSizes(students, records)
}

// publish hands the event to the queue in the background so a slow or
// unreachable queue never delays or fails a request.
func (s *Server) publish(typ string, evt queue.Event) {
	if s.deps.Queue == nil {
		return
	}
	msg, err := queue.Encode(typ, evt)
	if err != nil {
		s.log.Printf("queue encode failed: %v", err)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.deps.Queue.Publish(ctx, msg); err != nil {
			s.log.Printf("queue publish %s failed: %v", typ, err)
		}
	}()
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Request-ID")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
