package zensegur

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/time/rate"
)

type RecipeReader interface {
	GetAll(ctx context.Context, filter Filter, optsFind ...*options.FindOptions) ([]Recipe, error)
}

type HealthCheck func(ctx context.Context) (string, bool)

type Server struct {
	engine      *gin.Engine
	port        string
	recipes     RecipeReader
	log         *logrus.Logger
	healthCheck []HealthCheck
}

func NewServer(cfg *Config, recipes RecipeReader, logger *logrus.Logger, telemetry *Telemetry) *Server {
	// Configuração CORS padrão
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{http.MethodGet, http.MethodOptions}
	corsConfig.AllowHeaders = []string{"Content-Type", XCORRELATIONID}

	s := &Server{
		engine:      gin.New(),
		port:        cfg.Port,
		recipes:     recipes,
		log:         logger,
		healthCheck: make([]HealthCheck, 0),
	}

	s.engine.Use(gin.Recovery(), cors.New(corsConfig), GinCorrelationMiddleware(logger))
	if telemetry.Enabled() {
		s.engine.Use(telemetry.gin())
	}
	if cfg.RateLimit > 0 {
		s.engine.Use(GinRateLimitMiddleware(cfg.RateLimit, 1))
	}

	s.engine.GET("/health", s.health)
	s.engine.GET("/recipes", s.listRecipes)

	return s
}

func (s *Server) AddHealthCheck(check HealthCheck) {
	s.healthCheck = append(s.healthCheck, check)
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	port := s.port
	if port == "" {
		port = "8081"
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("port", port).Info("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) health(ctx *gin.Context) {
	list := make(map[string]bool)
	httpCode := http.StatusOK
	for _, item := range s.healthCheck {
		name, status := item(getContext(ctx))
		list[name] = status
		if !status {
			httpCode = http.StatusServiceUnavailable
		}
	}
	ctx.JSON(httpCode, list)
}

func (s *Server) listRecipes(ctx *gin.Context) {
	res := s.findRecipes(getContext(ctx), ctx.Query("ingredient"))
	ctx.JSON(res.Code, res.Data)
}

func (s *Server) findRecipes(ctx context.Context, ingredient string) *FResult {
	var filter Filter
	if ingredient != "" {
		filter = Where(FieldIngredients, "array-contains", ingredient)
	}

	recipes, err := s.recipes.GetAll(ctx, filter)
	if err != nil {
		s.log.WithError(err).Error("listing recipes")
		return NewFResult(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
	return NewFResult(http.StatusOK, recipes)
}

func MongoHealthCheck(client *Client) HealthCheck {
	return func(ctx context.Context) (string, bool) {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return "MDB", client.Ping(ctx) == nil
	}
}

// GinCorrelationMiddleware stamps every request with a correlation id and logs it.
func GinCorrelationMiddleware(logger *logrus.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		correlation := uuid.New()
		if id, err := uuid.Parse(ctx.GetHeader(XCORRELATIONID)); err == nil {
			correlation = id
		}
		ctx.Request.Header.Set(XCORRELATIONID, correlation.String())
		ctx.Header(XCORRELATIONID, correlation.String())

		start := time.Now()
		ctx.Next()

		logger.WithFields(logrus.Fields{
			"correlation_id": correlation.String(),
			"path":           ctx.FullPath(),
			"status":         ctx.Writer.Status(),
			"elapsed":        time.Since(start),
		}).Debug("request handled")
	}
}

func GinRateLimitMiddleware(requests int, perSeconds int) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Every(time.Duration(perSeconds)*time.Second/time.Duration(requests)), requests)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			c.Abort()
			return
		}
		c.Next()
	}
}
