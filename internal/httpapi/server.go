// Package httpapi exposes the quiz over HTTP.
package httpapi

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/neuroquiz/internal/logger"
	"github.com/abhisek/neuroquiz/internal/store"
)

// RouterConfig wires the handlers. Mistakes and Resetter are optional; the
// matching routes answer 503 without them.
type RouterConfig struct {
	Answers      AnswerHandler
	Mistakes     store.MistakeLog
	Resetter     Resetter
	Logger       *logger.Logger
	AllowOrigins []string

	// Rand picks mnemonic placeholders. Defaults to a time-seeded source.
	Rand *rand.Rand
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(cfg RouterConfig) *gin.Engine {
	log := logger.OrNop(cfg.Logger)
	rng := cfg.Rand
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	h := &handlers{
		answers:  cfg.Answers,
		mistakes: cfg.Mistakes,
		resetter: cfg.Resetter,
		log:      log,
		rng:      rng,
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log), corsMiddleware(cfg.AllowOrigins))

	router.GET("/", h.health)
	router.GET("/health", h.health)

	quiz := router.Group("/quiz")
	{
		quiz.POST("/next", h.next)
		quiz.POST("/log_mistake", h.logMistake)
		quiz.POST("/generate_mnemonic", h.mnemonic)
	}

	router.POST("/admin/reset", h.reset)

	return router
}

// Server runs the router until its context ends.
type Server struct {
	Engine *gin.Engine
	log    *logger.Logger
}

func NewServer(cfg RouterConfig) *Server {
	return &Server{Engine: NewRouter(cfg), log: logger.OrNop(cfg.Logger)}
}

// Run serves on addr and shuts down gracefully when ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.log.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
