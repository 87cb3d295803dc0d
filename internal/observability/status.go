package observability

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// StatusServer exposes /metrics and /status for the long-running monitors.
// It is optional: tools only start one when a listen address is configured.
type StatusServer struct {
	srv *http.Server
}

// StartStatusServer serves prometheus metrics and a live status snapshot on
// addr. snapshot is called per /status request and must be safe for
// concurrent use.
func StartStatusServer(addr string, logger zerolog.Logger, snapshot func() any) *StatusServer {
	RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, snapshot())
	})

	srv := &http.Server{Addr: addr, Handler: router}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Str("addr", addr).Msg("status server exited")
		}
	}()
	return &StatusServer{srv: srv}
}

func (s *StatusServer) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = s.srv.Shutdown(ctx)
}
