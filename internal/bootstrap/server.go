package bootstrap

import (
	"context"
	"net/http"
	"time"

	"github.com/Domenick1991/flightsurety/api"
	"github.com/Domenick1991/flightsurety/config"
	"github.com/Domenick1991/flightsurety/internal/service/flights"
	"github.com/Domenick1991/flightsurety/internal/service/insurance"
	"github.com/Domenick1991/flightsurety/internal/service/oracles"
	"github.com/gin-gonic/gin"
)

// Run starts the read-only query server and blocks until the context is
// canceled or the server fails.
func Run(ctx context.Context, cfg *config.Config, flightSvc flights.FlightUseCase, oracleSvc oracles.OracleUseCase, insuranceSvc insurance.InsuranceUseCase) error {
	router := gin.Default()

	router.GET("/api", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	group := router.Group("/")
	api.NewFlightHandler(flightSvc).Register(group)
	api.NewResponseHandler(oracleSvc).Register(group)
	api.NewCreditHandler(insuranceSvc).Register(group)

	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	}
}
