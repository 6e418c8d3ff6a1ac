package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Domenick1991/flightsurety/config"
	"github.com/Domenick1991/flightsurety/internal/domain"
	"github.com/Domenick1991/flightsurety/internal/repository"
	"github.com/Domenick1991/flightsurety/internal/service/access"
	"github.com/Domenick1991/flightsurety/internal/service/airlines"
	"github.com/Domenick1991/flightsurety/internal/service/flights"
)

// Deploy runs the bootstrap sequence: register the first airline in the
// store, authorize the business-logic writer, fund the first airline and
// register the initial flight. Every step is idempotent on failure, so a
// restarted node converges on the same state.
func Deploy(
	ctx context.Context,
	cfg *config.Config,
	airlineRepo repository.AirlineRepository,
	accessSvc access.AccessUseCase,
	airlineSvc airlines.AirlineUseCase,
	flightSvc flights.FlightUseCase,
) error {
	// the first airline is registered at deployment, bypassing governance
	if err := airlineRepo.Register(ctx, cfg.Surety.FirstAirline); err != nil {
		return fmt.Errorf("register first airline: %w", err)
	}

	if err := accessSvc.AuthorizeCaller(ctx, cfg.Surety.Owner, cfg.Surety.WriterID); err != nil {
		return fmt.Errorf("authorize writer: %w", err)
	}

	if err := airlineSvc.Fund(ctx, cfg.Surety.FirstAirline, cfg.Surety.MinFundCents); err != nil {
		return fmt.Errorf("fund first airline: %w", err)
	}

	ff := cfg.Surety.FirstFlight
	if ff.Ref == "" {
		return nil
	}

	takeOff := time.Now().Add(time.Duration(ff.LeadTimeMinutes) * time.Minute).Truncate(time.Minute)
	_, err := flightSvc.RegisterFlight(ctx, flights.RegisterFlightInput{
		Airline:    cfg.Surety.FirstAirline,
		TakeOff:    takeOff,
		Landing:    takeOff.Add(time.Duration(ff.DurationMinutes) * time.Minute),
		Ref:        ff.Ref,
		PriceCents: ff.PriceCents,
		From:       ff.From,
		To:         ff.To,
	})
	if errors.Is(err, domain.ErrAlreadyRegistered) {
		log.Printf("initial flight %s already registered", ff.Ref)
		return nil
	}
	return err
}
