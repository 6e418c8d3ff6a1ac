package flights

import (
	"context"
	"log"
	"time"

	"github.com/Domenick1991/flightsurety/internal/domain"
	"github.com/Domenick1991/flightsurety/internal/kafka"
	"github.com/Domenick1991/flightsurety/internal/repository"
	"github.com/Domenick1991/flightsurety/internal/service/access"
	"github.com/google/uuid"
)

type FlightUseCase interface {
	RegisterFlight(ctx context.Context, input RegisterFlightInput) (*domain.Flight, error)
	List(ctx context.Context) ([]domain.Flight, error)
	GetByKey(ctx context.Context, ref, to string, landing time.Time) (*domain.Flight, error)
}

// Airlines is the slice of the airline registry the flight registry needs:
// only funded airlines may register flights.
type Airlines interface {
	Get(ctx context.Context, address string) (*domain.Airline, error)
}

type FlightCache interface {
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	SetFlights(ctx context.Context, flights []domain.Flight) error
	InvalidateFlights(ctx context.Context) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type RegisterFlightInput struct {
	Airline    string    `json:"airline"`
	TakeOff    time.Time `json:"take_off"`
	Landing    time.Time `json:"landing"`
	Ref        string    `json:"ref"`
	PriceCents int64     `json:"price_cents"`
	From       string    `json:"from"`
	To         string    `json:"to"`
}

type FlightService struct {
	flights     repository.FlightRepository
	airlines    Airlines
	guard       access.Guard
	writerID    string
	cache       FlightCache
	producer    Producer
	eventsTopic string
}

func NewFlightService(flights repository.FlightRepository, airlines Airlines, guard access.Guard, writerID string, cache FlightCache, producer Producer, eventsTopic string) *FlightService {
	return &FlightService{
		flights:     flights,
		airlines:    airlines,
		guard:       guard,
		writerID:    writerID,
		cache:       cache,
		producer:    producer,
		eventsTopic: eventsTopic,
	}
}

func (s *FlightService) RegisterFlight(ctx context.Context, input RegisterFlightInput) (*domain.Flight, error) {
	if err := s.guard.RequireOperational(ctx); err != nil {
		return nil, err
	}
	if err := s.guard.RequireAuthorized(ctx, s.writerID); err != nil {
		return nil, err
	}

	airline, err := s.airlines.Get(ctx, input.Airline)
	if err != nil {
		return nil, err
	}
	if airline == nil || !airline.Funded {
		return nil, domain.ErrNotFunded
	}

	flight := &domain.Flight{
		Key:        domain.FlightKey(input.Ref, input.To, input.Landing),
		Ref:        input.Ref,
		From:       input.From,
		To:         input.To,
		TakeOff:    input.TakeOff,
		Landing:    input.Landing,
		Airline:    input.Airline,
		PriceCents: input.PriceCents,
		Status:     domain.StatusUnknown,
	}

	if err := s.flights.Create(ctx, flight); err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.InvalidateFlights(ctx)
	}

	s.publish(ctx, kafka.SuretyEvent{
		Type:        kafka.EventFlightRegistered,
		Ref:         flight.Ref,
		Destination: flight.To,
		Landing:     flight.Landing.Unix(),
		Airline:     flight.Airline,
	})
	return flight, nil
}

func (s *FlightService) List(ctx context.Context) ([]domain.Flight, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetFlights(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	flights, err := s.flights.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetFlights(ctx, flights)
	}
	return flights, nil
}

// GetByKey returns nil without an error when the flight is unknown; for the
// query layer an unknown key is a not-found, not a failure.
func (s *FlightService) GetByKey(ctx context.Context, ref, to string, landing time.Time) (*domain.Flight, error) {
	return s.flights.GetByKey(ctx, domain.FlightKey(ref, to, landing))
}

func (s *FlightService) publish(ctx context.Context, event kafka.SuretyEvent) {
	if s.producer == nil || s.eventsTopic == "" {
		return
	}
	event.ID = uuid.NewString()
	event.At = time.Now()
	if err := s.producer.Publish(ctx, s.eventsTopic, event.Ref, event); err != nil {
		log.Printf("WARNING: failed to publish %s event for %s: %v", event.Type, event.Ref, err)
	}
}

var _ FlightUseCase = (*FlightService)(nil)
