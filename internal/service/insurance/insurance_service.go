package insurance

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

type InsuranceUseCase interface {
	Book(ctx context.Context, input BookInput) (*BookingResult, error)
	Withdraw(ctx context.Context, caller string) (int64, error)
	Balance(ctx context.Context, account string) (int64, error)
}

// Flights is the slice of the flight registry the pool needs: bookings only
// attach to registered flights.
type Flights interface {
	GetByKey(ctx context.Context, ref, to string, landing time.Time) (*domain.Flight, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookInput struct {
	Passenger      string    `json:"passenger"`
	Ref            string    `json:"ref"`
	To             string    `json:"to"`
	Landing        time.Time `json:"landing"`
	PaymentCents   int64     `json:"payment_cents"`
	InsuranceCents int64     `json:"insurance_cents"`
}

// BookingResult carries the stored booking and the excess payment to return
// to the caller immediately.
type BookingResult struct {
	Booking     domain.Booking `json:"booking"`
	ChangeCents int64          `json:"change_cents"`
}

type InsuranceService struct {
	pool              repository.InsuranceRepository
	flights           Flights
	guard             access.Guard
	writerID          string
	maxInsuranceCents int64
	producer          Producer
	eventsTopic       string
	payoutsTopic      string
}

func NewInsuranceService(pool repository.InsuranceRepository, flights Flights, guard access.Guard, writerID string, maxInsuranceCents int64, producer Producer, eventsTopic, payoutsTopic string) *InsuranceService {
	return &InsuranceService{
		pool:              pool,
		flights:           flights,
		guard:             guard,
		writerID:          writerID,
		maxInsuranceCents: maxInsuranceCents,
		producer:          producer,
		eventsTopic:       eventsTopic,
		payoutsTopic:      payoutsTopic,
	}
}

// Book attaches the passenger to the flight and subscribes the requested
// insurance. The ticket price is credited to the airline in the same
// transaction as the booking insert; the insurance portion stays pooled
// and the change goes back to the caller.
func (s *InsuranceService) Book(ctx context.Context, input BookInput) (*BookingResult, error) {
	if err := s.precheck(ctx); err != nil {
		return nil, err
	}
	if input.InsuranceCents < 0 || input.InsuranceCents > s.maxInsuranceCents {
		return nil, domain.ErrInsuranceOverCap
	}

	flight, err := s.flights.GetByKey(ctx, input.Ref, input.To, input.Landing)
	if err != nil {
		return nil, err
	}
	if flight == nil {
		return nil, domain.ErrUnknownFlight
	}
	if input.PaymentCents < flight.PriceCents+input.InsuranceCents {
		return nil, domain.ErrInsufficientPayment
	}

	booking := domain.Booking{
		FlightKey:      flight.Key,
		Passenger:      input.Passenger,
		InsuranceCents: input.InsuranceCents,
	}
	if err := s.pool.CreateBooking(ctx, &booking, flight.PriceCents, flight.Airline); err != nil {
		return nil, err
	}

	s.publish(ctx, s.eventsTopic, kafka.SuretyEvent{
		Type:        kafka.EventPassengerBooked,
		Ref:         flight.Ref,
		Destination: flight.To,
		Landing:     flight.Landing.Unix(),
		Passenger:   input.Passenger,
		AmountCents: input.InsuranceCents,
	})
	return &BookingResult{
		Booking:     booking,
		ChangeCents: input.PaymentCents - flight.PriceCents - input.InsuranceCents,
	}, nil
}

// Withdraw clears the caller's credit and only then requests the transfer.
// The read-and-zero happens in one store transaction before the withdraw
// event is emitted, so a repeated call during the transfer sees a zero
// balance.
func (s *InsuranceService) Withdraw(ctx context.Context, caller string) (int64, error) {
	if err := s.precheck(ctx); err != nil {
		return 0, err
	}

	amount, err := s.pool.WithdrawAll(ctx, caller)
	if err != nil {
		return 0, err
	}

	event := kafka.SuretyEvent{
		Type:        kafka.EventWithdrawRequest,
		Passenger:   caller,
		AmountCents: amount,
	}
	s.publish(ctx, s.eventsTopic, event)
	s.publish(ctx, s.payoutsTopic, event)
	return amount, nil
}

func (s *InsuranceService) Balance(ctx context.Context, account string) (int64, error) {
	return s.pool.Balance(ctx, account)
}

func (s *InsuranceService) precheck(ctx context.Context) error {
	if err := s.guard.RequireOperational(ctx); err != nil {
		return err
	}
	return s.guard.RequireAuthorized(ctx, s.writerID)
}

func (s *InsuranceService) publish(ctx context.Context, topic string, event kafka.SuretyEvent) {
	if s.producer == nil || topic == "" {
		return
	}
	event.ID = uuid.NewString()
	event.At = time.Now()
	if err := s.producer.Publish(ctx, topic, event.Passenger, event); err != nil {
		log.Printf("WARNING: failed to publish %s event for %s: %v", event.Type, event.Passenger, err)
	}
}

var _ InsuranceUseCase = (*InsuranceService)(nil)
