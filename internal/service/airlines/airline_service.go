package airlines

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

type AirlineUseCase interface {
	Fund(ctx context.Context, airline string, amountCents int64) error
	RegisterAirline(ctx context.Context, caller, candidate string) (*RegistrationResult, error)
	VotesLeft(ctx context.Context, candidate string) (int, error)
	Get(ctx context.Context, address string) (*domain.Airline, error)
	RegisteredCount(ctx context.Context) (int, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// RegistrationResult reports what a registerAirline call achieved: either
// the candidate is registered now, or the call counted as one vote.
type RegistrationResult struct {
	Candidate  string `json:"candidate"`
	Registered bool   `json:"registered"`
	Votes      int    `json:"votes"`
	VotesLeft  int    `json:"votes_left"`
}

type AirlineService struct {
	airlines     repository.AirlineRepository
	guard        access.Guard
	writerID     string
	minFundCents int64
	producer     Producer
	eventsTopic  string
}

func NewAirlineService(airlines repository.AirlineRepository, guard access.Guard, writerID string, minFundCents int64, producer Producer, eventsTopic string) *AirlineService {
	return &AirlineService{
		airlines:     airlines,
		guard:        guard,
		writerID:     writerID,
		minFundCents: minFundCents,
		producer:     producer,
		eventsTopic:  eventsTopic,
	}
}

// Fund marks the airline as funded. The deposit accumulates in the pooled
// balance, so repeat funding is allowed.
func (s *AirlineService) Fund(ctx context.Context, airline string, amountCents int64) error {
	if err := s.precheck(ctx); err != nil {
		return err
	}
	if amountCents < s.minFundCents {
		return domain.ErrInsufficientPayment
	}

	if err := s.airlines.Fund(ctx, airline); err != nil {
		return err
	}

	s.publish(ctx, kafka.SuretyEvent{
		Type:        kafka.EventFundingReceived,
		Airline:     airline,
		AmountCents: amountCents,
	})
	return nil
}

// RegisterAirline registers candidate, or casts one vote for it. Below
// ConsensusAirlineCount registered airlines any single funded, registered
// caller registers the candidate directly; from then on half of the
// registered airlines (rounded up) must agree.
func (s *AirlineService) RegisterAirline(ctx context.Context, caller, candidate string) (*RegistrationResult, error) {
	if err := s.precheck(ctx); err != nil {
		return nil, err
	}

	callerAirline, err := s.airlines.Get(ctx, caller)
	if err != nil {
		return nil, err
	}
	if callerAirline == nil || !callerAirline.Funded {
		return nil, domain.ErrNotFunded
	}
	if !callerAirline.Registered {
		return nil, domain.ErrNotRegistered
	}

	existing, err := s.airlines.Get(ctx, candidate)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Registered {
		return nil, domain.ErrAlreadyRegistered
	}

	count, err := s.airlines.RegisteredCount(ctx)
	if err != nil {
		return nil, err
	}

	if count < domain.ConsensusAirlineCount {
		if err := s.airlines.Register(ctx, candidate); err != nil {
			return nil, err
		}
		s.publish(ctx, kafka.SuretyEvent{Type: kafka.EventAirlineRegistered, Airline: candidate})
		return &RegistrationResult{Candidate: candidate, Registered: true, Votes: 1}, nil
	}

	needed := domain.VotesNeeded(count)
	votes, registered, err := s.airlines.CastVote(ctx, candidate, caller, needed)
	if err != nil {
		return nil, err
	}
	if registered {
		s.publish(ctx, kafka.SuretyEvent{Type: kafka.EventAirlineRegistered, Airline: candidate})
	}

	left := needed - votes
	if left < 0 {
		left = 0
	}
	return &RegistrationResult{Candidate: candidate, Registered: registered, Votes: votes, VotesLeft: left}, nil
}

func (s *AirlineService) VotesLeft(ctx context.Context, candidate string) (int, error) {
	count, err := s.airlines.RegisteredCount(ctx)
	if err != nil {
		return 0, err
	}
	votes, err := s.airlines.VoteCount(ctx, candidate)
	if err != nil {
		return 0, err
	}

	left := domain.VotesNeeded(count) - votes
	if left < 0 {
		left = 0
	}
	return left, nil
}

func (s *AirlineService) Get(ctx context.Context, address string) (*domain.Airline, error) {
	return s.airlines.Get(ctx, address)
}

func (s *AirlineService) RegisteredCount(ctx context.Context) (int, error) {
	return s.airlines.RegisteredCount(ctx)
}

func (s *AirlineService) precheck(ctx context.Context) error {
	if err := s.guard.RequireOperational(ctx); err != nil {
		return err
	}
	return s.guard.RequireAuthorized(ctx, s.writerID)
}

func (s *AirlineService) publish(ctx context.Context, event kafka.SuretyEvent) {
	if s.producer == nil || s.eventsTopic == "" {
		return
	}
	event.ID = uuid.NewString()
	event.At = time.Now()
	if err := s.producer.Publish(ctx, s.eventsTopic, event.Airline, event); err != nil {
		log.Printf("WARNING: failed to publish %s event for %s: %v", event.Type, event.Airline, err)
	}
}

var _ AirlineUseCase = (*AirlineService)(nil)
