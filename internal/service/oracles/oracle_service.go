package oracles

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

type OracleUseCase interface {
	RegisterOracle(ctx context.Context, caller string, feeCents int64) (*domain.Oracle, error)
	MyIndexes(ctx context.Context, caller string) ([3]uint8, error)
	FetchFlightStatus(ctx context.Context, requester, ref, to string, landing time.Time) (*domain.OracleRequest, error)
	SubmitOracleResponse(ctx context.Context, input SubmitResponseInput) (*SubmissionResult, error)
	Request(ctx context.Context, ref, to string, landing time.Time) (*domain.OracleRequest, error)
}

// Flights is the slice of the flight registry consensus needs: status
// requests only open for registered flights.
type Flights interface {
	GetByKey(ctx context.Context, ref, to string, landing time.Time) (*domain.Flight, error)
}

// Bookings lists the insured bookings of a flight so the settlement can
// compute each passenger's payout.
type Bookings interface {
	ListInsured(ctx context.Context, flightKey string) ([]domain.Booking, error)
}

// NonceSource advances the ledger nonce seeding index derivation.
type NonceSource interface {
	NextNonce(ctx context.Context) (uint64, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type SubmitResponseInput struct {
	Oracle  string            `json:"oracle"`
	Index   uint8             `json:"index"`
	Ref     string            `json:"ref"`
	To      string            `json:"to"`
	Landing time.Time         `json:"landing"`
	Status  domain.StatusCode `json:"status_code"`
}

// SubmissionResult reports whether this response closed the request and how
// many concurring responses the submitted code has.
type SubmissionResult struct {
	Concurring int  `json:"concurring"`
	Closed     bool `json:"closed"`
}

type OracleService struct {
	consensus           repository.OracleRepository
	flights             Flights
	bookings            Bookings
	nonces              NonceSource
	guard               access.Guard
	writerID            string
	feeCents            int64
	minResponses        int
	producer            Producer
	eventsTopic         string
	oracleRequestsTopic string
}

func NewOracleService(
	consensus repository.OracleRepository,
	flights Flights,
	bookings Bookings,
	nonces NonceSource,
	guard access.Guard,
	writerID string,
	feeCents int64,
	minResponses int,
	producer Producer,
	eventsTopic, oracleRequestsTopic string,
) *OracleService {
	return &OracleService{
		consensus:           consensus,
		flights:             flights,
		bookings:            bookings,
		nonces:              nonces,
		guard:               guard,
		writerID:            writerID,
		feeCents:            feeCents,
		minResponses:        minResponses,
		producer:            producer,
		eventsTopic:         eventsTopic,
		oracleRequestsTopic: oracleRequestsTopic,
	}
}

// RegisterOracle admits the caller into the federation and assigns its three
// lifetime indexes.
func (s *OracleService) RegisterOracle(ctx context.Context, caller string, feeCents int64) (*domain.Oracle, error) {
	if err := s.precheck(ctx); err != nil {
		return nil, err
	}
	if feeCents < s.feeCents {
		return nil, domain.ErrInsufficientPayment
	}

	nonce, err := s.nonces.NextNonce(ctx)
	if err != nil {
		return nil, err
	}

	oracle := &domain.Oracle{
		Address: caller,
		Indexes: deriveIndexes(nonce, caller),
	}
	if err := s.consensus.CreateOracle(ctx, oracle); err != nil {
		return nil, err
	}

	s.publish(ctx, s.eventsTopic, kafka.SuretyEvent{
		Type:    kafka.EventOracleRegistered,
		Oracle:  caller,
		Indexes: []int{int(oracle.Indexes[0]), int(oracle.Indexes[1]), int(oracle.Indexes[2])},
	})
	return oracle, nil
}

func (s *OracleService) MyIndexes(ctx context.Context, caller string) ([3]uint8, error) {
	oracle, err := s.consensus.GetOracle(ctx, caller)
	if err != nil {
		return [3]uint8{}, err
	}
	if oracle == nil {
		return [3]uint8{}, domain.ErrOracleNotRegistered
	}
	return oracle.Indexes, nil
}

// FetchFlightStatus opens a consensus request for the flight and announces
// the index oracles must hold to respond. An already open request is
// returned as is; a closed one never reopens.
func (s *OracleService) FetchFlightStatus(ctx context.Context, requester, ref, to string, landing time.Time) (*domain.OracleRequest, error) {
	if err := s.precheck(ctx); err != nil {
		return nil, err
	}

	flight, err := s.flights.GetByKey(ctx, ref, to, landing)
	if err != nil {
		return nil, err
	}
	if flight == nil {
		return nil, domain.ErrUnknownFlight
	}

	if existing, err := s.consensus.GetRequest(ctx, flight.Key); err != nil {
		return nil, err
	} else if existing != nil {
		if existing.Open {
			return existing, nil
		}
		return nil, domain.ErrRequestClosed
	}

	nonce, err := s.nonces.NextNonce(ctx)
	if err != nil {
		return nil, err
	}

	request := &domain.OracleRequest{
		FlightKey: flight.Key,
		Requester: requester,
		Index:     deriveIndex(nonce, requester, 0),
		Open:      true,
	}
	if err := s.consensus.OpenRequest(ctx, request); err != nil {
		return nil, err
	}

	event := kafka.SuretyEvent{
		Type:        kafka.EventOracleRequest,
		Ref:         ref,
		Destination: to,
		Landing:     landing.Unix(),
		Index:       int(request.Index),
	}
	s.publish(ctx, s.eventsTopic, event)
	s.publish(ctx, s.oracleRequestsTopic, event)
	return request, nil
}

// SubmitOracleResponse records one oracle's observation. When the submitted
// code reaches the quorum, the same call settles the flight: the request
// closes for good, the status becomes final, and a LateAirline verdict
// credits every insured passenger 1.5x their insurance.
func (s *OracleService) SubmitOracleResponse(ctx context.Context, input SubmitResponseInput) (*SubmissionResult, error) {
	if err := s.precheck(ctx); err != nil {
		return nil, err
	}

	oracle, err := s.consensus.GetOracle(ctx, input.Oracle)
	if err != nil {
		return nil, err
	}
	if oracle == nil {
		return nil, domain.ErrOracleNotRegistered
	}
	if !oracle.HasIndex(input.Index) {
		return nil, domain.ErrIndexMismatch
	}

	flightKey := domain.FlightKey(input.Ref, input.To, input.Landing)
	request, err := s.consensus.GetRequest(ctx, flightKey)
	if err != nil {
		return nil, err
	}
	if request == nil || !request.Open {
		return nil, domain.ErrRequestClosed
	}
	if request.Index != input.Index {
		return nil, domain.ErrIndexMismatch
	}

	concurring, err := s.consensus.RecordResponse(ctx, flightKey, input.Oracle, input.Status)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, s.eventsTopic, kafka.SuretyEvent{
		Type:        kafka.EventOracleReport,
		Ref:         input.Ref,
		Destination: input.To,
		Landing:     input.Landing.Unix(),
		Oracle:      input.Oracle,
		StatusCode:  int(input.Status),
	})

	if concurring < s.minResponses {
		return &SubmissionResult{Concurring: concurring}, nil
	}

	credits, err := s.payouts(ctx, flightKey, input.Status)
	if err != nil {
		return nil, err
	}
	if err := s.consensus.Settle(ctx, flightKey, input.Status, credits); err != nil {
		return nil, err
	}

	s.publish(ctx, s.eventsTopic, kafka.SuretyEvent{
		Type:        kafka.EventFlightStatusInfo,
		Ref:         input.Ref,
		Destination: input.To,
		Landing:     input.Landing.Unix(),
		StatusCode:  int(input.Status),
	})
	s.publish(ctx, s.eventsTopic, kafka.SuretyEvent{
		Type:        kafka.EventFlightProcessed,
		Ref:         input.Ref,
		Destination: input.To,
		Landing:     input.Landing.Unix(),
	})
	return &SubmissionResult{Concurring: concurring, Closed: true}, nil
}

func (s *OracleService) Request(ctx context.Context, ref, to string, landing time.Time) (*domain.OracleRequest, error) {
	return s.consensus.GetRequest(ctx, domain.FlightKey(ref, to, landing))
}

// payouts computes the per-passenger credits a settlement applies. Only a
// LateAirline verdict pays out.
func (s *OracleService) payouts(ctx context.Context, flightKey string, status domain.StatusCode) (map[string]int64, error) {
	if status != domain.StatusLateAirline {
		return nil, nil
	}

	insured, err := s.bookings.ListInsured(ctx, flightKey)
	if err != nil {
		return nil, err
	}

	credits := make(map[string]int64, len(insured))
	for _, b := range insured {
		credits[b.Passenger] = domain.InsurancePayout(b.InsuranceCents)
	}
	return credits, nil
}

func (s *OracleService) precheck(ctx context.Context) error {
	if err := s.guard.RequireOperational(ctx); err != nil {
		return err
	}
	return s.guard.RequireAuthorized(ctx, s.writerID)
}

func (s *OracleService) publish(ctx context.Context, topic string, event kafka.SuretyEvent) {
	if s.producer == nil || topic == "" {
		return
	}
	event.ID = uuid.NewString()
	event.At = time.Now()
	if err := s.producer.Publish(ctx, topic, event.Ref, event); err != nil {
		log.Printf("WARNING: failed to publish %s event for %s: %v", event.Type, event.Ref, err)
	}
}

var _ OracleUseCase = (*OracleService)(nil)
