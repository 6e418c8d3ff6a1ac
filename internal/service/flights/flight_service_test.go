package flights

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/flightsurety/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockFlightRepository struct {
	mock.Mock
}

func (m *MockFlightRepository) Create(ctx context.Context, flight *domain.Flight) error {
	args := m.Called(ctx, flight)
	return args.Error(0)
}

func (m *MockFlightRepository) GetByKey(ctx context.Context, key string) (*domain.Flight, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Flight), args.Error(1)
}

type MockAirlines struct {
	mock.Mock
}

func (m *MockAirlines) Get(ctx context.Context, address string) (*domain.Airline, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Airline), args.Error(1)
}

type MockGuard struct {
	mock.Mock
}

func (m *MockGuard) RequireOperational(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockGuard) RequireAuthorized(ctx context.Context, caller string) error {
	args := m.Called(ctx, caller)
	return args.Error(0)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetFlights(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockCache) SetFlights(ctx context.Context, flights []domain.Flight) error {
	args := m.Called(ctx, flights)
	return args.Error(0)
}

func (m *MockCache) InvalidateFlights(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

func allowWrites(guard *MockGuard, ctx context.Context) {
	guard.On("RequireOperational", ctx).Return(nil)
	guard.On("RequireAuthorized", ctx, "surety-app").Return(nil)
}

func testInput() RegisterFlightInput {
	takeOff := time.Unix(1700000000, 0)
	return RegisterFlightInput{
		Airline:    "0xair-one",
		TakeOff:    takeOff,
		Landing:    takeOff.Add(2 * time.Hour),
		Ref:        "AF0187",
		PriceCents: 50,
		From:       "HAM",
		To:         "PAR",
	}
}

func TestFlightService_RegisterFlight_Success(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockAirlines := &MockAirlines{}
	mockGuard := &MockGuard{}
	mockProducer := &MockProducer{}
	service := NewFlightService(mockRepo, mockAirlines, mockGuard, "surety-app", nil, mockProducer, "surety_events")

	ctx := context.Background()
	allowWrites(mockGuard, ctx)

	input := testInput()
	mockAirlines.On("Get", ctx, "0xair-one").Return(&domain.Airline{Address: "0xair-one", Registered: true, Funded: true}, nil).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*domain.Flight")).Return(nil).Once()
	mockProducer.On("Publish", ctx, "surety_events", "AF0187", mock.Anything).Return(nil).Once()

	flight, err := service.RegisterFlight(ctx, input)
	assert.NoError(t, err)
	assert.Equal(t, domain.FlightKey("AF0187", "PAR", input.Landing), flight.Key)
	assert.Equal(t, domain.StatusUnknown, flight.Status)
	assert.Equal(t, int64(50), flight.PriceCents)

	mockRepo.AssertExpectations(t)
	mockProducer.AssertExpectations(t)
}

func TestFlightService_RegisterFlight_InvalidatesCache(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockAirlines := &MockAirlines{}
	mockGuard := &MockGuard{}
	mockCache := &MockCache{}
	service := NewFlightService(mockRepo, mockAirlines, mockGuard, "surety-app", mockCache, nil, "")

	ctx := context.Background()
	allowWrites(mockGuard, ctx)

	mockAirlines.On("Get", ctx, "0xair-one").Return(&domain.Airline{Address: "0xair-one", Registered: true, Funded: true}, nil).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*domain.Flight")).Return(nil).Once()
	mockCache.On("InvalidateFlights", ctx).Return(nil).Once()

	_, err := service.RegisterFlight(ctx, testInput())
	assert.NoError(t, err)
	mockCache.AssertExpectations(t)
}

func TestFlightService_RegisterFlight_RequiresFunding(t *testing.T) {
	testCases := []struct {
		name    string
		airline *domain.Airline
	}{
		{name: "unknown airline", airline: nil},
		{name: "registered but unfunded", airline: &domain.Airline{Address: "0xair-one", Registered: true}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &MockFlightRepository{}
			mockAirlines := &MockAirlines{}
			mockGuard := &MockGuard{}
			service := NewFlightService(mockRepo, mockAirlines, mockGuard, "surety-app", nil, &MockProducer{}, "surety_events")

			ctx := context.Background()
			allowWrites(mockGuard, ctx)
			mockAirlines.On("Get", ctx, "0xair-one").Return(tc.airline, nil).Once()

			flight, err := service.RegisterFlight(ctx, testInput())
			assert.ErrorIs(t, err, domain.ErrNotFunded)
			assert.Nil(t, flight)
			mockRepo.AssertNotCalled(t, "Create")
		})
	}
}

func TestFlightService_RegisterFlight_DuplicateKey(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockAirlines := &MockAirlines{}
	mockGuard := &MockGuard{}
	service := NewFlightService(mockRepo, mockAirlines, mockGuard, "surety-app", nil, &MockProducer{}, "surety_events")

	ctx := context.Background()
	allowWrites(mockGuard, ctx)

	mockAirlines.On("Get", ctx, "0xair-one").Return(&domain.Airline{Address: "0xair-one", Registered: true, Funded: true}, nil).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*domain.Flight")).Return(domain.ErrAlreadyRegistered).Once()

	flight, err := service.RegisterFlight(ctx, testInput())
	assert.ErrorIs(t, err, domain.ErrAlreadyRegistered)
	assert.Nil(t, flight)
}

func TestFlightService_List_CacheHit(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(mockRepo, &MockAirlines{}, &MockGuard{}, "surety-app", mockCache, nil, "")

	ctx := context.Background()
	cached := []domain.Flight{{Key: "k1", Ref: "AF0187", To: "PAR"}}
	mockCache.On("GetFlights", ctx).Return(cached, nil).Once()

	flights, err := service.List(ctx)
	assert.NoError(t, err)
	assert.Equal(t, cached, flights)
	mockRepo.AssertNotCalled(t, "List")
}

func TestFlightService_List_CacheMiss(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(mockRepo, &MockAirlines{}, &MockGuard{}, "surety-app", mockCache, nil, "")

	ctx := context.Background()
	stored := []domain.Flight{{Key: "k1", Ref: "AF0187", To: "PAR"}}
	mockCache.On("GetFlights", ctx).Return(nil, nil).Once()
	mockRepo.On("List", ctx).Return(stored, nil).Once()
	mockCache.On("SetFlights", ctx, stored).Return(nil).Once()

	flights, err := service.List(ctx)
	assert.NoError(t, err)
	assert.Equal(t, stored, flights)

	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestFlightService_GetByKey_NotFoundIsNotAnError(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	service := NewFlightService(mockRepo, &MockAirlines{}, &MockGuard{}, "surety-app", nil, nil, "")

	ctx := context.Background()
	landing := time.Unix(1700000000, 0)
	mockRepo.On("GetByKey", ctx, domain.FlightKey("XX0000", "AMS", landing)).Return(nil, nil).Once()

	flight, err := service.GetByKey(ctx, "XX0000", "AMS", landing)
	assert.NoError(t, err)
	assert.Nil(t, flight)
}

func TestFlightService_List_RepoError(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	service := NewFlightService(mockRepo, &MockAirlines{}, &MockGuard{}, "surety-app", nil, nil, "")

	ctx := context.Background()
	mockRepo.On("List", ctx).Return(nil, errors.New("connection refused")).Once()

	flights, err := service.List(ctx)
	assert.Error(t, err)
	assert.Nil(t, flights)
}
