package insurance

import (
	"context"
	"testing"
	"time"

	"github.com/Domenick1991/flightsurety/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockInsuranceRepository struct {
	mock.Mock
}

func (m *MockInsuranceRepository) CreateBooking(ctx context.Context, booking *domain.Booking, ticketPriceCents int64, airline string) error {
	args := m.Called(ctx, booking, ticketPriceCents, airline)
	return args.Error(0)
}

func (m *MockInsuranceRepository) GetBooking(ctx context.Context, flightKey, passenger string) (*domain.Booking, error) {
	args := m.Called(ctx, flightKey, passenger)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockInsuranceRepository) ListInsured(ctx context.Context, flightKey string) ([]domain.Booking, error) {
	args := m.Called(ctx, flightKey)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockInsuranceRepository) Balance(ctx context.Context, account string) (int64, error) {
	args := m.Called(ctx, account)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInsuranceRepository) WithdrawAll(ctx context.Context, account string) (int64, error) {
	args := m.Called(ctx, account)
	return args.Get(0).(int64), args.Error(1)
}

type MockFlights struct {
	mock.Mock
}

func (m *MockFlights) GetByKey(ctx context.Context, ref, to string, landing time.Time) (*domain.Flight, error) {
	args := m.Called(ctx, ref, to, landing)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
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

var testLanding = time.Unix(1700000000, 0)

func testFlight() *domain.Flight {
	return &domain.Flight{
		Key:        domain.FlightKey("AF0187", "PAR", testLanding),
		Ref:        "AF0187",
		From:       "HAM",
		To:         "PAR",
		Landing:    testLanding,
		Airline:    "0xair-one",
		PriceCents: 50,
		Status:     domain.StatusUnknown,
	}
}

func newService(pool *MockInsuranceRepository, flights *MockFlights, guard *MockGuard, producer *MockProducer) *InsuranceService {
	return NewInsuranceService(pool, flights, guard, "surety-app", 100, producer, "surety_events", "surety_payouts")
}

func TestInsuranceService_Book_Success(t *testing.T) {
	mockPool := &MockInsuranceRepository{}
	mockFlights := &MockFlights{}
	mockGuard := &MockGuard{}
	mockProducer := &MockProducer{}
	service := newService(mockPool, mockFlights, mockGuard, mockProducer)

	ctx := context.Background()
	allowWrites(mockGuard, ctx)

	flight := testFlight()
	mockFlights.On("GetByKey", ctx, "AF0187", "PAR", testLanding).Return(flight, nil).Once()
	mockPool.On("CreateBooking", ctx, mock.AnythingOfType("*domain.Booking"), int64(50), "0xair-one").Return(nil).Once()
	mockProducer.On("Publish", ctx, "surety_events", "0xpax", mock.Anything).Return(nil).Once()

	result, err := service.Book(ctx, BookInput{
		Passenger:      "0xpax",
		Ref:            "AF0187",
		To:             "PAR",
		Landing:        testLanding,
		PaymentCents:   60,
		InsuranceCents: 10,
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(10), result.Booking.InsuranceCents)
	assert.Equal(t, flight.Key, result.Booking.FlightKey)
	assert.Equal(t, int64(0), result.ChangeCents)

	mockPool.AssertExpectations(t)
	mockProducer.AssertExpectations(t)
}

func TestInsuranceService_Book_ReturnsChange(t *testing.T) {
	mockPool := &MockInsuranceRepository{}
	mockFlights := &MockFlights{}
	mockGuard := &MockGuard{}
	mockProducer := &MockProducer{}
	service := newService(mockPool, mockFlights, mockGuard, mockProducer)

	ctx := context.Background()
	allowWrites(mockGuard, ctx)

	mockFlights.On("GetByKey", ctx, "AF0187", "PAR", testLanding).Return(testFlight(), nil).Once()
	mockPool.On("CreateBooking", ctx, mock.AnythingOfType("*domain.Booking"), int64(50), "0xair-one").Return(nil).Once()
	mockProducer.On("Publish", ctx, "surety_events", "0xpax", mock.Anything).Return(nil).Once()

	result, err := service.Book(ctx, BookInput{
		Passenger:      "0xpax",
		Ref:            "AF0187",
		To:             "PAR",
		Landing:        testLanding,
		PaymentCents:   100,
		InsuranceCents: 10,
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(40), result.ChangeCents)
}

func TestInsuranceService_Book_Failures(t *testing.T) {
	testCases := []struct {
		name        string
		input       BookInput
		flight      *domain.Flight
		repoErr     error
		expectedErr error
	}{
		{
			name:        "unknown flight",
			input:       BookInput{Passenger: "0xpax", Ref: "XX0000", To: "AMS", Landing: testLanding, PaymentCents: 60, InsuranceCents: 10},
			flight:      nil,
			expectedErr: domain.ErrUnknownFlight,
		},
		{
			name:        "payment below price plus insurance",
			input:       BookInput{Passenger: "0xpax", Ref: "AF0187", To: "PAR", Landing: testLanding, PaymentCents: 59, InsuranceCents: 10},
			flight:      testFlight(),
			expectedErr: domain.ErrInsufficientPayment,
		},
		{
			name:        "already booked",
			input:       BookInput{Passenger: "0xpax", Ref: "AF0187", To: "PAR", Landing: testLanding, PaymentCents: 60, InsuranceCents: 10},
			flight:      testFlight(),
			repoErr:     domain.ErrAlreadyBooked,
			expectedErr: domain.ErrAlreadyBooked,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockPool := &MockInsuranceRepository{}
			mockFlights := &MockFlights{}
			mockGuard := &MockGuard{}
			service := newService(mockPool, mockFlights, mockGuard, &MockProducer{})

			ctx := context.Background()
			allowWrites(mockGuard, ctx)
			mockFlights.On("GetByKey", ctx, tc.input.Ref, tc.input.To, testLanding).Return(tc.flight, nil).Once()
			if tc.repoErr != nil {
				mockPool.On("CreateBooking", ctx, mock.AnythingOfType("*domain.Booking"), int64(50), "0xair-one").Return(tc.repoErr).Once()
			}

			result, err := service.Book(ctx, tc.input)
			assert.ErrorIs(t, err, tc.expectedErr)
			assert.Nil(t, result)
			if tc.repoErr == nil {
				mockPool.AssertNotCalled(t, "CreateBooking")
			}
		})
	}
}

func TestInsuranceService_Book_InsuranceOverCap(t *testing.T) {
	mockPool := &MockInsuranceRepository{}
	mockFlights := &MockFlights{}
	mockGuard := &MockGuard{}
	service := newService(mockPool, mockFlights, mockGuard, &MockProducer{})

	ctx := context.Background()
	allowWrites(mockGuard, ctx)

	result, err := service.Book(ctx, BookInput{
		Passenger:      "0xpax",
		Ref:            "AF0187",
		To:             "PAR",
		Landing:        testLanding,
		PaymentCents:   300,
		InsuranceCents: 101,
	})
	assert.ErrorIs(t, err, domain.ErrInsuranceOverCap)
	assert.Nil(t, result)
	mockFlights.AssertNotCalled(t, "GetByKey")
	mockPool.AssertNotCalled(t, "CreateBooking")
}

func TestInsuranceService_Withdraw_Success(t *testing.T) {
	mockPool := &MockInsuranceRepository{}
	mockGuard := &MockGuard{}
	mockProducer := &MockProducer{}
	service := newService(mockPool, &MockFlights{}, mockGuard, mockProducer)

	ctx := context.Background()
	allowWrites(mockGuard, ctx)

	mockPool.On("WithdrawAll", ctx, "0xpax").Return(int64(15), nil).Once()
	mockProducer.On("Publish", ctx, "surety_events", "0xpax", mock.Anything).Return(nil).Once()
	mockProducer.On("Publish", ctx, "surety_payouts", "0xpax", mock.Anything).Return(nil).Once()

	amount, err := service.Withdraw(ctx, "0xpax")
	assert.NoError(t, err)
	assert.Equal(t, int64(15), amount)

	mockPool.AssertExpectations(t)
	mockProducer.AssertExpectations(t)
}

func TestInsuranceService_Withdraw_NothingToWithdraw(t *testing.T) {
	mockPool := &MockInsuranceRepository{}
	mockGuard := &MockGuard{}
	mockProducer := &MockProducer{}
	service := newService(mockPool, &MockFlights{}, mockGuard, mockProducer)

	ctx := context.Background()
	allowWrites(mockGuard, ctx)

	mockPool.On("WithdrawAll", ctx, "0xpax").Return(int64(0), domain.ErrNothingToWithdraw).Once()

	amount, err := service.Withdraw(ctx, "0xpax")
	assert.ErrorIs(t, err, domain.ErrNothingToWithdraw)
	assert.Equal(t, int64(0), amount)
	mockProducer.AssertNotCalled(t, "Publish")
}

// The credit is zeroed in the store before any transfer is requested, so a
// second withdrawal racing the first finds nothing left.
func TestInsuranceService_Withdraw_ReentrantCallSeesZero(t *testing.T) {
	mockPool := &MockInsuranceRepository{}
	mockGuard := &MockGuard{}
	mockProducer := &MockProducer{}
	service := newService(mockPool, &MockFlights{}, mockGuard, mockProducer)

	ctx := context.Background()
	allowWrites(mockGuard, ctx)

	mockPool.On("WithdrawAll", ctx, "0xpax").Return(int64(15), nil).Once()
	mockPool.On("WithdrawAll", ctx, "0xpax").Return(int64(0), domain.ErrNothingToWithdraw).Once()
	mockProducer.On("Publish", ctx, "surety_events", "0xpax", mock.Anything).Return(nil).Once()
	mockProducer.On("Publish", ctx, "surety_payouts", "0xpax", mock.Anything).Return(nil).Once()

	amount, err := service.Withdraw(ctx, "0xpax")
	assert.NoError(t, err)
	assert.Equal(t, int64(15), amount)

	_, err = service.Withdraw(ctx, "0xpax")
	assert.ErrorIs(t, err, domain.ErrNothingToWithdraw)

	mockPool.AssertExpectations(t)
}

func TestInsuranceService_Balance(t *testing.T) {
	mockPool := &MockInsuranceRepository{}
	service := newService(mockPool, &MockFlights{}, &MockGuard{}, &MockProducer{})

	ctx := context.Background()
	mockPool.On("Balance", ctx, "0xpax").Return(int64(15), nil).Once()

	amount, err := service.Balance(ctx, "0xpax")
	assert.NoError(t, err)
	assert.Equal(t, int64(15), amount)
}
