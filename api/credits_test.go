package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Domenick1991/flightsurety/internal/service/insurance"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockInsuranceUseCase is a mock implementation of insurance.InsuranceUseCase
type MockInsuranceUseCase struct {
	mock.Mock
}

func (m *MockInsuranceUseCase) Book(ctx context.Context, input insurance.BookInput) (*insurance.BookingResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*insurance.BookingResult), args.Error(1)
}

func (m *MockInsuranceUseCase) Withdraw(ctx context.Context, caller string) (int64, error) {
	args := m.Called(ctx, caller)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInsuranceUseCase) Balance(ctx context.Context, account string) (int64, error) {
	args := m.Called(ctx, account)
	return args.Get(0).(int64), args.Error(1)
}

func TestCreditHandler_get(t *testing.T) {
	mockService := &MockInsuranceUseCase{}
	handler := NewCreditHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "account", Value: "0xpax"}}
	c.Request = httptest.NewRequest("GET", "/credit/0xpax", nil)

	mockService.On("Balance", c.Request.Context(), "0xpax").Return(int64(15), nil)

	handler.get(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"account": "0xpax", "amount_cents": 15}`, w.Body.String())

	mockService.AssertExpectations(t)
}

func TestCreditHandler_get_ZeroBalance(t *testing.T) {
	mockService := &MockInsuranceUseCase{}
	handler := NewCreditHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "account", Value: "0xnobody"}}
	c.Request = httptest.NewRequest("GET", "/credit/0xnobody", nil)

	mockService.On("Balance", c.Request.Context(), "0xnobody").Return(int64(0), nil)

	handler.get(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"account": "0xnobody", "amount_cents": 0}`, w.Body.String())
}
