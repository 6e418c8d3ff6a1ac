package api

import (
	"net/http"

	"github.com/Domenick1991/flightsurety/internal/service/insurance"
	"github.com/gin-gonic/gin"
)

// CreditHandler exposes withdrawable balances read-only.
type CreditHandler struct {
	service insurance.InsuranceUseCase
}

func NewCreditHandler(service insurance.InsuranceUseCase) *CreditHandler {
	return &CreditHandler{service: service}
}

func (h *CreditHandler) Register(router *gin.RouterGroup) {
	router.GET("/credit/:account", h.get)
}

func (h *CreditHandler) get(c *gin.Context) {
	account := c.Param("account")
	amount, err := h.service.Balance(c.Request.Context(), account)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account, "amount_cents": amount})
}
