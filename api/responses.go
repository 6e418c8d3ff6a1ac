package api

import (
	"net/http"

	"github.com/Domenick1991/flightsurety/internal/service/oracles"
	"github.com/gin-gonic/gin"
)

// ResponseHandler exposes consensus request state read-only.
type ResponseHandler struct {
	service oracles.OracleUseCase
}

func NewResponseHandler(service oracles.OracleUseCase) *ResponseHandler {
	return &ResponseHandler{service: service}
}

func (h *ResponseHandler) Register(router *gin.RouterGroup) {
	router.GET("/response/:ref/:dest/:landing", h.get)
}

func (h *ResponseHandler) get(c *gin.Context) {
	landing, err := parseLanding(c.Param("landing"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid landing time"})
		return
	}

	request, err := h.service.Request(c.Request.Context(), c.Param("ref"), c.Param("dest"), landing)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if request == nil {
		c.JSON(http.StatusNotFound, gin.H{"found": false})
		return
	}
	c.JSON(http.StatusOK, request)
}
