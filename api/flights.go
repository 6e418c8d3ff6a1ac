package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Domenick1991/flightsurety/internal/service/flights"
	"github.com/gin-gonic/gin"
)

// FlightHandler exposes the ledger's flight state read-only. Handlers never
// mutate; an unknown key is a not-found, not a failure.
type FlightHandler struct {
	service flights.FlightUseCase
}

func NewFlightHandler(service flights.FlightUseCase) *FlightHandler {
	return &FlightHandler{service: service}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("/flights", h.list)
	router.GET("/flights/:ref/:dest/:landing", h.get)
}

func (h *FlightHandler) list(c *gin.Context) {
	flights, err := h.service.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, flights)
}

func (h *FlightHandler) get(c *gin.Context) {
	landing, err := parseLanding(c.Param("landing"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid landing time"})
		return
	}

	flight, err := h.service.GetByKey(c.Request.Context(), c.Param("ref"), c.Param("dest"), landing)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if flight == nil {
		c.JSON(http.StatusNotFound, gin.H{"found": false})
		return
	}
	c.JSON(http.StatusOK, flight)
}

func parseLanding(raw string) (time.Time, error) {
	unix, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(unix, 0), nil
}
