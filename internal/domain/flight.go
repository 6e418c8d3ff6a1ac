package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// StatusCode is the resolved real-world status of a flight. A flight keeps
// StatusUnknown until the oracle federation reaches consensus, then the code
// is final.
type StatusCode int

const (
	StatusUnknown       StatusCode = 0
	StatusOnTime        StatusCode = 10
	StatusLateAirline   StatusCode = 20
	StatusLateWeather   StatusCode = 30
	StatusLateTechnical StatusCode = 40
	StatusLateOther     StatusCode = 50
)

func (s StatusCode) Valid() bool {
	switch s {
	case StatusUnknown, StatusOnTime, StatusLateAirline, StatusLateWeather, StatusLateTechnical, StatusLateOther:
		return true
	}
	return false
}

type Flight struct {
	Key        string     `json:"key"`
	Ref        string     `json:"ref"`
	From       string     `json:"from"`
	To         string     `json:"to"`
	TakeOff    time.Time  `json:"take_off"`
	Landing    time.Time  `json:"landing"`
	Airline    string     `json:"airline"`
	PriceCents int64      `json:"price_cents"`
	Status     StatusCode `json:"status_code"`
}

// FlightKey derives the unique ledger key for a flight from its reference,
// destination and scheduled landing time.
func FlightKey(ref, to string, landing time.Time) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", ref, to, landing.Unix())))
	return hex.EncodeToString(sum[:])
}
