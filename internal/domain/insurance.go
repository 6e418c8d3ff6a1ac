package domain

// Booking ties a passenger to a flight, with the insurance amount the
// passenger subscribed at booking time (0 if none). The insurance amount is
// zeroed when the payout is credited so a flight can never be settled twice
// for the same passenger.
type Booking struct {
	FlightKey      string `json:"flight_key"`
	Passenger      string `json:"passenger"`
	InsuranceCents int64  `json:"insurance_cents"`
}

// InsurancePayout is the amount credited to a passenger when the airline is
// responsible for the delay: 1.5x the subscribed insurance.
func InsurancePayout(insuranceCents int64) int64 {
	return insuranceCents * 3 / 2
}
