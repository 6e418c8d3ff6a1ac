package domain

// Airline is a governance participant. It must fund itself before it can
// register flights or vote other airlines in. Registered never flips back
// to false.
type Airline struct {
	Address    string `json:"address"`
	Registered bool   `json:"registered"`
	Funded     bool   `json:"funded"`
}

// VotesNeeded is the multi-party registration threshold: half of the
// currently registered airlines, rounded up.
func VotesNeeded(registeredCount int) int {
	return (registeredCount + 1) / 2
}

// ConsensusAirlineCount is the registry size from which registration
// switches from single-caller to multi-party voting.
const ConsensusAirlineCount = 4
