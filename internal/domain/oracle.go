package domain

// OracleIndexRange bounds the pseudo-random indexes assigned to oracles and
// to status requests. Only oracles holding the request's index may respond.
const OracleIndexRange = 10

// Oracle is a registered member of the oracle federation. Its three indexes
// are assigned at registration and never change.
type Oracle struct {
	Address string   `json:"address"`
	Indexes [3]uint8 `json:"indexes"`
}

func (o Oracle) HasIndex(index uint8) bool {
	return o.Indexes[0] == index || o.Indexes[1] == index || o.Indexes[2] == index
}

// OracleRequest is an open window during which oracles holding Index may
// submit a status observation for the flight. Once closed it never reopens.
type OracleRequest struct {
	FlightKey string `json:"flight_key"`
	Requester string `json:"requester"`
	Index     uint8  `json:"index"`
	Open      bool   `json:"open"`
}
