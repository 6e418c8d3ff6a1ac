package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/flightsurety/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OracleRepository interface {
	CreateOracle(ctx context.Context, oracle *domain.Oracle) error
	GetOracle(ctx context.Context, address string) (*domain.Oracle, error)
	OpenRequest(ctx context.Context, request *domain.OracleRequest) error
	GetRequest(ctx context.Context, flightKey string) (*domain.OracleRequest, error)
	RecordResponse(ctx context.Context, flightKey, oracle string, code domain.StatusCode) (int, error)
	Settle(ctx context.Context, flightKey string, code domain.StatusCode, credits map[string]int64) error
}

type PGOracleRepository struct {
	db *pgxpool.Pool
}

func NewOracleRepository(db *pgxpool.Pool) OracleRepository {
	return &PGOracleRepository{db: db}
}

func (r *PGOracleRepository) CreateOracle(ctx context.Context, oracle *domain.Oracle) error {
	res, err := r.db.Exec(ctx, `INSERT INTO oracles (address, index0, index1, index2) VALUES ($1, $2, $3, $4)
		ON CONFLICT (address) DO NOTHING`,
		oracle.Address, int(oracle.Indexes[0]), int(oracle.Indexes[1]), int(oracle.Indexes[2]))
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return domain.ErrAlreadyRegistered
	}
	return nil
}

func (r *PGOracleRepository) GetOracle(ctx context.Context, address string) (*domain.Oracle, error) {
	row := r.db.QueryRow(ctx, `SELECT address, index0, index1, index2 FROM oracles WHERE address=$1`, address)
	var o domain.Oracle
	var i0, i1, i2 int
	if err := row.Scan(&o.Address, &i0, &i1, &i2); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	o.Indexes = [3]uint8{uint8(i0), uint8(i1), uint8(i2)}
	return &o, nil
}

func (r *PGOracleRepository) OpenRequest(ctx context.Context, request *domain.OracleRequest) error {
	res, err := r.db.Exec(ctx, `INSERT INTO oracle_requests (flight_key, requester, requested_index, is_open) VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (flight_key) DO NOTHING`,
		request.FlightKey, request.Requester, int(request.Index))
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		// a closed request never reopens for the same flight key
		return domain.ErrRequestClosed
	}
	return nil
}

func (r *PGOracleRepository) GetRequest(ctx context.Context, flightKey string) (*domain.OracleRequest, error) {
	row := r.db.QueryRow(ctx, `SELECT flight_key, requester, requested_index, is_open FROM oracle_requests WHERE flight_key=$1`, flightKey)
	var req domain.OracleRequest
	var index int
	if err := row.Scan(&req.FlightKey, &req.Requester, &index, &req.Open); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	req.Index = uint8(index)
	return &req, nil
}

// RecordResponse stores the oracle's answer and returns how many oracles
// have now reported the same status code for this request.
func (r *PGOracleRepository) RecordResponse(ctx context.Context, flightKey, oracle string, code domain.StatusCode) (int, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	res, err := tx.Exec(ctx, `INSERT INTO oracle_responses (flight_key, oracle, status_code) VALUES ($1, $2, $3)
		ON CONFLICT (flight_key, oracle) DO NOTHING`, flightKey, oracle, int(code))
	if err != nil {
		return 0, err
	}
	if res.RowsAffected() == 0 {
		return 0, domain.ErrDuplicateResponse
	}

	var concurring int
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM oracle_responses WHERE flight_key=$1 AND status_code=$2`, flightKey, int(code)).Scan(&concurring); err != nil {
		return 0, err
	}

	return concurring, tx.Commit(ctx)
}

// Settle closes the request, finalizes the flight status and applies the
// insurance credits, all in one transaction. Either everything commits or
// the ledger is untouched.
func (r *PGOracleRepository) Settle(ctx context.Context, flightKey string, code domain.StatusCode, credits map[string]int64) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	res, err := tx.Exec(ctx, `UPDATE oracle_requests SET is_open = FALSE WHERE flight_key=$1 AND is_open`, flightKey)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return domain.ErrRequestClosed
	}

	var current int
	err = tx.QueryRow(ctx, `SELECT status_code FROM flights WHERE key=$1 FOR UPDATE`, flightKey).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrUnknownFlight
	}
	if err != nil {
		return err
	}
	if domain.StatusCode(current) != domain.StatusUnknown {
		return domain.ErrAlreadyProcessed
	}

	if _, err := tx.Exec(ctx, `UPDATE flights SET status_code=$2 WHERE key=$1`, flightKey, int(code)); err != nil {
		return err
	}

	if len(credits) > 0 {
		if _, err := tx.Exec(ctx, `UPDATE bookings SET insurance_cents = 0 WHERE flight_key=$1 AND insurance_cents > 0`, flightKey); err != nil {
			return err
		}
		for account, amount := range credits {
			if _, err := tx.Exec(ctx, `INSERT INTO credits (account, amount_cents) VALUES ($1, $2)
				ON CONFLICT (account) DO UPDATE SET amount_cents = credits.amount_cents + EXCLUDED.amount_cents`,
				account, amount); err != nil {
				return err
			}
		}
	}

	return tx.Commit(ctx)
}

var _ OracleRepository = (*PGOracleRepository)(nil)
