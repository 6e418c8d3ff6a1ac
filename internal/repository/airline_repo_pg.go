package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/flightsurety/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AirlineRepository interface {
	Get(ctx context.Context, address string) (*domain.Airline, error)
	RegisteredCount(ctx context.Context) (int, error)
	Fund(ctx context.Context, address string) error
	Register(ctx context.Context, address string) error
	VoteCount(ctx context.Context, candidate string) (int, error)
	CastVote(ctx context.Context, candidate, voter string, votesNeeded int) (int, bool, error)
}

type PGAirlineRepository struct {
	db *pgxpool.Pool
}

func NewAirlineRepository(db *pgxpool.Pool) AirlineRepository {
	return &PGAirlineRepository{db: db}
}

func (r *PGAirlineRepository) Get(ctx context.Context, address string) (*domain.Airline, error) {
	row := r.db.QueryRow(ctx, `SELECT address, registered, funded FROM airlines WHERE address=$1`, address)
	var a domain.Airline
	if err := row.Scan(&a.Address, &a.Registered, &a.Funded); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *PGAirlineRepository) RegisteredCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM airlines WHERE registered`).Scan(&count)
	return count, err
}

func (r *PGAirlineRepository) Fund(ctx context.Context, address string) error {
	_, err := r.db.Exec(ctx, `INSERT INTO airlines (address, funded) VALUES ($1, TRUE)
		ON CONFLICT (address) DO UPDATE SET funded = TRUE`, address)
	return err
}

func (r *PGAirlineRepository) Register(ctx context.Context, address string) error {
	_, err := r.db.Exec(ctx, `INSERT INTO airlines (address, registered) VALUES ($1, TRUE)
		ON CONFLICT (address) DO UPDATE SET registered = TRUE`, address)
	return err
}

func (r *PGAirlineRepository) VoteCount(ctx context.Context, candidate string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM airline_votes WHERE candidate=$1`, candidate).Scan(&count)
	return count, err
}

// CastVote records one vote from voter for candidate and, inside the same
// transaction, registers the candidate once the threshold is met. Returns
// the vote count and whether the candidate got registered.
func (r *PGAirlineRepository) CastVote(ctx context.Context, candidate, voter string, votesNeeded int) (int, bool, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, false, err
	}
	defer tx.Rollback(ctx)

	res, err := tx.Exec(ctx, `INSERT INTO airline_votes (candidate, voter) VALUES ($1, $2)
		ON CONFLICT (candidate, voter) DO NOTHING`, candidate, voter)
	if err != nil {
		return 0, false, err
	}
	if res.RowsAffected() == 0 {
		return 0, false, domain.ErrDuplicateVote
	}

	var votes int
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM airline_votes WHERE candidate=$1`, candidate).Scan(&votes); err != nil {
		return 0, false, err
	}

	registered := votes >= votesNeeded
	if registered {
		if _, err := tx.Exec(ctx, `INSERT INTO airlines (address, registered) VALUES ($1, TRUE)
			ON CONFLICT (address) DO UPDATE SET registered = TRUE`, candidate); err != nil {
			return 0, false, err
		}
	}

	return votes, registered, tx.Commit(ctx)
}

var _ AirlineRepository = (*PGAirlineRepository)(nil)
