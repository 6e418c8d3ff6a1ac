package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type StateRepository interface {
	Operational(ctx context.Context) (bool, error)
	SetOperational(ctx context.Context, on bool) error
	AuthorizeCaller(ctx context.Context, caller string) error
	IsAuthorized(ctx context.Context, caller string) (bool, error)
	NextNonce(ctx context.Context) (uint64, error)
}

type PGStateRepository struct {
	db *pgxpool.Pool
}

func NewStateRepository(db *pgxpool.Pool) StateRepository {
	return &PGStateRepository{db: db}
}

func (r *PGStateRepository) Operational(ctx context.Context) (bool, error) {
	var operational bool
	err := r.db.QueryRow(ctx, `SELECT operational FROM surety_state WHERE id=1`).Scan(&operational)
	return operational, err
}

func (r *PGStateRepository) SetOperational(ctx context.Context, on bool) error {
	_, err := r.db.Exec(ctx, `UPDATE surety_state SET operational=$1 WHERE id=1`, on)
	return err
}

func (r *PGStateRepository) AuthorizeCaller(ctx context.Context, caller string) error {
	_, err := r.db.Exec(ctx, `INSERT INTO authorized_callers (caller) VALUES ($1) ON CONFLICT (caller) DO NOTHING`, caller)
	return err
}

func (r *PGStateRepository) IsAuthorized(ctx context.Context, caller string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM authorized_callers WHERE caller=$1)`, caller).Scan(&exists)
	return exists, err
}

// NextNonce advances the ledger nonce used to seed pseudo-random index
// assignment. Deterministic given the stored state, not unpredictable.
func (r *PGStateRepository) NextNonce(ctx context.Context) (uint64, error) {
	var nonce uint64
	err := r.db.QueryRow(ctx, `UPDATE surety_state SET nonce = nonce + 1 WHERE id=1 RETURNING nonce`).Scan(&nonce)
	return nonce, err
}

var _ StateRepository = (*PGStateRepository)(nil)
