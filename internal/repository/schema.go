package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the ledger schema. The store is the system of record, so
// every entity is durably retrievable by its key after a restart.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS surety_state (
			id INT PRIMARY KEY,
			operational BOOLEAN NOT NULL DEFAULT TRUE,
			nonce BIGINT NOT NULL DEFAULT 0
		)`,
		`INSERT INTO surety_state (id, operational, nonce) VALUES (1, TRUE, 0) ON CONFLICT (id) DO NOTHING`,
		`CREATE TABLE IF NOT EXISTS authorized_callers (
			caller TEXT PRIMARY KEY
		)`,
		`CREATE TABLE IF NOT EXISTS airlines (
			address TEXT PRIMARY KEY,
			registered BOOLEAN NOT NULL DEFAULT FALSE,
			funded BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS airline_votes (
			candidate TEXT NOT NULL,
			voter TEXT NOT NULL,
			PRIMARY KEY (candidate, voter)
		)`,
		`CREATE TABLE IF NOT EXISTS flights (
			key TEXT PRIMARY KEY,
			ref TEXT NOT NULL,
			origin TEXT NOT NULL,
			destination TEXT NOT NULL,
			take_off TIMESTAMPTZ NOT NULL,
			landing TIMESTAMPTZ NOT NULL,
			airline TEXT NOT NULL,
			price_cents BIGINT NOT NULL,
			status_code INT NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS bookings (
			flight_key TEXT NOT NULL,
			passenger TEXT NOT NULL,
			insurance_cents BIGINT NOT NULL DEFAULT 0,
			PRIMARY KEY (flight_key, passenger)
		)`,
		`CREATE TABLE IF NOT EXISTS credits (
			account TEXT PRIMARY KEY,
			amount_cents BIGINT NOT NULL DEFAULT 0 CHECK (amount_cents >= 0)
		)`,
		`CREATE TABLE IF NOT EXISTS oracles (
			address TEXT PRIMARY KEY,
			index0 INT NOT NULL,
			index1 INT NOT NULL,
			index2 INT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS oracle_requests (
			flight_key TEXT PRIMARY KEY,
			requester TEXT NOT NULL,
			requested_index INT NOT NULL,
			is_open BOOLEAN NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS oracle_responses (
			flight_key TEXT NOT NULL,
			oracle TEXT NOT NULL,
			status_code INT NOT NULL,
			PRIMARY KEY (flight_key, oracle)
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
