package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/flightsurety/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type InsuranceRepository interface {
	CreateBooking(ctx context.Context, booking *domain.Booking, ticketPriceCents int64, airline string) error
	GetBooking(ctx context.Context, flightKey, passenger string) (*domain.Booking, error)
	ListInsured(ctx context.Context, flightKey string) ([]domain.Booking, error)
	Balance(ctx context.Context, account string) (int64, error)
	WithdrawAll(ctx context.Context, account string) (int64, error)
}

type PGInsuranceRepository struct {
	db *pgxpool.Pool
}

func NewInsuranceRepository(db *pgxpool.Pool) InsuranceRepository {
	return &PGInsuranceRepository{db: db}
}

// CreateBooking inserts the booking and credits the ticket price to the
// airline in one transaction. The insurance portion stays pooled.
func (r *PGInsuranceRepository) CreateBooking(ctx context.Context, booking *domain.Booking, ticketPriceCents int64, airline string) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	res, err := tx.Exec(ctx, `INSERT INTO bookings (flight_key, passenger, insurance_cents) VALUES ($1, $2, $3)
		ON CONFLICT (flight_key, passenger) DO NOTHING`,
		booking.FlightKey, booking.Passenger, booking.InsuranceCents)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return domain.ErrAlreadyBooked
	}

	if _, err := tx.Exec(ctx, `INSERT INTO credits (account, amount_cents) VALUES ($1, $2)
		ON CONFLICT (account) DO UPDATE SET amount_cents = credits.amount_cents + EXCLUDED.amount_cents`,
		airline, ticketPriceCents); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PGInsuranceRepository) GetBooking(ctx context.Context, flightKey, passenger string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT flight_key, passenger, insurance_cents FROM bookings WHERE flight_key=$1 AND passenger=$2`, flightKey, passenger)
	var b domain.Booking
	if err := row.Scan(&b.FlightKey, &b.Passenger, &b.InsuranceCents); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (r *PGInsuranceRepository) ListInsured(ctx context.Context, flightKey string) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT flight_key, passenger, insurance_cents FROM bookings WHERE flight_key=$1 AND insurance_cents > 0`, flightKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(&b.FlightKey, &b.Passenger, &b.InsuranceCents); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (r *PGInsuranceRepository) Balance(ctx context.Context, account string) (int64, error) {
	var amount int64
	err := r.db.QueryRow(ctx, `SELECT amount_cents FROM credits WHERE account=$1`, account).Scan(&amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return amount, err
}

// WithdrawAll zeroes the account's credit and returns the amount that was
// there. The row is locked and cleared before the caller may initiate any
// transfer, so a reentrant withdrawal observes a zero balance.
func (r *PGInsuranceRepository) WithdrawAll(ctx context.Context, account string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var amount int64
	err = tx.QueryRow(ctx, `SELECT amount_cents FROM credits WHERE account=$1 FOR UPDATE`, account).Scan(&amount)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && amount == 0) {
		return 0, domain.ErrNothingToWithdraw
	}
	if err != nil {
		return 0, err
	}

	if _, err := tx.Exec(ctx, `UPDATE credits SET amount_cents = 0 WHERE account=$1`, account); err != nil {
		return 0, err
	}

	return amount, tx.Commit(ctx)
}

var _ InsuranceRepository = (*PGInsuranceRepository)(nil)
