package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/flightsurety/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FlightRepository interface {
	Create(ctx context.Context, flight *domain.Flight) error
	GetByKey(ctx context.Context, key string) (*domain.Flight, error)
	List(ctx context.Context) ([]domain.Flight, error)
}

type PGFlightRepository struct {
	db *pgxpool.Pool
}

func NewFlightRepository(db *pgxpool.Pool) FlightRepository {
	return &PGFlightRepository{db: db}
}

func (r *PGFlightRepository) Create(ctx context.Context, flight *domain.Flight) error {
	res, err := r.db.Exec(ctx, `INSERT INTO flights (key, ref, origin, destination, take_off, landing, airline, price_cents, status_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (key) DO NOTHING`,
		flight.Key, flight.Ref, flight.From, flight.To, flight.TakeOff, flight.Landing, flight.Airline, flight.PriceCents, int(flight.Status))
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return domain.ErrAlreadyRegistered
	}
	return nil
}

func (r *PGFlightRepository) GetByKey(ctx context.Context, key string) (*domain.Flight, error) {
	row := r.db.QueryRow(ctx, `SELECT key, ref, origin, destination, take_off, landing, airline, price_cents, status_code FROM flights WHERE key=$1`, key)
	var f domain.Flight
	if err := row.Scan(&f.Key, &f.Ref, &f.From, &f.To, &f.TakeOff, &f.Landing, &f.Airline, &f.PriceCents, &f.Status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &f, nil
}

func (r *PGFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	rows, err := r.db.Query(ctx, `SELECT key, ref, origin, destination, take_off, landing, airline, price_cents, status_code FROM flights ORDER BY landing`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		var f domain.Flight
		if err := rows.Scan(&f.Key, &f.Ref, &f.From, &f.To, &f.TakeOff, &f.Landing, &f.Airline, &f.PriceCents, &f.Status); err != nil {
			return nil, err
		}
		flights = append(flights, f)
	}
	return flights, rows.Err()
}

var _ FlightRepository = (*PGFlightRepository)(nil)
