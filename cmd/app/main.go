package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/flightsurety/config"
	"github.com/Domenick1991/flightsurety/internal/bootstrap"
	"github.com/Domenick1991/flightsurety/internal/cache"
	"github.com/Domenick1991/flightsurety/internal/kafka"
	"github.com/Domenick1991/flightsurety/internal/repository"
	"github.com/Domenick1991/flightsurety/internal/service/access"
	"github.com/Domenick1991/flightsurety/internal/service/airlines"
	"github.com/Domenick1991/flightsurety/internal/service/flights"
	"github.com/Domenick1991/flightsurety/internal/service/insurance"
	"github.com/Domenick1991/flightsurety/internal/service/oracles"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := repository.Migrate(ctx, pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Surety.FlightsCacheTTL)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	stateRepo := repository.NewStateRepository(pool)
	airlineRepo := repository.NewAirlineRepository(pool)
	flightRepo := repository.NewFlightRepository(pool)
	insuranceRepo := repository.NewInsuranceRepository(pool)
	oracleRepo := repository.NewOracleRepository(pool)

	accessSvc := access.NewAccessService(stateRepo, cfg.Surety.Owner)
	airlineSvc := airlines.NewAirlineService(airlineRepo, accessSvc, cfg.Surety.WriterID, cfg.Surety.MinFundCents, producer, cfg.Kafka.EventsTopic)
	flightSvc := flights.NewFlightService(flightRepo, airlineRepo, accessSvc, cfg.Surety.WriterID, redisCache, producer, cfg.Kafka.EventsTopic)
	insuranceSvc := insurance.NewInsuranceService(insuranceRepo, flightSvc, accessSvc, cfg.Surety.WriterID, cfg.Surety.MaxInsuranceCents, producer, cfg.Kafka.EventsTopic, cfg.Kafka.PayoutsTopic)
	oracleSvc := oracles.NewOracleService(oracleRepo, flightSvc, insuranceRepo, stateRepo, accessSvc, cfg.Surety.WriterID,
		cfg.Oracles.FeeCents, cfg.Oracles.MinResponses, producer, cfg.Kafka.EventsTopic, cfg.Kafka.OracleRequestsTopic)

	if err := bootstrap.Deploy(ctx, cfg, airlineRepo, accessSvc, airlineSvc, flightSvc); err != nil {
		log.Fatalf("deploy: %v", err)
	}

	if err := bootstrap.Run(ctx, cfg, flightSvc, oracleSvc, insuranceSvc); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
