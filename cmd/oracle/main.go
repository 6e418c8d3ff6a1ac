package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/flightsurety/config"
	"github.com/Domenick1991/flightsurety/internal/cache"
	"github.com/Domenick1991/flightsurety/internal/domain"
	"github.com/Domenick1991/flightsurety/internal/kafka"
	"github.com/Domenick1991/flightsurety/internal/payout"
	"github.com/Domenick1991/flightsurety/internal/repository"
	"github.com/Domenick1991/flightsurety/internal/service/access"
	"github.com/Domenick1991/flightsurety/internal/service/flights"
	"github.com/Domenick1991/flightsurety/internal/service/oracles"
	"github.com/jackc/pgx/v5/pgxpool"
	kafkaGo "github.com/segmentio/kafka-go"
)

// The worker plays the oracle federation: it keeps a set of simulated
// oracles registered, answers status requests whose index matches, and
// opens requests for flights that have landed without a final status.

var simulatedCodes = []domain.StatusCode{
	domain.StatusOnTime,
	domain.StatusLateAirline,
	domain.StatusLateWeather,
	domain.StatusLateTechnical,
	domain.StatusLateOther,
}

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()
	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Surety.FlightsCacheTTL)*time.Second)

	stateRepo := repository.NewStateRepository(pool)
	airlineRepo := repository.NewAirlineRepository(pool)
	flightRepo := repository.NewFlightRepository(pool)
	insuranceRepo := repository.NewInsuranceRepository(pool)
	oracleRepo := repository.NewOracleRepository(pool)

	accessSvc := access.NewAccessService(stateRepo, cfg.Surety.Owner)
	flightSvc := flights.NewFlightService(flightRepo, airlineRepo, accessSvc, cfg.Surety.WriterID, redisCache, producer, cfg.Kafka.EventsTopic)
	oracleSvc := oracles.NewOracleService(oracleRepo, flightSvc, insuranceRepo, stateRepo, accessSvc, cfg.Surety.WriterID,
		cfg.Oracles.FeeCents, cfg.Oracles.MinResponses, producer, cfg.Kafka.EventsTopic, cfg.Kafka.OracleRequestsTopic)

	simulated := registerOracles(ctx, oracleSvc, cfg.Oracles)

	requests := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.OracleRequestsTopic)
	defer requests.Close()

	go func() {
		if err := requests.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
			var event kafka.SuretyEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				log.Printf("decode event error: %v", err)
				return nil
			}
			respond(ctx, oracleSvc, cfg.Oracles, simulated, event)
			return nil
		}); err != nil {
			log.Printf("request consumer stopped: %v", err)
		}
	}()

	payouts := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID+"-payouts", cfg.Kafka.PayoutsTopic)
	defer payouts.Close()

	transferrer := payout.NewTransferrer()

	go func() {
		if err := payouts.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
			var event kafka.SuretyEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				log.Printf("decode event error: %v", err)
				return nil
			}
			return transferrer.Transfer(ctx, event)
		}); err != nil {
			log.Printf("payout consumer stopped: %v", err)
		}
	}()

	watchTicker := time.NewTicker(time.Minute)
	defer watchTicker.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-watchTicker.C:
			requestLandedFlights(ctx, flightSvc, oracleSvc)
		case s := <-sig:
			log.Printf("received signal %v, shutting down", s)
			return
		}
	}
}

func registerOracles(ctx context.Context, oracleSvc oracles.OracleUseCase, cfg config.OraclesConfig) []string {
	addresses := make([]string, 0, cfg.Count)
	for i := 0; i < cfg.Count; i++ {
		address := fmt.Sprintf("oracle-sim-%02d", i)
		_, err := oracleSvc.RegisterOracle(ctx, address, cfg.FeeCents)
		if err != nil && !errors.Is(err, domain.ErrAlreadyRegistered) {
			log.Printf("register oracle %s: %v", address, err)
			continue
		}
		addresses = append(addresses, address)
	}
	log.Printf("simulating %d oracles", len(addresses))
	return addresses
}

// respond submits a status response from every simulated oracle holding the
// requested index. Rejections for closed requests and index mismatches are
// part of normal operation.
func respond(ctx context.Context, oracleSvc oracles.OracleUseCase, cfg config.OraclesConfig, simulated []string, event kafka.SuretyEvent) {
	status := domain.StatusCode(cfg.StatusCode)
	if !status.Valid() || status == domain.StatusUnknown {
		status = simulatedCodes[rand.Intn(len(simulatedCodes))]
	}

	for _, address := range simulated {
		indexes, err := oracleSvc.MyIndexes(ctx, address)
		if err != nil {
			log.Printf("indexes for %s: %v", address, err)
			continue
		}
		oracle := domain.Oracle{Address: address, Indexes: indexes}
		if !oracle.HasIndex(uint8(event.Index)) {
			continue
		}

		result, err := oracleSvc.SubmitOracleResponse(ctx, oracles.SubmitResponseInput{
			Oracle:  address,
			Index:   uint8(event.Index),
			Ref:     event.Ref,
			To:      event.Destination,
			Landing: time.Unix(event.Landing, 0),
			Status:  status,
		})
		if err != nil {
			if errors.Is(err, domain.ErrRequestClosed) || errors.Is(err, domain.ErrDuplicateResponse) {
				return
			}
			log.Printf("submit response from %s: %v", address, err)
			continue
		}
		if result.Closed {
			log.Printf("flight %s settled with status %d", event.Ref, int(status))
			return
		}
	}
}

// requestLandedFlights opens a consensus request for every flight past its
// landing time that still has no final status.
func requestLandedFlights(ctx context.Context, flightSvc flights.FlightUseCase, oracleSvc oracles.OracleUseCase) {
	list, err := flightSvc.List(ctx)
	if err != nil {
		log.Printf("list flights: %v", err)
		return
	}

	now := time.Now()
	for _, f := range list {
		if f.Status != domain.StatusUnknown || f.Landing.After(now) {
			continue
		}
		if _, err := oracleSvc.FetchFlightStatus(ctx, "oracle-watcher", f.Ref, f.To, f.Landing); err != nil {
			if errors.Is(err, domain.ErrRequestClosed) {
				continue
			}
			log.Printf("fetch status for %s: %v", f.Ref, err)
		}
	}
}
