package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// Event types emitted by the ledger.
const (
	EventAirlineRegistered = "airline_registered"
	EventFundingReceived   = "funding_received"
	EventFlightRegistered  = "flight_registered"
	EventPassengerBooked   = "passenger_booked"
	EventOracleRegistered  = "oracle_registered"
	EventOracleRequest     = "oracle_request"
	EventOracleReport      = "oracle_report"
	EventFlightStatusInfo  = "flight_status_info"
	EventFlightProcessed   = "flight_processed"
	EventWithdrawRequest   = "withdraw_request"
)

// SuretyEvent is the envelope for every externally observable ledger event.
// Only the fields identifying the triggering call are populated.
type SuretyEvent struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Ref         string    `json:"ref,omitempty"`
	Destination string    `json:"destination,omitempty"`
	Landing     int64     `json:"landing,omitempty"`
	Airline     string    `json:"airline,omitempty"`
	Passenger   string    `json:"passenger,omitempty"`
	Oracle      string    `json:"oracle,omitempty"`
	StatusCode  int       `json:"status_code,omitempty"`
	AmountCents int64     `json:"amount_cents,omitempty"`
	Index       int       `json:"index,omitempty"`
	Indexes     []int     `json:"indexes,omitempty"`
	At          time.Time `json:"at"`
}

type Producer struct {
	brokers []string
	writer  *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	return &Producer{
		brokers: brokers,
		writer:  writer,
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}
	return nil
}

func (p *Producer) PublishWithRetry(ctx context.Context, topic, key string, payload interface{}, maxRetries int) error {
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		err := p.Publish(ctx, topic, key, payload)
		if err == nil {
			return nil
		}

		lastErr = err
		log.Printf("publish attempt %d failed: %v", i+1, err)

		if i < maxRetries-1 {
			time.Sleep(time.Duration(i+1) * 500 * time.Millisecond)
		}
	}

	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
