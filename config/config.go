package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Surety   SuretyConfig   `yaml:"surety"`
	Oracles  OraclesConfig  `yaml:"oracles"`
}

type HTTPConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers             []string `yaml:"brokers"`
	EventsTopic         string   `yaml:"events_topic"`
	OracleRequestsTopic string   `yaml:"oracle_requests_topic"`
	PayoutsTopic        string   `yaml:"payouts_topic"`
	GroupID             string   `yaml:"group_id"`
}

// SuretyConfig holds the ledger parameters: the owner, the
// business-logic identity allowed to write the store, and the funding and
// insurance thresholds.
type SuretyConfig struct {
	Owner             string `yaml:"owner"`
	WriterID          string `yaml:"writer_id"`
	FirstAirline      string `yaml:"first_airline"`
	MinFundCents      int64  `yaml:"min_fund_cents"`
	MaxInsuranceCents int64  `yaml:"max_insurance_cents"`
	FlightsCacheTTL   int    `yaml:"flights_cache_ttl_seconds"`

	FirstFlight FirstFlightConfig `yaml:"first_flight"`
}

// FirstFlightConfig describes the flight registered during bootstrap.
type FirstFlightConfig struct {
	Ref             string `yaml:"ref"`
	From            string `yaml:"from"`
	To              string `yaml:"to"`
	PriceCents      int64  `yaml:"price_cents"`
	LeadTimeMinutes int    `yaml:"lead_time_minutes"`
	DurationMinutes int    `yaml:"duration_minutes"`
}

type OraclesConfig struct {
	FeeCents     int64 `yaml:"fee_cents"`
	MinResponses int   `yaml:"min_responses"`

	// Simulation worker settings.
	Count      int `yaml:"count"`
	StatusCode int `yaml:"status_code"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}
