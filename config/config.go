package config

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/rs/zerolog/log"
	"os"
)

type Config struct {
	MetadataDB      MySQL    `json:"metadata_db"`
	Brevo           Brevo    `json:"brevo"`
	Tracking        Tracking `json:"tracking"`
	Dispatch        Dispatch `json:"dispatch"`
	EngagementMQ    Kafka    `json:"engagement_mq"`
	EventIndex      Elastic  `json:"event_index"`
	AdminAPIKeyHash string   `json:"admin_api_key_hash"`
}

type MySQL struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
}

type Brevo struct {
	APIKey string `json:"api_key"`
}

// Tracking holds the externally reachable base URL that probe and click
// URLs are built against, e.g. "https://track.example.com".
type Tracking struct {
	BaseURL            string `json:"base_url"`
	DefaultLandingSlug string `json:"default_landing_slug"`
}

type Dispatch struct {
	TickIntervalSeconds int `json:"tick_interval_seconds"`
}

type Kafka struct {
	Brokers       []string `json:"brokers"`
	Topic         string   `json:"topic"`
	ConsumerGroup string   `json:"consumer_group"`
}

type Elastic struct {
	Addr     []string `json:"addr"`
	Index    string   `json:"index"`
	Username string   `json:"username"`
	Password string   `json:"password"`
}

func (mysql *MySQL) ToDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true", mysql.Username, mysql.Password, mysql.Host, mysql.Port, mysql.Database)
}

func NewConfig() *Config {
	return &Config{
		MetadataDB: MySQL{
			Username: "",
			Password: "",
			Host:     "127.0.0.1",
			Port:     3306,
			Database: "phishsim_db",
		},
		Brevo: Brevo{
			APIKey: "",
		},
		Tracking: Tracking{
			BaseURL:            "http://127.0.0.1:9090",
			DefaultLandingSlug: "default-landing-page",
		},
		Dispatch: Dispatch{
			TickIntervalSeconds: 120,
		},
		EngagementMQ: Kafka{
			Brokers:       []string{},
			Topic:         "engagement_events",
			ConsumerGroup: "engagement_indexer",
		},
		EventIndex: Elastic{
			Addr:  []string{"http://127.0.0.1:9200"},
			Index: "engagement_events",
		},
		AdminAPIKeyHash: "",
	}
}

func (c *Config) Load(ctx context.Context, path string) error {
	if path == "" {
		log.Ctx(ctx).Warn().Msgf("empty config file")
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Ctx(ctx).Warn().Msgf("config file does not exist, file path: %s", path)
			return nil
		}
		return err
	}
	defer func(f *os.File) {
		err := f.Close()
		if err != nil {
			log.Ctx(ctx).Error().Msgf("config file close failed, file path: %s", path)
		}
	}(f)

	p := json.NewDecoder(f)
	if err := p.Decode(&c); err != nil {
		return err
	}

	return nil
}
