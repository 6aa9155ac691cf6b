package configs

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "STOREFRONT_"

type Config struct {
	App struct {
		Name     string `koanf:"name"`
		LogLevel string `koanf:"log_level"`
		LogFile  string `koanf:"log_file"`
	} `koanf:"app"`

	API struct {
		BaseURL   string        `koanf:"base_url"`
		Timeout   time.Duration `koanf:"timeout"`
		UserAgent string        `koanf:"user_agent"`
	} `koanf:"api"`

	Breaker struct {
		MaxRequests      uint32        `koanf:"max_requests"`
		Interval         time.Duration `koanf:"interval"`
		Timeout          time.Duration `koanf:"timeout"`
		FailureThreshold uint32        `koanf:"failure_threshold"`
	} `koanf:"breaker"`

	Payment struct {
		PublishableKey string `koanf:"publishable_key"`
		ProcessorURL   string `koanf:"processor_url"`
		MerchantName   string `koanf:"merchant_name"`
		ReturnURL      string `koanf:"return_url"`
		Currency       string `koanf:"currency"`
	} `koanf:"payment"`

	Storage struct {
		Path string `koanf:"path"`
	} `koanf:"storage"`

	Redis struct {
		Addr     string        `koanf:"addr"`
		Password string        `koanf:"password"`
		TTL      time.Duration `koanf:"ttl"`
	} `koanf:"redis"`

	Kafka struct {
		Brokers []string `koanf:"brokers"`
		Topic   string   `koanf:"topic"`
	} `koanf:"kafka"`
}

func Load(pathDir, envName string) (Config, error) {
	k := koanf.New(".")
	// 1) base
	if err := k.Load(file.Provider(fmt.Sprintf("%s/base.yaml", pathDir)), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("load base: %w", err)
	}

	// 2) env override (dev/staging/prod), optional
	if envName != "" {
		_ = k.Load(file.Provider(fmt.Sprintf("%s/%s.yaml", pathDir, envName)), yaml.Parser())
	}

	// 3) environment variables, nested with __
	// e.g. STOREFRONT_API__BASE_URL, STOREFRONT_REDIS__ADDR
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url required")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path required")
	}
	if c.Payment.Currency == "" {
		return fmt.Errorf("payment.currency required")
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka.topic required when brokers are set")
	}
	return nil
}
