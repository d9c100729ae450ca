// Package config loads process configuration from configs/config.yml, .env and BINMON_* variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "BINMON"

type Config struct {
	Port   string
	Log    LogConfig
	DB     DBConfig
	Auth   AuthConfig
	Levels Thresholds
	Hub    HubConfig
	Sensor SensorConfig
	Kafka  KafkaConfig
	Influx InfluxConfig
	CORS   CORSConfig
}

type LogConfig struct {
	Level  string
	Format string
}

type DBConfig struct {
	Driver       string // sqlite | postgres
	Path         string
	DSN          string
	Timeout      time.Duration
	MaxOpenConns int
}

type AuthConfig struct {
	SigningKey string
}

// Thresholds are the canonical classification cutoffs: EMPTY < Partial <= PARTIAL < Full <= FULL.
type Thresholds struct {
	Partial int
	Full    int
}

type HubConfig struct {
	Buffer int
}

type SensorConfig struct {
	SerialDevice      string
	SerialDeviceID    string
	MQTTBroker        string
	MQTTTopic         string
	MQTTClientID      string
	Devices           map[string]int64
	FallbackLatestBin bool
	Simulate          bool
	SimulateTick      time.Duration
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

type CORSConfig struct {
	AllowedOrigins []string
}

var errBadThresholds = errors.New("thresholds must satisfy 0 < partial < full <= 100")

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.path", "bins.db")
	v.SetDefault("db.timeout", 5*time.Second)
	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("auth.signing_key", "")
	v.SetDefault("thresholds.partial", 40)
	v.SetDefault("thresholds.full", 80)
	v.SetDefault("hub.buffer", 64)
	v.SetDefault("sensor.serial.device_id", "serial-0")
	v.SetDefault("sensor.mqtt.topic", "bins/+/fill")
	v.SetDefault("sensor.mqtt.client_id", "bin-monitoring")
	v.SetDefault("sensor.fallback_latest_bin", true)
	v.SetDefault("sensor.simulate", false)
	v.SetDefault("sensor.simulate_tick", 5*time.Second)
	v.SetDefault("kafka.topic", "bin-events")
	v.SetDefault("influx.bucket", "bin_readings")
	v.SetDefault("cors.allowed_origins", []string{"*"})
}

// Load reads .env (if present), the YAML file found in paths and BINMON_* overrides.
func Load(paths ...string) (Config, error) {
	_ = godotenv.Load() // .env is optional

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Port: v.GetString("port"),
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		DB: DBConfig{
			Driver:       strings.ToLower(v.GetString("db.driver")),
			Path:         v.GetString("db.path"),
			DSN:          v.GetString("db.dsn"),
			Timeout:      v.GetDuration("db.timeout"),
			MaxOpenConns: v.GetInt("db.max_open_conns"),
		},
		Auth: AuthConfig{SigningKey: v.GetString("auth.signing_key")},
		Levels: Thresholds{
			Partial: v.GetInt("thresholds.partial"),
			Full:    v.GetInt("thresholds.full"),
		},
		Hub: HubConfig{Buffer: v.GetInt("hub.buffer")},
		Sensor: SensorConfig{
			SerialDevice:      v.GetString("sensor.serial.device"),
			SerialDeviceID:    v.GetString("sensor.serial.device_id"),
			MQTTBroker:        v.GetString("sensor.mqtt.broker"),
			MQTTTopic:         v.GetString("sensor.mqtt.topic"),
			MQTTClientID:      v.GetString("sensor.mqtt.client_id"),
			FallbackLatestBin: v.GetBool("sensor.fallback_latest_bin"),
			Simulate:          v.GetBool("sensor.simulate"),
			SimulateTick:      v.GetDuration("sensor.simulate_tick"),
		},
		Kafka: KafkaConfig{
			Brokers: v.GetStringSlice("kafka.brokers"),
			Topic:   v.GetString("kafka.topic"),
		},
		Influx: InfluxConfig{
			URL:    v.GetString("influx.url"),
			Token:  v.GetString("influx.token"),
			Org:    v.GetString("influx.org"),
			Bucket: v.GetString("influx.bucket"),
		},
		CORS: CORSConfig{AllowedOrigins: v.GetStringSlice("cors.allowed_origins")},
	}

	devices, err := parseDevices(v.GetStringMapString("sensor.devices"))
	if err != nil {
		return Config{}, err
	}
	cfg.Sensor.Devices = devices

	if err := cfg.Levels.Validate(); err != nil {
		return Config{}, err
	}
	if cfg.Auth.SigningKey == "" {
		return Config{}, errors.New("auth.signing_key is required")
	}
	return cfg, nil
}

// Validate checks the threshold ordering.
func (t Thresholds) Validate() error {
	if t.Partial <= 0 || t.Partial >= t.Full || t.Full > 100 {
		return fmt.Errorf("%w (got partial=%d full=%d)", errBadThresholds, t.Partial, t.Full)
	}
	return nil
}

// parseDevices converts the sensor.devices map (device id -> bin id) into typed form.
func parseDevices(raw map[string]string) (map[string]int64, error) {
	out := make(map[string]int64, len(raw))
	for device, bin := range raw {
		var id int64
		if _, err := fmt.Sscan(bin, &id); err != nil || id <= 0 {
			return nil, fmt.Errorf("sensor.devices[%s]: invalid bin id %q", device, bin)
		}
		out[device] = id
	}
	return out, nil
}
