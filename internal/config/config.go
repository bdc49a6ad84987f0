// Package config loads settings from an optional .env file, the
// environment and command-line flags, in increasing priority.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"can-monitor/internal/errors"
	"can-monitor/internal/logging"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultEnvFile is read when no other file is named.
const DefaultEnvFile = ".env"

// Frame sources selectable with CAN_SOURCE.
const (
	SourceAuto      = "auto"
	SourceSocketCAN = "socketcan"
	SourceVector    = "vector"
	SourceSimulated = "simulated"
)

// Configuration keys. They double as environment variable names.
const (
	KeySource          = "CAN_SOURCE"
	KeyInterface       = "CAN_INTERFACE"
	KeyFilters         = "CAN_FILTERS"
	KeyVectorHWType    = "VECTOR_HW_TYPE"
	KeyVectorHWIndex   = "VECTOR_HW_INDEX"
	KeyVectorHWChannel = "VECTOR_HW_CHANNEL"
	KeyFetchTimeout    = "FETCH_TIMEOUT"
	KeySimSeed         = "SIM_SEED"
	KeyCaptureFile     = "CAPTURE_FILE"
	KeyLogLevel        = "LOG_LEVEL"
	KeyBatchSize       = "BATCH_SIZE"

	KeyClickHouseEnabled    = "CLICKHOUSE_ENABLED"
	KeyClickHouseHost       = "CLICKHOUSE_HOST"
	KeyClickHousePort       = "CLICKHOUSE_PORT"
	KeyClickHouseDatabase   = "CLICKHOUSE_DATABASE"
	KeyClickHouseUsername   = "CLICKHOUSE_USERNAME"
	KeyClickHousePassword   = "CLICKHOUSE_PASSWORD"
	KeyClickHouseTable      = "CLICKHOUSE_TABLE"
	KeyClickHouseStatsTable = "CLICKHOUSE_STATS_TABLE"

	KeyInfluxDBEnabled  = "INFLUXDB_ENABLED"
	KeyInfluxDBURL      = "INFLUXDB_URL"
	KeyInfluxDBToken    = "INFLUXDB_TOKEN"
	KeyInfluxDBDatabase = "INFLUXDB_DATABASE"
)

// flagKeys maps command-line flags to the keys they override.
var flagKeys = map[string]string{
	"source":        KeySource,
	"interface":     KeyInterface,
	"filter":        KeyFilters,
	"fetch-timeout": KeyFetchTimeout,
	"seed":          KeySimSeed,
	"capture":       KeyCaptureFile,
	"log-level":     KeyLogLevel,
}

// Config holds all application configuration
type Config struct {
	// CAN
	Source          string
	CANInterface    string
	CANFilters      []uint32
	VectorHWType    int
	VectorHWIndex   int
	VectorHWChannel int
	FetchTimeout    time.Duration

	// Simulation
	SimSeed uint64

	// Recording
	CaptureFile string
	BatchSize   int

	// ClickHouse
	ClickHouseEnabled    bool
	ClickHouseHost       string
	ClickHousePort       int
	ClickHouseDatabase   string
	ClickHouseUsername   string
	ClickHousePassword   string
	ClickHouseTable      string
	ClickHouseStatsTable string

	// InfluxDB
	InfluxDBEnabled  bool
	InfluxDBURL      string
	InfluxDBToken    string
	InfluxDBDatabase string

	// General
	LogLevel string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeySource, SourceAuto)
	v.SetDefault(KeyInterface, "vcan0")
	v.SetDefault(KeyFilters, "")
	v.SetDefault(KeyVectorHWType, -1)
	v.SetDefault(KeyVectorHWIndex, -1)
	v.SetDefault(KeyVectorHWChannel, 0)
	v.SetDefault(KeyFetchTimeout, "20ms")
	v.SetDefault(KeySimSeed, 0)
	v.SetDefault(KeyCaptureFile, "")
	v.SetDefault(KeyLogLevel, logging.DefaultLevel)
	v.SetDefault(KeyBatchSize, 1000)

	v.SetDefault(KeyClickHouseEnabled, false)
	v.SetDefault(KeyClickHouseHost, "localhost")
	v.SetDefault(KeyClickHousePort, 9000)
	v.SetDefault(KeyClickHouseDatabase, "default")
	v.SetDefault(KeyClickHouseUsername, "default")
	v.SetDefault(KeyClickHousePassword, "")
	v.SetDefault(KeyClickHouseTable, "can_messages")
	v.SetDefault(KeyClickHouseStatsTable, "can_monitor_stats")

	v.SetDefault(KeyInfluxDBEnabled, false)
	v.SetDefault(KeyInfluxDBURL, "http://localhost:8181")
	v.SetDefault(KeyInfluxDBToken, "")
	v.SetDefault(KeyInfluxDBDatabase, "can_messages")
}

// Load reads envFile if it exists, then the environment, then any flags in
// flags that were set explicitly. A missing file is not an error.
func Load(envFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if envFile == "" {
		envFile = DefaultEnvFile
	}
	if _, err := os.Stat(envFile); err == nil {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to read "+envFile,
				"Check that every line has the form KEY=value")
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot access "+envFile,
			"Check file permissions")
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.WrapWithCode(err, errors.ErrConfig, "Cannot bind flag --"+name, "")
				}
			}
		}
	}

	filters, err := parseFilters(v.GetString(KeyFilters))
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid "+KeyFilters,
			"Use comma-separated hex identifiers, e.g. 123,456,0x18FEF100")
	}

	cfg := &Config{
		Source:          strings.ToLower(strings.TrimSpace(v.GetString(KeySource))),
		CANInterface:    v.GetString(KeyInterface),
		CANFilters:      filters,
		VectorHWType:    v.GetInt(KeyVectorHWType),
		VectorHWIndex:   v.GetInt(KeyVectorHWIndex),
		VectorHWChannel: v.GetInt(KeyVectorHWChannel),
		FetchTimeout:    v.GetDuration(KeyFetchTimeout),
		SimSeed:         v.GetUint64(KeySimSeed),
		CaptureFile:     v.GetString(KeyCaptureFile),
		BatchSize:       v.GetInt(KeyBatchSize),
		LogLevel:        v.GetString(KeyLogLevel),

		ClickHouseEnabled:    v.GetBool(KeyClickHouseEnabled),
		ClickHouseHost:       v.GetString(KeyClickHouseHost),
		ClickHousePort:       v.GetInt(KeyClickHousePort),
		ClickHouseDatabase:   v.GetString(KeyClickHouseDatabase),
		ClickHouseUsername:   v.GetString(KeyClickHouseUsername),
		ClickHousePassword:   v.GetString(KeyClickHousePassword),
		ClickHouseTable:      v.GetString(KeyClickHouseTable),
		ClickHouseStatsTable: v.GetString(KeyClickHouseStatsTable),

		InfluxDBEnabled:  v.GetBool(KeyInfluxDBEnabled),
		InfluxDBURL:      v.GetString(KeyInfluxDBURL),
		InfluxDBToken:    v.GetString(KeyInfluxDBToken),
		InfluxDBDatabase: v.GetString(KeyInfluxDBDatabase),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and recorder settings.
func (c *Config) Validate() error {
	switch c.Source {
	case SourceAuto, SourceSocketCAN, SourceVector, SourceSimulated:
	default:
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Invalid %s %q", KeySource, c.Source),
			"Use auto, socketcan, vector or simulated")
	}

	if c.CANInterface == "" && (c.Source == SourceAuto || c.Source == SourceSocketCAN) {
		return errors.New(errors.ErrConfig, KeyInterface+" is empty", "Set it to a SocketCAN interface such as can0 or vcan0")
	}

	if c.FetchTimeout < time.Millisecond || c.FetchTimeout > time.Second {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Invalid %s %s", KeyFetchTimeout, c.FetchTimeout),
			"Use a duration between 1ms and 1s, e.g. 20ms")
	}

	if c.BatchSize < 1 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Invalid %s %d", KeyBatchSize, c.BatchSize),
			"Use a positive number of rows per insert")
	}

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Invalid "+KeyLogLevel, "Use debug, info, warn or error")
	}

	if c.ClickHouseEnabled {
		if c.ClickHouseHost == "" || c.ClickHousePort < 1 || c.ClickHousePort > 65535 {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Invalid ClickHouse address %q:%d", c.ClickHouseHost, c.ClickHousePort),
				"Set "+KeyClickHouseHost+" and "+KeyClickHousePort)
		}
		if c.ClickHouseTable == "" || c.ClickHouseStatsTable == "" {
			return errors.New(errors.ErrConfig, "ClickHouse table names are empty",
				"Set "+KeyClickHouseTable+" and "+KeyClickHouseStatsTable)
		}
	}

	if c.InfluxDBEnabled && (c.InfluxDBURL == "" || c.InfluxDBDatabase == "") {
		return errors.New(errors.ErrConfig, "InfluxDB recorder is enabled without a target",
			"Set "+KeyInfluxDBURL+" and "+KeyInfluxDBDatabase)
	}

	return nil
}

// maxCANID is the largest 29-bit identifier.
const maxCANID = 0x1FFFFFFF

// parseFilters parses comma-separated hex CAN IDs, with or without 0x.
func parseFilters(filterStr string) ([]uint32, error) {
	if strings.TrimSpace(filterStr) == "" {
		return nil, nil
	}

	parts := strings.Split(filterStr, ",")
	filters := make([]uint32, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		digits := strings.TrimPrefix(strings.ToLower(part), "0x")
		id, err := strconv.ParseUint(digits, 16, 32)
		if err != nil || id > maxCANID {
			return nil, fmt.Errorf("%q is not a CAN identifier", part)
		}

		filters = append(filters, uint32(id))
	}

	return filters, nil
}
