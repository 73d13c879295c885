package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/safeopen"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/benz9527/xhome/lib/infra"
	"github.com/benz9527/xhome/observability"
	"github.com/benz9527/xhome/xlog"
)

var (
	ErrNoHouse         = errors.New("[config] site has no house")
	ErrEmptyName       = errors.New("[config] empty name")
	ErrDuplicateName   = errors.New("[config] duplicate name")
	ErrUnknownKind     = errors.New("[config] unknown device kind")
	ErrMisplacedField  = errors.New("[config] field does not apply to this device kind")
	ErrUnknownExporter = errors.New("[config] unknown metrics exporter")
	ErrInvalidValue    = errors.New("[config] invalid value")
)

const (
	DeviceKindSocket      = "socket"
	DeviceKindThermometer = "thermometer"
)

type DeviceConfig struct {
	Kind            string  `yaml:"kind"`
	Name            string  `yaml:"name"`
	Enabled         bool    `yaml:"enabled"`
	PowerMilliwatts *uint32 `yaml:"power_mw,omitempty"`
	Kelvin          *uint16 `yaml:"kelvin,omitempty"`
}

type RoomConfig struct {
	Name    string         `yaml:"name"`
	Devices []DeviceConfig `yaml:"devices"`
}

type HouseConfig struct {
	Name  string       `yaml:"name"`
	Rooms []RoomConfig `yaml:"rooms"`
}

type SiteConfig struct {
	Houses []HouseConfig `yaml:"houses"`
}

type LoggingConfig struct {
	Level   string `yaml:"level"`
	Encoder string `yaml:"encoder"`
	Writer  string `yaml:"writer"`
}

type MetricsConfig struct {
	Exporter string        `yaml:"exporter"`
	Interval time.Duration `yaml:"interval"`
	Listen   string        `yaml:"listen"`
}

type RefreshConfig struct {
	// Interval 0 disables the periodic refresh.
	Interval time.Duration `yaml:"interval"`
	Workers  int           `yaml:"workers"`
}

type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Refresh RefreshConfig `yaml:"refresh"`
}

// Default is the two-room demo house, every reading refreshed on start.
func Default() *Config {
	rooms := make([]RoomConfig, 0, 2)
	for i := 0; i < 2; i++ {
		idx := strconv.Itoa(i)
		rooms = append(rooms, RoomConfig{
			Name: "room" + idx,
			Devices: []DeviceConfig{
				{Kind: DeviceKindSocket, Name: "socket" + idx, Enabled: true},
				{Kind: DeviceKindThermometer, Name: "thermometer" + idx},
			},
		})
	}
	return &Config{
		Site: SiteConfig{
			Houses: []HouseConfig{{Name: "House0", Rooms: rooms}},
		},
		Logging: LoggingConfig{
			Level:   xlog.LogLevelInfo.String(),
			Encoder: "json",
			Writer:  "stdout",
		},
		Metrics: MetricsConfig{
			Exporter: observability.ExporterNone,
			Interval: 10 * time.Second,
			Listen:   ":9464",
		},
		Refresh: RefreshConfig{
			Interval: 5 * time.Second,
			Workers:  4,
		},
	}
}

// Load reads path without following it out of its directory, expands
// ${ENV} references and parses the YAML over the defaults.
func Load(path string) (*Config, error) {
	f, err := safeopen.OpenBeneath(filepath.Dir(path), filepath.Base(path))
	if err != nil {
		return nil, infra.WrapErrorStack(err, "open config "+path)
	}
	defer func() {
		_ = f.Close()
	}()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, infra.WrapErrorStack(err, "read config "+path)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML document. A document without a site
// keeps the default house.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, infra.WrapErrorStack(err, "parse config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func invalid(sentinel error, path string) error {
	return infra.WrapErrorStack(sentinel, path)
}

func checkNames(path string, names []string) error {
	var merr error
	for i, name := range names {
		if strings.TrimSpace(name) == "" {
			merr = multierr.Append(merr, invalid(ErrEmptyName, path+"["+strconv.Itoa(i)+"]"))
		}
	}
	named := lo.Filter(names, func(name string, _ int) bool {
		return strings.TrimSpace(name) != ""
	})
	for _, dup := range lo.FindDuplicates(named) {
		merr = multierr.Append(merr, invalid(ErrDuplicateName, path+" "+strconv.Quote(dup)))
	}
	return merr
}

func (d DeviceConfig) validate(path string) error {
	var merr error
	switch strings.ToLower(d.Kind) {
	case DeviceKindSocket:
		if d.Kelvin != nil {
			merr = multierr.Append(merr, invalid(ErrMisplacedField, path+".kelvin"))
		}
	case DeviceKindThermometer:
		if d.PowerMilliwatts != nil {
			merr = multierr.Append(merr, invalid(ErrMisplacedField, path+".power_mw"))
		}
		if d.Enabled {
			merr = multierr.Append(merr, invalid(ErrMisplacedField, path+".enabled"))
		}
	default:
		merr = multierr.Append(merr, invalid(ErrUnknownKind, path+".kind "+strconv.Quote(d.Kind)))
	}
	return merr
}

// Validate reports every problem at once.
func (cfg *Config) Validate() error {
	var merr error
	if len(cfg.Site.Houses) == 0 {
		merr = multierr.Append(merr, invalid(ErrNoHouse, "site.houses"))
	}
	merr = multierr.Append(merr, checkNames("site.houses", lo.Map(cfg.Site.Houses, func(h HouseConfig, _ int) string {
		return h.Name
	})))
	for i, house := range cfg.Site.Houses {
		housePath := "site.houses[" + strconv.Itoa(i) + "]"
		merr = multierr.Append(merr, checkNames(housePath+".rooms", lo.Map(house.Rooms, func(r RoomConfig, _ int) string {
			return r.Name
		})))
		for j, room := range house.Rooms {
			roomPath := housePath + ".rooms[" + strconv.Itoa(j) + "]"
			merr = multierr.Append(merr, checkNames(roomPath+".devices", lo.Map(room.Devices, func(d DeviceConfig, _ int) string {
				return d.Name
			})))
			for k, d := range room.Devices {
				merr = multierr.Append(merr, d.validate(roomPath+".devices["+strconv.Itoa(k)+"]"))
			}
		}
	}

	if !xlog.LogLevel(cfg.Logging.Level).IsValid() {
		merr = multierr.Append(merr, invalid(ErrInvalidValue, "logging.level "+strconv.Quote(cfg.Logging.Level)))
	}
	if _, err := xlog.EncoderOf(cfg.Logging.Encoder); err != nil {
		merr = multierr.Append(merr, invalid(ErrInvalidValue, "logging.encoder "+strconv.Quote(cfg.Logging.Encoder)))
	}
	if _, err := xlog.WriterOf(cfg.Logging.Writer); err != nil {
		merr = multierr.Append(merr, invalid(ErrInvalidValue, "logging.writer "+strconv.Quote(cfg.Logging.Writer)))
	}

	switch cfg.Metrics.Exporter {
	case "", observability.ExporterNone:
	case observability.ExporterConsole:
		if cfg.Metrics.Interval <= 0 {
			merr = multierr.Append(merr, invalid(ErrInvalidValue, "metrics.interval"))
		}
	case observability.ExporterPrometheus:
		if strings.TrimSpace(cfg.Metrics.Listen) == "" {
			merr = multierr.Append(merr, invalid(ErrInvalidValue, "metrics.listen"))
		}
	default:
		merr = multierr.Append(merr, invalid(ErrUnknownExporter, "metrics.exporter "+strconv.Quote(cfg.Metrics.Exporter)))
	}

	if cfg.Refresh.Interval < 0 {
		merr = multierr.Append(merr, invalid(ErrInvalidValue, "refresh.interval"))
	}
	if cfg.Refresh.Workers <= 0 {
		merr = multierr.Append(merr, invalid(ErrInvalidValue, "refresh.workers"))
	}
	return merr
}

// LoggerOptions translates the logging section. Call it on a validated config.
func (l LoggingConfig) LoggerOptions() []xlog.XLoggerOption {
	opts := []xlog.XLoggerOption{
		xlog.WithXLoggerLevel(xlog.LogLevel(strings.ToUpper(l.Level))),
	}
	if enc, err := xlog.EncoderOf(l.Encoder); err == nil {
		opts = append(opts, xlog.WithXLoggerEncoder(enc))
	}
	if w, err := xlog.WriterOf(l.Writer); err == nil {
		opts = append(opts, xlog.WithXLoggerWriter(w))
	}
	return opts
}
