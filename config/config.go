// Package config はアプリケーション設定を管理します。
//
// 設定は次の順に読み込まれ、後のものが優先されます。
//
//  1. 構造体のデフォルト値
//  2. YAML設定ファイル（--config または SELFGRAPH_CONFIG）
//  3. 環境変数（SELFGRAPH_*）
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/stsysd/selfgraph/clock"
	"github.com/stsysd/selfgraph/heatmap"
	"github.com/stsysd/selfgraph/validation"
)

// 環境変数のプレフィックス
const envPrefix = "SELFGRAPH_"

// 設定ファイルのパスを指定する環境変数
const envConfigPath = envPrefix + "CONFIG"

// Config はアプリケーション全体の設定を保持します。
type Config struct {
	Server    ServerConfig    `koanf:"server" yaml:"server"`
	Upstream  UpstreamConfig  `koanf:"upstream" yaml:"upstream"`
	Dashboard DashboardConfig `koanf:"dashboard" yaml:"dashboard"`
	Security  SecurityConfig  `koanf:"security" yaml:"security"`
	Logging   LoggingConfig   `koanf:"logging" yaml:"logging"`
}

// ServerConfig はHTTPサーバーの設定です。
type ServerConfig struct {
	Host         string        `koanf:"host" yaml:"host"`
	Port         int           `koanf:"port" yaml:"port" validate:"gte=1,lte=65535"`
	ReadTimeout  time.Duration `koanf:"read_timeout" yaml:"read_timeout" validate:"gt=0"`
	WriteTimeout time.Duration `koanf:"write_timeout" yaml:"write_timeout" validate:"gt=0"`
}

// UpstreamConfig はカウントデータを提供する上流サーバーへの接続設定です。
type UpstreamConfig struct {
	URL               string        `koanf:"url" yaml:"url" validate:"required,http_url"`
	Timeout           time.Duration `koanf:"timeout" yaml:"timeout" validate:"gt=0"`
	RequestsPerSecond float64       `koanf:"requests_per_second" yaml:"requests_per_second" validate:"gt=0"`
	Burst             int           `koanf:"burst" yaml:"burst" validate:"gte=1"`
	// 連続失敗がこの回数に達するとサーキットブレーカーが開きます
	FailureThreshold uint32        `koanf:"failure_threshold" yaml:"failure_threshold" validate:"gte=1"`
	OpenTimeout      time.Duration `koanf:"open_timeout" yaml:"open_timeout" validate:"gt=0"`
}

// DashboardConfig はグラフ生成の設定です。
type DashboardConfig struct {
	Timezone string `koanf:"timezone" yaml:"timezone" validate:"omitempty,timezone"`
	// 日の区切り時刻（0〜23時）。日次・年次グラフに適用されます
	DayStartHour int `koanf:"day_start_hour" yaml:"day_start_hour" validate:"gte=0,lte=23"`
	// true の場合、週次ヒートマップにも日の区切り時刻を適用します
	HeatmapDayStart bool   `koanf:"heatmap_day_start" yaml:"heatmap_day_start"`
	Normalization   string `koanf:"normalization" yaml:"normalization" validate:"oneof=linear log"`
	EmptyColor      string `koanf:"empty_color" yaml:"empty_color" validate:"hexcolor"`
	LowColor        string `koanf:"low_color" yaml:"low_color" validate:"hexcolor"`
	HighColor       string `koanf:"high_color" yaml:"high_color" validate:"hexcolor"`
	Unit            string `koanf:"unit" yaml:"unit"`
}

// SecurityConfig はCORSとレート制限の設定です。
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins" yaml:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests" yaml:"rate_limit_requests" validate:"gte=1"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" yaml:"rate_limit_window" validate:"gt=0"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled" yaml:"rate_limit_disabled"`
}

// LoggingConfig はログ出力の設定です。
type LoggingConfig struct {
	Level  string `koanf:"level" yaml:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" yaml:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller" yaml:"caller"`
}

// Default はデフォルト設定を返します。
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "",
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Upstream: UpstreamConfig{
			URL:               "http://localhost:8081",
			Timeout:           5 * time.Second,
			RequestsPerSecond: 20,
			Burst:             10,
			FailureThreshold:  5,
			OpenTimeout:       30 * time.Second,
		},
		Dashboard: DashboardConfig{
			Timezone:      "Local",
			DayStartHour:  0,
			Normalization: string(heatmap.Linear),
			EmptyColor:    heatmap.DefaultScale.Empty.Hex(),
			LowColor:      heatmap.DefaultScale.Low.Hex(),
			HighColor:     heatmap.DefaultScale.High.Hex(),
			Unit:          "keys",
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 120,
			RateLimitWindow:   time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load はデフォルト値、設定ファイル、環境変数の順に設定を読み込みます。
// path が空の場合は SELFGRAPH_CONFIG を参照し、それも空なら設定ファイルを読みません。
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: デフォルト値
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: 設定ファイル
	if path == "" {
		path = os.Getenv(envConfigPath)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// Layer 3: 環境変数
	if err := k.Load(env.ProviderWithValue(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// 短い環境変数名と設定キーの対応表
var envKeys = map[string]string{
	"SELFGRAPH_HOST":                "server.host",
	"SELFGRAPH_PORT":                "server.port",
	"SELFGRAPH_UPSTREAM_URL":        "upstream.url",
	"SELFGRAPH_UPSTREAM_TIMEOUT":    "upstream.timeout",
	"SELFGRAPH_TIMEZONE":            "dashboard.timezone",
	"SELFGRAPH_DAY_START_HOUR":      "dashboard.day_start_hour",
	"SELFGRAPH_NORMALIZATION":       "dashboard.normalization",
	"SELFGRAPH_CORS_ORIGINS":        "security.cors_origins",
	"SELFGRAPH_RATE_LIMIT_REQUESTS": "security.rate_limit_requests",
	"SELFGRAPH_RATE_LIMIT_DISABLED": "security.rate_limit_disabled",
	"SELFGRAPH_LOG_LEVEL":           "logging.level",
	"SELFGRAPH_LOG_FORMAT":          "logging.format",
}

// envTransform は環境変数を設定キーに変換します。
// 対応表にない変数は SELFGRAPH_SECTION__KEY の形式で指定できます
// （例: SELFGRAPH_UPSTREAM__FAILURE_THRESHOLD）。空文字を返した変数は無視されます。
func envTransform(key, value string) (string, any) {
	if key == envConfigPath {
		return "", nil
	}

	path, ok := envKeys[key]
	if !ok {
		rest := strings.ToLower(strings.TrimPrefix(key, envPrefix))
		if !strings.Contains(rest, "__") {
			return "", nil
		}
		path = strings.ReplaceAll(rest, "__", ".")
	}

	if path == "security.cors_origins" {
		var origins []string
		for _, o := range strings.Split(value, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		return path, origins
	}
	return path, value
}

// Validate は設定値を検証します。
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Addr はHTTPサーバーの待ち受けアドレスを返します。
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// Location はダッシュボードのタイムゾーンを返します。
func (c *Config) Location() (*time.Location, error) {
	return clock.LoadLocation(c.Dashboard.Timezone)
}

// Scale は設定された色からカラースケールを生成します。
func (c *Config) Scale() (heatmap.Scale, error) {
	return heatmap.NewScale(c.Dashboard.EmptyColor, c.Dashboard.LowColor, c.Dashboard.HighColor)
}

// Normalization はカレンダーグリッドの正規化方式を返します。
func (c *Config) Normalization() heatmap.Normalization {
	n, err := heatmap.ParseNormalization(c.Dashboard.Normalization)
	if err != nil {
		return heatmap.Linear
	}
	return n
}

// ErrConfigExists は init で既存ファイルを上書きしようとした場合に返されます。
var ErrConfigExists = errors.New("config file already exists")
