package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config はアプリケーション全体の設定を保持する構造体
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Camera   CameraConfig   `yaml:"camera"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
}

// ServerConfig はHTTPサーバーの設定
type ServerConfig struct {
	Host string `yaml:"host"` // リッスンするホスト
	Port int    `yaml:"port"` // リッスンするポート番号

	// タイムアウト設定
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // 読み込みタイムアウト
	WriteTimeout time.Duration `yaml:"write_timeout"` // 書き込みタイムアウト
}

// CameraConfig はカメラパラメータの設定
// 終了時に現在値が書き戻され、次回起動時の初期値になる
type CameraConfig struct {
	DeviceID    string `yaml:"device_id"`    // 接続するデバイスID（空なら先頭）
	AutoConnect bool   `yaml:"auto_connect"` // 起動時・検出時に自動接続する

	ExposureTimeMs    uint32 `yaml:"exposure_time_ms"`    // 露出時間（ミリ秒）
	ExposureGainPct   uint16 `yaml:"exposure_gain_pct"`   // 露出ゲイン（パーセント）
	ColorTemperatureK uint32 `yaml:"color_temperature_k"` // 色温度（ケルビン）
	Tint              uint32 `yaml:"tint"`                // ティント
}

// SnapshotConfig は静止画保存の設定
type SnapshotConfig struct {
	OutputDir string `yaml:"output_dir"` // 保存先ディレクトリ
}

// Load は設定ファイルを読み込む。ファイルが無ければデフォルト値を返す
func Load() (*Config, error) {
	cfg := defaultConfig()

	path, err := Path()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// 初回起動。デフォルト値のまま進む
	case err != nil:
		return nil, fmt.Errorf("設定ファイルの読み込みに失敗: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("設定ファイルの解析に失敗: %w", err)
		}
	}

	// 環境変数による上書き
	cfg.Server.Host = getEnvOrDefault("SERVER_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnvAsIntOrDefault("PORT", cfg.Server.Port)

	// 設定の検証
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定の検証に失敗: %w", err)
	}

	return cfg, nil
}

// Store は設定をファイルへ書き戻す
func (c *Config) Store() error {
	path, err := Path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("設定ディレクトリの作成に失敗: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("設定の書き出しに失敗: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("設定ファイルの保存に失敗: %w", err)
	}
	return nil
}

// Path は設定ファイルのパスを返す
// UTSURU_CONFIG で明示的に指定できる
func Path() (string, error) {
	if path := os.Getenv("UTSURU_CONFIG"); path != "" {
		return path, nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("設定ディレクトリの取得に失敗: %w", err)
	}
	return filepath.Join(dir, "utsuru", "config.yaml"), nil
}

// Validate は設定の妥当性を検証する
func (c *Config) Validate() error {
	// サーバー設定の検証
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("無効なポート番号: %d", c.Server.Port)
	}

	// カメラパラメータの検証
	if c.Camera.ExposureTimeMs < 1 {
		return fmt.Errorf("無効な露出時間: %d ms", c.Camera.ExposureTimeMs)
	}
	if c.Camera.ExposureGainPct < 100 {
		return fmt.Errorf("無効な露出ゲイン: %d %%", c.Camera.ExposureGainPct)
	}
	if c.Camera.ColorTemperatureK < 1000 {
		return fmt.Errorf("無効な色温度: %d K", c.Camera.ColorTemperatureK)
	}

	return nil
}

// ServerAddress はサーバーのリッスンアドレスを返す
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// defaultConfig はデフォルト設定を作成する
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 0, // ストリーミング用にタイムアウト無効化
		},
		Camera: CameraConfig{
			DeviceID:          "",
			AutoConnect:       true,
			ExposureTimeMs:    120,
			ExposureGainPct:   100,
			ColorTemperatureK: 6503,
			Tint:              1000,
		},
		Snapshot: SnapshotConfig{
			OutputDir: "snapshots",
		},
	}
}

// getEnvOrDefault は環境変数を取得し、設定されていない場合はデフォルト値を返す
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault は環境変数を整数として取得し、設定されていない場合はデフォルト値を返す
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intVal int
		if _, err := fmt.Sscanf(value, "%d", &intVal); err == nil {
			return intVal
		}
	}
	return defaultValue
}
