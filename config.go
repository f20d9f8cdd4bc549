package tpchgen

import (
	"math"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/docker/go-units"
	"github.com/gizmodata/tpch-datagen/file"
)

// ScaleSpec describes how much data to generate and how the work is split and executed
type ScaleSpec struct {
	ScaleFactor     float64 `toml:"scale_factor"`
	Chunks          int     `toml:"num_chunks"`
	Processes       int     `toml:"num_processes"`
	EngineThreads   int     `toml:"engine_threads"`
	PerThreadOutput bool    `toml:"per_thread_output"`
	Compression     string  `toml:"compression"`
	FileSize        string  `toml:"file_size"`

	// FileSizeBytes is derived from FileSize by Normalize and not read from config.
	FileSizeBytes int64 `toml:"-"`
}

type PathConfig struct {
	DataDirectory string `toml:"data_directory"`
	WorkDirectory string `toml:"work_directory"`
	Overwrite     bool   `toml:"overwrite"`
}

type HistoryConfig struct {
	DSN string `toml:"dsn"`
}

type FTPConfig struct {
	Addr     string `toml:"addr"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Dir      string `toml:"dir"`
	Timeout  string `toml:"timeout"`
}

type PublishConfig struct {
	Checksum string     `toml:"checksum"`
	FTP      *FTPConfig `toml:"ftp,omitempty"`
}

type ReportConfig struct {
	Progress    bool   `toml:"progress"`
	MetricsFile string `toml:"metrics_file"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is built once at startup and handed to the job by value
type Config struct {
	Scale   ScaleSpec     `toml:"scale"`
	Paths   PathConfig    `toml:"paths"`
	History HistoryConfig `toml:"history"`
	Publish PublishConfig `toml:"publish"`
	Report  ReportConfig  `toml:"report"`
	Log     LogConfig     `toml:"log"`
}

// DefaultConfig returns the defaults; the scale factor is left unset on purpose
func DefaultConfig() Config {
	processes := runtime.NumCPU()
	return Config{
		Scale: ScaleSpec{
			Chunks:          DefaultNumChunks,
			Processes:       processes,
			EngineThreads:   DefaultEngineThreads(processes),
			PerThreadOutput: DefaultPerThreadOutput,
			Compression:     DefaultCompression,
			FileSize:        DefaultFileSize,
		},
		Paths: PathConfig{
			DataDirectory: DefaultDataDirectory,
			WorkDirectory: DefaultWorkDirectory,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// DefaultEngineThreads spreads the CPUs evenly over the worker processes
func DefaultEngineThreads(processes int) int {
	if processes <= 0 {
		return 1
	}
	return int(math.Ceil(float64(runtime.NumCPU()) / float64(processes)))
}

// LoadConfig reads a TOML file on top of DefaultConfig
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, NewBatchError(ErrCodeConfig, "load config file:%v", path, err)
	}
	return cfg, nil
}

// Normalize resolves derived config values after loading.
func Normalize(cfg *Config) error {
	cfg.Scale.Compression = strings.ToLower(strings.TrimSpace(cfg.Scale.Compression))
	cfg.Publish.Checksum = strings.ToUpper(strings.TrimSpace(cfg.Publish.Checksum))
	if cfg.Scale.FileSize != "" {
		size, err := units.FromHumanSize(cfg.Scale.FileSize)
		if err != nil {
			return NewBatchError(ErrCodeConfig, "invalid file size %q", cfg.Scale.FileSize, err)
		}
		cfg.Scale.FileSizeBytes = size
	}
	return nil
}

// Validate returns one ConfigurationError listing every problem found
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Scale.ScaleFactor <= 0 || math.IsNaN(cfg.Scale.ScaleFactor) || math.IsInf(cfg.Scale.ScaleFactor, 0) {
		errs = append(errs, "you must specify a scale factor greater than 0 to generate data")
	}
	if cfg.Scale.Chunks < 1 {
		errs = append(errs, "num_chunks must be at least 1")
	}
	if cfg.Scale.Processes < 1 {
		errs = append(errs, "num_processes must be at least 1")
	}
	if cfg.Scale.EngineThreads < 1 {
		errs = append(errs, "engine_threads must be at least 1")
	}
	if _, ok := compressions[cfg.Scale.Compression]; !ok {
		errs = append(errs, "compression must be one of none, snappy, gzip, zstd")
	}
	if cfg.Scale.FileSizeBytes <= 0 {
		errs = append(errs, "file_size must be greater than 0")
	}
	if cfg.Paths.DataDirectory == "" {
		errs = append(errs, "data_directory is required")
	}
	if cfg.Paths.WorkDirectory == "" {
		errs = append(errs, "work_directory is required")
	}
	if cfg.Publish.Checksum != "" && file.GetChecksumer(cfg.Publish.Checksum) == nil {
		errs = append(errs, "checksum must be one of md5, sha1, sha256, sha512")
	}
	if cfg.Publish.FTP != nil && cfg.Publish.FTP.Addr == "" {
		errs = append(errs, "publish.ftp.addr is required when [publish.ftp] is set")
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, "log format must be text or json")
	}

	if len(errs) == 0 {
		return nil
	}
	return NewBatchError(ErrCodeConfig, "invalid config: %s", strings.Join(errs, "; "))
}

// Compression methods understood by the export step
const (
	CompressionNone   = "none"
	CompressionSnappy = "snappy"
	CompressionGzip   = "gzip"
	CompressionZstd   = "zstd"
)

var compressions = map[string]struct{}{
	CompressionNone:   {},
	CompressionSnappy: {},
	CompressionGzip:   {},
	CompressionZstd:   {},
}

// Compressions lists the accepted compression methods in display order
func Compressions() []string {
	return []string{CompressionNone, CompressionSnappy, CompressionGzip, CompressionZstd}
}
