package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tpchgen "github.com/gizmodata/tpch-datagen"
	"github.com/gizmodata/tpch-datagen/engine/tpch"
	"github.com/gizmodata/tpch-datagen/file"
	"github.com/gizmodata/tpch-datagen/internal/logs"
	"github.com/spf13/cobra"
)

const defaultFTPTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

type flags struct {
	configFile      string
	scaleFactor     float64
	dataDirectory   string
	workDirectory   string
	overwrite       bool
	chunks          int
	processes       int
	engineThreads   int
	perThreadOutput bool
	compression     string
	fileSize        string
	historyDSN      string
	progress        bool
	metricsFile     string
	checksum        string
	ftpAddr         string
	ftpUser         string
	ftpPassword     string
	ftpDir          string
	ftpTimeout      string
	logLevel        string
	logFormat       string
}

func newRootCommand() *cobra.Command {
	cmd, _ := newCommand()
	return cmd
}

func newCommand() (*cobra.Command, *flags) {
	defaults := tpchgen.DefaultConfig()
	f := &flags{}
	cmd := &cobra.Command{
		Use:           "tpchgen",
		Short:         "Generate a TPC-H dataset as parquet files, in parallel chunks",
		Version:       tpchgen.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := run(cmd, f)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			}
			return err
		},
	}
	cmd.SetVersionTemplate("tpchgen {{.Version}}\n")

	fs := cmd.Flags()
	fs.StringVar(&f.configFile, "config", "", "TOML config file; flags given on the command line override it")
	fs.Float64Var(&f.scaleFactor, "scale-factor", 0, "TPC-H scale factor, must be greater than 0")
	fs.StringVar(&f.dataDirectory, "data-directory", defaults.Paths.DataDirectory, "root of the generated dataset")
	fs.StringVar(&f.workDirectory, "work-directory", defaults.Paths.WorkDirectory, "directory holding the per-chunk scratch workspaces")
	fs.BoolVar(&f.overwrite, "overwrite", false, "replace an existing dataset of the same scale factor")
	fs.IntVar(&f.chunks, "num-chunks", defaults.Scale.Chunks, "number of fact table chunks")
	fs.IntVar(&f.processes, "num-processes", defaults.Scale.Processes, "number of chunks generated at the same time")
	fs.IntVar(&f.engineThreads, "engine-threads", defaults.Scale.EngineThreads, "threads per chunk engine")
	fs.IntVar(&f.engineThreads, "duckdb-threads", defaults.Scale.EngineThreads, "alias of --engine-threads")
	fs.BoolVar(&f.perThreadOutput, "per-thread-output", defaults.Scale.PerThreadOutput, "write one file sequence per engine thread")
	fs.StringVar(&f.compression, "compression-method", defaults.Scale.Compression, "parquet compression: "+strings.Join(tpchgen.Compressions(), "|"))
	fs.StringVar(&f.fileSize, "file-size-bytes", defaults.Scale.FileSize, "target size of a parquet file, e.g. 100m")
	fs.StringVar(&f.historyDSN, "history-dsn", "", "record job history in sqlite://path or mysql://dsn")
	fs.BoolVar(&f.progress, "progress", false, "show a progress bar on stderr")
	fs.StringVar(&f.metricsFile, "metrics-file", "", "write prometheus metrics to this textfile when the job ends")
	fs.StringVar(&f.checksum, "checksum", "", "write a checksum file next to every parquet file: md5|sha1|sha256|sha512")
	fs.StringVar(&f.ftpAddr, "publish-ftp", "", "copy the dataset to this FTP server (host:port) when the job succeeds")
	fs.StringVar(&f.ftpUser, "ftp-user", "anonymous", "FTP user")
	fs.StringVar(&f.ftpPassword, "ftp-password", "", "FTP password")
	fs.StringVar(&f.ftpDir, "ftp-dir", "/", "FTP directory receiving the dataset")
	fs.StringVar(&f.ftpTimeout, "ftp-timeout", defaultFTPTimeout.String(), "FTP connect timeout")
	fs.StringVar(&f.logLevel, "log-level", defaults.Log.Level, "debug|info|warn|error")
	fs.StringVar(&f.logFormat, "log-format", defaults.Log.Format, "text|json")
	return cmd, f
}

func run(cmd *cobra.Command, f *flags) error {
	cfg, err := buildConfig(cmd, f)
	if err != nil {
		return err
	}
	// nothing is touched on disk before the config is known to be valid
	if err = tpchgen.Normalize(&cfg); err == nil {
		err = tpchgen.Validate(&cfg)
	}
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Log, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	tpchgen.SetLogger(logger)

	ctx := cmd.Context()
	repository, err := tpchgen.OpenRepository(ctx, cfg.History.DSN)
	if err != nil {
		return err
	}
	defer repository.Close()

	builder := tpchgen.NewJob("tpch-datagen", cfg).
		Engine(tpch.NewEngine(tpch.WithLogger(logger))).
		Repository(repository)
	if cfg.Report.Progress {
		builder.Listener(tpchgen.NewProgressListener(cmd.ErrOrStderr()))
	}
	if cfg.Report.MetricsFile != "" {
		builder.Listener(tpchgen.NewMetricsListener(cfg.Report.MetricsFile))
	}
	if ftp := cfg.Publish.FTP; ftp != nil && ftp.Addr != "" {
		timeout := defaultFTPTimeout
		if ftp.Timeout != "" {
			if timeout, err = time.ParseDuration(ftp.Timeout); err != nil {
				return tpchgen.NewBatchError(tpchgen.ErrCodeConfig, "invalid ftp timeout:%v", ftp.Timeout, err)
			}
		}
		builder.Publisher(tpchgen.NewPublisher(&file.FTPFileSystem{
			Addr:        ftp.Addr,
			User:        ftp.User,
			Password:    ftp.Password,
			ConnTimeout: timeout,
		}, ftp.Dir))
	}

	_, err = builder.Build().Run(ctx)
	return err
}

// buildConfig layers the config file over the defaults and the explicitly given flags over both
func buildConfig(cmd *cobra.Command, f *flags) (tpchgen.Config, error) {
	cfg := tpchgen.DefaultConfig()
	if f.configFile != "" {
		var err error
		if cfg, err = tpchgen.LoadConfig(f.configFile); err != nil {
			return cfg, err
		}
	}
	changed := cmd.Flags().Changed
	if changed("scale-factor") {
		cfg.Scale.ScaleFactor = f.scaleFactor
	}
	if changed("data-directory") {
		cfg.Paths.DataDirectory = f.dataDirectory
	}
	if changed("work-directory") {
		cfg.Paths.WorkDirectory = f.workDirectory
	}
	if changed("overwrite") {
		cfg.Paths.Overwrite = f.overwrite
	}
	if changed("num-chunks") {
		cfg.Scale.Chunks = f.chunks
	}
	if changed("num-processes") {
		cfg.Scale.Processes = f.processes
		cfg.Scale.EngineThreads = tpchgen.DefaultEngineThreads(f.processes)
	}
	if changed("engine-threads") || changed("duckdb-threads") {
		cfg.Scale.EngineThreads = f.engineThreads
	}
	if changed("per-thread-output") {
		cfg.Scale.PerThreadOutput = f.perThreadOutput
	}
	if changed("compression-method") {
		cfg.Scale.Compression = f.compression
	}
	if changed("file-size-bytes") {
		cfg.Scale.FileSize = f.fileSize
	}
	if changed("history-dsn") {
		cfg.History.DSN = f.historyDSN
	}
	if changed("progress") {
		cfg.Report.Progress = f.progress
	}
	if changed("metrics-file") {
		cfg.Report.MetricsFile = f.metricsFile
	}
	if changed("checksum") {
		cfg.Publish.Checksum = f.checksum
	}
	if changed("publish-ftp") {
		if cfg.Publish.FTP == nil {
			cfg.Publish.FTP = &tpchgen.FTPConfig{User: "anonymous", Dir: "/"}
		}
		cfg.Publish.FTP.Addr = f.ftpAddr
	}
	if ftp := cfg.Publish.FTP; ftp != nil {
		if changed("ftp-user") {
			ftp.User = f.ftpUser
		}
		if changed("ftp-password") {
			ftp.Password = f.ftpPassword
		}
		if changed("ftp-dir") {
			ftp.Dir = f.ftpDir
		}
		if changed("ftp-timeout") {
			ftp.Timeout = f.ftpTimeout
		}
	}
	if changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if changed("log-format") {
		cfg.Log.Format = f.logFormat
	}
	return cfg, nil
}

func newLogger(cfg tpchgen.LogConfig, w io.Writer) (logs.Logger, error) {
	level, err := logs.ParseLevel(cfg.Level)
	if err != nil {
		return nil, tpchgen.NewBatchError(tpchgen.ErrCodeConfig, "invalid log level:%v", cfg.Level, err)
	}
	if strings.EqualFold(cfg.Format, "json") {
		return logs.NewSlogLogger(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logs.SlogLevel(level)}))), nil
	}
	sw, ok := w.(io.StringWriter)
	if !ok {
		sw = os.Stdout
	}
	return logs.NewLogger(sw, level), nil
}
