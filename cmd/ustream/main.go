// =============================================================================
// UStream 主入口
// =============================================================================
// 把配置文件中列出的内容来源（字面量、文件、redis）零拷贝拼接为一个流，
// 并写出到标准输出；可选暴露 Prometheus 指标端点
//
// 使用方法:
//
//	ustream cat --config config.yaml   # 拼接并输出
//	ustream version                    # 显示版本信息
// =============================================================================

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/ustream"
	"github.com/BaSui01/ustream/config"
	"github.com/BaSui01/ustream/providers/file"
	"github.com/BaSui01/ustream/providers/redisblob"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "cat":
		runCat(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// =============================================================================
// 🖥️ cat 命令
// =============================================================================

func runCat(args []string) {
	fs := flag.NewFlagSet("cat", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	loader := config.NewLoader()
	if *configPath != "" {
		loader = loader.WithConfigPath(*configPath)
	}

	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	logger.Info("Starting ustream cat",
		zap.String("version", Version),
		zap.Int("sources", len(cfg.Sources)),
	)

	ctx := context.Background()
	stream, cleanup, err := buildStream(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to build stream", zap.Error(err))
	}
	defer cleanup()

	var g errgroup.Group

	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
		g.Go(func() error {
			logger.Info("Metrics endpoint listening", zap.String("addr", cfg.Metrics.Addr))
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		defer func() {
			if metricsSrv != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = metricsSrv.Shutdown(shutdownCtx)
			}
		}()
		r := ustream.NewReader(stream)
		n, err := r.WriteTo(os.Stdout)
		if err != nil {
			return fmt.Errorf("write stream: %w", err)
		}
		logger.Info("Stream drained", zap.Int64("bytes", n))
		return r.Close()
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("ustream cat failed", zap.Error(err))
	}

	logger.Info("ustream stopped")
}

// buildStream 依配置构建每个来源并按顺序拼接。
// 返回的 cleanup 释放所有来源句柄（拼接结果持有克隆，来源句柄独立）。
func buildStream(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*ustream.Instance, func(), error) {
	var (
		sources     []*ustream.Instance
		redisClient *redis.Client
	)
	cleanup := func() {
		for _, s := range sources {
			_ = s.Dispose()
		}
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}

	for i, src := range cfg.Sources {
		var (
			inst *ustream.Instance
			err  error
		)
		switch src.Type {
		case "literal":
			inst, err = ustream.FromBytes([]byte(src.Data), logger)
		case "file":
			inst, err = file.Open(file.Config{Path: src.Path, Context: ctx, Logger: logger})
		case "redis":
			if redisClient == nil {
				redisClient = redis.NewClient(&redis.Options{
					Addr:     cfg.Redis.Addr,
					Password: cfg.Redis.Password,
					DB:       cfg.Redis.DB,
				})
			}
			inst, err = redisblob.Open(redisblob.Config{
				Client:  redisClient,
				Key:     src.Key,
				Context: ctx,
				Logger:  logger,
			})
		}
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("source %d (%s): %w", i, src.Type, err)
		}
		sources = append(sources, inst)
	}

	// 左折叠拼接：concat(concat(s0, s1), s2)...
	combined := sources[0]
	owned := false
	for _, next := range sources[1:] {
		merged, err := ustream.Concat(combined, next, logger)
		if err != nil {
			if owned {
				_ = combined.Dispose()
			}
			cleanup()
			return nil, nil, fmt.Errorf("concat: %w", err)
		}
		if owned {
			_ = combined.Dispose()
		}
		combined = merged
		owned = true
	}
	if !owned {
		// 单一来源：克隆一份，让 cleanup 与返回值的生命周期解耦
		clone, err := combined.Clone(0)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("clone: %w", err)
		}
		combined = clone
	}
	return combined, cleanup, nil
}

// =============================================================================
// 🛠️ 工具函数
// =============================================================================

func initLogger(cfg config.LogConfig) *zap.Logger {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Format == "console",
		Encoding:         "json",
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	if cfg.Format == "console" {
		zapConfig.Encoding = "console"
	}

	logger, err := zapConfig.Build(
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}

func printVersion() {
	fmt.Printf("ustream %s (built %s, commit %s)\n", Version, BuildTime, GitCommit)
}

func printUsage() {
	fmt.Println(`ustream - concatenate heterogeneous byte sources as one stream

Usage:
  ustream cat --config config.yaml   Concatenate configured sources to stdout
  ustream version                    Show version information
  ustream help                       Show this help`)
}
