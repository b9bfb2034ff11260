package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	hertzconfig "github.com/cloudwego/hertz/pkg/common/config"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"TourRoute/config"
	"TourRoute/internal/handler"
	"TourRoute/internal/middleware"
	"TourRoute/internal/router"
	"TourRoute/internal/service"
	"TourRoute/pkg/logger"
	pkgotel "TourRoute/pkg/otel"
	"TourRoute/pkg/snowflake"
	"TourRoute/pkg/token"
	"TourRoute/storage"
)

const serviceVersion = "1.0.0"

func main() {
	logger.Init()
	defer logger.Sync()

	if err := config.Validate(); err != nil {
		logger.Logger.Fatal("Invalid configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Logger.Info("Received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	// 遥测需要先于存储层初始化，gorm / redis 插件依赖全局 provider
	if config.Cfg.OTELEnabled {
		shutdown, err := pkgotel.InitOpenTelemetry(ctx, pkgotel.Config{
			ServiceName:    config.Cfg.ServiceName,
			ServiceVersion: serviceVersion,
			Environment:    config.Cfg.Environment,
			OTLPEndpoint:   config.Cfg.OTELEndpoint,
			SampleRatio:    config.Cfg.OTELSampler,
		})
		if err != nil {
			logger.Logger.Fatal("Failed to initialize OpenTelemetry", zap.Error(err))
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Logger.Error("Failed to shutdown OpenTelemetry", zap.Error(err))
			}
		}()

		if err := pkgotel.InitInstruments(config.Cfg.ServiceName); err != nil {
			logger.Logger.Fatal("Failed to initialize metrics", zap.Error(err))
		}
		if err := middleware.InitHTTPMetrics(otel.Meter(config.Cfg.ServiceName)); err != nil {
			logger.Logger.Fatal("Failed to initialize HTTP metrics", zap.Error(err))
		}
	}

	if err := storage.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer storage.Close()

	if err := snowflake.Init(config.Cfg.SnowflakeMachineID, config.Cfg.SnowflakeDataCenter); err != nil {
		logger.Logger.Fatal("Failed to initialize snowflake", zap.Error(err))
	}

	// token 在中间件前初始化，middleware 依赖 token
	if err := token.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize token package", zap.Error(err))
	}
	if err := middleware.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize middlewares", zap.Error(err))
	}

	addr := net.JoinHostPort(config.Cfg.ServerHost, config.Cfg.ServerPort)
	h := newServer([]hertzconfig.Option{server.WithHostPorts(addr)})

	router.Register(h, router.Handlers{
		Routes:         handler.NewRouteHandler(service.Route()),
		CustomCircuits: handler.NewCustomCircuitHandler(service.CustomCircuit()),
	}, middleware.AuthMiddleware())

	go func() {
		<-ctx.Done()
		logger.Logger.Info("Initiating graceful shutdown...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := h.Shutdown(shutdownCtx); err != nil {
			logger.Logger.Error("Failed to shutdown HTTP server", zap.Error(err))
		}
	}()

	logger.Logger.Info("HTTP server listening",
		zap.String("addr", addr),
		zap.String("environment", config.Cfg.Environment),
	)

	h.Spin()

	logger.Logger.Info("Server shutting down gracefully")
}

// newServer 启用 OTel 时挂载 hertz 服务端追踪
func newServer(opts []hertzconfig.Option) *server.Hertz {
	if !config.Cfg.OTELEnabled {
		return server.Default(opts...)
	}

	tracer, tracingMW := middleware.NewServerTracerConfig()
	h := server.Default(append(opts, tracer)...)
	h.Use(tracingMW)
	return h
}
