package otel

import (
	"fmt"

	"go.opentelemetry.io/otel"

	pkgdb "TourRoute/pkg/database"
	"TourRoute/pkg/metrics"
	pkgmq "TourRoute/pkg/mq"
	pkgredis "TourRoute/pkg/redis"
)

// InitInstruments 注册存储层与业务指标，需在 InitOpenTelemetry 之后调用
func InitInstruments(serviceName string) error {
	meter := otel.Meter(serviceName)

	if err := pkgdb.InitDatabaseMetrics(meter); err != nil {
		return fmt.Errorf("database metrics: %w", err)
	}
	if err := pkgredis.InitRedisMetrics(meter); err != nil {
		return fmt.Errorf("redis metrics: %w", err)
	}
	if err := pkgmq.InitMQMetrics(meter); err != nil {
		return fmt.Errorf("mq metrics: %w", err)
	}
	if err := metrics.InitMetrics(); err != nil {
		return fmt.Errorf("route metrics: %w", err)
	}
	return nil
}
