package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

var (
	redisCommandsTotal   metric.Int64Counter
	redisCommandDuration metric.Float64Histogram
	redisCacheLookups    metric.Int64Counter
)

// InitRedisMetrics 初始化 Redis 指标
func InitRedisMetrics(meter metric.Meter) error {
	var err error

	redisCommandsTotal, err = meter.Int64Counter(
		"redis.commands.total",
		metric.WithDescription("Total number of Redis commands"),
		metric.WithUnit("{command}"),
	)
	if err != nil {
		return err
	}

	redisCommandDuration, err = meter.Float64Histogram(
		"redis.command.duration",
		metric.WithDescription("Redis command duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5),
	)
	if err != nil {
		return err
	}

	// 按 key 族统计命中，route_stats 的命中率就在这里
	redisCacheLookups, err = meter.Int64Counter(
		"redis.cache.lookups",
		metric.WithDescription("Cache GET lookups by key family and result"),
		metric.WithUnit("{lookup}"),
	)
	return err
}

func metricsReady() bool {
	return redisCommandsTotal != nil && redisCommandDuration != nil && redisCacheLookups != nil
}

// tracingHook 只记录 key 族，用户 ID 和 IP 不进 span
type tracingHook struct {
	tracer trace.Tracer
	attrs  []attribute.KeyValue
}

// InstrumentRedisClient 给客户端挂追踪 hook
func InstrumentRedisClient(client *redis.Client, serviceName string, db int) {
	client.AddHook(&tracingHook{
		tracer: otel.Tracer(serviceName + ".redis"),
		attrs: []attribute.KeyValue{
			semconv.DBSystemRedis,
			semconv.DBRedisDBIndex(db),
			attribute.String("service.name", serviceName),
		},
	})
}

func (h *tracingHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h *tracingHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		family := keyFamily(cmd.Args())
		ctx, span := h.tracer.Start(ctx, "redis."+cmd.Name(),
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(h.attrs...),
			trace.WithAttributes(
				semconv.DBOperation(cmd.Name()),
				attribute.String("redis.key_family", family),
			),
		)
		defer span.End()

		start := time.Now()
		err := next(ctx, cmd)
		elapsed := time.Since(start).Seconds()

		status := commandStatus(err)
		if status == "error" {
			span.SetStatus(codes.Error, err.Error())
			span.RecordError(err)
		} else {
			span.SetStatus(codes.Ok, "")
		}

		if !metricsReady() {
			return err
		}
		attrs := metric.WithAttributes(
			attribute.String("redis.command", cmd.Name()),
			attribute.String("redis.status", status),
		)
		redisCommandsTotal.Add(ctx, 1, attrs)
		redisCommandDuration.Record(ctx, elapsed, attrs)

		if strings.EqualFold(cmd.Name(), "get") && status != "error" {
			result := "hit"
			if status == "not_found" {
				result = "miss"
			}
			redisCacheLookups.Add(ctx, 1, metric.WithAttributes(
				attribute.String("redis.key_family", family),
				attribute.String("cache.result", result),
			))
		}
		return err
	}
}

// ProcessPipelineHook 限流器的 ZSET 滑动窗口走 pipeline
func (h *tracingHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		ctx, span := h.tracer.Start(ctx, "redis.pipeline",
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(h.attrs...),
		)
		defer span.End()

		names := make([]string, 0, len(cmds))
		for _, cmd := range cmds {
			names = append(names, cmd.Name())
		}
		span.SetAttributes(
			attribute.Int("redis.pipeline.count", len(cmds)),
			attribute.String("redis.pipeline.commands", strings.Join(names, ";")),
		)
		if len(cmds) > 0 {
			span.SetAttributes(attribute.String("redis.key_family", keyFamily(cmds[0].Args())))
		}

		err := next(ctx, cmds)
		status := commandStatus(err)
		if status == "error" {
			span.SetStatus(codes.Error, err.Error())
			span.RecordError(err)
		}

		if metricsReady() {
			redisCommandsTotal.Add(ctx, 1, metric.WithAttributes(
				attribute.String("redis.command", "pipeline"),
				attribute.String("redis.status", status),
			))
		}
		return err
	}
}

func commandStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, redis.Nil):
		return "not_found"
	default:
		return "error"
	}
}

// keyFamily 取 "prefix:family:..." 的第二段
func keyFamily(args []interface{}) string {
	if len(args) < 2 {
		return "none"
	}
	key, ok := args[1].(string)
	if !ok {
		return "none"
	}
	parts := strings.SplitN(key, ":", 3)
	if len(parts) < 2 {
		return parts[0]
	}
	return parts[1]
}
