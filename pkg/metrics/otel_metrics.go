package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetrics OpenTelemetry 指标集合
type OTelMetrics struct {
	// 路线相关指标
	RoutesStartedTotal      metric.Int64Counter
	TracesRecordedTotal     metric.Int64Counter
	RoutesCompletedTotal    metric.Int64Counter
	RoutesRevertedTotal     metric.Int64Counter
	POIRemovalsTotal        metric.Int64Counter
	SideEffectFailuresTotal metric.Int64Counter
	SideEffectDuration      metric.Float64Histogram

	// 事件消费
	RouteEventsConsumedTotal metric.Int64Counter
}

var (
	// 全局指标实例
	metrics *OTelMetrics
	// meter 用于创建指标
	meter = otel.Meter("tourroute")
)

// InitMetrics 初始化 OpenTelemetry 指标，需在 otel.Init 之后调用
func InitMetrics() error {
	var err error
	m := &OTelMetrics{}

	if m.RoutesStartedTotal, err = meter.Int64Counter(
		"routes_started_total",
		metric.WithDescription("Total number of routes started"),
		metric.WithUnit("{route}"),
	); err != nil {
		return err
	}

	if m.TracesRecordedTotal, err = meter.Int64Counter(
		"route_traces_recorded_total",
		metric.WithDescription("Total number of visited traces recorded"),
		metric.WithUnit("{trace}"),
	); err != nil {
		return err
	}

	if m.RoutesCompletedTotal, err = meter.Int64Counter(
		"routes_completed_total",
		metric.WithDescription("Total number of routes transitioned to completed"),
		metric.WithUnit("{route}"),
	); err != nil {
		return err
	}

	if m.RoutesRevertedTotal, err = meter.Int64Counter(
		"routes_reverted_total",
		metric.WithDescription("Total number of completed routes reverted to active"),
		metric.WithUnit("{route}"),
	); err != nil {
		return err
	}

	if m.POIRemovalsTotal, err = meter.Int64Counter(
		"route_poi_removals_total",
		metric.WithDescription("Total number of POIs removed from routes"),
		metric.WithUnit("{poi}"),
	); err != nil {
		return err
	}

	if m.SideEffectFailuresTotal, err = meter.Int64Counter(
		"route_side_effect_failures_total",
		metric.WithDescription("Total number of failed completion side effects"),
		metric.WithUnit("{error}"),
	); err != nil {
		return err
	}

	if m.SideEffectDuration, err = meter.Float64Histogram(
		"route_side_effect_duration_seconds",
		metric.WithDescription("Time spent running completion side effects"),
		metric.WithUnit("s"),
	); err != nil {
		return err
	}

	if m.RouteEventsConsumedTotal, err = meter.Int64Counter(
		"route_events_consumed_total",
		metric.WithDescription("Total number of route events consumed by the worker"),
		metric.WithUnit("{message}"),
	); err != nil {
		return err
	}

	metrics = m
	return nil
}

// GetMetrics 获取全局指标实例，未初始化时为 nil
func GetMetrics() *OTelMetrics {
	return metrics
}

func (m *OTelMetrics) recordRouteStarted(ctx context.Context, kind string) {
	m.RoutesStartedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("target_kind", kind)))
}

func (m *OTelMetrics) recordTrace(ctx context.Context, withPOI bool) {
	m.TracesRecordedTotal.Add(ctx, 1, metric.WithAttributes(attribute.Bool("with_poi", withPOI)))
}

func (m *OTelMetrics) recordCompleted(ctx context.Context, kind, trigger string) {
	m.RoutesCompletedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("target_kind", kind),
		attribute.String("trigger", trigger),
	))
}

func (m *OTelMetrics) recordSideEffect(ctx context.Context, effect string, duration float64, err error) {
	attrs := metric.WithAttributes(attribute.String("effect", effect))
	m.SideEffectDuration.Record(ctx, duration, attrs)
	if err != nil {
		m.SideEffectFailuresTotal.Add(ctx, 1, attrs)
	}
}
