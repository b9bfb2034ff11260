package metrics

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// 以下函数在指标未初始化时静默跳过

// RecordRouteStarted 记录开始路线
func RecordRouteStarted(ctx context.Context, kind string) {
	if m := GetMetrics(); m != nil {
		m.recordRouteStarted(ctx, kind)
	}
}

// RecordTrace 记录轨迹上报
func RecordTrace(ctx context.Context, withPOI bool) {
	if m := GetMetrics(); m != nil {
		m.recordTrace(ctx, withPOI)
	}
}

// RecordRouteCompleted 记录路线完成，trigger 为 trace / remove_poi
func RecordRouteCompleted(ctx context.Context, kind, trigger string) {
	if m := GetMetrics(); m != nil {
		m.recordCompleted(ctx, kind, trigger)
	}
}

// RecordRouteReverted 记录完成状态回退
func RecordRouteReverted(ctx context.Context, kind string) {
	if m := GetMetrics(); m != nil {
		m.RoutesRevertedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("target_kind", kind)))
	}
}

// RecordPOIRemoved 记录移除 POI
func RecordPOIRemoved(ctx context.Context) {
	if m := GetMetrics(); m != nil {
		m.POIRemovalsTotal.Add(ctx, 1)
	}
}

// RecordSideEffect 记录完成副作用（album / points / event）
func RecordSideEffect(ctx context.Context, effect string, duration float64, err error) {
	if m := GetMetrics(); m != nil {
		m.recordSideEffect(ctx, effect, duration, err)
	}
}

// RecordEventConsumed 记录 worker 消费事件
func RecordEventConsumed(ctx context.Context, eventType, status string) {
	if m := GetMetrics(); m != nil {
		m.RouteEventsConsumedTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("event_type", eventType),
			attribute.String("status", status),
		))
	}
}
