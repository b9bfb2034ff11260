package database

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	spanKey      = "otel:span"
	startTimeKey = "otel:start_time"
	maxSQLLength = 500
)

var (
	dbQueriesTotal  metric.Int64Counter
	dbQueryDuration metric.Float64Histogram
)

// InitDatabaseMetrics 初始化数据库指标
func InitDatabaseMetrics(meter metric.Meter) error {
	var err error

	dbQueriesTotal, err = meter.Int64Counter(
		"db.queries.total",
		metric.WithDescription("Total number of database queries"),
		metric.WithUnit("{query}"),
	)
	if err != nil {
		return err
	}

	dbQueryDuration, err = meter.Float64Histogram(
		"db.query.duration",
		metric.WithDescription("Database query duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0),
	)
	return err
}

// 轨迹坐标属于用户位置，和凭证一样不进 span
var (
	sensitiveLiteral = regexp.MustCompile(`(?i)(password|token|secret|latitude|longitude)\s*=\s*'[^']*'`)
	coordinateLit    = regexp.MustCompile(`-?\d{1,3}\.\d{4,}`)
)

// tracePlugin 给每条 SQL 打 span，路线加锁的查询单独命名
type tracePlugin struct {
	tracer      trace.Tracer
	serviceName string
}

// Instrument 给 gorm 挂上 OTel 回调
func Instrument(db *gorm.DB, serviceName string) error {
	if serviceName == "" {
		serviceName = "tourroute"
	}
	return db.Use(&tracePlugin{
		tracer:      otel.Tracer(serviceName + ".gorm"),
		serviceName: serviceName,
	})
}

func (p *tracePlugin) Name() string {
	return "otel_plugin"
}

func (p *tracePlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()

	_ = cb.Query().Before("gorm:query").Register("otel:before_query", p.before)
	_ = cb.Query().After("gorm:query").Register("otel:after_query", p.after)
	_ = cb.Create().Before("gorm:create").Register("otel:before_create", p.before)
	_ = cb.Create().After("gorm:create").Register("otel:after_create", p.after)
	_ = cb.Update().Before("gorm:update").Register("otel:before_update", p.before)
	_ = cb.Update().After("gorm:update").Register("otel:after_update", p.after)
	_ = cb.Delete().Before("gorm:delete").Register("otel:before_delete", p.before)
	_ = cb.Delete().After("gorm:delete").Register("otel:after_delete", p.after)
	_ = cb.Row().Before("gorm:row").Register("otel:before_row", p.before)
	_ = cb.Row().After("gorm:row").Register("otel:after_row", p.after)
	_ = cb.Raw().Before("gorm:raw").Register("otel:before_raw", p.before)
	_ = cb.Raw().After("gorm:raw").Register("otel:after_raw", p.after)

	return nil
}

func (p *tracePlugin) before(db *gorm.DB) {
	attrs := []attribute.KeyValue{
		semconv.DBSystemPostgreSQL,
		attribute.String("service.name", p.serviceName),
	}
	if db.Statement.Table != "" {
		attrs = append(attrs, attribute.String("db.sql.table", db.Statement.Table))
	}

	ctx, span := p.tracer.Start(db.Statement.Context, "db.query",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
	db.InstanceSet(startTimeKey, time.Now())
	db.InstanceSet(spanKey, span)
	db.Statement.Context = ctx
}

func (p *tracePlugin) after(db *gorm.DB) {
	v, ok := db.InstanceGet(spanKey)
	if !ok {
		return
	}
	span, ok := v.(trace.Span)
	if !ok {
		return
	}
	defer span.End()

	// SQL 在执行后才完整，这里补操作名与语句
	sql := db.Statement.SQL.String()
	op := operationName(sql)
	span.SetName(op)
	span.SetAttributes(
		semconv.DBOperation(op),
		semconv.DBStatement(sanitizeSQL(sql)),
		attribute.Int64("db.rows_affected", db.Statement.RowsAffected),
	)

	status := "success"
	switch {
	case db.Error == nil:
		span.SetStatus(codes.Ok, "")
	case errors.Is(db.Error, gorm.ErrRecordNotFound):
		status = "not_found"
		span.SetStatus(codes.Ok, "record not found")
	default:
		status = "error"
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	var elapsed float64
	if t, ok := db.InstanceGet(startTimeKey); ok {
		if start, ok := t.(time.Time); ok {
			elapsed = time.Since(start).Seconds()
		}
	}
	recordQuery(db.Statement.Context, op, db.Statement.Table, status, elapsed)
}

// operationName FOR UPDATE 查询单独命名
func operationName(sql string) string {
	s := strings.ToUpper(strings.TrimSpace(sql))
	switch {
	case s == "":
		return "db.unknown"
	case strings.HasPrefix(s, "SELECT") && strings.Contains(s, "FOR UPDATE"):
		return "db.select_for_update"
	case strings.HasPrefix(s, "SELECT"):
		return "db.select"
	case strings.HasPrefix(s, "INSERT"):
		return "db.insert"
	case strings.HasPrefix(s, "UPDATE"):
		return "db.update"
	case strings.HasPrefix(s, "DELETE"):
		return "db.delete"
	default:
		return "db.query"
	}
}

// sanitizeSQL 屏蔽凭证和坐标字面量并截断
func sanitizeSQL(sql string) string {
	if len(sql) > maxSQLLength {
		sql = sql[:maxSQLLength] + "..."
	}
	sql = sensitiveLiteral.ReplaceAllString(sql, "$1='***'")
	return coordinateLit.ReplaceAllString(sql, "?")
}

func recordQuery(ctx context.Context, op, table, status string, elapsed float64) {
	// 未调用 InitDatabaseMetrics 时只记 span
	if dbQueriesTotal == nil || dbQueryDuration == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("db.operation", op),
		attribute.String("db.table", table),
		attribute.String("db.status", status),
	)
	dbQueriesTotal.Add(ctx, 1, attrs)
	dbQueryDuration.Record(ctx, elapsed, attrs)
}
