package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"TourRoute/config"
	"TourRoute/internal/cache"
	"TourRoute/internal/model"
	"TourRoute/pkg/errors"
	"TourRoute/pkg/logger"
	"TourRoute/pkg/metrics"
	"TourRoute/storage/mq"
)

// StatsInvalidator 统计缓存失效
type StatsInvalidator interface {
	Invalidate(ctx context.Context, userID int64)
}

const (
	processingTTL = 10 * time.Minute
	processedTTL  = 48 * time.Hour
)

// RouteEventHandler 消费路线事件，刷新用户统计缓存
type RouteEventHandler struct {
	stats StatsInvalidator
}

func NewRouteEventHandler(stats StatsInvalidator) *RouteEventHandler {
	return &RouteEventHandler{stats: stats}
}

// Handle 重复消息与无法解析的消息返回 SkipMessageError
func (h *RouteEventHandler) Handle(ctx context.Context, body []byte) error {
	var msg model.RouteEventMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		metrics.RecordEventConsumed(ctx, "unknown", "malformed")
		return &errors.SkipMessageError{Reason: fmt.Sprintf("malformed route event: %v", err)}
	}
	if msg.UserID == 0 {
		metrics.RecordEventConsumed(ctx, string(msg.EventType), "malformed")
		return &errors.SkipMessageError{Reason: "route event without user_id"}
	}

	dedup := msg.MessageID != ""
	if dedup {
		first, err := cache.TryMarkMessageProcessing(ctx, msg.MessageID, processingTTL)
		if err != nil {
			// 去重不可用时照常处理，失效操作本身幂等
			logger.Logger.Debug("Message dedup unavailable",
				zap.String("message_id", msg.MessageID),
				zap.Error(err),
			)
			dedup = false
		} else if !first {
			metrics.RecordEventConsumed(ctx, string(msg.EventType), "duplicate")
			return &errors.SkipMessageError{Reason: fmt.Sprintf("Message %s already processed", msg.MessageID)}
		}
	}

	h.stats.Invalidate(ctx, msg.UserID)

	if dedup {
		if err := cache.MarkMessageProcessed(ctx, msg.MessageID, processedTTL); err != nil {
			logger.Logger.Warn("Failed to mark message as processed",
				zap.String("message_id", msg.MessageID),
				zap.Error(err),
			)
		}
	}

	metrics.RecordEventConsumed(ctx, string(msg.EventType), "ok")
	logger.Logger.Info("Processed route event",
		zap.String("message_id", msg.MessageID),
		zap.String("event_type", string(msg.EventType)),
		zap.Int64("route_id", msg.RouteID),
		zap.Int64("user_id", msg.UserID),
	)
	return nil
}

// StartRouteEventConsumer 阻塞直到 ctx 结束
func StartRouteEventConsumer(ctx context.Context) error {
	h := NewRouteEventHandler(cache.RouteStats())
	return mq.Consume(ctx, mq.ConsumeOptions{
		Queue:         config.Cfg.RouteEventQueue,
		ConsumerTag:   config.Cfg.ServiceName + "_route_event_consumer",
		PrefetchCount: config.Cfg.WorkerPrefetch,
		Handler:       h.Handle,
	})
}

// StartAllConsumers 启动全部消费者并等待退出，异常退出后按间隔重试
func StartAllConsumers(ctx context.Context) {
	var wg sync.WaitGroup

	consumers := []struct {
		name     string
		consumer func(context.Context) error
	}{
		{"route_event", StartRouteEventConsumer},
	}

	for _, c := range consumers {
		wg.Add(1)
		go func(name string, consumer func(context.Context) error) {
			defer wg.Done()

			for {
				logger.Logger.Info("Starting consumer",
					zap.String("consumer_name", name),
				)

				err := consumer(ctx)
				if ctx.Err() != nil {
					return
				}
				logger.Logger.Error("Consumer exited with error",
					zap.String("consumer_name", name),
					zap.Error(err),
				)

				select {
				case <-ctx.Done():
					return
				case <-time.After(5 * time.Second):
				}
			}
		}(c.name, c.consumer)
	}

	wg.Wait()

	logger.Logger.Info("All consumers stopped")
}
