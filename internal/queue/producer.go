package queue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"TourRoute/config"
	"TourRoute/internal/model"
	"TourRoute/pkg/logger"
	"TourRoute/pkg/snowflake"
	"TourRoute/storage/mq"
)

// PublishRouteEvent 发布路线事件，routing key 即事件类型
func PublishRouteEvent(ctx context.Context, msg model.RouteEventMessage) error {
	if msg.MessageID == "" {
		id, err := snowflake.NextMessageID()
		if err != nil {
			logger.Logger.Error("Failed to generate message ID",
				zap.Int64("route_id", msg.RouteID),
				zap.Error(err),
			)
			return fmt.Errorf("failed to generate message ID: %w", err)
		}
		msg.MessageID = "route_event_" + id
	}
	if msg.OccurredAt == "" {
		msg.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	}

	routingKey := string(msg.EventType)

	if err := mq.PublishMessage(ctx, config.Cfg.RouteExchange, routingKey, msg.MessageID, msg); err != nil {
		logger.Logger.Error("Failed to publish route event",
			zap.String("message_id", msg.MessageID),
			zap.Int64("route_id", msg.RouteID),
			zap.Int64("user_id", msg.UserID),
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
		return err
	}

	logger.Logger.Info("Published route event",
		zap.String("message_id", msg.MessageID),
		zap.Int64("route_id", msg.RouteID),
		zap.String("routing_key", routingKey),
	)

	return nil
}
