package mq

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"TourRoute/config"
	"TourRoute/pkg/logger"
)

var (
	conn     *amqp.Connection
	connMu   sync.RWMutex
	initOnce sync.Once
	initErr  error
)

// RouteBindingKey 统计队列订阅的路由事件
const RouteBindingKey = "route.#"

func Init() error {
	initOnce.Do(func() {
		c, err := amqp.Dial(config.Cfg.GetRabbitMQURL())
		if err != nil {
			initErr = fmt.Errorf("failed to dial rabbitmq: %w", err)
			return
		}

		if err := declareTopology(c); err != nil {
			_ = c.Close()
			initErr = err
			return
		}

		connMu.Lock()
		conn = c
		connMu.Unlock()

		logger.Logger.Info("RabbitMQ connected",
			zap.String("exchange", config.Cfg.RouteExchange),
			zap.String("queue", config.Cfg.RouteEventQueue),
		)
	})
	return initErr
}

// declareTopology 声明 topic 交换机与统计队列
func declareTopology(c *amqp.Connection) error {
	ch, err := c.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	cfg := config.Cfg
	if err := ch.ExchangeDeclare(cfg.RouteExchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", cfg.RouteExchange, err)
	}
	if _, err := ch.QueueDeclare(cfg.RouteEventQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", cfg.RouteEventQueue, err)
	}
	if err := ch.QueueBind(cfg.RouteEventQueue, RouteBindingKey, cfg.RouteExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", cfg.RouteEventQueue, err)
	}
	return nil
}

// Connection 未初始化或已关闭时返回 nil
func Connection() *amqp.Connection {
	connMu.RLock()
	defer connMu.RUnlock()
	if conn == nil || conn.IsClosed() {
		return nil
	}
	return conn
}

func Close(ctx context.Context) error {
	pubMutex.Lock()
	if publisherCh != nil {
		_ = publisherCh.Channel().Close()
		publisherCh = nil
	}
	pubMutex.Unlock()

	connMu.Lock()
	defer connMu.Unlock()
	if conn == nil || conn.IsClosed() {
		return nil
	}
	err := conn.Close()
	conn = nil
	return err
}
