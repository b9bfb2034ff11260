package storage

import (
	"fmt"

	"TourRoute/storage/database"
	"TourRoute/storage/mq"
	"TourRoute/storage/redis"
)

// Init 初始化 API 需要的全部存储：数据库、缓存、消息队列
func Init() error {
	if err := database.Init(); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	return InitMessaging()
}

// InitMessaging worker 只需要 redis 与 rabbitmq
func InitMessaging() error {
	if err := redis.Init(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	if err := mq.Init(); err != nil {
		return fmt.Errorf("rabbitmq: %w", err)
	}

	return nil
}
