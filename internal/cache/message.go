package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	messageProcessedPrefix = "msg:processed"
	processedTTL           = 24 * time.Hour
)

func messageKey(messageID string) string {
	return messageProcessedPrefix + ":" + messageID
}

// TryMarkMessageProcessing 尝试原子性地标记消息正在处理
// 返回 true 表示首次处理，false 表示重复消息或正在处理
func TryMarkMessageProcessing(ctx context.Context, messageID string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = processedTTL
	}
	ok, err := TryLock(ctx, messageKey(messageID), "processing", ttl)
	if err != nil {
		return false, fmt.Errorf("failed to mark message as processing: %w", err)
	}
	return ok, nil
}

// UnmarkMessageProcessing 处理失败时释放标记，允许重投后再处理
func UnmarkMessageProcessing(ctx context.Context, messageID string) error {
	return Unlock(ctx, messageKey(messageID))
}

// MarkMessageProcessed 处理成功后改为 completed 并延长 TTL
func MarkMessageProcessed(ctx context.Context, messageID string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = processedTTL
	}
	return Extend(ctx, messageKey(messageID), "completed", ttl)
}
