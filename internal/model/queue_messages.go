package model

// RouteEventType 路线事件类型
type RouteEventType string

const (
	RouteEventCompleted RouteEventType = "route.completed"
	RouteEventReverted  RouteEventType = "route.reverted"
	RouteEventSaved     RouteEventType = "route.saved"
)

// RouteEventMessage 路线状态变化事件
type RouteEventMessage struct {
	MessageID  string         `json:"message_id"` // 消息唯一ID，用于幂等性检查
	EventType  RouteEventType `json:"event_type"`
	TargetKind TargetKind     `json:"target_kind"`
	OccurredAt string         `json:"occurred_at"`
	AlbumID    *int64         `json:"album_id,omitempty"`
	RouteID    int64          `json:"route_id"`
	UserID     int64          `json:"user_id"`
	TargetID   int64          `json:"target_id"`
	Points     int            `json:"points"`
}
