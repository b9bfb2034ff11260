package model

// UserPoints 用户积分汇总
type UserPoints struct {
	BaseModel
	UserID      int64 `gorm:"not null;uniqueIndex" json:"user_id"`
	TotalPoints int   `gorm:"not null;default:0" json:"total_points"`
	Level       int   `gorm:"not null;default:1" json:"level"`
}

// TableName 指定表名
func (UserPoints) TableName() string {
	return "user_points"
}

// PointAward 积分发放流水，SourceKey 保证同一来源只发一次
type PointAward struct {
	AppendOnlyModel
	SourceKey string `gorm:"type:varchar(64);not null;uniqueIndex" json:"source_key"`
	UserID    int64  `gorm:"not null;index" json:"user_id"`
	Points    int    `gorm:"not null" json:"points"`
}

// TableName 指定表名
func (PointAward) TableName() string {
	return "point_awards"
}
