package model

import "time"

// Circuit 官方线路，由后台维护
type Circuit struct {
	BaseModel
	EndPoint  *GeoPoint `gorm:"type:jsonb" json:"end_point,omitempty"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Image     string    `gorm:"type:varchar(512)" json:"image,omitempty"`
	Distance  float64   `gorm:"not null;default:0" json:"distance"`
	Duration  float64   `gorm:"not null;default:0" json:"duration"`
	IsPremium bool      `gorm:"not null;default:false" json:"is_premium"`
	IsDeleted bool      `gorm:"not null;default:false" json:"-"`
}

// TableName 指定表名
func (Circuit) TableName() string {
	return "circuits"
}

// CircuitPOI 官方线路与 POI 的有序关联
type CircuitPOI struct {
	CircuitID     int64 `gorm:"primaryKey" json:"circuit_id"`
	POIID         int64 `gorm:"column:poi_id;primaryKey" json:"poi_id"`
	Order         int   `gorm:"column:order;not null;default:0" json:"order"`
	EstimatedTime *int  `json:"estimated_time,omitempty"` // 分钟
}

// TableName 指定表名
func (CircuitPOI) TableName() string {
	return "circuit_pois"
}

// POI 兴趣点
type POI struct {
	BaseModel
	Name      string  `gorm:"type:varchar(255);not null" json:"name"`
	Latitude  float64 `gorm:"type:double precision;not null" json:"latitude"`
	Longitude float64 `gorm:"type:double precision;not null" json:"longitude"`
	IsDeleted bool    `gorm:"not null;default:false" json:"-"`
}

// TableName 指定表名
func (POI) TableName() string {
	return "pois"
}

// POIFileType 文件类型
type POIFileType string

const (
	POIFileImage      POIFileType = "image"      // 封面图
	POIFileImageAlbum POIFileType = "imageAlbum" // 相册素材
)

// POIFile POI 关联的媒体文件
type POIFile struct {
	BaseModel
	FileURL string      `gorm:"type:varchar(512);not null" json:"file_url"`
	Type    POIFileType `gorm:"type:varchar(32);not null;index:idx_poi_files_poi_type" json:"type"`
	POIID   int64       `gorm:"column:poi_id;not null;index:idx_poi_files_poi_type" json:"poi_id"`
}

// TableName 指定表名
func (POIFile) TableName() string {
	return "poi_files"
}

// CustomCircuit 用户自定义线路，SelectedPOIs 的顺序即游览顺序
type CustomCircuit struct {
	BaseModel
	StartDate         *time.Time `gorm:"type:timestamptz" json:"start_date,omitempty"`
	StartPoint        *GeoPoint  `gorm:"type:jsonb" json:"start_point,omitempty"`
	EndPoint          *GeoPoint  `gorm:"type:jsonb" json:"end_point,omitempty"`
	Name              string     `gorm:"type:varchar(255);not null" json:"name"`
	Description       string     `gorm:"type:text" json:"description,omitempty"`
	SelectedPOIs      POIIDList  `gorm:"column:selected_pois;type:jsonb;not null" json:"selected_pois"`
	UserID            int64      `gorm:"not null;index" json:"user_id"`
	EstimatedDuration int        `gorm:"not null;default:0" json:"estimated_duration"` // 分钟
	IsDeleted         bool       `gorm:"not null;default:false" json:"-"`
}

// TableName 指定表名
func (CustomCircuit) TableName() string {
	return "custom_circuits"
}
