package model

// Album 路线完成后生成的相册
type Album struct {
	BaseModel
	RouteID *int64 `gorm:"index" json:"route_id,omitempty"`
	Name    string `gorm:"type:varchar(255);not null" json:"name"`
	UserID  int64  `gorm:"not null;index" json:"user_id"`
}

// TableName 指定表名
func (Album) TableName() string {
	return "albums"
}

// AlbumPOI 相册条目
type AlbumPOI struct {
	AppendOnlyModel
	AlbumID   int64 `gorm:"not null;uniqueIndex:uk_album_pois_album_file" json:"album_id"`
	POIFileID int64 `gorm:"column:poi_file_id;not null;uniqueIndex:uk_album_pois_album_file" json:"poi_file_id"`
}

// TableName 指定表名
func (AlbumPOI) TableName() string {
	return "album_pois"
}
