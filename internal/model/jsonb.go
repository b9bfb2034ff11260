package model

import (
	"database/sql/driver"
	"errors"

	"github.com/goccy/go-json"
)

// JSONB 自定义 JSONB 类型
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, err := scanBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, j)
}

// POIIDList 有序 POI ID 列表，以 jsonb 数组存储
type POIIDList []int64

func (l POIIDList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]int64(l))
}

func (l *POIIDList) Scan(value interface{}) error {
	if value == nil {
		*l = POIIDList{}
		return nil
	}
	bytes, err := scanBytes(value)
	if err != nil {
		return err
	}
	var ids []int64
	if err := json.Unmarshal(bytes, &ids); err != nil {
		return err
	}
	*l = ids
	return nil
}

// Contains 是否包含 id
func (l POIIDList) Contains(id int64) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

// GeoPoint 经纬度，十进制度
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (p GeoPoint) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *GeoPoint) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, err := scanBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, p)
}

func scanBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, errors.New("type assertion to []byte failed")
	}
}
