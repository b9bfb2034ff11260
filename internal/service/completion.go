package service

import "TourRoute/internal/model"

// POISet POI ID 集合
type POISet map[int64]struct{}

// NewPOISet 去重构造集合
func NewPOISet(ids ...int64) POISet {
	s := make(POISet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s POISet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// RequiredSet 原始 POI 减去当前被移除的 POI
func RequiredSet(original []int64, removed []int64) POISet {
	excluded := NewPOISet(removed...)
	required := make(POISet, len(original))
	for _, id := range original {
		if !excluded.Has(id) {
			required[id] = struct{}{}
		}
	}
	return required
}

// VisitedSet 轨迹中出现过的非空 POI，重复到访只算一次
func VisitedSet(traces []model.VisitedTrace) POISet {
	visited := make(POISet)
	for _, t := range traces {
		if t.POIID != nil {
			visited[*t.POIID] = struct{}{}
		}
	}
	return visited
}

// Evaluate 必需集合非空且全部到访即为完成，多余的到访不影响结果
func Evaluate(required, visited POISet) bool {
	if len(required) == 0 {
		return false
	}
	for id := range required {
		if !visited.Has(id) {
			return false
		}
	}
	return true
}

// EvaluateRelaxed 移除 POI 时使用的判定：
// 要求 len(required) <= len(visited)，visited 可以包含已不再需要的 POI。
// 由于 required ⊆ visited 已经蕴含该长度条件，结果与 Evaluate 一致，保留为独立入口。
func EvaluateRelaxed(required, visited POISet) bool {
	if len(required) == 0 || len(required) > len(visited) {
		return false
	}
	for id := range required {
		if !visited.Has(id) {
			return false
		}
	}
	return true
}

// ShouldRevert 加回 POI 后的退回判定，只比较数量：
// 必需数多于已到访数时退回。已到访但不再需要的 POI 也计入 visited。
func ShouldRevert(required, visited POISet) bool {
	return len(required) > len(visited)
}
