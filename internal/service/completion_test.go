package service

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"TourRoute/internal/model"
)

func poi(id int64) *int64 { return &id }

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		required POISet
		visited  POISet
		want     bool
	}{
		{"empty required never completes", NewPOISet(), NewPOISet(1, 2), false},
		{"empty both", NewPOISet(), NewPOISet(), false},
		{"all visited", NewPOISet(1, 2, 3), NewPOISet(1, 2, 3), true},
		{"one missing", NewPOISet(1, 2, 3), NewPOISet(1, 2), false},
		{"extra visited ignored", NewPOISet(1, 2), NewPOISet(1, 2, 9), true},
		{"disjoint same size", NewPOISet(1, 2), NewPOISet(3, 4), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.required, tt.visited))
			assert.Equal(t, tt.want, EvaluateRelaxed(tt.required, tt.visited))
		})
	}
}

func TestEvaluateMatchesSubsetDefinition(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		required := randomSet(rng)
		visited := randomSet(rng)

		subset := true
		for id := range required {
			if !visited.Has(id) {
				subset = false
				break
			}
		}
		want := len(required) > 0 && subset

		assert.Equal(t, want, Evaluate(required, visited), "required=%v visited=%v", required, visited)
		assert.Equal(t, Evaluate(required, visited), EvaluateRelaxed(required, visited))
	}
}

func randomSet(rng *rand.Rand) POISet {
	s := NewPOISet()
	for n := rng.Intn(5); n > 0; n-- {
		s[int64(rng.Intn(6)+1)] = struct{}{}
	}
	return s
}

func TestRequiredSet(t *testing.T) {
	required := RequiredSet([]int64{1, 2, 3}, []int64{3, 7})
	assert.Equal(t, NewPOISet(1, 2), required)

	assert.Empty(t, RequiredSet([]int64{1}, []int64{1}))
}

func TestVisitedSet(t *testing.T) {
	traces := []model.VisitedTrace{
		{POIID: nil},
		{POIID: poi(1)},
		{POIID: poi(1)},
		{POIID: poi(4)},
	}
	assert.Equal(t, NewPOISet(1, 4), VisitedSet(traces))
	assert.Empty(t, VisitedSet(nil))
}

func TestShouldRevert(t *testing.T) {
	tests := []struct {
		name     string
		required POISet
		visited  POISet
		want     bool
	}{
		{"unvisited poi added back", NewPOISet(1, 2, 3), NewPOISet(1, 2), true},
		{"all required visited", NewPOISet(1, 2, 3), NewPOISet(1, 2, 3), false},
		{"stale visit balances the count", NewPOISet(1, 2, 3), NewPOISet(1, 2, 4), false},
		{"more visited than required", NewPOISet(1), NewPOISet(1, 2), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldRevert(tt.required, tt.visited))
		})
	}
}
