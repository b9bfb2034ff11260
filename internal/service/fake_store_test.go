package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"TourRoute/internal/model"
	"TourRoute/internal/repository"
)

// memState 内存中的全部表，事务回滚时整体替换
type memState struct {
	routes      map[int64]model.Route
	visited     []model.VisitedTrace
	removed     []model.RemovedTrace
	circuits    map[int64]model.Circuit
	circuitPOIs []model.CircuitPOI
	pois        map[int64]model.POI
	files       []model.POIFile
	customs     map[int64]model.CustomCircuit
	albums      []model.Album
	albumPOIs   []model.AlbumPOI
	points      map[int64]int
	awards      map[string]model.PointAward
}

func newMemState() *memState {
	return &memState{
		routes:   map[int64]model.Route{},
		circuits: map[int64]model.Circuit{},
		pois:     map[int64]model.POI{},
		customs:  map[int64]model.CustomCircuit{},
		points:   map[int64]int{},
		awards:   map[string]model.PointAward{},
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.routes {
		c.routes[k] = v
	}
	for k, v := range s.circuits {
		c.circuits[k] = v
	}
	for k, v := range s.pois {
		c.pois[k] = v
	}
	for k, v := range s.customs {
		v.SelectedPOIs = append(model.POIIDList(nil), v.SelectedPOIs...)
		c.customs[k] = v
	}
	for k, v := range s.points {
		c.points[k] = v
	}
	for k, v := range s.awards {
		c.awards[k] = v
	}
	c.visited = append(c.visited, s.visited...)
	c.removed = append(c.removed, s.removed...)
	c.circuitPOIs = append(c.circuitPOIs, s.circuitPOIs...)
	c.files = append(c.files, s.files...)
	c.albums = append(c.albums, s.albums...)
	c.albumPOIs = append(c.albumPOIs, s.albumPOIs...)
	return c
}

// memStore 同时实现全部仓储接口
type memStore struct {
	mu     sync.Mutex
	// txMu 串行化事务，对应 FOR UPDATE 行锁
	txMu   sync.Mutex
	state  *memState
	nextID int64
	clock  time.Time

	albumErr  error
	pointsErr error
}

func newMemStore() *memStore {
	return &memStore{
		state: newMemState(),
		clock: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

// tick 每次写入推进一秒，保证创建时间有序
func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memStore) Routes() repository.RouteRepo                 { return m }
func (m *memStore) Circuits() repository.CircuitSource           { return m }
func (m *memStore) CustomCircuits() repository.CustomCircuitRepo { return m }
func (m *memStore) Albums() repository.AlbumRepo                 { return m }
func (m *memStore) Points() repository.PointsRepo                { return m }
func (m *memStore) ReadOnly() repository.Stores                  { return m }

func (m *memStore) Tx(ctx context.Context, fn func(tx repository.Stores) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snapshot := m.state.clone()
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.state = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

// ---- 测试数据 ----

func (m *memStore) addPOI(id int64, name string, files ...model.POIFile) {
	m.state.pois[id] = model.POI{BaseModel: model.BaseModel{ID: id}, Name: name, Latitude: 48.85, Longitude: 2.35}
	for _, f := range files {
		f.POIID = id
		f.ID = m.id()
		m.state.files = append(m.state.files, f)
	}
}

func (m *memStore) addCircuit(id int64, name string, premium bool, poiIDs ...int64) {
	m.state.circuits[id] = model.Circuit{
		BaseModel: model.BaseModel{ID: id},
		Name:      name,
		IsPremium: premium,
		Distance:  1200,
		Duration:  3600,
	}
	for i, poiID := range poiIDs {
		if _, ok := m.state.pois[poiID]; !ok {
			m.addPOI(poiID, fmt.Sprintf("poi-%d", poiID))
		}
		m.state.circuitPOIs = append(m.state.circuitPOIs, model.CircuitPOI{CircuitID: id, POIID: poiID, Order: i + 1})
	}
}

func (m *memStore) addCustomCircuit(id, userID int64, poiIDs ...int64) {
	for _, poiID := range poiIDs {
		if _, ok := m.state.pois[poiID]; !ok {
			m.addPOI(poiID, fmt.Sprintf("poi-%d", poiID))
		}
	}
	m.state.customs[id] = model.CustomCircuit{
		BaseModel:    model.BaseModel{ID: id},
		Name:         fmt.Sprintf("custom-%d", id),
		SelectedPOIs: append(model.POIIDList(nil), poiIDs...),
		UserID:       userID,
	}
}

func (m *memStore) route(id int64) model.Route {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.routes[id]
}

func (m *memStore) albumCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.albums)
}

func (m *memStore) totalPoints(userID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.points[userID]
}

func (m *memStore) removalCount(routeID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.state.removed {
		if r.RouteID == routeID {
			n++
		}
	}
	return n
}

// ---- RouteRepo ----

func (m *memStore) CreateRoute(ctx context.Context, route *model.Route) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	route.ID = m.id()
	route.CreatedAt = m.tick()
	route.UpdatedAt = route.CreatedAt
	m.state.routes[route.ID] = *route
	return nil
}

func (m *memStore) LockRoute(ctx context.Context, routeID, userID int64) (*model.Route, error) {
	return m.GetRoute(ctx, routeID, userID)
}

func (m *memStore) GetRoute(ctx context.Context, routeID, userID int64) (*model.Route, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.state.routes[routeID]
	if !ok || r.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return &r, nil
}

func (m *memStore) SaveCompletion(ctx context.Context, route *model.Route) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.state.routes[route.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	r.IsCompleted = route.IsCompleted
	r.CompletedAt = route.CompletedAt
	m.state.routes[route.ID] = r
	return nil
}

func (m *memStore) ListCompletedRoutes(ctx context.Context, userID int64) ([]model.Route, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Route
	for _, r := range m.state.routes {
		if r.UserID == userID && r.IsCompleted {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memStore) AppendVisitedTrace(ctx context.Context, trace *model.VisitedTrace) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	trace.ID = m.id()
	trace.CreatedAt = m.tick()
	m.state.visited = append(m.state.visited, *trace)
	return nil
}

func (m *memStore) ListVisitedTraces(ctx context.Context, routeID int64) ([]model.VisitedTrace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.VisitedTrace
	for _, t := range m.state.visited {
		if t.RouteID == routeID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memStore) VisitedPOIIDs(ctx context.Context, routeID int64) ([]int64, error) {
	traces, _ := m.ListVisitedTraces(ctx, routeID)
	var ids []int64
	for id := range VisitedSet(traces) {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *memStore) FindRemoval(ctx context.Context, routeID, poiID int64) (*model.RemovedTrace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.state.removed {
		if r.RouteID == routeID && r.POIID == poiID {
			r := r
			return &r, nil
		}
	}
	return nil, nil
}

func (m *memStore) CreateRemoval(ctx context.Context, removal *model.RemovedTrace) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.state.removed {
		if r.RouteID == removal.RouteID && r.POIID == removal.POIID {
			return fmt.Errorf("duplicate removal for route %d poi %d", r.RouteID, r.POIID)
		}
	}
	removal.ID = m.id()
	removal.CreatedAt = m.tick()
	m.state.removed = append(m.state.removed, *removal)
	return nil
}

func (m *memStore) DeleteRemoval(ctx context.Context, removalID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.state.removed[:0:0]
	for _, r := range m.state.removed {
		if r.ID != removalID {
			kept = append(kept, r)
		}
	}
	m.state.removed = kept
	return nil
}

func (m *memStore) ListRemovals(ctx context.Context, routeID int64) ([]model.RemovedTrace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.RemovedTrace
	for _, r := range m.state.removed {
		if r.RouteID == routeID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) VisitedPOICounts(ctx context.Context, routeIDs []int64) (map[int64]int, error) {
	counts := make(map[int64]int, len(routeIDs))
	for _, id := range routeIDs {
		ids, _ := m.VisitedPOIIDs(ctx, id)
		if len(ids) > 0 {
			counts[id] = len(ids)
		}
	}
	return counts, nil
}

func (m *memStore) RemovalCounts(ctx context.Context, routeIDs []int64) (map[int64]int, error) {
	counts := make(map[int64]int, len(routeIDs))
	for _, id := range routeIDs {
		if n := m.removalCount(id); n > 0 {
			counts[id] = n
		}
	}
	return counts, nil
}

// ---- CircuitSource ----

func (m *memStore) FindCircuit(ctx context.Context, circuitID int64) (*model.Circuit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.state.circuits[circuitID]
	if !ok || c.IsDeleted {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (m *memStore) OriginalPOIIDs(ctx context.Context, target model.RouteTarget) ([]int64, error) {
	switch target.Kind {
	case model.TargetFixed:
		// 与 Unscoped 查询一致，已删除线路仍可读
		m.mu.Lock()
		_, ok := m.state.circuits[target.ID]
		m.mu.Unlock()
		if !ok {
			return nil, gorm.ErrRecordNotFound
		}
		return m.liveCircuitPOIs(target.ID), nil
	case model.TargetCustom:
		m.mu.Lock()
		defer m.mu.Unlock()
		cc, ok := m.state.customs[target.ID]
		if !ok {
			return nil, gorm.ErrRecordNotFound
		}
		return append([]int64(nil), cc.SelectedPOIs...), nil
	case model.TargetPOI:
		return []int64{target.ID}, nil
	}
	return nil, fmt.Errorf("unknown target kind %q", target.Kind)
}

func (m *memStore) IsPOIMember(ctx context.Context, target model.RouteTarget, poiID int64) (bool, error) {
	switch target.Kind {
	case model.TargetFixed:
		return model.POIIDList(m.liveCircuitPOIs(target.ID)).Contains(poiID), nil
	case model.TargetCustom:
		ids, err := m.OriginalPOIIDs(ctx, target)
		if err != nil {
			return false, err
		}
		return model.POIIDList(ids).Contains(poiID), nil
	case model.TargetPOI:
		return target.ID == poiID, nil
	}
	return false, fmt.Errorf("unknown target kind %q", target.Kind)
}

func (m *memStore) liveCircuitPOIs(circuitID int64) []int64 {
	links, _ := m.CircuitPOIs(context.Background(), circuitID)
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []int64
	for _, l := range links {
		if p, ok := m.state.pois[l.POIID]; ok && !p.IsDeleted {
			ids = append(ids, l.POIID)
		}
	}
	return ids
}

func (m *memStore) CircuitPOIs(ctx context.Context, circuitID int64) ([]model.CircuitPOI, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var links []model.CircuitPOI
	for _, l := range m.state.circuitPOIs {
		if l.CircuitID == circuitID {
			links = append(links, l)
		}
	}
	sort.SliceStable(links, func(i, j int) bool { return links[i].Order < links[j].Order })
	return links, nil
}

func (m *memStore) FindPOIs(ctx context.Context, poiIDs []int64) ([]model.POI, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.POI
	for _, id := range poiIDs {
		if p, ok := m.state.pois[id]; ok && !p.IsDeleted {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) CoverImages(ctx context.Context, poiIDs []int64) (map[int64]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := NewPOISet(poiIDs...)
	images := make(map[int64]string)
	for _, f := range m.state.files {
		if f.Type != model.POIFileImage || !want.Has(f.POIID) {
			continue
		}
		if _, ok := images[f.POIID]; !ok {
			images[f.POIID] = f.FileURL
		}
	}
	return images, nil
}

func (m *memStore) CountCircuitPOIs(ctx context.Context, circuitIDs []int64) (map[int64]int, error) {
	counts := make(map[int64]int, len(circuitIDs))
	for _, id := range circuitIDs {
		links, _ := m.CircuitPOIs(ctx, id)
		counts[id] = len(links)
	}
	return counts, nil
}

func (m *memStore) FindCircuitsByIDs(ctx context.Context, circuitIDs []int64) ([]model.Circuit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Circuit
	for _, id := range circuitIDs {
		if c, ok := m.state.circuits[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// ---- CustomCircuitRepo ----

func (m *memStore) FindCustomCircuit(ctx context.Context, id int64) (*model.CustomCircuit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cc, ok := m.state.customs[id]
	if !ok || cc.IsDeleted {
		return nil, gorm.ErrRecordNotFound
	}
	return &cc, nil
}

func (m *memStore) LockCustomCircuit(ctx context.Context, id int64) (*model.CustomCircuit, error) {
	return m.FindCustomCircuit(ctx, id)
}

func (m *memStore) FindOwnedCustomCircuit(ctx context.Context, id, userID int64) (*model.CustomCircuit, error) {
	cc, err := m.FindCustomCircuit(ctx, id)
	if err != nil {
		return nil, err
	}
	if cc.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return cc, nil
}

func (m *memStore) ListCustomCircuits(ctx context.Context, userID int64) ([]model.CustomCircuit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.CustomCircuit
	for _, cc := range m.state.customs {
		if cc.UserID == userID && !cc.IsDeleted {
			out = append(out, cc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memStore) CreateCustomCircuit(ctx context.Context, cc *model.CustomCircuit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cc.ID = m.id()
	cc.CreatedAt = m.tick()
	cc.UpdatedAt = cc.CreatedAt
	m.state.customs[cc.ID] = *cc
	return nil
}

func (m *memStore) SaveCustomCircuit(ctx context.Context, cc *model.CustomCircuit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cc.UpdatedAt = m.tick()
	m.state.customs[cc.ID] = *cc
	return nil
}

func (m *memStore) UpdateSelectedPOIs(ctx context.Context, id int64, ids model.POIIDList) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cc, ok := m.state.customs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	cc.SelectedPOIs = append(model.POIIDList(nil), ids...)
	m.state.customs[id] = cc
	return nil
}

func (m *memStore) SoftDeleteCustomCircuit(ctx context.Context, id, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cc, ok := m.state.customs[id]
	if !ok || cc.UserID != userID || cc.IsDeleted {
		return gorm.ErrRecordNotFound
	}
	cc.IsDeleted = true
	m.state.customs[id] = cc
	return nil
}

func (m *memStore) FindCustomCircuitsByIDs(ctx context.Context, ids []int64) ([]model.CustomCircuit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.CustomCircuit
	for _, id := range ids {
		if cc, ok := m.state.customs[id]; ok {
			out = append(out, cc)
		}
	}
	return out, nil
}

func (m *memStore) CountExistingPOIs(ctx context.Context, ids []int64) (int64, error) {
	pois, _ := m.FindPOIs(ctx, ids)
	return int64(len(pois)), nil
}

// ---- AlbumRepo ----

func (m *memStore) CreateAlbum(ctx context.Context, album *model.Album) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.albumErr != nil {
		return m.albumErr
	}
	album.ID = m.id()
	album.CreatedAt = m.tick()
	m.state.albums = append(m.state.albums, *album)
	return nil
}

func (m *memStore) AlbumFiles(ctx context.Context, poiIDs []int64) ([]model.POIFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := NewPOISet(poiIDs...)
	var out []model.POIFile
	for _, f := range m.state.files {
		if f.Type == model.POIFileImageAlbum && want.Has(f.POIID) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *memStore) AttachFiles(ctx context.Context, items []model.AlbumPOI) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range items {
		it.ID = m.id()
		m.state.albumPOIs = append(m.state.albumPOIs, it)
	}
	return nil
}

// ---- PointsRepo ----

func (m *memStore) Award(ctx context.Context, award *model.PointAward) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pointsErr != nil {
		return 0, false, m.pointsErr
	}
	if _, ok := m.state.awards[award.SourceKey]; ok {
		return m.state.points[award.UserID], false, nil
	}
	award.ID = m.id()
	m.state.awards[award.SourceKey] = *award
	m.state.points[award.UserID] += award.Points
	return m.state.points[award.UserID], true, nil
}

func (m *memStore) Credit(ctx context.Context, userID int64, points int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pointsErr != nil {
		return 0, m.pointsErr
	}
	m.state.points[userID] += points
	return m.state.points[userID], nil
}

var _ repository.Store = (*memStore)(nil)
