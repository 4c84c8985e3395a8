package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/horario-api/internal/dto"
	"github.com/noah-isme/horario-api/internal/models"
	appErrors "github.com/noah-isme/horario-api/pkg/errors"
)

type stubCareers struct{}

func (stubCareers) FindCareer(ctx context.Context, ref string) (*models.Career, error) {
	switch strings.ToUpper(ref) {
	case "CS", "CAREER-CS":
		return &models.Career{ID: "career-cs", Code: "CS", Name: "Computer Science"}, nil
	case "BIO", "CAREER-BIO":
		return &models.Career{ID: "career-bio", Code: "BIO", Name: "Biology"}, nil
	}
	return nil, sql.ErrNoRows
}

type memCache struct {
	mu    sync.Mutex
	items map[string][]byte
	sets  int
}

func newMemCache() *memCache { return &memCache{items: make(map[string][]byte)} }

func (m *memCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = raw
	m.sets++
	return nil
}

func (m *memCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.items {
		if strings.HasPrefix(key, prefix) {
			delete(m.items, key)
		}
	}
	return nil
}

func (c *campus) gridService(cache *CacheService) *GridService {
	return NewGridService(c.blocks, stubCareers{}, c.terms, c.index, cache, nil, nil, c.cfg)
}

func TestLayerOpacity(t *testing.T) {
	assert.InDelta(t, 0.6, LayerOpacity(1), 1e-9)
	assert.InDelta(t, 0.4, LayerOpacity(2), 1e-9)
	assert.InDelta(t, 0.2, LayerOpacity(3), 1e-9)
	assert.InDelta(t, 0.2, LayerOpacity(7), 1e-9)
}

func TestGridServiceLayersPriorSemesters(t *testing.T) {
	c := newCampus()
	placements := c.placementService()
	assign(t, placements, "sec-phys", "B202", "Monday", "A", "")
	assign(t, placements, "sec-math", "A101", "Monday", "A", "")
	assign(t, placements, "sec-chem", "C303", "Monday", "A", "")
	assign(t, placements, "sec-math", "A101", "Tuesday", "A", "")

	grid, err := c.gridService(nil).LayeredGrid(context.Background(), dto.GridQuery{Career: "CS", Semester: 2})
	require.NoError(t, err)

	assert.Equal(t, "term-1", grid.TermID)
	assert.Equal(t, 2, grid.Depth)
	assert.Equal(t, []string{"A", "B"}, grid.Blocks)
	require.Len(t, grid.Cells, 3)

	monA := grid.Cells[0]
	assert.Equal(t, models.Monday, monA.Day)
	assert.Equal(t, "A", monA.Block)
	assert.Equal(t, "08:15", monA.StartTime)
	require.Len(t, monA.Current, 1)
	assert.Equal(t, "PHYS101-C1", monA.Current[0].SectionLabel())
	require.Len(t, monA.Layers, 1)
	assert.Equal(t, 1, monA.Layers[0].Depth)
	assert.Equal(t, 1, monA.Layers[0].Semester)
	assert.Equal(t, "Semestre 1 (-1)", monA.Layers[0].Label)
	assert.InDelta(t, 0.6, monA.Layers[0].Opacity, 1e-9)
	assert.Equal(t, "MATH101-C1", monA.Layers[0].Placements[0].SectionLabel())

	monB := grid.Cells[1]
	assert.Equal(t, "B", monB.Block)
	assert.NotNil(t, monB.Current)
	assert.Empty(t, monB.Current)
	assert.Empty(t, monB.Layers)

	tueA := grid.Cells[2]
	assert.Equal(t, models.Tuesday, tueA.Day)
	assert.Empty(t, tueA.Current)
	require.Len(t, tueA.Layers, 1)
}

func TestGridServiceDepth(t *testing.T) {
	c := newCampus()
	placements := c.placementService()
	assign(t, placements, "sec-math", "A101", "Monday", "A", "")
	svc := c.gridService(nil)
	ctx := context.Background()

	zero := 0
	grid, err := svc.LayeredGrid(ctx, dto.GridQuery{Career: "CS", Semester: 2, Depth: &zero})
	require.NoError(t, err)
	assert.Equal(t, 0, grid.Depth)
	assert.Empty(t, grid.Cells[0].Layers)

	deep := 9
	grid, err = svc.LayeredGrid(ctx, dto.GridQuery{Career: "CS", Semester: 2, Depth: &deep})
	require.NoError(t, err)
	assert.Equal(t, 2, grid.Depth)

	// semester 1 has nothing underneath it
	grid, err = svc.LayeredGrid(ctx, dto.GridQuery{Career: "CS", Semester: 1})
	require.NoError(t, err)
	require.Len(t, grid.Cells[0].Current, 1)
	assert.Empty(t, grid.Cells[0].Layers)
}

func TestGridServiceErrors(t *testing.T) {
	svc := newCampus().gridService(nil)
	ctx := context.Background()

	_, err := svc.LayeredGrid(ctx, dto.GridQuery{Career: "LAW", Semester: 1})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = svc.LayeredGrid(ctx, dto.GridQuery{Career: "CS", Semester: 1, TermID: "term-9"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = svc.LayeredGrid(ctx, dto.GridQuery{Career: "CS"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func (c *campus) cachedPlacementService(cache *CacheService) *PlacementService {
	return NewPlacementService(PlacementServiceParams{
		Placements:  c.placements,
		Sections:    c.sections,
		Courses:     c.courses,
		Rooms:       c.rooms,
		TimeBlocks:  c.blocks,
		Instructors: c.instructors,
		Terms:       c.terms,
		Index:       c.index,
		Tx:          c.tx,
		Cache:       cache,
		Config:      c.cfg,
	})
}

func TestGridServiceCachesUntilTermChanges(t *testing.T) {
	c := newCampus()
	store := newMemCache()
	cache := NewCacheService(store, nil, time.Minute, nil, true)
	placements := c.cachedPlacementService(cache)
	svc := c.gridService(cache)
	ctx := context.Background()
	query := dto.GridQuery{Career: "CS", Semester: 1}

	grid, err := svc.LayeredGrid(ctx, query)
	require.NoError(t, err)
	assert.Empty(t, grid.Cells[0].Current)
	assert.Equal(t, 1, store.sets)

	_, err = svc.LayeredGrid(ctx, query)
	require.NoError(t, err)
	assert.Equal(t, 1, store.sets)

	// a placement write drops the term's entries
	assign(t, placements, "sec-math", "A101", "Monday", "B", "")
	assert.Empty(t, store.items)
	grid, err = svc.LayeredGrid(ctx, query)
	require.NoError(t, err)
	assert.Empty(t, grid.Cells[0].Current)
	assert.Len(t, grid.Cells[1].Current, 1)
	assert.Equal(t, 2, store.sets)

	// an index write that skipped invalidation still moves readers to a new key
	c.index.Add(models.PlacementDetail{
		Placement:      models.Placement{ID: "ghost", TermID: "term-1", TimeBlockID: "mon-a", RoomID: "room-v1", SectionID: "sec-math"},
		CareerID:       "career-cs",
		SemesterNumber: 1,
	})
	grid, err = svc.LayeredGrid(ctx, query)
	require.NoError(t, err)
	assert.Len(t, grid.Cells[0].Current, 1)
	assert.Equal(t, 3, store.sets)
}

// slowFillCache runs beforeSet once, just before the first entry is stored.
type slowFillCache struct {
	*memCache
	beforeSet func()
}

func (s *slowFillCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if fn := s.beforeSet; fn != nil {
		s.beforeSet = nil
		fn()
	}
	return s.memCache.Set(ctx, key, value, ttl)
}

func TestGridServiceWriteDuringBuildIsNotHiddenByCache(t *testing.T) {
	c := newCampus()
	store := &slowFillCache{memCache: newMemCache()}
	cache := NewCacheService(store, nil, time.Minute, nil, true)
	placements := c.cachedPlacementService(cache)
	svc := c.gridService(cache)
	ctx := context.Background()
	query := dto.GridQuery{Career: "CS", Semester: 1}

	// the reader has built its grid; the writer adds and invalidates before the fill lands
	store.beforeSet = func() {
		assign(t, placements, "sec-math", "A101", "Monday", "A", "")
	}
	grid, err := svc.LayeredGrid(ctx, query)
	require.NoError(t, err)
	assert.Empty(t, grid.Cells[0].Current)
	assert.Len(t, store.items, 1)

	grid, err = svc.LayeredGrid(ctx, query)
	require.NoError(t, err)
	require.Len(t, grid.Cells[0].Current, 1)
	assert.Equal(t, "MATH101-C1", grid.Cells[0].Current[0].SectionLabel())
	assert.Equal(t, 2, store.sets)
}
