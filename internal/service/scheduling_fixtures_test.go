package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/horario-api/internal/models"
	"github.com/noah-isme/horario-api/internal/repository"
	"github.com/noah-isme/horario-api/pkg/config"
	appErrors "github.com/noah-isme/horario-api/pkg/errors"
)

type fakeTx struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeTx) WithinTx(ctx context.Context, fn func(exec sqlx.ExtContext) error) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return fn(nil)
}

type stubTerms struct {
	current string
	items   map[string]*models.Term
}

func (s *stubTerms) Resolve(ctx context.Context, id string) (*models.Term, error) {
	if id == "" {
		id = s.current
	}
	term, ok := s.items[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
	}
	cp := *term
	return &cp, nil
}

type memSections struct {
	mu          sync.Mutex
	items       map[string]*models.SectionDetail
	instructors *memInstructors
	createErr   error
	seq         int
}

func (m *memSections) FindByID(ctx context.Context, id string) (*models.SectionDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sec, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *sec
	return &cp, nil
}

func (m *memSections) SetInstructor(ctx context.Context, exec sqlx.ExtContext, id string, instructorID *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sec, ok := m.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	sec.InstructorID, sec.InstructorRUT, sec.InstructorName = nil, nil, nil
	if instructorID != nil {
		inst, err := m.instructors.FindByID(ctx, *instructorID)
		if err != nil {
			return err
		}
		sec.InstructorID, sec.InstructorRUT, sec.InstructorName = &inst.ID, &inst.RUT, &inst.Name
	}
	return nil
}

func (m *memSections) FindByCourseName(ctx context.Context, courseID, name string) (*models.SectionDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sec := range m.items {
		if sec.CourseID == courseID && strings.EqualFold(sec.Name, name) {
			cp := *sec
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memSections) ListByCourse(ctx context.Context, courseID string) ([]models.SectionDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.SectionDetail
	for _, sec := range m.items {
		if sec.CourseID == courseID {
			out = append(out, *sec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memSections) ListByCourseType(ctx context.Context, exec sqlx.ExtContext, courseID, sectionTypeID string) ([]models.Section, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Section
	for _, sec := range m.items {
		if sec.CourseID == courseID && sec.SectionTypeID == sectionTypeID {
			out = append(out, sec.Section)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memSections) Create(ctx context.Context, exec sqlx.ExtContext, section *models.Section) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, sec := range m.items {
		if sec.CourseID == section.CourseID && sec.SectionTypeID == section.SectionTypeID && strings.EqualFold(sec.Name, section.Name) {
			return fmt.Errorf("duplicate section %s", section.Name)
		}
	}
	m.seq++
	section.ID = fmt.Sprintf("sec-new-%d", m.seq)
	section.CreatedAt = time.Now()
	m.items[section.ID] = &models.SectionDetail{Section: *section}
	return nil
}

func (m *memSections) UpdateCapacity(ctx context.Context, exec sqlx.ExtContext, id string, capacity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sec, ok := m.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	sec.EstimatedCapacity = capacity
	return nil
}

func (m *memSections) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.items, id)
	return nil
}

type catalogCourse struct {
	models.Course
	careerID   string
	careerCode string
	semester   int
}

type memCourses struct {
	items []catalogCourse
}

func (m *memCourses) FindCoursesByCode(ctx context.Context, code, career string, semester int) ([]models.Course, error) {
	matches := make([]catalogCourse, 0, len(m.items))
	for _, c := range m.items {
		if !strings.EqualFold(c.Code, code) {
			continue
		}
		if career != "" && career != c.careerID && career != c.careerCode {
			continue
		}
		if semester > 0 && semester != c.semester {
			continue
		}
		matches = append(matches, c)
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].careerCode != matches[j].careerCode {
			return matches[i].careerCode < matches[j].careerCode
		}
		return matches[i].semester < matches[j].semester
	})
	out := make([]models.Course, 0, len(matches))
	for _, c := range matches {
		out = append(out, c.Course)
	}
	return out, nil
}

type memRooms struct {
	items []models.Room
}

func (m *memRooms) FindByName(ctx context.Context, name string) (*models.Room, error) {
	for _, room := range m.items {
		if strings.EqualFold(room.Name, name) {
			cp := room
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memRooms) ListBySite(ctx context.Context, site string) ([]models.Room, error) {
	var out []models.Room
	for _, room := range m.items {
		if site == "" || room.Site == site {
			out = append(out, room)
		}
	}
	return out, nil
}

type memBlocks struct {
	items []models.TimeBlock
}

func (m *memBlocks) FindByDayName(ctx context.Context, day models.Day, name string) (*models.TimeBlock, error) {
	for _, block := range m.items {
		if block.Day == day && strings.EqualFold(block.Name, name) {
			cp := block
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memBlocks) List(ctx context.Context) ([]models.TimeBlock, error) {
	return append([]models.TimeBlock(nil), m.items...), nil
}

type memInstructors struct {
	items []models.Instructor
}

func (m *memInstructors) FindByID(ctx context.Context, id string) (*models.Instructor, error) {
	for _, inst := range m.items {
		if inst.ID == id {
			cp := inst
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memInstructors) FindByRUT(ctx context.Context, rut string) (*models.Instructor, error) {
	for _, inst := range m.items {
		if inst.RUT == rut {
			cp := inst
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memInstructors) List(ctx context.Context) ([]models.Instructor, error) {
	return append([]models.Instructor(nil), m.items...), nil
}

type memPlacements struct {
	mu        sync.Mutex
	items     map[string]models.Placement
	details   []models.PlacementDetail
	createErr error
	seq       int
}

func newMemPlacements() *memPlacements {
	return &memPlacements{items: make(map[string]models.Placement)}
}

func (m *memPlacements) ListDetails(ctx context.Context, termID string) ([]models.PlacementDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.PlacementDetail(nil), m.details...), nil
}

func (m *memPlacements) FindByCell(ctx context.Context, termID, timeBlockID, roomID string) (*models.PlacementDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.details {
		if p.TermID == termID && p.TimeBlockID == timeBlockID && p.RoomID == roomID {
			cp := p
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memPlacements) Create(ctx context.Context, exec sqlx.ExtContext, placement *models.Placement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, p := range m.items {
		if p.TermID == placement.TermID && p.TimeBlockID == placement.TimeBlockID && p.RoomID == placement.RoomID {
			return fmt.Errorf("room slot taken")
		}
	}
	m.seq++
	placement.ID = fmt.Sprintf("pl-%d", m.seq)
	m.items[placement.ID] = *placement
	return nil
}

func (m *memPlacements) UpdateRoom(ctx context.Context, exec sqlx.ExtContext, id, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	p.RoomID = roomID
	m.items[id] = p
	return nil
}

func (m *memPlacements) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.items, id)
	return nil
}

func (m *memPlacements) DeleteByTerm(ctx context.Context, exec sqlx.ExtContext, termID string) (int64, error) {
	return m.deleteWhere(func(p models.Placement) bool { return p.TermID == termID }), nil
}

func (m *memPlacements) DeleteBySection(ctx context.Context, exec sqlx.ExtContext, sectionID string) (int64, error) {
	return m.deleteWhere(func(p models.Placement) bool { return p.SectionID == sectionID }), nil
}

func (m *memPlacements) CountBySection(ctx context.Context, sectionID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.items {
		if p.SectionID == sectionID {
			n++
		}
	}
	return n, nil
}

func (m *memPlacements) deleteWhere(match func(models.Placement) bool) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, p := range m.items {
		if match(p) {
			delete(m.items, id)
			n++
		}
	}
	return n
}

func (m *memPlacements) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

// campus is a small university: two careers, three blocks, four rooms and a handful of instructors.
type campus struct {
	terms       *stubTerms
	sections    *memSections
	courses     *memCourses
	rooms       *memRooms
	blocks      *memBlocks
	instructors *memInstructors
	placements  *memPlacements
	index       *repository.PlacementIndex
	tx          *fakeTx
	cfg         config.SchedulerConfig
}

func newCampus() *campus {
	at := func(h, m int) time.Time { return time.Date(0, 1, 1, h, m, 0, 0, time.UTC) }

	instructors := &memInstructors{items: []models.Instructor{
		{ID: "inst-ana", RUT: "11111111-1", Name: "Ana Rojas", IsAvailable: true, MaxSectionsPerWeek: 10,
			CourseOffer: []string{"MATH101", "PHYS101"}, Availability: []string{"MONDAY-A", "MONDAY-B"}},
		{ID: "inst-bruno", RUT: "22222222-2", Name: "Bruno Diaz", IsAvailable: true, MaxSectionsPerWeek: 2,
			CourseOffer: []string{"MATH101", "CHEM201"}},
		{ID: "inst-carla", RUT: "33333333-3", Name: "Carla Soto", IsAvailable: false,
			CourseOffer: []string{"MATH101"}},
		{ID: "inst-na", RUT: "N/A", Name: "N/A", IsAvailable: true, CourseOffer: []string{"MATH101"}},
	}}

	section := func(id, courseID, code, name, careerID, careerCode string, semester, capacity int, instructor string) *models.SectionDetail {
		sec := &models.SectionDetail{
			Section: models.Section{
				ID: id, CourseID: courseID, SectionTypeID: "type-catedra", Name: name, EstimatedCapacity: capacity,
			},
			CourseCode:      code,
			SectionTypeName: "Catedra",
			CareerID:        careerID,
			CareerCode:      careerCode,
			SemesterNumber:  semester,
		}
		if instructor != "" {
			for _, inst := range instructors.items {
				if inst.ID == instructor {
					inst := inst
					sec.InstructorID, sec.InstructorRUT, sec.InstructorName = &inst.ID, &inst.RUT, &inst.Name
				}
			}
		}
		return sec
	}

	return &campus{
		terms: &stubTerms{current: "term-1", items: map[string]*models.Term{
			"term-1": {ID: "term-1", Name: "1° Semestre 2025", BannerCode: "2025-1"},
			"term-2": {ID: "term-2", Name: "2° Semestre 2025", BannerCode: "2025-2"},
		}},
		sections: &memSections{instructors: instructors, items: map[string]*models.SectionDetail{
			"sec-math":     section("sec-math", "course-math", "MATH101", "C1", "career-cs", "CS", 1, 35, ""),
			"sec-phys":     section("sec-phys", "course-phys", "PHYS101", "C1", "career-cs", "CS", 2, 30, ""),
			"sec-math-ana": section("sec-math-ana", "course-math", "MATH101", "C2", "career-cs", "CS", 1, 30, "inst-ana"),
			"sec-phys-ana": section("sec-phys-ana", "course-phys", "PHYS101", "C2", "career-cs", "CS", 2, 20, "inst-ana"),
			"sec-chem":     section("sec-chem", "course-chem", "CHEM201", "C1", "career-bio", "BIO", 3, 25, "inst-bruno"),
			"sec-na-1":     section("sec-na-1", "course-math", "MATH101", "C3", "career-cs", "CS", 1, 10, "inst-na"),
			"sec-na-2":     section("sec-na-2", "course-phys", "PHYS101", "C3", "career-cs", "CS", 2, 10, "inst-na"),
		}},
		courses: &memCourses{items: []catalogCourse{
			{Course: models.Course{ID: "course-math", Code: "MATH101", Name: "Calculus I"}, careerID: "career-cs", careerCode: "CS", semester: 1},
			{Course: models.Course{ID: "course-math-bio", Code: "MATH101", Name: "Calculus I"}, careerID: "career-bio", careerCode: "BIO", semester: 1},
			{Course: models.Course{ID: "course-phys", Code: "PHYS101", Name: "Physics I"}, careerID: "career-cs", careerCode: "CS", semester: 2},
			{Course: models.Course{ID: "course-chem", Code: "CHEM201", Name: "Chemistry II"}, careerID: "career-bio", careerCode: "BIO", semester: 3},
		}},
		rooms: &memRooms{items: []models.Room{
			{ID: "room-a101", Name: "A101", Capacity: intPtr(40), Site: "Casa Central"},
			{ID: "room-b202", Name: "B202", Capacity: intPtr(40), Site: "Casa Central"},
			{ID: "room-c303", Name: "C303", Capacity: intPtr(20), Site: "Casa Central"},
			{ID: "room-v1", Name: "V1", Capacity: intPtr(60), Site: "Vitacura"},
		}},
		blocks: &memBlocks{items: []models.TimeBlock{
			{ID: "mon-a", Name: "A", Day: models.Monday, StartTime: at(8, 15), EndTime: at(9, 25)},
			{ID: "mon-b", Name: "B", Day: models.Monday, StartTime: at(9, 35), EndTime: at(10, 45)},
			{ID: "tue-a", Name: "A", Day: models.Tuesday, StartTime: at(8, 15), EndTime: at(9, 25)},
		}},
		instructors: instructors,
		placements:  newMemPlacements(),
		index:       repository.NewPlacementIndex(),
		tx:          &fakeTx{},
		cfg: config.SchedulerConfig{
			LookbackMax:           2,
			DefaultSite:           "Casa Central",
			DefaultSectionType:    "Catedra",
			UnassignedInstructors: []string{"N/A", "Varios"},
			CapacityWarnRatio:     1,
			LoadWarnRatio:         0.8,
			InstructorScope:       config.ScopeGlobal,
		},
	}
}

func (c *campus) placementService() *PlacementService {
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
		Config:      c.cfg,
	})
}

func (c *campus) availabilityService(rules InstructorRule) *AvailabilityService {
	return NewAvailabilityService(c.rooms, c.instructors, c.blocks, c.terms, c.index, rules, nil, nil, c.cfg)
}
