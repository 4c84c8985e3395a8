package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/horario-api/internal/dto"
	"github.com/noah-isme/horario-api/internal/models"
	appErrors "github.com/noah-isme/horario-api/pkg/errors"
)

type placementServiceMock struct {
	outcome      models.PlacementOutcome
	err          error
	lastAssign   dto.AssignRequest
	lastByCourse dto.AssignByCourseRequest
	lastUnassign dto.UnassignRequest
	clearedTerm  *string
	listedRoom   [2]string
	placements   []models.PlacementDetail
}

func (m *placementServiceMock) Assign(ctx context.Context, req dto.AssignRequest) (models.PlacementOutcome, error) {
	m.lastAssign = req
	return m.outcome, m.err
}

func (m *placementServiceMock) AssignByCourse(ctx context.Context, req dto.AssignByCourseRequest) (models.PlacementOutcome, error) {
	m.lastByCourse = req
	return m.outcome, m.err
}

func (m *placementServiceMock) Unassign(ctx context.Context, req dto.UnassignRequest) error {
	m.lastUnassign = req
	return m.err
}

func (m *placementServiceMock) MoveRoom(ctx context.Context, req dto.MoveRoomRequest) (models.PlacementOutcome, error) {
	return m.outcome, m.err
}

func (m *placementServiceMock) ReassignInstructor(ctx context.Context, req dto.ReassignInstructorRequest) (models.PlacementOutcome, error) {
	return m.outcome, m.err
}

func (m *placementServiceMock) ClearTerm(ctx context.Context, termID string) (*models.ClearResult, error) {
	m.clearedTerm = &termID
	return &models.ClearResult{DeletedCount: 5, TermID: "term-1"}, m.err
}

func (m *placementServiceMock) ListTerm(ctx context.Context, termID string) ([]models.PlacementDetail, error) {
	return m.placements, m.err
}

func (m *placementServiceMock) ListRoom(ctx context.Context, roomName, termID string) ([]models.PlacementDetail, error) {
	m.listedRoom = [2]string{roomName, termID}
	return m.placements, m.err
}

type sectionServiceMock struct {
	cascade  *bool
	removed  int
	err      error
	generate dto.GenerateSectionsRequest
}

func (m *sectionServiceMock) Create(ctx context.Context, req dto.CreateSectionRequest) (*models.Section, error) {
	return &models.Section{ID: "sec-new", CourseID: req.CourseID, Name: "C4"}, m.err
}

func (m *sectionServiceMock) Delete(ctx context.Context, id string, cascade bool) (int, error) {
	m.cascade = &cascade
	return m.removed, m.err
}

func (m *sectionServiceMock) GenerateFromDemand(ctx context.Context, req dto.GenerateSectionsRequest) ([]models.Section, error) {
	m.generate = req
	return []models.Section{{ID: "s1", Name: "C1"}}, m.err
}

func (m *sectionServiceMock) ListByCourse(ctx context.Context, courseID string) ([]models.SectionDetail, error) {
	return nil, m.err
}

type availabilityServiceMock struct {
	rooms     []models.Room
	lastRooms dto.AvailableRoomsQuery
}

func (m *availabilityServiceMock) AvailableRooms(ctx context.Context, q dto.AvailableRoomsQuery) ([]models.Room, error) {
	m.lastRooms = q
	return m.rooms, nil
}

func (m *availabilityServiceMock) AvailableInstructors(ctx context.Context, q dto.AvailableInstructorsQuery) ([]models.Instructor, error) {
	return nil, appErrors.Clone(appErrors.ErrValidation, "course is required")
}

type gridServiceMock struct {
	last dto.GridQuery
}

func (m *gridServiceMock) LayeredGrid(ctx context.Context, q dto.GridQuery) (*models.Grid, error) {
	m.last = q
	return &models.Grid{CareerID: q.Career, Semester: q.Semester}, nil
}

type termServiceMock struct{}

func (termServiceMock) Current(ctx context.Context) (*models.Term, error) {
	return &models.Term{ID: "term-1", BannerCode: "2025-1"}, nil
}

func (termServiceMock) List(ctx context.Context) ([]models.Term, error) {
	return []models.Term{{ID: "term-1"}}, nil
}

type handlerFixture struct {
	router       *gin.Engine
	placements   *placementServiceMock
	sections     *sectionServiceMock
	availability *availabilityServiceMock
	grid         *gridServiceMock
}

func newHandlerFixture() *handlerFixture {
	gin.SetMode(gin.TestMode)
	f := &handlerFixture{
		router:       gin.New(),
		placements:   &placementServiceMock{},
		sections:     &sectionServiceMock{},
		availability: &availabilityServiceMock{},
		grid:         &gridServiceMock{},
	}
	Handlers{
		Terms:        NewTermHandler(termServiceMock{}),
		Placements:   NewPlacementHandler(f.placements),
		Availability: NewAvailabilityHandler(f.availability),
		Sections:     NewSectionHandler(f.sections),
		Grid:         NewGridHandler(f.grid),
	}.Register(f.router.Group("/api/v1"))
	return f
}

func (f *handlerFixture) do(method, target string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Data     json.RawMessage        `json:"data"`
	Error    *appErrors.Error       `json:"error"`
	Warnings []models.Warning       `json:"warnings"`
	Meta     map[string]interface{} `json:"meta"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestAssignHandlerAccepted(t *testing.T) {
	f := newHandlerFixture()
	f.placements.outcome = models.Accepted{Placement: models.PlacementDetail{CourseCode: "MATH101", SectionName: "C1"}}

	w := f.do(http.MethodPost, "/api/v1/placements", dto.AssignRequest{SectionID: "sec-1", Room: "A101", Day: "LUNES", Block: "A"})

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "LUNES", f.placements.lastAssign.Day)
	var body dto.OutcomeResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &body))
	assert.Equal(t, models.OutcomeAccepted, body.Status)
	require.NotNil(t, body.Placement)
	assert.Equal(t, "MATH101", body.Placement.CourseCode)
}

func TestAssignHandlerWarningsTravelInEnvelope(t *testing.T) {
	f := newHandlerFixture()
	f.placements.outcome = models.AcceptedWithWarnings{
		Warnings: []models.Warning{{Kind: models.WarningCapacity, Message: "capacity 20 below 35"}},
	}

	w := f.do(http.MethodPost, "/api/v1/placements", dto.AssignRequest{SectionID: "sec-1", Room: "C303", Day: "MONDAY", Block: "A"})

	require.Equal(t, http.StatusCreated, w.Code)
	env := decode(t, w)
	require.Len(t, env.Warnings, 1)
	assert.Equal(t, models.WarningCapacity, env.Warnings[0].Kind)
}

func TestAssignHandlerRejections(t *testing.T) {
	cases := []struct {
		name     string
		outcome  models.Rejected
		status   int
		wantCode string
	}{
		{
			name:     "room",
			outcome:  models.Rejected{Conflicts: []models.Conflict{{Kind: models.ConflictRoom, Message: "A101 taken"}}},
			status:   http.StatusConflict,
			wantCode: appErrors.ErrRoomConflict.Code,
		},
		{
			name:     "instructor",
			outcome:  models.Rejected{Conflicts: []models.Conflict{{Kind: models.ConflictInstructor, Message: "busy"}}},
			status:   http.StatusConflict,
			wantCode: appErrors.ErrInstructorConflict.Code,
		},
		{
			name:     "not found",
			outcome:  models.Rejected{Conflicts: []models.Conflict{models.NotFoundConflict("room", "Z999")}},
			status:   http.StatusNotFound,
			wantCode: appErrors.ErrNotFound.Code,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newHandlerFixture()
			f.placements.outcome = tc.outcome

			w := f.do(http.MethodPost, "/api/v1/placements", dto.AssignRequest{SectionID: "sec-1", Room: "A101", Day: "MONDAY", Block: "A"})

			require.Equal(t, tc.status, w.Code)
			env := decode(t, w)
			require.NotNil(t, env.Error)
			assert.Equal(t, tc.wantCode, env.Error.Code)
			assert.Equal(t, tc.outcome.Message(), env.Error.Message)
			assert.NotNil(t, env.Error.Details)
		})
	}
}

func TestAssignHandlerMalformedBody(t *testing.T) {
	f := newHandlerFixture()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/placements", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnassignHandler(t *testing.T) {
	f := newHandlerFixture()

	w := f.do(http.MethodDelete, "/api/v1/placements?sectionId=sec-1&room=A101&day=MONDAY&block=A", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "A101", f.placements.lastUnassign.Room)

	f.placements.err = appErrors.Clone(appErrors.ErrNotFound, "placement not found")
	w = f.do(http.MethodDelete, "/api/v1/placements?sectionId=sec-1&room=A101&day=MONDAY&block=A", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestMoveRoomHandlerRejectedIsConflict(t *testing.T) {
	f := newHandlerFixture()
	f.placements.outcome = models.Rejected{Conflicts: []models.Conflict{{Kind: models.ConflictRoom, Message: "B202 taken"}}}

	w := f.do(http.MethodPut, "/api/v1/placements/room", dto.MoveRoomRequest{SectionID: "sec-1", Day: "MONDAY", Block: "A", FromRoom: "A101", ToRoom: "B202"})

	require.Equal(t, http.StatusConflict, w.Code)
}

func TestReassignInstructorHandlerWarningsStayOK(t *testing.T) {
	f := newHandlerFixture()
	f.placements.outcome = models.AcceptedWithWarnings{Warnings: []models.Warning{{Kind: models.WarningWindow}}}

	w := f.do(http.MethodPut, "/api/v1/placements/instructor", dto.ReassignInstructorRequest{SectionID: "sec-1", Day: "MONDAY", Block: "A", Room: "A101", Instructor: "11111111-1"})

	require.Equal(t, http.StatusOK, w.Code)
	var body dto.OutcomeResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &body))
	assert.Equal(t, models.OutcomeAcceptedWithWarnings, body.Status)
	assert.Len(t, body.Warnings, 1)
}

func TestClearTermHandlerMapsCurrent(t *testing.T) {
	f := newHandlerFixture()

	w := f.do(http.MethodDelete, "/api/v1/terms/current/placements", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, f.placements.clearedTerm)
	assert.Equal(t, "", *f.placements.clearedTerm)

	w = f.do(http.MethodDelete, "/api/v1/terms/term-9/placements", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "term-9", *f.placements.clearedTerm)
}

func TestListTermHandlerReportsTotal(t *testing.T) {
	f := newHandlerFixture()
	f.placements.placements = []models.PlacementDetail{{}, {}}

	w := f.do(http.MethodGet, "/api/v1/terms/current/placements", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decode(t, w).Meta["total"])
}

func TestAssignByCourseHandler(t *testing.T) {
	f := newHandlerFixture()
	f.placements.outcome = models.Accepted{Placement: models.PlacementDetail{CourseCode: "MATH101", SectionName: "C2"}}

	w := f.do(http.MethodPost, "/api/v1/placements/by-course", map[string]interface{}{
		"courseCode": "MATH101", "section": "C2", "career": "CS", "semester": 1,
		"room": "A101", "day": "LUNES", "block": "A",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "C2", f.placements.lastByCourse.SectionName)
	assert.Equal(t, 1, f.placements.lastByCourse.Semester)
	assert.Equal(t, "CS", f.placements.lastByCourse.Career)

	f.placements.outcome = models.Rejected{Conflicts: []models.Conflict{models.NotFoundConflict("section", "MATH101-C9")}}
	w = f.do(http.MethodPost, "/api/v1/placements/by-course", dto.AssignByCourseRequest{CourseCode: "MATH101", SectionName: "C9", Room: "A101", Day: "LUNES", Block: "A"})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestListRoomHandler(t *testing.T) {
	f := newHandlerFixture()
	f.placements.placements = []models.PlacementDetail{{RoomName: "A101"}}

	w := f.do(http.MethodGet, "/api/v1/rooms/A101/placements?termId=term-2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, [2]string{"A101", "term-2"}, f.placements.listedRoom)
	assert.EqualValues(t, 1, decode(t, w).Meta["total"])

	f.placements.err = appErrors.Clone(appErrors.ErrNotFound, "room 'Z9' not found")
	w = f.do(http.MethodGet, "/api/v1/rooms/Z9/placements", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Z9", f.placements.listedRoom[0])
}

func TestTermHandlerCurrent(t *testing.T) {
	f := newHandlerFixture()

	w := f.do(http.MethodGet, "/api/v1/terms/current", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var term models.Term
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &term))
	assert.Equal(t, "2025-1", term.BannerCode)
}

func TestSectionDeleteHandler(t *testing.T) {
	f := newHandlerFixture()
	f.sections.removed = 2

	w := f.do(http.MethodDelete, "/api/v1/sections/sec-1?cascade=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, f.sections.cascade)
	assert.True(t, *f.sections.cascade)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &body))
	assert.EqualValues(t, 2, body["removedPlacements"])

	w = f.do(http.MethodDelete, "/api/v1/sections/sec-1?cascade=maybe", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	f.sections.err = appErrors.WithDetails(appErrors.ErrInUse, "section has placements", map[string]int{"placements": 2})
	w = f.do(http.MethodDelete, "/api/v1/sections/sec-1", nil)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.False(t, *f.sections.cascade)
	assert.Equal(t, appErrors.ErrInUse.Code, decode(t, w).Error.Code)
}

func TestSectionCreateAndGenerateHandlers(t *testing.T) {
	f := newHandlerFixture()

	w := f.do(http.MethodPost, "/api/v1/sections", dto.CreateSectionRequest{CourseID: "course-math"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(http.MethodPost, "/api/v1/courses/course-math/sections/generate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "course-math", f.sections.generate.CourseID)

	w = f.do(http.MethodPost, "/api/v1/courses/course-math/sections/generate", dto.GenerateSectionsRequest{CourseID: "ignored", SectionsNumber: 2})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "course-math", f.sections.generate.CourseID)
	assert.Equal(t, 2, f.sections.generate.SectionsNumber)
}

func TestAvailabilityHandlers(t *testing.T) {
	f := newHandlerFixture()
	capacity := 40
	f.availability.rooms = []models.Room{{ID: "r1", Name: "A101", Capacity: &capacity}}

	w := f.do(http.MethodGet, "/api/v1/availability/rooms?day=LUNES&block=A&site=Vitacura", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Vitacura", f.availability.lastRooms.Site)
	assert.EqualValues(t, 1, decode(t, w).Meta["total"])

	w = f.do(http.MethodGet, "/api/v1/availability/instructors?day=LUNES&block=A", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGridHandlerBindsQuery(t *testing.T) {
	f := newHandlerFixture()

	w := f.do(http.MethodGet, "/api/v1/grid?career=CS&semester=3&depth=1", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "CS", f.grid.last.Career)
	assert.Equal(t, 3, f.grid.last.Semester)
	require.NotNil(t, f.grid.last.Depth)
	assert.Equal(t, 1, *f.grid.last.Depth)

	w = f.do(http.MethodGet, "/api/v1/grid?career=CS&semester=abc", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
