package repository

import (
	"sort"
	"sync"

	"github.com/noah-isme/horario-api/internal/models"
)

type cellKey struct {
	termID  string
	blockID string
}

type roomSlotKey struct {
	termID  string
	blockID string
	roomID  string
}

type idSet map[string]struct{}

func (s idSet) add(id string)    { s[id] = struct{}{} }
func (s idSet) remove(id string) { delete(s, id) }

// PlacementIndex keeps every loaded placement in memory keyed the ways the
// conflict checker, the availability resolver and the grid look them up.
// It is safe for concurrent use; readers never observe a half-applied write.
type PlacementIndex struct {
	mu sync.RWMutex

	byID         map[string]models.PlacementDetail
	byCell       map[cellKey]idSet
	byRoom       map[roomSlotKey]string
	byInstructor map[string]idSet
	bySlot       map[string]idSet
	bySection    map[string]idSet

	// versions counts writes per term; replaced counts full reloads.
	versions map[string]uint64
	replaced uint64
}

// NewPlacementIndex returns an empty index.
func NewPlacementIndex() *PlacementIndex {
	idx := &PlacementIndex{versions: make(map[string]uint64)}
	idx.reset()
	return idx
}

func (idx *PlacementIndex) reset() {
	idx.byID = make(map[string]models.PlacementDetail)
	idx.byCell = make(map[cellKey]idSet)
	idx.byRoom = make(map[roomSlotKey]string)
	idx.byInstructor = make(map[string]idSet)
	idx.bySlot = make(map[string]idSet)
	idx.bySection = make(map[string]idSet)
}

// Replace swaps the whole content for placements.
func (idx *PlacementIndex) Replace(placements []models.PlacementDetail) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.reset()
	idx.replaced++
	for _, p := range placements {
		idx.add(p)
	}
}

// Add inserts or refreshes a placement.
func (idx *PlacementIndex) Add(p models.PlacementDetail) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.remove(p.ID)
	idx.add(p)
}

// Remove drops a placement by id.
func (idx *PlacementIndex) Remove(id string) (models.PlacementDetail, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	return idx.remove(id)
}

// RemoveTerm drops every placement of a term and returns how many were dropped.
func (idx *PlacementIndex) RemoveTerm(termID string) int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	var ids []string
	for id, p := range idx.byID {
		if p.TermID == termID {
			ids = append(ids, id)
		}
	}
	for _, id := range ids {
		idx.remove(id)
	}
	return len(ids)
}

// RemoveSection drops every placement of a section.
func (idx *PlacementIndex) RemoveSection(sectionID string) int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	ids := keys(idx.bySection[sectionID])
	for _, id := range ids {
		idx.remove(id)
	}
	return len(ids)
}

// SetSectionInstructor rewrites the instructor of every placement of a section.
func (idx *PlacementIndex) SetSectionInstructor(sectionID string, instructor *models.Instructor) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, id := range keys(idx.bySection[sectionID]) {
		p, _ := idx.remove(id)
		p.InstructorID, p.InstructorRUT, p.InstructorName = nil, nil, nil
		if instructor != nil {
			instID, rut, name := instructor.ID, instructor.RUT, instructor.Name
			p.InstructorID, p.InstructorRUT, p.InstructorName = &instID, &rut, &name
		}
		idx.add(p)
	}
}

// RoomOccupant returns the placement holding a room in a (term, block) cell.
func (idx *PlacementIndex) RoomOccupant(termID, blockID, roomID string) (models.PlacementDetail, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	id, ok := idx.byRoom[roomSlotKey{termID: termID, blockID: blockID, roomID: roomID}]
	if !ok {
		return models.PlacementDetail{}, false
	}
	return idx.byID[id], true
}

// InstructorOccupants returns the instructor's placements at a block. An empty termID spans every term.
func (idx *PlacementIndex) InstructorOccupants(instructorID, termID, blockID string) []models.PlacementDetail {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var out []models.PlacementDetail
	for id := range idx.byInstructor[instructorID] {
		p := idx.byID[id]
		if p.TimeBlockID != blockID {
			continue
		}
		if termID != "" && p.TermID != termID {
			continue
		}
		out = append(out, p)
	}
	sortPlacements(out)
	return out
}

// InstructorLoad counts the instructor's placements in a term.
func (idx *PlacementIndex) InstructorLoad(instructorID, termID string) int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	total := 0
	for id := range idx.byInstructor[instructorID] {
		if idx.byID[id].TermID == termID {
			total++
		}
	}
	return total
}

// AcrossSchedules returns every placement at a block in any term, career or semester.
func (idx *PlacementIndex) AcrossSchedules(blockID string) []models.PlacementDetail {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.collect(idx.bySlot[blockID])
}

// InCell returns the placements of a (term, block) cell.
func (idx *PlacementIndex) InCell(termID, blockID string) []models.PlacementDetail {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.collect(idx.byCell[cellKey{termID: termID, blockID: blockID}])
}

// ByTerm returns every placement of a term.
func (idx *PlacementIndex) ByTerm(termID string) []models.PlacementDetail {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var out []models.PlacementDetail
	for _, p := range idx.byID {
		if p.TermID == termID {
			out = append(out, p)
		}
	}
	sortPlacements(out)
	return out
}

// BySection returns every placement of a section.
func (idx *PlacementIndex) BySection(sectionID string) []models.PlacementDetail {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.collect(idx.bySection[sectionID])
}

// FindByLocation resolves a placement by its natural key.
func (idx *PlacementIndex) FindByLocation(termID, sectionID, roomID, blockID string) (models.PlacementDetail, bool) {
	p, ok := idx.RoomOccupant(termID, blockID, roomID)
	if !ok || p.SectionID != sectionID {
		return models.PlacementDetail{}, false
	}
	return p, true
}

// ByRoom returns the placements of a room in a term.
func (idx *PlacementIndex) ByRoom(termID, roomID string) []models.PlacementDetail {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var out []models.PlacementDetail
	for _, p := range idx.byID {
		if p.TermID == termID && p.RoomID == roomID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if di, dj := out[i].Day.Index(), out[j].Day.Index(); di != dj {
			return di < dj
		}
		if out[i].BlockName != out[j].BlockName {
			return out[i].BlockName < out[j].BlockName
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// TermVersion changes whenever a placement of the term is added, removed or rewritten, and on every Replace.
func (idx *PlacementIndex) TermVersion(termID string) uint64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.replaced + idx.versions[termID]
}

// Len returns the number of indexed placements.
func (idx *PlacementIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.byID)
}

func (idx *PlacementIndex) add(p models.PlacementDetail) {
	idx.byID[p.ID] = p
	idx.versions[p.TermID]++

	cell := cellKey{termID: p.TermID, blockID: p.TimeBlockID}
	ensure(idx.byCell, cell).add(p.ID)
	idx.byRoom[roomSlotKey{termID: p.TermID, blockID: p.TimeBlockID, roomID: p.RoomID}] = p.ID
	ensure(idx.bySlot, p.TimeBlockID).add(p.ID)
	ensure(idx.bySection, p.SectionID).add(p.ID)
	if inst := p.Instructor(); inst != "" {
		ensure(idx.byInstructor, inst).add(p.ID)
	}
}

func (idx *PlacementIndex) remove(id string) (models.PlacementDetail, bool) {
	p, ok := idx.byID[id]
	if !ok {
		return models.PlacementDetail{}, false
	}
	delete(idx.byID, id)
	idx.versions[p.TermID]++

	cell := cellKey{termID: p.TermID, blockID: p.TimeBlockID}
	drop(idx.byCell, cell, id)
	room := roomSlotKey{termID: p.TermID, blockID: p.TimeBlockID, roomID: p.RoomID}
	if idx.byRoom[room] == id {
		delete(idx.byRoom, room)
	}
	drop(idx.bySlot, p.TimeBlockID, id)
	drop(idx.bySection, p.SectionID, id)
	if inst := p.Instructor(); inst != "" {
		drop(idx.byInstructor, inst, id)
	}
	return p, true
}

func (idx *PlacementIndex) collect(ids idSet) []models.PlacementDetail {
	if len(ids) == 0 {
		return nil
	}
	out := make([]models.PlacementDetail, 0, len(ids))
	for id := range ids {
		out = append(out, idx.byID[id])
	}
	sortPlacements(out)
	return out
}

func ensure[K comparable](m map[K]idSet, key K) idSet {
	set, ok := m[key]
	if !ok {
		set = make(idSet)
		m[key] = set
	}
	return set
}

func drop[K comparable](m map[K]idSet, key K, id string) {
	set, ok := m[key]
	if !ok {
		return
	}
	set.remove(id)
	if len(set) == 0 {
		delete(m, key)
	}
}

func keys(set idSet) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

func sortPlacements(ps []models.PlacementDetail) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].TermID != ps[j].TermID {
			return ps[i].TermID < ps[j].TermID
		}
		if ps[i].RoomName != ps[j].RoomName {
			return ps[i].RoomName < ps[j].RoomName
		}
		return ps[i].ID < ps[j].ID
	})
}
