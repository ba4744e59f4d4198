package assign

import (
	"fmt"
	"sort"
	"strconv"
)

// School is a complete assignment snapshot: the roster, the class list, and
// the current student→class mapping. Students are immutable; assignment state
// is held in packed arrays indexed by student so that Clone is a flat copy and
// a move updates the student's class entry, removes it from its old class's
// member list (a scan of that class), and adjusts both class aggregates
// incrementally.
type School struct {
	students []Student
	indexOf  map[string]int // student id → index into students

	classIDs []string       // stable natural order
	classIdx map[string]int // class id → index into classIDs

	classOf []int   // student index → class index, unassignedClass if unplaced
	members [][]int // class index → student indices in insertion order
	agg     []classAggregate

	groups map[string][]int // force-group tag → member indices, ascending

	// Opaque tabular context carried through import → export.
	columns []string
	extras  []map[string]string // per student, unknown column → raw value
}

const unassignedClass = -1

// classAggregate holds the per-class sums the scorer reads, maintained
// incrementally by the mutation primitives.
type classAggregate struct {
	size             int
	male             int
	female           int
	assistance       int
	academicSum      float64
	behaviorSum      float64
	studentialitySum float64
	origins          map[string]int
}

func (a *classAggregate) add(st *Student) {
	a.size++
	if st.Gender == GenderFemale {
		a.female++
	} else {
		a.male++
	}
	if st.AssistancePackage {
		a.assistance++
	}
	a.academicSum += st.AcademicScore
	a.behaviorSum += st.BehaviorRank.Numeric()
	a.studentialitySum += st.StudentialityRank.Numeric()
	if st.SchoolOfOrigin != "" {
		a.origins[st.SchoolOfOrigin]++
	}
}

func (a *classAggregate) remove(st *Student) {
	a.size--
	if st.Gender == GenderFemale {
		a.female--
	} else {
		a.male--
	}
	if st.AssistancePackage {
		a.assistance--
	}
	a.academicSum -= st.AcademicScore
	a.behaviorSum -= st.BehaviorRank.Numeric()
	a.studentialitySum -= st.StudentialityRank.Numeric()
	if st.SchoolOfOrigin != "" {
		if a.origins[st.SchoolOfOrigin]--; a.origins[st.SchoolOfOrigin] == 0 {
			delete(a.origins, st.SchoolOfOrigin)
		}
	}
}

// NewSchool builds an unassigned snapshot from a cleaned roster and a class
// list. Duplicate student or class ids and dangling references are rejected.
func NewSchool(students []Student, classIDs []string) (*School, error) {
	s := &School{
		students: students,
		indexOf:  make(map[string]int, len(students)),
		classOf:  make([]int, len(students)),
		groups:   make(map[string][]int),
	}
	for i := range students {
		id := students[i].ID
		if _, dup := s.indexOf[id]; dup {
			return nil, &ReferenceError{Kind: "duplicate_student", ID: id}
		}
		s.indexOf[id] = i
		s.classOf[i] = unassignedClass
	}
	for i := range students {
		st := &s.students[i]
		st.cleanupRelations()
		for _, id := range st.PreferredFriends {
			if _, ok := s.indexOf[id]; !ok {
				return nil, &ReferenceError{Kind: "preferred_friend", ID: id}
			}
		}
		for _, id := range st.DislikedPeers {
			if _, ok := s.indexOf[id]; !ok {
				return nil, &ReferenceError{Kind: "disliked_peer", ID: id}
			}
		}
		if st.ForceGroup != "" {
			s.groups[st.ForceGroup] = append(s.groups[st.ForceGroup], i)
		}
	}
	sortNatural(classIDs)
	s.classIDs = classIDs
	s.classIdx = make(map[string]int, len(classIDs))
	for ci, id := range classIDs {
		if id == "" {
			return nil, &ReferenceError{Kind: "class", ID: "(empty)"}
		}
		if _, dup := s.classIdx[id]; dup {
			return nil, &ReferenceError{Kind: "duplicate_class", ID: id}
		}
		s.classIdx[id] = ci
	}
	s.members = make([][]int, len(classIDs))
	s.agg = make([]classAggregate, len(classIDs))
	for ci := range s.agg {
		s.agg[ci].origins = make(map[string]int)
	}
	return s, nil
}

// sortNatural orders class ids numerically when every id parses as an
// integer, lexicographically otherwise, so "10" follows "9" for the common
// numbered-class case.
func sortNatural(ids []string) {
	allNumeric := true
	for _, id := range ids {
		if _, err := strconv.Atoi(id); err != nil {
			allNumeric = false
			break
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		if allNumeric {
			a, _ := strconv.Atoi(ids[i])
			b, _ := strconv.Atoi(ids[j])
			return a < b
		}
		return ids[i] < ids[j]
	})
}

// AddClasses appends class ids that are not yet present, keeping natural order.
func (s *School) AddClasses(ids ...string) {
	changed := false
	for _, id := range ids {
		if _, ok := s.classIdx[id]; ok {
			continue
		}
		s.classIDs = append(s.classIDs, id)
		s.members = append(s.members, nil)
		s.agg = append(s.agg, classAggregate{origins: make(map[string]int)})
		changed = true
	}
	if !changed {
		return
	}
	// Re-establish natural order; rebuild index and remap assignment state.
	old := make(map[string][]int, len(s.classIDs))
	oldAgg := make(map[string]classAggregate, len(s.classIDs))
	for id, ci := range s.classIdx {
		old[id] = s.members[ci]
		oldAgg[id] = s.agg[ci]
	}
	for _, id := range s.classIDs {
		if _, ok := s.classIdx[id]; !ok {
			old[id] = nil
			oldAgg[id] = classAggregate{origins: make(map[string]int)}
		}
	}
	sortNatural(s.classIDs)
	s.classIdx = make(map[string]int, len(s.classIDs))
	for ci, id := range s.classIDs {
		s.classIdx[id] = ci
		s.members[ci] = old[id]
		s.agg[ci] = oldAgg[id]
	}
	for ci, mem := range s.members {
		for _, si := range mem {
			s.classOf[si] = ci
		}
	}
}

// NumStudents returns the roster size.
func (s *School) NumStudents() int { return len(s.students) }

// NumClasses returns the number of classes.
func (s *School) NumClasses() int { return len(s.classIDs) }

// ClassIDs returns the class ids in stable order. The slice is shared; do not
// mutate.
func (s *School) ClassIDs() []string { return s.classIDs }

// StudentIDs returns roster ids in roster order.
func (s *School) StudentIDs() []string {
	ids := make([]string, len(s.students))
	for i := range s.students {
		ids[i] = s.students[i].ID
	}
	return ids
}

// Student looks a student up by id.
func (s *School) Student(id string) (*Student, bool) {
	i, ok := s.indexOf[id]
	if !ok {
		return nil, false
	}
	return &s.students[i], true
}

// ClassOf returns the class id a student is assigned to, or "" if unassigned.
func (s *School) ClassOf(id string) (string, bool) {
	i, ok := s.indexOf[id]
	if !ok || s.classOf[i] == unassignedClass {
		return "", ok
	}
	return s.classIDs[s.classOf[i]], true
}

// MembersOf returns the student ids of one class in insertion order.
func (s *School) MembersOf(classID string) []string {
	ci, ok := s.classIdx[classID]
	if !ok {
		return nil
	}
	out := make([]string, len(s.members[ci]))
	for k, si := range s.members[ci] {
		out[k] = s.students[si].ID
	}
	return out
}

// ClassSize returns the current size of one class.
func (s *School) ClassSize(classID string) int {
	ci, ok := s.classIdx[classID]
	if !ok {
		return 0
	}
	return s.agg[ci].size
}

// GroupTags returns every force-group tag in ascending order.
func (s *School) GroupTags() []string {
	tags := make([]string, 0, len(s.groups))
	for tag := range s.groups {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// GroupMembers returns the roster ids of a force group.
func (s *School) GroupMembers(tag string) []string {
	mem := s.groups[tag]
	out := make([]string, len(mem))
	for k, si := range mem {
		out[k] = s.students[si].ID
	}
	return out
}

// Columns returns the preserved input column order.
func (s *School) Columns() []string { return s.columns }

// Assign places a student into a class with no constraint checking. It is the
// construction-time primitive used by the importer and the initializer;
// optimizers go through the checked operations in moves.go.
func (s *School) Assign(studentID, classID string) error {
	si, ok := s.indexOf[studentID]
	if !ok {
		return &ReferenceError{Kind: "student", ID: studentID}
	}
	ci, ok := s.classIdx[classID]
	if !ok {
		return &ReferenceError{Kind: "class", ID: classID}
	}
	s.place(si, ci)
	return nil
}

// place moves a student index into class ci, detaching it from its current
// class first. ci may be unassignedClass to unplace.
func (s *School) place(si, ci int) {
	if cur := s.classOf[si]; cur != unassignedClass {
		mem := s.members[cur]
		for k, v := range mem {
			if v == si {
				s.members[cur] = append(mem[:k:k], mem[k+1:]...)
				break
			}
		}
		s.agg[cur].remove(&s.students[si])
	}
	s.classOf[si] = ci
	if ci != unassignedClass {
		s.members[ci] = append(s.members[ci], si)
		s.agg[ci].add(&s.students[si])
	}
}

// swapPlaces exchanges the classes of two assigned students.
func (s *School) swapPlaces(a, b int) {
	ca, cb := s.classOf[a], s.classOf[b]
	s.place(a, cb)
	s.place(b, ca)
}

// Clone deep-copies the snapshot. Students, columns, and extras are shared
// (immutable); assignment state and aggregates are copied.
func (s *School) Clone() *School {
	c := &School{
		students: s.students,
		indexOf:  s.indexOf,
		classIDs: s.classIDs,
		classIdx: s.classIdx,
		groups:   s.groups,
		columns:  s.columns,
		extras:   s.extras,
		classOf:  append([]int(nil), s.classOf...),
		members:  make([][]int, len(s.members)),
		agg:      make([]classAggregate, len(s.agg)),
	}
	for ci := range s.members {
		c.members[ci] = append([]int(nil), s.members[ci]...)
		c.agg[ci] = s.agg[ci]
		c.agg[ci].origins = make(map[string]int, len(s.agg[ci].origins))
		for k, v := range s.agg[ci].origins {
			c.agg[ci].origins[k] = v
		}
	}
	return c
}

// SameAssignment reports whether two snapshots over the same roster place
// every student identically.
func (s *School) SameAssignment(o *School) bool {
	if len(s.classOf) != len(o.classOf) {
		return false
	}
	for i, ci := range s.classOf {
		var a, b string
		if ci != unassignedClass {
			a = s.classIDs[ci]
		}
		if oc := o.classOf[i]; oc != unassignedClass {
			b = o.classIDs[oc]
		}
		if a != b {
			return false
		}
	}
	return true
}

// AssignmentKey returns a canonical string form of the assignment, useful for
// reproducibility assertions.
func (s *School) AssignmentKey() string {
	out := make([]byte, 0, len(s.students)*14)
	for i := range s.students {
		ci := s.classOf[i]
		cls := ""
		if ci != unassignedClass {
			cls = s.classIDs[ci]
		}
		out = append(out, fmt.Sprintf("%s=%s;", s.students[i].ID, cls)...)
	}
	return string(out)
}
