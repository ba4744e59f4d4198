package assign

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Required input columns, in their canonical order.
var requiredColumns = []string{
	"student_id", "first_name", "last_name", "gender",
	"academic_score", "behavior_rank", "studentiality_rank", "assistance_package",
}

// Known optional columns. Anything else is preserved opaquely.
var optionalColumns = map[string]bool{
	"class": true, "school": true, "force_class": true, "force_friend": true,
	"preferred_friend_1": true, "preferred_friend_2": true, "preferred_friend_3": true,
	"disliked_peer_1": true, "disliked_peer_2": true, "disliked_peer_3": true,
	"disliked_peer_4": true, "disliked_peer_5": true,
}

const utf8BOM = "\uFEFF"

// ImportOptions controls validation behavior.
type ImportOptions struct {
	// SkipValidation normalizes invalid cells to safe defaults instead of
	// failing: synthetic id, "Unknown"/"Student", M, 50.0, A, A, false, and
	// filters unknown ids out of relation and group lists.
	SkipValidation bool
}

// ImportFile reads a snapshot from a CSV file.
func ImportFile(path string, opts ImportOptions) (*School, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()
	return ImportCSV(f, opts)
}

// ImportCSV reads a snapshot from CSV data with a header row. A missing
// `class` column produces an unassigned snapshot.
func ImportCSV(r io.Reader, opts ImportOptions) (*School, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, &ValidationError{Column: "(file)", Reason: err.Error()}
	}
	if len(records) == 0 {
		return nil, &ValidationError{Column: "(file)", Reason: "empty file"}
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}
	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		colIdx[name] = i
	}
	var errs []error
	for _, col := range requiredColumns {
		if _, ok := colIdx[col]; !ok {
			errs = append(errs, &ValidationError{Column: col, Reason: "required column missing"})
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	columns := append([]string(nil), header...)
	hasClass := false
	if _, ok := colIdx["class"]; ok {
		hasClass = true
	} else {
		columns = append(columns, "class")
	}

	p := &rowParser{colIdx: colIdx, skip: opts.SkipValidation}
	type rowData struct {
		student     Student
		class       string
		forceFriend []string
		extras      map[string]string
	}
	rows := make([]rowData, 0, len(records)-1)
	seenIDs := make(map[string]bool)

	for rn, rec := range records[1:] {
		row := rn + 1
		if len(rec) < len(header) {
			padded := make([]string, len(header))
			copy(padded, rec)
			rec = padded
		}
		st := Student{
			ID:                p.id(rec, row, seenIDs, &errs),
			FirstName:         p.text(rec, row, "first_name", "Unknown", &errs),
			LastName:          p.text(rec, row, "last_name", "Student", &errs),
			Gender:            p.gender(rec, row, &errs),
			AcademicScore:     p.academic(rec, row, &errs),
			BehaviorRank:      p.rank(rec, row, "behavior_rank", &errs),
			StudentialityRank: p.rank(rec, row, "studentiality_rank", &errs),
			AssistancePackage: p.assistance(rec, row, &errs),
			SchoolOfOrigin:    p.cell(rec, "school"),
			ForceClass:        p.cell(rec, "force_class"),
		}
		for i := 1; i <= MaxPreferredFriends; i++ {
			if v := p.cell(rec, fmt.Sprintf("preferred_friend_%d", i)); v != "" {
				st.PreferredFriends = append(st.PreferredFriends, v)
			}
		}
		for i := 1; i <= MaxDislikedPeers; i++ {
			if v := p.cell(rec, fmt.Sprintf("disliked_peer_%d", i)); v != "" {
				st.DislikedPeers = append(st.DislikedPeers, v)
			}
		}
		var ff []string
		if raw := p.cell(rec, "force_friend"); raw != "" {
			for _, part := range strings.Split(raw, ",") {
				if part = strings.TrimSpace(part); part != "" {
					ff = append(ff, part)
				}
			}
		}
		extras := make(map[string]string)
		for i, name := range header {
			if name == "" {
				continue
			}
			if isKnownColumn(name) {
				continue
			}
			extras[name] = rec[i]
		}
		rows = append(rows, rowData{
			student:     st,
			class:       p.cell(rec, "class"),
			forceFriend: ff,
			extras:      extras,
		})
		seenIDs[st.ID] = true
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	roster := make(map[string]bool, len(rows))
	for i := range rows {
		roster[rows[i].student.ID] = true
	}

	// Relation references: strict import rejects unknown ids; skip-validation
	// filters them.
	for i := range rows {
		st := &rows[i].student
		st.PreferredFriends = p.checkRefs(st.PreferredFriends, roster, "preferred_friend", &errs)
		st.DislikedPeers = p.checkRefs(st.DislikedPeers, roster, "disliked_peer", &errs)
		rows[i].forceFriend = p.checkRefs(rows[i].forceFriend, roster, "force_group", &errs)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	// Merge force_friend lists union-find style: every student reachable
	// through listed peers shares one group tag, named after the smallest
	// member id.
	parent := make(map[string]string, len(rows))
	var find func(string) string
	find = func(id string) string {
		p, ok := parent[id]
		if !ok || p == id {
			parent[id] = id
			return id
		}
		root := find(p)
		parent[id] = root
		return root
	}
	union := func(a, b string) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}
	for i := range rows {
		for _, peer := range rows[i].forceFriend {
			union(rows[i].student.ID, peer)
		}
	}
	members := make(map[string][]string)
	for i := range rows {
		id := rows[i].student.ID
		if _, linked := parent[id]; linked {
			root := find(id)
			members[root] = append(members[root], id)
		}
	}
	tagOf := make(map[string]string, len(members))
	for root, ids := range members {
		if len(ids) < 2 {
			continue
		}
		min := ids[0]
		for _, id := range ids[1:] {
			if id < min {
				min = id
			}
		}
		tagOf[root] = "group_" + min
	}
	for i := range rows {
		id := rows[i].student.ID
		if _, linked := parent[id]; linked {
			rows[i].student.ForceGroup = tagOf[find(id)]
		}
	}

	// Class list: the class column's values plus any force_class targets.
	classSet := make(map[string]bool)
	for i := range rows {
		if rows[i].class != "" {
			classSet[rows[i].class] = true
		}
		if fc := rows[i].student.ForceClass; fc != "" {
			classSet[fc] = true
		}
	}
	classIDs := make([]string, 0, len(classSet))
	for id := range classSet {
		classIDs = append(classIDs, id)
	}

	students := make([]Student, len(rows))
	for i := range rows {
		students[i] = rows[i].student
	}
	school, err := NewSchool(students, classIDs)
	if err != nil {
		return nil, err
	}
	school.columns = columns
	school.extras = make([]map[string]string, len(rows))
	for i := range rows {
		school.extras[i] = rows[i].extras
		if hasClass && rows[i].class != "" {
			if err := school.Assign(rows[i].student.ID, rows[i].class); err != nil {
				return nil, err
			}
		}
	}
	return school, nil
}

func isKnownColumn(name string) bool {
	for _, c := range requiredColumns {
		if c == name {
			return true
		}
	}
	return optionalColumns[name]
}

// rowParser validates or normalizes one cell at a time.
type rowParser struct {
	colIdx map[string]int
	skip   bool
}

func (p *rowParser) cell(rec []string, col string) string {
	i, ok := p.colIdx[col]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func (p *rowParser) fail(errs *[]error, row int, col, reason string) {
	*errs = append(*errs, &ValidationError{Column: col, Row: row, Reason: reason})
}

func (p *rowParser) id(rec []string, row int, seen map[string]bool, errs *[]error) string {
	v := p.cell(rec, "student_id")
	valid := len(v) == 9
	if valid {
		for _, ch := range v {
			if ch < '0' || ch > '9' {
				valid = false
				break
			}
		}
	}
	if valid && seen[v] {
		valid = false
		if !p.skip {
			p.fail(errs, row, "student_id", "duplicate id "+v)
			return v
		}
	}
	if valid {
		return v
	}
	if !p.skip {
		p.fail(errs, row, "student_id", "must be a unique 9-digit id, got "+strconv.Quote(v))
		return v
	}
	// Stable synthetic id derived from the row content, probed past
	// collisions.
	h := fnv1a64(strings.Join(rec, "\x1f"))
	if h < 0 {
		h = -h
	}
	id := 100000000 + h%900000000
	for {
		s := strconv.FormatInt(id, 10)
		if !seen[s] {
			return s
		}
		id = 100000000 + (id+1)%900000000
	}
}

func (p *rowParser) text(rec []string, row int, col, fallback string, errs *[]error) string {
	v := p.cell(rec, col)
	if v != "" {
		return v
	}
	if !p.skip {
		p.fail(errs, row, col, "must not be empty")
		return v
	}
	return fallback
}

func (p *rowParser) gender(rec []string, row int, errs *[]error) Gender {
	switch v := p.cell(rec, "gender"); v {
	case "M":
		return GenderMale
	case "F":
		return GenderFemale
	default:
		if !p.skip {
			p.fail(errs, row, "gender", "must be M or F, got "+strconv.Quote(v))
		}
		return GenderMale
	}
}

func (p *rowParser) academic(rec []string, row int, errs *[]error) float64 {
	v := p.cell(rec, "academic_score")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 || f > 100 {
		if !p.skip {
			p.fail(errs, row, "academic_score", "must be a number in [0, 100], got "+strconv.Quote(v))
		}
		return 50.0
	}
	return f
}

func (p *rowParser) rank(rec []string, row int, col string, errs *[]error) Rank {
	v := p.cell(rec, col)
	r, ok := ParseRank(v)
	if !ok {
		if !p.skip {
			p.fail(errs, row, col, "must be A..D, got "+strconv.Quote(v))
		}
		return RankA
	}
	return r
}

func (p *rowParser) assistance(rec []string, row int, errs *[]error) bool {
	switch strings.ToLower(p.cell(rec, "assistance_package")) {
	case "", "false", "0", "no":
		return false
	case "true", "1", "yes":
		return true
	default:
		if !p.skip {
			p.fail(errs, row, "assistance_package", "must be a boolean")
		}
		return false
	}
}

func (p *rowParser) checkRefs(ids []string, roster map[string]bool, kind string, errs *[]error) []string {
	out := ids[:0]
	for _, id := range ids {
		if roster[id] {
			out = append(out, id)
			continue
		}
		if !p.skip {
			*errs = append(*errs, &ReferenceError{Kind: kind, ID: id})
		}
	}
	return out
}

// ExportFile writes a snapshot to a CSV file.
func ExportFile(path string, s *School) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := ExportCSV(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ExportCSV emits the snapshot as a table whose columns are exactly the input
// columns in input order, with class populated. The output starts with a
// UTF-8 byte-order mark so spreadsheets render non-ASCII names correctly.
func ExportCSV(w io.Writer, s *School) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}
	columns := s.columns
	if len(columns) == 0 {
		columns = append(append([]string(nil), requiredColumns...), "class")
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range s.students {
		rec := make([]string, len(columns))
		for c, col := range columns {
			rec[c] = s.exportCell(i, col)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func (s *School) exportCell(i int, col string) string {
	st := &s.students[i]
	switch col {
	case "student_id":
		return st.ID
	case "first_name":
		return st.FirstName
	case "last_name":
		return st.LastName
	case "gender":
		return string(st.Gender)
	case "academic_score":
		return strconv.FormatFloat(st.AcademicScore, 'f', -1, 64)
	case "behavior_rank":
		return string(st.BehaviorRank)
	case "studentiality_rank":
		return string(st.StudentialityRank)
	case "assistance_package":
		return strconv.FormatBool(st.AssistancePackage)
	case "school":
		return st.SchoolOfOrigin
	case "class":
		if ci := s.classOf[i]; ci != unassignedClass {
			return s.classIDs[ci]
		}
		return ""
	case "force_class":
		return st.ForceClass
	case "force_friend":
		if st.ForceGroup == "" {
			return ""
		}
		peers := make([]string, 0, 4)
		for _, si := range s.groups[st.ForceGroup] {
			if id := s.students[si].ID; id != st.ID {
				peers = append(peers, id)
			}
		}
		return strings.Join(peers, ",")
	}
	if strings.HasPrefix(col, "preferred_friend_") {
		if n, err := strconv.Atoi(col[len("preferred_friend_"):]); err == nil {
			if n >= 1 && n <= len(st.PreferredFriends) {
				return st.PreferredFriends[n-1]
			}
			return ""
		}
	}
	if strings.HasPrefix(col, "disliked_peer_") {
		if n, err := strconv.Atoi(col[len("disliked_peer_"):]); err == nil {
			if n >= 1 && n <= len(st.DislikedPeers) {
				return st.DislikedPeers[n-1]
			}
			return ""
		}
	}
	if s.extras != nil && i < len(s.extras) {
		return s.extras[i][col]
	}
	return ""
}
