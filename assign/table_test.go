package assign

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `student_id,first_name,last_name,gender,academic_score,behavior_rank,studentiality_rank,assistance_package,class,school,preferred_friend_1,disliked_peer_1,force_class,force_friend,homeroom_note
101000001,Noa,Levi,F,92.5,A,B,false,1,North,101000002,,,,early pickup
101000002,Avi,Cohen,M,78,B,A,true,1,North,101000001,101000003,,,
101000003,Dana,Mizrahi,F,85,A,A,false,2,South,,,2,,allergy
101000004,Omer,Peretz,M,61,C,C,false,2,,,,,"101000005",
101000005,Lia,Azulay,F,70,A,B,false,1,,,,,"101000004",
`

func TestImportCSV_ParsesRosterAndExtras(t *testing.T) {
	s, err := ImportCSV(strings.NewReader(sampleCSV), ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, 5, s.NumStudents())
	assert.Equal(t, []string{"1", "2"}, s.ClassIDs())

	noa, ok := s.Student("101000001")
	require.True(t, ok)
	assert.Equal(t, "Noa", noa.FirstName)
	assert.Equal(t, GenderFemale, noa.Gender)
	assert.Equal(t, 92.5, noa.AcademicScore)
	assert.Equal(t, RankB, noa.StudentialityRank)
	assert.Equal(t, []string{"101000002"}, noa.PreferredFriends)

	avi, _ := s.Student("101000002")
	assert.True(t, avi.AssistancePackage)
	assert.Equal(t, []string{"101000003"}, avi.DislikedPeers)

	dana, _ := s.Student("101000003")
	assert.Equal(t, "2", dana.ForceClass)

	// force_friend lists merge into one shared tag.
	omer, _ := s.Student("101000004")
	lia, _ := s.Student("101000005")
	require.NotEmpty(t, omer.ForceGroup)
	assert.Equal(t, omer.ForceGroup, lia.ForceGroup)

	// Unknown columns are preserved in order.
	assert.Equal(t, "homeroom_note", s.Columns()[len(s.Columns())-1])

	cls, _ := s.ClassOf("101000001")
	assert.Equal(t, "1", cls)
}

func TestImportCSV_StrictValidation(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"bad id", "student_id,first_name,last_name,gender,academic_score,behavior_rank,studentiality_rank,assistance_package\n12345,A,B,M,50,A,A,false\n"},
		{"bad gender", "student_id,first_name,last_name,gender,academic_score,behavior_rank,studentiality_rank,assistance_package\n101000001,A,B,X,50,A,A,false\n"},
		{"score out of range", "student_id,first_name,last_name,gender,academic_score,behavior_rank,studentiality_rank,assistance_package\n101000001,A,B,M,150,A,A,false\n"},
		{"legacy E rank", "student_id,first_name,last_name,gender,academic_score,behavior_rank,studentiality_rank,assistance_package\n101000001,A,B,M,50,E,A,false\n"},
		{"missing required column", "student_id,first_name\n101000001,A\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ImportCSV(strings.NewReader(tt.csv), ImportOptions{})
			require.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestImportCSV_UnknownReferenceIsRejected(t *testing.T) {
	csv := "student_id,first_name,last_name,gender,academic_score,behavior_rank,studentiality_rank,assistance_package,preferred_friend_1\n" +
		"101000001,A,B,M,50,A,A,false,999999999\n"
	_, err := ImportCSV(strings.NewReader(csv), ImportOptions{})
	require.ErrorIs(t, err, ErrReference)
}

func TestImportCSV_SkipValidationNormalizes(t *testing.T) {
	csv := "student_id,first_name,last_name,gender,academic_score,behavior_rank,studentiality_rank,assistance_package,preferred_friend_1\n" +
		"abc,,,X,999,E,Z,maybe,999999999\n"
	s, err := ImportCSV(strings.NewReader(csv), ImportOptions{SkipValidation: true})
	require.NoError(t, err)
	require.Equal(t, 1, s.NumStudents())

	id := s.StudentIDs()[0]
	assert.Len(t, id, 9)
	st, _ := s.Student(id)
	assert.Equal(t, "Unknown", st.FirstName)
	assert.Equal(t, "Student", st.LastName)
	assert.Equal(t, GenderMale, st.Gender)
	assert.Equal(t, 50.0, st.AcademicScore)
	assert.Equal(t, RankA, st.BehaviorRank)
	assert.False(t, st.AssistancePackage)
	// The dangling reference is filtered, not kept.
	assert.Empty(t, st.PreferredFriends)
}

func TestImportCSV_SkipValidationSyntheticIDsAreStable(t *testing.T) {
	csv := "student_id,first_name,last_name,gender,academic_score,behavior_rank,studentiality_rank,assistance_package\n" +
		"bad,A,B,M,50,A,A,false\n"
	a, err := ImportCSV(strings.NewReader(csv), ImportOptions{SkipValidation: true})
	require.NoError(t, err)
	b, err := ImportCSV(strings.NewReader(csv), ImportOptions{SkipValidation: true})
	require.NoError(t, err)
	assert.Equal(t, a.StudentIDs(), b.StudentIDs())
}

func TestImportCSV_MissingClassColumnYieldsUnassigned(t *testing.T) {
	csv := "student_id,first_name,last_name,gender,academic_score,behavior_rank,studentiality_rank,assistance_package\n" +
		"101000001,A,B,M,50,A,A,false\n"
	s, err := ImportCSV(strings.NewReader(csv), ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, StateUnassigned, NewChecker(DefaultConfig()).Classify(s))
	// The class column is created for export.
	assert.Equal(t, "class", s.Columns()[len(s.Columns())-1])
}

func TestExportCSV_WritesBOMAndInputColumnOrder(t *testing.T) {
	s, err := ImportCSV(strings.NewReader(sampleCSV), ImportOptions{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, s))
	out := buf.String()
	require.True(t, strings.HasPrefix(out, utf8BOM))

	lines := strings.Split(strings.TrimSuffix(strings.TrimPrefix(out, utf8BOM), "\n"), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "student_id,first_name,last_name,gender,academic_score,behavior_rank,studentiality_rank,assistance_package,class,school,preferred_friend_1,disliked_peer_1,force_class,force_friend,homeroom_note", lines[0])
	assert.Contains(t, lines[1], "early pickup")
}

// Import → export → import yields an equal snapshot.
func TestTable_RoundTrip(t *testing.T) {
	first, err := ImportCSV(strings.NewReader(sampleCSV), ImportOptions{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, first))
	second, err := ImportCSV(bytes.NewReader(buf.Bytes()), ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, first.StudentIDs(), second.StudentIDs())
	assert.Equal(t, first.ClassIDs(), second.ClassIDs())
	assert.True(t, first.SameAssignment(second))
	for _, id := range first.StudentIDs() {
		a, _ := first.Student(id)
		b, _ := second.Student(id)
		assert.Equal(t, a, b, "student %s", id)
	}

	// A second export emits byte-identical output.
	var buf2 bytes.Buffer
	require.NoError(t, ExportCSV(&buf2, second))
	assert.Equal(t, buf.String(), buf2.String())
}
