package assign

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// StudentBreakdown decomposes one student's layer score.
type StudentBreakdown struct {
	FriendSatisfaction float64
	ConflictAvoidance  float64
	Score              float64
}

// ClassBreakdown decomposes one class's layer score.
type ClassBreakdown struct {
	Size          int
	GenderBalance float64
	Score         float64
}

// SchoolBreakdown decomposes the cross-class equity metrics.
type SchoolBreakdown struct {
	AcademicBalance      float64
	BehaviorBalance      float64
	StudentialityBalance float64
	SizeBalance          float64
	AssistanceBalance    float64
	SchoolOriginBalance  float64
}

// ScoreResult is the full scoring decomposition. Final and the three layer
// scores are all in [0, 100].
type ScoreResult struct {
	Final        float64
	StudentLayer float64
	ClassLayer   float64
	SchoolLayer  float64
	PerStudent   map[string]StudentBreakdown
	PerClass     map[string]ClassBreakdown
	School       SchoolBreakdown
}

// Score evaluates a snapshot. It is deterministic, side-effect free, and
// permutation-invariant in student and class ordering up to floating-point
// summation order: the result depends only on the assignment and the
// configuration, apart from rounding differences in the accumulated sums.
func Score(s *School, cfg *Config) *ScoreResult {
	res := &ScoreResult{
		PerStudent: make(map[string]StudentBreakdown, len(s.students)),
		PerClass:   make(map[string]ClassBreakdown, len(s.classIDs)),
	}

	studentW := cfg.Weights.StudentLayer.Friends + cfg.Weights.StudentLayer.Dislikes
	res.StudentLayer = scoreStudentLayer(s, cfg, res.PerStudent)

	classW := cfg.Weights.ClassLayer.GenderBalance
	res.ClassLayer = scoreClassLayer(s, cfg, res.PerClass)

	schoolW := schoolWeightSum(cfg)
	res.SchoolLayer, res.School = scoreSchoolLayer(s, cfg)

	// A layer whose sub-weights are all zero is omitted from the final
	// normalization entirely (its score stays reported above).
	type layer struct {
		weight  float64
		enabled bool
		score   float64
	}
	layers := []layer{
		{cfg.Weights.Layers.Student, studentW > 0, res.StudentLayer},
		{cfg.Weights.Layers.Class, classW > 0, res.ClassLayer},
		{cfg.Weights.Layers.School, schoolW > 0, res.SchoolLayer},
	}
	var wSum, acc float64
	for _, l := range layers {
		if !l.enabled || l.weight == 0 {
			continue
		}
		wSum += l.weight
		acc += l.weight * l.score
	}
	if wSum > 0 {
		res.Final = clampScore(acc / wSum)
	}
	return res
}

func schoolWeightSum(cfg *Config) float64 {
	w := &cfg.Weights.SchoolLayer
	return w.AcademicBalance + w.BehaviorBalance + w.StudentialityBalance +
		w.SizeBalance + w.AssistanceBalance + w.SchoolOriginBalance
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// === Student layer ===

func scoreStudentLayer(s *School, cfg *Config, per map[string]StudentBreakdown) float64 {
	wf := cfg.Weights.StudentLayer.Friends
	wd := cfg.Weights.StudentLayer.Dislikes
	if len(s.students) == 0 {
		return 100
	}
	var sum float64
	for i := range s.students {
		st := &s.students[i]
		my := s.classOf[i]

		friendSat := 100.0
		if n := len(st.PreferredFriends); n > 0 {
			placed := 0
			for _, fid := range st.PreferredFriends {
				if my != unassignedClass && s.classOf[s.indexOf[fid]] == my {
					placed++
				}
			}
			friendSat = 100 * float64(placed) / float64(n)
		}

		conflictAvoid := 100.0
		if n := len(st.DislikedPeers); n > 0 {
			avoided := 0
			for _, did := range st.DislikedPeers {
				if my == unassignedClass || s.classOf[s.indexOf[did]] != my {
					avoided++
				}
			}
			conflictAvoid = 100 * float64(avoided) / float64(n)
		}

		score := 100.0
		if wf+wd > 0 {
			score = (wf*friendSat + wd*conflictAvoid) / (wf + wd)
		}
		score = clampScore(score)
		per[st.ID] = StudentBreakdown{
			FriendSatisfaction: clampScore(friendSat),
			ConflictAvoidance:  clampScore(conflictAvoid),
			Score:              score,
		}
		sum += score
	}
	return clampScore(sum / float64(len(s.students)))
}

// === Class layer ===

func scoreClassLayer(s *School, cfg *Config, per map[string]ClassBreakdown) float64 {
	wg := cfg.Weights.ClassLayer.GenderBalance
	if len(s.classIDs) == 0 {
		return 100
	}
	var sum float64
	for ci, id := range s.classIDs {
		a := &s.agg[ci]
		gender := 100.0
		if a.size > 0 {
			mRatio := float64(a.male) / float64(a.size)
			fRatio := float64(a.female) / float64(a.size)
			diff := mRatio - fRatio
			if diff < 0 {
				diff = -diff
			}
			gender = 100 - 100*diff
		}
		gender = clampScore(gender)

		// Weighted mean over the registered class metrics (one today).
		score := 100.0
		if wg > 0 {
			score = wg * gender / wg
		}
		score = clampScore(score)
		per[id] = ClassBreakdown{Size: a.size, GenderBalance: gender, Score: score}
		sum += score
	}
	return clampScore(sum / float64(len(s.classIDs)))
}

// === School layer ===

func scoreSchoolLayer(s *School, cfg *Config) (float64, SchoolBreakdown) {
	k := len(s.classIDs)
	academic := make([]float64, 0, k)
	behavior := make([]float64, 0, k)
	studentiality := make([]float64, 0, k)
	sizes := make([]float64, 0, k)
	assistance := make([]float64, 0, k)
	for ci := range s.classIDs {
		a := &s.agg[ci]
		sizes = append(sizes, float64(a.size))
		assistance = append(assistance, float64(a.assistance))
		if a.size > 0 {
			academic = append(academic, a.academicSum/float64(a.size))
			behavior = append(behavior, a.behaviorSum/float64(a.size))
			studentiality = append(studentiality, a.studentialitySum/float64(a.size))
		} else {
			academic = append(academic, 0)
			behavior = append(behavior, 0)
			studentiality = append(studentiality, 0)
		}
	}

	bd := SchoolBreakdown{
		AcademicBalance:      sigmaBalance(academic, cfg.Normalization.AcademicScoreFactor),
		BehaviorBalance:      sigmaBalance(behavior, cfg.Normalization.BehaviorRankFactor),
		StudentialityBalance: sigmaBalance(studentiality, cfg.Normalization.StudentialityRankFactor),
		SizeBalance:          sigmaBalance(sizes, cfg.Normalization.ClassSizeFactor),
		AssistanceBalance:    sigmaBalance(assistance, cfg.Normalization.AssistanceCountFactor),
		SchoolOriginBalance:  originBalance(s),
	}

	w := &cfg.Weights.SchoolLayer
	metrics := []struct {
		weight float64
		score  float64
	}{
		{w.AcademicBalance, bd.AcademicBalance},
		{w.BehaviorBalance, bd.BehaviorBalance},
		{w.StudentialityBalance, bd.StudentialityBalance},
		{w.SizeBalance, bd.SizeBalance},
		{w.AssistanceBalance, bd.AssistanceBalance},
		{w.SchoolOriginBalance, bd.SchoolOriginBalance},
	}
	var wSum, acc float64
	for _, m := range metrics {
		if m.weight == 0 {
			continue
		}
		wSum += m.weight
		acc += m.weight * m.score
	}
	if wSum == 0 {
		return 100, bd
	}
	return clampScore(acc / wSum), bd
}

// sigmaBalance maps the population standard deviation of a per-class vector
// to a 0..100 score. Vectors of length <= 1 score 100.
func sigmaBalance(v []float64, factor float64) float64 {
	if len(v) <= 1 {
		return 100
	}
	sigma := stat.PopStdDev(v, nil)
	return clampScore(100 - sigma*factor)
}

// originBalance combines origin representation (0.7) with class
// non-dominance (0.3). Empty-string origins are ignored throughout.
func originBalance(s *School) float64 {
	k := len(s.classIDs)
	if k == 0 {
		return 100
	}

	// Origin sizes and per-origin class presence.
	originSize := make(map[string]int)
	originClasses := make(map[string]map[int]bool)
	for i := range s.students {
		o := s.students[i].SchoolOfOrigin
		if o == "" {
			continue
		}
		originSize[o]++
		ci := s.classOf[i]
		if ci == unassignedClass {
			continue
		}
		if originClasses[o] == nil {
			originClasses[o] = make(map[int]bool)
		}
		originClasses[o][ci] = true
	}
	if len(originSize) == 0 {
		return 100
	}

	origins := make([]string, 0, len(originSize))
	for o := range originSize {
		origins = append(origins, o)
	}
	sort.Strings(origins)

	var repSum float64
	for _, o := range origins {
		n := originSize[o]
		target := 0.4
		switch {
		case n > 40:
			target = 0.8
		case n >= 20:
			target = 0.6
		}
		presence := float64(len(originClasses[o])) / float64(k)
		ratio := presence / target
		if ratio > 1 {
			ratio = 1
		}
		repSum += 100 * ratio
	}
	representation := repSum / float64(len(origins))

	var domSum float64
	nonEmpty := 0
	for ci := range s.classIDs {
		a := &s.agg[ci]
		if a.size == 0 {
			continue
		}
		nonEmpty++
		dominance := 0.0
		for _, cnt := range a.origins {
			if d := float64(cnt) / float64(a.size); d > dominance {
				dominance = d
			}
		}
		nd := (0.6 - dominance) / 0.6
		if nd < 0 {
			nd = 0
		}
		if nd > 1 {
			nd = 1
		}
		domSum += 100 * nd
	}
	nonDominance := 100.0
	if nonEmpty > 0 {
		nonDominance = domSum / float64(nonEmpty)
	}

	return clampScore(0.7*representation + 0.3*nonDominance)
}
