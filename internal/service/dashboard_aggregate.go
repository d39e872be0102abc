package service

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/school-records-api/internal/dto"
	"github.com/noah-isme/school-records-api/internal/models"
)

const (
	recentActivityLimit = 10
	topStudentLimit     = 5
)

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// buildSnapshot derives every dashboard section from the loaded rows.
func buildSnapshot(raw *dto.DashboardRawData, activities []dto.RecentActivity, now time.Time) *dto.DashboardSnapshot {
	return &dto.DashboardSnapshot{
		Stats:             computeStats(raw),
		GradeDistribution: computeGradeDistribution(raw.Grades, dto.GradeBins),
		ClassEnrollments:  computeClassEnrollments(raw.Classes, raw.Enrollments),
		RecentActivities:  activities,
		TopStudents:       computeTopStudents(raw.Students, raw.Grades, raw.Enrollments, topStudentLimit),
		GeneratedAt:       now,
	}
}

func computeStats(raw *dto.DashboardRawData) dto.DashboardStats {
	return dto.DashboardStats{
		StudentCount:    len(raw.Students),
		ClassCount:      len(raw.Classes),
		EnrollmentCount: len(raw.Enrollments),
		AverageGrade:    averageScore(raw.Grades),
	}
}

// averageScore is the mean score to two decimals, nil without grades.
func averageScore(grades []models.Grade) *float64 {
	if len(grades) == 0 {
		return nil
	}
	var total float64
	for _, g := range grades {
		total += g.Score
	}
	avg := roundTo(total/float64(len(grades)), 2)
	return &avg
}

// computeGradeDistribution counts each score in the first inclusive bin that
// holds it.
func computeGradeDistribution(grades []models.Grade, bins []dto.ScoreBin) dto.GradeDistribution {
	out := dto.GradeDistribution{Labels: make([]string, len(bins)), Data: make([]int, len(bins))}
	for i, bin := range bins {
		out.Labels[i] = bin.Label
	}
	for _, g := range grades {
		for i, bin := range bins {
			if g.Score >= bin.Min && g.Score <= bin.Max {
				out.Data[i]++
				break
			}
		}
	}
	return out
}

// computeClassEnrollments lists every class with its enrollment count,
// largest first.
func computeClassEnrollments(classes []models.Class, enrollments []models.Enrollment) []dto.ClassEnrollment {
	counts := make(map[int64]int, len(classes))
	for _, e := range enrollments {
		counts[e.ClassID]++
	}
	out := make([]dto.ClassEnrollment, 0, len(classes))
	for _, c := range classes {
		out = append(out, dto.ClassEnrollment{ClassID: c.ID, ClassName: c.Name, EnrollmentCount: counts[c.ID]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EnrollmentCount > out[j].EnrollmentCount
	})
	return out
}

// computeTopStudents ranks graded students by average score.
func computeTopStudents(students []models.Student, grades []models.Grade, enrollments []models.Enrollment, limit int) []dto.TopStudent {
	type tally struct {
		sum   float64
		count int
	}
	scores := make(map[int64]*tally)
	for _, g := range grades {
		t, ok := scores[g.StudentID]
		if !ok {
			t = &tally{}
			scores[g.StudentID] = t
		}
		t.sum += g.Score
		t.count++
	}
	classes := make(map[int64]map[int64]struct{})
	for _, e := range enrollments {
		set, ok := classes[e.StudentID]
		if !ok {
			set = make(map[int64]struct{})
			classes[e.StudentID] = set
		}
		set[e.ClassID] = struct{}{}
	}

	out := make([]dto.TopStudent, 0, len(scores))
	for _, s := range students {
		t, ok := scores[s.ID]
		if !ok {
			continue
		}
		out = append(out, dto.TopStudent{
			ID:         s.ID,
			Name:       s.Name,
			NISN:       s.NISN,
			AvgScore:   roundTo(t.sum/float64(t.count), 1),
			ClassCount: len(classes[s.ID]),
			IsActive:   s.IsActive,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AvgScore != out[j].AvgScore {
			return out[i].AvgScore > out[j].AvgScore
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

type activityPhrasing struct {
	kind                      string
	created, updated, removed string
}

// Entities are matched by substring in this order.
var activityPhrases = []activityPhrasing{
	{dto.ActivityStudent, "New student added", "Student updated", "Student removed"},
	{dto.ActivityGrade, "New grade added", "Grade updated", "Grade removed"},
	{dto.ActivityUser, "New user registered", "User updated", "User removed"},
	{dto.ActivityEnrollment, "New enrollment", "Enrollment updated", "Enrollment removed"},
	{dto.ActivityClass, "New class created", "Class updated", "Class removed"},
}

// activitiesFromAudit turns audit entries into feed items.
func activitiesFromAudit(entries []models.AuditEntry) []dto.RecentActivity {
	out := make([]dto.RecentActivity, 0, len(entries))
	for _, entry := range entries {
		activity := dto.RecentActivity{
			ID:          strconv.FormatInt(entry.ID, 10),
			Title:       "Activity",
			Description: entry.Entity,
			Date:        entry.CreatedAt,
			Type:        dto.ActivityStudent,
		}
		if name := entry.After.String("name"); name != "" {
			activity.Description = name
		} else if desc := entry.After.String("description"); desc != "" {
			activity.Description = desc
		}
		entity := strings.ToLower(entry.Entity)
		for _, phrase := range activityPhrases {
			if !strings.Contains(entity, phrase.kind) {
				continue
			}
			activity.Type = phrase.kind
			switch entry.Action {
			case models.AuditInsert:
				activity.Title = phrase.created
			case models.AuditUpdate:
				activity.Title = phrase.updated
			default:
				activity.Title = phrase.removed
			}
			break
		}
		out = append(out, activity)
	}
	return out
}

// syntheticActivities approximates a feed from the most recently touched
// rows when the audit log is empty. Dates are fixed offsets before now, not
// real change times.
func syntheticActivities(raw *dto.DashboardRawData, now time.Time) []dto.RecentActivity {
	ago := func(minutes int) time.Time { return now.Add(-time.Duration(minutes) * time.Minute) }
	names := make(map[int64]string, len(raw.Students))
	for _, s := range raw.Students {
		names[s.ID] = s.Name
	}

	out := make([]dto.RecentActivity, 0, 6)
	for i, s := range firstN(raw.Students, 2) {
		out = append(out, dto.RecentActivity{
			ID: "student-" + strconv.FormatInt(s.ID, 10), Title: "New student enrolled",
			Description: s.Name, Date: ago(30 + i*15), Type: dto.ActivityStudent,
		})
	}
	for i, g := range firstN(raw.Grades, 2) {
		name := names[g.StudentID]
		if name == "" {
			name = "Student"
		}
		out = append(out, dto.RecentActivity{
			ID: "grade-" + strconv.FormatInt(g.ID, 10), Title: "New grade added",
			Description: name + " - Score: " + strconv.FormatFloat(g.Score, 'f', -1, 64),
			Date:        ago(45 + i*15), Type: dto.ActivityGrade,
		})
	}
	for _, u := range firstN(raw.Users, 1) {
		role := u.Role.Name
		if role == "" {
			role = "Unknown"
		}
		out = append(out, dto.RecentActivity{
			ID: "user-" + strconv.FormatInt(u.ID, 10), Title: "New user registered",
			Description: u.Name + " (" + role + ")", Date: ago(60), Type: dto.ActivityUser,
		})
	}
	for _, c := range firstN(raw.Classes, 1) {
		out = append(out, dto.RecentActivity{
			ID: "class-" + strconv.FormatInt(c.ID, 10), Title: "New class created",
			Description: c.Name, Date: ago(90), Type: dto.ActivityClass,
		})
	}
	for i := range out {
		out[i].Synthetic = true
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if len(out) > recentActivityLimit {
		out = out[:recentActivityLimit]
	}
	return out
}

func firstN[T any](rows []T, n int) []T {
	if len(rows) < n {
		return rows
	}
	return rows[:n]
}
