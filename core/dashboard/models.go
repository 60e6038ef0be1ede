package dashboard

import (
	"time"

	"github.com/volatiletech/null/v8"
)

type (
	TeacherDashboard struct {
		ClassStats     ClassStats      `json:"classStats"`
		StudentsAtRisk []AtRiskStudent `json:"studentsAtRisk"`
		NotesTimeline  Timeline        `json:"notesTimeline"`
	}

	// ClassStats summarizes the notes a teacher gave. Averages are null when there is none.
	ClassStats struct {
		AverageClass    null.Float64     `json:"averageClass" db:"average_class"`
		BestAverage     null.Float64     `json:"bestAverage" db:"best_average"`
		LowestAverage   null.Float64     `json:"lowestAverage" db:"lowest_average"`
		StudentsCount   int              `json:"studentsCount" db:"students_count"`
		NotesCount      int              `json:"notesCount" db:"notes_count"`
		SubjectAverages []SubjectAverage `json:"subjectAverages" db:"-"`
	}

	SubjectAverage struct {
		Subject       string  `json:"subject" db:"subject"`
		Average       float64 `json:"average" db:"average"`
		StudentsCount int     `json:"studentsCount" db:"students_count"`
	}

	AtRiskStudent struct {
		ID         int64   `json:"id" db:"id"`
		Name       string  `json:"name" db:"name"`
		Email      string  `json:"email" db:"email"`
		Average    float64 `json:"average" db:"average"`
		NotesCount int     `json:"notes_count" db:"notes_count"`
	}

	// Timeline holds the daily average of the notes of the most recent days, oldest first.
	Timeline struct {
		Dates  []string  `json:"dates"` // dd/mm/yyyy
		Values []float64 `json:"values"`
	}

	// NotePoint is a single note of the timeline.
	NotePoint struct {
		Value     float64   `db:"value"`
		CreatedAt time.Time `db:"created_at"`
	}
)
