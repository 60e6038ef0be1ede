package note

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/iatic/ecole/core"
)

type Note struct {
	ID        int64     `json:"id" db:"id"`
	Value     float64   `json:"value" db:"value"`
	StudentID int64     `json:"student_id" db:"student_id"`
	TeacherID int64     `json:"teacher_id" db:"teacher_id"`
	Class     string    `json:"class" db:"class"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
}

// StudentNote is a Note as listed to the graded student.
type StudentNote struct {
	Note
	TeacherName  string      `json:"teacher_name" db:"teacher_name"`
	TeacherEmail string      `json:"teacher_email" db:"teacher_email"`
	Subject      null.String `json:"subject" db:"subject"`
}

// ClassNote is a Note as listed to the teacher who gave it.
type ClassNote struct {
	Note
	StudentName  string `json:"student_name" db:"student_name"`
	StudentEmail string `json:"student_email" db:"student_email"`
}

type SubjectAverage struct {
	Subject null.String `json:"subject"`
	Average float64     `json:"average"`
}

type StudentAverage struct {
	StudentID   int64   `json:"student_id"`
	StudentName string  `json:"student_name"`
	Average     float64 `json:"average"`
}

type StudentNotes struct {
	Notes    []StudentNote    `json:"notes"`
	Averages []SubjectAverage `json:"averages"`
}

type ClassNotes struct {
	Notes    []ClassNote      `json:"notes"`
	Averages []StudentAverage `json:"averages"`
}

// NewNote contains information needed to grade a student.
type NewNote struct {
	StudentID int64    `json:"studentId" validate:"required"`
	Value     *float64 `json:"value" validate:"required,notevalue"`
	Class     string   `json:"class" validate:"required,class"`
}

func (nn *NewNote) Clean() {
	nn.Class = core.CleanString(nn.Class)
}

// Average is the unrounded arithmetic mean of values.
func Average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
