package absence

import "time"

type Absence struct {
	ID          int64     `json:"id" db:"id"`
	StudentID   int64     `json:"student_id" db:"student_id"`
	SubjectID   int64     `json:"subject_id" db:"subject_id"`
	Date        time.Time `json:"date" db:"date"` // UTC
	ValidatedBy int64     `json:"validated_by" db:"validated_by"`
}

// StudentAbsence is an Absence as listed to the absent student.
type StudentAbsence struct {
	Absence
	SubjectName  string `json:"subject_name" db:"subject_name"`
	TeacherEmail string `json:"teacher_email" db:"teacher_email"`
}

// Record is an Absence as listed to admins.
type Record struct {
	ID           int64     `json:"id" db:"id"`
	Date         time.Time `json:"date" db:"date"`
	StudentName  string    `json:"student_name" db:"student_name"`
	StudentEmail string    `json:"student_email" db:"student_email"`
	Subject      string    `json:"subject" db:"subject"`
	TeacherEmail string    `json:"teacher_email" db:"teacher_email"`
}

// NewAbsence contains information needed to record an absence.
// SubjectID defaults to the subject of the teacher, Date to now.
type NewAbsence struct {
	StudentID int64  `json:"studentId" validate:"required"`
	SubjectID *int64 `json:"subjectId"`
	Date      string `json:"date" validate:"omitempty,date"` // YYYY-MM-DD or RFC 3339
}
