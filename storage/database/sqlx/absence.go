package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/iatic/ecole/core"
	"github.com/iatic/ecole/core/absence"
)

type absenceRepository struct {
	repository
}

var _ absence.Repository = (*absenceRepository)(nil) // interface compliance check

func NewAbsenceRepository(exec core.DBExecutor) *absenceRepository {
	return &absenceRepository{repository{exec: exec}}
}

func (repo absenceRepository) CreateAbsence(ctx context.Context, a absence.Absence, exec ...core.DBExecutor) (absence.Absence, error) {
	id, err := insert(ctx, repo.getExec(exec),
		`INSERT INTO absences (student_id, subject_id, date, validated_by)
		VALUES (?, ?, ?, ?) RETURNING id`,
		a.StudentID, a.SubjectID, a.Date.UTC(), a.ValidatedBy)
	if err != nil {
		return absence.Absence{}, errors.Wrap(err, "inserting absence")
	}
	a.ID = id
	return a, nil
}

func (repo absenceRepository) GetAbsence(ctx context.Context, id int64, exec ...core.DBExecutor) (absence.Absence, error) {
	var a absence.Absence
	err := get(ctx, repo.getExec(exec), &a,
		"SELECT id, student_id, subject_id, date, validated_by FROM absences WHERE id = ?", id)
	if err != nil {
		return absence.Absence{}, trapNoRowsErr(err, absence.ErrNotFound, "selecting absence")
	}
	return a, nil
}

func (repo absenceRepository) DeleteAbsence(ctx context.Context, id int64, exec ...core.DBExecutor) error {
	err := execAffecting(ctx, repo.getExec(exec), absence.ErrNotFound, "DELETE FROM absences WHERE id = ?", id)
	if err != nil && !core.IsNotFoundError(err) {
		return errors.Wrap(err, "deleting absence")
	}
	return err
}

func (repo absenceRepository) QueryStudentAbsences(ctx context.Context, studentID int64, exec ...core.DBExecutor) ([]absence.StudentAbsence, error) {
	absences := make([]absence.StudentAbsence, 0)
	err := selectAll(ctx, repo.getExec(exec), &absences, `
		SELECT a.id, a.student_id, a.subject_id, a.date, a.validated_by,
			s.name AS subject_name, u.email AS teacher_email
		FROM absences a
		JOIN subjects s ON a.subject_id = s.id
		JOIN users u ON a.validated_by = u.id
		WHERE a.student_id = ?
		ORDER BY a.date DESC, a.id DESC`, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "selecting student absences")
	}
	return absences, nil
}

func (repo absenceRepository) QueryRecords(ctx context.Context, exec ...core.DBExecutor) ([]absence.Record, error) {
	records := make([]absence.Record, 0)
	err := selectAll(ctx, repo.getExec(exec), &records, `
		SELECT a.id, a.date, s.firstname AS student_name, s.email AS student_email,
			sub.name AS subject, t.email AS teacher_email
		FROM absences a
		JOIN users s ON a.student_id = s.id
		JOIN subjects sub ON a.subject_id = sub.id
		JOIN users t ON sub.teacher_id = t.id
		ORDER BY a.date DESC, a.id DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "selecting absences")
	}
	return records, nil
}
