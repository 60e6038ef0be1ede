package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/iatic/ecole/core"
	"github.com/iatic/ecole/core/note"
)

type noteRepository struct {
	repository
}

var _ note.Repository = (*noteRepository)(nil) // interface compliance check

func NewNoteRepository(exec core.DBExecutor) *noteRepository {
	return &noteRepository{repository{exec: exec}}
}

func (repo noteRepository) CreateNote(ctx context.Context, n note.Note, exec ...core.DBExecutor) (note.Note, error) {
	id, err := insert(ctx, repo.getExec(exec),
		`INSERT INTO notes (value, student_id, teacher_id, class, created_at)
		VALUES (?, ?, ?, ?, ?) RETURNING id`,
		n.Value, n.StudentID, n.TeacherID, n.Class, n.CreatedAt.UTC())
	if err != nil {
		return note.Note{}, errors.Wrap(err, "inserting note")
	}
	n.ID = id
	return n, nil
}

func (repo noteRepository) GetNote(ctx context.Context, id int64, exec ...core.DBExecutor) (note.Note, error) {
	var n note.Note
	err := get(ctx, repo.getExec(exec), &n,
		"SELECT id, value, student_id, teacher_id, class, created_at FROM notes WHERE id = ?", id)
	if err != nil {
		return note.Note{}, trapNoRowsErr(err, note.ErrNotFound, "selecting note")
	}
	return n, nil
}

func (repo noteRepository) DeleteNote(ctx context.Context, id int64, exec ...core.DBExecutor) error {
	err := execAffecting(ctx, repo.getExec(exec), note.ErrNotFound, "DELETE FROM notes WHERE id = ?", id)
	if err != nil && !core.IsNotFoundError(err) {
		return errors.Wrap(err, "deleting note")
	}
	return err
}

func (repo noteRepository) QueryStudentNotes(ctx context.Context, studentID int64, exec ...core.DBExecutor) ([]note.StudentNote, error) {
	notes := make([]note.StudentNote, 0)
	err := selectAll(ctx, repo.getExec(exec), &notes, `
		SELECT n.id, n.value, n.student_id, n.teacher_id, n.class, n.created_at,
			u.firstname AS teacher_name, u.email AS teacher_email,
			(SELECT name FROM subjects WHERE teacher_id = n.teacher_id) AS subject
		FROM notes n
		JOIN users u ON n.teacher_id = u.id
		WHERE n.student_id = ?
		ORDER BY n.created_at DESC, n.id DESC`, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "selecting student notes")
	}
	return notes, nil
}

func (repo noteRepository) QueryClassNotes(ctx context.Context, teacherID int64, class string, exec ...core.DBExecutor) ([]note.ClassNote, error) {
	notes := make([]note.ClassNote, 0)
	err := selectAll(ctx, repo.getExec(exec), &notes, `
		SELECT n.id, n.value, n.student_id, n.teacher_id, n.class, n.created_at,
			u.firstname AS student_name, u.email AS student_email
		FROM notes n
		JOIN users u ON n.student_id = u.id
		WHERE n.teacher_id = ? AND n.class = ?
		ORDER BY u.firstname, n.created_at DESC, n.id DESC`, teacherID, class)
	if err != nil {
		return nil, errors.Wrap(err, "selecting class notes")
	}
	return notes, nil
}
