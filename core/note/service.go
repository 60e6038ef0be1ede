package note

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/iatic/ecole/core"
	"github.com/iatic/ecole/core/access"
	"github.com/iatic/ecole/core/user"
)

var (
	// errors
	ErrNotFound        = core.NewNotFoundError("Note non trouvée")
	ErrStudentNotFound = core.NewNotFoundError("Étudiant non trouvé")
)

type (
	Repository interface {
		CreateNote(ctx context.Context, n Note, exec ...core.DBExecutor) (Note, error)
		// GetNote returns the note with id, or ErrNotFound.
		GetNote(ctx context.Context, id int64, exec ...core.DBExecutor) (Note, error)
		DeleteNote(ctx context.Context, id int64, exec ...core.DBExecutor) error
		// QueryStudentNotes returns the notes of a student, newest first.
		QueryStudentNotes(ctx context.Context, studentID int64, exec ...core.DBExecutor) ([]StudentNote, error)
		// QueryClassNotes returns the notes a teacher gave in class, by student firstname then newest first.
		QueryClassNotes(ctx context.Context, teacherID int64, class string, exec ...core.DBExecutor) ([]ClassNote, error)
	}

	Service interface {
		Add(ctx context.Context, id access.Identity, nn NewNote) (Note, error)
		// Delete deletes a note the caller gave; notes of other teachers are reported as not found.
		Delete(ctx context.Context, id access.Identity, noteID int64) error
		ListForStudent(ctx context.Context, id access.Identity) (StudentNotes, error)
		ListForTeacher(ctx context.Context, id access.Identity, class string) (ClassNotes, error)
	}

	service struct {
		db        core.DB
		repo      Repository
		usrRepo   user.Repository
		validator *core.Validator
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository, usrRepo user.Repository, validator *core.Validator) Service {
	return &service{
		db:        db,
		repo:      repo,
		usrRepo:   usrRepo,
		validator: validator,
	}
}

func (svc *service) Add(ctx context.Context, id access.Identity, nn NewNote) (Note, error) {
	if err := access.Require(id, access.RoleTeacher); err != nil {
		return Note{}, err
	}
	nn.Clean()
	if err := svc.validator.Struct(nn); err != nil {
		return Note{}, err
	}

	var n Note
	err := core.WithTx(ctx, svc.db, func(tx core.DBExecutor) error {
		filter := user.GetFilter{ID: nn.StudentID, Role: access.RoleStudent, Class: nn.Class}
		if _, err := svc.usrRepo.GetUser(ctx, filter, tx); err != nil {
			if core.IsNotFoundError(err) {
				return ErrStudentNotFound
			}
			return errors.Wrap(err, "finding student")
		}

		var err error
		n, err = svc.repo.CreateNote(ctx, Note{
			Value:     *nn.Value,
			StudentID: nn.StudentID,
			TeacherID: id.UserID,
			Class:     nn.Class,
			CreatedAt: core.Now(),
		}, tx)
		return errors.Wrap(err, "creating note")
	})
	if err != nil {
		return Note{}, err
	}
	return n, nil
}

func (svc *service) Delete(ctx context.Context, id access.Identity, noteID int64) error {
	if err := access.Require(id, access.RoleTeacher); err != nil {
		return err
	}
	return core.WithTx(ctx, svc.db, func(tx core.DBExecutor) error {
		n, err := svc.repo.GetNote(ctx, noteID, tx)
		if err != nil {
			return errors.Wrap(err, "finding note")
		}
		if n.TeacherID != id.UserID {
			return ErrNotFound
		}
		return errors.Wrap(svc.repo.DeleteNote(ctx, n.ID, tx), "deleting note")
	})
}

func (svc *service) ListForStudent(ctx context.Context, id access.Identity) (StudentNotes, error) {
	if err := access.Require(id, access.RoleStudent); err != nil {
		return StudentNotes{}, err
	}

	notes, err := svc.repo.QueryStudentNotes(ctx, id.UserID)
	if err != nil {
		return StudentNotes{}, errors.Wrap(err, "querying student notes")
	}
	if notes == nil {
		notes = []StudentNote{}
	}
	return StudentNotes{Notes: notes, Averages: subjectAverages(notes)}, nil
}

func (svc *service) ListForTeacher(ctx context.Context, id access.Identity, class string) (ClassNotes, error) {
	if err := access.Require(id, access.RoleTeacher); err != nil {
		return ClassNotes{}, err
	}

	notes, err := svc.repo.QueryClassNotes(ctx, id.UserID, class)
	if err != nil {
		return ClassNotes{}, errors.Wrap(err, "querying class notes")
	}
	if notes == nil {
		notes = []ClassNote{}
	}
	return ClassNotes{Notes: notes, Averages: studentAverages(notes)}, nil
}

// subjectAverages averages notes per teacher (each teacher teaches one subject), ordered by teacher.
func subjectAverages(notes []StudentNote) []SubjectAverage {
	values := make(map[int64][]float64)
	subjects := make(map[int64]StudentNote)
	teachers := make([]int64, 0)
	for _, n := range notes {
		if _, ok := values[n.TeacherID]; !ok {
			teachers = append(teachers, n.TeacherID)
			subjects[n.TeacherID] = n
		}
		values[n.TeacherID] = append(values[n.TeacherID], n.Value)
	}
	sort.Slice(teachers, func(i, j int) bool { return teachers[i] < teachers[j] })

	averages := make([]SubjectAverage, 0, len(teachers))
	for _, tid := range teachers {
		averages = append(averages, SubjectAverage{
			Subject: subjects[tid].Subject,
			Average: Average(values[tid]),
		})
	}
	return averages
}

// studentAverages averages notes per student, in the order students first appear in notes.
func studentAverages(notes []ClassNote) []StudentAverage {
	values := make(map[int64][]float64)
	averages := make([]StudentAverage, 0)
	for _, n := range notes {
		if _, ok := values[n.StudentID]; !ok {
			averages = append(averages, StudentAverage{StudentID: n.StudentID, StudentName: n.StudentName})
		}
		values[n.StudentID] = append(values[n.StudentID], n.Value)
	}
	for i := range averages {
		averages[i].Average = Average(values[averages[i].StudentID])
	}
	return averages
}
