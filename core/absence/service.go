package absence

import (
	"context"

	"github.com/pkg/errors"

	"github.com/iatic/ecole/core"
	"github.com/iatic/ecole/core/access"
	"github.com/iatic/ecole/core/user"
)

var (
	// errors
	ErrNotFound        = core.NewNotFoundError("Absence non trouvée")
	ErrStudentNotFound = core.NewNotFoundError("Étudiant non trouvé")
	ErrSubjectMismatch = core.NewAuthorizationError("Cette matière n'est pas la vôtre")
)

type (
	Repository interface {
		CreateAbsence(ctx context.Context, a Absence, exec ...core.DBExecutor) (Absence, error)
		// GetAbsence returns the absence with id, or ErrNotFound.
		GetAbsence(ctx context.Context, id int64, exec ...core.DBExecutor) (Absence, error)
		DeleteAbsence(ctx context.Context, id int64, exec ...core.DBExecutor) error
		// QueryStudentAbsences returns the absences of a student, most recent first.
		QueryStudentAbsences(ctx context.Context, studentID int64, exec ...core.DBExecutor) ([]StudentAbsence, error)
		// QueryRecords returns all absences, most recent first.
		QueryRecords(ctx context.Context, exec ...core.DBExecutor) ([]Record, error)
	}

	Service interface {
		Add(ctx context.Context, id access.Identity, na NewAbsence) (Absence, error)
		ListForStudent(ctx context.Context, id access.Identity) ([]StudentAbsence, error)
		ListAll(ctx context.Context, id access.Identity) ([]Record, error)
		Delete(ctx context.Context, id access.Identity, absenceID int64) error
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

func (svc *service) Add(ctx context.Context, id access.Identity, na NewAbsence) (Absence, error) {
	if err := access.Require(id, access.RoleTeacher); err != nil {
		return Absence{}, err
	}
	na.Date = core.CleanString(na.Date)
	if err := svc.validator.Struct(na); err != nil {
		return Absence{}, err
	}

	date := core.Now()
	if na.Date != "" {
		var err error
		if date, err = core.ParseDate(na.Date); err != nil {
			return Absence{}, errors.Wrap(err, "parsing date")
		}
	}

	var a Absence
	err := core.WithTx(ctx, svc.db, func(tx core.DBExecutor) error {
		sub, err := svc.usrRepo.GetSubjectByTeacher(ctx, id.UserID, tx)
		if err != nil {
			return errors.Wrap(err, "finding teacher subject")
		}
		if na.SubjectID != nil && *na.SubjectID != sub.ID {
			return ErrSubjectMismatch
		}

		filter := user.GetFilter{ID: na.StudentID, Role: access.RoleStudent}
		if _, err = svc.usrRepo.GetUser(ctx, filter, tx); err != nil {
			if core.IsNotFoundError(err) {
				return ErrStudentNotFound
			}
			return errors.Wrap(err, "finding student")
		}

		a, err = svc.repo.CreateAbsence(ctx, Absence{
			StudentID:   na.StudentID,
			SubjectID:   sub.ID,
			Date:        date,
			ValidatedBy: id.UserID,
		}, tx)
		return errors.Wrap(err, "creating absence")
	})
	if err != nil {
		return Absence{}, err
	}
	return a, nil
}

func (svc *service) ListForStudent(ctx context.Context, id access.Identity) ([]StudentAbsence, error) {
	if err := access.Require(id, access.RoleStudent); err != nil {
		return nil, err
	}
	absences, err := svc.repo.QueryStudentAbsences(ctx, id.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "querying student absences")
	}
	if absences == nil {
		absences = []StudentAbsence{}
	}
	return absences, nil
}

func (svc *service) ListAll(ctx context.Context, id access.Identity) ([]Record, error) {
	if err := access.Require(id, access.RoleAdmin); err != nil {
		return nil, err
	}
	records, err := svc.repo.QueryRecords(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying absences")
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

func (svc *service) Delete(ctx context.Context, id access.Identity, absenceID int64) error {
	if err := access.Require(id, access.RoleAdmin); err != nil {
		return err
	}
	return core.WithTx(ctx, svc.db, func(tx core.DBExecutor) error {
		if _, err := svc.repo.GetAbsence(ctx, absenceID, tx); err != nil {
			return errors.Wrap(err, "finding absence")
		}
		return errors.Wrap(svc.repo.DeleteAbsence(ctx, absenceID, tx), "deleting absence")
	})
}
