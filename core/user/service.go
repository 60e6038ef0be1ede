package user

import (
	"context"
	"net/mail"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/iatic/ecole/core"
	"github.com/iatic/ecole/core/access"
)

var (
	// errors
	ErrNotFound            = core.NewNotFoundError("Utilisateur non trouvé")
	ErrSubjectNotFound     = core.NewNotFoundError("Aucune matière trouvée pour ce professeur")
	ErrEmailExists         = core.NewConflictError("Cet email est déjà utilisé")
	ErrInvalidCredentials  = core.NewAuthError("Email ou mot de passe incorrect")
	ErrWrongPassword       = core.NewAuthError("Mot de passe actuel incorrect")
	ErrAdminUndeletable    = core.NewAuthorizationError("Impossible de supprimer un administrateur")
	errCredentialsRequired = errors.New("Email et mot de passe requis")
	errInvalidClass        = errors.New("Classe invalide")
)

type (
	Repository interface {
		// EmailExists reports whether a User already uses email.
		EmailExists(ctx context.Context, email string, exec ...core.DBExecutor) (bool, error)
		// CreateUser inserts usr; fails with ErrEmailExists on a duplicate email.
		CreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		CreateSubject(ctx context.Context, sub Subject, exec ...core.DBExecutor) (Subject, error)
		// GetUser returns the User matching all non-zero fields of filter, or ErrNotFound.
		GetUser(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (User, error)
		QueryUsers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]User, error)
		QueryStudents(ctx context.Context, class string, exec ...core.DBExecutor) ([]Student, error)
		// GetSubjectByTeacher returns the subject of teacherID, or ErrSubjectNotFound.
		GetSubjectByTeacher(ctx context.Context, teacherID int64, exec ...core.DBExecutor) (Subject, error)
		UpdatePassword(ctx context.Context, usr User, exec ...core.DBExecutor) error
		// DeleteUser deletes the subject of the User (if any) then the User itself.
		DeleteUser(ctx context.Context, id int64, exec ...core.DBExecutor) error
	}

	Service interface {
		Register(ctx context.Context, nu NewUser) (User, error)
		// Login returns the User matching cr, with their subject when they teach one.
		Login(ctx context.Context, cr Credentials) (User, error)
		ChangePassword(ctx context.Context, id access.Identity, cp ChangePassword) error
		GetByID(ctx context.Context, id int64) (User, error)
		List(ctx context.Context, id access.Identity, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error)
		Delete(ctx context.Context, id access.Identity, userID int64) error
		// ListStudents returns the students of class sorted by firstname, French collation.
		ListStudents(ctx context.Context, id access.Identity, class string) ([]Student, error)
		GetTeacherSubject(ctx context.Context, id access.Identity, teacherID int64) (Subject, error)
	}

	service struct {
		db        core.DB
		repo      Repository
		mailSvc   core.EmailService
		validator *core.Validator
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository, mailSvc core.EmailService, validator *core.Validator) Service {
	return &service{
		db:        db,
		repo:      repo,
		mailSvc:   mailSvc,
		validator: validator,
	}
}

func (svc *service) Register(ctx context.Context, nu NewUser) (User, error) {
	nu.Clean()
	if err := svc.validator.Struct(nu); err != nil {
		return User{}, err
	}

	usr := User{
		Email:     nu.Email,
		Firstname: nu.Firstname,
		Role:      nu.Role,
		CreatedAt: core.Now(),
	}
	if nu.Role == access.RoleStudent {
		usr.Class.SetValid(nu.Class)
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}

	err := core.WithTx(ctx, svc.db, func(tx core.DBExecutor) error {
		exists, err := svc.repo.EmailExists(ctx, usr.Email, tx)
		if err != nil {
			return errors.Wrap(err, "checking email uniqueness")
		}
		if exists {
			return ErrEmailExists
		}

		if usr, err = svc.repo.CreateUser(ctx, usr, tx); err != nil {
			return errors.Wrap(err, "creating user")
		}
		if usr.IsTeacher() && nu.Subject != "" {
			if _, err = svc.repo.CreateSubject(ctx, Subject{Name: nu.Subject, TeacherID: usr.ID}, tx); err != nil {
				return errors.Wrap(err, "creating subject")
			}
			usr.Subject.SetValid(nu.Subject)
		}
		return nil
	})
	if err != nil {
		return User{}, err
	}

	svc.sendWelcomeMail(usr)
	return usr, nil
}

func (svc *service) Login(ctx context.Context, cr Credentials) (User, error) {
	cr.Email = core.CleanString(cr.Email, true /* lower */)
	if err := svc.validator.Struct(cr); err != nil {
		if vErr, ok := err.(*core.ValidationError); ok {
			vErr.Err = errCredentialsRequired
		}
		return User{}, err
	}

	// unknown email and wrong password fail the same way
	usr, err := svc.repo.GetUser(ctx, GetFilter{Email: cr.Email})
	if err != nil {
		if core.IsNotFoundError(err) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(cr.Password); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return usr, nil
}

func (svc *service) ChangePassword(ctx context.Context, id access.Identity, cp ChangePassword) error {
	if err := svc.validator.Struct(cp); err != nil {
		return err
	}

	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: id.UserID})
	if err != nil {
		return errors.Wrap(err, "finding user by ID")
	}
	if err = usr.CheckPassword(cp.CurrentPassword); err != nil {
		return ErrWrongPassword
	}
	if err = svc.validator.Struct(newPassword{Password: cp.NewPassword, Firstname: usr.Firstname, Email: usr.Email}); err != nil {
		return err
	}
	if err = usr.SetPassword(cp.NewPassword); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	if err = svc.repo.UpdatePassword(ctx, usr); err != nil {
		return errors.Wrap(err, "updating password")
	}

	svc.sendPasswordChangedMail(usr)
	return nil
}

func (svc *service) GetByID(ctx context.Context, id int64) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *service) List(ctx context.Context, id access.Identity, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error) {
	if err := access.Require(id, access.RoleAdmin); err != nil {
		return nil, err
	}
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryUsers(ctx, filter, ordering)
}

func (svc *service) Delete(ctx context.Context, id access.Identity, userID int64) error {
	if err := access.Require(id, access.RoleAdmin); err != nil {
		return err
	}
	return core.WithTx(ctx, svc.db, func(tx core.DBExecutor) error {
		usr, err := svc.repo.GetUser(ctx, GetFilter{ID: userID}, tx)
		if err != nil {
			return errors.Wrap(err, "finding user by ID")
		}
		if usr.IsAdmin() {
			return ErrAdminUndeletable
		}
		return errors.Wrap(svc.repo.DeleteUser(ctx, usr.ID, tx), "deleting user")
	})
}

func (svc *service) ListStudents(ctx context.Context, id access.Identity, class string) ([]Student, error) {
	if err := access.Require(id, access.RoleTeacher); err != nil {
		return nil, err
	}
	if !core.IsValidClass(class) {
		return nil, core.NewValidationError(errInvalidClass)
	}

	students, err := svc.repo.QueryStudents(ctx, class)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}

	cl := collate.New(language.French, collate.IgnoreCase)
	sort.SliceStable(students, func(i, j int) bool {
		return cl.CompareString(students[i].Firstname, students[j].Firstname) < 0
	})
	return students, nil
}

func (svc *service) GetTeacherSubject(ctx context.Context, id access.Identity, teacherID int64) (Subject, error) {
	if err := access.Require(id, access.RoleTeacher); err != nil {
		return Subject{}, err
	}
	if id.UserID != teacherID {
		return Subject{}, access.ErrForbidden
	}
	return svc.repo.GetSubjectByTeacher(ctx, teacherID)
}

// Mailers

func (svc *service) sendWelcomeMail(usr User) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Firstname, Address: usr.Email}},
		Subject:      "Bienvenue",
		TemplateName: "welcome",
		TemplateData: usr,
	})
}

func (svc *service) sendPasswordChangedMail(usr User) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Firstname, Address: usr.Email}},
		Subject:      "Mot de passe modifié",
		TemplateName: "password_changed",
		TemplateData: usr,
	})
}
