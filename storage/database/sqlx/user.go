package sqlxrepos

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/iatic/ecole/core"
	"github.com/iatic/ecole/core/access"
	"github.com/iatic/ecole/core/user"
)

const selectUser = `SELECT id, email, password_hash, firstname, role, class, created_at,
	(SELECT name FROM subjects WHERE teacher_id = users.id) AS subject
FROM users`

var errEmptyFilter = errors.New("empty filter")

type userRepository struct {
	repository
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{repository{exec: exec}}
}

func (repo userRepository) EmailExists(ctx context.Context, email string, exec ...core.DBExecutor) (bool, error) {
	var found bool
	err := get(ctx, repo.getExec(exec), &found, "SELECT EXISTS (SELECT 1 FROM users WHERE email = ?)", email)
	return found, errors.Wrap(err, "checking email")
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	id, err := insert(ctx, repo.getExec(exec),
		`INSERT INTO users (email, password_hash, firstname, role, class, created_at)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
		usr.Email, usr.PasswordHash, usr.Firstname, usr.Role, usr.Class, usr.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	usr.ID = id
	return usr, nil
}

func (repo userRepository) CreateSubject(ctx context.Context, sub user.Subject, exec ...core.DBExecutor) (user.Subject, error) {
	id, err := insert(ctx, repo.getExec(exec),
		"INSERT INTO subjects (name, teacher_id) VALUES (?, ?) RETURNING id", sub.Name, sub.TeacherID)
	if err != nil {
		return user.Subject{}, errors.Wrap(err, "inserting subject")
	}
	sub.ID = id
	return sub, nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	var conds []string
	var args []interface{}
	if filter.ID != 0 {
		conds = append(conds, "id = ?")
		args = append(args, filter.ID)
	}
	if filter.Email != "" {
		conds = append(conds, "email = ?")
		args = append(args, filter.Email)
	}
	if filter.Role != "" {
		conds = append(conds, "role = ?")
		args = append(args, filter.Role)
	}
	if filter.Class != "" {
		conds = append(conds, "class = ?")
		args = append(args, filter.Class)
	}
	if len(conds) == 0 {
		return user.User{}, errEmptyFilter
	}

	var usr user.User
	q := selectUser + " WHERE " + strings.Join(conds, " AND ")
	if err := get(ctx, repo.getExec(exec), &usr, q, args...); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "selecting user")
	}
	return usr, nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, error) {
	var conds []string
	var args []interface{}
	if filter != nil {
		if filter.Role != "" {
			conds = append(conds, "role = ?")
			args = append(args, filter.Role)
		}
		if filter.Class != "" {
			conds = append(conds, "class = ?")
			args = append(args, filter.Class)
		}
	}

	q := selectUser
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY " + orderBy(ordering, user.OrderingFields, "created_at DESC, id DESC")

	users := make([]user.User, 0)
	if err := selectAll(ctx, repo.getExec(exec), &users, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting users")
	}
	return users, nil
}

func (repo userRepository) QueryStudents(ctx context.Context, class string, exec ...core.DBExecutor) ([]user.Student, error) {
	students := make([]user.Student, 0)
	err := selectAll(ctx, repo.getExec(exec), &students,
		"SELECT id, email, firstname FROM users WHERE role = ? AND class = ? ORDER BY firstname, id",
		access.RoleStudent, class)
	if err != nil {
		return nil, errors.Wrap(err, "selecting students")
	}
	return students, nil
}

func (repo userRepository) GetSubjectByTeacher(ctx context.Context, teacherID int64, exec ...core.DBExecutor) (user.Subject, error) {
	var sub user.Subject
	err := get(ctx, repo.getExec(exec), &sub, "SELECT id, name, teacher_id FROM subjects WHERE teacher_id = ?", teacherID)
	if err != nil {
		return user.Subject{}, trapNoRowsErr(err, user.ErrSubjectNotFound, "selecting subject")
	}
	return sub, nil
}

func (repo userRepository) UpdatePassword(ctx context.Context, usr user.User, exec ...core.DBExecutor) error {
	err := execAffecting(ctx, repo.getExec(exec), user.ErrNotFound,
		"UPDATE users SET password_hash = ? WHERE id = ?", usr.PasswordHash, usr.ID)
	if err != nil && !core.IsNotFoundError(err) {
		return errors.Wrap(err, "updating password")
	}
	return err
}

func (repo userRepository) DeleteUser(ctx context.Context, id int64, exec ...core.DBExecutor) error {
	ex := repo.getExec(exec)
	if _, err := ex.ExecContext(ctx, ex.Rebind("DELETE FROM subjects WHERE teacher_id = ?"), id); err != nil {
		return errors.Wrap(err, "deleting subject")
	}
	err := execAffecting(ctx, ex, user.ErrNotFound, "DELETE FROM users WHERE id = ?", id)
	if err != nil && !core.IsNotFoundError(err) {
		return errors.Wrap(err, "deleting user")
	}
	return err
}

// orderBy renders ordering, skipping fields not in allowed; id breaks ties.
func orderBy(ordering []core.DBOrdering, allowed map[string]bool, fallback string) string {
	clauses := make([]string, 0, len(ordering)+1)
	var hasID bool
	for _, ord := range ordering {
		if !allowed[ord.Field] {
			continue
		}
		hasID = hasID || ord.Field == "id"
		clauses = append(clauses, ord.String())
	}
	if len(clauses) == 0 {
		return fallback
	}
	if !hasID {
		clauses = append(clauses, "id ASC")
	}
	return strings.Join(clauses, ", ")
}
