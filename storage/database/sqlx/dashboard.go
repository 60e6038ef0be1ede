package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/iatic/ecole/core"
	"github.com/iatic/ecole/core/access"
	"github.com/iatic/ecole/core/dashboard"
)

type dashboardRepository struct {
	repository
}

var _ dashboard.Repository = (*dashboardRepository)(nil) // interface compliance check

func NewDashboardRepository(exec core.DBExecutor) *dashboardRepository {
	return &dashboardRepository{repository{exec: exec}}
}

func (repo dashboardRepository) GetClassStats(ctx context.Context, teacherID int64, exec ...core.DBExecutor) (dashboard.ClassStats, error) {
	var stats dashboard.ClassStats
	err := get(ctx, repo.getExec(exec), &stats, `
		SELECT AVG(n.value) AS average_class,
			(SELECT MAX(sa.average) FROM (
				SELECT AVG(value) AS average FROM notes WHERE teacher_id = ? GROUP BY student_id
			) sa) AS best_average,
			(SELECT MIN(sa.average) FROM (
				SELECT AVG(value) AS average FROM notes WHERE teacher_id = ? GROUP BY student_id
			) sa) AS lowest_average,
			COUNT(DISTINCT n.student_id) AS students_count,
			COUNT(n.id) AS notes_count
		FROM notes n
		WHERE n.teacher_id = ?`, teacherID, teacherID, teacherID)
	if err != nil {
		return dashboard.ClassStats{}, errors.Wrap(err, "selecting class stats")
	}
	return stats, nil
}

func (repo dashboardRepository) QuerySubjectAverages(ctx context.Context, teacherID int64, exec ...core.DBExecutor) ([]dashboard.SubjectAverage, error) {
	averages := make([]dashboard.SubjectAverage, 0)
	err := selectAll(ctx, repo.getExec(exec), &averages, `
		SELECT s.name AS subject, AVG(n.value) AS average, COUNT(DISTINCT n.student_id) AS students_count
		FROM notes n
		JOIN subjects s ON s.teacher_id = n.teacher_id
		WHERE n.teacher_id = ?
		GROUP BY s.name
		ORDER BY s.name`, teacherID)
	if err != nil {
		return nil, errors.Wrap(err, "selecting subject averages")
	}
	return averages, nil
}

func (repo dashboardRepository) QueryStudentsAtRisk(ctx context.Context, teacherID int64, threshold float64, limit int, exec ...core.DBExecutor) ([]dashboard.AtRiskStudent, error) {
	students := make([]dashboard.AtRiskStudent, 0)
	err := selectAll(ctx, repo.getExec(exec), &students, `
		SELECT u.id, u.firstname AS name, u.email, AVG(n.value) AS average, COUNT(n.id) AS notes_count
		FROM users u
		JOIN notes n ON n.student_id = u.id
		WHERE n.teacher_id = ? AND u.role = ?
		GROUP BY u.id, u.firstname, u.email
		HAVING AVG(n.value) < ?
		ORDER BY average ASC, u.id ASC
		LIMIT ?`, teacherID, access.RoleStudent, threshold, limit)
	if err != nil {
		return nil, errors.Wrap(err, "selecting students at risk")
	}
	return students, nil
}

func (repo dashboardRepository) QueryNotePoints(ctx context.Context, teacherID int64, exec ...core.DBExecutor) ([]dashboard.NotePoint, error) {
	points := make([]dashboard.NotePoint, 0)
	err := selectAll(ctx, repo.getExec(exec), &points,
		"SELECT value, created_at FROM notes WHERE teacher_id = ? ORDER BY created_at ASC, id ASC", teacherID)
	if err != nil {
		return nil, errors.Wrap(err, "selecting note points")
	}
	return points, nil
}
