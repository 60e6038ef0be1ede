package dashboard

import (
	"context"

	"github.com/pkg/errors"

	"github.com/iatic/ecole/core"
	"github.com/iatic/ecole/core/access"
	"github.com/iatic/ecole/core/note"
)

const (
	// AtRiskThreshold is the average under which a student is at risk.
	AtRiskThreshold = 10
	AtRiskLimit     = 5
	TimelineDays    = 10
	TimelineLayout  = "02/01/2006"
)

type (
	Repository interface {
		GetClassStats(ctx context.Context, teacherID int64, exec ...core.DBExecutor) (ClassStats, error)
		QuerySubjectAverages(ctx context.Context, teacherID int64, exec ...core.DBExecutor) ([]SubjectAverage, error)
		// QueryStudentsAtRisk returns up to limit students graded by teacherID averaging under threshold, lowest first.
		QueryStudentsAtRisk(ctx context.Context, teacherID int64, threshold float64, limit int, exec ...core.DBExecutor) ([]AtRiskStudent, error)
		// QueryNotePoints returns the notes teacherID gave, oldest first.
		QueryNotePoints(ctx context.Context, teacherID int64, exec ...core.DBExecutor) ([]NotePoint, error)
	}

	Service interface {
		Teacher(ctx context.Context, id access.Identity) (TeacherDashboard, error)
	}

	service struct {
		db   core.DB
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository) Service {
	return &service{db: db, repo: repo}
}

func (svc *service) Teacher(ctx context.Context, id access.Identity) (TeacherDashboard, error) {
	if err := access.Require(id, access.RoleTeacher); err != nil {
		return TeacherDashboard{}, err
	}

	var d TeacherDashboard
	err := core.WithTx(ctx, svc.db, func(tx core.DBExecutor) error {
		var err error
		if d.ClassStats, err = svc.repo.GetClassStats(ctx, id.UserID, tx); err != nil {
			return errors.Wrap(err, "getting class stats")
		}
		if d.ClassStats.SubjectAverages, err = svc.repo.QuerySubjectAverages(ctx, id.UserID, tx); err != nil {
			return errors.Wrap(err, "querying subject averages")
		}
		if d.StudentsAtRisk, err = svc.repo.QueryStudentsAtRisk(ctx, id.UserID, AtRiskThreshold, AtRiskLimit, tx); err != nil {
			return errors.Wrap(err, "querying students at risk")
		}
		points, err := svc.repo.QueryNotePoints(ctx, id.UserID, tx)
		if err != nil {
			return errors.Wrap(err, "querying note points")
		}
		d.NotesTimeline = BuildTimeline(points, TimelineDays)
		return nil
	})
	if err != nil {
		return TeacherDashboard{}, err
	}

	if d.ClassStats.SubjectAverages == nil {
		d.ClassStats.SubjectAverages = []SubjectAverage{}
	}
	if d.StudentsAtRisk == nil {
		d.StudentsAtRisk = []AtRiskStudent{}
	}
	return d, nil
}

// BuildTimeline averages points per UTC calendar day and keeps the last days, oldest first.
// points must be sorted by CreatedAt.
func BuildTimeline(points []NotePoint, days int) Timeline {
	tl := Timeline{Dates: []string{}, Values: []float64{}}

	var values [][]float64
	var last string
	for _, p := range points {
		day := p.CreatedAt.UTC().Format(TimelineLayout)
		if day != last {
			tl.Dates = append(tl.Dates, day)
			values = append(values, nil)
			last = day
		}
		values[len(values)-1] = append(values[len(values)-1], p.Value)
	}
	for _, v := range values {
		tl.Values = append(tl.Values, note.Average(v))
	}

	if len(tl.Dates) > days {
		tl.Dates = tl.Dates[len(tl.Dates)-days:]
		tl.Values = tl.Values[len(tl.Values)-days:]
	}
	return tl
}
