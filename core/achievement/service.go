package achievement

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/mwalimu/sifa/core"
	"github.com/mwalimu/sifa/core/user"
)

var (
	// errors
	ErrNotFound        = errors.New("achievement not found")
	ErrAlreadyReviewed = errors.New("achievement has already been reviewed")
)

type (
	Repository interface {
		CreateAchievement(ctx context.Context, ach Achievement, exec ...core.DBExecutor) (Achievement, error)
		GetAchievement(ctx context.Context, id string, exec ...core.DBExecutor) (Achievement, error)
		// QueryAchievements applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on Title or Description.
		QueryAchievements(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Achievement, error)
		// ReviewAchievement transitions the record to the given terminal status
		// only if it is still under review; reports whether a row changed.
		ReviewAchievement(ctx context.Context, id, status, reviewedBy string, reviewedAt time.Time, exec ...core.DBExecutor) (Achievement, bool, error)
		CountAchievementsByStatus(ctx context.Context, exec ...core.DBExecutor) (Stats, error)
	}

	// UserDirectory resolves teacher identifiers to user records; satisfied
	// by user.ServiceInterface.
	UserDirectory interface {
		GetByTeacherID(ctx context.Context, teacherID string) (user.User, error)
	}

	ServiceInterface interface {
		Create(ctx context.Context, na NewAchievement) (Achievement, error)
		GetByID(ctx context.Context, id string) (Achievement, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Achievement, error)
		QueryByTeacher(ctx context.Context, teacherID string) ([]Achievement, error)
		QueryPending(ctx context.Context) ([]Achievement, error)
		// Search returns approved achievements only; it backs the public
		// (unauthenticated) search endpoint.
		Search(ctx context.Context, filter *QueryFilter) ([]Achievement, error)
		Review(ctx context.Context, id, status, reviewerTeacherID string) (Achievement, error)
		Stats(ctx context.Context) (Stats, error)
	}

	service struct {
		repo    Repository
		users   UserDirectory
		mailSvc core.EmailService
		log     core.Logger
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, users UserDirectory, mailSvc core.EmailService, log core.Logger) *service {
	return &service{repo: repo, users: users, mailSvc: mailSvc, log: log}
}

func (svc *service) Create(ctx context.Context, na NewAchievement) (Achievement, error) {
	// the owning teacher must resolve
	if _, err := svc.users.GetByTeacherID(ctx, na.Teacher); err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return Achievement{}, core.NewValidationError(err, core.FieldError{Field: "teacher", Error: "unknown teacher"})
		}
		return Achievement{}, errors.Wrap(err, "resolving teacher")
	}

	ach := Achievement{
		Teacher:         na.Teacher,
		AcademicYear:    na.AcademicYear,
		CertificateYear: na.CertificateYear,
		Title:           na.Title,
		Description:     na.Description,
		CertificateLink: na.CertificateLink,
		Status:          StatusUnderReview,
		SubmittedAt:     time.Now().UTC(),
	}
	return svc.repo.CreateAchievement(ctx, ach)
}

func (svc *service) GetByID(ctx context.Context, id string) (Achievement, error) {
	return svc.repo.GetAchievement(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Achievement, error) {
	return svc.repo.QueryAchievements(ctx, filter, ordering)
}

func (svc *service) QueryByTeacher(ctx context.Context, teacherID string) ([]Achievement, error) {
	return svc.repo.QueryAchievements(ctx, &QueryFilter{Teacher: user.CleanTeacherID(teacherID)}, nil)
}

func (svc *service) QueryPending(ctx context.Context) ([]Achievement, error) {
	return svc.repo.QueryAchievements(ctx, &QueryFilter{Status: StatusUnderReview}, nil)
}

func (svc *service) Search(ctx context.Context, filter *QueryFilter) ([]Achievement, error) {
	if filter == nil {
		filter = new(QueryFilter)
	}
	filter.Status = StatusApproved
	return svc.repo.QueryAchievements(ctx, filter, nil)
}

// Review transitions an under-review Achievement to Approved or Rejected.
// A record that already reached a terminal status cannot be reviewed again.
func (svc *service) Review(ctx context.Context, id, status, reviewerTeacherID string) (Achievement, error) {
	ach, err := svc.repo.GetAchievement(ctx, id)
	if err != nil {
		return Achievement{}, err
	}
	if ach.IsReviewed() {
		return Achievement{}, ErrAlreadyReviewed
	}

	// compare-and-set on the status column; a concurrent reviewer losing the
	// race gets ErrAlreadyReviewed rather than silently overwriting.
	ach, changed, err := svc.repo.ReviewAchievement(ctx, id, status, reviewerTeacherID, time.Now().UTC())
	if err != nil {
		return Achievement{}, err
	}
	if !changed {
		return Achievement{}, ErrAlreadyReviewed
	}

	svc.notifyReviewed(ctx, ach)
	return ach, nil
}

func (svc *service) Stats(ctx context.Context) (Stats, error) {
	return svc.repo.CountAchievementsByStatus(ctx)
}

// notifyReviewed emails the owning teacher about the decision, when an
// address is on file. Failures are logged, never surfaced to the reviewer.
func (svc *service) notifyReviewed(ctx context.Context, ach Achievement) {
	if svc.mailSvc == nil {
		return
	}
	owner, err := svc.users.GetByTeacherID(ctx, ach.Teacher)
	if err != nil {
		if svc.log != nil {
			svc.log.Warn("resolving achievement owner for notification", errors.Wrap(err, "finding user by teacher ID"))
		}
		return
	}
	if owner.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: owner.Name, Address: owner.Email}},
		Subject: fmt.Sprintf("Your achievement %q has been %s", ach.Title, ach.Status),
		BodyStr: fmt.Sprintf(
			"Hello %s,\n\nYour achievement %q (%s) has been %s by %s.\n",
			owner.Name, ach.Title, ach.AcademicYear, ach.Status, ach.ReviewedBy),
	})
}
