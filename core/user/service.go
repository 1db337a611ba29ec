package user

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/mwalimu/sifa/core"
)

var (
	// errors
	ErrNotFound        = errors.New("user not found")
	ErrTeacherIDExists = errors.New("a user with this teacher ID already exists")
)

type (
	Repository interface {
		CheckTeacherIDUniqueness(ctx context.Context, teacherID string, exec ...core.DBExecutor) error
		CreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		GetUser(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.TeacherID, User.Name or User.Designation.
		QueryUsers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]User, error)
		// LockUsersByRole selects all users with the given role, locking the
		// rows for update when run inside a transaction.
		LockUsersByRole(ctx context.Context, role string, exec ...core.DBExecutor) ([]User, error)
		CountUsersByRole(ctx context.Context, role string, exec ...core.DBExecutor) (int, error)
		UpdateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		UpdateOrCreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		SetUserRole(ctx context.Context, id, role string, updatedAt time.Time, exec ...core.DBExecutor) (User, error)
	}

	ServiceInterface interface {
		CheckUniqueness(teacherID string) error
		Create(ctx context.Context, nu NewUser) (User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByTeacherID(ctx context.Context, teacherID string) (User, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error)
		CountByRole(ctx context.Context, role string) (int, error)
		Update(ctx context.Context, id string, uu UpdateUser) (User, error)
		ChangePassword(ctx context.Context, usr User, cp ChangePassword) (User, error)
		SetRole(ctx context.Context, id, newRole string) (User, error)
		SetLastLogin(ctx context.Context, usr User) (User, error)
	}

	service struct {
		db   core.DB
		repo Repository
		log  core.Logger
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(db core.DB, repo Repository, log core.Logger) *service {
	return &service{db: db, repo: repo, log: log}
}

func (svc *service) CheckUniqueness(teacherID string) error {
	if err := svc.repo.CheckTeacherIDUniqueness(context.Background(), teacherID); err != nil {
		if errors.Cause(err) == ErrTeacherIDExists {
			return core.NewValidationError(err, core.FieldError{Field: "teacher_id", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		TeacherID:   nu.TeacherID,
		Name:        nu.Name,
		Phone:       nu.Phone,
		Designation: nu.Designation,
		Email:       nu.Email,
		Role:        nu.Role,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *service) GetByTeacherID(ctx context.Context, teacherID string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{TeacherID: CleanTeacherID(teacherID)})
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error) {
	return svc.repo.QueryUsers(ctx, filter, ordering)
}

func (svc *service) CountByRole(ctx context.Context, role string) (int, error) {
	return svc.repo.CountUsersByRole(ctx, role)
}

func (svc *service) Update(ctx context.Context, id string, uu UpdateUser) (User, error) {
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: id})
	if err != nil {
		return User{}, err
	}
	usr.Name = uu.Name
	usr.Phone = uu.Phone
	usr.Designation = uu.Designation
	usr.Email = uu.Email
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) ChangePassword(ctx context.Context, usr User, cp ChangePassword) (User, error) {
	if err := usr.CheckPassword(cp.OldPassword); err != nil {
		return User{}, core.NewValidationError(nil, core.FieldError{Field: "old_password", Error: "old password is incorrect"})
	}
	if err := usr.SetPassword(cp.NewPassword); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// SetRole changes a user's role.
//
// Promoting to admin demotes every current hod back to teacher within the
// same transaction; the hod rows are locked first so concurrent promotions
// serialize instead of both acting on the same pre-cascade hod list.
func (svc *service) SetRole(ctx context.Context, id, newRole string) (User, error) {
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: id})
	if err != nil {
		return User{}, err
	}

	// only roles below admin can be reassigned; student accounts are read-only
	if usr.IsStudent() || RolePriority(usr.Role) >= RolePriority(RoleAdmin) {
		return User{}, core.NewValidationError(nil, core.FieldError{Field: "role", Error: "only teachers and heads of department can change role"})
	}
	switch newRole {
	case RoleTeacher, RoleHod, RoleAdmin:
	default:
		return User{}, core.NewValidationError(nil, core.FieldError{Field: "role", Error: "invalid role"})
	}

	now := time.Now().UTC()
	if newRole != RoleAdmin {
		return svc.repo.SetUserRole(ctx, usr.ID, newRole, now)
	}

	tx, err := svc.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return User{}, errors.Wrap(err, "beginning promotion transaction")
	}
	defer func() { _ = tx.Rollback() }()

	hods, err := svc.repo.LockUsersByRole(ctx, RoleHod, tx)
	if err != nil {
		return User{}, errors.Wrap(err, "locking hods")
	}
	for _, hod := range hods {
		if _, err = svc.repo.SetUserRole(ctx, hod.ID, RoleTeacher, now, tx); err != nil {
			return User{}, errors.Wrap(err, "demoting hod")
		}
	}
	if usr, err = svc.repo.SetUserRole(ctx, usr.ID, RoleAdmin, now, tx); err != nil {
		return User{}, errors.Wrap(err, "promoting user")
	}
	if err = tx.Commit(); err != nil {
		return User{}, errors.Wrap(err, "committing promotion transaction")
	}

	if svc.log != nil {
		svc.log.Info("user promoted to admin", map[string]interface{}{"teacher_id": usr.TeacherID, "demoted_hods": len(hods)})
	}
	return usr, nil
}

func (svc *service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}
