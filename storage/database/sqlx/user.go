package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mwalimu/sifa/core"
	"github.com/mwalimu/sifa/core/user"
)

type userRepository struct {
	exec core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{exec: exec}
}

func (repo userRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

type userRow struct {
	ID           string      `db:"id"`
	TeacherID    string      `db:"teacher_id"`
	Name         null.String `db:"name"`
	Phone        null.String `db:"phone"`
	Designation  null.String `db:"designation"`
	Email        null.String `db:"email"`
	Role         string      `db:"role"`
	PasswordHash []byte      `db:"password_hash"`
	CreatedAt    null.Time   `db:"created_at"`
	UpdatedAt    null.Time   `db:"updated_at"`
	LastLogin    null.Time   `db:"last_login"`
}

func (repo userRepository) toRow(usr user.User) userRow {
	return userRow{
		ID:           usr.ID,
		TeacherID:    usr.TeacherID,
		Name:         null.NewString(usr.Name, usr.Name != ""),
		Phone:        null.NewString(usr.Phone, usr.Phone != ""),
		Designation:  null.NewString(usr.Designation, usr.Designation != ""),
		Email:        null.NewString(usr.Email, usr.Email != ""),
		Role:         usr.Role,
		PasswordHash: usr.PasswordHash,
		CreatedAt:    null.NewTime(usr.CreatedAt.UTC(), !usr.CreatedAt.IsZero()),
		UpdatedAt:    null.NewTime(usr.UpdatedAt.UTC(), !usr.UpdatedAt.IsZero()),
		LastLogin:    null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

func (repo userRepository) fromRow(row userRow) user.User {
	return user.User{
		ID:           row.ID,
		TeacherID:    row.TeacherID,
		Name:         row.Name.String,
		Phone:        row.Phone.String,
		Designation:  row.Designation.String,
		Email:        row.Email.String,
		Role:         row.Role,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt.Time,
		UpdatedAt:    row.UpdatedAt.Time,
		LastLogin:    row.LastLogin.Time,
	}
}

func (repo userRepository) fromRows(rows []userRow) []user.User {
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, repo.fromRow(row))
	}
	return users
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

const userColumns = `id, teacher_id, name, phone, designation, email, role, password_hash, created_at, updated_at, last_login`

func (repo userRepository) CheckTeacherIDUniqueness(ctx context.Context, teacherID string, exec ...core.DBExecutor) error {
	var exists bool
	q := `SELECT EXISTS(SELECT 1 FROM "user" WHERE teacher_id = $1)`
	if err := repo.getExec(exec).GetContext(ctx, &exists, q, teacherID); err != nil {
		return errors.Wrap(err, "checking teacher ID uniqueness")
	}
	if exists {
		return user.ErrTeacherIDExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	usr.ID = uuid.New().String()
	row := repo.toRow(usr)
	q := `INSERT INTO "user" (` + userColumns + `)
	      VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := repo.getExec(exec).ExecContext(ctx, q,
		row.ID, row.TeacherID, row.Name, row.Phone, row.Designation, row.Email,
		row.Role, row.PasswordHash, row.CreatedAt, row.UpdatedAt, row.LastLogin)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return repo.fromRow(row), nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	var row userRow
	exe := repo.getExec(exec)

	if filter.ID != "" {
		if _, err := uuid.Parse(filter.ID); err != nil {
			return user.User{}, user.ErrNotFound
		}
		q := `SELECT ` + userColumns + ` FROM "user" WHERE id = $1`
		if err := exe.GetContext(ctx, &row, q, filter.ID); err != nil {
			return user.User{}, repo.trapNoRowsErr(err, "finding user by ID")
		}
	} else {
		q := `SELECT ` + userColumns + ` FROM "user" WHERE teacher_id = $1`
		if err := exe.GetContext(ctx, &row, q, filter.TeacherID); err != nil {
			return user.User{}, repo.trapNoRowsErr(err, "finding user by teacher ID")
		}
	}
	return repo.fromRow(row), nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, error) {
	var (
		conds []string
		args  []interface{}
	)
	arg := func(val interface{}) string {
		args = append(args, val)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil && !filter.IsEmpty() {
		// users with TeacherID, Name or Designation matching the search keyword
		if filter.Search != "" {
			val := arg("%" + filter.Search + "%")
			conds = append(conds, fmt.Sprintf("(teacher_id ILIKE %s OR name ILIKE %s OR designation ILIKE %s)", val, val, val))
		}
		if len(filter.Roles) > 0 {
			conds = append(conds, fmt.Sprintf("role = ANY(%s)", arg(pq.Array(filter.Roles))))
		}
		if !filter.CreatedFrom.IsZero() {
			conds = append(conds, fmt.Sprintf("created_at >= %s", arg(filter.CreatedFrom.UTC())))
		}
		if !filter.CreatedTo.IsZero() {
			conds = append(conds, fmt.Sprintf("created_at <= %s", arg(filter.CreatedTo.UTC())))
		}
	}

	q := `SELECT ` + userColumns + ` FROM "user"`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	if len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
		q += " ORDER BY " + strings.Join(orderList, ", ")
	}

	var rows []userRow
	if err := repo.getExec(exec).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return repo.fromRows(rows), nil
}

func (repo userRepository) LockUsersByRole(ctx context.Context, role string, exec ...core.DBExecutor) ([]user.User, error) {
	var rows []userRow
	q := `SELECT ` + userColumns + ` FROM "user" WHERE role = $1 FOR UPDATE`
	if err := repo.getExec(exec).SelectContext(ctx, &rows, q, role); err != nil {
		return nil, errors.Wrap(err, "locking users by role")
	}
	return repo.fromRows(rows), nil
}

func (repo userRepository) CountUsersByRole(ctx context.Context, role string, exec ...core.DBExecutor) (int, error) {
	var count int
	q := `SELECT count(*) FROM "user" WHERE role = $1`
	if err := repo.getExec(exec).GetContext(ctx, &count, q, role); err != nil {
		return 0, errors.Wrap(err, "counting users by role")
	}
	return count, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	row := repo.toRow(usr)
	q := `UPDATE "user"
	      SET name = $2, phone = $3, designation = $4, email = $5, role = $6,
	          password_hash = $7, updated_at = $8, last_login = $9
	      WHERE id = $1`
	res, err := repo.getExec(exec).ExecContext(ctx, q,
		row.ID, row.Name, row.Phone, row.Designation, row.Email, row.Role,
		row.PasswordHash, row.UpdatedAt, row.LastLogin)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.fromRow(row), nil
}

func (repo userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	if usr.ID == "" {
		return repo.CreateUser(ctx, usr, exec...)
	}
	return repo.UpdateUser(ctx, usr, exec...)
}

func (repo userRepository) SetUserRole(ctx context.Context, id, role string, updatedAt time.Time, exec ...core.DBExecutor) (user.User, error) {
	var row userRow
	q := `UPDATE "user" SET role = $2, updated_at = $3 WHERE id = $1 RETURNING ` + userColumns
	if err := repo.getExec(exec).GetContext(ctx, &row, q, id, role, updatedAt.UTC()); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "setting user role")
	}
	return repo.fromRow(row), nil
}
