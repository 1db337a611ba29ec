package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mwalimu/sifa/core"
	"github.com/mwalimu/sifa/core/user"
	dummydb "github.com/mwalimu/sifa/storage/database/dummy"
	testutil "github.com/mwalimu/sifa/tests"
)

func setup() (*dummydb.DB, user.Repository, user.ServiceInterface) {
	db := dummydb.NewDB()
	repo := dummydb.NewUserRepository(db)
	return db, repo, user.NewService(db, repo, nil)
}

func Test_service_Create(t *testing.T) {
	_, _, svc := setup()
	ctx := context.Background()

	usr, err := svc.Create(ctx, user.NewUser{
		TeacherID:       "T001",
		Name:            "Jane Achieng",
		Password:        "s3cr3t-s4uce",
		PasswordConfirm: "s3cr3t-s4uce",
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, usr.ID)
	assert.Equal(t, "T001", usr.TeacherID)
	assert.NoError(t, usr.CheckPassword("s3cr3t-s4uce"))
	assert.Error(t, usr.CheckPassword("wrong"))
	assert.False(t, usr.CreatedAt.IsZero())

	// lookups normalize the human key
	found, err := svc.GetByTeacherID(ctx, "t001")
	assert.NoError(t, err)
	assert.Equal(t, usr.ID, found.ID)

	_, err = svc.GetByTeacherID(ctx, "T404")
	assert.Equal(t, user.ErrNotFound, err)
}

func Test_service_CheckUniqueness(t *testing.T) {
	_, repo, svc := setup()

	testutil.CreateUser(t, repo, "Jane Achieng", "T001", user.RoleTeacher, "")

	err := svc.CheckUniqueness("T001")
	vErr, ok := err.(*core.ValidationError)
	if assert.True(t, ok, "expected *core.ValidationError, got %v", err) {
		assert.Equal(t, "teacher_id", vErr.Fields[0].Field)
	}

	assert.NoError(t, svc.CheckUniqueness("T002"))
}

func Test_service_ChangePassword(t *testing.T) {
	_, repo, svc := setup()
	ctx := context.Background()

	usr := testutil.CreateUser(t, repo, "Jane Achieng", "T001", user.RoleTeacher, "0ldPassword!")

	_, err := svc.ChangePassword(ctx, usr, user.ChangePassword{
		OldPassword:     "not-the-old-one",
		NewPassword:     "n3wPassword!",
		PasswordConfirm: "n3wPassword!",
	})
	vErr, ok := err.(*core.ValidationError)
	if assert.True(t, ok, "expected *core.ValidationError, got %v", err) {
		assert.Equal(t, "old_password", vErr.Fields[0].Field)
	}

	updated, err := svc.ChangePassword(ctx, usr, user.ChangePassword{
		OldPassword:     "0ldPassword!",
		NewPassword:     "n3wPassword!",
		PasswordConfirm: "n3wPassword!",
	})
	assert.NoError(t, err)
	assert.NoError(t, updated.CheckPassword("n3wPassword!"))
}

func Test_service_SetRole(t *testing.T) {
	_, repo, svc := setup()
	ctx := context.Background()

	teacher := testutil.CreateUser(t, repo, "Jane Achieng", "T001", user.RoleTeacher, "")
	hod1 := testutil.CreateUser(t, repo, "John Otieno", "T002", user.RoleHod, "")
	hod2 := testutil.CreateUser(t, repo, "Mary Wanjiku", "T003", user.RoleHod, "")
	hod3 := testutil.CreateUser(t, repo, "Peter Kamau", "T005", user.RoleHod, "")
	admin := testutil.CreateUser(t, repo, "Head Admin", "T004", user.RoleAdmin, "")
	student := testutil.CreateUser(t, repo, "Sam Njoroge", "S001", user.RoleStudent, "")

	t.Run("teacher to hod", func(t *testing.T) {
		usr, err := svc.SetRole(ctx, teacher.ID, user.RoleHod)
		assert.NoError(t, err)
		assert.Equal(t, user.RoleHod, usr.Role)

		// no cascade on a non-admin change
		u1, _ := svc.GetByID(ctx, hod1.ID)
		u2, _ := svc.GetByID(ctx, hod2.ID)
		u3, _ := svc.GetByID(ctx, hod3.ID)
		assert.Equal(t, user.RoleHod, u1.Role)
		assert.Equal(t, user.RoleHod, u2.Role)
		assert.Equal(t, user.RoleHod, u3.Role)

		// back to teacher for the next cases
		_, err = svc.SetRole(ctx, teacher.ID, user.RoleTeacher)
		assert.NoError(t, err)
	})

	t.Run("admins cannot be reassigned", func(t *testing.T) {
		_, err := svc.SetRole(ctx, admin.ID, user.RoleTeacher)
		vErr, ok := err.(*core.ValidationError)
		if assert.True(t, ok, "expected *core.ValidationError, got %v", err) {
			assert.Equal(t, "role", vErr.Fields[0].Field)
		}
	})

	t.Run("students cannot be reassigned", func(t *testing.T) {
		_, err := svc.SetRole(ctx, student.ID, user.RoleTeacher)
		vErr, ok := err.(*core.ValidationError)
		if assert.True(t, ok, "expected *core.ValidationError, got %v", err) {
			assert.Equal(t, "role", vErr.Fields[0].Field)
		}
	})

	t.Run("invalid role rejected", func(t *testing.T) {
		_, err := svc.SetRole(ctx, teacher.ID, "superuser")
		vErr, ok := err.(*core.ValidationError)
		if assert.True(t, ok, "expected *core.ValidationError, got %v", err) {
			assert.Equal(t, "role", vErr.Fields[0].Field)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.SetRole(ctx, "00000000-0000-0000-0000-000000000000", user.RoleHod)
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("promotion to admin demotes all hods", func(t *testing.T) {
		hods, err := repo.LockUsersByRole(ctx, user.RoleHod)
		assert.NoError(t, err)
		assert.Len(t, hods, 3)

		usr, err := svc.SetRole(ctx, teacher.ID, user.RoleAdmin)
		assert.NoError(t, err)
		assert.Equal(t, user.RoleAdmin, usr.Role)

		hods, err = repo.LockUsersByRole(ctx, user.RoleHod)
		assert.NoError(t, err)
		assert.Empty(t, hods)

		u1, _ := svc.GetByID(ctx, hod1.ID)
		u2, _ := svc.GetByID(ctx, hod2.ID)
		u3, _ := svc.GetByID(ctx, hod3.ID)
		assert.Equal(t, user.RoleTeacher, u1.Role)
		assert.Equal(t, user.RoleTeacher, u2.Role)
		assert.Equal(t, user.RoleTeacher, u3.Role)

		// the previous admin keeps their seat
		a, _ := svc.GetByID(ctx, admin.ID)
		assert.Equal(t, user.RoleAdmin, a.Role)
	})
}

func Test_service_Query(t *testing.T) {
	_, repo, svc := setup()
	ctx := context.Background()

	teacher := testutil.CreateUser(t, repo, "Jane Achieng", "T001", user.RoleTeacher, "")
	hod := testutil.CreateUser(t, repo, "John Otieno", "T002", user.RoleHod, "")

	users, err := svc.Query(ctx, nil, nil)
	assert.NoError(t, err)
	assert.Len(t, users, 2)

	users, err = svc.Query(ctx, &user.QueryFilter{Roles: []string{user.RoleHod}}, nil)
	assert.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, hod.ID, users[0].ID)

	users, err = svc.Query(ctx, &user.QueryFilter{Search: "achieng"}, nil)
	assert.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, teacher.ID, users[0].ID)

	count, err := svc.CountByRole(ctx, user.RoleTeacher)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}
