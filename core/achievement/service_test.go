package achievement_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mwalimu/sifa/core"
	"github.com/mwalimu/sifa/core/achievement"
	"github.com/mwalimu/sifa/core/user"
	emailsvc "github.com/mwalimu/sifa/services/email"
	dummydb "github.com/mwalimu/sifa/storage/database/dummy"
	testutil "github.com/mwalimu/sifa/tests"
)

func setup() (user.Repository, achievement.Repository, achievement.ServiceInterface) {
	db := dummydb.NewDB()
	usrRepo := dummydb.NewUserRepository(db)
	achRepo := dummydb.NewAchievementRepository(db)
	usrSvc := user.NewService(db, usrRepo, nil)
	achSvc := achievement.NewService(achRepo, usrSvc, emailsvc.NewConsoleServiceMock(), nil)
	return usrRepo, achRepo, achSvc
}

func Test_service_Create(t *testing.T) {
	usrRepo, _, svc := setup()
	ctx := context.Background()

	testutil.CreateUser(t, usrRepo, "Jane Achieng", "T001", user.RoleTeacher, "")

	na := achievement.NewAchievement{
		Teacher:         "T001",
		AcademicYear:    "2024-2025",
		CertificateYear: 2024,
		Title:           "Best Paper Award",
		Description:     "Won the best paper award at the national conference",
		CertificateLink: "https://certs.example.com/123",
	}

	t.Run("unknown teacher", func(t *testing.T) {
		bad := na
		bad.Teacher = "T404"
		_, err := svc.Create(ctx, bad)
		vErr, ok := err.(*core.ValidationError)
		if assert.True(t, ok, "expected *core.ValidationError, got %v", err) {
			assert.Equal(t, "teacher", vErr.Fields[0].Field)
		}
	})

	t.Run("submitted under review", func(t *testing.T) {
		ach, err := svc.Create(ctx, na)
		assert.NoError(t, err)
		assert.NotEmpty(t, ach.ID)
		assert.Equal(t, achievement.StatusUnderReview, ach.Status)
		assert.False(t, ach.IsReviewed())
		assert.Nil(t, ach.ReviewedAt)
		assert.False(t, ach.SubmittedAt.IsZero())
	})
}

func Test_service_Review(t *testing.T) {
	usrRepo, achRepo, svc := setup()
	ctx := context.Background()

	owner := testutil.CreateUser(t, usrRepo, "Jane Achieng", "T001", user.RoleTeacher, "")
	owner.Email = "jane@school.ac.ke"
	if _, err := usrRepo.UpdateUser(ctx, owner); err != nil {
		t.Fatalf("UpdateUser() failed: %v", err)
	}
	testutil.CreateUser(t, usrRepo, "John Otieno", "T002", user.RoleHod, "")

	ach := testutil.CreateAchievement(t, achRepo, "T001", "Best Paper Award", "")

	t.Run("approve", func(t *testing.T) {
		sent := len(emailsvc.SentMessages)

		reviewed, err := svc.Review(ctx, ach.ID, achievement.StatusApproved, "T002")
		assert.NoError(t, err)
		assert.Equal(t, achievement.StatusApproved, reviewed.Status)
		assert.Equal(t, "T002", reviewed.ReviewedBy)
		assert.NotNil(t, reviewed.ReviewedAt)
		assert.True(t, reviewed.IsReviewed())

		// the owner is notified
		assert.Len(t, emailsvc.SentMessages, sent+1)
	})

	t.Run("second review conflicts", func(t *testing.T) {
		_, err := svc.Review(ctx, ach.ID, achievement.StatusRejected, "T002")
		assert.Equal(t, achievement.ErrAlreadyReviewed, err)

		// the decision did not change
		got, err := svc.GetByID(ctx, ach.ID)
		assert.NoError(t, err)
		assert.Equal(t, achievement.StatusApproved, got.Status)
	})

	t.Run("unknown achievement", func(t *testing.T) {
		_, err := svc.Review(ctx, "00000000-0000-0000-0000-000000000000", achievement.StatusApproved, "T002")
		assert.Equal(t, achievement.ErrNotFound, err)
	})
}

func Test_service_queries(t *testing.T) {
	usrRepo, achRepo, svc := setup()
	ctx := context.Background()

	testutil.CreateUser(t, usrRepo, "Jane Achieng", "T001", user.RoleTeacher, "")
	testutil.CreateUser(t, usrRepo, "Mary Wanjiku", "T003", user.RoleTeacher, "")

	approved := testutil.CreateAchievement(t, achRepo, "T001", "Best Paper Award", achievement.StatusApproved)
	pending := testutil.CreateAchievement(t, achRepo, "T001", "Mentorship Program", "")
	testutil.CreateAchievement(t, achRepo, "T003", "Hackathon Winner", achievement.StatusRejected)

	t.Run("by teacher", func(t *testing.T) {
		achs, err := svc.QueryByTeacher(ctx, "t001") // case-insensitive key
		assert.NoError(t, err)
		assert.Len(t, achs, 2)
	})

	t.Run("pending only", func(t *testing.T) {
		achs, err := svc.QueryPending(ctx)
		assert.NoError(t, err)
		if assert.Len(t, achs, 1) {
			assert.Equal(t, pending.ID, achs[0].ID)
		}
	})

	t.Run("search returns approved only", func(t *testing.T) {
		achs, err := svc.Search(ctx, nil)
		assert.NoError(t, err)
		if assert.Len(t, achs, 1) {
			assert.Equal(t, approved.ID, achs[0].ID)
		}

		// a matching keyword cannot surface unreviewed or rejected records
		achs, err = svc.Search(ctx, &achievement.QueryFilter{Search: "hackathon"})
		assert.NoError(t, err)
		assert.Empty(t, achs)
	})

	t.Run("stats", func(t *testing.T) {
		stats, err := svc.Stats(ctx)
		assert.NoError(t, err)
		assert.Equal(t, achievement.Stats{Total: 3, UnderReview: 1, Approved: 1, Rejected: 1}, stats)
	})
}
