package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/mwalimu/sifa/core/achievement"
	"github.com/mwalimu/sifa/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, teacherID, role, pwd string,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		TeacherID: user.CleanTeacherID(teacherID),
		Role:      role,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateAchievement(
	t *testing.T,
	repo achievement.Repository,
	teacherID, title, status string,
	submittedAt ...time.Time,
) achievement.Achievement {
	tstamp := time.Now().UTC()
	if len(submittedAt) > 0 {
		tstamp = submittedAt[0].UTC()
	}
	ach := achievement.Achievement{
		Teacher:         user.CleanTeacherID(teacherID),
		AcademicYear:    "2024-2025",
		CertificateYear: 2024,
		Title:           title,
		Description:     "Awarded for " + title,
		CertificateLink: "https://certs.example.com/" + teacherID,
		Status:          achievement.StatusUnderReview,
		SubmittedAt:     tstamp,
	}
	ach, err := repo.CreateAchievement(context.Background(), ach)
	if err != nil {
		t.Fatalf("CreateAchievement() failed: %v", err)
	}
	if status != "" && status != achievement.StatusUnderReview {
		reviewed, _, err := repo.ReviewAchievement(context.Background(), ach.ID, status, "T-REVIEW", tstamp)
		if err != nil {
			t.Fatalf("CreateAchievement() failed: %v", err)
		}
		ach = reviewed
	}
	return ach
}
