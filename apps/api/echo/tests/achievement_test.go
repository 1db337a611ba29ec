package tests

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	echoapi "github.com/mwalimu/sifa/apps/api/echo"
	"github.com/mwalimu/sifa/core/achievement"
	"github.com/mwalimu/sifa/core/user"
	testutil "github.com/mwalimu/sifa/tests"
)

func newAchievementBody(t *testing.T, teacher string) []byte {
	return marchallObj(t, achievement.NewAchievement{
		Teacher:         teacher,
		AcademicYear:    "2024-2025",
		CertificateYear: 2024,
		Title:           "Best Paper Award",
		Description:     "Won the best paper award at the national conference",
		CertificateLink: "https://certs.example.com/123",
	})
}

func Test_achievementApi_create(t *testing.T) {
	resetDB(t)

	teacher := testutil.CreateUser(t, usrRepo, "Jane Achieng", "T001", user.RoleTeacher, "")
	teacher2 := testutil.CreateUser(t, usrRepo, "Mary Wanjiku", "T002", user.RoleTeacher, "")
	hod := testutil.CreateUser(t, usrRepo, "John Otieno", "T003", user.RoleHod, "")
	admin := testutil.CreateUser(t, usrRepo, "Head Admin", "T004", user.RoleAdmin, "")

	futureYear := marchallObj(t, achievement.NewAchievement{
		AcademicYear:    "2024-2025",
		CertificateYear: time.Now().Year() + 1,
		Title:           "Best Paper Award",
		Description:     "Won the best paper award at the national conference",
		CertificateLink: "https://certs.example.com/123",
	})

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admins do not submit", token: getToken(t, admin), body: newAchievementBody(t, ""),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "certificate year in the future", token: getToken(t, teacher), body: futureYear,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"certificate_year": "certificate year must be between 2000 and the current year"}),
		},
		{
			name: "teacher cannot submit for another teacher", token: getToken(t, teacher),
			body:     newAchievementBody(t, teacher2.TeacherID),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "unknown owner", token: getToken(t, hod), body: newAchievementBody(t, "T404"),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"teacher": "unknown teacher"}),
		},
		{
			name: "teacher submits for self", token: getToken(t, teacher), body: newAchievementBody(t, ""),
			wantCode: http.StatusCreated, extra: teacher.TeacherID,
		},
		{
			name: "hod submits on behalf", token: getToken(t, hod), body: newAchievementBody(t, teacher2.TeacherID),
			wantCode: http.StatusCreated, extra: teacher2.TeacherID,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/api/achievements", tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode != http.StatusCreated {
				checkCodeAndData(t, tt, rec)
				return
			}

			assert.Equal(t, http.StatusCreated, rec.Code)
			var ach achievement.Achievement
			if err := json.Unmarshal(rec.Body.Bytes(), &ach); err != nil {
				t.Fatalf("unmarshalling Achievement: %v", err)
			}
			assert.Equal(t, tt.extra, ach.Teacher)
			assert.Equal(t, achievement.StatusUnderReview, ach.Status)
		})
	}
}

func Test_achievementApi_query(t *testing.T) {
	resetDB(t)

	teacher := testutil.CreateUser(t, usrRepo, "Jane Achieng", "T001", user.RoleTeacher, "")
	teacher2 := testutil.CreateUser(t, usrRepo, "Mary Wanjiku", "T002", user.RoleTeacher, "")
	hod := testutil.CreateUser(t, usrRepo, "John Otieno", "T003", user.RoleHod, "")
	admin := testutil.CreateUser(t, usrRepo, "Head Admin", "T004", user.RoleAdmin, "")

	ach1 := testutil.CreateAchievement(t, achRepo, teacher.TeacherID, "Best Paper Award", achievement.StatusApproved)
	ach2 := testutil.CreateAchievement(t, achRepo, teacher.TeacherID, "Mentorship Program", "")
	ach3 := testutil.CreateAchievement(t, achRepo, teacher2.TeacherID, "Hackathon Winner", "")

	tests := []httpTest{
		{name: "Auth required", path: "/api/achievements", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			// row-level scoping: no other teacher's records leak
			name: "teacher sees own records only", path: "/api/achievements", token: getToken(t, teacher),
			wantData: marchallList(t, ach1, ach2),
		},
		{
			name: "hod sees all", path: "/api/achievements", token: getToken(t, hod),
			wantData: marchallList(t, ach1, ach2, ach3),
		},
		{
			name: "admin sees all", path: "/api/achievements", token: getToken(t, admin),
			wantData: marchallList(t, ach1, ach2, ach3),
		},
		{
			name: "filter by status", path: "/api/achievements?status=Under+Review", token: getToken(t, admin),
			wantData: marchallList(t, ach2, ach3),
		},
		{
			name: "search", path: "/api/achievements?search=hackathon", token: getToken(t, admin),
			wantData: marchallList(t, ach3),
		},
		{
			name: "teacher search cannot escape own records", path: "/api/achievements?search=hackathon", token: getToken(t, teacher),
			wantData: marchallList(t),
		},
		{
			name: "by teacher: own", path: "/api/achievements/teacher/" + teacher.TeacherID, token: getToken(t, teacher),
			wantData: marchallList(t, ach1, ach2),
		},
		{
			name: "by teacher: other is forbidden for teachers", path: "/api/achievements/teacher/" + teacher2.TeacherID,
			token: getToken(t, teacher), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "by teacher: hod reads anyone", path: "/api/achievements/teacher/" + teacher2.TeacherID, token: getToken(t, hod),
			wantData: marchallList(t, ach3),
		},
		{
			name: "pending: teacher forbidden", path: "/api/achievements/pending", token: getToken(t, teacher),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "pending: hod", path: "/api/achievements/pending", token: getToken(t, hod),
			wantData: marchallList(t, ach2, ach3),
		},
		{
			name: "pending: admin", path: "/api/achievements/pending", token: getToken(t, admin),
			wantData: marchallList(t, ach2, ach3),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_achievementApi_review(t *testing.T) {
	resetDB(t)

	teacher := testutil.CreateUser(t, usrRepo, "Jane Achieng", "T001", user.RoleTeacher, "")
	hod := testutil.CreateUser(t, usrRepo, "John Otieno", "T002", user.RoleHod, "")

	ach := testutil.CreateAchievement(t, achRepo, teacher.TeacherID, "Best Paper Award", "")
	reviewPath := "/api/achievements/" + ach.ID + "/review"
	decision := func(status string) []byte {
		return marchallObj(t, achievement.ReviewAchievement{Status: status})
	}

	t.Run("Auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodPut, reviewPath, decision(achievement.StatusApproved))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})

	t.Run("teachers cannot review", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, reviewPath, getToken(t, teacher), decision(achievement.StatusApproved))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)
	})

	t.Run("initial status is not a decision", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, reviewPath, getToken(t, hod), decision(achievement.StatusUnderReview))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"status": "status must be either Approved or Rejected"}),
		}, rec)
	})

	t.Run("unknown achievement", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/api/achievements/00000000-0000-0000-0000-000000000000/review", getToken(t, hod), decision(achievement.StatusApproved))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}, rec)
	})

	t.Run("approved", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, reviewPath, getToken(t, hod), decision(achievement.StatusApproved))
		app.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var reviewed achievement.Achievement
		if err := json.Unmarshal(rec.Body.Bytes(), &reviewed); err != nil {
			t.Fatalf("unmarshalling Achievement: %v", err)
		}
		assert.Equal(t, achievement.StatusApproved, reviewed.Status)
		assert.Equal(t, hod.TeacherID, reviewed.ReviewedBy)
		assert.NotNil(t, reviewed.ReviewedAt)
	})

	t.Run("second review conflicts", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, reviewPath, getToken(t, hod), decision(achievement.StatusRejected))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: "achievement has already been reviewed"}),
		}, rec)

		// the first decision stands
		kept, err := achRepo.GetAchievement(req.Context(), ach.ID)
		assert.NoError(t, err)
		assert.Equal(t, achievement.StatusApproved, kept.Status)
	})
}

func Test_achievementApi_stats(t *testing.T) {
	resetDB(t)

	teacher := testutil.CreateUser(t, usrRepo, "Jane Achieng", "T001", user.RoleTeacher, "")
	testutil.CreateUser(t, usrRepo, "Mary Wanjiku", "T002", user.RoleTeacher, "")
	hod := testutil.CreateUser(t, usrRepo, "John Otieno", "T003", user.RoleHod, "")
	admin := testutil.CreateUser(t, usrRepo, "Head Admin", "T004", user.RoleAdmin, "")

	testutil.CreateAchievement(t, achRepo, "T001", "Best Paper Award", achievement.StatusApproved)
	testutil.CreateAchievement(t, achRepo, "T001", "Mentorship Program", "")
	testutil.CreateAchievement(t, achRepo, "T002", "Hackathon Winner", achievement.StatusRejected)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "teacher forbidden", token: getToken(t, teacher),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "hod forbidden", token: getToken(t, hod),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "admin gets portal stats", token: getToken(t, admin), wantCode: http.StatusOK,
			wantData: marchallObj(t, echoapi.StatsResponse{
				Achievements: achievement.Stats{Total: 3, UnderReview: 1, Approved: 1, Rejected: 1},
				Teachers:     2,
				Hods:         1,
			}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/api/achievements/stats", tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_achievementApi_search(t *testing.T) {
	resetDB(t)

	testutil.CreateUser(t, usrRepo, "Jane Achieng", "T001", user.RoleTeacher, "")
	testutil.CreateUser(t, usrRepo, "Mary Wanjiku", "T002", user.RoleTeacher, "")

	approved := testutil.CreateAchievement(t, achRepo, "T001", "Best Paper Award", achievement.StatusApproved)
	approved2 := testutil.CreateAchievement(t, achRepo, "T002", "Science Fair Mention", achievement.StatusApproved)
	testutil.CreateAchievement(t, achRepo, "T001", "Mentorship Program", "")
	testutil.CreateAchievement(t, achRepo, "T002", "Hackathon Winner", achievement.StatusRejected)

	tests := []httpTest{
		// no authentication needed
		{name: "all approved", path: "/api/search", wantData: marchallList(t, approved, approved2)},
		{name: "by teacher", path: "/api/search?teacher=t001", wantData: marchallList(t, approved)},
		{name: "by keyword", path: "/api/search?search=science", wantData: marchallList(t, approved2)},
		// unreviewed and rejected records stay private
		{name: "pending is invisible", path: "/api/search?search=mentorship", wantData: marchallList(t)},
		{name: "rejected is invisible", path: "/api/search?search=hackathon", wantData: marchallList(t)},
		{name: "status filter cannot override", path: "/api/search?status=Rejected", wantData: marchallList(t, approved, approved2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodGet, tt.path)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: tt.wantData}, rec)
		})
	}
}
