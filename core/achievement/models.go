package achievement

import (
	"time"

	"github.com/mwalimu/sifa/core"
	"github.com/mwalimu/sifa/core/user"
)

// Statuses. "Under Review" is the initial status; the other two are terminal.
const (
	StatusUnderReview = "Under Review"
	StatusApproved    = "Approved"
	StatusRejected    = "Rejected"
)

var (
	AllStatuses = []string{StatusUnderReview, StatusApproved, StatusRejected}

	// ReviewStatuses are the statuses a reviewer may transition a record to.
	ReviewStatuses = []string{StatusApproved, StatusRejected}
)

type Achievement struct {
	ID              string     `json:"id"`
	Teacher         string     `json:"teacher"` // owning User.TeacherID
	AcademicYear    string     `json:"academic_year"`
	CertificateYear int        `json:"certificate_year"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	CertificateLink string     `json:"certificate_link"`
	Status          string     `json:"status"`
	SubmittedAt     time.Time  `json:"submitted_at"` // UTC
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	ReviewedBy      string     `json:"reviewed_by,omitempty"` // reviewer's User.TeacherID
}

// IsReviewed reports whether the record has reached a terminal status.
func (a *Achievement) IsReviewed() bool {
	return a.Status != StatusUnderReview
}

// NewAchievement contains information needed to submit a new Achievement.
type NewAchievement struct {
	Teacher         string `json:"teacher" validate:"omitempty,min=2,alphanum_"`
	AcademicYear    string `json:"academic_year" validate:"required,academicyear"`
	CertificateYear int    `json:"certificate_year" validate:"required,certyear"`
	Title           string `json:"title" validate:"required,min=5"`
	Description     string `json:"description" validate:"required,min=10"`
	CertificateLink string `json:"certificate_link" validate:"required,url"`
}

func (na *NewAchievement) Validate() error {
	na.Teacher = user.CleanTeacherID(na.Teacher)
	na.AcademicYear = core.CleanString(na.AcademicYear)
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	na.CertificateLink = core.CleanString(na.CertificateLink)
	return core.Validate.Struct(na)
}

// ReviewAchievement carries a review decision for an Achievement.
type ReviewAchievement struct {
	Status string `json:"status" validate:"required,reviewstatus"`
}

func (ra *ReviewAchievement) Validate() error {
	ra.Status = core.CleanString(ra.Status)
	return core.Validate.Struct(ra)
}

type QueryFilter struct {
	Teacher string `query:"teacher"`
	Status  string `query:"status"`
	Search  string `query:"search"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Teacher == "" && qf.Status == "" && qf.Search == ""
}

// Clean normalizes the filter values; an unknown status is dropped rather
// than matching nothing.
func (qf *QueryFilter) Clean() {
	qf.Teacher = user.CleanTeacherID(qf.Teacher)
	qf.Status = core.CleanString(qf.Status)
	qf.Search = core.CleanString(qf.Search)

	if qf.Status == "" {
		return
	}
	for _, status := range AllStatuses {
		if qf.Status == status {
			return
		}
	}
	qf.Status = ""
}

// Stats aggregates achievement counts by status.
type Stats struct {
	Total       int `json:"total"`
	UnderReview int `json:"under_review"`
	Approved    int `json:"approved"`
	Rejected    int `json:"rejected"`
}
