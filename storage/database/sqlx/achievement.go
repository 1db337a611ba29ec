package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mwalimu/sifa/core"
	"github.com/mwalimu/sifa/core/achievement"
)

type achievementRepository struct {
	exec core.DBExecutor
}

var _ achievement.Repository = (*achievementRepository)(nil) // interface compliance check

func NewAchievementRepository(exec core.DBExecutor) *achievementRepository {
	return &achievementRepository{exec: exec}
}

func (repo achievementRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

type achievementRow struct {
	ID              string      `db:"id"`
	Teacher         string      `db:"teacher"`
	AcademicYear    string      `db:"academic_year"`
	CertificateYear int         `db:"certificate_year"`
	Title           string      `db:"title"`
	Description     string      `db:"description"`
	CertificateLink string      `db:"certificate_link"`
	Status          string      `db:"status"`
	SubmittedAt     time.Time   `db:"submitted_at"`
	ReviewedAt      null.Time   `db:"reviewed_at"`
	ReviewedBy      null.String `db:"reviewed_by"`
}

func (repo achievementRepository) fromRow(row achievementRow) achievement.Achievement {
	ach := achievement.Achievement{
		ID:              row.ID,
		Teacher:         row.Teacher,
		AcademicYear:    row.AcademicYear,
		CertificateYear: row.CertificateYear,
		Title:           row.Title,
		Description:     row.Description,
		CertificateLink: row.CertificateLink,
		Status:          row.Status,
		SubmittedAt:     row.SubmittedAt,
		ReviewedBy:      row.ReviewedBy.String,
	}
	if row.ReviewedAt.Valid {
		t := row.ReviewedAt.Time
		ach.ReviewedAt = &t
	}
	return ach
}

func (repo achievementRepository) fromRows(rows []achievementRow) []achievement.Achievement {
	achs := make([]achievement.Achievement, 0, len(rows))
	for _, row := range rows {
		achs = append(achs, repo.fromRow(row))
	}
	return achs
}

// trapNoRowsErr maps psql "no rows" err to achievement.ErrNotFound
func (repo achievementRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return achievement.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

const achievementColumns = `id, teacher, academic_year, certificate_year, title, description, certificate_link, status, submitted_at, reviewed_at, reviewed_by`

func (repo achievementRepository) CreateAchievement(ctx context.Context, ach achievement.Achievement, exec ...core.DBExecutor) (achievement.Achievement, error) {
	ach.ID = uuid.New().String()
	q := `INSERT INTO achievement (` + achievementColumns + `)
	      VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULL, NULL)`
	_, err := repo.getExec(exec).ExecContext(ctx, q,
		ach.ID, ach.Teacher, ach.AcademicYear, ach.CertificateYear,
		ach.Title, ach.Description, ach.CertificateLink, ach.Status, ach.SubmittedAt.UTC())
	if err != nil {
		return achievement.Achievement{}, errors.Wrap(err, "inserting achievement")
	}
	return ach, nil
}

func (repo achievementRepository) GetAchievement(ctx context.Context, id string, exec ...core.DBExecutor) (achievement.Achievement, error) {
	if _, err := uuid.Parse(id); err != nil {
		return achievement.Achievement{}, achievement.ErrNotFound
	}
	var row achievementRow
	q := `SELECT ` + achievementColumns + ` FROM achievement WHERE id = $1`
	if err := repo.getExec(exec).GetContext(ctx, &row, q, id); err != nil {
		return achievement.Achievement{}, repo.trapNoRowsErr(err, "finding achievement by ID")
	}
	return repo.fromRow(row), nil
}

func (repo achievementRepository) QueryAchievements(ctx context.Context, filter *achievement.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]achievement.Achievement, error) {
	var (
		conds []string
		args  []interface{}
	)
	arg := func(val interface{}) string {
		args = append(args, val)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil && !filter.IsEmpty() {
		if filter.Teacher != "" {
			conds = append(conds, fmt.Sprintf("teacher = %s", arg(filter.Teacher)))
		}
		if filter.Status != "" {
			conds = append(conds, fmt.Sprintf("status = %s", arg(filter.Status)))
		}
		// achievements with Title or Description matching the search keyword
		if filter.Search != "" {
			val := arg("%" + filter.Search + "%")
			conds = append(conds, fmt.Sprintf("(title ILIKE %s OR description ILIKE %s)", val, val))
		}
	}

	q := `SELECT ` + achievementColumns + ` FROM achievement`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	if len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
		q += " ORDER BY " + strings.Join(orderList, ", ")
	} else {
		q += " ORDER BY submitted_at DESC"
	}

	var rows []achievementRow
	if err := repo.getExec(exec).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying achievements")
	}
	return repo.fromRows(rows), nil
}

func (repo achievementRepository) ReviewAchievement(ctx context.Context, id, status, reviewedBy string, reviewedAt time.Time, exec ...core.DBExecutor) (achievement.Achievement, bool, error) {
	var row achievementRow
	q := `UPDATE achievement
	      SET status = $2, reviewed_by = $3, reviewed_at = $4
	      WHERE id = $1 AND status = $5
	      RETURNING ` + achievementColumns
	err := repo.getExec(exec).GetContext(ctx, &row, q, id, status, reviewedBy, reviewedAt.UTC(), achievement.StatusUnderReview)
	if err != nil {
		if err == sql.ErrNoRows {
			// either gone or no longer under review; the caller re-checks
			return achievement.Achievement{}, false, nil
		}
		return achievement.Achievement{}, false, errors.Wrap(err, "reviewing achievement")
	}
	return repo.fromRow(row), true, nil
}

func (repo achievementRepository) CountAchievementsByStatus(ctx context.Context, exec ...core.DBExecutor) (achievement.Stats, error) {
	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	q := `SELECT status, count(*) AS count FROM achievement GROUP BY status`
	if err := repo.getExec(exec).SelectContext(ctx, &rows, q); err != nil {
		return achievement.Stats{}, errors.Wrap(err, "counting achievements by status")
	}

	var stats achievement.Stats
	for _, row := range rows {
		stats.Total += row.Count
		switch row.Status {
		case achievement.StatusUnderReview:
			stats.UnderReview = row.Count
		case achievement.StatusApproved:
			stats.Approved = row.Count
		case achievement.StatusRejected:
			stats.Rejected = row.Count
		}
	}
	return stats, nil
}
