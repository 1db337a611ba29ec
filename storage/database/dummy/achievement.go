package dummydb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mwalimu/sifa/core"
	"github.com/mwalimu/sifa/core/achievement"
)

type achievementRepository struct {
	db *achievementTable
}

var _ achievement.Repository = (*achievementRepository)(nil) // interface compliance check

func NewAchievementRepository(db *DB) *achievementRepository {
	return &achievementRepository{db: db.achievement}
}

func (repo *achievementRepository) query() []achievement.Achievement {
	achs := make([]achievement.Achievement, 0, len(repo.db.table))
	for _, ach := range repo.db.table {
		achs = append(achs, *ach)
	}
	// newest submissions first
	sort.Slice(achs, func(i, j int) bool { return achs[i].SubmittedAt.After(achs[j].SubmittedAt) })
	return achs
}

func (repo *achievementRepository) CreateAchievement(ctx context.Context, ach achievement.Achievement, exec ...core.DBExecutor) (achievement.Achievement, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	ach.ID = uuid.New().String()
	repo.db.table[ach.ID] = &ach
	return ach, nil
}

func (repo *achievementRepository) GetAchievement(ctx context.Context, id string, exec ...core.DBExecutor) (achievement.Achievement, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if ach, ok := repo.db.table[id]; ok {
		return *ach, nil
	}
	return achievement.Achievement{}, achievement.ErrNotFound
}

func (repo *achievementRepository) QueryAchievements(ctx context.Context, filter *achievement.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]achievement.Achievement, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	achs := repo.query()
	if filter == nil || filter.IsEmpty() {
		return achs, nil
	}

	if filter.Teacher != "" {
		var filtered []achievement.Achievement
		for _, ach := range achs {
			if ach.Teacher == filter.Teacher {
				filtered = append(filtered, ach)
			}
		}
		achs = filtered
	}
	if achs != nil && filter.Status != "" {
		var filtered []achievement.Achievement
		for _, ach := range achs {
			if ach.Status == filter.Status {
				filtered = append(filtered, ach)
			}
		}
		achs = filtered
	}
	if achs != nil && filter.Search != "" {
		var filtered []achievement.Achievement
		search := strings.ToLower(filter.Search)
		for _, ach := range achs {
			if strings.Contains(strings.ToLower(ach.Title), search) ||
				strings.Contains(strings.ToLower(ach.Description), search) {
				filtered = append(filtered, ach)
			}
		}
		achs = filtered
	}

	return achs, nil
}

func (repo *achievementRepository) ReviewAchievement(ctx context.Context, id, status, reviewedBy string, reviewedAt time.Time, exec ...core.DBExecutor) (achievement.Achievement, bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	ach, ok := repo.db.table[id]
	if !ok || ach.Status != achievement.StatusUnderReview {
		return achievement.Achievement{}, false, nil
	}
	t := reviewedAt.UTC()
	ach.Status = status
	ach.ReviewedBy = reviewedBy
	ach.ReviewedAt = &t
	return *ach, true, nil
}

func (repo *achievementRepository) CountAchievementsByStatus(ctx context.Context, exec ...core.DBExecutor) (achievement.Stats, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var stats achievement.Stats
	for _, ach := range repo.db.table {
		stats.Total++
		switch ach.Status {
		case achievement.StatusUnderReview:
			stats.UnderReview++
		case achievement.StatusApproved:
			stats.Approved++
		case achievement.StatusRejected:
			stats.Rejected++
		}
	}
	return stats, nil
}
