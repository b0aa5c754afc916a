package repository

import (
	"strings"

	"github.com/yukikurage/qa-tracker-api/internal/database"
	"github.com/yukikurage/qa-tracker-api/internal/models"
	"gorm.io/gorm"
)

// GormBugRepository is a GORM implementation of BugRepository
type GormBugRepository struct {
	db *gorm.DB
}

// NewBugRepository creates a new BugRepository
func NewBugRepository(db *gorm.DB) BugRepository {
	return &GormBugRepository{db: db}
}

func (r *GormBugRepository) Create(bug *models.Bug) error {
	return r.db.Create(bug).Error
}

// FindByID finds a bug by ID with optional preloading
func (r *GormBugRepository) FindByID(id uint64, preload ...string) (*models.Bug, error) {
	var bug models.Bug
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&bug, id).Error; err != nil {
		return nil, err
	}

	return &bug, nil
}

func (r *GormBugRepository) List(filter BugFilter) ([]models.Bug, int64, error) {
	query := r.db.Model(&models.Bug{})

	if filter.TesterID != nil {
		query = query.Where("bugs.tester_id = ?", *filter.TesterID)
	}
	if filter.Status != nil {
		query = query.Where("bugs.status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("bugs.priority = ?", *filter.Priority)
	}
	if filter.Type != nil {
		query = query.Where("bugs.type = ?", *filter.Type)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(bugs.title) LIKE ? OR LOWER(bugs.description) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("bugs.created_at DESC").
		Order("bugs.id DESC").
		Scopes(database.Paginate(filter.Page, filter.PageSize))

	var bugs []models.Bug
	if err := listQuery.Preload("Tester").Find(&bugs).Error; err != nil {
		return nil, 0, err
	}

	return bugs, total, nil
}

func (r *GormBugRepository) ListByTester(testerID uint64) ([]models.Bug, error) {
	var bugs []models.Bug
	if err := r.db.Where("tester_id = ?", testerID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&bugs).Error; err != nil {
		return nil, err
	}
	return bugs, nil
}

func (r *GormBugRepository) Update(bug *models.Bug) error {
	return r.db.Omit("Tester").Save(bug).Error
}

func (r *GormBugRepository) Delete(id uint64) ([]string, error) {
	var paths []string
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Screenshot{}).Where("bug_id = ?", id).Pluck("file_path", &paths).Error; err != nil {
			return err
		}
		if err := tx.Where("bug_id = ?", id).Delete(&models.Screenshot{}).Error; err != nil {
			return err
		}
		if err := tx.Where("bug_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Bug{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

type priorityCount struct {
	Priority models.BugPriority
	Count    int
}

func (r *GormBugRepository) CountByPriority(testerID uint64) (map[models.BugPriority]int, error) {
	var rows []priorityCount
	if err := r.db.Model(&models.Bug{}).
		Select("priority, COUNT(*) AS count").
		Where("tester_id = ?", testerID).
		Group("priority").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[models.BugPriority]int, len(rows))
	for _, row := range rows {
		counts[row.Priority] = row.Count
	}
	return counts, nil
}
