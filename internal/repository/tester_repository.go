package repository

import (
	"strings"
	"time"

	"github.com/yukikurage/qa-tracker-api/internal/database"
	"github.com/yukikurage/qa-tracker-api/internal/models"
	"gorm.io/gorm"
)

// GormTesterRepository is a GORM implementation of TesterRepository
type GormTesterRepository struct {
	db *gorm.DB
}

// NewTesterRepository creates a new TesterRepository
func NewTesterRepository(db *gorm.DB) TesterRepository {
	return &GormTesterRepository{db: db}
}

var testerSortColumns = map[string]string{
	"registration_date": "registration_date DESC",
	"rating":            "rating DESC",
	"bugs_count":        "bugs_count DESC",
	"name":              "name ASC",
}

func (r *GormTesterRepository) Create(tester *models.Tester) error {
	return r.db.Create(tester).Error
}

func (r *GormTesterRepository) FindByID(id uint64) (*models.Tester, error) {
	var tester models.Tester
	if err := r.db.First(&tester, id).Error; err != nil {
		return nil, err
	}
	return &tester, nil
}

func (r *GormTesterRepository) FindByEmail(email string) (*models.Tester, error) {
	var tester models.Tester
	if err := r.db.Where("LOWER(email) = ?", strings.ToLower(email)).First(&tester).Error; err != nil {
		return nil, err
	}
	return &tester, nil
}

func (r *GormTesterRepository) List(filter TesterFilter) ([]models.Tester, int64, error) {
	query := r.db.Model(&models.Tester{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(nickname) LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order, ok := testerSortColumns[filter.SortBy]
	if !ok {
		order = testerSortColumns["registration_date"]
	}
	listQuery := query.Order(order).
		Order("id ASC").
		Scopes(database.Paginate(filter.Page, filter.PageSize))

	var testers []models.Tester
	if err := listQuery.Find(&testers).Error; err != nil {
		return nil, 0, err
	}

	return testers, total, nil
}

func (r *GormTesterRepository) ListAll() ([]models.Tester, error) {
	var testers []models.Tester
	if err := r.db.Order("id ASC").Find(&testers).Error; err != nil {
		return nil, err
	}
	return testers, nil
}

func (r *GormTesterRepository) Update(tester *models.Tester) error {
	return r.db.Save(tester).Error
}

func (r *GormTesterRepository) UpdateRating(id uint64, rating, bugsCount int) error {
	result := r.db.Model(&models.Tester{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"rating":     rating,
			"bugs_count": bugsCount,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormTesterRepository) TouchActivity(id uint64, at time.Time) error {
	return r.db.Model(&models.Tester{}).
		Where("id = ?", id).
		UpdateColumn("last_activity_date", at).Error
}

func (r *GormTesterRepository) Delete(id uint64) ([]string, error) {
	var paths []string
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var bugIDs []uint64
		if err := tx.Model(&models.Bug{}).Where("tester_id = ?", id).Pluck("id", &bugIDs).Error; err != nil {
			return err
		}

		if len(bugIDs) > 0 {
			if err := tx.Model(&models.Screenshot{}).Where("bug_id IN ?", bugIDs).Pluck("file_path", &paths).Error; err != nil {
				return err
			}
			if err := tx.Where("bug_id IN ?", bugIDs).Delete(&models.Screenshot{}).Error; err != nil {
				return err
			}
			if err := tx.Where("bug_id IN ?", bugIDs).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("tester_id = ?", id).Delete(&models.Bug{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("tester_id = ?", id).Delete(&models.ActivityHistory{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Tester{}, id)
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

// TopTesters orders by rating, then bugs count, then earliest registration.
func (r *GormTesterRepository) TopTesters(limit int) ([]models.Tester, error) {
	var testers []models.Tester
	err := r.db.Where("rating > 0").
		Order("rating DESC").
		Order("bugs_count DESC").
		Order("registration_date ASC").
		Order("id ASC").
		Limit(limit).
		Find(&testers).Error
	if err != nil {
		return nil, err
	}
	return testers, nil
}
