package dto

import (
	"time"

	"github.com/yukikurage/qa-tracker-api/internal/models"
)

// AdminDTO represents an admin in API responses
type AdminDTO struct {
	ID        uint64     `json:"id"`
	Username  string     `json:"username"`
	Email     *string    `json:"email"`
	LastLogin *time.Time `json:"lastLogin"`
}

// TesterDTO represents a tester in API responses
type TesterDTO struct {
	ID               uint64              `json:"id"`
	Name             string              `json:"name"`
	Email            string              `json:"email"`
	Nickname         *string             `json:"nickname"`
	Telegram         *string             `json:"telegram"`
	DeviceType       string              `json:"deviceType"`
	OS               string              `json:"os"`
	OSVersion        *string             `json:"osVersion"`
	Status           models.TesterStatus `json:"status"`
	RegistrationDate time.Time           `json:"registrationDate"`
	LastActivityDate *time.Time          `json:"lastActivityDate"`
	BugsCount        int                 `json:"bugsCount"`
	Rating           int                 `json:"rating"`
	CreatedAt        time.Time           `json:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt"`
}

// TesterSummaryDTO is the short form embedded in bug responses
type TesterSummaryDTO struct {
	ID       uint64  `json:"id"`
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Nickname *string `json:"nickname"`
}

// TopTesterDTO is one leaderboard entry
type TopTesterDTO struct {
	Rank int `json:"rank"`
	TesterDTO
}

// ToAdminDTO converts an Admin model to AdminDTO
func ToAdminDTO(admin models.Admin) AdminDTO {
	return AdminDTO{
		ID:        admin.ID,
		Username:  admin.Username,
		Email:     admin.Email,
		LastLogin: admin.LastLogin,
	}
}

// ToTesterDTO converts a Tester model to TesterDTO
func ToTesterDTO(t models.Tester) TesterDTO {
	return TesterDTO{
		ID:               t.ID,
		Name:             t.Name,
		Email:            t.Email,
		Nickname:         t.Nickname,
		Telegram:         t.Telegram,
		DeviceType:       t.DeviceType,
		OS:               t.OS,
		OSVersion:        t.OSVersion,
		Status:           t.Status,
		RegistrationDate: t.RegistrationDate,
		LastActivityDate: t.LastActivityDate,
		BugsCount:        t.BugsCount,
		Rating:           t.Rating,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

func ToTesterDTOs(testers []models.Tester) []TesterDTO {
	items := make([]TesterDTO, len(testers))
	for i, t := range testers {
		items[i] = ToTesterDTO(t)
	}
	return items
}

// ToTopTesterDTOs ranks testers in the order given, starting at 1
func ToTopTesterDTOs(testers []models.Tester) []TopTesterDTO {
	items := make([]TopTesterDTO, len(testers))
	for i, t := range testers {
		items[i] = TopTesterDTO{Rank: i + 1, TesterDTO: ToTesterDTO(t)}
	}
	return items
}
