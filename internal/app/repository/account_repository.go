package repository

import (
	"time"

	"github.com/ikkim/geonseol-backend/internal/app/model"
	"github.com/ikkim/geonseol-backend/pkg/logger"
	"gorm.io/gorm"
)

type AccountRepository interface {
	Create(account *model.Account) error
	FindByUsername(username string) (*model.Account, error)
	UpdateLastLogin(username string, at time.Time) error
	List() ([]model.Account, error)
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(account *model.Account) error {
	logger.Debug("Creating account in database", map[string]interface{}{
		"username": account.Username,
	})

	if err := r.db.Create(account).Error; err != nil {
		logger.Error("Failed to create account in database", err, map[string]interface{}{
			"username": account.Username,
		})
		return err
	}
	return nil
}

func (r *accountRepository) FindByUsername(username string) (*model.Account, error) {
	var account model.Account
	err := r.db.Where("username = ?", username).First(&account).Error
	if err != nil {
		return nil, err
	}

	logger.Debug("Account found in database", map[string]interface{}{
		"username": account.Username,
	})
	return &account, nil
}

func (r *accountRepository) UpdateLastLogin(username string, at time.Time) error {
	result := r.db.Model(&model.Account{}).
		Where("username = ?", username).
		Update("last_login", at)
	if result.Error != nil {
		logger.Error("Failed to update last login", result.Error, map[string]interface{}{
			"username": username,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List 가입 순서대로 전체 계정 조회
func (r *accountRepository) List() ([]model.Account, error) {
	var accounts []model.Account
	if err := r.db.Order("created_at ASC, username ASC").Find(&accounts).Error; err != nil {
		logger.Error("Failed to list accounts", err)
		return nil, err
	}
	return accounts, nil
}
