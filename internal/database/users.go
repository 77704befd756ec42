package database

import (
	"errors"

	"gorm.io/gorm"

	"github.com/containerhub/containerhub/internal/entities"
)

var ErrUserNotFound = errors.New("user not found")

func (d *Database) GetUserByUsername(username string) (*entities.User, error) {
	var user entities.User
	err := d.DB.Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *Database) GetUserByTokenHash(tokenHash string) (*entities.User, error) {
	var user entities.User
	err := d.DB.Where("token_hash = ? AND token_hash <> ''", tokenHash).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *Database) CreateUser(user *entities.User) error {
	return d.DB.Create(user).Error
}

func (d *Database) UpdateUser(id uint, updates map[string]interface{}) error {
	result := d.DB.Model(&entities.User{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (d *Database) HasUsers() (bool, error) {
	var count int64
	if err := d.DB.Model(&entities.User{}).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
