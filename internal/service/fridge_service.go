package service

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fridgelog/internal/db"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrFridgeItemNotFound 在库存条目不存在或不属于请求用户时返回
	ErrFridgeItemNotFound = errors.New("fridge item not found")
	// ErrInvalidQuantity 当库存数量不是正数时返回
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// FridgeService 管理每用户的冰箱库存
type FridgeService struct {
	db *gorm.DB
}

// NewFridgeService 构造 FridgeService
func NewFridgeService(gdb *gorm.DB) *FridgeService {
	return &FridgeService{db: gdb}
}

// FridgeItemInput 定义新增/更新库存时可配置字段
type FridgeItemInput struct {
	IngredientID uint
	Quantity     float64
	Unit         string
	ExpiresAt    *time.Time
	Notes        string
}

// List 返回用户全部库存，临期在前
func (s *FridgeService) List(userID uint) ([]db.FridgeItem, error) {
	var items []db.FridgeItem
	err := s.db.
		Preload("Ingredient").
		Where("user_id = ?", userID).
		Order("expires_at IS NULL, expires_at ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list fridge items: %w", err)
	}
	return items, nil
}

// Add 手动入库一条食材
func (s *FridgeService) Add(userID uint, input FridgeItemInput) (*db.FridgeItem, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}

	item := db.FridgeItem{
		UserID:       userID,
		IngredientID: input.IngredientID,
		Quantity:     input.Quantity,
		Unit:         strings.TrimSpace(input.Unit),
		ExpiresAt:    input.ExpiresAt,
		Notes:        strings.TrimSpace(input.Notes),
	}
	if err := s.db.Create(&item).Error; err != nil {
		return nil, fmt.Errorf("add fridge item: %w", err)
	}

	return s.reload(item.ID)
}

// Update 全量更新库存条目
func (s *FridgeService) Update(userID, itemID uint, input FridgeItemInput) (*db.FridgeItem, error) {
	item, err := s.getOwned(userID, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.validate(input); err != nil {
		return nil, err
	}

	item.IngredientID = input.IngredientID
	item.Quantity = input.Quantity
	item.Unit = strings.TrimSpace(input.Unit)
	item.ExpiresAt = input.ExpiresAt
	item.Notes = strings.TrimSpace(input.Notes)

	if err := s.db.Save(item).Error; err != nil {
		return nil, fmt.Errorf("update fridge item: %w", err)
	}
	return s.reload(item.ID)
}

// Remove 删除单条库存
func (s *FridgeService) Remove(userID, itemID uint) error {
	item, err := s.getOwned(userID, itemID)
	if err != nil {
		return err
	}

	if err := s.db.Unscoped().Delete(item).Error; err != nil {
		return fmt.Errorf("remove fridge item: %w", err)
	}
	return nil
}

// SweepExpired 批量删除已过期条目（expires_at < now），返回删除数量
func (s *FridgeService) SweepExpired(userID uint, now time.Time) (int64, error) {
	result := s.db.Unscoped().
		Where("user_id = ? AND expires_at IS NOT NULL AND expires_at < ?", userID, now).
		Delete(&db.FridgeItem{})
	if result.Error != nil {
		return 0, fmt.Errorf("sweep expired fridge items: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		slog.Info("expired fridge sweep",
			"sweep_id", uuid.NewString(),
			"user_id", userID,
			"removed", result.RowsAffected)
	}
	return result.RowsAffected, nil
}

// ExpiringSoon 返回 now 起 days 天内到期（含已过期）的条目
func (s *FridgeService) ExpiringSoon(userID uint, now time.Time, days int) ([]db.FridgeItem, error) {
	if days < 0 {
		days = 0
	}
	cutoff := now.AddDate(0, 0, days)

	var items []db.FridgeItem
	err := s.db.
		Preload("Ingredient").
		Where("user_id = ? AND expires_at IS NOT NULL AND expires_at <= ?", userID, cutoff).
		Order("expires_at ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list expiring fridge items: %w", err)
	}
	return items, nil
}

func (s *FridgeService) validate(input FridgeItemInput) error {
	if input.Quantity <= 0 {
		return ErrInvalidQuantity
	}

	var count int64
	if err := s.db.Model(&db.Ingredient{}).Where("id = ?", input.IngredientID).Count(&count).Error; err != nil {
		return fmt.Errorf("check ingredient: %w", err)
	}
	if count == 0 {
		return ErrIngredientNotFound
	}
	return nil
}

func (s *FridgeService) getOwned(userID, itemID uint) (*db.FridgeItem, error) {
	var item db.FridgeItem
	err := s.db.
		Where("id = ? AND user_id = ?", itemID, userID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFridgeItemNotFound
		}
		return nil, fmt.Errorf("get fridge item: %w", err)
	}
	return &item, nil
}

func (s *FridgeService) reload(itemID uint) (*db.FridgeItem, error) {
	var item db.FridgeItem
	if err := s.db.Preload("Ingredient").First(&item, itemID).Error; err != nil {
		return nil, fmt.Errorf("reload fridge item: %w", err)
	}
	return &item, nil
}
