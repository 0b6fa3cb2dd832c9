package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fridgelog/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrMealEntryNotFound 在日历条目不存在或不属于请求用户时返回
	// 两种情况刻意不做区分，避免暴露他人数据的存在性
	ErrMealEntryNotFound = errors.New("meal plan entry not found")
	// ErrInvalidServings 当份数不是正整数时返回
	ErrInvalidServings = errors.New("servings must be a positive integer")
	// ErrInvalidMealSlot 当槽位不在 breakfast/lunch/dinner/snack 中时返回
	ErrInvalidMealSlot = errors.New("invalid meal slot")
)

// dateFormat 是日历日期的统一序列化格式
const dateFormat = "2006-01-02"

var validMealSlots = map[string]bool{
	db.SlotBreakfast: true,
	db.SlotLunch:     true,
	db.SlotDinner:    true,
	db.SlotSnack:     true,
}

// MealPlanService 负责周历条目的增删改查
// 菜谱引用在放置时即校验，失效引用不会静默落库
type MealPlanService struct {
	db      *gorm.DB
	catalog RecipeCatalog
}

// NewMealPlanService 构造 MealPlanService
func NewMealPlanService(gdb *gorm.DB, catalog RecipeCatalog) *MealPlanService {
	return &MealPlanService{db: gdb, catalog: catalog}
}

// MealPlanInput 定义放置一餐所需字段
type MealPlanInput struct {
	RecipeID uint
	MealDate time.Time
	MealSlot string
	Servings int
	Notes    string
}

// MealPlanUpdate 定义部分更新字段，nil 表示保持原值
type MealPlanUpdate struct {
	RecipeID *uint
	MealDate *time.Time
	MealSlot *string
	Servings *int
	Notes    *string
}

// NormalizeDate 将任意时间规整为 UTC 零点，日历只关心日期
func NormalizeDate(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Place 在日历上放置一餐
// 同一 (date, slot) 允许多条记录；日期不做过去/未来限制
func (s *MealPlanService) Place(userID uint, input MealPlanInput) (*db.MealPlanEntry, error) {
	if input.Servings <= 0 {
		return nil, ErrInvalidServings
	}

	slot := strings.TrimSpace(input.MealSlot)
	if !validMealSlots[slot] {
		return nil, ErrInvalidMealSlot
	}

	// 放置时校验菜谱存在，失效引用立即报 NotFound
	if _, err := s.catalog.GetRecipe(input.RecipeID); err != nil {
		return nil, err
	}

	entry := db.MealPlanEntry{
		UserID:   userID,
		RecipeID: input.RecipeID,
		MealDate: NormalizeDate(input.MealDate),
		MealSlot: slot,
		Servings: input.Servings,
		Notes:    strings.TrimSpace(input.Notes),
	}
	if err := s.db.Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("place meal: %w", err)
	}

	return s.reload(entry.ID)
}

// Update 对日历条目做部分更新
// 替换 RecipeID 相当于换菜，条目身份与槽位保持不变
func (s *MealPlanService) Update(userID, entryID uint, update MealPlanUpdate) (*db.MealPlanEntry, error) {
	entry, err := s.getOwned(userID, entryID)
	if err != nil {
		return nil, err
	}

	if update.Servings != nil {
		if *update.Servings <= 0 {
			return nil, ErrInvalidServings
		}
		entry.Servings = *update.Servings
	}

	if update.MealSlot != nil {
		slot := strings.TrimSpace(*update.MealSlot)
		if !validMealSlots[slot] {
			return nil, ErrInvalidMealSlot
		}
		entry.MealSlot = slot
	}

	if update.RecipeID != nil && *update.RecipeID != entry.RecipeID {
		if _, err := s.catalog.GetRecipe(*update.RecipeID); err != nil {
			return nil, err
		}
		entry.RecipeID = *update.RecipeID
	}

	if update.MealDate != nil {
		entry.MealDate = NormalizeDate(*update.MealDate)
	}

	if update.Notes != nil {
		entry.Notes = strings.TrimSpace(*update.Notes)
	}

	if err := s.db.Save(entry).Error; err != nil {
		return nil, fmt.Errorf("update meal: %w", err)
	}

	return s.reload(entry.ID)
}

// Complete 将日历条目标记为已完成
// 幂等：重复标记不改动首次的 CompletedAt
func (s *MealPlanService) Complete(userID, entryID uint) (*db.MealPlanEntry, error) {
	entry, err := s.getOwned(userID, entryID)
	if err != nil {
		return nil, err
	}

	if entry.Completed {
		return s.reload(entry.ID)
	}

	now := time.Now().UTC()
	entry.Completed = true
	entry.CompletedAt = &now
	if err := s.db.Save(entry).Error; err != nil {
		return nil, fmt.Errorf("complete meal: %w", err)
	}

	return s.reload(entry.ID)
}

// Delete 硬删除日历条目
func (s *MealPlanService) Delete(userID, entryID uint) error {
	entry, err := s.getOwned(userID, entryID)
	if err != nil {
		return err
	}

	if err := s.db.Unscoped().Delete(entry).Error; err != nil {
		return fmt.Errorf("delete meal: %w", err)
	}
	return nil
}

// ListWeek 返回以 weekStart 起始的 7 天视图
// 周不是独立实体，这里按日期范围过滤后分组；7 个日期键始终齐全
func (s *MealPlanService) ListWeek(userID uint, weekStart time.Time) (map[string][]db.MealPlanEntry, error) {
	start := NormalizeDate(weekStart)
	end := start.AddDate(0, 0, 6)

	entries, err := s.EntriesInRange(userID, start, end)
	if err != nil {
		return nil, err
	}

	week := make(map[string][]db.MealPlanEntry, 7)
	for i := 0; i < 7; i++ {
		week[start.AddDate(0, 0, i).Format(dateFormat)] = []db.MealPlanEntry{}
	}
	for _, entry := range entries {
		key := entry.MealDate.Format(dateFormat)
		week[key] = append(week[key], entry)
	}
	return week, nil
}

// EntriesInRange 返回日期闭区间内的日历条目，按日期与 ID 稳定排序
func (s *MealPlanService) EntriesInRange(userID uint, start, end time.Time) ([]db.MealPlanEntry, error) {
	var entries []db.MealPlanEntry
	err := s.db.
		Preload("Recipe").
		Where("user_id = ? AND meal_date >= ? AND meal_date <= ?", userID, NormalizeDate(start), NormalizeDate(end)).
		Order("meal_date ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("list meal plan entries: %w", err)
	}
	return entries, nil
}

func (s *MealPlanService) getOwned(userID, entryID uint) (*db.MealPlanEntry, error) {
	var entry db.MealPlanEntry
	err := s.db.
		Where("id = ? AND user_id = ?", entryID, userID).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMealEntryNotFound
		}
		return nil, fmt.Errorf("get meal plan entry: %w", err)
	}
	return &entry, nil
}

func (s *MealPlanService) reload(entryID uint) (*db.MealPlanEntry, error) {
	var entry db.MealPlanEntry
	if err := s.db.Preload("Recipe").First(&entry, entryID).Error; err != nil {
		return nil, fmt.Errorf("reload meal plan entry: %w", err)
	}
	return &entry, nil
}
