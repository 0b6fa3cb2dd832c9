package db

import (
	"time"

	"gorm.io/gorm"
)

// 日历槽位取值
const (
	SlotBreakfast = "breakfast"
	SlotLunch     = "lunch"
	SlotDinner    = "dinner"
	SlotSnack     = "snack"
)

// MealPlanEntry 定义了周历上的一次用餐安排
// MealDate 只取日期含义，统一规整为 UTC 零点存储
// 同一 (user, date, slot) 允许多条记录，不做唯一约束
// Servings 独立于菜谱基准份数，聚合时按比例换算
type MealPlanEntry struct {
	gorm.Model
	UserID      uint      `gorm:"index"`
	RecipeID    uint      `gorm:"index"`
	Recipe      Recipe    `gorm:"constraint:OnDelete:CASCADE"`
	MealDate    time.Time `gorm:"index"`
	MealSlot    string    `gorm:"index"`
	Servings    int
	Notes       string
	Completed   bool
	CompletedAt *time.Time
}
