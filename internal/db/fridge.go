package db

import (
	"time"

	"gorm.io/gorm"
)

// FridgeItem 定义了冰箱库存条目
// ExpiresAt 可空；过期清扫按 expires_at < now 批量删除
type FridgeItem struct {
	gorm.Model
	UserID       uint `gorm:"index"`
	IngredientID uint `gorm:"index"`
	Ingredient   Ingredient
	Quantity     float64
	Unit         string
	ExpiresAt    *time.Time `gorm:"index"`
	Notes        string
}

// ShoppingListShare 定义了购物清单的分享令牌
// 令牌只固定日期范围，清单内容在每次访问时实时重算
type ShoppingListShare struct {
	gorm.Model
	UserID    uint   `gorm:"index"`
	Token     string `gorm:"uniqueIndex;not null"`
	StartDate time.Time
	EndDate   time.Time
}
