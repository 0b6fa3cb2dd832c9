package db

import "gorm.io/gorm"

// Ingredient 定义了食材目录模型
// Category 用于区分食材大类（蔬菜/肉类/调味等），匹配器按类别做排除
type Ingredient struct {
	gorm.Model
	Name     string `gorm:"unique;not null"`
	Category string `gorm:"index"`
}

// Category 定义了菜谱分类模型
// 例如 "Ingredient" 分类用于标记非成品菜条目，推荐时整体排除
type Category struct {
	gorm.Model
	Name    string   `gorm:"unique;not null"`
	Recipes []Recipe `gorm:"many2many:recipe_categories;"`
}

// Recipe 定义了菜谱模型
// BaseServings 是配料用量的基准份数，日历条目可以按其他份数计划
// Instructions 保存 Markdown 原文，详情接口渲染为净化后的 HTML
type Recipe struct {
	gorm.Model
	UserID       uint   `gorm:"index"`
	Title        string `gorm:"not null"`
	Description  string
	Instructions string
	BaseServings int                `gorm:"default:1"`
	Categories   []Category         `gorm:"many2many:recipe_categories;"`
	Ingredients  []RecipeIngredient `gorm:"constraint:OnDelete:CASCADE"`
}

// RecipeIngredient 定义了菜谱的单个配料需求
// Quantity 相对 Recipe.BaseServings 定义；菜谱编辑会整组替换需求
// Optional 标记可省略配料，只影响推荐匹配，不影响购物清单
type RecipeIngredient struct {
	gorm.Model
	RecipeID     uint `gorm:"index"`
	IngredientID uint `gorm:"index"`
	Ingredient   Ingredient
	Quantity     float64
	Unit         string
	Optional     bool
}
