package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fridgelog/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrRecipeNotFound 在指定菜谱不存在时返回
	ErrRecipeNotFound = errors.New("recipe not found")
	// ErrIngredientNotFound 在引用的食材不存在时返回
	ErrIngredientNotFound = errors.New("ingredient not found")
)

// RecipeFilter 描述菜谱目录的查询条件
// ExcludeCategories 按分类名整体排除菜谱（例如排除 "Ingredient" 这类非成品条目）
type RecipeFilter struct {
	ExcludeCategories []string
	Search            string
}

// RecipeCatalog 是菜谱目录的读取接口
// 聚合器与匹配器只依赖该接口，不直接触碰全局查询
type RecipeCatalog interface {
	GetRecipe(id uint) (*db.Recipe, error)
	ListRecipes(filter RecipeFilter) ([]db.Recipe, error)
	RecipesByID(ids []uint) (map[uint]db.Recipe, error)
}

// CatalogService 基于 gorm 实现 RecipeCatalog，并承担食材目录的维护
type CatalogService struct {
	db *gorm.DB
}

// NewCatalogService 构造 CatalogService
func NewCatalogService(gdb *gorm.DB) *CatalogService {
	return &CatalogService{db: gdb}
}

// GetRecipe 根据 ID 获取菜谱，附带配料需求与分类
func (s *CatalogService) GetRecipe(id uint) (*db.Recipe, error) {
	var recipe db.Recipe
	err := s.db.
		Preload("Ingredients.Ingredient").
		Preload("Categories").
		First(&recipe, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	return &recipe, nil
}

// ListRecipes 返回菜谱目录，支持按分类排除与标题模糊搜索
func (s *CatalogService) ListRecipes(filter RecipeFilter) ([]db.Recipe, error) {
	query := s.db.Model(&db.Recipe{}).
		Preload("Ingredients.Ingredient").
		Preload("Categories")

	if len(filter.ExcludeCategories) > 0 {
		sub := s.db.Table("recipe_categories").
			Select("recipe_categories.recipe_id").
			Joins("JOIN categories ON categories.id = recipe_categories.category_id").
			Where("categories.name IN ?", filter.ExcludeCategories)
		query = query.Where("recipes.id NOT IN (?)", sub)
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		like := fmt.Sprintf("%%%s%%", search)
		query = query.Where("title LIKE ?", like)
	}

	var recipes []db.Recipe
	if err := query.Order("recipes.id ASC").Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return recipes, nil
}

// RecipesByID 按 ID 集合批量获取菜谱，聚合器用它一次性解析日历条目引用
// 结果以 map 返回，缺失的 ID 不在 map 中，由调用方决定如何处理
func (s *CatalogService) RecipesByID(ids []uint) (map[uint]db.Recipe, error) {
	result := make(map[uint]db.Recipe, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var recipes []db.Recipe
	err := s.db.
		Preload("Ingredients.Ingredient").
		Where("id IN ?", ids).
		Find(&recipes).Error
	if err != nil {
		return nil, fmt.Errorf("batch get recipes: %w", err)
	}

	for _, recipe := range recipes {
		result[recipe.ID] = recipe
	}
	return result, nil
}

// ListIngredients 返回食材目录，按名称排序
func (s *CatalogService) ListIngredients() ([]db.Ingredient, error) {
	var ingredients []db.Ingredient
	if err := s.db.Order("name ASC").Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	return ingredients, nil
}

// CreateIngredient 新建食材目录条目，名称唯一
func (s *CatalogService) CreateIngredient(name, category string) (*db.Ingredient, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, errors.New("ingredient name is required")
	}

	ingredient := db.Ingredient{Name: trimmed, Category: strings.TrimSpace(category)}
	if err := s.db.Create(&ingredient).Error; err != nil {
		return nil, fmt.Errorf("create ingredient: %w", err)
	}
	return &ingredient, nil
}
