package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fridgelog/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrRecipeTitleRequired 当菜谱标题为空时返回
	ErrRecipeTitleRequired = errors.New("recipe title is required")
	// ErrInvalidBaseServings 当基准份数不是正整数时返回
	ErrInvalidBaseServings = errors.New("base servings must be a positive integer")
)

// RecipeService 负责菜谱目录的写入
// 读取走 RecipeCatalog 接口；编辑会整组替换配料需求
type RecipeService struct {
	db *gorm.DB
}

// NewRecipeService 构造 RecipeService
func NewRecipeService(gdb *gorm.DB) *RecipeService {
	return &RecipeService{db: gdb}
}

// RecipeIngredientInput 定义单条配料需求
type RecipeIngredientInput struct {
	IngredientID uint
	Quantity     float64
	Unit         string
	Optional     bool
}

// RecipeInput 定义创建/更新菜谱时可配置字段
type RecipeInput struct {
	Title        string
	Description  string
	Instructions string
	BaseServings int
	CategoryIDs  []uint
	Ingredients  []RecipeIngredientInput
}

// Create 新建菜谱及其配料需求
func (s *RecipeService) Create(userID uint, input RecipeInput) (*db.Recipe, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}

	categories, err := s.loadCategories(input.CategoryIDs)
	if err != nil {
		return nil, err
	}

	recipe := db.Recipe{
		UserID:       userID,
		Title:        strings.TrimSpace(input.Title),
		Description:  strings.TrimSpace(input.Description),
		Instructions: input.Instructions,
		BaseServings: input.BaseServings,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&recipe).Error; err != nil {
			return fmt.Errorf("create recipe: %w", err)
		}
		if len(categories) > 0 {
			if err := tx.Model(&recipe).Association("Categories").Replace(categories); err != nil {
				return fmt.Errorf("set recipe categories: %w", err)
			}
		}
		return createRequirements(tx, recipe.ID, input.Ingredients)
	})
	if err != nil {
		return nil, err
	}

	return s.reload(recipe.ID)
}

// Update 更新菜谱；配料需求整组删除后重建，不做逐条合并
func (s *RecipeService) Update(userID, recipeID uint, input RecipeInput) (*db.Recipe, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}

	var recipe db.Recipe
	err := s.db.Where("id = ? AND user_id = ?", recipeID, userID).First(&recipe).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("get recipe: %w", err)
	}

	categories, err := s.loadCategories(input.CategoryIDs)
	if err != nil {
		return nil, err
	}

	recipe.Title = strings.TrimSpace(input.Title)
	recipe.Description = strings.TrimSpace(input.Description)
	recipe.Instructions = input.Instructions
	recipe.BaseServings = input.BaseServings

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&recipe).Error; err != nil {
			return fmt.Errorf("update recipe: %w", err)
		}
		if err := tx.Model(&recipe).Association("Categories").Replace(categories); err != nil {
			return fmt.Errorf("set recipe categories: %w", err)
		}
		if err := tx.Unscoped().
			Where("recipe_id = ?", recipe.ID).
			Delete(&db.RecipeIngredient{}).Error; err != nil {
			return fmt.Errorf("clear recipe ingredients: %w", err)
		}
		return createRequirements(tx, recipe.ID, input.Ingredients)
	})
	if err != nil {
		return nil, err
	}

	return s.reload(recipe.ID)
}

// Delete 删除菜谱，并级联删除配料需求与引用它的日历条目
func (s *RecipeService) Delete(userID, recipeID uint) error {
	var recipe db.Recipe
	err := s.db.Where("id = ? AND user_id = ?", recipeID, userID).First(&recipe).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRecipeNotFound
		}
		return fmt.Errorf("get recipe: %w", err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().
			Where("recipe_id = ?", recipe.ID).
			Delete(&db.MealPlanEntry{}).Error; err != nil {
			return fmt.Errorf("cascade meal plan entries: %w", err)
		}
		if err := tx.Unscoped().
			Where("recipe_id = ?", recipe.ID).
			Delete(&db.RecipeIngredient{}).Error; err != nil {
			return fmt.Errorf("delete recipe ingredients: %w", err)
		}
		if err := tx.Model(&recipe).Association("Categories").Clear(); err != nil {
			return fmt.Errorf("clear recipe categories: %w", err)
		}
		if err := tx.Unscoped().Delete(&recipe).Error; err != nil {
			return fmt.Errorf("delete recipe: %w", err)
		}
		return nil
	})
}

func (s *RecipeService) validate(input RecipeInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return ErrRecipeTitleRequired
	}
	if input.BaseServings <= 0 {
		return ErrInvalidBaseServings
	}

	for _, req := range input.Ingredients {
		var count int64
		if err := s.db.Model(&db.Ingredient{}).Where("id = ?", req.IngredientID).Count(&count).Error; err != nil {
			return fmt.Errorf("check ingredient: %w", err)
		}
		if count == 0 {
			return ErrIngredientNotFound
		}
	}
	return nil
}

func (s *RecipeService) loadCategories(ids []uint) ([]db.Category, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var categories []db.Category
	if err := s.db.Where("id IN ?", ids).Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	if len(categories) != len(ids) {
		return nil, errors.New("unknown category id")
	}
	return categories, nil
}

func createRequirements(tx *gorm.DB, recipeID uint, inputs []RecipeIngredientInput) error {
	for _, req := range inputs {
		row := db.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: req.IngredientID,
			Quantity:     req.Quantity,
			Unit:         strings.TrimSpace(req.Unit),
			Optional:     req.Optional,
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("create recipe ingredient: %w", err)
		}
	}
	return nil
}

func (s *RecipeService) reload(recipeID uint) (*db.Recipe, error) {
	var recipe db.Recipe
	err := s.db.
		Preload("Ingredients.Ingredient").
		Preload("Categories").
		First(&recipe, recipeID).Error
	if err != nil {
		return nil, fmt.Errorf("reload recipe: %w", err)
	}
	return &recipe, nil
}
