package service

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/fridgelog/internal/db"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrInvalidDateRange 当 end_date 早于 start_date 时返回
	ErrInvalidDateRange = errors.New("end date must not be before start date")
	// ErrShareNotFound 在分享令牌不存在时返回
	ErrShareNotFound = errors.New("shopping list share not found")
)

// ContributingRecipe 说明购物清单条目的一个来源
type ContributingRecipe struct {
	RecipeID    uint    `json:"recipe_id"`
	RecipeTitle string  `json:"recipe_title"`
	MealDate    string  `json:"meal_date"`
	MealSlot    string  `json:"meal_slot"`
	Quantity    float64 `json:"quantity"`
}

// ShoppingListItem 是按 (食材, 单位) 聚合后的购物清单行
// 同一食材出现不同单位时保留独立行，不做单位换算
type ShoppingListItem struct {
	IngredientID   uint                 `json:"ingredient_id"`
	IngredientName string               `json:"ingredient_name"`
	TotalQuantity  float64              `json:"total_quantity"`
	Unit           string               `json:"unit"`
	Contributors   []ContributingRecipe `json:"contributing_recipes"`
}

// ShoppingList 是一次聚合请求的完整结果
// SkippedRecipeIDs 记录引用已失效菜谱的条目，聚合本身不中断
type ShoppingList struct {
	StartDate        string             `json:"start_date"`
	EndDate          string             `json:"end_date"`
	Items            []ShoppingListItem `json:"items"`
	TotalRecipes     int                `json:"total_recipes"`
	SkippedRecipeIDs []uint             `json:"skipped_recipe_ids,omitempty"`
}

// ShoppingListService 将日期范围内的日历条目汇总为一份去重购物清单
// 清单每次请求实时重算，不跨请求缓存
type ShoppingListService struct {
	db      *gorm.DB
	meals   *MealPlanService
	catalog RecipeCatalog
}

// NewShoppingListService 构造 ShoppingListService
func NewShoppingListService(gdb *gorm.DB, meals *MealPlanService, catalog RecipeCatalog) *ShoppingListService {
	return &ShoppingListService{db: gdb, meals: meals, catalog: catalog}
}

// bucketKey 以 (食材, 单位) 为聚合键
type bucketKey struct {
	ingredientID uint
	unit         string
}

// bucket 内部保留未舍入的累计值，避免叠加舍入误差
type bucket struct {
	name         string
	total        float64
	contributors []ContributingRecipe
}

// Build 聚合 [start, end] 闭区间内用户所有日历条目的配料需求
// 用量按 entry.Servings / recipe.BaseServings 比例换算后求和
func (s *ShoppingListService) Build(userID uint, start, end time.Time) (*ShoppingList, error) {
	start = NormalizeDate(start)
	end = NormalizeDate(end)
	if end.Before(start) {
		return nil, ErrInvalidDateRange
	}

	entries, err := s.meals.EntriesInRange(userID, start, end)
	if err != nil {
		return nil, err
	}

	result := &ShoppingList{
		StartDate: start.Format(dateFormat),
		EndDate:   end.Format(dateFormat),
		Items:     []ShoppingListItem{},
	}
	if len(entries) == 0 {
		return result, nil
	}

	// 按去重后的菜谱 ID 一次性批量拉取需求，成本与不同菜谱数成正比
	recipeIDs := distinctRecipeIDs(entries)
	recipes, err := s.catalog.RecipesByID(recipeIDs)
	if err != nil {
		return nil, err
	}

	buckets := make(map[bucketKey]*bucket)
	skipped := make(map[uint]bool)
	contributing := make(map[uint]bool)

	for _, entry := range entries {
		recipe, ok := recipes[entry.RecipeID]
		if !ok {
			// 数据完整性告警：条目引用的菜谱已不可解析，跳过但不中断
			if !skipped[entry.RecipeID] {
				slog.Warn("shopping list skipping dangling recipe reference",
					"user_id", userID,
					"recipe_id", entry.RecipeID,
					"entry_id", entry.ID)
			}
			skipped[entry.RecipeID] = true
			continue
		}
		contributing[recipe.ID] = true

		scale := servingScale(entry.Servings, recipe.BaseServings)
		for _, req := range recipe.Ingredients {
			scaled := req.Quantity * scale
			key := bucketKey{ingredientID: req.IngredientID, unit: req.Unit}
			b, ok := buckets[key]
			if !ok {
				b = &bucket{name: req.Ingredient.Name}
				buckets[key] = b
			}
			b.total += scaled
			b.contributors = append(b.contributors, ContributingRecipe{
				RecipeID:    recipe.ID,
				RecipeTitle: recipe.Title,
				MealDate:    entry.MealDate.Format(dateFormat),
				MealSlot:    entry.MealSlot,
				Quantity:    round2(scaled),
			})
		}
	}

	for key, b := range buckets {
		result.Items = append(result.Items, ShoppingListItem{
			IngredientID:   key.ingredientID,
			IngredientName: b.name,
			TotalQuantity:  round2(b.total),
			Unit:           key.unit,
			Contributors:   b.contributors,
		})
	}

	// 外层清单按食材名排序保证输出确定；来源明细维持插入序
	sort.Slice(result.Items, func(i, j int) bool {
		a, b := result.Items[i], result.Items[j]
		if a.IngredientName != b.IngredientName {
			return a.IngredientName < b.IngredientName
		}
		if a.IngredientID != b.IngredientID {
			return a.IngredientID < b.IngredientID
		}
		return a.Unit < b.Unit
	})

	result.TotalRecipes = len(contributing)
	for id := range skipped {
		result.SkippedRecipeIDs = append(result.SkippedRecipeIDs, id)
	}
	sort.Slice(result.SkippedRecipeIDs, func(i, j int) bool {
		return result.SkippedRecipeIDs[i] < result.SkippedRecipeIDs[j]
	})

	return result, nil
}

// CreateShare 为指定日期范围签发分享令牌；清单内容在访问时重算
func (s *ShoppingListService) CreateShare(userID uint, start, end time.Time) (*db.ShoppingListShare, error) {
	start = NormalizeDate(start)
	end = NormalizeDate(end)
	if end.Before(start) {
		return nil, ErrInvalidDateRange
	}

	share := db.ShoppingListShare{
		UserID:    userID,
		Token:     uuid.NewString(),
		StartDate: start,
		EndDate:   end,
	}
	if err := s.db.Create(&share).Error; err != nil {
		return nil, fmt.Errorf("create shopping list share: %w", err)
	}
	return &share, nil
}

// BuildShared 按分享令牌重算对应用户与日期范围的购物清单
func (s *ShoppingListService) BuildShared(token string) (*ShoppingList, error) {
	var share db.ShoppingListShare
	err := s.db.Where("token = ?", token).First(&share).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShareNotFound
		}
		return nil, fmt.Errorf("get shopping list share: %w", err)
	}
	return s.Build(share.UserID, share.StartDate, share.EndDate)
}

// servingScale 返回份数换算系数
// 菜谱基准份数异常（<=0）时按 1 处理，避免除零
func servingScale(servings, baseServings int) float64 {
	if baseServings <= 0 {
		baseServings = 1
	}
	return float64(servings) / float64(baseServings)
}

func distinctRecipeIDs(entries []db.MealPlanEntry) []uint {
	seen := make(map[uint]bool, len(entries))
	ids := make([]uint, 0, len(entries))
	for _, entry := range entries {
		if !seen[entry.RecipeID] {
			seen[entry.RecipeID] = true
			ids = append(ids, entry.RecipeID)
		}
	}
	return ids
}

// round2 只用于展示值，内部累计保留原始精度
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
