package service

import (
	"cmp"
	"errors"
	"math"
	"slices"

	"github.com/fridgelog/internal/db"
	"gorm.io/gorm"
)

// 匹配模式取值
const (
	// MatchAny 要求至少命中一种库存食材，缺口不超过上限
	MatchAny = "any"
	// MatchAll 只看缺口是否不超过上限，面向"愿意补买 N 样"的场景
	MatchAll = "all"
)

// defaultMatchLimit 是建议列表的默认截断长度
const defaultMatchLimit = 20

var (
	// ErrInvalidMatchType 当匹配模式不在 any/all 中时返回
	ErrInvalidMatchType = errors.New("invalid match type")
	// ErrInvalidMaxMissing 当缺口上限为负数时返回
	ErrInvalidMaxMissing = errors.New("max missing ingredients must not be negative")
)

// MatchPolicy 控制推荐行为
type MatchPolicy struct {
	MatchType         string
	MaxMissing        int
	ExcludeCategories []string
	Limit             int
}

// MissingIngredient 标识一种缺少的食材
type MissingIngredient struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// RecipeMatchResult 是匹配器对单个菜谱的打分结果
type RecipeMatchResult struct {
	RecipeID           uint                `json:"recipe_id"`
	Title              string              `json:"recipe_title"`
	Description        string              `json:"recipe_description"`
	MatchingCount      int                 `json:"matching_ingredient_count"`
	TotalCount         int                 `json:"total_ingredient_count"`
	MatchPercentage    int                 `json:"match_percentage"`
	MissingIngredients []MissingIngredient `json:"missing_ingredients"`
	CanCook            bool                `json:"can_cook"`
}

// MatcherService 按冰箱库存对菜谱目录做重叠度排名（"冰箱里有什么能做什么"）
// 匹配只看食材是否在库，不比较数量：没有密度表时跨单位的量值比较并不可靠
type MatcherService struct {
	db      *gorm.DB
	catalog RecipeCatalog
}

// NewMatcherService 构造 MatcherService
func NewMatcherService(gdb *gorm.DB, catalog RecipeCatalog) *MatcherService {
	return &MatcherService{db: gdb, catalog: catalog}
}

// Suggest 按策略对目录打分并返回排名结果
// 排除分类同时作用于候选菜谱与配料的分子分母；可省略配料不参与统计
func (s *MatcherService) Suggest(userID uint, policy MatchPolicy) ([]RecipeMatchResult, error) {
	if policy.MatchType != MatchAny && policy.MatchType != MatchAll {
		return nil, ErrInvalidMatchType
	}
	if policy.MaxMissing < 0 {
		return nil, ErrInvalidMaxMissing
	}
	limit := policy.Limit
	if limit <= 0 {
		limit = defaultMatchLimit
	}

	fridgeIDs, err := s.fridgeIngredientIDs(userID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.catalog.ListRecipes(RecipeFilter{ExcludeCategories: policy.ExcludeCategories})
	if err != nil {
		return nil, err
	}

	excluded := make(map[string]bool, len(policy.ExcludeCategories))
	for _, name := range policy.ExcludeCategories {
		excluded[name] = true
	}

	results := make([]RecipeMatchResult, 0, len(candidates))
	for _, recipe := range candidates {
		result := scoreRecipe(recipe, fridgeIDs, excluded)

		switch policy.MatchType {
		case MatchAny:
			if result.MatchingCount < 1 {
				continue
			}
			if len(result.MissingIngredients) > policy.MaxMissing {
				continue
			}
		case MatchAll:
			if len(result.MissingIngredients) > policy.MaxMissing {
				continue
			}
		}

		results = append(results, result)
	}

	// 匹配率降序，缺口数升序，菜谱 ID 升序，保证输出确定
	slices.SortFunc(results, func(a, b RecipeMatchResult) int {
		if c := cmp.Compare(b.MatchPercentage, a.MatchPercentage); c != 0 {
			return c
		}
		if c := cmp.Compare(len(a.MissingIngredients), len(b.MissingIngredients)); c != 0 {
			return c
		}
		return cmp.Compare(a.RecipeID, b.RecipeID)
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// scoreRecipe 对单个菜谱计算命中/缺口与匹配率
// 被排除分类的食材同时从分子与分母剔除，不应因"缺少"它们而扣分
func scoreRecipe(recipe db.Recipe, fridgeIDs map[uint]bool, excludedCategories map[string]bool) RecipeMatchResult {
	result := RecipeMatchResult{
		RecipeID:           recipe.ID,
		Title:              recipe.Title,
		Description:        recipe.Description,
		MissingIngredients: []MissingIngredient{},
	}

	seen := make(map[uint]bool, len(recipe.Ingredients))
	for _, req := range recipe.Ingredients {
		if req.Optional {
			continue
		}
		if excludedCategories[req.Ingredient.Category] {
			continue
		}
		if seen[req.IngredientID] {
			continue
		}
		seen[req.IngredientID] = true

		result.TotalCount++
		if fridgeIDs[req.IngredientID] {
			result.MatchingCount++
		} else {
			result.MissingIngredients = append(result.MissingIngredients, MissingIngredient{
				ID:   req.IngredientID,
				Name: req.Ingredient.Name,
			})
		}
	}

	if result.TotalCount == 0 {
		// 无可统计配料的菜谱视为完全匹配
		result.MatchPercentage = 100
	} else {
		result.MatchPercentage = int(math.Round(100 * float64(result.MatchingCount) / float64(result.TotalCount)))
	}
	result.CanCook = len(result.MissingIngredients) == 0

	return result
}

func (s *MatcherService) fridgeIngredientIDs(userID uint) (map[uint]bool, error) {
	var ids []uint
	err := s.db.Model(&db.FridgeItem{}).
		Where("user_id = ?", userID).
		Distinct().
		Pluck("ingredient_id", &ids).Error
	if err != nil {
		return nil, err
	}

	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}
