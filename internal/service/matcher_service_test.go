package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/fridgelog/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMatcherTestDB(t *testing.T) (*MatcherService, func()) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := gdb.AutoMigrate(&db.Ingredient{}, &db.Category{}, &db.Recipe{}, &db.RecipeIngredient{}, &db.FridgeItem{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	db.DB = gdb

	catalog := NewCatalogService(gdb)
	return NewMatcherService(gdb, catalog), func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func seedIngredient(t *testing.T, name, category string) db.Ingredient {
	t.Helper()
	ingredient := db.Ingredient{Name: name, Category: category}
	if err := db.DB.Create(&ingredient).Error; err != nil {
		t.Fatalf("failed to seed ingredient %s: %v", name, err)
	}
	return ingredient
}

func seedRecipe(t *testing.T, title string, baseServings int, categories ...db.Category) db.Recipe {
	t.Helper()
	recipe := db.Recipe{UserID: 1, Title: title, BaseServings: baseServings, Categories: categories}
	if err := db.DB.Create(&recipe).Error; err != nil {
		t.Fatalf("failed to seed recipe %s: %v", title, err)
	}
	return recipe
}

func seedRequirement(t *testing.T, recipeID uint, ingredient db.Ingredient, quantity float64, unit string, optional bool) {
	t.Helper()
	req := db.RecipeIngredient{
		RecipeID:     recipeID,
		IngredientID: ingredient.ID,
		Quantity:     quantity,
		Unit:         unit,
		Optional:     optional,
	}
	if err := db.DB.Create(&req).Error; err != nil {
		t.Fatalf("failed to seed requirement: %v", err)
	}
}

func seedFridgeItem(t *testing.T, userID uint, ingredient db.Ingredient) {
	t.Helper()
	item := db.FridgeItem{UserID: userID, IngredientID: ingredient.ID, Quantity: 1, Unit: "份"}
	if err := db.DB.Create(&item).Error; err != nil {
		t.Fatalf("failed to seed fridge item: %v", err)
	}
}

// 对应"冰箱里有番茄和罗勒"的经典场景：
// A 需要番茄/罗勒/马苏里拉，B 只需要番茄，any 模式缺口上限 1 时两者都入选
func TestSuggestAnyModeClassicScenario(t *testing.T) {
	svc, cleanup := setupMatcherTestDB(t)
	defer cleanup()

	tomato := seedIngredient(t, "Tomato", "vegetable")
	basil := seedIngredient(t, "Basil", "herb")
	mozzarella := seedIngredient(t, "Mozzarella", "dairy")

	recipeA := seedRecipe(t, "Caprese", 2)
	seedRequirement(t, recipeA.ID, tomato, 2, "pcs", false)
	seedRequirement(t, recipeA.ID, basil, 10, "g", false)
	seedRequirement(t, recipeA.ID, mozzarella, 125, "g", false)

	recipeB := seedRecipe(t, "Tomato Salad", 2)
	seedRequirement(t, recipeB.ID, tomato, 3, "pcs", false)

	seedFridgeItem(t, 1, tomato)
	seedFridgeItem(t, 1, basil)

	results, err := svc.Suggest(1, MatchPolicy{MatchType: MatchAny, MaxMissing: 1})
	if err != nil {
		t.Fatalf("Suggest returned error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	// B 全部命中排在前面
	if results[0].RecipeID != recipeB.ID {
		t.Fatalf("expected recipe B first, got recipe %d", results[0].RecipeID)
	}
	if results[0].MatchPercentage != 100 || !results[0].CanCook {
		t.Fatalf("expected recipe B fully matched, got %d%% can_cook=%v", results[0].MatchPercentage, results[0].CanCook)
	}

	if results[1].RecipeID != recipeA.ID {
		t.Fatalf("expected recipe A second, got recipe %d", results[1].RecipeID)
	}
	if results[1].MatchPercentage != 67 {
		t.Fatalf("expected recipe A at 67%%, got %d%%", results[1].MatchPercentage)
	}
	if results[1].CanCook {
		t.Fatal("expected recipe A can_cook=false")
	}
	if len(results[1].MissingIngredients) != 1 || results[1].MissingIngredients[0].Name != "Mozzarella" {
		t.Fatalf("expected missing [Mozzarella], got %+v", results[1].MissingIngredients)
	}
}

// any 模式零缺口上限等价于"现在就能做"
func TestSuggestAnyModeZeroMissing(t *testing.T) {
	svc, cleanup := setupMatcherTestDB(t)
	defer cleanup()

	tomato := seedIngredient(t, "Tomato", "vegetable")
	mozzarella := seedIngredient(t, "Mozzarella", "dairy")

	partial := seedRecipe(t, "Caprese", 2)
	seedRequirement(t, partial.ID, tomato, 2, "pcs", false)
	seedRequirement(t, partial.ID, mozzarella, 125, "g", false)

	full := seedRecipe(t, "Tomato Soup", 2)
	seedRequirement(t, full.ID, tomato, 4, "pcs", false)

	seedFridgeItem(t, 1, tomato)

	results, err := svc.Suggest(1, MatchPolicy{MatchType: MatchAny, MaxMissing: 0})
	if err != nil {
		t.Fatalf("Suggest returned error: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("expected exactly the fully satisfiable recipe, got %d results", len(results))
	}
	if results[0].RecipeID != full.ID || !results[0].CanCook {
		t.Fatalf("unexpected result: %+v", results[0])
	}
}

// all 模式不要求命中任何库存，只看缺口是否在可补买范围内
func TestSuggestAllModeIgnoresOverlap(t *testing.T) {
	svc, cleanup := setupMatcherTestDB(t)
	defer cleanup()

	flour := seedIngredient(t, "Flour", "staple")
	egg := seedIngredient(t, "Egg", "egg")

	pancake := seedRecipe(t, "Pancake", 4)
	seedRequirement(t, pancake.ID, flour, 200, "g", false)
	seedRequirement(t, pancake.ID, egg, 2, "pcs", false)

	// 冰箱为空，any 模式不会返回任何结果
	anyResults, err := svc.Suggest(1, MatchPolicy{MatchType: MatchAny, MaxMissing: 2})
	if err != nil {
		t.Fatalf("Suggest returned error: %v", err)
	}
	if len(anyResults) != 0 {
		t.Fatalf("expected no any-mode results with empty fridge, got %d", len(anyResults))
	}

	// all 模式允许"愿意补买两样"
	allResults, err := svc.Suggest(1, MatchPolicy{MatchType: MatchAll, MaxMissing: 2})
	if err != nil {
		t.Fatalf("Suggest returned error: %v", err)
	}
	if len(allResults) != 1 || allResults[0].RecipeID != pancake.ID {
		t.Fatalf("expected pancake in all-mode results, got %+v", allResults)
	}
	if allResults[0].MatchPercentage != 0 {
		t.Fatalf("expected 0%% match, got %d%%", allResults[0].MatchPercentage)
	}
}

// 被排除分类的食材同时从分子与分母剔除，不拉低匹配率
func TestSuggestExcludedCategoryAffectsBothSides(t *testing.T) {
	svc, cleanup := setupMatcherTestDB(t)
	defer cleanup()

	tomato := seedIngredient(t, "Tomato", "vegetable")
	salt := seedIngredient(t, "Salt", "seasoning")

	recipe := seedRecipe(t, "Tomato Soup", 2)
	seedRequirement(t, recipe.ID, tomato, 4, "pcs", false)
	seedRequirement(t, recipe.ID, salt, 5, "g", false)

	seedFridgeItem(t, 1, tomato)

	results, err := svc.Suggest(1, MatchPolicy{
		MatchType:         MatchAny,
		MaxMissing:        0,
		ExcludeCategories: []string{"seasoning"},
	})
	if err != nil {
		t.Fatalf("Suggest returned error: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].MatchPercentage != 100 || !results[0].CanCook {
		t.Fatalf("expected 100%% after exclusion, got %d%% can_cook=%v", results[0].MatchPercentage, results[0].CanCook)
	}
	if results[0].TotalCount != 1 {
		t.Fatalf("expected denominator 1 after exclusion, got %d", results[0].TotalCount)
	}
}

// 排除分类作用于候选菜谱本身（例如 "Ingredient" 这类非成品条目）
func TestSuggestExcludesRecipesByCategory(t *testing.T) {
	svc, cleanup := setupMatcherTestDB(t)
	defer cleanup()

	nonDish := db.Category{Name: "Ingredient"}
	if err := db.DB.Create(&nonDish).Error; err != nil {
		t.Fatalf("failed to seed category: %v", err)
	}

	tomato := seedIngredient(t, "Tomato", "vegetable")

	dish := seedRecipe(t, "Tomato Salad", 2)
	seedRequirement(t, dish.ID, tomato, 2, "pcs", false)

	pseudo := seedRecipe(t, "Canned Tomato", 1, nonDish)
	seedRequirement(t, pseudo.ID, tomato, 1, "pcs", false)

	seedFridgeItem(t, 1, tomato)

	results, err := svc.Suggest(1, MatchPolicy{
		MatchType:         MatchAny,
		MaxMissing:        0,
		ExcludeCategories: []string{"Ingredient"},
	})
	if err != nil {
		t.Fatalf("Suggest returned error: %v", err)
	}

	if len(results) != 1 || results[0].RecipeID != dish.ID {
		t.Fatalf("expected only the dish recipe, got %+v", results)
	}
}

// 无可统计配料的菜谱按 100% 处理
func TestSuggestEmptyIngredientSetMatchesFully(t *testing.T) {
	svc, cleanup := setupMatcherTestDB(t)
	defer cleanup()

	tomato := seedIngredient(t, "Tomato", "vegetable")
	seedFridgeItem(t, 1, tomato)

	empty := seedRecipe(t, "Mystery Dish", 2)
	_ = empty

	results, err := svc.Suggest(1, MatchPolicy{MatchType: MatchAll, MaxMissing: 0})
	if err != nil {
		t.Fatalf("Suggest returned error: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].MatchPercentage != 100 || !results[0].CanCook {
		t.Fatalf("expected trivial full match, got %+v", results[0])
	}
}

// 可省略配料不参与命中与缺口统计
func TestSuggestSkipsOptionalIngredients(t *testing.T) {
	svc, cleanup := setupMatcherTestDB(t)
	defer cleanup()

	tomato := seedIngredient(t, "Tomato", "vegetable")
	basil := seedIngredient(t, "Basil", "herb")

	recipe := seedRecipe(t, "Tomato Salad", 2)
	seedRequirement(t, recipe.ID, tomato, 2, "pcs", false)
	seedRequirement(t, recipe.ID, basil, 5, "g", true)

	seedFridgeItem(t, 1, tomato)

	results, err := svc.Suggest(1, MatchPolicy{MatchType: MatchAny, MaxMissing: 0})
	if err != nil {
		t.Fatalf("Suggest returned error: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if !results[0].CanCook || results[0].TotalCount != 1 {
		t.Fatalf("expected optional basil ignored, got %+v", results[0])
	}
}

// 排序：匹配率降序 → 缺口升序 → 菜谱 ID 升序；limit 截断
func TestSuggestOrderingAndLimit(t *testing.T) {
	svc, cleanup := setupMatcherTestDB(t)
	defer cleanup()

	tomato := seedIngredient(t, "Tomato", "vegetable")
	basil := seedIngredient(t, "Basil", "herb")
	egg := seedIngredient(t, "Egg", "egg")

	first := seedRecipe(t, "Salad A", 2)
	seedRequirement(t, first.ID, tomato, 1, "pcs", false)

	second := seedRecipe(t, "Salad B", 2)
	seedRequirement(t, second.ID, tomato, 2, "pcs", false)

	third := seedRecipe(t, "Omelette", 2)
	seedRequirement(t, third.ID, tomato, 1, "pcs", false)
	seedRequirement(t, third.ID, egg, 2, "pcs", false)

	seedFridgeItem(t, 1, tomato)
	seedFridgeItem(t, 1, basil)

	results, err := svc.Suggest(1, MatchPolicy{MatchType: MatchAny, MaxMissing: 1})
	if err != nil {
		t.Fatalf("Suggest returned error: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	// 两个 100% 的按 ID 升序，再到 50% 的煎蛋
	if results[0].RecipeID != first.ID || results[1].RecipeID != second.ID || results[2].RecipeID != third.ID {
		t.Fatalf("unexpected ordering: %d, %d, %d", results[0].RecipeID, results[1].RecipeID, results[2].RecipeID)
	}

	limited, err := svc.Suggest(1, MatchPolicy{MatchType: MatchAny, MaxMissing: 1, Limit: 2})
	if err != nil {
		t.Fatalf("Suggest returned error: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected limit to cap results at 2, got %d", len(limited))
	}
}

func TestSuggestRejectsInvalidPolicy(t *testing.T) {
	svc, cleanup := setupMatcherTestDB(t)
	defer cleanup()

	if _, err := svc.Suggest(1, MatchPolicy{MatchType: "some"}); !errors.Is(err, ErrInvalidMatchType) {
		t.Fatalf("expected ErrInvalidMatchType, got %v", err)
	}

	if _, err := svc.Suggest(1, MatchPolicy{MatchType: MatchAny, MaxMissing: -1}); !errors.Is(err, ErrInvalidMaxMissing) {
		t.Fatalf("expected ErrInvalidMaxMissing, got %v", err)
	}
}

// 匹配率始终落在 [0, 100]，can_cook 与缺口为空互为充要
func TestSuggestPercentageBoundsAndCanCook(t *testing.T) {
	svc, cleanup := setupMatcherTestDB(t)
	defer cleanup()

	tomato := seedIngredient(t, "Tomato", "vegetable")
	basil := seedIngredient(t, "Basil", "herb")
	egg := seedIngredient(t, "Egg", "egg")

	for i, ingredients := range [][]db.Ingredient{
		{tomato}, {tomato, basil}, {tomato, basil, egg}, {egg},
	} {
		recipe := seedRecipe(t, fmt.Sprintf("Recipe %d", i), 2)
		for _, ingredient := range ingredients {
			seedRequirement(t, recipe.ID, ingredient, 1, "份", false)
		}
	}

	seedFridgeItem(t, 1, tomato)

	results, err := svc.Suggest(1, MatchPolicy{MatchType: MatchAll, MaxMissing: 3})
	if err != nil {
		t.Fatalf("Suggest returned error: %v", err)
	}

	for _, result := range results {
		if result.MatchPercentage < 0 || result.MatchPercentage > 100 {
			t.Fatalf("match percentage out of bounds: %d", result.MatchPercentage)
		}
		if result.CanCook != (len(result.MissingIngredients) == 0) {
			t.Fatalf("can_cook inconsistent with missing list: %+v", result)
		}
	}
}
