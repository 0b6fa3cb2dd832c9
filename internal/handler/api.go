package handler

import (
	"github.com/fridgelog/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db       *gorm.DB
	catalog  *service.CatalogService
	recipes  *service.RecipeService
	meals    *service.MealPlanService
	shopping *service.ShoppingListService
	matcher  *service.MatcherService
	fridge   *service.FridgeService
}

// NewAPI constructs a handler set with shared services.
func NewAPI(db *gorm.DB) *API {
	catalog := service.NewCatalogService(db)
	meals := service.NewMealPlanService(db, catalog)

	return &API{
		db:       db,
		catalog:  catalog,
		recipes:  service.NewRecipeService(db),
		meals:    meals,
		shopping: service.NewShoppingListService(db, meals, catalog),
		matcher:  service.NewMatcherService(db, catalog),
		fridge:   service.NewFridgeService(db),
	}
}
