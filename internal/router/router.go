package router

import (
	"net/http"

	"github.com/fridgelog/internal/db"
	"github.com/fridgelog/internal/handler"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(sessionSecret string, secureCookies bool) *gin.Engine {
	r := gin.Default()

	// 配置会话中间件。store 默认带 Secure + SameSite=None，
	// 纯 HTTP 部署时浏览器不会回传 cookie，这里必须显式设置
	store := cookie.NewStore([]byte(sessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("fridgelog_session", store))

	api := handler.NewAPI(db.DB)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// 公开路由：注册、登录、分享清单
	r.POST("/api/register", api.Register)
	r.POST("/api/login", api.Login)
	r.GET("/shared/shopping-list/:token", api.GetSharedShoppingList)

	// 需要登录的 API 路由
	authed := r.Group("/api")
	authed.Use(handler.AuthRequired())
	{
		authed.POST("/logout", api.Logout)

		authed.GET("/meal-plans/week", api.GetMealPlanWeek)
		authed.POST("/meal-plans", api.CreateMealPlan)
		authed.PUT("/meal-plans/:id", api.UpdateMealPlan)
		authed.DELETE("/meal-plans/:id", api.DeleteMealPlan)
		authed.POST("/meal-plans/:id/complete", api.CompleteMealPlan)

		authed.GET("/shopping-list", api.GetShoppingList)
		authed.POST("/shopping-list/share", api.CreateShoppingListShare)

		authed.GET("/fridge", api.ListFridge)
		authed.GET("/fridge/expiring", api.ListExpiringFridge)
		authed.POST("/fridge", api.AddFridgeItem)
		authed.PUT("/fridge/:id", api.UpdateFridgeItem)
		authed.DELETE("/fridge/expired", api.SweepExpiredFridge)
		authed.DELETE("/fridge/:id", api.DeleteFridgeItem)
		authed.POST("/fridge/suggestions", api.SuggestRecipes)

		authed.GET("/recipes", api.ListRecipes)
		authed.GET("/recipes/:id", api.GetRecipe)
		authed.POST("/recipes", api.CreateRecipe)
		authed.PUT("/recipes/:id", api.UpdateRecipe)
		authed.DELETE("/recipes/:id", api.DeleteRecipe)

		authed.GET("/ingredients", api.ListIngredients)
		authed.POST("/ingredients", api.CreateIngredient)
	}

	return r
}
