package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/fridgelog/internal/db"
	"github.com/fridgelog/internal/service"
	"github.com/gin-gonic/gin"
)

type mealPlanPayload struct {
	RecipeID uint   `json:"recipe_id"`
	MealDate string `json:"meal_date"`
	MealSlot string `json:"meal_slot"`
	Servings int    `json:"servings"`
	Notes    string `json:"notes"`
}

// mealPlanUpdatePayload 的字段均为指针，缺省字段不参与更新
type mealPlanUpdatePayload struct {
	RecipeID *uint   `json:"recipe_id"`
	MealDate *string `json:"meal_date"`
	MealSlot *string `json:"meal_slot"`
	Servings *int    `json:"servings"`
	Notes    *string `json:"notes"`
}

// GetMealPlanWeek 返回以 start_date 起始的 7 天日历视图
func (a *API) GetMealPlanWeek(c *gin.Context) {
	start, err := parseDateQuery(c, "start_date")
	if err != nil {
		respondError(c, http.StatusBadRequest, "start_date 参数无效，格式为 YYYY-MM-DD")
		return
	}

	week, err := a.meals.ListWeek(currentUserID(c), start)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取周历失败")
		return
	}

	payload := make(map[string][]gin.H, len(week))
	for date, entries := range week {
		items := make([]gin.H, 0, len(entries))
		for _, entry := range entries {
			items = append(items, mealEntryToPayload(entry))
		}
		payload[date] = items
	}

	c.JSON(http.StatusOK, gin.H{"meal_plans": payload})
}

// CreateMealPlan 在日历上放置一餐
func (a *API) CreateMealPlan(c *gin.Context) {
	var payload mealPlanPayload
	if !bindJSON(c, &payload, "请求格式错误") {
		return
	}

	mealDate, err := time.Parse(dateFormat, strings.TrimSpace(payload.MealDate))
	if err != nil {
		respondError(c, http.StatusBadRequest, "meal_date 格式无效，应为 YYYY-MM-DD")
		return
	}

	entry, err := a.meals.Place(currentUserID(c), service.MealPlanInput{
		RecipeID: payload.RecipeID,
		MealDate: mealDate,
		MealSlot: payload.MealSlot,
		Servings: payload.Servings,
		Notes:    payload.Notes,
	})
	if err != nil {
		respondMealPlanError(c, err)
		return
	}

	c.JSON(http.StatusCreated, mealEntryToPayload(*entry))
}

// UpdateMealPlan 对日历条目做部分更新
func (a *API) UpdateMealPlan(c *gin.Context) {
	entryID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "条目 ID 无效")
		return
	}

	var payload mealPlanUpdatePayload
	if !bindJSON(c, &payload, "请求格式错误") {
		return
	}

	update := service.MealPlanUpdate{
		RecipeID: payload.RecipeID,
		MealSlot: payload.MealSlot,
		Servings: payload.Servings,
		Notes:    payload.Notes,
	}
	if payload.MealDate != nil {
		mealDate, err := time.Parse(dateFormat, strings.TrimSpace(*payload.MealDate))
		if err != nil {
			respondError(c, http.StatusBadRequest, "meal_date 格式无效，应为 YYYY-MM-DD")
			return
		}
		update.MealDate = &mealDate
	}

	entry, err := a.meals.Update(currentUserID(c), entryID, update)
	if err != nil {
		respondMealPlanError(c, err)
		return
	}

	c.JSON(http.StatusOK, mealEntryToPayload(*entry))
}

// CompleteMealPlan 标记一餐已完成，重复调用幂等
func (a *API) CompleteMealPlan(c *gin.Context) {
	entryID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "条目 ID 无效")
		return
	}

	entry, err := a.meals.Complete(currentUserID(c), entryID)
	if err != nil {
		respondMealPlanError(c, err)
		return
	}

	c.JSON(http.StatusOK, mealEntryToPayload(*entry))
}

// DeleteMealPlan 删除日历条目
func (a *API) DeleteMealPlan(c *gin.Context) {
	entryID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "条目 ID 无效")
		return
	}

	if err := a.meals.Delete(currentUserID(c), entryID); err != nil {
		respondMealPlanError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "已删除"})
}

func respondMealPlanError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMealEntryNotFound):
		respondError(c, http.StatusNotFound, "日历条目不存在")
	case errors.Is(err, service.ErrRecipeNotFound):
		respondError(c, http.StatusNotFound, "菜谱不存在")
	case errors.Is(err, service.ErrInvalidServings):
		respondError(c, http.StatusBadRequest, "份数必须为正整数")
	case errors.Is(err, service.ErrInvalidMealSlot):
		respondError(c, http.StatusBadRequest, "无效的用餐槽位")
	default:
		respondError(c, http.StatusInternalServerError, "操作日历条目失败")
	}
}

func mealEntryToPayload(entry db.MealPlanEntry) gin.H {
	payload := gin.H{
		"id":           entry.ID,
		"recipe_id":    entry.RecipeID,
		"recipe_title": entry.Recipe.Title,
		"meal_date":    entry.MealDate.Format(dateFormat),
		"meal_slot":    entry.MealSlot,
		"servings":     entry.Servings,
		"notes":        entry.Notes,
		"is_completed": entry.Completed,
		"created_at":   entry.CreatedAt.UTC().Format(time.RFC3339),
	}
	if entry.CompletedAt != nil {
		payload["completed_at"] = entry.CompletedAt.UTC().Format(time.RFC3339)
	} else {
		payload["completed_at"] = nil
	}
	return payload
}
