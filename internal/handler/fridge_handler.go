package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fridgelog/internal/db"
	"github.com/fridgelog/internal/service"
	"github.com/gin-gonic/gin"
)

type fridgeItemPayload struct {
	IngredientID uint    `json:"ingredient_id"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
	ExpiresAt    string  `json:"expiry_date"`
	Notes        string  `json:"notes"`
}

type suggestionPayload struct {
	MatchType         string   `json:"match_type"`
	MaxMissing        int      `json:"max_missing_ingredients"`
	ExcludeCategories []string `json:"exclude_categories"`
	Limit             int      `json:"limit"`
}

// ListFridge 返回当前用户的全部库存
func (a *API) ListFridge(c *gin.Context) {
	items, err := a.fridge.List(currentUserID(c))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取冰箱库存失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": fridgeItemsToPayload(items)})
}

// ListExpiringFridge 返回 days 天内到期的库存，默认 3 天
func (a *API) ListExpiringFridge(c *gin.Context) {
	days := 3
	if raw := strings.TrimSpace(c.Query("days")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondError(c, http.StatusBadRequest, "days 参数无效")
			return
		}
		days = parsed
	}

	items, err := a.fridge.ExpiringSoon(currentUserID(c), time.Now().UTC(), days)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取临期库存失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": fridgeItemsToPayload(items), "days": days})
}

// AddFridgeItem 手动入库一条食材
func (a *API) AddFridgeItem(c *gin.Context) {
	input, ok := bindFridgeItemInput(c)
	if !ok {
		return
	}

	item, err := a.fridge.Add(currentUserID(c), input)
	if err != nil {
		respondFridgeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, fridgeItemToPayload(*item))
}

// UpdateFridgeItem 更新库存条目
func (a *API) UpdateFridgeItem(c *gin.Context) {
	itemID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "条目 ID 无效")
		return
	}

	input, ok := bindFridgeItemInput(c)
	if !ok {
		return
	}

	item, err := a.fridge.Update(currentUserID(c), itemID, input)
	if err != nil {
		respondFridgeError(c, err)
		return
	}
	c.JSON(http.StatusOK, fridgeItemToPayload(*item))
}

// DeleteFridgeItem 删除单条库存
func (a *API) DeleteFridgeItem(c *gin.Context) {
	itemID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "条目 ID 无效")
		return
	}

	if err := a.fridge.Remove(currentUserID(c), itemID); err != nil {
		respondFridgeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "已删除"})
}

// SweepExpiredFridge 批量清理已过期库存
func (a *API) SweepExpiredFridge(c *gin.Context) {
	removed, err := a.fridge.SweepExpired(currentUserID(c), time.Now().UTC())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "清理过期库存失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// SuggestRecipes 按库存对菜谱目录做匹配排名
func (a *API) SuggestRecipes(c *gin.Context) {
	var payload suggestionPayload
	if !bindJSON(c, &payload, "请求格式错误") {
		return
	}

	results, err := a.matcher.Suggest(currentUserID(c), service.MatchPolicy{
		MatchType:         payload.MatchType,
		MaxMissing:        payload.MaxMissing,
		ExcludeCategories: payload.ExcludeCategories,
		Limit:             payload.Limit,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidMatchType):
			respondError(c, http.StatusBadRequest, "match_type 只支持 any 或 all")
		case errors.Is(err, service.ErrInvalidMaxMissing):
			respondError(c, http.StatusBadRequest, "max_missing_ingredients 不能为负数")
		default:
			respondError(c, http.StatusInternalServerError, "生成推荐失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": results})
}

func bindFridgeItemInput(c *gin.Context) (service.FridgeItemInput, bool) {
	var payload fridgeItemPayload
	if !bindJSON(c, &payload, "请求格式错误") {
		return service.FridgeItemInput{}, false
	}

	input := service.FridgeItemInput{
		IngredientID: payload.IngredientID,
		Quantity:     payload.Quantity,
		Unit:         payload.Unit,
		Notes:        payload.Notes,
	}
	if raw := strings.TrimSpace(payload.ExpiresAt); raw != "" {
		expiry, err := time.Parse(dateFormat, raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "expiry_date 格式无效，应为 YYYY-MM-DD")
			return service.FridgeItemInput{}, false
		}
		input.ExpiresAt = &expiry
	}
	return input, true
}

func respondFridgeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrFridgeItemNotFound):
		respondError(c, http.StatusNotFound, "库存条目不存在")
	case errors.Is(err, service.ErrIngredientNotFound):
		respondError(c, http.StatusNotFound, "食材不存在")
	case errors.Is(err, service.ErrInvalidQuantity):
		respondError(c, http.StatusBadRequest, "数量必须为正数")
	default:
		respondError(c, http.StatusInternalServerError, "操作冰箱库存失败")
	}
}

func fridgeItemsToPayload(items []db.FridgeItem) []gin.H {
	payload := make([]gin.H, 0, len(items))
	for _, item := range items {
		payload = append(payload, fridgeItemToPayload(item))
	}
	return payload
}

func fridgeItemToPayload(item db.FridgeItem) gin.H {
	payload := gin.H{
		"id":              item.ID,
		"ingredient_id":   item.IngredientID,
		"ingredient_name": item.Ingredient.Name,
		"quantity":        item.Quantity,
		"unit":            item.Unit,
		"notes":           item.Notes,
	}
	if item.ExpiresAt != nil {
		payload["expiry_date"] = item.ExpiresAt.Format(dateFormat)
	} else {
		payload["expiry_date"] = nil
	}
	return payload
}
