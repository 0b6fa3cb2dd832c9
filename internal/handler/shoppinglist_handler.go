package handler

import (
	"errors"
	"net/http"

	"github.com/fridgelog/internal/service"
	"github.com/gin-gonic/gin"
)

// GetShoppingList 聚合日期范围内所有日历条目的采购需求
func (a *API) GetShoppingList(c *gin.Context) {
	start, err := parseDateQuery(c, "start_date")
	if err != nil {
		respondError(c, http.StatusBadRequest, "start_date 参数无效，格式为 YYYY-MM-DD")
		return
	}
	end, err := parseDateQuery(c, "end_date")
	if err != nil {
		respondError(c, http.StatusBadRequest, "end_date 参数无效，格式为 YYYY-MM-DD")
		return
	}

	list, err := a.shopping.Build(currentUserID(c), start, end)
	if err != nil {
		respondShoppingListError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// CreateShoppingListShare 为日期范围签发分享令牌
func (a *API) CreateShoppingListShare(c *gin.Context) {
	var payload struct {
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	}
	if !bindJSON(c, &payload, "请求格式错误") {
		return
	}

	start, end, ok := parseDatePair(c, payload.StartDate, payload.EndDate)
	if !ok {
		return
	}

	share, err := a.shopping.CreateShare(currentUserID(c), start, end)
	if err != nil {
		respondShoppingListError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token":      share.Token,
		"start_date": share.StartDate.Format(dateFormat),
		"end_date":   share.EndDate.Format(dateFormat),
	})
}

// GetSharedShoppingList 按分享令牌重算购物清单，无需登录
func (a *API) GetSharedShoppingList(c *gin.Context) {
	token := c.Param("token")

	list, err := a.shopping.BuildShared(token)
	if err != nil {
		if errors.Is(err, service.ErrShareNotFound) {
			respondError(c, http.StatusNotFound, "分享链接不存在")
			return
		}
		respondShoppingListError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

func respondShoppingListError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrInvalidDateRange) {
		respondError(c, http.StatusBadRequest, "日期范围无效：end_date 不能早于 start_date")
		return
	}
	respondError(c, http.StatusInternalServerError, "生成购物清单失败")
}
