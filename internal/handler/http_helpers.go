package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// dateFormat 是请求/响应中日历日期的统一格式
const dateFormat = "2006-01-02"

var errMissingDate = errors.New("missing date parameter")

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}

// parseDateQuery 解析 YYYY-MM-DD 格式的查询参数
func parseDateQuery(c *gin.Context, key string) (time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return time.Time{}, errMissingDate
	}
	return time.Parse(dateFormat, raw)
}

// parseDatePair 解析请求体中的起止日期，失败时直接写入 400 响应
func parseDatePair(c *gin.Context, startRaw, endRaw string) (time.Time, time.Time, bool) {
	start, err := time.Parse(dateFormat, strings.TrimSpace(startRaw))
	if err != nil {
		respondError(c, http.StatusBadRequest, "start_date 格式无效，应为 YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	end, err := time.Parse(dateFormat, strings.TrimSpace(endRaw))
	if err != nil {
		respondError(c, http.StatusBadRequest, "end_date 格式无效，应为 YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// currentUserID 从会话中取当前登录用户 ID；未登录返回 0
func currentUserID(c *gin.Context) uint {
	session := sessions.Default(c)
	raw := session.Get("user_id")
	if raw == nil {
		return 0
	}
	if id, ok := raw.(uint); ok {
		return id
	}
	return 0
}
