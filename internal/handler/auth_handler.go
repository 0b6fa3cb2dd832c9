package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/fridgelog/internal/db"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type credentialsPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register 注册家庭成员账号
func (a *API) Register(c *gin.Context) {
	var payload credentialsPayload
	if !bindJSON(c, &payload, "请求格式错误") {
		return
	}

	username := strings.TrimSpace(payload.Username)
	password := strings.TrimSpace(payload.Password)
	if username == "" || password == "" {
		respondError(c, http.StatusBadRequest, "用户名和密码不能为空")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "注册失败")
		return
	}

	// 重名由唯一索引兜底，避免先查后建在并发下漏判
	user := db.User{Username: username, Password: string(hashed)}
	if err := a.db.Create(&user).Error; err != nil {
		if isDuplicateUsername(err) {
			respondError(c, http.StatusBadRequest, "用户名已存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "注册失败")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "username": user.Username})
}

func isDuplicateUsername(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Login 处理用户登录请求，成功后写入会话
func (a *API) Login(c *gin.Context) {
	var payload credentialsPayload
	if !bindJSON(c, &payload, "请求格式错误") {
		return
	}

	var user db.User
	if err := a.db.Where("username = ?", payload.Username).First(&user).Error; err != nil {
		respondError(c, http.StatusUnauthorized, "用户名或密码错误")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(payload.Password)); err != nil {
		respondError(c, http.StatusUnauthorized, "用户名或密码错误")
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	session.Set("username", user.Username)
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "会话保存失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": user.ID, "username": user.Username})
}

// Logout 处理用户登出
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	c.JSON(http.StatusOK, gin.H{"message": "已退出登录"})
}

// AuthRequired 是一个简单的认证中间件
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID := session.Get("user_id")
		if userID == nil {
			respondError(c, http.StatusUnauthorized, "请先登录")
			c.Abort()
			return
		}
		c.Next()
	}
}
