package handler

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/fridgelog/internal/db"
	"github.com/fridgelog/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

type recipeIngredientPayload struct {
	IngredientID uint    `json:"ingredient_id"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
	Optional     bool    `json:"is_optional"`
}

type recipePayload struct {
	Title        string                    `json:"title"`
	Description  string                    `json:"description"`
	Instructions string                    `json:"instructions"`
	BaseServings int                       `json:"base_servings"`
	CategoryIDs  []uint                    `json:"category_ids"`
	Ingredients  []recipeIngredientPayload `json:"ingredients"`
}

// ListRecipes 返回菜谱目录，支持 search 与 exclude_category 参数
func (a *API) ListRecipes(c *gin.Context) {
	filter := service.RecipeFilter{
		Search:            c.Query("search"),
		ExcludeCategories: c.QueryArray("exclude_category"),
	}

	recipes, err := a.catalog.ListRecipes(filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取菜谱列表失败")
		return
	}

	items := make([]gin.H, 0, len(recipes))
	for _, recipe := range recipes {
		items = append(items, recipeToPayload(recipe, false))
	}
	c.JSON(http.StatusOK, gin.H{"recipes": items})
}

// GetRecipe 返回菜谱详情，Markdown 做法渲染为净化后的 HTML
func (a *API) GetRecipe(c *gin.Context) {
	recipeID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "菜谱 ID 无效")
		return
	}

	recipe, err := a.catalog.GetRecipe(recipeID)
	if err != nil {
		respondRecipeError(c, err)
		return
	}

	c.JSON(http.StatusOK, recipeToPayload(*recipe, true))
}

// CreateRecipe 新建菜谱
func (a *API) CreateRecipe(c *gin.Context) {
	input, ok := bindRecipeInput(c)
	if !ok {
		return
	}

	recipe, err := a.recipes.Create(currentUserID(c), input)
	if err != nil {
		respondRecipeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, recipeToPayload(*recipe, false))
}

// UpdateRecipe 更新菜谱，配料需求整组替换
func (a *API) UpdateRecipe(c *gin.Context) {
	recipeID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "菜谱 ID 无效")
		return
	}

	input, ok := bindRecipeInput(c)
	if !ok {
		return
	}

	recipe, err := a.recipes.Update(currentUserID(c), recipeID, input)
	if err != nil {
		respondRecipeError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipeToPayload(*recipe, false))
}

// DeleteRecipe 删除菜谱并级联清理日历条目
func (a *API) DeleteRecipe(c *gin.Context) {
	recipeID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "菜谱 ID 无效")
		return
	}

	if err := a.recipes.Delete(currentUserID(c), recipeID); err != nil {
		respondRecipeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "已删除"})
}

// ListIngredients 返回食材目录
func (a *API) ListIngredients(c *gin.Context) {
	ingredients, err := a.catalog.ListIngredients()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取食材列表失败")
		return
	}

	items := make([]gin.H, 0, len(ingredients))
	for _, ingredient := range ingredients {
		items = append(items, gin.H{
			"id":       ingredient.ID,
			"name":     ingredient.Name,
			"category": ingredient.Category,
		})
	}
	c.JSON(http.StatusOK, gin.H{"ingredients": items})
}

// CreateIngredient 新建食材目录条目
func (a *API) CreateIngredient(c *gin.Context) {
	var payload struct {
		Name     string `json:"name"`
		Category string `json:"category"`
	}
	if !bindJSON(c, &payload, "请求格式错误") {
		return
	}

	ingredient, err := a.catalog.CreateIngredient(payload.Name, payload.Category)
	if err != nil {
		respondError(c, http.StatusBadRequest, "创建食材失败，名称需非空且唯一")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":       ingredient.ID,
		"name":     ingredient.Name,
		"category": ingredient.Category,
	})
}

func bindRecipeInput(c *gin.Context) (service.RecipeInput, bool) {
	var payload recipePayload
	if !bindJSON(c, &payload, "请求格式错误") {
		return service.RecipeInput{}, false
	}

	ingredients := make([]service.RecipeIngredientInput, 0, len(payload.Ingredients))
	for _, req := range payload.Ingredients {
		ingredients = append(ingredients, service.RecipeIngredientInput{
			IngredientID: req.IngredientID,
			Quantity:     req.Quantity,
			Unit:         req.Unit,
			Optional:     req.Optional,
		})
	}

	return service.RecipeInput{
		Title:        payload.Title,
		Description:  payload.Description,
		Instructions: payload.Instructions,
		BaseServings: payload.BaseServings,
		CategoryIDs:  payload.CategoryIDs,
		Ingredients:  ingredients,
	}, true
}

func respondRecipeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRecipeNotFound):
		respondError(c, http.StatusNotFound, "菜谱不存在")
	case errors.Is(err, service.ErrIngredientNotFound):
		respondError(c, http.StatusNotFound, "食材不存在")
	case errors.Is(err, service.ErrRecipeTitleRequired):
		respondError(c, http.StatusBadRequest, "菜谱标题不能为空")
	case errors.Is(err, service.ErrInvalidBaseServings):
		respondError(c, http.StatusBadRequest, "基准份数必须为正整数")
	default:
		respondError(c, http.StatusInternalServerError, "操作菜谱失败")
	}
}

func recipeToPayload(recipe db.Recipe, withInstructions bool) gin.H {
	categories := make([]string, 0, len(recipe.Categories))
	for _, category := range recipe.Categories {
		categories = append(categories, category.Name)
	}

	ingredients := make([]gin.H, 0, len(recipe.Ingredients))
	for _, req := range recipe.Ingredients {
		ingredients = append(ingredients, gin.H{
			"ingredient_id":   req.IngredientID,
			"ingredient_name": req.Ingredient.Name,
			"quantity":        req.Quantity,
			"unit":            req.Unit,
			"is_optional":     req.Optional,
		})
	}

	payload := gin.H{
		"id":            recipe.ID,
		"title":         recipe.Title,
		"description":   recipe.Description,
		"base_servings": recipe.BaseServings,
		"categories":    categories,
		"ingredients":   ingredients,
	}

	if withInstructions {
		payload["instructions"] = recipe.Instructions
		payload["instructions_html"] = renderMarkdown(recipe.Instructions)
	}
	return payload
}

func renderMarkdown(source string) string {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(source), &buf); err != nil {
		return ""
	}
	return sanitizer.Sanitize(buf.String())
}
