package main

import (
	"fmt"
	"log"
	"time"

	"github.com/fridgelog/internal/config"
	"github.com/fridgelog/internal/db"
	"golang.org/x/crypto/bcrypt"
)

// 测试数据生成器
func main() {
	// 初始化数据库
	cfg := config.Load()
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	fmt.Println("开始生成测试数据...")

	createTestUsers()
	createTestIngredients()
	createTestRecipes()
	createTestFridgeItems()
	createTestMealPlans()

	fmt.Println("测试数据生成完成！")
	fmt.Println("用户: admin (密码: admin123)")
}

// 创建测试用户
func createTestUsers() {
	var count int64
	db.DB.Model(&db.User{}).Count(&count)
	if count > 0 {
		fmt.Println("用户已存在，跳过创建")
		return
	}

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	admin := db.User{
		Username: "admin",
		Password: string(hashedPassword),
	}
	db.DB.Create(&admin)

	fmt.Println("✅ 测试用户创建完成")
}

// 创建食材目录
func createTestIngredients() {
	var count int64
	db.DB.Model(&db.Ingredient{}).Count(&count)
	if count > 0 {
		fmt.Println("食材已存在，跳过创建")
		return
	}

	ingredients := []db.Ingredient{
		{Name: "番茄", Category: "蔬菜"},
		{Name: "罗勒", Category: "香料"},
		{Name: "马苏里拉", Category: "乳制品"},
		{Name: "鸡蛋", Category: "蛋类"},
		{Name: "面粉", Category: "主食"},
		{Name: "牛奶", Category: "乳制品"},
		{Name: "橄榄油", Category: "调味"},
	}
	for i := range ingredients {
		db.DB.Create(&ingredients[i])
	}

	fmt.Println("✅ 食材目录创建完成")
}

// 创建测试菜谱
func createTestRecipes() {
	var count int64
	db.DB.Model(&db.Recipe{}).Count(&count)
	if count > 0 {
		fmt.Println("菜谱已存在，跳过创建")
		return
	}

	dinner := db.Category{Name: "晚餐"}
	db.DB.Create(&dinner)

	var tomato, basil, mozzarella, egg, flour db.Ingredient
	db.DB.Where("name = ?", "番茄").First(&tomato)
	db.DB.Where("name = ?", "罗勒").First(&basil)
	db.DB.Where("name = ?", "马苏里拉").First(&mozzarella)
	db.DB.Where("name = ?", "鸡蛋").First(&egg)
	db.DB.Where("name = ?", "面粉").First(&flour)

	caprese := db.Recipe{
		UserID:       1,
		Title:        "卡普里沙拉",
		Description:  "经典意式前菜",
		Instructions: "## 做法\n\n1. 番茄切片\n2. 与马苏里拉交替摆盘\n3. 点缀罗勒淋油",
		BaseServings: 2,
		Categories:   []db.Category{dinner},
	}
	db.DB.Create(&caprese)
	db.DB.Create(&db.RecipeIngredient{RecipeID: caprese.ID, IngredientID: tomato.ID, Quantity: 2, Unit: "个"})
	db.DB.Create(&db.RecipeIngredient{RecipeID: caprese.ID, IngredientID: basil.ID, Quantity: 10, Unit: "g"})
	db.DB.Create(&db.RecipeIngredient{RecipeID: caprese.ID, IngredientID: mozzarella.ID, Quantity: 125, Unit: "g"})

	pancake := db.Recipe{
		UserID:       1,
		Title:        "家常松饼",
		Description:  "周末早餐",
		Instructions: "## 做法\n\n1. 面粉和鸡蛋混合\n2. 小火慢煎至两面金黄",
		BaseServings: 4,
		Categories:   []db.Category{dinner},
	}
	db.DB.Create(&pancake)
	db.DB.Create(&db.RecipeIngredient{RecipeID: pancake.ID, IngredientID: flour.ID, Quantity: 200, Unit: "g"})
	db.DB.Create(&db.RecipeIngredient{RecipeID: pancake.ID, IngredientID: egg.ID, Quantity: 2, Unit: "个"})

	fmt.Println("✅ 测试菜谱创建完成")
}

// 创建冰箱库存
func createTestFridgeItems() {
	var count int64
	db.DB.Model(&db.FridgeItem{}).Count(&count)
	if count > 0 {
		fmt.Println("库存已存在，跳过创建")
		return
	}

	var tomato, basil db.Ingredient
	db.DB.Where("name = ?", "番茄").First(&tomato)
	db.DB.Where("name = ?", "罗勒").First(&basil)

	expiry := time.Now().UTC().AddDate(0, 0, 5)
	db.DB.Create(&db.FridgeItem{UserID: 1, IngredientID: tomato.ID, Quantity: 4, Unit: "个", ExpiresAt: &expiry})
	db.DB.Create(&db.FridgeItem{UserID: 1, IngredientID: basil.ID, Quantity: 30, Unit: "g", ExpiresAt: &expiry})

	fmt.Println("✅ 冰箱库存创建完成")
}

// 创建本周日历
func createTestMealPlans() {
	var count int64
	db.DB.Model(&db.MealPlanEntry{}).Count(&count)
	if count > 0 {
		fmt.Println("日历条目已存在，跳过创建")
		return
	}

	var caprese, pancake db.Recipe
	db.DB.Where("title = ?", "卡普里沙拉").First(&caprese)
	db.DB.Where("title = ?", "家常松饼").First(&pancake)

	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	db.DB.Create(&db.MealPlanEntry{UserID: 1, RecipeID: pancake.ID, MealDate: today, MealSlot: db.SlotBreakfast, Servings: 2})
	db.DB.Create(&db.MealPlanEntry{UserID: 1, RecipeID: caprese.ID, MealDate: today.AddDate(0, 0, 1), MealSlot: db.SlotDinner, Servings: 4})

	fmt.Println("✅ 日历条目创建完成")
}
