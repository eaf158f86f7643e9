package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/qr-table-order/models"
	"github.com/yeremiapane/qr-table-order/utils"
)

type MenuController struct {
	DB *gorm.DB
}

func NewMenuController(db *gorm.DB) *MenuController {
	return &MenuController{DB: db}
}

// GetAllMenus -> katalog untuk customer menyusun cart di sisi klien
func (mc *MenuController) GetAllMenus(c *gin.Context) {
	var menus []models.Menu
	if err := mc.DB.Preload("Category").Preload("Sizes").Find(&menus).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of menus", menus)
}

// GetMenuByCategory -> filter menu per kategori (?category_id=)
func (mc *MenuController) GetMenuByCategory(c *gin.Context) {
	catID := c.Query("category_id")
	if catID == "" {
		utils.RespondError(c, http.StatusBadRequest, &CustomError{"category_id is required"})
		return
	}

	var menus []models.Menu
	if err := mc.DB.Preload("Category").Preload("Sizes").
		Where("category_id = ?", catID).Find(&menus).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menus by category", menus)
}

// GetMenuByID -> detail 1 menu
func (mc *MenuController) GetMenuByID(c *gin.Context) {
	idStr := c.Param("menu_id")
	id, _ := strconv.Atoi(idStr)

	var menu models.Menu
	if err := mc.DB.Preload("Category").Preload("Sizes").First(&menu, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu detail", menu)
}

// CreateMenu -> admin menambahkan menu, opsional dengan varian ukuran
func (mc *MenuController) CreateMenu(c *gin.Context) {
	var req struct {
		CategoryID  uint    `json:"category_id" binding:"required"`
		Name        string  `json:"name" binding:"required"`
		Price       float64 `json:"price" binding:"required"`
		Stock       int     `json:"stock"`
		Description string  `json:"description"`
		Sizes       []struct {
			Name  string  `json:"name" binding:"required"`
			Price float64 `json:"price" binding:"required"`
		} `json:"sizes"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var category models.MenuCategory
	if err := mc.DB.First(&category, req.CategoryID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	menu := models.Menu{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Price:       req.Price,
		Stock:       req.Stock,
		Description: req.Description,
	}
	for _, s := range req.Sizes {
		menu.Sizes = append(menu.Sizes, models.MenuSize{Name: s.Name, Price: s.Price})
	}

	if err := mc.DB.Create(&menu).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("New menu created: %s (price=%.2f)", menu.Name, menu.Price)
	utils.RespondJSON(c, http.StatusCreated, "Menu created", menu)
}

// UpdateMenu -> admin mengubah data menu
func (mc *MenuController) UpdateMenu(c *gin.Context) {
	idStr := c.Param("menu_id")
	id, _ := strconv.Atoi(idStr)

	var req struct {
		Name        *string  `json:"name"`
		Price       *float64 `json:"price"`
		Stock       *int     `json:"stock"`
		Description *string  `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var menu models.Menu
	if err := mc.DB.First(&menu, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	if req.Name != nil {
		menu.Name = *req.Name
	}
	if req.Price != nil {
		menu.Price = *req.Price
	}
	if req.Stock != nil {
		menu.Stock = *req.Stock
	}
	if req.Description != nil {
		menu.Description = *req.Description
	}

	if err := mc.DB.Save(&menu).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Menu updated", menu)
}

// DeleteMenu -> admin menghapus menu beserta variannya
func (mc *MenuController) DeleteMenu(c *gin.Context) {
	idStr := c.Param("menu_id")
	id, _ := strconv.Atoi(idStr)

	if err := mc.DB.Where("menu_id = ?", id).Delete(&models.MenuSize{}).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if err := mc.DB.Delete(&models.Menu{}, id).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu deleted", gin.H{"menu_id": id})
}
