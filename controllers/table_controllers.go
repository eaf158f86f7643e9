package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/qr-table-order/models"
	"github.com/yeremiapane/qr-table-order/utils"
)

type TableController struct {
	DB *gorm.DB
}

func NewTableController(db *gorm.DB) *TableController {
	return &TableController{DB: db}
}

// CreateTable -> menambahkan meja baru ke inventaris
func (tc *TableController) CreateTable(c *gin.Context) {
	var req struct {
		TableNumber string `json:"table_number" binding:"required"`
		Capacity    int    `json:"capacity"`
		Location    string `json:"location"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table := models.Table{
		TableNumber: req.TableNumber,
		Capacity:    req.Capacity,
		Location:    req.Location,
		Status:      models.TableAvailable,
	}
	if table.Capacity <= 0 {
		table.Capacity = 2
	}

	if err := tc.DB.Create(&table).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("New table created: %s (capacity=%d)", table.TableNumber, table.Capacity)
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
}

// GetTableByID -> detail satu meja
func (tc *TableController) GetTableByID(c *gin.Context) {
	tableID := c.Param("table_id")
	var table models.Table
	if err := tc.DB.First(&table, tableID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table detail", table)
}

// UpdateTable -> staff mengubah data/status meja
func (tc *TableController) UpdateTable(c *gin.Context) {
	tableID := c.Param("table_id")
	var req struct {
		TableNumber *string `json:"table_number"`
		Capacity    *int    `json:"capacity"`
		Location    *string `json:"location"`
		Status      *string `json:"status"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var table models.Table
	if err := tc.DB.First(&table, tableID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	if req.TableNumber != nil {
		table.TableNumber = *req.TableNumber
	}
	if req.Capacity != nil && *req.Capacity > 0 {
		table.Capacity = *req.Capacity
	}
	if req.Location != nil {
		table.Location = *req.Location
	}
	if req.Status != nil {
		switch *req.Status {
		case models.TableAvailable, models.TableOccupied, models.TableDirty:
			table.Status = *req.Status
		default:
			utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid table status: %s", *req.Status))
			return
		}
	}

	if err := tc.DB.Save(&table).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Table %d updated (status=%s)", table.ID, table.Status)
	utils.RespondJSON(c, http.StatusOK, "Table updated", table)
}

// DeleteTable -> menghapus meja dari inventaris
func (tc *TableController) DeleteTable(c *gin.Context) {
	tableID := c.Param("table_id")
	var table models.Table

	if err := tc.DB.First(&table, tableID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	if err := tc.DB.Delete(&table).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Table %d deleted", table.ID)
	utils.RespondJSON(c, http.StatusOK, "Table deleted", gin.H{"id": table.ID})
}

// MarkTableClean -> staf membereskan meja dirty menjadi available
func (tc *TableController) MarkTableClean(c *gin.Context) {
	tableID := c.Param("table_id")

	var table models.Table
	if err := tc.DB.First(&table, tableID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	if table.Status != models.TableDirty {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("table is not dirty"))
		return
	}

	table.Status = models.TableAvailable
	if err := tc.DB.Save(&table).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Table marked as clean", table)
}
