package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/qr-table-order/models"
	"github.com/yeremiapane/qr-table-order/services"
	"github.com/yeremiapane/qr-table-order/utils"
)

type OrderController struct {
	DB     *gorm.DB
	Orders *services.OrderService
}

func NewOrderController(db *gorm.DB, orders *services.OrderService) *OrderController {
	return &OrderController{DB: db, Orders: orders}
}

// SubmitOrder -> customer submit cart yang dipegang klien, tepat satu kali
// per sesi. Harga di-resolve ulang dari katalog, total dihitung server-side.
func (oc *OrderController) SubmitOrder(c *gin.Context) {
	var req struct {
		Token string              `json:"token" binding:"required"`
		Items []services.CartItem `json:"items"`
		Notes string              `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.SubmitOrder(c.Request.Context(), req.Token, req.Items, req.Notes)
	if err != nil {
		utils.RespondError(c, statusForServiceError(err), err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Order submitted", gin.H{
		"order":        order,
		"table_number": order.Table.TableNumber,
	})
}

// GetAllOrders -> staff melihat semua order beserta items
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	var orders []models.Order
	query := oc.DB.Preload("OrderItems").Preload("Table")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Order("created_at asc").Find(&orders).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

// GetOrderByID -> detail 1 order
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	idStr := c.Param("order_id")
	id, _ := strconv.Atoi(idStr)

	var order models.Order
	if err := oc.DB.Preload("OrderItems").Preload("Table").First(&order, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// UpdateOrderStatus -> dapur/staff menggeser status order
// (received -> in_progress -> ready -> completed)
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	orderID := c.Param("order_id")

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	valid := map[string]bool{
		models.OrderInProgress: true,
		models.OrderReady:      true,
		models.OrderCompleted:  true,
	}
	if !valid[req.Status] {
		utils.RespondError(c, http.StatusBadRequest,
			&CustomError{"Invalid order status: " + req.Status})
		return
	}

	var order models.Order
	if err := oc.DB.First(&order, orderID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	order.Status = req.Status
	if err := oc.DB.Save(&order).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Order %d status changed to %s", order.ID, order.Status)
	utils.RespondJSON(c, http.StatusOK, "Order status updated", order)
}
