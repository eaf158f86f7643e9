package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"

	"github.com/yeremiapane/qr-table-order/models"
	"github.com/yeremiapane/qr-table-order/services"
	"github.com/yeremiapane/qr-table-order/utils"
)

// MonitorController adalah sisi baca untuk dashboard staff yang polling.
// Semua view menerapkan expiry secara lazy: sesi yang lewat TTL tidak
// pernah muncul sebagai aktif, sweep sudah jalan atau belum.
type MonitorController struct {
	Store *services.SessionStore
	Clock clockwork.Clock
}

func NewMonitorController(store *services.SessionStore, clock clockwork.Clock) *MonitorController {
	return &MonitorController{Store: store, Clock: clock}
}

// ListSessions -> ?status=active (default) | expired
func (mc *MonitorController) ListSessions(c *gin.Context) {
	now := mc.Clock.Now()

	switch c.DefaultQuery("status", "active") {
	case "expired":
		sessions, err := mc.Store.ListExpired(now)
		if err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
		utils.RespondJSON(c, http.StatusOK, "Expired sessions", sessions)
	default:
		sessions, err := mc.Store.ListAlive(now)
		if err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
		utils.RespondJSON(c, http.StatusOK, "Active sessions", sessions)
	}
}

// ListTables -> daftar meja untuk dashboard, opsional filter status
func (mc *MonitorController) ListTables(c *gin.Context) {
	var tables []models.Table
	query := mc.Store.DB
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Order("table_number asc").Find(&tables).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

// GetDashboardStats -> ringkasan untuk header dashboard staff
func (mc *MonitorController) GetDashboardStats(c *gin.Context) {
	var availableCount, occupiedCount, dirtyCount int64

	mc.Store.DB.Model(&models.Table{}).Where("status = ?", models.TableAvailable).Count(&availableCount)
	mc.Store.DB.Model(&models.Table{}).Where("status = ?", models.TableOccupied).Count(&occupiedCount)
	mc.Store.DB.Model(&models.Table{}).Where("status = ?", models.TableDirty).Count(&dirtyCount)

	alive, err := mc.Store.ListAlive(mc.Clock.Now())
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Dashboard stats", gin.H{
		"tables": gin.H{
			"available": availableCount,
			"occupied":  occupiedCount,
			"dirty":     dirtyCount,
			"total":     availableCount + occupiedCount + dirtyCount,
		},
		"active_sessions": len(alive),
	})
}
