package Controllers_test

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yeremiapane/qr-table-order/controllers"
	"github.com/yeremiapane/qr-table-order/models"
	"github.com/yeremiapane/qr-table-order/utils"
)

func setupTableRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	utils.InitLogger()
	gin.SetMode(gin.TestMode)

	db := setupSessionTestDB(t)
	router := gin.Default()
	tableCtrl := controllers.NewTableController(db)
	router.POST("/tables", tableCtrl.CreateTable)
	router.GET("/tables/:table_id", tableCtrl.GetTableByID)
	router.PATCH("/tables/:table_id", tableCtrl.UpdateTable)
	router.PATCH("/tables/:table_id/clean", tableCtrl.MarkTableClean)
	return router, db
}

func TestCreateAndGetTable(t *testing.T) {
	router, _ := setupTableRouter(t)

	w := postJSON(t, router, "/tables", gin.H{"table_number": "A1", "capacity": 4, "location": "window"}, nil)
	assert.Equal(t, http.StatusCreated, w.Code)
	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "available", data["status"])
	assert.EqualValues(t, 4, data["capacity"])
	id := int(data["id"].(float64))

	w = getJSON(t, router, "/tables/"+strconv.Itoa(id), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	detail := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "A1", detail["table_number"])
	assert.Equal(t, "window", detail["location"])
}

func TestUpdateTableStatus(t *testing.T) {
	router, db := setupTableRouter(t)

	table := models.Table{TableNumber: "C1", Capacity: 2, Status: models.TableAvailable}
	require.NoError(t, db.Create(&table).Error)

	url := "/tables/" + strconv.Itoa(int(table.ID))
	w := patchJSON(t, router, url, gin.H{"status": "occupied"}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "occupied", data["status"])

	// Status tidak dikenal ditolak
	w = patchJSON(t, router, url, gin.H{"status": "flooded"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMarkTableClean(t *testing.T) {
	router, db := setupTableRouter(t)

	table := models.Table{TableNumber: "D1", Capacity: 2, Status: models.TableDirty}
	require.NoError(t, db.Create(&table).Error)

	url := "/tables/" + strconv.Itoa(int(table.ID)) + "/clean"
	w := patchJSON(t, router, url, gin.H{}, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var reloaded models.Table
	require.NoError(t, db.First(&reloaded, table.ID).Error)
	assert.Equal(t, models.TableAvailable, reloaded.Status)

	// Meja yang tidak dirty ditolak
	w = patchJSON(t, router, url, gin.H{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
