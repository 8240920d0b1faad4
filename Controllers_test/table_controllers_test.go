package Controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/cuetime/poolhall-app/controllers"
	"github.com/cuetime/poolhall-app/models"
	"github.com/cuetime/poolhall-app/utils"
)

func setupTestDBForTables() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}
	err = db.AutoMigrate(&models.Table{}, &models.Session{}, &models.SessionPlayer{}, &models.Player{})
	if err != nil {
		panic(err)
	}
	return db
}

func setupTableRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.Default()
	tableCtrl := controllers.NewTableController(db)
	router.GET("/tables", tableCtrl.GetAllTables)
	router.POST("/tables", tableCtrl.CreateTable)
	router.PATCH("/tables/:table_id", tableCtrl.UpdateTable)
	router.DELETE("/tables/:table_id", tableCtrl.DeleteTable)
	return router
}

func TestGetAllTables(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForTables()

	table1 := models.Table{Name: "Front Left", TableNumber: 1, Status: models.TableAvailable, HourlyRateCents: 1500}
	table2 := models.Table{Name: "Front Right", TableNumber: 2, Status: models.TableOccupied, HourlyRateCents: 1500}
	db.Create(&table1)
	db.Create(&table2)

	router := setupTableRouter(db)
	req, err := http.NewRequest("GET", "/tables", nil)
	assert.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	err = json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "List of tables", response["message"])

	data := response["data"].([]interface{})
	assert.GreaterOrEqual(t, len(data), 2)
}

func TestCreateTable(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForTables()
	router := setupTableRouter(db)

	payload := map[string]interface{}{
		"name":              "Back Corner",
		"table_number":      9,
		"hourly_rate_cents": 2000,
	}
	payloadBytes, err := json.Marshal(payload)
	assert.NoError(t, err)

	req, err := http.NewRequest("POST", "/tables", bytes.NewBuffer(payloadBytes))
	assert.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	err = json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "Table created successfully", response["message"])
	data := response["data"].(map[string]interface{})
	assert.Equal(t, float64(9), data["table_number"])
	assert.Equal(t, float64(2000), data["hourly_rate_cents"])
	assert.Equal(t, "available", data["status"])
}

func TestCreateTableDuplicateNumber(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForTables()
	db.Create(&models.Table{Name: "Front Left", TableNumber: 1, Status: models.TableAvailable, HourlyRateCents: 1500})
	router := setupTableRouter(db)

	payload := map[string]interface{}{"name": "Another", "table_number": 1}
	payloadBytes, _ := json.Marshal(payload)

	req, err := http.NewRequest("POST", "/tables", bytes.NewBuffer(payloadBytes))
	assert.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdateTableRejectsManualOccupied(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForTables()
	table := models.Table{Name: "Front Left", TableNumber: 1, Status: models.TableAvailable, HourlyRateCents: 1500}
	db.Create(&table)
	router := setupTableRouter(db)

	payload := map[string]string{"status": "occupied"}
	payloadBytes, _ := json.Marshal(payload)

	url := "/tables/" + strconv.Itoa(int(table.ID))
	req, err := http.NewRequest("PATCH", url, bytes.NewBuffer(payloadBytes))
	assert.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var check models.Table
	db.First(&check, table.ID)
	assert.Equal(t, models.TableAvailable, check.Status)
}

func TestUpdateTableToMaintenance(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForTables()
	table := models.Table{Name: "Front Left", TableNumber: 1, Status: models.TableAvailable, HourlyRateCents: 1500}
	db.Create(&table)
	router := setupTableRouter(db)

	payload := map[string]string{"status": "maintenance"}
	payloadBytes, _ := json.Marshal(payload)

	url := "/tables/" + strconv.Itoa(int(table.ID))
	req, err := http.NewRequest("PATCH", url, bytes.NewBuffer(payloadBytes))
	assert.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err = json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "Table updated", response["message"])
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "maintenance", data["status"])
}

func TestDeleteTableWithOpenSession(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForTables()
	table := models.Table{Name: "Front Left", TableNumber: 1, Status: models.TableOccupied, HourlyRateCents: 1500}
	db.Create(&table)
	db.Create(&models.Session{TableID: table.ID, Status: models.SessionActive, StartTime: time.Now()})
	router := setupTableRouter(db)

	url := "/tables/" + strconv.Itoa(int(table.ID))
	req, err := http.NewRequest("DELETE", url, nil)
	assert.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)

	var count int64
	db.Model(&models.Table{}).Count(&count)
	assert.EqualValues(t, 1, count)
}
