package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cuetime/poolhall-app/live"
	"github.com/cuetime/poolhall-app/models"
	"github.com/cuetime/poolhall-app/services"
	"github.com/cuetime/poolhall-app/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type TableController struct {
	DB *gorm.DB
}

func NewTableController(db *gorm.DB) *TableController {
	return &TableController{DB: db}
}

// tableView is a Table with its current (non-terminal) session attached.
type tableView struct {
	models.Table
	CurrentSession *models.Session `json:"current_session"`
}

// GetAllTables lists every table with its current session and seated players.
func (tc *TableController) GetAllTables(c *gin.Context) {
	var tables []models.Table
	if err := tc.DB.Order("table_number ASC").Find(&tables).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	views := make([]tableView, 0, len(tables))
	for _, table := range tables {
		view := tableView{Table: table}
		var session models.Session
		err := tc.DB.
			Preload("Players", "left_at IS NULL").
			Preload("Players.Player").
			Where("table_id = ? AND status IN ?", table.ID, []models.SessionStatus{models.SessionActive, models.SessionPaused}).
			Order("start_time DESC").
			First(&session).Error
		if err == nil {
			view.CurrentSession = &session
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
		views = append(views, view)
	}

	utils.RespondJSON(c, http.StatusOK, "List of tables", views)
}

// GetTableByID returns one table with its current session.
func (tc *TableController) GetTableByID(c *gin.Context) {
	var table models.Table
	if err := tc.DB.First(&table, c.Param("table_id")).Error; err != nil {
		respondServiceError(c, services.ErrTableNotFound)
		return
	}

	view := tableView{Table: table}
	var session models.Session
	err := tc.DB.
		Where("table_id = ? AND status IN ?", table.ID, []models.SessionStatus{models.SessionActive, models.SessionPaused}).
		Order("start_time DESC").
		First(&session).Error
	if err == nil {
		view.CurrentSession = &session
	}

	utils.RespondJSON(c, http.StatusOK, "Table detail", view)
}

// CreateTable adds a new table. Table numbers are unique within the venue.
func (tc *TableController) CreateTable(c *gin.Context) {
	var req struct {
		Name             string `json:"name" binding:"required"`
		TableNumber      int    `json:"table_number" binding:"required"`
		HourlyRateCents  int64  `json:"hourly_rate_cents"`
		TimeLimitMinutes *int   `json:"time_limit_minutes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var existing int64
	if err := tc.DB.Model(&models.Table{}).Where("table_number = ?", req.TableNumber).Count(&existing).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if existing > 0 {
		respondServiceError(c, services.ErrTableNumberTaken)
		return
	}

	table := models.Table{
		Name:             req.Name,
		TableNumber:      req.TableNumber,
		Status:           models.TableAvailable,
		HourlyRateCents:  req.HourlyRateCents,
		TimeLimitMinutes: req.TimeLimitMinutes,
	}
	if table.HourlyRateCents == 0 {
		table.HourlyRateCents = 1500
	}

	if err := tc.DB.Create(&table).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	live.Broadcast(live.EventTableCreate, table)
	utils.InfoLogger.Printf("New table created: %s (#%d, rate=%s/hr)", table.Name, table.TableNumber, utils.FormatCents(table.HourlyRateCents))
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
}

// UpdateTable edits name, number, rate, time limit, or manual status
// (reserved/maintenance). Occupied is owned by the session lifecycle and
// cannot be set by hand.
func (tc *TableController) UpdateTable(c *gin.Context) {
	var req struct {
		Name             *string             `json:"name"`
		TableNumber      *int                `json:"table_number"`
		HourlyRateCents  *int64              `json:"hourly_rate_cents"`
		TimeLimitMinutes *int                `json:"time_limit_minutes"`
		Status           *models.TableStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var table models.Table
	if err := tc.DB.First(&table, c.Param("table_id")).Error; err != nil {
		respondServiceError(c, services.ErrTableNotFound)
		return
	}

	if req.Name != nil {
		table.Name = *req.Name
	}
	if req.TableNumber != nil {
		table.TableNumber = *req.TableNumber
	}
	if req.HourlyRateCents != nil {
		table.HourlyRateCents = *req.HourlyRateCents
	}
	if req.TimeLimitMinutes != nil {
		table.TimeLimitMinutes = req.TimeLimitMinutes
	}
	if req.Status != nil {
		switch *req.Status {
		case models.TableAvailable, models.TableReserved, models.TableMaintenance:
			table.Status = *req.Status
		case models.TableOccupied:
			utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("occupied is set by starting a session"))
			return
		default:
			utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("unknown table status %q", *req.Status))
			return
		}
	}

	if err := tc.DB.Save(&table).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	live.Broadcast(live.EventTableUpdate, table)
	utils.InfoLogger.Printf("Table %d updated (status=%s)", table.ID, table.Status)
	utils.RespondJSON(c, http.StatusOK, "Table updated", table)
}

// DeleteTable removes a table. Tables with a non-terminal session cannot be
// deleted; the session must be ended or cancelled first.
func (tc *TableController) DeleteTable(c *gin.Context) {
	var table models.Table
	if err := tc.DB.First(&table, c.Param("table_id")).Error; err != nil {
		respondServiceError(c, services.ErrTableNotFound)
		return
	}

	var open int64
	if err := tc.DB.Model(&models.Session{}).
		Where("table_id = ? AND status IN ?", table.ID, []models.SessionStatus{models.SessionActive, models.SessionPaused}).
		Count(&open).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if open > 0 {
		respondServiceError(c, services.ErrTableOccupied)
		return
	}

	if err := tc.DB.Delete(&table).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	live.Broadcast(live.EventTableDelete, gin.H{"table_id": table.ID})
	utils.InfoLogger.Printf("Table %d deleted", table.ID)
	utils.RespondJSON(c, http.StatusOK, "Table deleted", gin.H{"id": table.ID})
}

// FindTablesByStatus lists tables in a given status, default available.
func (tc *TableController) FindTablesByStatus(c *gin.Context) {
	status := c.Query("status")
	if status == "" {
		status = string(models.TableAvailable)
	}
	var tables []models.Table
	if err := tc.DB.Where("status = ?", status).Order("table_number ASC").Find(&tables).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Tables with status: "+status, tables)
}

// GetDashboardStats counts tables per status for the dashboard header.
func (tc *TableController) GetDashboardStats(c *gin.Context) {
	utils.RespondJSON(c, http.StatusOK, "Dashboard stats", tc.dashboardStats())
}

func (tc *TableController) dashboardStats() map[string]interface{} {
	counts := make(map[string]int64)
	var total int64
	for _, status := range []models.TableStatus{models.TableAvailable, models.TableOccupied, models.TableReserved, models.TableMaintenance} {
		var n int64
		tc.DB.Model(&models.Table{}).Where("status = ?", status).Count(&n)
		counts[string(status)] = n
		total += n
	}
	counts["total"] = total

	var active int64
	tc.DB.Model(&models.Session{}).Where("status IN ?", []models.SessionStatus{models.SessionActive, models.SessionPaused}).Count(&active)
	counts["active_sessions"] = active

	return map[string]interface{}{"tables": counts}
}

func parseUintParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid %s", name))
		return 0, false
	}
	return uint(id), true
}
