package controllers

import (
	"net/http"
	"time"

	"github.com/cuetime/poolhall-app/models"
	"github.com/cuetime/poolhall-app/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ReportController struct {
	DB *gorm.DB
}

func NewReportController(db *gorm.DB) *ReportController {
	return &ReportController{DB: db}
}

// reportPeriod resolves the ?period= query into a [start, end) window.
func reportPeriod(c *gin.Context) (time.Time, time.Time, string) {
	now := time.Now()
	period := c.DefaultQuery("period", "day")

	var start time.Time
	switch period {
	case "week":
		start = now.AddDate(0, 0, -7)
	case "month":
		start = now.AddDate(0, -1, 0)
	default:
		period = "day"
		year, month, day := now.Date()
		start = time.Date(year, month, day, 0, 0, 0, 0, now.Location())
	}
	return start, now, period
}

// GetRevenueReport rolls up completed payments for the requested period:
// grand totals, revenue per table and revenue per hour of day.
func (rc *ReportController) GetRevenueReport(c *gin.Context) {
	start, end, period := reportPeriod(c)

	var report struct {
		Period            string  `json:"period"`
		TotalRevenueCents int64   `json:"total_revenue_cents"`
		TotalRevenue      string  `json:"total_revenue"`
		TotalTipsCents    int64   `json:"total_tips_cents"`
		PaymentCount      int64   `json:"payment_count"`
		SessionCount      int64   `json:"session_count"`
		AverageCents      int64   `json:"average_payment_cents"`
		TotalTableMinutes float64 `json:"total_table_minutes"`
		ByTable           []struct {
			TableID      uint   `json:"table_id"`
			TableNumber  int    `json:"table_number"`
			RevenueCents int64  `json:"revenue_cents"`
			Revenue      string `json:"revenue"`
			Sessions     int64  `json:"sessions"`
		} `json:"by_table"`
		ByHour []struct {
			Hour         int   `json:"hour"`
			RevenueCents int64 `json:"revenue_cents"`
			Payments     int64 `json:"payments"`
		} `json:"by_hour"`
	}
	report.Period = period

	rc.DB.Model(&models.Payment{}).
		Where("status = ? AND created_at >= ? AND created_at < ?", models.PaymentCompleted, start, end).
		Select("COALESCE(SUM(total_cents), 0)").Row().Scan(&report.TotalRevenueCents)
	rc.DB.Model(&models.Payment{}).
		Where("status = ? AND created_at >= ? AND created_at < ?", models.PaymentCompleted, start, end).
		Select("COALESCE(SUM(tip_cents), 0)").Row().Scan(&report.TotalTipsCents)
	rc.DB.Model(&models.Payment{}).
		Where("status = ? AND created_at >= ? AND created_at < ?", models.PaymentCompleted, start, end).
		Count(&report.PaymentCount)
	rc.DB.Model(&models.Session{}).
		Where("status = ? AND end_time >= ? AND end_time < ?", models.SessionCompleted, start, end).
		Count(&report.SessionCount)

	if report.PaymentCount > 0 {
		report.AverageCents = report.TotalRevenueCents / report.PaymentCount
	}
	report.TotalRevenue = utils.FormatCents(report.TotalRevenueCents)

	var sessions []models.Session
	if err := rc.DB.Preload("Table").
		Where("status = ? AND end_time >= ? AND end_time < ?", models.SessionCompleted, start, end).
		Find(&sessions).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	type tableAgg struct {
		tableNumber  int
		revenueCents int64
		sessions     int64
	}
	byTable := make(map[uint]*tableAgg)
	for _, s := range sessions {
		agg, ok := byTable[s.TableID]
		if !ok {
			agg = &tableAgg{tableNumber: s.Table.TableNumber}
			byTable[s.TableID] = agg
		}
		agg.sessions++
		if s.TotalChargeCents != nil {
			agg.revenueCents += *s.TotalChargeCents
		}
		if s.TotalMinutes != nil {
			report.TotalTableMinutes += *s.TotalMinutes
		}
	}
	for tableID, agg := range byTable {
		report.ByTable = append(report.ByTable, struct {
			TableID      uint   `json:"table_id"`
			TableNumber  int    `json:"table_number"`
			RevenueCents int64  `json:"revenue_cents"`
			Revenue      string `json:"revenue"`
			Sessions     int64  `json:"sessions"`
		}{
			TableID:      tableID,
			TableNumber:  agg.tableNumber,
			RevenueCents: agg.revenueCents,
			Revenue:      utils.FormatCents(agg.revenueCents),
			Sessions:     agg.sessions,
		})
	}

	var payments []models.Payment
	if err := rc.DB.
		Where("status = ? AND created_at >= ? AND created_at < ?", models.PaymentCompleted, start, end).
		Find(&payments).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var hourRevenue, hourCount [24]int64
	for _, p := range payments {
		h := p.CreatedAt.Local().Hour()
		hourRevenue[h] += p.TotalCents
		hourCount[h]++
	}
	for h := 0; h < 24; h++ {
		if hourCount[h] == 0 {
			continue
		}
		report.ByHour = append(report.ByHour, struct {
			Hour         int   `json:"hour"`
			RevenueCents int64 `json:"revenue_cents"`
			Payments     int64 `json:"payments"`
		}{Hour: h, RevenueCents: hourRevenue[h], Payments: hourCount[h]})
	}

	utils.RespondJSON(c, http.StatusOK, "Revenue report", gin.H{
		"data": gin.H{
			"report": report,
		},
	})
}

// GetActivityReport summarizes current floor activity for the dashboard.
func (rc *ReportController) GetActivityReport(c *gin.Context) {
	var activity struct {
		ActiveSessions int64 `json:"active_sessions"`
		PausedSessions int64 `json:"paused_sessions"`
		OpenTables     int64 `json:"open_tables"`
		BusyTables     int64 `json:"busy_tables"`
		Waiting        int64 `json:"waiting"`
		PendingQueue   int64 `json:"pending_queue"`
	}

	rc.DB.Model(&models.Session{}).Where("status = ?", models.SessionActive).Count(&activity.ActiveSessions)
	rc.DB.Model(&models.Session{}).Where("status = ?", models.SessionPaused).Count(&activity.PausedSessions)
	rc.DB.Model(&models.Table{}).Where("status = ?", models.TableAvailable).Count(&activity.OpenTables)
	rc.DB.Model(&models.Table{}).Where("status = ?", models.TableOccupied).Count(&activity.BusyTables)
	rc.DB.Model(&models.WaitlistEntry{}).Where("status IN ?", []models.WaitlistStatus{models.WaitlistWaiting, models.WaitlistNotified}).Count(&activity.Waiting)
	rc.DB.Model(&models.PaymentQueue{}).Where("status = ?", models.QueuePending).Count(&activity.PendingQueue)

	utils.RespondJSON(c, http.StatusOK, "Activity report", gin.H{
		"data": gin.H{
			"activity": activity,
		},
	})
}
