package controllers

import (
	"net/http"

	"github.com/cuetime/poolhall-app/live"
	"github.com/cuetime/poolhall-app/services"
	"github.com/cuetime/poolhall-app/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type QueueController struct {
	queue *services.PaymentQueueService
}

func NewQueueController(db *gorm.DB, queue *services.PaymentQueueService) *QueueController {
	return &QueueController{queue: queue}
}

// GetQueueStatus reports entry counts per queue state.
func (qc *QueueController) GetQueueStatus(c *gin.Context) {
	counts, err := qc.queue.Status()
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Payment queue status", counts)
}

// EnqueuePayment queues a charge for asynchronous settlement, used when the
// provider is unreachable at checkout time.
func (qc *QueueController) EnqueuePayment(c *gin.Context) {
	var req struct {
		SessionID   *uint  `json:"session_id"`
		TableName   string `json:"table_name" binding:"required"`
		AmountCents int64  `json:"amount_cents" binding:"required"`
		TipCents    int64  `json:"tip_cents"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	entry, err := qc.queue.Enqueue(req.SessionID, req.TableName, req.AmountCents, req.TipCents)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	live.Broadcast(live.EventQueueUpdate, entry)
	utils.RespondJSON(c, http.StatusCreated, "Payment queued", entry)
}

// ProcessQueue runs a sweep immediately instead of waiting for the scheduler.
func (qc *QueueController) ProcessQueue(c *gin.Context) {
	processed, failed := qc.queue.ProcessQueue()
	if processed > 0 || failed > 0 {
		live.Broadcast(live.EventQueueUpdate, gin.H{"processed": processed, "failed": failed})
	}
	utils.RespondJSON(c, http.StatusOK, "Queue processed", gin.H{
		"processed": processed,
		"failed":    failed,
	})
}

// RetryExhausted re-promotes entries that ran out of automatic retries.
func (qc *QueueController) RetryExhausted(c *gin.Context) {
	promoted, err := qc.queue.RetryExhausted()
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Exhausted entries re-promoted", gin.H{"promoted": promoted})
}
