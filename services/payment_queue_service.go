package services

import (
	"fmt"
	"time"

	"github.com/cuetime/poolhall-app/models"
	"github.com/cuetime/poolhall-app/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// MaxQueueRetries bounds automatic retries. Entries past the bound stay
	// pending but are skipped by sweeps until an operator re-promotes them.
	MaxQueueRetries = 3

	// processingLease is how long a claimed entry may sit in processing
	// before a sweep reclaims it as abandoned by a crashed worker.
	processingLease = 10 * time.Minute
)

// PaymentQueueService delivers completed charges to the payment provider with
// at-least-once semantics. Entries are claimed (pending -> processing) before
// any remote call so a crash mid-call leaves them visibly in flight instead of
// silently lost. Remote failures never propagate to a caller; they return the
// entry to pending with an incremented retry count and the error recorded.
type PaymentQueueService struct {
	db     *gorm.DB
	clover CloverGateway
}

func NewPaymentQueueService(db *gorm.DB, clover CloverGateway) *PaymentQueueService {
	return &PaymentQueueService{db: db, clover: clover}
}

// Enqueue records a charge for asynchronous settlement.
func (qs *PaymentQueueService) Enqueue(sessionID *uint, tableName string, amountCents, tipCents int64) (*models.PaymentQueue, error) {
	entry := models.PaymentQueue{
		Reference:   uuid.NewString(),
		SessionID:   sessionID,
		TableName:   tableName,
		AmountCents: amountCents,
		TipCents:    tipCents,
		Status:      models.QueuePending,
	}
	if err := qs.db.Create(&entry).Error; err != nil {
		return nil, err
	}
	utils.InfoLogger.Printf("Queued payment %s for table %s (%s)", entry.Reference, tableName, utils.FormatCents(amountCents))
	return &entry, nil
}

// ProcessQueue sweeps the queue once: reclaims stale claims, then submits
// every retryable pending entry oldest-first. Returns processed and failed
// counts.
func (qs *PaymentQueueService) ProcessQueue() (processed, failed int) {
	qs.reclaimStale()

	var entries []models.PaymentQueue
	err := qs.db.
		Where("status = ? AND retry_count < ?", models.QueuePending, MaxQueueRetries).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		utils.ErrorLogger.Printf("Error fetching payment queue: %v", err)
		return 0, 0
	}

	for i := range entries {
		if err := qs.processEntry(&entries[i]); err != nil {
			failed++
			utils.ErrorLogger.Printf("Failed to process queued payment %s: %v", entries[i].Reference, err)
		} else {
			processed++
		}
	}
	return processed, failed
}

// Status returns entry counts per queue state.
func (qs *PaymentQueueService) Status() (map[models.QueueStatus]int64, error) {
	counts := make(map[models.QueueStatus]int64)
	for _, status := range []models.QueueStatus{models.QueuePending, models.QueueProcessing, models.QueueCompleted, models.QueueFailed} {
		var n int64
		if err := qs.db.Model(&models.PaymentQueue{}).Where("status = ?", status).Count(&n).Error; err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, nil
}

// RetryExhausted is the operator action that re-promotes entries whose retry
// budget ran out, resetting their counters so the next sweep picks them up.
func (qs *PaymentQueueService) RetryExhausted() (int64, error) {
	res := qs.db.Model(&models.PaymentQueue{}).
		Where("status IN ? AND retry_count >= ?", []models.QueueStatus{models.QueuePending, models.QueueFailed}, MaxQueueRetries).
		Updates(map[string]interface{}{
			"status":      models.QueuePending,
			"retry_count": 0,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		utils.InfoLogger.Printf("Re-promoted %d exhausted queue entries", res.RowsAffected)
	}
	return res.RowsAffected, nil
}

// processEntry submits a single entry. The guarded claim means two concurrent
// sweeps cannot both submit the same entry.
func (qs *PaymentQueueService) processEntry(entry *models.PaymentQueue) error {
	claim := qs.db.Model(&models.PaymentQueue{}).
		Where("id = ? AND status = ?", entry.ID, models.QueuePending).
		Update("status", models.QueueProcessing)
	if claim.Error != nil {
		return claim.Error
	}
	if claim.RowsAffected == 0 {
		return nil // claimed elsewhere
	}

	if err := qs.submit(entry); err != nil {
		qs.recordFailure(entry, err)
		return err
	}

	now := time.Now()
	return qs.db.Model(&models.PaymentQueue{}).
		Where("id = ?", entry.ID).
		Updates(map[string]interface{}{
			"status":       models.QueueCompleted,
			"processed_at": now,
		}).Error
}

func (qs *PaymentQueueService) submit(entry *models.PaymentQueue) error {
	order, err := qs.clover.CreateOrder(fmt.Sprintf("Table session: %s (%s)", entry.TableName, entry.Reference))
	if err != nil {
		return err
	}

	if _, err := qs.clover.AddLineItem(order.ID, entry.TableName, entry.AmountCents, 1); err != nil {
		return err
	}

	if entry.TipCents > 0 {
		if err := qs.clover.AddTip(order.ID, entry.TipCents); err != nil {
			return err
		}
	}

	payment := models.Payment{
		SessionID:     entry.SessionID,
		CloverOrderID: order.ID,
		AmountCents:   entry.AmountCents,
		TipCents:      entry.TipCents,
		TotalCents:    entry.AmountCents + entry.TipCents,
		Status:        models.PaymentPending,
		PaymentMethod: "card",
	}
	return qs.db.Create(&payment).Error
}

func (qs *PaymentQueueService) recordFailure(entry *models.PaymentQueue, cause error) {
	err := qs.db.Model(&models.PaymentQueue{}).
		Where("id = ?", entry.ID).
		Updates(map[string]interface{}{
			"status":      models.QueuePending,
			"retry_count": gorm.Expr("retry_count + 1"),
			"last_error":  cause.Error(),
		}).Error
	if err != nil {
		utils.ErrorLogger.Printf("Error recording queue failure for %s: %v", entry.Reference, err)
	}
}

// reclaimStale returns processing entries older than the lease window to
// pending. They were claimed by a worker that never finished.
func (qs *PaymentQueueService) reclaimStale() {
	cutoff := time.Now().Add(-processingLease)
	res := qs.db.Model(&models.PaymentQueue{}).
		Where("status = ? AND updated_at < ?", models.QueueProcessing, cutoff).
		Update("status", models.QueuePending)
	if res.Error != nil {
		utils.ErrorLogger.Printf("Error reclaiming stale queue entries: %v", res.Error)
		return
	}
	if res.RowsAffected > 0 {
		utils.InfoLogger.Printf("Reclaimed %d stale processing queue entries", res.RowsAffected)
	}
}
