package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/cuetime/poolhall-app/models"
	"github.com/cuetime/poolhall-app/pricing"
	"gorm.io/gorm"
)

var nonTerminalStatuses = []models.SessionStatus{models.SessionActive, models.SessionPaused}

// SessionService owns every session status transition and keeps the owning
// table's availability consistent with it. Each transition runs in one
// transaction; the status-guarded UPDATE plus its RowsAffected check is what
// serializes concurrent requests against the same session, so a pause and an
// end racing each other can never both succeed.
type SessionService struct {
	db *gorm.DB
}

func NewSessionService(db *gorm.DB) *SessionService {
	return &SessionService{db: db}
}

// Get returns a session with its table and current players.
func (s *SessionService) Get(sessionID uint) (*models.Session, error) {
	var session models.Session
	err := s.db.Preload("Table").Preload("Players.Player").First(&session, sessionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

// List returns sessions newest-first, optionally filtered by table and status.
func (s *SessionService) List(tableID uint, status models.SessionStatus, limit int) ([]models.Session, error) {
	if limit <= 0 {
		limit = 50
	}
	q := s.db.Preload("Table").Order("start_time DESC").Limit(limit)
	if tableID != 0 {
		q = q.Where("table_id = ?", tableID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var sessions []models.Session
	if err := q.Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// Start creates an active session on the table and marks it occupied, as one
// atomic unit. Reserved tables can be seated; occupied and maintenance tables
// cannot.
func (s *SessionService) Start(tableID uint, notes string) (*models.Session, error) {
	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	var table models.Table
	if err := tx.First(&table, tableID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTableNotFound
		}
		return nil, err
	}

	var open int64
	if err := tx.Model(&models.Session{}).
		Where("table_id = ? AND status IN ?", tableID, nonTerminalStatuses).
		Count(&open).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if open > 0 {
		tx.Rollback()
		return nil, ErrTableOccupied
	}

	session := models.Session{
		TableID:   tableID,
		Status:    models.SessionActive,
		StartTime: time.Now(),
		Notes:     notes,
	}
	if err := tx.Create(&session).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	// Guarded flip: only one of two racing starts can take the table.
	res := tx.Model(&models.Table{}).
		Where("id = ? AND status IN ?", tableID, []models.TableStatus{models.TableAvailable, models.TableReserved}).
		Update("status", models.TableOccupied)
	if res.Error != nil {
		tx.Rollback()
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return nil, ErrTableOccupied
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	table.Status = models.TableOccupied
	session.Table = table
	return &session, nil
}

// Pause suspends billing on an active session.
func (s *SessionService) Pause(sessionID uint) (*models.Session, error) {
	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	if _, err := s.loadSession(tx, sessionID); err != nil {
		tx.Rollback()
		return nil, err
	}

	now := time.Now()
	res := tx.Model(&models.Session{}).
		Where("id = ? AND status = ?", sessionID, models.SessionActive).
		Updates(map[string]interface{}{
			"status":    models.SessionPaused,
			"paused_at": now,
		})
	if res.Error != nil {
		tx.Rollback()
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return nil, fmt.Errorf("%w: session is not active", ErrInvalidTransition)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return s.Get(sessionID)
}

// Resume reactivates a paused session, folding the elapsed pause interval
// into the cumulative paused duration.
func (s *SessionService) Resume(sessionID uint) (*models.Session, error) {
	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	session, err := s.loadSession(tx, sessionID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if session.Status != models.SessionPaused || session.PausedAt == nil {
		tx.Rollback()
		return nil, fmt.Errorf("%w: session is not paused", ErrInvalidTransition)
	}

	pausedMs := session.TotalPausedMs + time.Since(*session.PausedAt).Milliseconds()

	// Guard on the exact paused_at we computed from, so a racing
	// resume+pause cycle cannot fold the same interval twice.
	res := tx.Model(&models.Session{}).
		Where("id = ? AND status = ? AND paused_at = ?", sessionID, models.SessionPaused, session.PausedAt).
		Updates(map[string]interface{}{
			"status":          models.SessionActive,
			"paused_at":       nil,
			"total_paused_ms": pausedMs,
		})
	if res.Error != nil {
		tx.Rollback()
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return nil, fmt.Errorf("%w: session is not paused", ErrInvalidTransition)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return s.Get(sessionID)
}

// End completes the session: any trailing pause interval is folded in, the
// pricing engine computes the final totals exactly once, and the table is
// freed in the same transaction.
func (s *SessionService) End(sessionID uint) (*models.Session, error) {
	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	session, err := s.loadSession(tx, sessionID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if session.Status.IsTerminal() {
		tx.Rollback()
		return nil, fmt.Errorf("%w: session already ended", ErrInvalidTransition)
	}

	var table models.Table
	if err := tx.First(&table, session.TableID).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	settings, err := getOrCreateSettings(tx)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	now := time.Now()
	pausedMs := session.TotalPausedMs
	if session.Status == models.SessionPaused && session.PausedAt != nil {
		pausedMs += now.Sub(*session.PausedAt).Milliseconds()
	}

	rate := table.HourlyRateCents
	if rate == 0 {
		rate = settings.DefaultHourlyRateCents
	}

	minutes, err := pricing.BillableMinutes(session.StartTime, now, pausedMs)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	charge, err := pricing.ComputeCharge(session.StartTime, now, pausedMs,
		rate, settings.MinimumChargeCents, settings.GracePeriodMinutes, settings.BillingIncrement)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	// Guard on the status we loaded: a pause that lands between our read and
	// this write invalidates the computed pause accounting, so the update
	// must fail rather than complete with stale numbers.
	res := tx.Model(&models.Session{}).
		Where("id = ? AND status = ?", sessionID, session.Status).
		Updates(map[string]interface{}{
			"status":             models.SessionCompleted,
			"end_time":           now,
			"paused_at":          nil,
			"total_paused_ms":    pausedMs,
			"total_minutes":      minutes,
			"total_charge_cents": charge,
		})
	if res.Error != nil {
		tx.Rollback()
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return nil, fmt.Errorf("%w: session changed concurrently, retry", ErrInvalidTransition)
	}

	if err := s.freeTable(tx, session.TableID); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return s.Get(sessionID)
}

// Cancel terminates the session without computing a charge and frees the
// table.
func (s *SessionService) Cancel(sessionID uint) (*models.Session, error) {
	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	session, err := s.loadSession(tx, sessionID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if session.Status.IsTerminal() {
		tx.Rollback()
		return nil, fmt.Errorf("%w: session already ended", ErrInvalidTransition)
	}

	now := time.Now()
	res := tx.Model(&models.Session{}).
		Where("id = ? AND status IN ?", sessionID, nonTerminalStatuses).
		Updates(map[string]interface{}{
			"status":    models.SessionCancelled,
			"end_time":  now,
			"paused_at": nil,
		})
	if res.Error != nil {
		tx.Rollback()
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return nil, fmt.Errorf("%w: session already ended", ErrInvalidTransition)
	}

	if err := s.freeTable(tx, session.TableID); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return s.Get(sessionID)
}

// Delete removes a session record entirely. A non-terminal session frees its
// table on the way out so the table is never left occupied with no session.
func (s *SessionService) Delete(sessionID uint) error {
	tx := s.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	session, err := s.loadSession(tx, sessionID)
	if err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Where("session_id = ?", sessionID).Delete(&models.SessionPlayer{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Delete(&models.Session{}, sessionID).Error; err != nil {
		tx.Rollback()
		return err
	}

	if !session.Status.IsTerminal() {
		if err := s.freeTable(tx, session.TableID); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit().Error
}

// UpdateNotes replaces the free-text notes on any session.
func (s *SessionService) UpdateNotes(sessionID uint, notes string) (*models.Session, error) {
	res := s.db.Model(&models.Session{}).Where("id = ?", sessionID).Update("notes", notes)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrSessionNotFound
	}
	return s.Get(sessionID)
}

// AddPlayerInput identifies an existing player or describes a new one.
type AddPlayerInput struct {
	PlayerID uint
	Name     string
	Phone    string
	Email    string
}

// AddPlayer attaches a player to a non-terminal session. A player can only be
// at one table: membership in any other active session is rejected. That
// venue-wide check is read-then-decide and therefore best effort under
// concurrent adds for the same player.
func (s *SessionService) AddPlayer(sessionID uint, input AddPlayerInput) (*models.SessionPlayer, error) {
	session, err := s.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status.IsTerminal() {
		return nil, ErrSessionTerminal
	}

	var player models.Player
	if input.PlayerID != 0 {
		if err := s.db.First(&player, input.PlayerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrPlayerNotFound
			}
			return nil, err
		}
	} else {
		player = models.Player{Name: input.Name, Phone: input.Phone, Email: input.Email}
		if err := s.db.Create(&player).Error; err != nil {
			return nil, err
		}
	}

	var existing int64
	if err := s.db.Model(&models.SessionPlayer{}).
		Where("session_id = ? AND player_id = ?", sessionID, player.ID).
		Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, ErrPlayerAlreadyInSession
	}

	var elsewhere int64
	err = s.db.Model(&models.SessionPlayer{}).
		Joins("JOIN sessions ON sessions.id = session_players.session_id").
		Where("session_players.player_id = ? AND session_players.left_at IS NULL", player.ID).
		Where("sessions.status IN ? AND sessions.id <> ?", nonTerminalStatuses, sessionID).
		Count(&elsewhere).Error
	if err != nil {
		return nil, err
	}
	if elsewhere > 0 {
		return nil, ErrPlayerInOtherSession
	}

	sp := models.SessionPlayer{
		SessionID: sessionID,
		PlayerID:  player.ID,
		JoinedAt:  time.Now(),
	}
	if err := s.db.Create(&sp).Error; err != nil {
		return nil, err
	}
	sp.Player = player
	return &sp, nil
}

// RemovePlayer stamps the player's leave time. The join row is kept so
// historical attendance survives.
func (s *SessionService) RemovePlayer(sessionID, playerID uint) error {
	res := s.db.Model(&models.SessionPlayer{}).
		Where("session_id = ? AND player_id = ?", sessionID, playerID).
		Update("left_at", time.Now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPlayerNotInSession
	}
	return nil
}

func (s *SessionService) loadSession(tx *gorm.DB, sessionID uint) (*models.Session, error) {
	var session models.Session
	if err := tx.First(&session, sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (s *SessionService) freeTable(tx *gorm.DB, tableID uint) error {
	return tx.Model(&models.Table{}).
		Where("id = ? AND status = ?", tableID, models.TableOccupied).
		Update("status", models.TableAvailable).Error
}
