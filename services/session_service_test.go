package services

import (
	"testing"
	"time"

	"github.com/cuetime/poolhall-app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSessionTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Table{},
		&models.Player{},
		&models.Session{},
		&models.SessionPlayer{},
		&models.Settings{},
	))
	return db
}

func seedTable(t *testing.T, db *gorm.DB, rateCents int64) *models.Table {
	t.Helper()
	table := models.Table{Name: "Table 1", TableNumber: 1, Status: models.TableAvailable, HourlyRateCents: rateCents}
	require.NoError(t, db.Create(&table).Error)
	return &table
}

func tableStatus(t *testing.T, db *gorm.DB, tableID uint) models.TableStatus {
	t.Helper()
	var table models.Table
	require.NoError(t, db.First(&table, tableID).Error)
	return table.Status
}

// backdate rewrites start_time so billing math sees a session of known length.
func backdate(t *testing.T, db *gorm.DB, sessionID uint, d time.Duration) {
	t.Helper()
	require.NoError(t, db.Model(&models.Session{}).
		Where("id = ?", sessionID).
		Update("start_time", time.Now().Add(-d)).Error)
}

func TestStartSessionOccupiesTable(t *testing.T) {
	db := setupSessionTestDB(t)
	svc := NewSessionService(db)
	table := seedTable(t, db, 1500)

	session, err := svc.Start(table.ID, "birthday group")
	require.NoError(t, err)
	assert.Equal(t, models.SessionActive, session.Status)
	assert.Equal(t, "birthday group", session.Notes)
	assert.Equal(t, models.TableOccupied, tableStatus(t, db, table.ID))
}

func TestStartSessionOnOccupiedTable(t *testing.T) {
	db := setupSessionTestDB(t)
	svc := NewSessionService(db)
	table := seedTable(t, db, 1500)

	_, err := svc.Start(table.ID, "")
	require.NoError(t, err)

	_, err = svc.Start(table.ID, "")
	assert.ErrorIs(t, err, ErrTableOccupied)

	var sessions int64
	db.Model(&models.Session{}).Where("table_id = ?", table.ID).Count(&sessions)
	assert.EqualValues(t, 1, sessions)
}

func TestStartSessionOnReservedTable(t *testing.T) {
	db := setupSessionTestDB(t)
	svc := NewSessionService(db)
	table := seedTable(t, db, 1500)
	require.NoError(t, db.Model(table).Update("status", models.TableReserved).Error)

	_, err := svc.Start(table.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.TableOccupied, tableStatus(t, db, table.ID))
}

func TestStartSessionOnMaintenanceTable(t *testing.T) {
	db := setupSessionTestDB(t)
	svc := NewSessionService(db)
	table := seedTable(t, db, 1500)
	require.NoError(t, db.Model(table).Update("status", models.TableMaintenance).Error)

	_, err := svc.Start(table.ID, "")
	assert.ErrorIs(t, err, ErrTableOccupied)
	assert.Equal(t, models.TableMaintenance, tableStatus(t, db, table.ID))
}

func TestStartSessionUnknownTable(t *testing.T) {
	db := setupSessionTestDB(t)
	svc := NewSessionService(db)

	_, err := svc.Start(999, "")
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestPauseAndResumeAccumulatesPause(t *testing.T) {
	db := setupSessionTestDB(t)
	svc := NewSessionService(db)
	table := seedTable(t, db, 1500)

	session, err := svc.Start(table.ID, "")
	require.NoError(t, err)

	paused, err := svc.Pause(session.ID)
	require.NoError(t, err)
	require.Equal(t, models.SessionPaused, paused.Status)
	require.NotNil(t, paused.PausedAt)

	// Shift the pause start 10 minutes back so the fold is measurable.
	pausedAt := time.Now().Add(-10 * time.Minute)
	require.NoError(t, db.Model(&models.Session{}).
		Where("id = ?", session.ID).
		Update("paused_at", pausedAt).Error)

	resumed, err := svc.Resume(session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionActive, resumed.Status)
	assert.Nil(t, resumed.PausedAt)
	assert.GreaterOrEqual(t, resumed.TotalPausedMs, int64(10*time.Minute/time.Millisecond))
	assert.Less(t, resumed.TotalPausedMs, int64(11*time.Minute/time.Millisecond))
}

func TestRepeatedPauseCyclesAccumulate(t *testing.T) {
	db := setupSessionTestDB(t)
	svc := NewSessionService(db)
	table := seedTable(t, db, 1500)

	session, err := svc.Start(table.ID, "")
	require.NoError(t, err)

	var total int64
	for i := 0; i < 3; i++ {
		_, err := svc.Pause(session.ID)
		require.NoError(t, err)
		require.NoError(t, db.Model(&models.Session{}).
			Where("id = ?", session.ID).
			Update("paused_at", time.Now().Add(-2*time.Minute)).Error)
		resumed, err := svc.Resume(session.ID)
		require.NoError(t, err)
		assert.Greater(t, resumed.TotalPausedMs, total)
		total = resumed.TotalPausedMs
	}
	assert.GreaterOrEqual(t, total, int64(6*time.Minute/time.Millisecond))
}

func TestEndComputesChargeAndFreesTable(t *testing.T) {
	db := setupSessionTestDB(t)
	svc := NewSessionService(db)
	table := seedTable(t, db, 1500)

	session, err := svc.Start(table.ID, "")
	require.NoError(t, err)
	backdate(t, db, session.ID, 37*time.Minute-30*time.Second)

	ended, err := svc.End(session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, ended.Status)
	require.NotNil(t, ended.EndTime)
	require.NotNil(t, ended.TotalMinutes)
	require.NotNil(t, ended.TotalChargeCents)
	// Rounds up to 37 minutes at $15.00/hr, 925 cents.
	assert.InDelta(t, 36.5, *ended.TotalMinutes, 0.2)
	assert.EqualValues(t, 925, *ended.TotalChargeCents)
	assert.Equal(t, models.TableAvailable, tableStatus(t, db, table.ID))
}

func TestEndAppliesMinimumCharge(t *testing.T) {
	db := setupSessionTestDB(t)
	svc := NewSessionService(db)
	table := seedTable(t, db, 1500)

	session, err := svc.Start(table.ID, "")
	require.NoError(t, err)
	backdate(t, db, session.ID, 3*time.Minute)

	ended, err := svc.End(session.ID)
	require.NoError(t, err)
	require.NotNil(t, ended.TotalChargeCents)
	assert.EqualValues(t, 500, *ended.TotalChargeCents)
}

func TestEndWithinGracePeriodIsFree(t *testing.T) {
	db := setupSessionTestDB(t)
	svc := NewSessionService(db)
	table := seedTable(t, db, 1500)

	settings, err := getOrCreateSettings(db)
	require.NoError(t, err)
	require.NoError(t, db.Model(settings).Update("grace_period_minutes", 5).Error)

	session, err := svc.Start(table.ID, "")
	require.NoError(t, err)
	backdate(t, db, session.ID, 4*time.Minute)

	ended, err := svc.End(session.ID)
	require.NoError(t, err)
	require.NotNil(t, ended.TotalChargeCents)
	assert.EqualValues(t, 0, *ended.TotalChargeCents)
}

func TestEndPausedSessionFoldsTrailingPause(t *testing.T) {
	db := setupSessionTestDB(t)
	svc := NewSessionService(db)
	table := seedTable(t, db, 1000)

	session, err := svc.Start(table.ID, "")
	require.NoError(t, err)
	backdate(t, db, session.ID, 60*time.Minute-30*time.Second)

	_, err = svc.Pause(session.ID)
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Session{}).
		Where("id = ?", session.ID).
		Update("paused_at", time.Now().Add(-10*time.Minute)).Error)

	ended, err := svc.End(session.ID)
	require.NoError(t, err)
	require.NotNil(t, ended.TotalMinutes)
	require.NotNil(t, ended.TotalChargeCents)
	// Roughly 60 minute span minus 10 paused, rounded up to 50 billable
	// minutes at $10.00/hr.
	assert.InDelta(t, 49.5, *ended.TotalMinutes, 0.2)
	assert.EqualValues(t, 833, *ended.TotalChargeCents)
	assert.Equal(t, models.TableAvailable, tableStatus(t, db, table.ID))
}

func TestEndUsesDefaultRateWhenTableRateUnset(t *testing.T) {
	db := setupSessionTestDB(t)
	svc := NewSessionService(db)
	table := seedTable(t, db, 0)

	session, err := svc.Start(table.ID, "")
	require.NoError(t, err)
	backdate(t, db, session.ID, 60*time.Minute-30*time.Second)

	ended, err := svc.End(session.ID)
	require.NoError(t, err)
	require.NotNil(t, ended.TotalChargeCents)
	// Default venue rate is $15.00/hr.
	assert.EqualValues(t, 1500, *ended.TotalChargeCents)
}

func TestEndIsIdempotentGuarded(t *testing.T) {
	db := setupSessionTestDB(t)
	svc := NewSessionService(db)
	table := seedTable(t, db, 1500)

	session, err := svc.Start(table.ID, "")
	require.NoError(t, err)
	backdate(t, db, session.ID, 30*time.Minute)

	first, err := svc.End(session.ID)
	require.NoError(t, err)

	_, err = svc.End(session.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Totals written on the first end are untouched.
	again, err := svc.Get(session.ID)
	require.NoError(t, err)
	assert.Equal(t, *first.TotalChargeCents, *again.TotalChargeCents)
	assert.Equal(t, *first.EndTime, *again.EndTime)
}

func TestInvalidTransitionsLeaveNoTrace(t *testing.T) {
	cases := []struct {
		name    string
		prepare func(t *testing.T, svc *SessionService, db *gorm.DB, sessionID uint)
		action  func(svc *SessionService, sessionID uint) error
	}{
		{
			name:    "pause a paused session",
			prepare: func(t *testing.T, svc *SessionService, db *gorm.DB, id uint) { mustPause(t, svc, id) },
			action:  func(svc *SessionService, id uint) error { _, err := svc.Pause(id); return err },
		},
		{
			name:    "resume an active session",
			prepare: func(t *testing.T, svc *SessionService, db *gorm.DB, id uint) {},
			action:  func(svc *SessionService, id uint) error { _, err := svc.Resume(id); return err },
		},
		{
			name:    "pause a completed session",
			prepare: func(t *testing.T, svc *SessionService, db *gorm.DB, id uint) { mustEnd(t, svc, id) },
			action:  func(svc *SessionService, id uint) error { _, err := svc.Pause(id); return err },
		},
		{
			name:    "resume a completed session",
			prepare: func(t *testing.T, svc *SessionService, db *gorm.DB, id uint) { mustEnd(t, svc, id) },
			action:  func(svc *SessionService, id uint) error { _, err := svc.Resume(id); return err },
		},
		{
			name:    "end a cancelled session",
			prepare: func(t *testing.T, svc *SessionService, db *gorm.DB, id uint) { mustCancel(t, svc, id) },
			action:  func(svc *SessionService, id uint) error { _, err := svc.End(id); return err },
		},
		{
			name:    "cancel a completed session",
			prepare: func(t *testing.T, svc *SessionService, db *gorm.DB, id uint) { mustEnd(t, svc, id) },
			action:  func(svc *SessionService, id uint) error { _, err := svc.Cancel(id); return err },
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db := setupSessionTestDB(t)
			svc := NewSessionService(db)
			table := seedTable(t, db, 1500)

			session, err := svc.Start(table.ID, "")
			require.NoError(t, err)
			tc.prepare(t, svc, db, session.ID)

			before, err := svc.Get(session.ID)
			require.NoError(t, err)
			tableBefore := tableStatus(t, db, table.ID)

			err = tc.action(svc, session.ID)
			assert.ErrorIs(t, err, ErrInvalidTransition)

			after, err := svc.Get(session.ID)
			require.NoError(t, err)
			assert.Equal(t, before.Status, after.Status)
			assert.Equal(t, before.TotalPausedMs, after.TotalPausedMs)
			assert.Equal(t, tableBefore, tableStatus(t, db, table.ID))
		})
	}
}

func TestCancelSkipsCharge(t *testing.T) {
	db := setupSessionTestDB(t)
	svc := NewSessionService(db)
	table := seedTable(t, db, 1500)

	session, err := svc.Start(table.ID, "")
	require.NoError(t, err)
	backdate(t, db, session.ID, 45*time.Minute)

	cancelled, err := svc.Cancel(session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCancelled, cancelled.Status)
	assert.Nil(t, cancelled.TotalChargeCents)
	assert.Nil(t, cancelled.TotalMinutes)
	assert.Equal(t, models.TableAvailable, tableStatus(t, db, table.ID))
}

func TestDeleteActiveSessionFreesTable(t *testing.T) {
	db := setupSessionTestDB(t)
	svc := NewSessionService(db)
	table := seedTable(t, db, 1500)

	session, err := svc.Start(table.ID, "")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(session.ID))
	assert.Equal(t, models.TableAvailable, tableStatus(t, db, table.ID))

	_, err = svc.Get(session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAddPlayerToSession(t *testing.T) {
	db := setupSessionTestDB(t)
	svc := NewSessionService(db)
	table := seedTable(t, db, 1500)

	session, err := svc.Start(table.ID, "")
	require.NoError(t, err)

	sp, err := svc.AddPlayer(session.ID, AddPlayerInput{Name: "Jamie", Phone: "555-0101"})
	require.NoError(t, err)
	assert.Equal(t, "Jamie", sp.Player.Name)
	assert.NotZero(t, sp.PlayerID)

	// Same player again is rejected.
	_, err = svc.AddPlayer(session.ID, AddPlayerInput{PlayerID: sp.PlayerID})
	assert.ErrorIs(t, err, ErrPlayerAlreadyInSession)
}

func TestAddPlayerBusyAtAnotherTable(t *testing.T) {
	db := setupSessionTestDB(t)
	svc := NewSessionService(db)
	table1 := seedTable(t, db, 1500)
	table2 := models.Table{Name: "Table 2", TableNumber: 2, Status: models.TableAvailable, HourlyRateCents: 1500}
	require.NoError(t, db.Create(&table2).Error)

	s1, err := svc.Start(table1.ID, "")
	require.NoError(t, err)
	s2, err := svc.Start(table2.ID, "")
	require.NoError(t, err)

	sp, err := svc.AddPlayer(s1.ID, AddPlayerInput{Name: "Alex"})
	require.NoError(t, err)

	_, err = svc.AddPlayer(s2.ID, AddPlayerInput{PlayerID: sp.PlayerID})
	assert.ErrorIs(t, err, ErrPlayerInOtherSession)

	// Once they leave the first table, the second add succeeds.
	require.NoError(t, svc.RemovePlayer(s1.ID, sp.PlayerID))
	_, err = svc.AddPlayer(s2.ID, AddPlayerInput{PlayerID: sp.PlayerID})
	assert.NoError(t, err)
}

func TestAddPlayerToEndedSession(t *testing.T) {
	db := setupSessionTestDB(t)
	svc := NewSessionService(db)
	table := seedTable(t, db, 1500)

	session, err := svc.Start(table.ID, "")
	require.NoError(t, err)
	mustEnd(t, svc, session.ID)

	_, err = svc.AddPlayer(session.ID, AddPlayerInput{Name: "Morgan"})
	assert.ErrorIs(t, err, ErrSessionTerminal)
}

func TestRemovePlayerNotInSession(t *testing.T) {
	db := setupSessionTestDB(t)
	svc := NewSessionService(db)
	table := seedTable(t, db, 1500)

	session, err := svc.Start(table.ID, "")
	require.NoError(t, err)

	err = svc.RemovePlayer(session.ID, 42)
	assert.ErrorIs(t, err, ErrPlayerNotInSession)
}

func mustPause(t *testing.T, svc *SessionService, sessionID uint) {
	t.Helper()
	_, err := svc.Pause(sessionID)
	require.NoError(t, err)
}

func mustEnd(t *testing.T, svc *SessionService, sessionID uint) {
	t.Helper()
	_, err := svc.End(sessionID)
	require.NoError(t, err)
}

func mustCancel(t *testing.T, svc *SessionService, sessionID uint) {
	t.Helper()
	_, err := svc.Cancel(sessionID)
	require.NoError(t, err)
}
