package controllers

import (
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

type SessionController struct {
	DB       *gorm.DB
	sessions *services.SessionService
}

func NewSessionController(db *gorm.DB) *SessionController {
	return &SessionController{
		DB:       db,
		sessions: services.NewSessionService(db),
	}
}

// GetAllSessions lists sessions, optionally filtered by table and status.
func (sc *SessionController) GetAllSessions(c *gin.Context) {
	var tableID uint
	if v := c.Query("table_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid table_id"))
			return
		}
		tableID = uint(id)
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	sessions, err := sc.sessions.List(tableID, models.SessionStatus(c.Query("status")), limit)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of sessions", sessions)
}

// GetSessionByID returns one session with table and players.
func (sc *SessionController) GetSessionByID(c *gin.Context) {
	id, ok := parseUintParam(c, "session_id")
	if !ok {
		return
	}
	session, err := sc.sessions.Get(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session detail", session)
}

// StartSession opens a session on a table and marks the table occupied.
func (sc *SessionController) StartSession(c *gin.Context) {
	var req struct {
		TableID uint   `json:"table_id" binding:"required"`
		Notes   string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	session, err := sc.sessions.Start(req.TableID, req.Notes)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	live.Broadcast(live.EventSessionUpdate, session)
	live.Broadcast(live.EventTableUpdate, session.Table)
	utils.InfoLogger.Printf("Session %d started on table %d", session.ID, session.TableID)
	utils.RespondJSON(c, http.StatusCreated, "Session started", session)
}

// UpdateSession applies a lifecycle action (pause/resume/end/cancel) or, with
// no action, a notes update.
func (sc *SessionController) UpdateSession(c *gin.Context) {
	id, ok := parseUintParam(c, "session_id")
	if !ok {
		return
	}

	var req struct {
		Action string  `json:"action"`
		Notes  *string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var (
		session *models.Session
		err     error
		message string
	)
	switch req.Action {
	case "pause":
		session, err = sc.sessions.Pause(id)
		message = "Session paused"
	case "resume":
		session, err = sc.sessions.Resume(id)
		message = "Session resumed"
	case "end":
		session, err = sc.sessions.End(id)
		message = "Session completed"
	case "cancel":
		session, err = sc.sessions.Cancel(id)
		message = "Session cancelled"
	case "":
		if req.Notes == nil {
			utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("action or notes required"))
			return
		}
		session, err = sc.sessions.UpdateNotes(id, *req.Notes)
		message = "Session notes updated"
	default:
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("unknown action %q", req.Action))
		return
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}

	live.Broadcast(live.EventSessionUpdate, session)
	live.Broadcast(live.EventTableUpdate, session.Table)
	if session.TotalChargeCents != nil {
		utils.InfoLogger.Printf("Session %d completed: %.1f minutes, charge %s", session.ID, *session.TotalMinutes, utils.FormatCents(*session.TotalChargeCents))
	} else {
		utils.InfoLogger.Printf("Session %d: %s", session.ID, req.Action)
	}
	utils.RespondJSON(c, http.StatusOK, message, session)
}

// DeleteSession removes a session record, freeing the table when the session
// was still open.
func (sc *SessionController) DeleteSession(c *gin.Context) {
	id, ok := parseUintParam(c, "session_id")
	if !ok {
		return
	}
	if err := sc.sessions.Delete(id); err != nil {
		respondServiceError(c, err)
		return
	}
	live.Broadcast(live.EventSessionUpdate, gin.H{"session_id": id, "deleted": true})
	utils.InfoLogger.Printf("Session %d deleted", id)
	utils.RespondJSON(c, http.StatusOK, "Session deleted", gin.H{"id": id})
}

// GetSessionPlayers lists the players of a session, join order first.
func (sc *SessionController) GetSessionPlayers(c *gin.Context) {
	id, ok := parseUintParam(c, "session_id")
	if !ok {
		return
	}
	if _, err := sc.sessions.Get(id); err != nil {
		respondServiceError(c, err)
		return
	}

	var players []models.SessionPlayer
	if err := sc.DB.Preload("Player").
		Where("session_id = ?", id).
		Order("joined_at ASC").
		Find(&players).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session players", players)
}

// AddSessionPlayer seats an existing or newly created player at the session.
func (sc *SessionController) AddSessionPlayer(c *gin.Context) {
	id, ok := parseUintParam(c, "session_id")
	if !ok {
		return
	}

	var req struct {
		PlayerID   uint   `json:"player_id"`
		PlayerName string `json:"player_name"`
		Phone      string `json:"phone"`
		Email      string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if req.PlayerID == 0 && req.PlayerName == "" {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("player_id or player_name is required"))
		return
	}

	sp, err := sc.sessions.AddPlayer(id, services.AddPlayerInput{
		PlayerID: req.PlayerID,
		Name:     req.PlayerName,
		Phone:    req.Phone,
		Email:    req.Email,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	live.Broadcast(live.EventSessionUpdate, gin.H{"session_id": id})
	utils.InfoLogger.Printf("Player %d joined session %d", sp.PlayerID, id)
	utils.RespondJSON(c, http.StatusCreated, "Player added to session", sp)
}

// RemoveSessionPlayer stamps the player's leave time.
func (sc *SessionController) RemoveSessionPlayer(c *gin.Context) {
	id, ok := parseUintParam(c, "session_id")
	if !ok {
		return
	}
	playerID, err := strconv.ParseUint(c.Query("player_id"), 10, 32)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("player_id is required"))
		return
	}

	if err := sc.sessions.RemovePlayer(id, uint(playerID)); err != nil {
		respondServiceError(c, err)
		return
	}

	live.Broadcast(live.EventSessionUpdate, gin.H{"session_id": id})
	utils.RespondJSON(c, http.StatusOK, "Player removed from session", gin.H{"removed": true})
}
