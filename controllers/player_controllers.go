package controllers

import (
	"net/http"

	"github.com/cuetime/poolhall-app/models"
	"github.com/cuetime/poolhall-app/services"
	"github.com/cuetime/poolhall-app/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type PlayerController struct {
	DB *gorm.DB
}

func NewPlayerController(db *gorm.DB) *PlayerController {
	return &PlayerController{DB: db}
}

// GetAllPlayers lists player profiles, optionally filtered by a name search.
func (pc *PlayerController) GetAllPlayers(c *gin.Context) {
	q := pc.DB.Order("name ASC")
	if search := c.Query("search"); search != "" {
		q = q.Where("name LIKE ?", "%"+search+"%")
	}
	var players []models.Player
	if err := q.Find(&players).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of players", players)
}

// GetPlayerByID returns one player with their session history.
func (pc *PlayerController) GetPlayerByID(c *gin.Context) {
	var player models.Player
	if err := pc.DB.First(&player, c.Param("player_id")).Error; err != nil {
		respondServiceError(c, services.ErrPlayerNotFound)
		return
	}

	var history []models.SessionPlayer
	if err := pc.DB.Where("player_id = ?", player.ID).Order("joined_at DESC").Limit(20).Find(&history).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Player detail", gin.H{
		"player":  player,
		"history": history,
	})
}

func (pc *PlayerController) CreatePlayer(c *gin.Context) {
	var req struct {
		Name  string `json:"name" binding:"required"`
		Phone string `json:"phone"`
		Email string `json:"email"`
		Notes string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	player := models.Player{
		Name:  req.Name,
		Phone: req.Phone,
		Email: req.Email,
		Notes: req.Notes,
	}
	if err := pc.DB.Create(&player).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("New player created: %s", player.Name)
	utils.RespondJSON(c, http.StatusCreated, "Player created", player)
}

func (pc *PlayerController) UpdatePlayer(c *gin.Context) {
	var req struct {
		Name  *string `json:"name"`
		Phone *string `json:"phone"`
		Email *string `json:"email"`
		Notes *string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var player models.Player
	if err := pc.DB.First(&player, c.Param("player_id")).Error; err != nil {
		respondServiceError(c, services.ErrPlayerNotFound)
		return
	}

	if req.Name != nil {
		player.Name = *req.Name
	}
	if req.Phone != nil {
		player.Phone = *req.Phone
	}
	if req.Email != nil {
		player.Email = *req.Email
	}
	if req.Notes != nil {
		player.Notes = *req.Notes
	}

	if err := pc.DB.Save(&player).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Player updated", player)
}

func (pc *PlayerController) DeletePlayer(c *gin.Context) {
	var player models.Player
	if err := pc.DB.First(&player, c.Param("player_id")).Error; err != nil {
		respondServiceError(c, services.ErrPlayerNotFound)
		return
	}

	if err := pc.DB.Delete(&player).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.InfoLogger.Printf("Player %d deleted", player.ID)
	utils.RespondJSON(c, http.StatusOK, "Player deleted", gin.H{"id": player.ID})
}
