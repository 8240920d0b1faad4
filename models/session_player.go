package models

import "time"

// SessionPlayer joins a Player to a Session. LeftAt is stamped instead of
// deleting the row so historical attendance survives.
type SessionPlayer struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	SessionID uint       `gorm:"not null;uniqueIndex:idx_session_player" json:"session_id"`
	PlayerID  uint       `gorm:"not null;uniqueIndex:idx_session_player" json:"player_id"`
	Player    Player     `gorm:"foreignKey:PlayerID" json:"player"`
	JoinedAt  time.Time  `gorm:"not null" json:"joined_at"`
	LeftAt    *time.Time `json:"left_at,omitempty"`
}
