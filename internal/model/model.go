// Package model defines the database schema for durable player data.
package model

// PlayerSoundPreference is a player's persisted playback opt-out. One row per
// stable account id; Enabled false means the player hears no custom sounds.
type PlayerSoundPreference struct {
	AccountID uint64 `gorm:"primaryKey;autoIncrement:false" json:"accountId"`
	Enabled   bool   `json:"enabled"`
}

// DatabaseModels lists all models migrated at startup.
var DatabaseModels = []any{
	&PlayerSoundPreference{},
}
