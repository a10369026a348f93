package service

import (
	"tg-automod/internal/config"
	"tg-automod/internal/logger"
	"tg-automod/internal/storage"

	"gorm.io/gorm"
)

// Stores bundles the persistence backends of the engine.
type Stores struct {
	Warnings WarningStore
	Mutes    MuteStore
	Settings SettingsStore
	Audit    AuditStore
}

// NewStores picks the gorm repositories when db is set and the JSON files in
// storage.data_dir otherwise. The audit trail only exists on the database backend.
func NewStores(cfg *config.Config, db *gorm.DB) Stores {
	if db != nil {
		logger.Infof("Using database storage")
		return Stores{
			Warnings: storage.NewWarningRepository(db),
			Mutes:    storage.NewMuteRepository(db),
			Settings: storage.NewSettingsRepository(db),
			Audit:    storage.NewActionRepository(db),
		}
	}

	logger.Infof("Using JSON file storage in %s", cfg.Storage.DataDir)
	return Stores{
		Warnings: storage.NewWarningFile(cfg.Storage.DataDir),
		Mutes:    storage.NewMuteFile(cfg.Storage.DataDir),
		Settings: storage.NewSettingsFile(cfg.Storage.DataDir),
	}
}

// Deps combines the stores with the platform collaborators.
func (s Stores) Deps(membership Membership, messenger Messenger) Deps {
	return Deps{
		Membership: membership,
		Messenger:  messenger,
		Warnings:   s.Warnings,
		Mutes:      s.Mutes,
		Settings:   s.Settings,
		Audit:      s.Audit,
	}
}
