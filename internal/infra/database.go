package infra

import (
	"fmt"

	"pvcaisse/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens the GORM connection backed by pgx and brings the schema up
// to date with RunMigrations.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates or updates every table, then applies the patches
// AutoMigrate cannot express. Safe to run on every start.
func RunMigrations(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return fmt.Errorf("pgcrypto: %w", err)
	}
	if err := db.AutoMigrate(
		&model.Agence{},
		&model.Utilisateur{},
		&model.Categorie{},
		&model.PVCaisse{},
		&model.ConfigurationPV{},
		&model.RapportEnvoi{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs idempotent DDL: check constraints and partial
// indexes. Each statement is guarded so re-running is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		{"pv_caisses solde_depart >= 0", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_pv_caisses_solde_depart') THEN
    ALTER TABLE pv_caisses ADD CONSTRAINT chk_pv_caisses_solde_depart CHECK (solde_depart >= 0);
  END IF;
END $$`},
		// latest version per (utilisateur, date)
		{"idx_pv_caisses_courant",
			`CREATE INDEX IF NOT EXISTS idx_pv_caisses_courant
			    ON pv_caisses (utilisateur_id, date, created_at DESC, id DESC)`},
		{"idx_rapport_envois_pending_retry",
			`CREATE INDEX IF NOT EXISTS idx_rapport_envois_pending_retry
			    ON rapport_envois (next_retry_at)
			    WHERE statut = 'echec' AND next_retry_at IS NOT NULL`},
		{"rapport_envois statut", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_rapport_envois_statut') THEN
    ALTER TABLE rapport_envois ADD CONSTRAINT chk_rapport_envois_statut
      CHECK (statut IN ('en_attente', 'envoye', 'echec', 'abandonne'));
  END IF;
END $$`},
		{"utilisateurs role", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_utilisateurs_role') THEN
    ALTER TABLE utilisateurs ADD CONSTRAINT chk_utilisateurs_role
      CHECK (role IN ('agent', 'responsable', 'admin'));
  END IF;
END $$`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
