package infra

import (
	"fmt"

	"github.com/Muletinha/projeto-emeece/internal/config"
	"github.com/Muletinha/projeto-emeece/internal/model"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, optionally wipes the
// schema (DB_RESET_ON_BOOT), then migrates all tables and applies the
// constraints AutoMigrate cannot express.
func NewDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.URL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)

	if cfg.ResetOnBoot {
		if err := ResetSchema(db); err != nil {
			return nil, fmt.Errorf("reset schema: %w", err)
		}
	}

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// ResetSchema drops every table, sequence and constraint in the public schema
// and recreates it empty. Irreversible.
func ResetSchema(db *gorm.DB) error {
	log.Warn().Msg("DB_RESET_ON_BOOT=true: dropping and recreating schema public, all data will be lost")
	for _, stmt := range []string{
		`DROP SCHEMA IF EXISTS public CASCADE`,
		`CREATE SCHEMA public`,
	} {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// RunMigrations creates/updates the tables and applies schema patches.
// Integration tests call it directly against a fresh container.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Product{},
		&model.CartItem{},
		&model.StockMovement{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches adds CHECK constraints that back the stock invariants at
// the storage level. Each block is guarded by an existence check so re-running
// on an already-patched schema is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		{"products stock_qty >= 0", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_products_stock_qty') THEN
    ALTER TABLE products ADD CONSTRAINT chk_products_stock_qty CHECK (stock_qty >= 0);
  END IF;
END $$`},
		{"products price >= 0", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_products_price') THEN
    ALTER TABLE products ADD CONSTRAINT chk_products_price CHECK (price >= 0);
  END IF;
END $$`},
		{"cart_items qty >= 1", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_cart_items_qty') THEN
    ALTER TABLE cart_items ADD CONSTRAINT chk_cart_items_qty CHECK (qty >= 1);
  END IF;
END $$`},
		{"stock_movements product/time index", `
CREATE INDEX IF NOT EXISTS idx_stock_movements_product_created
    ON stock_movements (product_id, created_at DESC)`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
