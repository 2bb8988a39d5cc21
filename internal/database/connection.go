// internal/database/connection.go
package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/GabrielVictorica/inmogestor-backend/internal/config"
	"github.com/GabrielVictorica/inmogestor-backend/internal/models"
)

var DB *gorm.DB

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var err error
	var gormConfig *gorm.Config

	// Configure GORM logger. TranslateError turns driver unique-violation
	// errors into gorm.ErrDuplicatedKey so they map onto the conflict code.
	if cfg.LogLevel == "silent" {
		gormConfig = &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Silent),
			TranslateError: true,
		}
	} else {
		gormConfig = &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Info),
			TranslateError: true,
		}
	}

	// Connect to database
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connection established successfully")
	return DB, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Error getting underlying sql.DB: %v", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	} else {
		log.Println("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	// Run auto-migrations
	err := db.AutoMigrate(
		&models.Organization{},
		&models.Profile{},
		&models.Transaction{},
		&models.BillingRecord{},
		&models.ClosingRun{},
		&models.AuditLog{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create indexes
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// Profile indexes
		"CREATE INDEX IF NOT EXISTS idx_profiles_org_role ON profiles(organization_id, role)",
		"CREATE INDEX IF NOT EXISTS idx_profiles_active ON profiles(is_active)",

		// Transaction indexes
		"CREATE INDEX IF NOT EXISTS idx_transactions_org_date ON transactions(organization_id, transaction_date DESC)",
		"CREATE INDEX IF NOT EXISTS idx_transactions_agent_date ON transactions(agent_id, transaction_date DESC)",
		"CREATE INDEX IF NOT EXISTS idx_transactions_property ON transactions(property_id)",

		// Billing indexes
		"CREATE INDEX IF NOT EXISTS idx_billing_org_status ON billing_records(organization_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_billing_period ON billing_records(period)",
		"CREATE INDEX IF NOT EXISTS idx_billing_due ON billing_records(status, first_due_date)",

		// Closing idempotency: at most one live royalty charge per
		// organization and period.
		"CREATE UNIQUE INDEX IF NOT EXISTS uniq_billing_royalty_period ON billing_records(organization_id, period, billing_type) WHERE billing_type = 'royalty' AND status <> 'cancelled'",

		// Audit indexes
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_actor_action ON audit_logs(actor_id, action)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_resource ON audit_logs(resource_type, resource_id)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs(created_at DESC)",

		// Closing run history
		"CREATE INDEX IF NOT EXISTS idx_closing_runs_period ON closing_runs(period, started_at DESC)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			log.Printf("Warning: Failed to create index: %s, Error: %v", index, err)
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
