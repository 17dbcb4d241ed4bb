package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/mbodj/retam/internal/config"
	"github.com/mbodj/retam/internal/database"
	"github.com/mbodj/retam/internal/models"
	"github.com/shopspring/decimal"
)

// getTestConfig returns database configuration for integration tests.
// The tests need a PostGIS-enabled database with the schema loaded.
func getTestConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host:     getEnvOrDefault("DB_HOST", "localhost"),
		Port:     getEnvOrDefault("DB_PORT", "5432"),
		Name:     getEnvOrDefault("DB_NAME", "retam"),
		User:     getEnvOrDefault("DB_USER", "postgres"),
		Password: getEnvOrDefault("DB_PASSWORD", "postgres"),
		PoolMin:  2,
		PoolMax:  5,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// setupTestDB opens a pooled connection for an integration test and closes
// it on cleanup.
func setupTestDB(t *testing.T) *database.Database {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	db, err := database.NewPostgresPool(ctx, getTestConfig())
	if err != nil {
		t.Fatalf("Failed to create database connection: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

// createTestZone inserts an active square zone covering roughly the Dakar
// peninsula and removes it on cleanup.
func createTestZone(t *testing.T, db *database.Database) *models.Zone {
	t.Helper()
	ctx := context.Background()
	repo := NewZoneRepository(db)

	zone := &models.Zone{
		Name:   fmt.Sprintf("zone-test-%d", time.Now().UnixNano()),
		Color:  models.DefaultZoneColor,
		Active: true,
		Geom: models.Polygon{
			Coordinates: [][][2]float64{{
				{-17.0, 14.6}, {-16.9, 14.6}, {-16.9, 14.7}, {-17.0, 14.7}, {-17.0, 14.6},
			}},
			SRID: models.DefaultSRID,
		},
	}
	if err := repo.Create(ctx, zone); err != nil {
		t.Fatalf("Failed to create test zone: %v", err)
	}
	t.Cleanup(func() {
		_, _ = db.Pool.Exec(ctx, `DELETE FROM zones WHERE id = $1`, zone.ID)
	})
	return zone
}

// createTestTaxpayer inserts a taxpayer with a unique reference and removes
// it (with dependent payments and location) on cleanup.
func createTestTaxpayer(t *testing.T, db *database.Database) *models.Taxpayer {
	t.Helper()
	ctx := context.Background()
	repo := NewTaxpayerRepository(db)

	due := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	tp := &models.Taxpayer{
		Reference: fmt.Sprintf("CONTRIB-TEST-%d", time.Now().UnixNano()),
		Kind:      models.KindIndividual,
		Name:      "Test Taxpayer",
		Address:   "12 Rue de Thiong, Dakar",
		Phone:     "+221770000000",
		DueDate:   &due,
		AmountDue: decimal.NewFromInt(100000),
		Active:    true,
	}
	if err := repo.Create(ctx, tp); err != nil {
		t.Fatalf("Failed to create test taxpayer: %v", err)
	}
	t.Cleanup(func() {
		_, _ = db.Pool.Exec(ctx, `DELETE FROM payments WHERE taxpayer_id = $1`, tp.ID)
		_, _ = db.Pool.Exec(ctx, `DELETE FROM taxpayer_locations WHERE taxpayer_id = $1`, tp.ID)
		_, _ = db.Pool.Exec(ctx, `DELETE FROM taxpayers WHERE id = $1`, tp.ID)
	})
	return tp
}
