package repository

import (
	"context"
	"testing"

	"github.com/mbodj/retam/internal/models"
	"github.com/paulmach/orb"
)

func TestLocationSave_InsertThenUpdate(t *testing.T) {
	db := setupTestDB(t)
	tp := createTestTaxpayer(t, db)
	zone := createTestZone(t, db)
	repo := NewLocationRepository(db)

	ctx := context.Background()
	pt := models.PointFromOrb(orb.Point{-16.95, 14.65})
	addr := "Marché Sandaga"
	loc := &models.TaxpayerLocation{
		TaxpayerID: tp.ID,
		ZoneID:     &zone.ID,
		Geom:       &pt,
		Address:    &addr,
		Precision:  models.PrecisionExact,
		Source:     models.SourceGPS,
	}

	if err := repo.Save(ctx, loc); err != nil {
		t.Fatalf("Save (insert) failed: %v", err)
	}
	if loc.ID == 0 {
		t.Fatal("Expected generated location ID")
	}
	firstID := loc.ID

	// Saving again for the same taxpayer must update the single row,
	// not create a second one.
	moved := models.PointFromOrb(orb.Point{-16.92, 14.68})
	loc.Geom = &moved
	loc.Precision = models.PrecisionApproximate
	loc.Verified = true
	if err := repo.Save(ctx, loc); err != nil {
		t.Fatalf("Save (update) failed: %v", err)
	}
	if loc.ID != firstID {
		t.Errorf("Upsert created a new row: ID %d became %d", firstID, loc.ID)
	}

	var count int
	if err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM taxpayer_locations WHERE taxpayer_id = $1`, tp.ID,
	).Scan(&count); err != nil {
		t.Fatalf("Count query failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected exactly one location row, got %d", count)
	}

	got, err := repo.GetByTaxpayer(ctx, tp.ID)
	if err != nil {
		t.Fatalf("GetByTaxpayer failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected the saved location back")
	}
	if got.Geom == nil {
		t.Fatal("Expected geometry to round-trip")
	}
	if got.Geom.Lat() != 14.68 || got.Geom.Lon() != -16.92 {
		t.Errorf("Expected updated point (14.68, -16.92), got (%f, %f)", got.Geom.Lat(), got.Geom.Lon())
	}
	if got.Precision != models.PrecisionApproximate {
		t.Errorf("Expected updated precision, got %q", got.Precision)
	}
	if !got.Verified {
		t.Error("Expected verified flag to persist")
	}
	if got.ZoneName == nil || *got.ZoneName != zone.Name {
		t.Errorf("Expected joined zone name %q, got %v", zone.Name, got.ZoneName)
	}
}

func TestLocationSave_WithoutGeometry(t *testing.T) {
	db := setupTestDB(t)
	tp := createTestTaxpayer(t, db)
	zone := createTestZone(t, db)
	repo := NewLocationRepository(db)

	ctx := context.Background()
	loc := &models.TaxpayerLocation{
		TaxpayerID: tp.ID,
		ZoneID:     &zone.ID,
		Precision:  models.PrecisionZone,
		Source:     models.SourceManual,
	}

	if err := repo.Save(ctx, loc); err != nil {
		t.Fatalf("Save without geometry failed: %v", err)
	}

	got, err := repo.GetByTaxpayer(ctx, tp.ID)
	if err != nil {
		t.Fatalf("GetByTaxpayer failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected the saved location back")
	}
	if got.Geom != nil {
		t.Errorf("Expected nil geometry, got (%f, %f)", got.Geom.Lat(), got.Geom.Lon())
	}
	if got.ZoneID == nil || *got.ZoneID != zone.ID {
		t.Errorf("Expected zone %d to persist on a zone-only location, got %v", zone.ID, got.ZoneID)
	}
}

func TestGetByTaxpayer_NoLocation(t *testing.T) {
	db := setupTestDB(t)
	tp := createTestTaxpayer(t, db)
	repo := NewLocationRepository(db)

	got, err := repo.GetByTaxpayer(context.Background(), tp.ID)
	if err != nil {
		t.Fatalf("GetByTaxpayer should not error when no location exists: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil for taxpayer without location, got ID %d", got.ID)
	}
}

func TestCandidatesInBBox_ExcludesOutsiders(t *testing.T) {
	db := setupTestDB(t)
	tp := createTestTaxpayer(t, db)
	repo := NewLocationRepository(db)

	ctx := context.Background()
	pt := models.PointFromOrb(orb.Point{-16.95, 14.65})
	loc := &models.TaxpayerLocation{
		TaxpayerID: tp.ID,
		Geom:       &pt,
		Precision:  models.PrecisionExact,
		Source:     models.SourceGPS,
	}
	if err := repo.Save(ctx, loc); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	inside, err := repo.CandidatesInBBox(ctx, BoundingBox{
		MinLat: 14.6, MaxLat: 14.7, MinLon: -17.0, MaxLon: -16.9,
	})
	if err != nil {
		t.Fatalf("CandidatesInBBox failed: %v", err)
	}
	foundInside := false
	for _, c := range inside {
		if c.TaxpayerID == tp.ID {
			foundInside = true
		}
	}
	if !foundInside {
		t.Error("Expected the saved location inside the covering box")
	}

	outside, err := repo.CandidatesInBBox(ctx, BoundingBox{
		MinLat: 40.0, MaxLat: 41.0, MinLon: 2.0, MaxLon: 3.0,
	})
	if err != nil {
		t.Fatalf("CandidatesInBBox failed: %v", err)
	}
	for _, c := range outside {
		if c.TaxpayerID == tp.ID {
			t.Error("Saved location leaked into a disjoint bounding box")
		}
	}
}
