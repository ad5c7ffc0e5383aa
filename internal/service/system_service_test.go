package service_test

import (
	"context"
	"testing"

	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/testutil"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/version"
)

func TestSystemService(t *testing.T) {
	t.Run("healthy database", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSystemService(t, db)

		if err := svc.CheckHealth(); err != nil {
			t.Errorf("CheckHealth() returned unexpected error: %v", err)
		}
	})

	t.Run("closed database is unhealthy", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSystemService(t, db)
		db.Close()

		if err := svc.CheckHealth(); err == nil {
			t.Error("Expected health check to fail on a closed database")
		}
	})

	t.Run("reports version and schema", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSystemService(t, db)

		info, err := svc.GetVersionInfo(context.Background())
		if err != nil {
			t.Fatalf("GetVersionInfo() returned unexpected error: %v", err)
		}

		if info.AppVersion != version.Version {
			t.Errorf("Expected app version %q, got %q", version.Version, info.AppVersion)
		}
		if info.DbVersion != "2" {
			t.Errorf("Expected schema version 2, got %q", info.DbVersion)
		}
		if info.MigrationNeeded || info.MigrationMessage != nil {
			t.Errorf("Expected migrated schema, got %+v", info)
		}
		if !info.Features["xlsx_export"] {
			t.Errorf("Expected xlsx_export feature, got %v", info.Features)
		}
	})
}
