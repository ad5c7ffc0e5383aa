package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/database"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/model"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/version"
)

// SystemService handles system-related operations
type SystemService struct {
	db       *sql.DB
	features map[string]bool
}

// NewSystemService creates a new SystemService. features lists the optional
// capabilities reported by the version endpoint.
func NewSystemService(db *sql.DB, features map[string]bool) *SystemService {
	if features == nil {
		features = map[string]bool{}
	}
	return &SystemService{
		db:       db,
		features: features,
	}
}

// CheckHealth checks the health of the system
func (s *SystemService) CheckHealth() error {
	return database.HealthCheck(s.db)
}

// GetVersionInfo returns the application version, schema version and enabled features.
func (s *SystemService) GetVersionInfo(ctx context.Context) (model.VersionInfo, error) {
	status, err := database.Status(ctx, s.db)
	if err != nil {
		return model.VersionInfo{}, err
	}

	info := model.VersionInfo{
		AppVersion:      version.Version,
		DbVersion:       fmt.Sprintf("%d", status.Current),
		Features:        s.features,
		MigrationNeeded: status.Pending(),
	}
	if info.MigrationNeeded {
		msg := fmt.Sprintf("database schema is at version %d, latest is %d", status.Current, status.Latest)
		info.MigrationMessage = &msg
	}

	return info, nil
}
