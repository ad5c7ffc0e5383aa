package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fernet/fernet-go"
	"github.com/xuri/excelize/v2"

	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/apperrors"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/model"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/repository"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/source"
)

// RawDocumentSource returns an upstream document as stored. It is satisfied by *source.BoardAdapter.
type RawDocumentSource interface {
	Raw(ctx context.Context) ([]byte, string, error)
}

// Backup is a downloadable file.
type Backup struct {
	Filename    string
	ContentType string
	Data        []byte
}

// BackupService produces the admin downloads: the raw board document and an
// XLSX export of the stored histories.
type BackupService struct {
	raw         RawDocumentSource
	historyRepo *repository.HistoryRepository
	key         *fernet.Key
	location    *time.Location
	now         func() time.Time
}

// NewBackupService creates a BackupService. A non-empty backupKey must be a
// base64 Fernet key; downloads are then encrypted with it.
func NewBackupService(raw RawDocumentSource, historyRepo *repository.HistoryRepository, backupKey string, loc *time.Location) (*BackupService, error) {
	var key *fernet.Key
	if backupKey != "" {
		k, err := fernet.DecodeKey(backupKey)
		if err != nil {
			return nil, fmt.Errorf("invalid BACKUP_KEY: %w", err)
		}
		key = k
	}
	if loc == nil {
		loc = time.UTC
	}

	return &BackupService{
		raw:         raw,
		historyRepo: historyRepo,
		key:         key,
		location:    loc,
		now:         time.Now,
	}, nil
}

// Encrypted reports whether downloads are Fernet-encrypted.
func (s *BackupService) Encrypted() bool {
	return s.key != nil
}

// Download returns the raw board document as backup_YYYYMMDD.json, or as
// backup_YYYYMMDD.json.fernet when a backup key is configured.
func (s *BackupService) Download(ctx context.Context) (Backup, error) {
	data, _, err := s.raw.Raw(ctx)
	if err != nil {
		return Backup{}, fmt.Errorf("%w: %w", apperrors.ErrBackupUnavailable, err)
	}

	name := fmt.Sprintf("backup_%s.json", s.now().In(s.location).Format("20060102"))

	if s.key == nil {
		return Backup{Filename: name, ContentType: "application/json", Data: data}, nil
	}

	token, err := fernet.EncryptAndSign(data, s.key)
	if err != nil {
		return Backup{}, fmt.Errorf("failed to encrypt backup: %w", err)
	}
	return Backup{Filename: name + ".fernet", ContentType: "application/octet-stream", Data: token}, nil
}

var exportHeader = []any{"Category", "Product", "Observed At", "Price"}

// Export writes every stored history to an XLSX workbook with one sheet per source.
func (s *BackupService) Export(ctx context.Context) (Backup, error) {
	series, err := s.historyRepo.Series(ctx, "")
	if err != nil {
		return Backup{}, err
	}

	f := excelize.NewFile()
	defer f.Close()

	rows := make(map[string]int)
	first := true
	for _, sr := range series {
		sheet := sr.Key.Source
		if _, ok := rows[sheet]; !ok {
			if err := s.addSheet(f, sheet, first); err != nil {
				return Backup{}, err
			}
			first = false
			rows[sheet] = 1
		}

		for _, p := range sr.Points {
			rows[sheet]++
			if err := writeRow(f, sheet, rows[sheet], []any{
				sr.Key.Category,
				sr.Key.Product,
				p.Timestamp.In(s.location).Format(source.BoardTimeLayout),
				p.Price,
			}); err != nil {
				return Backup{}, err
			}
		}
	}
	if first {
		if err := s.addSheet(f, model.SourceBoard, true); err != nil {
			return Backup{}, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return Backup{}, fmt.Errorf("failed to write workbook: %w", err)
	}

	return Backup{
		Filename:    fmt.Sprintf("prices_%s.xlsx", s.now().In(s.location).Format("20060102")),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:        buf.Bytes(),
	}, nil
}

// addSheet creates sheet with the header row. The workbook's default sheet is
// renamed for the first one.
func (s *BackupService) addSheet(f *excelize.File, sheet string, first bool) error {
	if first {
		if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
			return fmt.Errorf("failed to name sheet %s: %w", sheet, err)
		}
	} else if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}
	return writeRow(f, sheet, 1, exportHeader)
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d of %s: %w", row, sheet, err)
	}
	return nil
}
