package handlers

import (
	"errors"
	"net/http"

	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/api/request"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/api/response"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/apperrors"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/model"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/service"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/validation"
)

// AdminHandler handles the administrative endpoints: board updates and downloads.
type AdminHandler struct {
	ingestService *service.IngestService
	backupService *service.BackupService
}

// NewAdminHandler creates a new AdminHandler with the provided service dependencies.
func NewAdminHandler(ingestService *service.IngestService, backupService *service.BackupService) *AdminHandler {
	return &AdminHandler{
		ingestService: ingestService,
		backupService: backupService,
	}
}

// Update handles POST requests carrying pasted community price text. The text is
// forwarded to the ingestion pipeline; on success the prices are refreshed.
// A pipeline that rejects the text answers 200 with status "error".
//
// Endpoint: POST /api/admin/update
// Request Body: UpdateRequest (date, time, text)
// Response: 200 OK with model.IngestResult
// Error: 400 Bad Request if validation fails or request body is invalid
// Error: 502 Bad Gateway if the pipeline cannot be reached
// Error: 503 Service Unavailable if no pipeline is configured
func (h *AdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.UpdateRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateUpdateRequest(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	result, err := h.ingestService.Update(r.Context(), model.IngestRequest{
		Date:    req.Date,
		Time:    req.Time,
		RawText: req.Text,
	})
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrIngestNotConfigured):
			response.RespondError(w, http.StatusServiceUnavailable, apperrors.ErrIngestNotConfigured.Error(), "")
		case errors.Is(err, apperrors.ErrMissingRequiredField):
			response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		default:
			response.RespondError(w, http.StatusBadGateway, apperrors.ErrIngestFailed.Error(), err.Error())
		}
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// Download handles GET requests for the raw board document backup.
//
// Endpoint: GET /api/admin/download
// Response: 200 OK with backup_YYYYMMDD.json (or .json.fernet when encrypted)
// Error: 404 Not Found if the board document cannot be read
// Error: 500 Internal Server Error if encryption fails
func (h *AdminHandler) Download(w http.ResponseWriter, r *http.Request) {
	backup, err := h.backupService.Download(r.Context())
	if err != nil {
		if errors.Is(err, apperrors.ErrBackupUnavailable) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrBackupUnavailable.Error(), err.Error())
			return
		}
		response.RespondError(w, http.StatusInternalServerError, "failed to create backup", err.Error())
		return
	}

	response.RespondFile(w, backup.Filename, backup.ContentType, backup.Data)
}

// Export handles GET requests for an XLSX workbook of every stored history.
//
// Endpoint: GET /api/admin/export
// Response: 200 OK with prices_YYYYMMDD.xlsx
// Error: 500 Internal Server Error if the export fails
func (h *AdminHandler) Export(w http.ResponseWriter, r *http.Request) {
	backup, err := h.backupService.Export(r.Context())
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToExport.Error(), err.Error())
		return
	}

	response.RespondFile(w, backup.Filename, backup.ContentType, backup.Data)
}
