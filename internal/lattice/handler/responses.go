package handler

import "pebble/internal/lattice/models"

type ListResponse struct {
	Records []models.VerificationRecord `json:"records"`
	Count   int                         `json:"count"`
}

// SyncResponse wraps the batch report. Warning is set when the batch was
// interrupted or a reporter failed after the records were persisted.
type SyncResponse struct {
	*models.BatchReport
	Warning string `json:"warning,omitempty"`
}
