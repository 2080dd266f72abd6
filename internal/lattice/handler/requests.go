package handler

import (
	"pebble/internal/lattice/models"
	dErrors "pebble/pkg/domain-errors"
)

// MaxSyncEntities bounds a single sync request.
const MaxSyncEntities = 10_000

type VerifyRequest struct {
	Name string `json:"name"`
	ID   *int64 `json:"id"`
}

// Validate checks presence only. Entity rules live in models.Entity.
func (r *VerifyRequest) Validate() error {
	if r.ID == nil {
		return dErrors.New(dErrors.CodeBadRequest, "id is required")
	}
	return nil
}

// Entity passes the name through byte for byte so verify and sync derive
// the same identifiers.
func (r *VerifyRequest) Entity() models.Entity {
	var id int64
	if r.ID != nil {
		id = *r.ID
	}
	return models.Entity{Name: r.Name, NumericID: id}
}

// SyncRequest carries a batch. Malformed entities are not rejected here;
// the aggregator skips them and lists them in the report.
type SyncRequest struct {
	Entities []models.Entity `json:"entities"`
}

func (r *SyncRequest) Validate() error {
	if len(r.Entities) == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "entities must not be empty")
	}
	if len(r.Entities) > MaxSyncEntities {
		return dErrors.Newf(dErrors.CodeBadRequest, "at most %d entities per sync", MaxSyncEntities)
	}
	return nil
}
