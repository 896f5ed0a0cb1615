package service

import (
	"time"

	"fxresolver/internal/repository"
)

// RefreshResult is a refresh request as returned by the service layer.
// Fields are populated according to the status:
//   - SUCCESS: Rate, Source and UpdatedAt are set, ErrorMsg is nil.
//   - FAILED:  ErrorMsg is set, Rate and Source are nil.
//   - PENDING/RUNNING: Rate, Source, ErrorMsg and UpdatedAt are nil.
type RefreshResult struct {
	ID        string
	Base      string
	Target    string
	Status    string
	Rate      *string
	Source    *string
	ErrorMsg  *string
	UpdatedAt *string
}

func refreshResultFromRepo(q *repository.Refresh) *RefreshResult {
	r := &RefreshResult{
		ID:     q.ID,
		Base:   q.Base,
		Target: q.Target,
		Status: string(q.Status),
	}

	switch q.Status {
	case repository.StatusSuccess:
		r.Rate = q.Rate
		r.Source = q.Source
		if q.UpdatedAt != nil {
			ts := q.UpdatedAt.UTC().Format(time.RFC3339)
			r.UpdatedAt = &ts
		}
	case repository.StatusFailed:
		r.ErrorMsg = q.ErrorMsg
	}

	return r
}
