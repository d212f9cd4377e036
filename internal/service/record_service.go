package service

import (
	"context"
	"strings"

	"community-portal/internal/domain"
	"community-portal/internal/telemetry"
)

// RecordService searches the member's lending, healthcare and mortuary records
type RecordService interface {
	// Search looks records up by the visitor's name and email. Blank query
	// fields are filled from the verified visitor.
	Search(ctx context.Context, memberID string, kind domain.RecordKind, query domain.RecordQuery, visitor *domain.VisitorInfo) ([]domain.Record, error)
}

type recordService struct {
	api     MemberAPI
	metrics *telemetry.Metrics
}

// NewRecordService creates a new instance of RecordService
func NewRecordService(api MemberAPI, metrics *telemetry.Metrics) RecordService {
	return &recordService{api: api, metrics: metrics}
}

func (s *recordService) Search(ctx context.Context, memberID string, kind domain.RecordKind, query domain.RecordQuery, visitor *domain.VisitorInfo) ([]domain.Record, error) {
	if !kind.Valid() {
		return nil, ErrUnknownRecordKind
	}

	query.Name = strings.TrimSpace(query.Name)
	query.Email = strings.TrimSpace(query.Email)
	query.Query = strings.TrimSpace(query.Query)
	if visitor != nil {
		if query.Name == "" {
			query.Name = visitor.Name
		}
		if query.Email == "" {
			query.Email = visitor.Email
		}
	}

	records, err := s.api.SearchRecords(ctx, memberID, kind, query)
	s.metrics.UpstreamCalled(ctx, "search_"+string(kind), err)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []domain.Record{}
	}
	return records, nil
}
