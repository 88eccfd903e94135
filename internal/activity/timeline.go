package activity

import (
	"context"
	"fmt"
)

// TimelineRepository provides the queries the timeline needs.
type TimelineRepository interface {
	Window(ctx context.Context, userID int64, filters TimelineFilters, offset, limit int) ([]Entry, error)
	ListByUser(ctx context.Context, userID int64) ([]Entry, error)
}

// Service coordinates activity timeline reads.
type Service struct {
	repo TimelineRepository
}

// NewService constructs a timeline service.
func NewService(repo TimelineRepository) *Service {
	return &Service{repo: repo}
}

// Timeline fetches one page of the user's history. The repo is asked for one
// extra row to detect whether a next page exists.
func (s *Service) Timeline(ctx context.Context, userID int64, filters TimelineFilters) (Result, error) {
	if s.repo == nil {
		return Result{}, fmt.Errorf("activity: repository not configured")
	}
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 50 {
		pageSize = 50
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize

	rows, err := s.repo.Window(ctx, userID, filters, offset, pageSize+1)
	if err != nil {
		return Result{}, err
	}
	hasNext := len(rows) > pageSize
	if hasNext {
		rows = rows[:pageSize]
	}
	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return Result{Rows: rows, Paging: paging}, nil
}

// History returns the user's full history, newest first.
func (s *Service) History(ctx context.Context, userID int64) ([]Entry, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("activity: repository not configured")
	}
	return s.repo.ListByUser(ctx, userID)
}
