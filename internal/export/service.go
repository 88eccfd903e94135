package export

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/nimbus-console/nimbus-console/internal/activity"
	"github.com/nimbus-console/nimbus-console/internal/profile"
	"github.com/nimbus-console/nimbus-console/internal/shared"
)

// HistoryReader supplies the newest-first activity history.
type HistoryReader interface {
	History(ctx context.Context, userID int64) ([]activity.Entry, error)
}

// Document is a rendered export ready for download.
type Document struct {
	Filename string
	Content  []byte
}

// Service orchestrates the data export flow.
type Service struct {
	logger   *slog.Logger
	profiles profile.Repository
	history  HistoryReader
	recorder activity.Recorder
	builds   singleflight.Group
}

// NewService builds Service instance.
func NewService(logger *slog.Logger, profiles profile.Repository, history HistoryReader, recorder activity.Recorder) *Service {
	return &Service{logger: logger, profiles: profiles, history: history, recorder: recorder}
}

// Export fetches the profile and full history and renders the report.
// export_initiated is logged before the fetch, export_completed once the
// document is ready, export_failed with the original error on any failure.
func (s *Service) Export(ctx context.Context, sess *shared.Session) (*Document, error) {
	activity.BestEffort(ctx, s.logger, s.recorder, activity.Entry{
		UserID:      sess.UserID,
		Type:        activity.TypeExportInitiated,
		Description: "Data export initiated",
		Meta:        map[string]any{"actor_id": sess.UserID, "actor_email": sess.Email},
	})

	doc, err := s.buildShared(ctx, sess)
	if err != nil {
		activity.BestEffort(ctx, s.logger, s.recorder, activity.Entry{
			UserID:      sess.UserID,
			Type:        activity.TypeExportFailed,
			Description: "Data export failed",
			Meta: map[string]any{
				"actor_id":    sess.UserID,
				"actor_email": sess.Email,
				"error":       err.Error(),
			},
		})
		return nil, err
	}

	activity.BestEffort(ctx, s.logger, s.recorder, activity.Entry{
		UserID:      sess.UserID,
		Type:        activity.TypeExportCompleted,
		Description: "Data export completed",
		Meta: map[string]any{
			"actor_id":    sess.UserID,
			"actor_email": sess.Email,
			"filename":    doc.Filename,
			"bytes":       len(doc.Content),
		},
	})
	return doc, nil
}

// buildShared collapses concurrent exports for the same user into one
// build. Repeated download clicks should not fan out duplicate queries.
func (s *Service) buildShared(ctx context.Context, sess *shared.Session) (*Document, error) {
	resultChan := s.builds.DoChan(strconv.FormatInt(sess.UserID, 10), func() (any, error) {
		return s.build(context.WithoutCancel(ctx), sess)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Document), nil
	}
}

func (s *Service) build(ctx context.Context, sess *shared.Session) (*Document, error) {
	p, err := s.profiles.Get(ctx, sess.UserID)
	if err != nil {
		if shared.CodeOf(err) == shared.CodeNotFound {
			return nil, shared.E(shared.CodeNotFound, "profile not found")
		}
		return nil, shared.Wrap(shared.CodeInternal, "load profile failed", err)
	}
	entries, err := s.history.History(ctx, sess.UserID)
	if err != nil {
		return nil, shared.Wrap(shared.CodeInternal, "load activity history failed", err)
	}
	now := time.Now()
	return &Document{
		Filename: Filename(now),
		Content:  []byte(Render(p, entries, now)),
	}, nil
}
