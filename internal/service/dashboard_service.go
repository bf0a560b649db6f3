package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jeromwolf/LearnFlow/internal/models"
	appErrors "github.com/jeromwolf/LearnFlow/pkg/errors"
	"github.com/jeromwolf/LearnFlow/pkg/export"
)

type dashboardRepository interface {
	Summary(ctx context.Context, instructorID string) (*models.DashboardSummary, error)
	ExportRows(ctx context.Context, instructorID string, limit int) ([]models.EnrollmentExportRow, error)
}

// DashboardService serves instructor-facing aggregates and enrollment
// exports in CSV and PDF form.
type DashboardService struct {
	repo       dashboardRepository
	cache      *CacheService
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	logger     *zap.Logger
	summaryTTL time.Duration
	maxRows    int
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(repo dashboardRepository, cache *CacheService, logger *zap.Logger, summaryTTL time.Duration, maxRows int) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRows <= 0 {
		maxRows = 10000
	}
	return &DashboardService{
		repo:       repo,
		cache:      cache,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		logger:     logger,
		summaryTTL: summaryTTL,
		maxRows:    maxRows,
	}
}

// Summary returns the instructor's aggregate figures, cached briefly.
func (s *DashboardService) Summary(ctx context.Context, instructorID string) (*models.DashboardSummary, error) {
	key := fmt.Sprintf("dashboard:summary:%s", instructorID)
	var cached models.DashboardSummary
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	summary, err := s.repo.Summary(ctx, instructorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build summary")
	}
	summary.GeneratedAt = time.Now().UTC()

	if err := s.cache.Set(ctx, key, summary, s.summaryTTL); err != nil {
		s.logger.Warn("failed to cache dashboard summary", zap.Error(err))
	}
	return summary, nil
}

// ExportEnrollments renders the instructor's enrollment list in the
// requested format. Supported formats: csv, pdf.
func (s *DashboardService) ExportEnrollments(ctx context.Context, instructorID, format string) ([]byte, string, error) {
	rows, err := s.repo.ExportRows(ctx, instructorID, s.maxRows)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export rows")
	}

	dataset := export.Dataset{
		Headers: []string{"Course", "Student", "Email", "Enrolled At", "Completed At"},
	}
	for _, row := range rows {
		completed := ""
		if row.CompletedAt != nil {
			completed = row.CompletedAt.Format("2006-01-02")
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Course":       row.CourseTitle,
			"Student":      row.UserName,
			"Email":        row.UserEmail,
			"Enrolled At":  row.EnrolledAt.Format("2006-01-02"),
			"Completed At": completed,
		})
	}

	switch format {
	case "csv", "":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "text/csv", nil
	case "pdf":
		payload, err := s.pdf.Render(dataset, "Enrollments")
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported export format: "+format)
	}
}
