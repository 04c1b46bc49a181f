package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/firewatch-co/maintenance-api/internal/models"
	"github.com/firewatch-co/maintenance-api/pkg/export"
	appErrors "github.com/firewatch-co/maintenance-api/pkg/errors"
)

// ExportFormat selects the rendered output.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type exportVisitReader interface {
	List(ctx context.Context, filter models.VisitFilter) ([]models.Visit, int, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	MaxRows int
}

// ExportResult carries a rendered schedule ready for download.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders visit schedules as CSV or PDF downloads.
type ExportService struct {
	visits exportVisitReader
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
	cfg    ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(visits exportVisitReader, csv csvRenderer, pdf pdfRenderer, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = 5000
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{visits: visits, csv: csv, pdf: pdf, cfg: cfg, logger: logger}
}

// Schedule renders the filtered visit list in the requested format.
func (s *ExportService) Schedule(ctx context.Context, filter models.VisitFilter, format ExportFormat) (*ExportResult, error) {
	filter.Page = 1
	filter.PageSize = s.cfg.MaxRows

	visits, total, err := s.visits.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load visits for export")
	}
	if total > s.cfg.MaxRows {
		s.logger.Warn("schedule export truncated",
			zap.Int("total", total),
			zap.Int("maxRows", s.cfg.MaxRows),
		)
	}

	dataset := scheduleDataset(visits)
	stamp := time.Now().UTC().Format("20060102-150405")

	switch format {
	case ExportFormatCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportResult{
			Filename:    fmt.Sprintf("visit-schedule-%s.csv", stamp),
			ContentType: "text/csv",
			Payload:     payload,
		}, nil
	case ExportFormatPDF:
		payload, err := s.pdf.Render(dataset, "Maintenance Visit Schedule")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportResult{
			Filename:    fmt.Sprintf("visit-schedule-%s.pdf", stamp),
			ContentType: "application/pdf",
			Payload:     payload,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

func scheduleDataset(visits []models.Visit) export.Dataset {
	rows := make([]map[string]string, 0, len(visits))
	for i := range visits {
		v := &visits[i]
		rows = append(rows, map[string]string{
			"Code":     v.Code,
			"Company":  v.CompanyID,
			"Branch":   v.BranchID,
			"Contract": v.ContractID,
			"Type":     string(v.Type),
			"Status":   string(v.Status),
			"Date":     v.DayKey(),
			"Services": serviceList(v.Services),
			"Notes":    v.Notes,
		})
	}
	return export.Dataset{
		Headers: []string{"Code", "Company", "Branch", "Contract", "Type", "Status", "Date", "Services", "Notes"},
		Rows:    rows,
	}
}

func serviceList(flags models.ServiceFlags) string {
	var names []string
	if flags.FireExtinguisher {
		names = append(names, "extinguisher")
	}
	if flags.Alarm {
		names = append(names, "alarm")
	}
	if flags.Suppression {
		names = append(names, "suppression")
	}
	if flags.Gas {
		names = append(names, "gas")
	}
	if flags.Foam {
		names = append(names, "foam")
	}
	return strings.Join(names, ",")
}
