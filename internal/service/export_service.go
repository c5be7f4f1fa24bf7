package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/internal/dto"
	appErrors "github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/pkg/errors"
	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/pkg/export"
)

type rosterProvider interface {
	SessionRoster(ctx context.Context, sessionID string) (*dto.SessionRoster, error)
}

// ExportFile is a rendered document ready to be streamed.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ExportService renders attendance sheets.
type ExportService struct {
	roster    rosterProvider
	renderers map[string]export.Renderer
	logger    *zap.Logger
}

// NewExportService wires the CSV, PDF and XLSX renderers.
func NewExportService(roster rosterProvider, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		roster: roster,
		renderers: map[string]export.Renderer{
			"csv":  export.NewCSVExporter(),
			"pdf":  export.NewPDFExporter(),
			"xlsx": export.NewXLSXExporter(),
		},
		logger: logger,
	}
}

var rosterHeaders = []string{"Client", "Client ID", "State", "Status", "Arrival", "Minutes late", "Notes"}

// ExportRoster renders the roster of a session in the requested format.
func (s *ExportService) ExportRoster(ctx context.Context, sessionID, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be one of csv, pdf, xlsx")
	}

	roster, err := s.roster.SessionRoster(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	session := roster.Session
	dataset := export.Dataset{
		Title: fmt.Sprintf("Attendance sheet %s", session.Date),
		Summary: []string{
			fmt.Sprintf("Session: %s", session.ID),
			fmt.Sprintf("Time: %s - %s", session.StartTime, session.EndTime),
			fmt.Sprintf("Enrolled: %d  Recorded: %d  Pending: %d", len(roster.Entries), roster.Recorded, roster.Pending),
		},
		Headers: rosterHeaders,
	}
	for _, entry := range roster.Entries {
		row := map[string]string{
			"Client":       entry.ClientName,
			"Client ID":    entry.ClientID,
			"State":        entry.State,
			"Minutes late": "",
		}
		if entry.Status != nil {
			row["Status"] = string(*entry.Status)
		}
		if entry.ArrivalTime != nil {
			row["Arrival"] = entry.ArrivalTime.String()
		}
		if entry.IsLate {
			row["Minutes late"] = fmt.Sprintf("%d", entry.MinutesLate)
		}
		if entry.Notes != nil {
			row["Notes"] = *entry.Notes
		}
		dataset.Rows = append(dataset.Rows, row)
	}

	content, err := renderer.Render(dataset)
	if err != nil {
		s.logger.Error("failed to render roster", zap.String("session_id", sessionID), zap.String("format", format), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("roster-%s-%s.%s", session.Date, session.ID, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Content:     content,
	}, nil
}
