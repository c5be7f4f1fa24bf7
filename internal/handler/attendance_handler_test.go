package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/internal/dto"
	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/internal/models"
	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/internal/service"
	appErrors "github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/pkg/errors"
)

type mockAttendanceService struct {
	recordErr   error
	lastRecord  service.RecordAttendanceRequest
	bulkResult  *dto.BulkAttendanceResult
	lastSession string
	lastBulk    service.BulkAttendanceRequest
}

func (m *mockAttendanceService) RecordAttendance(_ context.Context, req service.RecordAttendanceRequest, actorID string) (*models.AttendanceRecord, error) {
	m.lastRecord = req
	if m.recordErr != nil {
		return nil, m.recordErr
	}
	return &models.AttendanceRecord{ID: "att-1", EnrollmentID: req.EnrollmentID, RecordedBy: actorID}, nil
}

func (m *mockAttendanceService) UpdateAttendance(_ context.Context, id string, _ service.UpdateAttendanceRequest, _ string) (*models.AttendanceRecord, error) {
	return &models.AttendanceRecord{ID: id}, nil
}

func (m *mockAttendanceService) RecordAttendanceBulk(_ context.Context, sessionID string, req service.BulkAttendanceRequest, _ string) (*dto.BulkAttendanceResult, error) {
	m.lastSession = sessionID
	m.lastBulk = req
	return m.bulkResult, nil
}

func (m *mockAttendanceService) SessionRoster(_ context.Context, sessionID string) (*dto.SessionRoster, error) {
	return &dto.SessionRoster{Pending: 1}, nil
}

type mockRosterExporter struct {
	format string
}

func (m *mockRosterExporter) ExportRoster(_ context.Context, sessionID, format string) (*service.ExportFile, error) {
	m.format = format
	if format == "doc" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be one of csv, pdf, xlsx")
	}
	return &service.ExportFile{
		Filename:    "roster-2025-03-10-" + sessionID + ".csv",
		ContentType: "text/csv",
		Content:     []byte("Client,Client ID\n"),
	}, nil
}

func TestAttendanceHandlerRecordDuplicate(t *testing.T) {
	dup := &models.DuplicateAttendanceError{EnrollmentID: "enr-1", SessionID: "s-1"}
	svc := &mockAttendanceService{recordErr: appErrors.WithDetails(appErrors.ErrDuplicateAttendance, dup, dup.Error(), dup)}
	h := NewAttendanceHandler(svc, nil)

	c, rec := newTestContext(http.MethodPost, "/attendance", map[string]string{"enrollment_id": "enr-1", "status": "present"})
	h.Record(c)

	requireStatus(t, rec, http.StatusConflict)
	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "DUPLICATE_ATTENDANCE", envelope.Error.Code)
	assert.Equal(t, "present", svc.lastRecord.Status)
}

func TestAttendanceHandlerRecordUsesActor(t *testing.T) {
	h := NewAttendanceHandler(&mockAttendanceService{}, nil)

	c, rec := newTestContext(http.MethodPost, "/attendance", map[string]string{"enrollment_id": "enr-1", "status": "absent"})
	withActor(c, "coach-1", models.RoleInstructor)
	h.Record(c)

	requireStatus(t, rec, http.StatusCreated)
	assert.Contains(t, string(decodeEnvelope(t, rec).Data), `"coach-1"`)
}

func TestAttendanceHandlerBulkReportsErrorCount(t *testing.T) {
	svc := &mockAttendanceService{bulkResult: &dto.BulkAttendanceResult{
		CreatedCount: 2,
		Errors:       []dto.BulkAttendanceError{{Index: 1, Ref: "enr-2", Code: "DUPLICATE_ATTENDANCE"}},
	}}
	h := NewAttendanceHandler(svc, nil)

	c, rec := newTestContext(http.MethodPost, "/sessions/s-1/attendance/bulk", map[string]interface{}{
		"items": []map[string]string{
			{"enrollment_id": "enr-1", "status": "present"},
			{"enrollment_id": "enr-2", "status": "present"},
			{"client_id": "client-3", "status": "absent"},
		},
	})
	c.Params = gin.Params{{Key: "id", Value: "s-1"}}
	h.Bulk(c)

	requireStatus(t, rec, http.StatusOK)
	assert.Equal(t, "s-1", svc.lastSession)
	require.Len(t, svc.lastBulk.Items, 3)
	assert.Equal(t, "client-3", svc.lastBulk.Items[2].Ref())
	envelope := decodeEnvelope(t, rec)
	assert.EqualValues(t, 1, envelope.Meta["error_count"])
}

func TestAttendanceHandlerExport(t *testing.T) {
	exporter := &mockRosterExporter{}
	h := NewAttendanceHandler(&mockAttendanceService{}, exporter)

	c, rec := newTestContext(http.MethodGet, "/sessions/s-1/roster/export", nil)
	c.Params = gin.Params{{Key: "id", Value: "s-1"}}
	h.Export(c)

	requireStatus(t, rec, http.StatusOK)
	assert.Equal(t, "csv", exporter.format)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "roster-2025-03-10-s-1.csv")
	assert.Equal(t, "Client,Client ID\n", rec.Body.String())
}

func TestAttendanceHandlerExportUnknownFormat(t *testing.T) {
	h := NewAttendanceHandler(&mockAttendanceService{}, &mockRosterExporter{})

	c, rec := newTestContext(http.MethodGet, "/sessions/s-1/roster/export?format=DOC", nil)
	c.Params = gin.Params{{Key: "id", Value: "s-1"}}
	h.Export(c)

	requireStatus(t, rec, http.StatusBadRequest)
}
