package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/internal/models"
	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/internal/repository"
)

// memStore is an in-memory database shared by the repository mocks. A single mutex
// stands in for the row and advisory locks taken by the SQL repositories.
type memStore struct {
	mu          sync.Mutex
	seq         int
	rooms       map[string]models.Room
	sessions    map[string]models.ClassSession
	enrollments map[string]models.Enrollment
	attendance  map[string]models.AttendanceRecord
	clientNames map[string]string
}

func newMemStore() *memStore {
	return &memStore{
		rooms:       map[string]models.Room{},
		sessions:    map[string]models.ClassSession{},
		enrollments: map[string]models.Enrollment{},
		attendance:  map[string]models.AttendanceRecord{},
		clientNames: map[string]string{},
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memStore) confirmed(sessionID string) int {
	count := 0
	for _, e := range m.enrollments {
		if e.SessionID == sessionID && e.Status == models.EnrollmentStatusConfirmed {
			count++
		}
	}
	return count
}

func (m *memStore) addRoom(room models.Room) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room.ID] = room
}

func (m *memStore) addSession(session models.ClassSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = session
}

func (m *memStore) addEnrollment(enrollment models.Enrollment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enrollments[enrollment.ID] = enrollment
}

func (m *memStore) confirmedCount(sessionID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.confirmed(sessionID)
}

type mockSessionRepo struct {
	store *memStore
}

func (r *mockSessionRepo) List(ctx context.Context, filter models.ClassSessionFilter) ([]models.ClassSession, int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var list []models.ClassSession
	for _, s := range r.store.sessions {
		if filter.RoomID != "" && s.RoomID != filter.RoomID {
			continue
		}
		s.ConfirmedCount = r.store.confirmed(s.ID)
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].StartTime < list[j].StartTime })
	return list, len(list), nil
}

func (r *mockSessionRepo) FindByID(ctx context.Context, id string) (*models.ClassSession, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	s, ok := r.store.sessions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	s.ConfirmedCount = r.store.confirmed(id)
	return &s, nil
}

func (r *mockSessionRepo) snapshot(session *models.ClassSession) (*models.ScheduleSnapshot, error) {
	room, ok := r.store.rooms[session.RoomID]
	if !ok {
		return nil, &models.NotFoundError{Entity: "room", ID: session.RoomID}
	}
	snapshot := &models.ScheduleSnapshot{Room: room}
	for _, s := range r.store.sessions {
		if !s.Status.IsActive() || !s.Date.Equal(session.Date) {
			continue
		}
		if s.RoomID == session.RoomID {
			snapshot.RoomSessions = append(snapshot.RoomSessions, s)
		}
		if s.InstructorID == session.InstructorID {
			snapshot.InstructorSessions = append(snapshot.InstructorSessions, s)
		}
	}
	return snapshot, nil
}

func (r *mockSessionRepo) Create(ctx context.Context, session *models.ClassSession, check repository.ScheduleCheck) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	snapshot, err := r.snapshot(session)
	if err != nil {
		return err
	}
	if err := check(*snapshot); err != nil {
		return err
	}
	session.ID = r.store.nextID("session")
	r.store.sessions[session.ID] = *session
	return nil
}

func (r *mockSessionRepo) Update(ctx context.Context, id string, mutate repository.SessionMutation, check repository.ScheduleCheck) (*models.ClassSession, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	current, ok := r.store.sessions[id]
	if !ok {
		return nil, &models.NotFoundError{Entity: "session", ID: id}
	}
	if err := mutate(&current); err != nil {
		return nil, err
	}
	current.ID = id
	snapshot, err := r.snapshot(&current)
	if err != nil {
		return nil, err
	}
	snapshot.ConfirmedCount = r.store.confirmed(id)
	if err := check(*snapshot); err != nil {
		return nil, err
	}
	current.ConfirmedCount = snapshot.ConfirmedCount
	r.store.sessions[id] = current
	return &current, nil
}

// cancellingSessionRepo commits a cancellation between the caller's read and
// its locked update.
type cancellingSessionRepo struct {
	*mockSessionRepo
}

func (r *cancellingSessionRepo) Update(ctx context.Context, id string, mutate repository.SessionMutation, check repository.ScheduleCheck) (*models.ClassSession, error) {
	if err := r.mockSessionRepo.UpdateStatus(ctx, id, models.SessionStatusCancelled); err != nil {
		return nil, err
	}
	return r.mockSessionRepo.Update(ctx, id, mutate, check)
}

func (r *mockSessionRepo) UpdateStatus(ctx context.Context, id string, status models.SessionStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	s := r.store.sessions[id]
	s.Status = status
	r.store.sessions[id] = s
	return nil
}

type mockEnrollmentRepo struct {
	store *memStore
	// admitDelay widens the window between the capacity read and the insert.
	admitDelay time.Duration
}

func (r *mockEnrollmentRepo) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var list []models.Enrollment
	for _, e := range r.store.enrollments {
		if filter.SessionID != "" && e.SessionID != filter.SessionID {
			continue
		}
		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}
		list = append(list, e)
	}
	return list, len(list), nil
}

func (r *mockEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	e, ok := r.store.enrollments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &e, nil
}

func (r *mockEnrollmentRepo) FindConfirmed(ctx context.Context, sessionID, clientID string) (*models.Enrollment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, e := range r.store.enrollments {
		if e.SessionID == sessionID && e.ClientID == clientID && e.Status == models.EnrollmentStatusConfirmed {
			return &e, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *mockEnrollmentRepo) Admit(ctx context.Context, sessionID, clientID string, check repository.AdmissionCheck) (*models.Enrollment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	session, ok := r.store.sessions[sessionID]
	if !ok {
		return nil, &models.NotFoundError{Entity: "session", ID: sessionID}
	}
	snapshot := models.AdmissionSnapshot{Session: session, ConfirmedCount: r.store.confirmed(sessionID)}
	snapshot.Session.ConfirmedCount = snapshot.ConfirmedCount
	for _, e := range r.store.enrollments {
		if e.SessionID == sessionID && e.ClientID == clientID && e.Status == models.EnrollmentStatusConfirmed {
			id := e.ID
			snapshot.ExistingEnrollID = &id
		}
	}
	if err := check(snapshot); err != nil {
		return nil, err
	}
	if r.admitDelay > 0 {
		time.Sleep(r.admitDelay)
	}
	enrollment := models.Enrollment{
		ID:        r.store.nextID("enrollment"),
		SessionID: sessionID,
		ClientID:  clientID,
		Status:    models.EnrollmentStatusConfirmed,
		CreatedAt: time.Now().UTC(),
	}
	r.store.enrollments[enrollment.ID] = enrollment
	return &enrollment, nil
}

func (r *mockEnrollmentRepo) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) (*models.Enrollment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	e, ok := r.store.enrollments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	e.Status = status
	r.store.enrollments[id] = e
	return &e, nil
}

type mockAttendanceRepo struct {
	store *memStore
}

func (r *mockAttendanceRepo) FindByID(ctx context.Context, id string) (*models.AttendanceRecord, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	record, ok := r.store.attendance[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &record, nil
}

func (r *mockAttendanceRepo) Insert(ctx context.Context, record *models.AttendanceRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.attendance {
		if existing.EnrollmentID == record.EnrollmentID && existing.SessionID == record.SessionID {
			return &models.DuplicateAttendanceError{EnrollmentID: record.EnrollmentID, SessionID: record.SessionID}
		}
	}
	record.ID = r.store.nextID("attendance")
	record.RecordedAt = time.Now().UTC()
	r.store.attendance[record.ID] = *record
	return nil
}

func (r *mockAttendanceRepo) Update(ctx context.Context, record *models.AttendanceRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.attendance[record.ID] = *record
	return nil
}

func (r *mockAttendanceRepo) ListRoster(ctx context.Context, sessionID string) ([]models.RosterRow, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var rows []models.RosterRow
	for _, e := range r.store.enrollments {
		if e.SessionID != sessionID || e.Status != models.EnrollmentStatusConfirmed {
			continue
		}
		row := models.RosterRow{EnrollmentID: e.ID, ClientID: e.ClientID, EnrolledAt: e.CreatedAt}
		if name, ok := r.store.clientNames[e.ClientID]; ok {
			n := name
			row.ClientName = &n
		}
		for _, a := range r.store.attendance {
			if a.EnrollmentID == e.ID && a.SessionID == sessionID {
				id, status := a.ID, a.Status
				row.AttendanceID = &id
				row.Status = &status
				row.ArrivalTime = a.ArrivalTime
				row.Notes = a.Notes
			}
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ClientID < rows[j].ClientID })
	return rows, nil
}

type mockReferences struct {
	missing map[string]bool
}

func (m *mockReferences) Exists(ctx context.Context, entity, id string) (bool, error) {
	return !m.missing[entity+":"+id], nil
}

type mockMembership struct {
	inactive map[string]bool
	asOf     []models.Date
	mu       sync.Mutex
}

func (m *mockMembership) MembershipActive(ctx context.Context, clientID string, asOf models.Date) (bool, error) {
	m.mu.Lock()
	m.asOf = append(m.asOf, asOf)
	m.mu.Unlock()
	return !m.inactive[clientID], nil
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []models.AuditEntry
}

func (r *recordingAudit) Record(ctx context.Context, entry models.AuditEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}

func (r *recordingAudit) actions(outcome string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var actions []string
	for _, e := range r.entries {
		if e.Outcome == outcome {
			actions = append(actions, e.Action)
		}
	}
	return actions
}

type recordingInvalidator struct {
	mu       sync.Mutex
	sessions []string
	clients  []string
}

func (r *recordingInvalidator) InvalidateSession(ctx context.Context, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, sessionID)
}

func (r *recordingInvalidator) InvalidateClient(ctx context.Context, clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients = append(r.clients, clientID)
}

func fixedClock(year int, month time.Month, day, hour, minute int) Clock {
	at := time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
	return NewClockFunc(func() time.Time { return at }, time.UTC)
}

func testDate() models.Date {
	return models.NewDate(2025, time.March, 10)
}

func seededSession(id string, start, end models.TimeOfDay, capacity int) models.ClassSession {
	return models.ClassSession{
		ID:           id,
		DisciplineID: "yoga",
		InstructorID: "inst-1",
		RoomID:       "room-a",
		Date:         testDate(),
		StartTime:    start,
		EndTime:      end,
		MaxCapacity:  capacity,
		Status:       models.SessionStatusScheduled,
	}
}
