package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"attendance-bot/internal/models"
	"attendance-bot/internal/repository"
)

var errStorage = errors.New("database is locked")

// ── Mock UserRepository ──

type mockUserRepo struct {
	users  map[uint]*models.User
	nextID uint
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uint]*models.User)}
}

func (m *mockUserRepo) add(chatID int64, role models.Role) *models.User {
	m.nextID++
	u := &models.User{ID: m.nextID, ChatID: chatID, FirstName: "user", Role: role}
	m.users[u.ID] = u
	return u
}

func (m *mockUserRepo) Create(_ context.Context, user *models.User) error {
	for _, u := range m.users {
		if u.ChatID == user.ChatID {
			return repository.ErrUserExists
		}
	}
	m.nextID++
	user.ID = m.nextID
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uint) (*models.User, error) {
	return m.users[id], nil
}

func (m *mockUserRepo) GetByChatID(_ context.Context, chatID int64) (*models.User, error) {
	for _, u := range m.users {
		if u.ChatID == chatID {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) Update(_ context.Context, user *models.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) UpdateRole(_ context.Context, chatID int64, role models.Role) error {
	for _, u := range m.users {
		if u.ChatID == chatID {
			u.Role = role
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *mockUserRepo) GetAdmins(_ context.Context) ([]*models.User, error) {
	var admins []*models.User
	for _, u := range m.users {
		if u.IsAdmin() {
			admins = append(admins, u)
		}
	}
	return admins, nil
}

func (m *mockUserRepo) GetAll(_ context.Context) ([]*models.User, error) {
	var all []*models.User
	for _, u := range m.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

func (m *mockUserRepo) GetStats(_ context.Context) (int, int, error) {
	admins, _ := m.GetAdmins(context.Background())
	return len(m.users), len(admins), nil
}

// ── Mock AttendanceRepository ──

type mockAttendanceRepo struct {
	records  map[uint]*models.Attendance
	nextID   uint
	nextRest uint
	err      error
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{records: make(map[uint]*models.Attendance), nextRest: 100}
}

func (m *mockAttendanceRepo) Create(_ context.Context, a *models.Attendance) error {
	if m.err != nil {
		return m.err
	}
	a.Date = models.DateOf(a.Date)
	for _, r := range m.records {
		if r.UserID == a.UserID && r.Date.Equal(a.Date) {
			return repository.ErrAttendanceExists
		}
	}
	m.nextID++
	a.ID = m.nextID
	a.UpdatedAt = time.Now()
	for i := range a.Rests {
		m.nextRest++
		a.Rests[i].ID = m.nextRest
		a.Rests[i].AttendanceID = a.ID
	}
	m.records[a.ID] = cloneAttendance(a)
	return nil
}

func (m *mockAttendanceRepo) GetByID(_ context.Context, id uint) (*models.Attendance, error) {
	if m.err != nil {
		return nil, m.err
	}
	if a, ok := m.records[id]; ok {
		return cloneAttendance(a), nil
	}
	return nil, nil
}

func (m *mockAttendanceRepo) GetByUserAndDate(_ context.Context, userID uint, date time.Time) (*models.Attendance, error) {
	day := models.DateOf(date)
	for _, a := range m.records {
		if a.UserID == userID && a.Date.Equal(day) {
			return cloneAttendance(a), nil
		}
	}
	return nil, nil
}

func (m *mockAttendanceRepo) GetOpenByUserID(_ context.Context, userID uint) (*models.Attendance, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, a := range m.records {
		if a.UserID == userID && a.ClockOut == nil {
			return cloneAttendance(a), nil
		}
	}
	return nil, nil
}

func (m *mockAttendanceRepo) GetByUserID(_ context.Context, userID uint, limit int) ([]*models.Attendance, error) {
	var list []*models.Attendance
	for _, a := range m.records {
		if a.UserID == userID {
			list = append(list, cloneAttendance(a))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Date.After(list[j].Date) })
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (m *mockAttendanceRepo) GetByUserIDAndMonth(_ context.Context, userID uint, year, month int) ([]*models.Attendance, error) {
	var list []*models.Attendance
	for _, a := range m.records {
		if a.UserID == userID && a.Date.Year() == year && int(a.Date.Month()) == month {
			list = append(list, cloneAttendance(a))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Date.Before(list[j].Date) })
	return list, nil
}

func (m *mockAttendanceRepo) SetClockOut(_ context.Context, id uint, at time.Time) error {
	a, ok := m.records[id]
	if !ok || a.ClockOut != nil {
		return repository.ErrNotFound
	}
	a.ClockOut = &at
	a.UpdatedAt = time.Now()
	return nil
}

func (m *mockAttendanceRepo) StartRest(_ context.Context, rest *models.Rest) error {
	a, ok := m.records[rest.AttendanceID]
	if !ok {
		return repository.ErrNotFound
	}
	m.nextRest++
	rest.ID = m.nextRest
	a.Rests = append(a.Rests, *rest)
	a.UpdatedAt = time.Now()
	return nil
}

func (m *mockAttendanceRepo) EndRest(_ context.Context, restID uint, at time.Time) error {
	for _, a := range m.records {
		for i := range a.Rests {
			if a.Rests[i].ID == restID && a.Rests[i].EndAt == nil {
				a.Rests[i].EndAt = &at
				a.UpdatedAt = time.Now()
				return nil
			}
		}
	}
	return repository.ErrNotFound
}

func cloneAttendance(a *models.Attendance) *models.Attendance {
	c := *a
	c.Rests = append([]models.Rest(nil), a.Rests...)
	return &c
}

// ── Mock CorrectionRepository ──

type mockCorrectionRepo struct {
	attendances *mockAttendanceRepo
	corrections map[uint]*models.Correction
	nextID      uint
	createErr   error
	// raceOnCreate имитирует параллельную заявку, вставленную между проверкой и вставкой
	raceOnCreate bool
}

func newMockCorrectionRepo(attendances *mockAttendanceRepo) *mockCorrectionRepo {
	return &mockCorrectionRepo{attendances: attendances, corrections: make(map[uint]*models.Correction)}
}

func (m *mockCorrectionRepo) CreatePending(_ context.Context, c *models.Correction) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.raceOnCreate {
		return repository.ErrPendingExists
	}
	for _, existing := range m.corrections {
		if existing.AttendanceID == c.AttendanceID && existing.IsPending() {
			return repository.ErrPendingExists
		}
	}
	m.nextID++
	c.ID = m.nextID
	c.Status = models.CorrectionStatusPending
	c.CreatedAt = time.Now()
	m.corrections[c.ID] = cloneCorrection(c)
	return nil
}

func (m *mockCorrectionRepo) GetByID(_ context.Context, id uint) (*models.Correction, error) {
	c, ok := m.corrections[id]
	if !ok {
		return nil, nil
	}
	out := cloneCorrection(c)
	if a, ok := m.attendances.records[c.AttendanceID]; ok {
		out.Attendance = *cloneAttendance(a)
	}
	return out, nil
}

func (m *mockCorrectionRepo) GetPendingByAttendanceID(_ context.Context, attendanceID uint) (*models.Correction, error) {
	for _, c := range m.corrections {
		if c.AttendanceID == attendanceID && c.IsPending() {
			return cloneCorrection(c), nil
		}
	}
	return nil, nil
}

func (m *mockCorrectionRepo) list(match func(*models.Correction) bool) []*models.Correction {
	var list []*models.Correction
	for _, c := range m.corrections {
		if match(c) {
			list = append(list, cloneCorrection(c))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

func (m *mockCorrectionRepo) ListByStatus(_ context.Context, status string, limit int) ([]*models.Correction, error) {
	list := m.list(func(c *models.Correction) bool { return c.Status == status })
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (m *mockCorrectionRepo) ListByUser(_ context.Context, userID uint, status string) ([]*models.Correction, error) {
	return m.list(func(c *models.Correction) bool {
		return c.UserID == userID && (status == "" || c.Status == status)
	}), nil
}

func (m *mockCorrectionRepo) ListByAttendance(_ context.Context, attendanceID uint, status string) ([]*models.Correction, error) {
	return m.list(func(c *models.Correction) bool {
		return c.AttendanceID == attendanceID && (status == "" || c.Status == status)
	}), nil
}

// Approve работает на копиях и сохраняет их только при успехе, как транзакция
func (m *mockCorrectionRepo) Approve(ctx context.Context, id uint, mutate func(*models.Correction) error) (*models.Correction, error) {
	c, _ := m.GetByID(ctx, id)
	if c == nil {
		return nil, repository.ErrNotFound
	}
	if err := mutate(c); err != nil {
		return nil, err
	}
	if !m.corrections[id].IsPending() {
		return nil, repository.ErrNotPending
	}

	att := cloneAttendance(&c.Attendance)
	for i := range att.Rests {
		if att.Rests[i].ID == 0 {
			m.attendances.nextRest++
			att.Rests[i].ID = m.attendances.nextRest
			att.Rests[i].AttendanceID = att.ID
		}
	}
	att.UpdatedAt = time.Now()
	m.attendances.records[att.ID] = att

	stored := cloneCorrection(c)
	stored.Attendance = models.Attendance{}
	m.corrections[id] = stored
	c.Attendance = *cloneAttendance(att)
	return c, nil
}

func cloneCorrection(c *models.Correction) *models.Correction {
	out := *c
	out.Rests = append([]models.CorrectionRest(nil), c.Rests...)
	return &out
}

// ── Mock PendingNotifier ──

type mockNotifier struct {
	notified []uint
	err      error
}

func (m *mockNotifier) NotifyPending(_ context.Context, c *models.Correction, _ *models.User) error {
	m.notified = append(m.notified, c.ID)
	return m.err
}
