package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/school-records-api/internal/models"
	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
	"github.com/noah-isme/school-records-api/pkg/listquery"
)

// memoryStore is an in-memory repository keyed by id.
type memoryStore[T any] struct {
	rows    map[int64]T
	nextID  int64
	setID   func(*T, int64)
	getID   func(T) int64
	listErr error
	delErr  error
	lists   int
}

func newMemoryStore[T any](getID func(T) int64, setID func(*T, int64)) *memoryStore[T] {
	return &memoryStore[T]{rows: map[int64]T{}, getID: getID, setID: setID}
}

func (m *memoryStore[T]) put(row T) {
	id := m.getID(row)
	m.rows[id] = row
	if id > m.nextID {
		m.nextID = id
	}
}

func (m *memoryStore[T]) List(_ context.Context, req listquery.Request) (*listquery.Result[T], error) {
	m.lists++
	if m.listErr != nil {
		return nil, m.listErr
	}
	rows := make([]T, 0, len(m.rows))
	for id := int64(1); id <= m.nextID; id++ {
		if row, ok := m.rows[id]; ok {
			rows = append(rows, row)
		}
	}
	return &listquery.Result[T]{Rows: rows, Meta: listquery.NewMeta(req.Page, req.PerPage, len(rows))}, nil
}

func (m *memoryStore[T]) FindByID(_ context.Context, id int64) (*T, error) {
	row, ok := m.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &row, nil
}

func (m *memoryStore[T]) Create(_ context.Context, row *T) error {
	m.nextID++
	m.setID(row, m.nextID)
	m.rows[m.nextID] = *row
	return nil
}

func (m *memoryStore[T]) Update(_ context.Context, row *T) error {
	id := m.getID(*row)
	if _, ok := m.rows[id]; !ok {
		return sql.ErrNoRows
	}
	m.rows[id] = *row
	return nil
}

func (m *memoryStore[T]) Delete(_ context.Context, id int64) error {
	if m.delErr != nil {
		return m.delErr
	}
	if _, ok := m.rows[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.rows, id)
	return nil
}

type fakeStudentRepo struct {
	*memoryStore[models.Student]
}

func newFakeStudentRepo() *fakeStudentRepo {
	return &fakeStudentRepo{newMemoryStore(
		func(s models.Student) int64 { return s.ID },
		func(s *models.Student, id int64) { s.ID = id },
	)}
}

func (f *fakeStudentRepo) ExistsByNISN(_ context.Context, nisn string, excludeID int64) (bool, error) {
	for id, s := range f.rows {
		if s.NISN == nisn && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func newFakeClassRepo() *memoryStore[models.Class] {
	return newMemoryStore(
		func(c models.Class) int64 { return c.ID },
		func(c *models.Class, id int64) { c.ID = id },
	)
}

func newFakeGradeRepo() *memoryStore[models.Grade] {
	return newMemoryStore(
		func(g models.Grade) int64 { return g.ID },
		func(g *models.Grade, id int64) { g.ID = id },
	)
}

type fakeRoleRepo struct {
	*memoryStore[models.Role]
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{newMemoryStore(
		func(r models.Role) int64 { return r.ID },
		func(r *models.Role, id int64) { r.ID = id },
	)}
}

func (f *fakeRoleRepo) ExistsByName(_ context.Context, name string, excludeID int64) (bool, error) {
	for id, r := range f.rows {
		if strings.EqualFold(r.Name, name) && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

type fakeEnrollmentRepo struct {
	*memoryStore[models.Enrollment]
}

func newFakeEnrollmentRepo() *fakeEnrollmentRepo {
	return &fakeEnrollmentRepo{newMemoryStore(
		func(e models.Enrollment) int64 { return e.ID },
		func(e *models.Enrollment, id int64) { e.ID = id },
	)}
}

func (f *fakeEnrollmentRepo) Exists(_ context.Context, studentID, classID, excludeID int64) (bool, error) {
	for id, e := range f.rows {
		if e.StudentID == studentID && e.ClassID == classID && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

type fakeUserRepo struct {
	*memoryStore[models.User]
	tokens map[string]*models.RefreshToken
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		memoryStore: newMemoryStore(
			func(u models.User) int64 { return u.ID },
			func(u *models.User, id int64) { u.ID = id },
		),
		tokens: map[string]*models.RefreshToken{},
	}
}

func (f *fakeUserRepo) ExistsByEmail(_ context.Context, email string, excludeID int64) (bool, error) {
	for id, u := range f.rows {
		if strings.EqualFold(u.Email, email) && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.rows {
		if strings.EqualFold(u.Email, email) {
			copy := u
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) CreateRefreshToken(_ context.Context, token *models.RefreshToken) error {
	copy := *token
	f.tokens[token.ID] = &copy
	return nil
}

func (f *fakeUserRepo) FindRefreshToken(_ context.Context, id string) (*models.RefreshToken, error) {
	token, ok := f.tokens[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *token
	return &copy, nil
}

func (f *fakeUserRepo) RevokeRefreshToken(_ context.Context, id string, at time.Time) error {
	token, ok := f.tokens[id]
	if !ok {
		return sql.ErrNoRows
	}
	token.RevokedAt = &at
	return nil
}

func (f *fakeUserRepo) RevokeUserRefreshTokens(_ context.Context, userID int64, at time.Time) error {
	for _, token := range f.tokens {
		if token.UserID == userID && token.RevokedAt == nil {
			revoked := at
			token.RevokedAt = &revoked
		}
	}
	return nil
}

type fakeAudit struct {
	entries []*models.AuditEntry
	err     error
}

func (f *fakeAudit) Append(_ context.Context, entry *models.AuditEntry) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entry)
	return nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingNotifier) NotifyMutation(entity, action string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, entity+":"+action)
}

func (r *recordingNotifier) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// memoryCache satisfies CacheRepository with a map.
type memoryCache struct {
	mu      sync.Mutex
	values  map[string]interface{}
	deleted []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: map[string]interface{}{}}
}

func (m *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return copyJSON(value, dest)
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *memoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.values {
		if strings.HasPrefix(key, prefix) {
			delete(m.values, key)
		}
	}
	return nil
}

func copyJSON(src, dest interface{}) error {
	raw, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
