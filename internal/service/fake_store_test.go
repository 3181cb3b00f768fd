package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"intervention_backend/internal/model"
	"intervention_backend/internal/repository"
	"intervention_backend/internal/util"

	"github.com/stretchr/testify/mock"
)

// memStore 内存版 repository.Store，Atomic 失败时撤销本次写入，
// 与数据库唯一索引一样限制每个学生最多一条进行中的干预
type memStore struct {
	mu            sync.Mutex
	students      map[string]model.Student
	logs          []model.DailyLog
	interventions map[string]model.Intervention
	order         []string
	seq           int
	failWith      error
	readDelay     time.Duration
}

var _ repository.Store = (*memStore)(nil)

func newMemStore(students ...model.Student) *memStore {
	s := &memStore{
		students:      make(map[string]model.Student),
		interventions: make(map[string]model.Intervention),
	}
	for _, st := range students {
		if st.Status == "" {
			st.Status = model.StatusNormal
		}
		s.students[st.ID] = st
	}
	return s
}

func (s *memStore) Atomic(ctx context.Context, fn func(tx repository.Store) error) error {
	tx := &memTx{memStore: s}
	if err := fn(tx); err != nil {
		s.mu.Lock()
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

// memTx 记录每次写入的撤销操作，失败时只回滚自己的修改
type memTx struct {
	*memStore
	undo []func()
}

func (t *memTx) SaveStudent(ctx context.Context, student *model.Student) error {
	prev := t.student(student.ID)
	if err := t.memStore.SaveStudent(ctx, student); err != nil {
		return err
	}
	t.undo = append(t.undo, func() { t.students[prev.ID] = prev })
	return nil
}

func (t *memTx) AppendLog(ctx context.Context, log *model.DailyLog) error {
	if err := t.memStore.AppendLog(ctx, log); err != nil {
		return err
	}
	id := log.ID
	t.undo = append(t.undo, func() {
		for i, l := range t.logs {
			if l.ID == id {
				t.logs = append(t.logs[:i], t.logs[i+1:]...)
				return
			}
		}
	})
	return nil
}

func (t *memTx) CreateIntervention(ctx context.Context, iv *model.Intervention) error {
	if err := t.memStore.CreateIntervention(ctx, iv); err != nil {
		return err
	}
	id := iv.ID
	t.undo = append(t.undo, func() {
		delete(t.interventions, id)
		for i, o := range t.order {
			if o == id {
				t.order = append(t.order[:i], t.order[i+1:]...)
				return
			}
		}
	})
	return nil
}

func (t *memTx) SaveIntervention(ctx context.Context, iv *model.Intervention) error {
	t.mu.Lock()
	prev, existed := t.interventions[iv.ID]
	t.mu.Unlock()
	if err := t.memStore.SaveIntervention(ctx, iv); err != nil {
		return err
	}
	t.undo = append(t.undo, func() {
		if existed {
			t.interventions[iv.ID] = prev
		} else {
			delete(t.interventions, iv.ID)
		}
	})
	return nil
}

func (s *memStore) ListStudents(ctx context.Context) ([]model.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	out := make([]model.Student, 0, len(s.students))
	for _, st := range s.students {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memStore) FindStudent(ctx context.Context, id string) (*model.Student, error) {
	if s.readDelay > 0 {
		time.Sleep(s.readDelay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	st, ok := s.students[id]
	if !ok {
		return nil, util.ErrStudentNotFound
	}
	return &st, nil
}

func (s *memStore) SaveStudent(ctx context.Context, student *model.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[student.ID]; !ok {
		return util.ErrStudentNotFound
	}
	s.students[student.ID] = *student
	return nil
}

func (s *memStore) AppendLog(ctx context.Context, log *model.DailyLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	log.ID = uint(s.seq)
	s.logs = append(s.logs, *log)
	return nil
}

func (s *memStore) ListLogs(ctx context.Context, studentID string, limit int) ([]model.DailyLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.DailyLog
	for i := len(s.logs) - 1; i >= 0 && len(out) < limit; i-- {
		if s.logs[i].StudentID == studentID {
			out = append(out, s.logs[i])
		}
	}
	return out, nil
}

func (s *memStore) CreateIntervention(ctx context.Context, iv *model.Intervention) error {
	if s.readDelay > 0 {
		time.Sleep(s.readDelay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.interventions {
		if other.OpenSlot != nil && iv.OpenSlot != nil && *other.OpenSlot == *iv.OpenSlot {
			return util.ErrOpenInterventionExists
		}
	}
	s.seq++
	iv.CreatedAt = time.Unix(int64(s.seq), 0)
	s.interventions[iv.ID] = *iv
	s.order = append(s.order, iv.ID)
	return nil
}

func (s *memStore) SaveIntervention(ctx context.Context, iv *model.Intervention) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interventions[iv.ID] = *iv
	return nil
}

func (s *memStore) FindIntervention(ctx context.Context, id string) (*model.Intervention, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	iv, ok := s.interventions[id]
	if !ok {
		return nil, util.ErrInterventionNotFound
	}
	return &iv, nil
}

func (s *memStore) latest(match func(model.Intervention) bool) (*model.Intervention, error) {
	for i := len(s.order) - 1; i >= 0; i-- {
		iv := s.interventions[s.order[i]]
		if match(iv) {
			return &iv, nil
		}
	}
	return nil, util.ErrInterventionNotFound
}

func (s *memStore) FindOpenIntervention(ctx context.Context, studentID string) (*model.Intervention, error) {
	if s.readDelay > 0 {
		time.Sleep(s.readDelay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest(func(iv model.Intervention) bool { return iv.StudentID == studentID && iv.Status.Open() })
}

func (s *memStore) FindLatestIntervention(ctx context.Context, studentID string, status model.InterventionStatus) (*model.Intervention, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest(func(iv model.Intervention) bool { return iv.StudentID == studentID && iv.Status == status })
}

func (s *memStore) ListInterventions(ctx context.Context, studentID string) ([]model.Intervention, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Intervention
	for i := len(s.order) - 1; i >= 0; i-- {
		if iv := s.interventions[s.order[i]]; iv.StudentID == studentID {
			out = append(out, iv)
		}
	}
	return out, nil
}

func (s *memStore) ListStalePending(ctx context.Context, cutoff time.Time) ([]model.Intervention, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Intervention
	for _, id := range s.order {
		iv := s.interventions[id]
		if iv.Status == model.InterventionPending && iv.CreatedAt.Before(cutoff) {
			out = append(out, iv)
		}
	}
	return out, nil
}

func (s *memStore) student(id string) model.Student {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.students[id]
}

func (s *memStore) openCount(studentID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, iv := range s.interventions {
		if iv.StudentID == studentID && iv.Status.Open() {
			n++
		}
	}
	return n
}

func (s *memStore) logCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.logs)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, n InterventionNotification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

// noLocker 不加锁，单独验证存储层的唯一约束
type noLocker struct{}

func (noLocker) Lock(ctx context.Context, studentID string) (func(), error) {
	return func() {}, nil
}
