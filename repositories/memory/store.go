// Package memory keeps every collection in process memory. It backs
// STORE_DRIVER=memory and the service and handler tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"gestion-proyectos/backend/models"
	"gestion-proyectos/backend/repositories"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NewStore returns an empty store whose repositories share one lock.
func NewStore() *repositories.Store {
	mu := &sync.RWMutex{}
	return &repositories.Store{
		Projects:      &projectRepo{mu: mu, docs: map[primitive.ObjectID]models.Project{}},
		Tasks:         &taskRepo{mu: mu, docs: map[primitive.ObjectID]models.Task{}},
		Expenses:      &expenseRepo{mu: mu, docs: map[primitive.ObjectID]models.Expense{}},
		Notifications: &notificationRepo{mu: mu, docs: map[primitive.ObjectID]models.Notification{}},
		Users:         &userRepo{mu: mu, docs: map[primitive.ObjectID]models.User{}},
	}
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func containsStatus(statuses []models.Status, s models.Status) bool {
	for _, v := range statuses {
		if v == s {
			return true
		}
	}
	return false
}

func cloneIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	if ids == nil {
		return nil
	}
	out := make([]primitive.ObjectID, len(ids))
	copy(out, ids)
	return out
}

// byID orders by ObjectID, which follows insertion time.
func byID[T any](items []T, id func(T) primitive.ObjectID) {
	sort.Slice(items, func(i, j int) bool {
		a, b := id(items[i]), id(items[j])
		return a.Hex() < b.Hex()
	})
}

type projectRepo struct {
	mu   *sync.RWMutex
	docs map[primitive.ObjectID]models.Project
}

func cloneProject(p models.Project) models.Project {
	p.TeamMembers = cloneIDs(p.TeamMembers)
	return p
}

func matchProject(p models.Project, q repositories.ProjectQuery) bool {
	if len(q.IDs) > 0 && !containsID(q.IDs, p.ID) {
		return false
	}
	if len(q.Statuses) > 0 && !containsStatus(q.Statuses, p.Status) {
		return false
	}
	if q.Member != nil && !p.Involves(*q.Member) {
		return false
	}
	return true
}

func (r *projectRepo) Insert(_ context.Context, p *models.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	r.docs[p.ID] = cloneProject(*p)
	return nil
}

func (r *projectRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.docs[id]
	if !ok {
		return nil, repositories.ErrNoDocument
	}
	p = cloneProject(p)
	return &p, nil
}

func (r *projectRepo) Find(_ context.Context, q repositories.ProjectQuery) ([]models.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.Project{}
	for _, p := range r.docs {
		if matchProject(p, q) {
			out = append(out, cloneProject(p))
		}
	}
	byID(out, func(p models.Project) primitive.ObjectID { return p.ID })
	return out, nil
}

func (r *projectRepo) Count(ctx context.Context, q repositories.ProjectQuery) (int64, error) {
	found, err := r.Find(ctx, q)
	return int64(len(found)), err
}

func (r *projectRepo) UpdateByID(_ context.Context, p *models.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[p.ID]; !ok {
		return repositories.ErrNoDocument
	}
	r.docs[p.ID] = cloneProject(*p)
	return nil
}

func (r *projectRepo) SetProgress(_ context.Context, id primitive.ObjectID, progress int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.docs[id]
	if !ok {
		return repositories.ErrNoDocument
	}
	p.Progress = progress
	r.docs[id] = p
	return nil
}

func (r *projectRepo) DeleteByID(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[id]; !ok {
		return repositories.ErrNoDocument
	}
	delete(r.docs, id)
	return nil
}

func (r *projectRepo) Ping(context.Context) error { return nil }

type taskRepo struct {
	mu   *sync.RWMutex
	docs map[primitive.ObjectID]models.Task
}

func cloneTask(t models.Task) models.Task {
	t.Dependencies = cloneIDs(t.Dependencies)
	if t.AssigneeID != nil {
		id := *t.AssigneeID
		t.AssigneeID = &id
	}
	return t
}

func matchTask(t models.Task, q repositories.TaskQuery) bool {
	if q.ProjectID != nil && t.ProjectID != *q.ProjectID {
		return false
	}
	if len(q.IDs) > 0 && !containsID(q.IDs, t.ID) {
		return false
	}
	if len(q.Statuses) > 0 && !containsStatus(q.Statuses, t.Status) {
		return false
	}
	if q.DependsOn != nil && !t.DependsOn(*q.DependsOn) {
		return false
	}
	return true
}

func (r *taskRepo) Insert(_ context.Context, t *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	r.docs[t.ID] = cloneTask(*t)
	return nil
}

func (r *taskRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.docs[id]
	if !ok {
		return nil, repositories.ErrNoDocument
	}
	t = cloneTask(t)
	return &t, nil
}

func (r *taskRepo) Find(_ context.Context, q repositories.TaskQuery) ([]models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.Task{}
	for _, t := range r.docs {
		if matchTask(t, q) {
			out = append(out, cloneTask(t))
		}
	}
	byID(out, func(t models.Task) primitive.ObjectID { return t.ID })
	return out, nil
}

func (r *taskRepo) Count(ctx context.Context, q repositories.TaskQuery) (int64, error) {
	found, err := r.Find(ctx, q)
	return int64(len(found)), err
}

func (r *taskRepo) UpdateByID(_ context.Context, t *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[t.ID]; !ok {
		return repositories.ErrNoDocument
	}
	r.docs[t.ID] = cloneTask(*t)
	return nil
}

func (r *taskRepo) SetStatus(_ context.Context, id primitive.ObjectID, status models.Status, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.docs[id]
	if !ok {
		return repositories.ErrNoDocument
	}
	t.Status = status
	t.UpdatedAt = at
	r.docs[id] = t
	return nil
}

func (r *taskRepo) DeleteByID(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[id]; !ok {
		return repositories.ErrNoDocument
	}
	delete(r.docs, id)
	return nil
}

func (r *taskRepo) DeleteMany(_ context.Context, q repositories.TaskQuery) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, t := range r.docs {
		if matchTask(t, q) {
			delete(r.docs, id)
			n++
		}
	}
	return n, nil
}

type expenseRepo struct {
	mu   *sync.RWMutex
	docs map[primitive.ObjectID]models.Expense
}

func cloneExpense(e models.Expense) models.Expense {
	if e.Attachments != nil {
		e.Attachments = append([]models.Attachment(nil), e.Attachments...)
	}
	return e
}

func (r *expenseRepo) Insert(_ context.Context, e *models.Expense) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	r.docs[e.ID] = cloneExpense(*e)
	return nil
}

func (r *expenseRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Expense, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.docs[id]
	if !ok {
		return nil, repositories.ErrNoDocument
	}
	e = cloneExpense(e)
	return &e, nil
}

func (r *expenseRepo) Find(_ context.Context, q repositories.ExpenseQuery) ([]models.Expense, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.Expense{}
	for _, e := range r.docs {
		if q.ProjectID != nil && e.ProjectID != *q.ProjectID {
			continue
		}
		out = append(out, cloneExpense(e))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID.Hex() < out[j].ID.Hex()
		}
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (r *expenseRepo) UpdateByID(_ context.Context, e *models.Expense) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[e.ID]; !ok {
		return repositories.ErrNoDocument
	}
	r.docs[e.ID] = cloneExpense(*e)
	return nil
}

func (r *expenseRepo) DeleteByID(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[id]; !ok {
		return repositories.ErrNoDocument
	}
	delete(r.docs, id)
	return nil
}

type notificationRepo struct {
	mu   *sync.RWMutex
	docs map[primitive.ObjectID]models.Notification
}

func matchNotification(n models.Notification, q repositories.NotificationQuery) bool {
	if q.SubjectType != "" && n.SubjectType != q.SubjectType {
		return false
	}
	if q.SubjectID != nil && n.SubjectID != *q.SubjectID {
		return false
	}
	if q.ProjectID != nil && n.ProjectID != *q.ProjectID {
		return false
	}
	if q.Kind != "" && n.Kind != q.Kind {
		return false
	}
	if q.UserID != nil && (n.UserID == nil || *n.UserID != *q.UserID) {
		return false
	}
	if q.IsRead != nil && n.IsRead != *q.IsRead {
		return false
	}
	return true
}

func (r *notificationRepo) Insert(_ context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	r.docs[n.ID] = *n
	return nil
}

func (r *notificationRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.docs[id]
	if !ok {
		return nil, repositories.ErrNoDocument
	}
	return &n, nil
}

func (r *notificationRepo) Find(_ context.Context, q repositories.NotificationQuery) ([]models.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.Notification{}
	for _, n := range r.docs {
		if matchNotification(n, q) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.Hex() > out[j].ID.Hex()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *notificationRepo) Count(ctx context.Context, q repositories.NotificationQuery) (int64, error) {
	found, err := r.Find(ctx, q)
	return int64(len(found)), err
}

func (r *notificationRepo) MarkRead(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.docs[id]
	if !ok {
		return repositories.ErrNoDocument
	}
	n.IsRead = true
	r.docs[id] = n
	return nil
}

func (r *notificationRepo) DeleteByID(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[id]; !ok {
		return repositories.ErrNoDocument
	}
	delete(r.docs, id)
	return nil
}

func (r *notificationRepo) DeleteMany(_ context.Context, q repositories.NotificationQuery) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, doc := range r.docs {
		if matchNotification(doc, q) {
			delete(r.docs, id)
			n++
		}
	}
	return n, nil
}

type userRepo struct {
	mu   *sync.RWMutex
	docs map[primitive.ObjectID]models.User
}

func (r *userRepo) Insert(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	r.docs[u.ID] = *u
	return nil
}

func (r *userRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.docs[id]
	if !ok {
		return nil, repositories.ErrNoDocument
	}
	return &u, nil
}

func (r *userRepo) Find(_ context.Context, q repositories.UserQuery) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.User{}
	for _, u := range r.docs {
		if len(q.IDs) > 0 && !containsID(q.IDs, u.ID) {
			continue
		}
		if q.Role != "" && u.Role != q.Role {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
