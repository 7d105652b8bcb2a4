package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"gestion-proyectos/backend/logging"
	"gestion-proyectos/backend/models"
	"gestion-proyectos/backend/repositories"
	"gestion-proyectos/backend/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ExpenseService struct {
	store *repositories.Store
	files storage.FileStore
	now   Clock
}

func NewExpenseService(store *repositories.Store, files storage.FileStore, now Clock) *ExpenseService {
	return &ExpenseService{store: store, files: files, now: now}
}

func validateExpense(e *models.Expense) error {
	if err := required("description", e.Description); err != nil {
		return err
	}
	if e.Amount <= 0 {
		return models.Validationf("amount must be greater than zero")
	}
	if !e.Category.Valid() {
		return models.Validationf("invalid category %q", e.Category)
	}
	return nil
}

// CreateExpense records an expense and stores its attachments. Files already
// written are removed again when a later step fails.
func (s *ExpenseService) CreateExpense(ctx context.Context, who models.Identity, req CreateExpenseRequest, uploads []Upload) (*models.Expense, error) {
	if err := who.Require(models.CapRecordExpenses); err != nil {
		return nil, err
	}
	project, err := visibleProject(ctx, s.store.Projects, who, req.ProjectID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	e := &models.Expense{
		ProjectID:   project.ID,
		Description: strings.TrimSpace(req.Description),
		Amount:      req.Amount,
		Category:    req.Category,
		Date:        derefTime(req.Date),
		RecordedBy:  who.UserID,
		DoneBy:      strings.TrimSpace(req.DoneBy),
		Attachments: []models.Attachment{},
		CreatedAt:   now,
	}
	if e.Date.IsZero() {
		e.Date = now
	}
	if err := validateExpense(e); err != nil {
		return nil, err
	}

	for _, up := range uploads {
		a, err := s.saveUpload(up)
		if err != nil {
			removeAttachments(s.files, e.Attachments)
			return nil, err
		}
		e.Attachments = append(e.Attachments, a)
	}

	if err := s.store.Expenses.Insert(ctx, e); err != nil {
		removeAttachments(s.files, e.Attachments)
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}

	logging.Logger.Infof("Event ID: EXPENSE_CREATED, Description: expense %s of %.2f recorded on project %s with %d attachments", e.ID.Hex(), e.Amount, e.ProjectID.Hex(), len(e.Attachments))
	return e, nil
}

func (s *ExpenseService) saveUpload(up Upload) (models.Attachment, error) {
	name := filepath.Base(strings.TrimSpace(up.Name))
	if name == "." || name == string(filepath.Separator) || name == "" {
		return models.Attachment{}, models.Validationf("attachment name is required")
	}
	path, size, err := s.files.Save(name, up.Reader)
	if err != nil {
		return models.Attachment{}, fmt.Errorf("failed to store attachment %q: %w", name, err)
	}
	return models.Attachment{ID: primitive.NewObjectID(), Name: name, Path: path, Size: size}, nil
}

func removeAttachments(files storage.FileStore, attachments []models.Attachment) {
	for _, a := range attachments {
		if err := files.Remove(a.Path); err != nil {
			logging.Logger.Warnf("Event ID: ATTACHMENT_REMOVE_FAILED, Description: %s: %v", a.Path, err)
		}
	}
}

func (s *ExpenseService) load(ctx context.Context, who models.Identity, id primitive.ObjectID) (*models.Expense, error) {
	e, err := s.store.Expenses.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "expense", id)
	}
	if _, err := visibleProject(ctx, s.store.Projects, who, e.ProjectID); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *ExpenseService) GetExpense(ctx context.Context, who models.Identity, id primitive.ObjectID) (*models.Expense, error) {
	return s.load(ctx, who, id)
}

func (s *ExpenseService) ListExpenses(ctx context.Context, who models.Identity, projectID primitive.ObjectID) ([]models.Expense, error) {
	if _, err := visibleProject(ctx, s.store.Projects, who, projectID); err != nil {
		return nil, err
	}
	expenses, err := s.store.Expenses.Find(ctx, repositories.ExpenseQuery{ProjectID: &projectID})
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	return expenses, nil
}

func (s *ExpenseService) UpdateExpense(ctx context.Context, who models.Identity, id primitive.ObjectID, req UpdateExpenseRequest) (*models.Expense, error) {
	if err := who.Require(models.CapRecordExpenses); err != nil {
		return nil, err
	}
	e, err := s.load(ctx, who, id)
	if err != nil {
		return nil, err
	}

	if req.Description != nil {
		e.Description = strings.TrimSpace(*req.Description)
	}
	if req.Amount != nil {
		e.Amount = *req.Amount
	}
	if req.Category != nil {
		e.Category = *req.Category
	}
	if req.Date != nil {
		e.Date = *req.Date
	}
	if req.DoneBy != nil {
		e.DoneBy = strings.TrimSpace(*req.DoneBy)
	}
	if err := validateExpense(e); err != nil {
		return nil, err
	}

	if err := s.store.Expenses.UpdateByID(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to update expense: %w", err)
	}
	logging.Logger.Infof("Event ID: EXPENSE_UPDATED, Description: expense %s updated by %s", e.ID.Hex(), who.UserID.Hex())
	return e, nil
}

func (s *ExpenseService) DeleteExpense(ctx context.Context, who models.Identity, id primitive.ObjectID) error {
	if err := who.Require(models.CapRecordExpenses); err != nil {
		return err
	}
	e, err := s.load(ctx, who, id)
	if err != nil {
		return err
	}
	if err := s.store.Expenses.DeleteByID(ctx, e.ID); err != nil {
		return lookupErr(err, "expense", e.ID)
	}
	removeAttachments(s.files, e.Attachments)

	logging.Logger.Infof("Event ID: EXPENSE_DELETED, Description: expense %s deleted", e.ID.Hex())
	return nil
}

// RemoveAttachment detaches one file from an expense and deletes it.
func (s *ExpenseService) RemoveAttachment(ctx context.Context, who models.Identity, id, attachmentID primitive.ObjectID) (*models.Expense, error) {
	if err := who.Require(models.CapRecordExpenses); err != nil {
		return nil, err
	}
	e, err := s.load(ctx, who, id)
	if err != nil {
		return nil, err
	}

	kept := make([]models.Attachment, 0, len(e.Attachments))
	var removed []models.Attachment
	for _, a := range e.Attachments {
		if a.ID == attachmentID {
			removed = append(removed, a)
			continue
		}
		kept = append(kept, a)
	}
	if len(removed) == 0 {
		return nil, models.NotFoundf("attachment %s not found on expense %s", attachmentID.Hex(), id.Hex())
	}

	e.Attachments = kept
	if err := s.store.Expenses.UpdateByID(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to update expense: %w", err)
	}
	removeAttachments(s.files, removed)
	return e, nil
}
