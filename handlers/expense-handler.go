package handlers

import (
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"gestion-proyectos/backend/models"
	"gestion-proyectos/backend/services"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const attachmentsField = "attachments"

type ExpenseHandler struct {
	service       *services.ExpenseService
	maxUploadSize int64
}

func NewExpenseHandler(service *services.ExpenseService, maxUploadSize int64) *ExpenseHandler {
	return &ExpenseHandler{service: service, maxUploadSize: maxUploadSize}
}

// CreateExpense accepts either a JSON body or a multipart form whose files
// arrive under "attachments".
func (h *ExpenseHandler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	who, err := identity(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var (
		req     services.CreateExpenseRequest
		uploads []services.Upload
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
		if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
			badRequest(w, r, "invalid multipart form: %v", err)
			return
		}
		defer r.MultipartForm.RemoveAll()

		req, err = expenseFromForm(r.MultipartForm)
		if err != nil {
			writeError(w, r, err)
			return
		}
		for _, fh := range r.MultipartForm.File[attachmentsField] {
			f, err := fh.Open()
			if err != nil {
				badRequest(w, r, "cannot read attachment %q", fh.Filename)
				return
			}
			defer f.Close()
			uploads = append(uploads, services.Upload{Name: fh.Filename, Reader: f})
		}
	} else if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	e, err := h.service.CreateExpense(r.Context(), who, req, uploads)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func expenseFromForm(form *multipart.Form) (services.CreateExpenseRequest, error) {
	value := func(key string) string {
		if v := form.Value[key]; len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}

	var req services.CreateExpenseRequest
	projectID, err := primitive.ObjectIDFromHex(value("projectId"))
	if err != nil {
		return req, models.Validationf("invalid projectId %q", value("projectId"))
	}
	req.ProjectID = projectID
	req.Description = value("description")
	req.Category = models.ExpenseCategory(value("category"))
	req.DoneBy = value("doneBy")

	if raw := value("amount"); raw != "" {
		amount, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return req, models.Validationf("invalid amount %q", raw)
		}
		req.Amount = amount
	}
	if raw := value("date"); raw != "" {
		date, err := parseDate(raw)
		if err != nil {
			return req, err
		}
		req.Date = &date
	}
	return req, nil
}

func (h *ExpenseHandler) GetExpense(w http.ResponseWriter, r *http.Request) {
	who, err := identity(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	e, err := h.service.GetExpense(r.Context(), who, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *ExpenseHandler) GetExpensesByProject(w http.ResponseWriter, r *http.Request) {
	who, err := identity(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	projectID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	expenses, err := h.service.ListExpenses(r.Context(), who, projectID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (h *ExpenseHandler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	who, err := identity(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req services.UpdateExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	e, err := h.service.UpdateExpense(r.Context(), who, id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *ExpenseHandler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	who, err := identity(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.service.DeleteExpense(r.Context(), who, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ExpenseHandler) RemoveAttachment(w http.ResponseWriter, r *http.Request) {
	who, err := identity(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	attachmentID, err := pathID(r, "attachmentId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	e, err := h.service.RemoveAttachment(r.Context(), who, id, attachmentID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}
