// Package handler exposes the application lifecycle over HTTP. One handler
// serves every document type; the URL segment names the type.
package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"barangaylink/internal/application/models"
	appService "barangaylink/internal/application/service"
	"barangaylink/internal/application/store"
	"barangaylink/internal/vault"
	id "barangaylink/pkg/domain"
	dErrors "barangaylink/pkg/domain-errors"
	"barangaylink/pkg/platform/httputil"
)

const maxMultipartMemory = 32 << 20

// Service is the slice of the lifecycle engine the handler needs.
type Service interface {
	Create(ctx context.Context, in appService.CreateInput) (*models.Application, error)
	Get(ctx context.Context, appID id.ApplicationID) (*models.Application, error)
	GetByReference(ctx context.Context, t models.DocumentType, reference string) (*models.Application, error)
	List(ctx context.Context, in appService.ListInput) (store.Page, error)
	Transition(ctx context.Context, appID id.ApplicationID, to models.Status, decision models.Decision) (*models.Application, error)
	Update(ctx context.Context, appID id.ApplicationID, in appService.UpdateInput) (*models.Application, error)
	Delete(ctx context.Context, appID id.ApplicationID) error
	AttachmentURL(ctx context.Context, appID id.ApplicationID, slot string) (string, error)
	Statistics(ctx context.Context) (map[models.DocumentType]appService.TypeStatistics, error)
}

// Middleware bundles the chain pieces the handler mounts: authentication for
// everything, the admin gate for processing routes, the rate limiter for
// submissions.
type Middleware struct {
	RequireAuth  func(http.Handler) http.Handler
	RequireAdmin func(http.Handler) http.Handler
	SubmitLimit  func(http.Handler) http.Handler
}

// Handler handles application endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates an application Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the application routes.
func (h *Handler) Register(r chi.Router, mw Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(mw.RequireAuth)

		r.With(mw.RequireAdmin).Get("/statistics", h.handleStatistics)

		r.Route("/{type}", func(r chi.Router) {
			r.With(mw.SubmitLimit).Post("/", h.handleCreate)
			r.Get("/", h.handleList)
			r.Get("/reference/{reference}", h.handleGetByReference)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.handleGet)
				r.Put("/", h.handleUpdate)
				r.Delete("/", h.handleDelete)
				r.Post("/cancel", h.handleCancel)
				r.Get("/attachments/{slot}", h.handleAttachmentURL)
				r.With(mw.RequireAdmin).Patch("/status", h.handleTransition)
			})
		})
	})
}

// typeParam resolves the URL segment to a document type. URLs use hyphens
// (barangay-clearance), storage uses underscores.
func typeParam(r *http.Request) (models.DocumentType, error) {
	slug := chi.URLParam(r, "type")
	return models.ParseDocumentType(strings.ReplaceAll(slug, "-", "_"))
}

func idParam(r *http.Request) (id.ApplicationID, error) {
	return id.ParseApplicationID(chi.URLParam(r, "id"))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	t, err := typeParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	payload, files, err := readSubmission(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	app, err := h.service.Create(r.Context(), appService.CreateInput{
		Type:    t,
		Payload: payload,
		Files:   files,
	})
	if err != nil {
		h.writeServiceError(w, r, "create application", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, "application submitted", app)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	t, err := typeParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	q := r.URL.Query()
	page, err := h.service.List(r.Context(), appService.ListInput{
		Type:    t,
		Status:  q.Get("status"),
		Search:  q.Get("search"),
		Page:    intQuery(q.Get("page")),
		PerPage: intQuery(q.Get("per_page")),
	})
	if err != nil {
		h.writeServiceError(w, r, "list applications", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "", page)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	appID, err := idParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	app, err := h.service.Get(r.Context(), appID)
	if err != nil {
		h.writeServiceError(w, r, "get application", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "", app)
}

func (h *Handler) handleGetByReference(w http.ResponseWriter, r *http.Request) {
	t, err := typeParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	reference := chi.URLParam(r, "reference")
	app, err := h.service.GetByReference(r.Context(), t, reference)
	if err != nil {
		h.writeServiceError(w, r, "get application by reference", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "", app)
}

type transitionRequest struct {
	Status          string `json:"status"`
	RejectionReason string `json:"rejection_reason"`
	AdminRemarks    string `json:"admin_remarks"`
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request) {
	appID, err := idParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	status, err := models.ParseStatus(req.Status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	app, err := h.service.Transition(r.Context(), appID, status, models.Decision{
		RejectionReason: req.RejectionReason,
		AdminRemarks:    req.AdminRemarks,
	})
	if err != nil {
		h.writeServiceError(w, r, "transition application", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "status updated", app)
}

// handleCancel is the citizen-facing cancellation for ambulance requests.
func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	appID, err := idParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	app, err := h.service.Transition(r.Context(), appID, models.StatusCancelled, models.Decision{})
	if err != nil {
		h.writeServiceError(w, r, "cancel application", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "request cancelled", app)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	appID, err := idParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	payload, files, err := readSubmission(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	app, err := h.service.Update(r.Context(), appID, appService.UpdateInput{
		Payload: payload,
		Files:   files,
	})
	if err != nil {
		h.writeServiceError(w, r, "update application", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "application updated", app)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	appID, err := idParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), appID); err != nil {
		h.writeServiceError(w, r, "delete application", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "application deleted", nil)
}

func (h *Handler) handleAttachmentURL(w http.ResponseWriter, r *http.Request) {
	appID, err := idParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	slot := chi.URLParam(r, "slot")
	url, err := h.service.AttachmentURL(r.Context(), appID, slot)
	if err != nil {
		h.writeServiceError(w, r, "attachment url", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "", map[string]string{"url": url})
}

func (h *Handler) handleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Statistics(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "statistics", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, "", stats)
}

// readSubmission extracts form fields and files. Multipart requests carry
// both; JSON requests carry fields only.
func readSubmission(r *http.Request) (models.Payload, map[string]vault.Upload, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		return readMultipart(r)
	}

	var payload models.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return nil, nil, dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	return payload, nil, nil
}

func readMultipart(r *http.Request) (models.Payload, map[string]vault.Upload, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, nil, dErrors.New(dErrors.CodeBadRequest, "invalid multipart body")
	}

	payload := models.Payload{}
	for key, values := range r.MultipartForm.Value {
		if len(values) > 0 {
			payload[key] = values[0]
		}
	}

	files := make(map[string]vault.Upload)
	for slot, headers := range r.MultipartForm.File {
		if len(headers) == 0 {
			continue
		}
		fh := headers[0]
		f, err := fh.Open()
		if err != nil {
			return nil, nil, dErrors.New(dErrors.CodeBadRequest, "unreadable file upload")
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, nil, dErrors.New(dErrors.CodeBadRequest, "unreadable file upload")
		}
		files[slot] = vault.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        int64(len(data)),
			Data:        data,
		}
	}
	if len(files) == 0 {
		files = nil
	}
	return payload, files, nil
}

func intQuery(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// writeServiceError logs server-side failures and hides their detail.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(r.Context(), op+" failed", "error", err)
	}
	httputil.WriteError(w, err)
}
