package quote

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-lab/internal/common"
)

// Handler wires the quote service to HTTP.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

// NewHandler constructs a handler with a fresh validator.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc, Validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Mount registers document and template routes. writes wraps the endpoints that
// change state, e.g. with idempotency and rate limiting.
func (h *Handler) Mount(r chi.Router, writes ...func(http.Handler) http.Handler) {
	r.Route("/documents", func(d chi.Router) {
		d.With(writes...).Post("/", h.Create)
		d.Route("/{id}", func(doc chi.Router) {
			doc.Get("/", h.Get)
			doc.Get("/export", h.Export)
			doc.With(writes...).Post("/commands", h.Apply)
			doc.With(writes...).Post("/save", h.Save)
			doc.Delete("/draft", h.Discard)
		})
	})
	r.Route("/templates", func(t chi.Router) {
		t.With(writes...).Post("/", h.CreateTemplate)
		t.Route("/{id}", func(tmpl chi.Router) {
			tmpl.Get("/", h.GetTemplate)
			tmpl.With(writes...).Patch("/", h.EditTemplate)
			tmpl.With(writes...).Post("/items", h.AddTemplateItem)
			tmpl.Delete("/items/{itemId}", h.RemoveTemplateItem)
		})
	})
}

// Create starts a new order or quote.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var payload NewDocument
	if !h.decode(w, r, &payload) {
		return
	}
	view, err := h.Svc.Create(r.Context(), payload)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, view)
}

// Get returns a document with its derived summaries.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	view, err := h.Svc.Open(r.Context(), chi.URLParam(r, "id"), readOnlyParam(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, view)
}

// Apply runs one edit command against the document draft.
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var payload CommandRequest
	if !h.decode(w, r, &payload) {
		return
	}
	view, res, err := h.Svc.Apply(r.Context(), chi.URLParam(r, "id"), payload.Command())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.DataWithMeta(w, http.StatusOK, view, map[string]any{
		"sampleId":   res.SampleID,
		"lineId":     res.LineID,
		"resolution": res.Resolution,
	})
}

// Save persists the draft and its summary snapshot.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	view, err := h.Svc.Save(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, view)
}

// Discard drops unsaved edits.
func (h *Handler) Discard(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	if err := h.Svc.Discard(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Export returns the printable form of a document.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	out, err := h.Svc.Export(r.Context(), chi.URLParam(r, "id"), readOnlyParam(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, out)
}

// CreateTemplate stores a new group template.
func (h *Handler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var payload NewTemplate
	if !h.decode(w, r, &payload) {
		return
	}
	t, err := h.Svc.CreateTemplate(r.Context(), payload)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, t)
}

// GetTemplate returns a group template.
func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	t, err := h.Svc.GetTemplate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, t)
}

// EditTemplate changes one template price field.
func (h *Handler) EditTemplate(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var payload TemplateEdit
	if !h.decode(w, r, &payload) {
		return
	}
	t, res, err := h.Svc.EditTemplate(r.Context(), chi.URLParam(r, "id"), payload)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.DataWithMeta(w, http.StatusOK, t, map[string]any{"resolution": res})
}

// AddTemplateItem appends a parameter to a template.
func (h *Handler) AddTemplateItem(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var payload TemplateItem
	if !h.decode(w, r, &payload) {
		return
	}
	t, err := h.Svc.AddTemplateItem(r.Context(), chi.URLParam(r, "id"), payload)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, t)
}

// RemoveTemplateItem drops a parameter from a template.
func (h *Handler) RemoveTemplateItem(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	t, err := h.Svc.RemoveTemplateItem(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "itemId"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, t)
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "quote service not configured", nil)
		return false
	}
	return true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", map[string]any{"error": err.Error()})
		return false
	}
	if h.Validate == nil {
		return true
	}
	if err := h.Validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fmt.Sprintf("failed %s", fe.Tag())
			}
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_FAILED", "payload failed validation", fields)
			return false
		}
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return false
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	appErr := AsAppError(err)
	var typed *common.AppError
	if errors.As(appErr, &typed) && typed.HTTPStatus >= http.StatusInternalServerError && h.Svc != nil {
		h.Svc.Logger.Error().Err(err).Msg("quote request failed")
	}
	common.WriteError(w, appErr)
}

func readOnlyParam(r *http.Request) bool {
	raw := strings.TrimSpace(r.URL.Query().Get("readonly"))
	if raw == "" {
		return false
	}
	v, err := strconv.ParseBool(raw)
	return err == nil && v
}
