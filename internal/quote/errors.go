package quote

import (
	"errors"
	"net/http"

	"github.com/noah-isme/backend-lab/internal/common"
	"github.com/noah-isme/backend-lab/internal/lock"
	"github.com/noah-isme/backend-lab/internal/pricing"
)

var (
	// ErrDocumentNotFound is returned when neither a draft nor a saved record exists.
	ErrDocumentNotFound = errors.New("quote: document not found")
	// ErrTemplateNotFound is returned for unknown group template ids.
	ErrTemplateNotFound = errors.New("quote: template not found")
	// ErrInvalidInput wraps request problems detected by the service.
	ErrInvalidInput = errors.New("quote: invalid input")
)

// AsAppError maps service and engine errors onto API errors.
func AsAppError(err error) error {
	if err == nil || common.IsAppError(err) {
		return err
	}
	switch {
	case errors.Is(err, ErrDocumentNotFound):
		return common.NotFound("DOCUMENT_NOT_FOUND", "document not found", err)
	case errors.Is(err, ErrTemplateNotFound):
		return common.NotFound("TEMPLATE_NOT_FOUND", "group template not found", err)
	case errors.Is(err, pricing.ErrSampleNotFound):
		return common.NotFound("SAMPLE_NOT_FOUND", "sample not found", err)
	case errors.Is(err, pricing.ErrLineNotFound):
		return common.NotFound("LINE_NOT_FOUND", "line item not found", err)
	case errors.Is(err, pricing.ErrUnknownField):
		return common.Unprocessable("UNKNOWN_FIELD", err.Error(), err)
	case errors.Is(err, pricing.ErrUnknownCommand):
		return common.Unprocessable("UNKNOWN_COMMAND", err.Error(), err)
	case errors.Is(err, pricing.ErrMissingTemplate):
		return common.Unprocessable("TEMPLATE_REQUIRED", err.Error(), err)
	case errors.Is(err, ErrInvalidInput):
		return common.BadRequest("BAD_REQUEST", err.Error(), err)
	case errors.Is(err, lock.ErrNotAcquired):
		return common.Conflict("SAVE_IN_PROGRESS", "document is being saved by another request", err)
	default:
		return common.NewAppError("INTERNAL", "internal server error", http.StatusInternalServerError, err)
	}
}
