// Package httpapi is the JSON HTTP surface of the server. Each handler calls
// exactly one service operation and translates its typed result.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/booktag/internal/common"
	"github.com/dmitrijs2005/booktag/internal/logging"
	"github.com/dmitrijs2005/booktag/internal/server/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type QRCodeRegistry interface {
	CreateCode(ctx context.Context, code string) (*models.QRCode, error)
	LookupCode(ctx context.Context, code string) (*models.QRCode, error)
	RegisterOwner(ctx context.Context, code, ownerName, ownerEmail string) error
	ListCodes(ctx context.Context, limit, offset int) ([]*models.QRCode, error)
	ProvisionBatch(ctx context.Context, prefix string, count int) ([]*models.QRCode, error)
}

type VerificationService interface {
	GenerateVerificationCode(ctx context.Context, userID string) (string, time.Time, error)
	ValidateCode(ctx context.Context, userID, submittedCode string) error
}

type UserService interface {
	Register(ctx context.Context, name, email string) (*models.User, error)
}

type ManifestExporter interface {
	ExportManifest(ctx context.Context) (string, string, error)
}

type Handler struct {
	registry     QRCodeRegistry
	verification VerificationService
	users        UserService
	manifests    ManifestExporter
	validate     *validator.Validate
	logger       logging.Logger
}

func NewHandler(registry QRCodeRegistry, verification VerificationService, users UserService,
	manifests ManifestExporter, logger logging.Logger) *Handler {
	v := validator.New()
	// report json field names in validation messages
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("vcode", func(fl validator.FieldLevel) bool {
		return common.IsVerificationCode(fl.Field().String())
	})

	return &Handler{
		registry:     registry,
		verification: verification,
		users:        users,
		manifests:    manifests,
		validate:     v,
		logger:       logger.With("module", "httpapi"),
	}
}

// decodeAndValidate reads a JSON body into dst and checks its validate tags.
func (h *Handler) decodeAndValidate(r *http.Request, dst any) error {
	if err := decodeJSON(r, dst); err != nil {
		return err
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return badRequest(formatValidationErrors(verrs))
		}
		return badRequest("validation error")
	}
	return nil
}

// fail logs unexpected failures and writes the error envelope.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if status, _, _ := statusFor(err); status >= http.StatusInternalServerError {
		h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	writeError(w, r, err)
}

// GET /healthz
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// POST /admin/qrcodes
func (h *Handler) CreateCode(w http.ResponseWriter, r *http.Request) {
	var req CreateCodeRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	q, err := h.registry.CreateCode(r.Context(), req.Code)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toQRCodeResponse(q))
}

// POST /admin/qrcodes/batch
func (h *Handler) ProvisionBatch(w http.ResponseWriter, r *http.Request) {
	var req ProvisionBatchRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	list, err := h.registry.ProvisionBatch(r.Context(), req.Prefix, req.Count)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toQRCodeResponses(list))
}

// GET /admin/qrcodes?limit=&offset=
func (h *Handler) ListCodes(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	list, err := h.registry.ListCodes(r.Context(), limit, offset)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toQRCodeResponses(list))
}

// POST /admin/qrcodes/manifest
func (h *Handler) ExportManifest(w http.ResponseWriter, r *http.Request) {
	key, url, err := h.manifests.ExportManifest(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ManifestResponse{Key: key, URL: url})
}

// GET /qrcodes/{code}
func (h *Handler) LookupCode(w http.ResponseWriter, r *http.Request) {
	q, err := h.registry.LookupCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PublicQRCodeResponse{Code: q.Code, IsRegistered: q.IsRegistered()})
}

// POST /qrcodes/{code}/register
func (h *Handler) RegisterOwner(w http.ResponseWriter, r *http.Request) {
	var req OwnerRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.registry.RegisterOwner(r.Context(), chi.URLParam(r, "code"), req.Name, req.Email); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req OwnerRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	u, err := h.users.Register(r.Context(), req.Name, req.Email)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(u))
}

// POST /users/{id}/verification-code
func (h *Handler) IssueVerificationCode(w http.ResponseWriter, r *http.Request) {
	_, expiresAt, err := h.verification.GenerateVerificationCode(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, VerificationCodeResponse{ExpiresAt: expiresAt})
}

// POST /users/{id}/verification-code/validate
func (h *Handler) ValidateCode(w http.ResponseWriter, r *http.Request) {
	var req ValidateCodeRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.verification.ValidateCode(r.Context(), chi.URLParam(r, "id"), req.Code); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// queryInt parses an optional integer query parameter; absent means 0.
func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, badRequest("query parameter '" + name + "' must be an integer")
	}
	return n, nil
}
