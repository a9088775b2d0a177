package core

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrymomot/tenantkit/pkg/environment"
	"github.com/dmitrymomot/tenantkit/pkg/mongo"
	"github.com/dmitrymomot/tenantkit/pkg/pg"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// CallType classifies the request for the error shape.
type CallType string

const (
	CallTypeQuery    CallType = "query"
	CallTypeMutation CallType = "mutation"
)

// CallTypeOf derives the call type from the HTTP method: safe methods are
// queries, everything else is a mutation.
func CallTypeOf(r *http.Request) CallType {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return CallTypeQuery
	default:
		return CallTypeMutation
	}
}

// ErrorResponse is the structured shape every error is translated into at
// the boundary.
type ErrorResponse struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Status    int            `json:"status"`
	Path      string         `json:"path"`
	Timestamp time.Time      `json:"timestamp"`
	CallType  CallType       `json:"call_type"`
	Meta      map[string]any `json:"meta,omitempty"`
}

// WriteError translates err into the structured error shape and renders it.
// Known domain errors map to their HTTP-equivalent; persistence errors get
// their vendor code attached as metadata; everything else becomes an opaque
// internal error. The raw message is exposed only in development.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	resp := Translate(r, err)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(resp.Status)
	_ = json.NewEncoder(w).Encode(resp)
}

// Translate builds the boundary error shape for err without writing it.
func Translate(r *http.Request, err error) ErrorResponse {
	resp := ErrorResponse{
		Status:    http.StatusInternalServerError,
		Code:      ErrInternalServerError.Code,
		Message:   "internal server error",
		Path:      r.URL.Path,
		Timestamp: time.Now().UTC(),
		CallType:  CallTypeOf(r),
	}

	var httpErr HTTPError
	switch {
	case errors.Is(err, tenant.ErrTenantRequired):
		resp.Status = http.StatusForbidden
		resp.Code = "tenant_required"
		resp.Message = "tenant required"

	case errors.Is(err, tenant.ErrTenantNotFound):
		resp.Status = http.StatusNotFound
		resp.Code = "tenant_not_found"
		resp.Message = "tenant not found"

	case errors.Is(err, tenant.ErrInactiveTenant):
		resp.Status = http.StatusForbidden
		resp.Code = "tenant_inactive"
		resp.Message = "tenant is inactive"

	case errors.As(err, &httpErr):
		resp.Status = httpErr.Status
		resp.Code = httpErr.Code
		resp.Message = http.StatusText(httpErr.Status)

	case pg.IsNotFoundError(err) || mongo.IsNotFoundError(err):
		resp.Status = http.StatusNotFound
		resp.Code = ErrNotFound.Code
		resp.Message = "resource not found"

	case pg.IsDuplicateKeyError(err) || mongo.IsDuplicateKeyError(err):
		resp.Status = http.StatusConflict
		resp.Code = ErrConflict.Code
		resp.Message = "resource already exists"
		resp.Meta = vendorMeta(err)

	case pg.IsForeignKeyViolationError(err):
		resp.Status = http.StatusUnprocessableEntity
		resp.Code = ErrUnprocessableEntity.Code
		resp.Message = "related resource does not exist"
		resp.Meta = vendorMeta(err)

	default:
		// Opaque failure: vendor codes are still useful metadata, the raw
		// message is not safe outside development.
		resp.Meta = vendorMeta(err)
		if environment.IsDevelopment(r.Context()) {
			resp.Message = err.Error()
		}
	}

	return resp
}

func vendorMeta(err error) map[string]any {
	if code := pg.VendorCode(err); code != "" {
		return map[string]any{"sqlstate": code}
	}
	if code := mongo.VendorCode(err); code != 0 {
		return map[string]any{"mongo_code": code}
	}
	return nil
}
