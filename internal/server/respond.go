package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/DataDaddy212/doney-mirror/internal/tree"
	"github.com/DataDaddy212/doney-mirror/internal/workspace"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, errorResponse{Error: message})
}

// respondFailure maps workspace errors to a status.
func (s *Server) respondFailure(w http.ResponseWriter, err error) {
	if errors.Is(err, workspace.ErrStopped) {
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.logger.Error("request failed", "error", err)
	s.respondError(w, http.StatusInternalServerError, "internal error")
}

// outcomeStatus maps a rejecting outcome to an HTTP status.
func outcomeStatus(o tree.Outcome) int {
	switch o {
	case tree.NotFound:
		return http.StatusNotFound
	case tree.CycleRejected:
		return http.StatusConflict
	case tree.InvalidTitle:
		return http.StatusBadRequest
	default:
		return http.StatusOK
	}
}

// respondRejected writes the error for a rejected outcome and reports whether
// it did.
func (s *Server) respondRejected(w http.ResponseWriter, op, id string, o tree.Outcome) bool {
	if !o.Rejected() {
		return false
	}
	s.respondError(w, outcomeStatus(o), o.Err(op, id).Error())
	return true
}

// decode reads a JSON body into dst and validates it.
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%s failed %q", verrs[0].Field(), verrs[0].Tag())
		}
		return err
	}
	return nil
}
