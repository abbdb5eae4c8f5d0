package api

import (
	"encoding/json"
	"net/http"
	"time"
)

// ErrorResponse is the uniform JSON body of every error the API returns.
type ErrorResponse struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Path      string `json:"path"`
	Method    string `json:"method"`
	Timestamp string `json:"timestamp"`
}

// Machine-readable error codes.
const (
	CodeAuthFailed       = "AUTH_FAILED"
	CodeForbidden        = "FORBIDDEN"
	CodeUserExists       = "USER_ALREADY_EXISTS"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeNotFound         = "NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeRateLimited      = "RATE_LIMITED"
	CodeInternal         = "INTERNAL_ERROR"
)

// Outward messages. Internal failure detail never appears in a response.
const (
	msgInvalidCredentials = "Invalid credentials"
	msgTokenExpired       = "Jwt is expired"
	msgTokenInvalid       = "Invalid JWT"
	msgAuthRequired       = "Full authentication is required to access this resource"
	msgAccessDenied       = "Access denied"
	msgUserExists         = "User already exists"
	msgTooManyRequests    = "Too many requests"
	msgInternal           = "Internal server error"
)

// newErrorResponse builds the error body for r.
func newErrorResponse(r *http.Request, status int, code, message string, at time.Time) ErrorResponse {
	return ErrorResponse{
		Status:    status,
		Code:      code,
		Title:     http.StatusText(status),
		Message:   message,
		Path:      r.URL.Path,
		Method:    r.Method,
		Timestamp: at.UTC().Format(time.RFC3339Nano),
	}
}

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes the uniform error body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, newErrorResponse(r, status, code, message, s.now()))
}

func (s *Server) writeBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	s.writeError(w, r, http.StatusBadRequest, CodeInvalidInput, message)
}

func (s *Server) writeNotFound(w http.ResponseWriter, r *http.Request, message string) {
	s.writeError(w, r, http.StatusNotFound, CodeNotFound, message)
}

func (s *Server) writeForbidden(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, http.StatusForbidden, CodeForbidden, msgAccessDenied)
}

func (s *Server) writeInternalError(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, http.StatusInternalServerError, CodeInternal, msgInternal)
}
