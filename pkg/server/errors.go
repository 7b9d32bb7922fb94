package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/japaniel/duckparse/pkg/dimension"
	"github.com/japaniel/duckparse/pkg/duckparse"
	"github.com/japaniel/duckparse/pkg/language"
)

// APIError is an error with the HTTP status it should be reported with.
type APIError struct {
	Code    int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *APIError) Unwrap() error { return e.Err }

func badRequest(message string, err error) *APIError {
	return &APIError{Code: http.StatusBadRequest, Message: message, Err: err}
}

// mapError picks the status for an error coming out of the parser.
func mapError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var (
		notLoaded *duckparse.NotLoadedError
		badLang   *language.UnsupportedLanguageError
		badDim    *dimension.UnsupportedDimensionError
	)
	switch {
	case errors.As(err, &notLoaded):
		return &APIError{Code: http.StatusServiceUnavailable, Message: "Parser not loaded", Err: err}
	case errors.As(err, &badLang):
		return badRequest("Unsupported language", err)
	case errors.As(err, &badDim):
		return badRequest("Unsupported dimension", err)
	}
	return &APIError{Code: http.StatusBadGateway, Message: "Extraction failed", Err: err}
}

func handleError(c *gin.Context, err error) {
	apiErr := mapError(err)
	logger(c).Warn("Request failed", "status", apiErr.Code, "error", err)
	c.AbortWithStatusJSON(apiErr.Code, gin.H{"error": apiErr.Error()})
}
