package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/golang/gddo/httputil/header"
)

const maxRequestBodyBytes = 1024 * 1024

// HTTPError represents an http error that can be returned by the REST API.
type HTTPError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

// NewHTTPError creates a structured error encapsulating an http error.
func NewHTTPError(status int, message string, cause error) *HTTPError {
	return &HTTPError{
		Status:  status,
		Message: message,
		Cause:   cause,
	}
}

func (e *HTTPError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %s", e.Status, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Status, e.Message)
}

func (s *Server) errorHandler(
	handler func(responseWriter http.ResponseWriter, request *http.Request) error,
) http.HandlerFunc {
	return func(responseWriter http.ResponseWriter, request *http.Request) {
		err := handler(responseWriter, request)
		if err == nil {
			return
		}

		httpErr := &HTTPError{Status: 0, Message: "", Cause: nil}
		if !errors.As(err, &httpErr) {
			httpErr = NewHTTPError(http.StatusInternalServerError, "Unexpected Error", err)
		}

		if httpErr.Status >= http.StatusInternalServerError {
			s.log.Error("%s %s: %v", request.Method, request.URL.Path, err)
		}

		responseWriter.WriteHeader(httpErr.Status)

		encodeErr := encodeJSONResponse(responseWriter, httpErr)
		if encodeErr != nil {
			// This one can't really be recovered from.
			s.log.Error("failed to encode error response: %v", encodeErr)
		}
	}
}

func encodeJSONResponse(responseWriter http.ResponseWriter, src any) error {
	responseWriter.Header().Add("Content-Type", "application/json")

	err := json.NewEncoder(responseWriter).Encode(src)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError,
			"unable to encode response to JSON", err)
	}

	return nil
}

func decodeJSONBody(responseWriter http.ResponseWriter, request *http.Request, dst any) error {
	if request.Header.Get("Content-Type") != "" {
		value, _ := header.ParseValueAndParams(request.Header, "Content-Type")
		if value != "application/json" {
			return NewHTTPError(http.StatusUnsupportedMediaType,
				"Content-Type header is not application/json", nil)
		}
	}

	if request.Body == nil {
		return NewHTTPError(http.StatusBadRequest, "Missing request body", nil)
	}

	request.Body = http.MaxBytesReader(responseWriter, request.Body, maxRequestBodyBytes)

	decoder := json.NewDecoder(request.Body)

	err := decoder.Decode(dst)
	if err != nil {
		return classifyDecodeError(err)
	}

	err = decoder.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return NewHTTPError(http.StatusBadRequest,
			"Request body must only contain a single JSON object", err)
	}

	return nil
}

func classifyDecodeError(err error) error {
	var (
		syntaxError        *json.SyntaxError
		unmarshalTypeError *json.UnmarshalTypeError
	)

	switch {
	case errors.As(err, &syntaxError):
		return NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("Request body contains badly-formed JSON (at position %d)",
				syntaxError.Offset), err)

	case errors.Is(err, io.ErrUnexpectedEOF):
		return NewHTTPError(http.StatusBadRequest,
			"Request body contains badly-formed JSON", err)

	case errors.As(err, &unmarshalTypeError):
		return NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("Request body contains an invalid value for the %q field (at position %d)",
				unmarshalTypeError.Field, unmarshalTypeError.Offset), err)

	case errors.Is(err, io.EOF):
		return NewHTTPError(http.StatusBadRequest, "Request body must not be empty", err)

	case strings.Contains(err.Error(), "http: request body too large"):
		return NewHTTPError(http.StatusRequestEntityTooLarge,
			"Request body must not be larger than 1MB", err)

	default:
		return err
	}
}
