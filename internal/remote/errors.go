package remote

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/llehouerou/trackvault/internal/errmsg"
)

// statusMessage returns a readable explanation of an HTTP status code.
func statusMessage(code int) string {
	switch code {
	case 0:
		return "server unreachable, check your connection"
	case http.StatusBadRequest:
		return "invalid request"
	case http.StatusUnauthorized:
		return "not authorized"
	case http.StatusForbidden:
		return "access denied"
	case http.StatusNotFound:
		return "resource not found"
	case http.StatusConflict:
		return "resource already exists"
	case http.StatusUnprocessableEntity:
		return "invalid data"
	case http.StatusInternalServerError:
		return "internal server error, try again later"
	case http.StatusBadGateway:
		return "bad gateway, the server may be under maintenance"
	case http.StatusServiceUnavailable:
		return "service unavailable, try again later"
	case http.StatusGatewayTimeout:
		return "gateway timeout, the server is taking too long to respond"
	default:
		return fmt.Sprintf("unexpected status %d", code)
	}
}

// markerFor maps a status code to the error taxonomy.
func markerFor(code int) error {
	switch code {
	case http.StatusNotFound:
		return errmsg.ErrNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return errmsg.ErrValidation
	default:
		return errmsg.ErrRemoteUnavailable
	}
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// statusError builds the error for a non-2xx response. The server's own
// message is preferred for validation failures.
func statusError(op errmsg.Op, resp *http.Response) error {
	msg := statusMessage(resp.StatusCode)
	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity {
		if detail := readErrorDetail(resp.Body); detail != "" {
			msg = detail
		}
	}
	return errmsg.Wrap(markerFor(resp.StatusCode), op, msg, nil)
}

func readErrorDetail(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}
	var body errorBody
	if json.Unmarshal(data, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		return body.Error
	}
	return strings.TrimSpace(string(data))
}

func retryable(code int) bool {
	return code >= http.StatusInternalServerError
}
