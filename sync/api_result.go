package sync

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

type APIMethod string

const (
	APIMethodQuery  APIMethod = "query"
	APIMethodInsert APIMethod = "insert"
	APIMethodUpdate APIMethod = "update"
	APIMethodDelete APIMethod = "delete"
)

// APIResult is returned by every Mailjet call. Remote failures are captured here
// instead of being returned as errors.
type APIResult[T any, U any] struct {
	Endpoint  string          `json:"endpoint"`
	Method    APIMethod       `json:"method"`
	Record    *U              `json:"record,omitempty"`
	Data      T               `json:"data"`
	ErrorData json.RawMessage `json:"errorData,omitempty"`
	Success   bool            `json:"success"`
	Error     []string        `json:"error,omitempty"`
}

// APIResultObject is the untyped view of an APIResult used for logging.
type APIResultObject interface {
	IsSuccess() bool
	GetError() error
}

func (r APIResult[T, U]) IsSuccess() bool {
	return r.Success
}

func (r APIResult[T, U]) GetError() error {
	if r.Success {
		return nil
	}
	if len(r.Error) == 0 {
		return errors.New("mailjet api call failed")
	}
	return errors.New(strings.Join(r.Error, ": "))
}

// errorFragments builds the error list of a failed call: library message,
// HTTP status text and the Mailjet ErrorMessage, skipping absent parts.
func errorFragments(err error, status int, errorBody []byte) []string {
	var result []string
	if err != nil {
		result = append(result, err.Error())
	}
	if status > 0 {
		if text := http.StatusText(status); text != "" {
			result = append(result, text)
		}
	}
	if len(errorBody) > 0 {
		if msg := gjson.GetBytes(errorBody, "ErrorMessage"); msg.Exists() && msg.String() != "" {
			result = append(result, msg.String())
		}
	}
	return result
}
