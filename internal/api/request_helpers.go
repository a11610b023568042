package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/trellisdata/trellis/internal/api/shared"
)

// maxRequestBody caps admin request bodies; nothing legitimate is larger.
const maxRequestBody = 1 << 20

var validate = validator.New()

// decodeAndValidate parses the request body into dst and checks its
// validation tags. Returns a client-presentable error on failure.
func decodeAndValidate(r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxRequestBody)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}

	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}

// GetOperatorName extracts the authenticated operator name set by the auth
// middleware. Returns the name and whether it was present.
func GetOperatorName(r *http.Request) (string, bool) {
	operator, ok := r.Context().Value(shared.OperatorContextKey).(string)
	return operator, ok
}
