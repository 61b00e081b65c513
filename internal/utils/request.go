package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"ASTROTRACKER_BACK-END/internal/errs"
)

const maxBodyBytes = 1 << 20

// DecodeJSONRequest decodes the request body into dst. Malformed or empty
// bodies yield errs.ErrInvalidInput.
func DecodeJSONRequest(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", errs.ErrInvalidInput)
		}
		return fmt.Errorf("%w: invalid request body: %v", errs.ErrInvalidInput, err)
	}
	return nil
}
