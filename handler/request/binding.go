package request

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/schema"
)

var decoder = schema.NewDecoder()

func init() {
	decoder.IgnoreUnknownKeys(true)
	decoder.SetAliasTag("json")
}

// Binding decodes query params for reads and the json body for writes.
func Binding(r *http.Request, v interface{}) error {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodDelete:
		return decoder.Decode(v, r.URL.Query())
	default:
		if err := json.NewDecoder(r.Body).Decode(v); err != nil && err != io.EOF {
			return err
		}
		return nil
	}
}
