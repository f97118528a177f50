package httputil

import (
	"encoding/json"
	"net/http"
)

func ReadJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
