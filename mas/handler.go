package mas

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/jmgilman/go/errors"
	"github.com/sirupsen/logrus"
)

// Lookuper resolves catalogue records by product name.
type Lookuper interface {
	Lookup(ctx context.Context, name string) (*Record, error)
}

// Handler serves catalogue lookups as JSON: GET /?name=<product>.
type Handler struct {
	Catalogue Lookuper
	Log       logrus.FieldLogger
}

func NewHandler(catalogue Lookuper) *Handler {
	return &Handler{Catalogue: catalogue, Log: logrus.StandardLogger()}
}

// Spit out a JSON-formatted error for Content-Type: application/json
func httpJSONError(response http.ResponseWriter, err error, status int) {
	body, merr := json.Marshal(map[string]interface{}{"error": errors.ToJSON(err)})
	if merr != nil {
		body = []byte(`{ "error": null }`)
	}
	response.WriteHeader(status)
	response.Write(body)
}

func httpStatus(err error) int {
	switch errors.GetCode(err) {
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeInvalidInput:
		return http.StatusBadRequest
	case errors.CodeTimeout, errors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) ServeHTTP(response http.ResponseWriter, request *http.Request) {
	response.Header().Set("Content-Type", "application/json")

	if request.Method != http.MethodGet {
		httpJSONError(response, errors.New(errors.CodeInvalidInput, "only GET is supported"), http.StatusMethodNotAllowed)
		return
	}

	name := request.FormValue("name")
	if name == "" {
		httpJSONError(response, errors.New(errors.CodeInvalidInput, "unknown operation; currently supported: ?name"), http.StatusBadRequest)
		return
	}

	rec, err := h.Catalogue.Lookup(request.Context(), name)
	if err != nil {
		status := httpStatus(err)
		if status >= http.StatusInternalServerError {
			h.Log.WithError(err).WithField("name", name).Error("catalogue lookup failed")
		}
		httpJSONError(response, err, status)
		return
	}

	if err := json.NewEncoder(response).Encode(rec); err != nil {
		h.Log.WithError(err).Debug("writing lookup response")
	}
}
