package chi

import (
	"errors"
	"fmt"
	"net/http"

	gochi "github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ListTrailsParams are the query parameters of GET /api/trails.
type ListTrailsParams struct {
	Area  *string `form:"area,omitempty" json:"area,omitempty"`
	Limit *int    `form:"limit,omitempty" json:"limit,omitempty"`
}

var errInvalidParam = errors.New("invalid parameter")

// bindTrailID binds the {id} path segment.
func bindTrailID(r *http.Request) (int64, error) {
	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", "id", gochi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return 0, fmt.Errorf("%w id: %w", errInvalidParam, err)
	}
	if id <= 0 {
		return 0, fmt.Errorf("%w id: must be positive", errInvalidParam)
	}
	return id, nil
}

// bindListTrailsParams binds the optional area and limit query parameters.
func bindListTrailsParams(r *http.Request) (ListTrailsParams, error) {
	var params ListTrailsParams
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "area", q, &params.Area); err != nil {
		return params, fmt.Errorf("%w area: %w", errInvalidParam, err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", q, &params.Limit); err != nil {
		return params, fmt.Errorf("%w limit: %w", errInvalidParam, err)
	}
	if params.Limit != nil && *params.Limit <= 0 {
		return params, fmt.Errorf("%w limit: must be positive", errInvalidParam)
	}
	return params, nil
}
