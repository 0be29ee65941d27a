package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"phishsim/pkg/errutil"
	"phishsim/pkg/httputil"
	"reflect"

	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	"github.com/rs/zerolog/log"
)

const apiBasePath = "/api/v1"

// to decode url params
var decoder = schema.NewDecoder()

func init() {
	decoder.IgnoreUnknownKeys(true)
}

var ErrCannotDecodeUrlParams = errors.New("cannot decode url params")

type Middleware interface {
	Handle(http.Handler) http.Handler
}

type Handler struct {
	Req        interface{}
	Res        interface{}
	HandleFunc func(ctx context.Context, req interface{}, res interface{}) error

	reqT  reflect.Type
	respT reflect.Type
}

type HttpRoute struct {
	Method      string
	Path        string
	Handler     Handler
	Middlewares []Middleware
}

type HttpRouter struct {
	*mux.Router
}

func (r *HttpRouter) RegisterHttpRoute(hr *HttpRoute) {
	// save req and res type
	hr.Handler.reqT = reflect.TypeOf(hr.Handler.Req).Elem()
	hr.Handler.respT = reflect.TypeOf(hr.Handler.Res).Elem()

	// calling chain
	chain := http.Handler(hr.Handler)

	if hr.Middlewares != nil {
		// wrap middlewares from right to left
		for i := len(hr.Middlewares) - 1; i >= 0; i-- {
			chain = hr.Middlewares[i].Handle(chain)
		}
	}

	r.Methods(hr.Method).Path(fmt.Sprintf("%s%s", apiBasePath, hr.Path)).Handler(chain)
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req := reflect.New(h.reqT).Interface()
	res := reflect.New(h.respT).Interface()

	if err := decoder.Decode(req, r.URL.Query()); err != nil {
		log.Ctx(ctx).Error().Msgf("decode url query params error: %v", err)
		httputil.ReturnServerResponse(w, nil, errutil.BadRequestError(ErrCannotDecodeUrlParams))
		return
	}

	if r.Body != http.NoBody {
		if err := httputil.ReadJsonBody(r, req); err != nil {
			log.Ctx(ctx).Error().Msgf("read json body error: %v", err)
			httputil.ReturnServerResponse(w, nil, errutil.BadRequestError(err))
			return
		}
	}

	err := h.HandleFunc(ctx, req, res)
	httputil.ReturnServerResponse(w, res, err)
}
