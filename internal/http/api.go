package httpapi

import (
	"net/http"

	"rentalhub/internal/auth"
	"rentalhub/internal/search"
	"rentalhub/internal/service"

	"go.uber.org/zap"
)

// Services the workflows both surfaces delegate to.
type Services struct {
	Auth         service.AuthService
	Properties   service.PropertyService
	Applications service.ApplicationService
	Payments     service.PaymentService
	Reviews      service.ReviewService
}

// API JSON handlers under /api.
type API struct {
	svc      Services
	ident    *Authenticator
	pageSize int
	logger   *zap.Logger
}

func NewAPI(svc Services, ident *Authenticator, pageSize int, logger *zap.Logger) *API {
	return &API{svc: svc, ident: ident, pageSize: pageSize, logger: logger}
}

// actor resolves the caller; on failure the error response is already written.
func (a *API) actor(w http.ResponseWriter, r *http.Request) (*auth.Identity, bool) {
	id, err := a.ident.Identify(r)
	if err != nil {
		a.fail(w, r, err)
		return nil, false
	}
	return id, true
}

func (a *API) page(r *http.Request) search.Page {
	return search.ParsePage(r.URL.Query(), a.pageSize)
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, a.logger, err)
}

// pathID reads {id}; invalid ids are answered with 404.
func (a *API) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := parseID(r.PathValue("id"))
	if !ok {
		notFound(w)
	}
	return id, ok
}
