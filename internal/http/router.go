package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（Go 1.22+ 路径通配符，无第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler 支持 http.Handler 接口
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

// handleAPI registers path with and without the trailing slash.
func (r *Router) handleAPI(path string, h http.HandlerFunc) {
	r.mux.HandleFunc(path, h)
	r.mux.HandleFunc(path+"/{$}", h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterAPIRoutes JSON API under /api
func (r *Router) RegisterAPIRoutes(a *API) {
	r.handleAPI("/api/auth/register", a.Register)
	r.handleAPI("/api/auth/login", a.Login)
	r.handleAPI("/api/auth/refresh", a.Refresh)
	r.handleAPI("/api/auth/logout", a.Logout)
	r.handleAPI("/api/auth/me", a.Me)

	r.handleAPI("/api/properties", a.Properties)
	r.handleAPI("/api/properties/{id}", a.PropertyByID)
	r.handleAPI("/api/properties/{id}/reviews", a.PropertyReviews)

	r.handleAPI("/api/applications", a.Applications)
	r.handleAPI("/api/applications/{id}", a.ApplicationByID)

	r.handleAPI("/api/payments", a.Payments)
	r.handleAPI("/api/payments/{id}", a.PaymentByID)

	r.handleAPI("/api/reviews", a.Reviews)
	r.handleAPI("/api/reviews/{id}", a.ReviewByID)

	// unknown /api paths answer with the envelope too
	r.Handle("/api/", func(w http.ResponseWriter, _ *http.Request) { notFound(w) })
}

// RegisterHealthRoutes liveness probe
func (r *Router) RegisterHealthRoutes(h *HealthHandler) {
	r.HandleHandler("/healthz", h)
}

// RegisterWebRoutes server-rendered pages
func (r *Router) RegisterWebRoutes(web *Web) {
	r.Handle("GET /{$}", web.Home)
	r.Handle("GET /properties/{id}/{$}", web.PropertyDetail)
	r.Handle("GET /properties/create/{$}", web.PropertyCreateForm)
	r.Handle("POST /properties/create/{$}", web.PropertyCreate)
	r.Handle("GET /properties/{id}/edit/{$}", web.PropertyEditForm)
	r.Handle("POST /properties/{id}/edit/{$}", web.PropertyEdit)
	r.Handle("POST /properties/{id}/delete/{$}", web.PropertyDelete)
	r.Handle("POST /properties/{id}/apply/{$}", web.Apply)
	r.Handle("POST /properties/{id}/reviews/add/{$}", web.AddReview)

	r.Handle("GET /applications/{$}", web.Applications)
	r.Handle("POST /applications/{id}/status/{$}", web.UpdateApplicationStatus)
	r.Handle("POST /applications/{id}/pay/{$}", web.Pay)

	r.Handle("GET /register/{$}", web.RegisterForm)
	r.Handle("POST /register/{$}", web.Register)
	r.Handle("GET /login/{$}", web.LoginForm)
	r.Handle("POST /login/{$}", web.Login)
	r.Handle("POST /logout/{$}", web.Logout)
}
