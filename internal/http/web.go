package httpapi

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"rentalhub/internal/auth"
	"rentalhub/internal/search"
	"rentalhub/internal/service"
	"rentalhub/internal/store"

	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{
	"home.html",
	"property_detail.html",
	"property_form.html",
	"applications.html",
	"register.html",
	"login.html",
}

// SessionCookie settings of the rendered site's session cookie.
type SessionCookie struct {
	Name   string
	Secure bool
}

// Web server-rendered pages: forms, redirect-after-post, flash messages kept in the session.
type Web struct {
	svc      Services
	sessions *store.SessionStore
	cookie   SessionCookie
	pages    map[string]*template.Template
	pageSize int
	logger   *zap.Logger
}

func NewWeb(svc Services, sessions *store.SessionStore, cookie SessionCookie, pageSize int, logger *zap.Logger) (*Web, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = t
	}
	return &Web{
		svc:      svc,
		sessions: sessions,
		cookie:   cookie,
		pages:    pages,
		pageSize: pageSize,
		logger:   logger,
	}, nil
}

type pageData struct {
	Title   string
	User    *auth.Identity
	Flashes []store.Flash
	Data    any
}

// session loads the cookie's session or starts an anonymous one.
func (h *Web) session(r *http.Request) (*store.Session, error) {
	if c, err := r.Cookie(h.cookie.Name); err == nil && c.Value != "" {
		sess, err := h.sessions.Load(r.Context(), c.Value)
		if err == nil {
			return sess, nil
		}
		if !errors.Is(err, store.ErrNoSession) {
			return nil, err
		}
	}
	return h.sessions.New(), nil
}

func (h *Web) save(w http.ResponseWriter, r *http.Request, sess *store.Session) error {
	if err := h.sessions.Save(r.Context(), sess); err != nil {
		return err
	}
	h.setCookie(w, sess.ID, int(h.sessions.TTL().Seconds()))
	return nil
}

func (h *Web) setCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Web) render(w http.ResponseWriter, r *http.Request, sess *store.Session, status int, name, title string, data any) {
	page := pageData{
		Title:   title,
		User:    sess.Identity(),
		Flashes: sess.PopFlashes(),
		Data:    data,
	}
	if err := h.save(w, r, sess); err != nil {
		h.serverError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.pages[name].ExecuteTemplate(w, "layout", page); err != nil {
		h.logger.Error("Template execution failed", zap.String("template", name), zap.Error(err))
	}
}

func (h *Web) redirect(w http.ResponseWriter, r *http.Request, sess *store.Session, to string) {
	if err := h.save(w, r, sess); err != nil {
		h.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, to, http.StatusFound)
}

func (h *Web) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("Request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	http.Error(w, "Server Error (500)", http.StatusInternalServerError)
}

// begin loads the session; on failure the response is already written.
func (h *Web) begin(w http.ResponseWriter, r *http.Request) (*store.Session, bool) {
	sess, err := h.session(r)
	if err != nil {
		h.serverError(w, r, err)
		return nil, false
	}
	return sess, true
}

// loginRequired redirects anonymous visitors to /login/?next=<path>.
func (h *Web) loginRequired(w http.ResponseWriter, r *http.Request, sess *store.Session) (*auth.Identity, bool) {
	actor := sess.Identity()
	if actor != nil {
		return actor, true
	}
	next := r.URL.Path
	if r.Method == http.MethodGet && r.URL.RawQuery != "" {
		next += "?" + r.URL.RawQuery
	}
	h.redirect(w, r, sess, "/login/?next="+url.QueryEscape(next))
	return nil, false
}

// flashError turns a workflow error into flash messages. Unexpected errors are
// logged and reported generically. Returns false when err was not a workflow error.
func (h *Web) flashError(r *http.Request, sess *store.Session, err error) bool {
	var se *service.Error
	if !errors.As(err, &se) {
		h.logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		sess.AddFlash(store.FlashError, "Something went wrong. Please try again.")
		return false
	}
	if len(se.Fields) == 0 {
		sess.AddFlash(store.FlashError, se.Message)
		return true
	}
	for _, field := range slices.Sorted(maps.Keys(se.Fields)) {
		for _, msg := range se.Fields[field] {
			if field == "non_field_errors" {
				sess.AddFlash(store.FlashError, msg)
				continue
			}
			sess.AddFlash(store.FlashError, fieldLabel(field)+": "+msg)
		}
	}
	return true
}

func fieldLabel(field string) string {
	field = strings.ReplaceAll(field, "_", " ")
	if field == "" {
		return field
	}
	return strings.ToUpper(field[:1]) + field[1:]
}

// safeNext only follows local absolute paths.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return "/"
	}
	return next
}

// pager prev/next links that keep the current query string.
type pager struct {
	Page    int
	Pages   int
	PrevURL string
	NextURL string
}

func newPager(r *http.Request, total int, page search.Page) pager {
	pages := 1
	if page.Size > 0 && total > 0 {
		pages = (total + page.Size - 1) / page.Size
	}
	p := pager{Page: page.Number, Pages: pages}
	link := func(n int) string {
		q := r.URL.Query()
		q.Set("page", fmt.Sprint(n))
		return r.URL.Path + "?" + q.Encode()
	}
	if page.Number > 1 {
		p.PrevURL = link(page.Number - 1)
	}
	if page.Number < pages {
		p.NextURL = link(page.Number + 1)
	}
	return p
}
