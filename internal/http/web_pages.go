package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"rentalhub/internal/auth"
	"rentalhub/internal/domain"
	"rentalhub/internal/policy"
	"rentalhub/internal/search"
	"rentalhub/internal/service"
	"rentalhub/internal/store"
)

type homeData struct {
	pager
	Query      url.Values
	Categories []domain.Category
	Properties []service.PropertyDTO
}

type detailData struct {
	Property  *service.PropertyDTO
	Reviews   []service.ReviewDTO
	IsOwner   bool
	CanApply  bool
	CanReview bool
	Ratings   []int
}

type propertyFormData struct {
	Action     string
	Form       url.Values
	Errors     map[string][]string
	Categories []domain.Category
}

type applicationsData struct {
	pager
	Applications []service.ApplicationDTO
}

type registerData struct {
	Form   url.Values
	Errors map[string][]string
	Roles  []domain.Role
}

type loginData struct {
	Next     string
	Username string
}

var reviewsOnDetail = search.Page{Number: 1, Size: 50}

// validationFields returns the per-field messages of a validation or duplicate error.
func validationFields(err error) (map[string][]string, bool) {
	var se *service.Error
	if !errors.As(err, &se) {
		return nil, false
	}
	if se.Kind != service.KindValidation && se.Kind != service.KindDuplicate {
		return nil, false
	}
	fields := map[string][]string{}
	for k, v := range se.Fields {
		fields[k] = v
	}
	if len(fields) == 0 {
		fields["non_field_errors"] = []string{se.Message}
	}
	return fields, true
}

func propertyPath(id int64) string { return fmt.Sprintf("/properties/%d/", id) }

// ============================================
// Properties
// ============================================

// Home GET / available properties, newest first.
func (h *Web) Home(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.begin(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	page := search.ParsePage(q, h.pageSize)
	res, err := h.svc.Properties.List(r.Context(), sess.Identity(), search.ParseCriteria(q).Available(), page)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, sess, http.StatusOK, "home.html", "Properties", homeData{
		pager:      newPager(r, res.Total, page),
		Query:      q,
		Categories: domain.Categories,
		Properties: res.Items,
	})
}

// PropertyDetail GET /properties/{id}/
func (h *Web) PropertyDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	sess, ok := h.begin(w, r)
	if !ok {
		return
	}
	actor := sess.Identity()
	p, err := h.svc.Properties.Get(r.Context(), actor, id)
	if err != nil {
		if service.IsKind(err, service.KindNotFound) {
			http.NotFound(w, r)
			return
		}
		h.serverError(w, r, err)
		return
	}
	reviews, err := h.svc.Reviews.List(r.Context(), actor, id, reviewsOnDetail)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	res := policy.Resource{LandlordID: p.Landlord}
	data := detailData{
		Property:  p,
		Reviews:   reviews.Items,
		IsOwner:   policy.Permitted(actor, policy.UpdateProperty, res),
		CanApply:  policy.Permitted(actor, policy.CreateApplication, res) && p.IsAvailable && p.Landlord != actor.UserID,
		CanReview: policy.Permitted(actor, policy.CreateReview, res),
		Ratings:   []int{5, 4, 3, 2, 1},
	}
	h.render(w, r, sess, http.StatusOK, "property_detail.html", p.Name, data)
}

// PropertyCreateForm GET /properties/create/
func (h *Web) PropertyCreateForm(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.begin(w, r)
	if !ok {
		return
	}
	actor, ok := h.loginRequired(w, r, sess)
	if !ok {
		return
	}
	if !policy.Permitted(actor, policy.CreateProperty, policy.Resource{}) {
		sess.AddFlash(store.FlashError, "Only landlords can list properties.")
		h.redirect(w, r, sess, "/")
		return
	}
	form := url.Values{"category": {string(domain.CategoryApartment)}, "is_available": {"on"}}
	h.renderPropertyForm(w, r, sess, "/properties/create/", "List a property", form, nil)
}

// PropertyCreate POST /properties/create/
func (h *Web) PropertyCreate(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.begin(w, r)
	if !ok {
		return
	}
	actor, ok := h.loginRequired(w, r, sess)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	available := r.PostForm.Get("is_available") != ""
	created, err := h.svc.Properties.Create(r.Context(), actor, service.CreatePropertyRequest{
		Name:        r.PostForm.Get("name"),
		Category:    r.PostForm.Get("category"),
		Description: r.PostForm.Get("description"),
		Location:    r.PostForm.Get("location"),
		Price:       r.PostForm.Get("price"),
		IsAvailable: &available,
	})
	if err != nil {
		if fields, ok := validationFields(err); ok {
			h.renderPropertyForm(w, r, sess, "/properties/create/", "List a property", r.PostForm, fields)
			return
		}
		h.flashError(r, sess, err)
		h.redirect(w, r, sess, "/")
		return
	}
	sess.AddFlash(store.FlashSuccess, fmt.Sprintf("%q has been listed.", created.Name))
	h.redirect(w, r, sess, "/")
}

// PropertyEditForm GET /properties/{id}/edit/
func (h *Web) PropertyEditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	sess, ok := h.begin(w, r)
	if !ok {
		return
	}
	actor, ok := h.loginRequired(w, r, sess)
	if !ok {
		return
	}
	p, err := h.svc.Properties.Get(r.Context(), actor, id)
	if err != nil {
		if service.IsKind(err, service.KindNotFound) {
			http.NotFound(w, r)
			return
		}
		h.serverError(w, r, err)
		return
	}
	if !policy.Permitted(actor, policy.UpdateProperty, policy.Resource{LandlordID: p.Landlord}) {
		sess.AddFlash(store.FlashError, "Only the landlord of this property can change it.")
		h.redirect(w, r, sess, propertyPath(id))
		return
	}
	form := url.Values{
		"name":        {p.Name},
		"category":    {string(p.Category)},
		"description": {p.Description},
		"location":    {p.Location},
		"price":       {p.Price},
	}
	if p.IsAvailable {
		form.Set("is_available", "on")
	}
	h.renderPropertyForm(w, r, sess, propertyPath(id)+"edit/", "Edit "+p.Name, form, nil)
}

// PropertyEdit POST /properties/{id}/edit/
func (h *Web) PropertyEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	sess, ok := h.begin(w, r)
	if !ok {
		return
	}
	actor, ok := h.loginRequired(w, r, sess)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	field := func(k string) *string {
		v := r.PostForm.Get(k)
		return &v
	}
	available := r.PostForm.Get("is_available") != ""
	updated, err := h.svc.Properties.Update(r.Context(), actor, id, service.UpdatePropertyRequest{
		Name:        field("name"),
		Category:    field("category"),
		Description: field("description"),
		Location:    field("location"),
		Price:       field("price"),
		IsAvailable: &available,
	})
	if err != nil {
		if fields, ok := validationFields(err); ok {
			h.renderPropertyForm(w, r, sess, propertyPath(id)+"edit/", "Edit property", r.PostForm, fields)
			return
		}
		if service.IsKind(err, service.KindNotFound) {
			http.NotFound(w, r)
			return
		}
		h.flashError(r, sess, err)
		h.redirect(w, r, sess, propertyPath(id))
		return
	}
	sess.AddFlash(store.FlashSuccess, fmt.Sprintf("%q has been updated.", updated.Name))
	h.redirect(w, r, sess, propertyPath(id))
}

// PropertyDelete POST /properties/{id}/delete/
func (h *Web) PropertyDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	sess, ok := h.begin(w, r)
	if !ok {
		return
	}
	actor, ok := h.loginRequired(w, r, sess)
	if !ok {
		return
	}
	if err := h.svc.Properties.Delete(r.Context(), actor, id); err != nil {
		if service.IsKind(err, service.KindNotFound) {
			http.NotFound(w, r)
			return
		}
		h.flashError(r, sess, err)
		h.redirect(w, r, sess, propertyPath(id))
		return
	}
	sess.AddFlash(store.FlashSuccess, "The property has been deleted.")
	h.redirect(w, r, sess, "/")
}

func (h *Web) renderPropertyForm(w http.ResponseWriter, r *http.Request, sess *store.Session, action, title string, form url.Values, errs map[string][]string) {
	status := http.StatusOK
	if len(errs) > 0 {
		status = http.StatusBadRequest
		for _, msg := range errs["non_field_errors"] {
			sess.AddFlash(store.FlashError, msg)
		}
	}
	h.render(w, r, sess, status, "property_form.html", title, propertyFormData{
		Action:     action,
		Form:       form,
		Errors:     errs,
		Categories: domain.Categories,
	})
}

// ============================================
// Applications, payments, reviews
// ============================================

// Apply POST /properties/{id}/apply/
func (h *Web) Apply(w http.ResponseWriter, r *http.Request) {
	h.propertyAction(w, r, func(actor *auth.Identity, id int64) (string, error) {
		_, err := h.svc.Applications.Apply(r.Context(), actor, service.ApplyRequest{
			PropertyID: id,
			Message:    r.PostForm.Get("message"),
		})
		return "Your application has been submitted.", err
	})
}

// AddReview POST /properties/{id}/reviews/add/
func (h *Web) AddReview(w http.ResponseWriter, r *http.Request) {
	h.propertyAction(w, r, func(actor *auth.Identity, id int64) (string, error) {
		_, err := h.svc.Reviews.Create(r.Context(), actor, service.CreateReviewRequest{
			PropertyID: id,
			Rating:     r.PostForm.Get("rating"),
			Comment:    r.PostForm.Get("comment"),
		})
		return "Thank you for your review.", err
	})
}

// propertyAction runs a logged-in form post against one property and redirects back to it.
func (h *Web) propertyAction(w http.ResponseWriter, r *http.Request, do func(actor *auth.Identity, id int64) (string, error)) {
	id, ok := parseID(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	sess, ok := h.begin(w, r)
	if !ok {
		return
	}
	actor, ok := h.loginRequired(w, r, sess)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	msg, err := do(actor, id)
	if err != nil {
		if service.IsKind(err, service.KindNotFound) {
			http.NotFound(w, r)
			return
		}
		h.flashError(r, sess, err)
	} else {
		sess.AddFlash(store.FlashSuccess, msg)
	}
	h.redirect(w, r, sess, propertyPath(id))
}

// Applications GET /applications/
func (h *Web) Applications(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.begin(w, r)
	if !ok {
		return
	}
	actor, ok := h.loginRequired(w, r, sess)
	if !ok {
		return
	}
	page := search.ParsePage(r.URL.Query(), h.pageSize)
	res, err := h.svc.Applications.List(r.Context(), actor, page)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, sess, http.StatusOK, "applications.html", "Applications", applicationsData{
		pager:        newPager(r, res.Total, page),
		Applications: res.Items,
	})
}

// UpdateApplicationStatus POST /applications/{id}/status/
func (h *Web) UpdateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	h.applicationAction(w, r, func(actor *auth.Identity, id int64) (string, error) {
		app, err := h.svc.Applications.UpdateStatus(r.Context(), actor, id, service.UpdateStatusRequest{
			Status: r.PostForm.Get("status"),
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Application for %s is now %s.", app.PropertyName, app.Status), nil
	})
}

// Pay POST /applications/{id}/pay/
func (h *Web) Pay(w http.ResponseWriter, r *http.Request) {
	h.applicationAction(w, r, func(actor *auth.Identity, id int64) (string, error) {
		pay, err := h.svc.Payments.Pay(r.Context(), actor, service.PayRequest{
			ApplicationID: id,
			Amount:        r.PostForm.Get("amount"),
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Payment of %s received and pending confirmation.", pay.Amount), nil
	})
}

func (h *Web) applicationAction(w http.ResponseWriter, r *http.Request, do func(actor *auth.Identity, id int64) (string, error)) {
	id, ok := parseID(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	sess, ok := h.begin(w, r)
	if !ok {
		return
	}
	actor, ok := h.loginRequired(w, r, sess)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	msg, err := do(actor, id)
	if err != nil {
		h.flashError(r, sess, err)
	} else {
		sess.AddFlash(store.FlashSuccess, msg)
	}
	h.redirect(w, r, sess, "/applications/")
}

// ============================================
// Session lifecycle
// ============================================

// RegisterForm GET /register/
func (h *Web) RegisterForm(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.begin(w, r)
	if !ok {
		return
	}
	h.render(w, r, sess, http.StatusOK, "register.html", "Register", registerData{
		Form:  url.Values{"role": {string(domain.RoleTenant)}},
		Roles: domain.Roles,
	})
}

// Register POST /register/ creates the account and logs it in.
func (h *Web) Register(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.begin(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	f := r.PostForm
	fail := func(errs map[string][]string) {
		f.Del("password1")
		f.Del("password2")
		h.render(w, r, sess, http.StatusBadRequest, "register.html", "Register", registerData{Form: f, Errors: errs, Roles: domain.Roles})
	}
	if f.Get("password1") != f.Get("password2") {
		fail(map[string][]string{"password2": {"The two password fields didn't match."}})
		return
	}
	user, err := h.svc.Auth.Register(r.Context(), service.RegisterRequest{
		Username: f.Get("username"),
		Email:    f.Get("email"),
		Role:     f.Get("role"),
		Password: f.Get("password1"),
		Phone:    f.Get("phone"),
	})
	if err != nil {
		if fields, ok := validationFields(err); ok {
			fail(fields)
			return
		}
		h.flashError(r, sess, err)
		h.redirect(w, r, sess, "/register/")
		return
	}
	if !h.logIn(w, r, sess, &auth.Identity{UserID: user.ID, Username: user.Username, Role: user.Role}) {
		return
	}
	sess.AddFlash(store.FlashSuccess, fmt.Sprintf("Welcome, %s!", user.Username))
	h.redirect(w, r, sess, "/")
}

// LoginForm GET /login/
func (h *Web) LoginForm(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.begin(w, r)
	if !ok {
		return
	}
	h.render(w, r, sess, http.StatusOK, "login.html", "Log in", loginData{Next: safeNext(r.URL.Query().Get("next"))})
}

// Login POST /login/
func (h *Web) Login(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.begin(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	next := safeNext(r.PostForm.Get("next"))
	actor, err := h.svc.Auth.Authenticate(r.Context(), service.LoginRequest{
		Username:  r.PostForm.Get("username"),
		Password:  r.PostForm.Get("password"),
		IPAddress: getClientIP(r),
	})
	if err != nil {
		var se *service.Error
		if !errors.As(err, &se) {
			h.serverError(w, r, err)
			return
		}
		h.flashError(r, sess, err)
		h.render(w, r, sess, http.StatusBadRequest, "login.html", "Log in", loginData{Next: next, Username: r.PostForm.Get("username")})
		return
	}
	if !h.logIn(w, r, sess, actor) {
		return
	}
	h.redirect(w, r, sess, next)
}

// Logout POST /logout/
func (h *Web) Logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.begin(w, r)
	if !ok {
		return
	}
	if err := h.sessions.Destroy(r.Context(), sess.ID); err != nil {
		h.serverError(w, r, err)
		return
	}
	fresh := h.sessions.New()
	fresh.AddFlash(store.FlashInfo, "You have been logged out.")
	h.redirect(w, r, fresh, "/")
}

// logIn binds actor to the session under a new session id.
func (h *Web) logIn(w http.ResponseWriter, r *http.Request, sess *store.Session, actor *auth.Identity) bool {
	sess.UserID = actor.UserID
	sess.Username = actor.Username
	sess.Role = actor.Role
	if err := h.sessions.Rotate(r.Context(), sess); err != nil {
		h.serverError(w, r, err)
		return false
	}
	return true
}
