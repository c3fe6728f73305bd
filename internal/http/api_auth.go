package httpapi

import (
	"net/http"

	"rentalhub/internal/service"
)

type registerBody struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

type loginBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshBody struct {
	Refresh string `json:"refresh"`
}

// Register POST /api/auth/register
func (a *API) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var body registerBody
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		a.fail(w, r, err)
		return
	}
	user, err := a.svc.Auth.Register(r.Context(), service.RegisterRequest{
		Username: body.Username,
		Email:    body.Email,
		Role:     body.Role,
		Password: body.Password,
		Phone:    body.Phone,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(user))
}

// Login POST /api/auth/login
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var body loginBody
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		a.fail(w, r, err)
		return
	}
	pair, err := a.svc.Auth.Login(r.Context(), service.LoginRequest{
		Username:  body.Username,
		Password:  body.Password,
		IPAddress: getClientIP(r),
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(pair))
}

// Refresh POST /api/auth/refresh
func (a *API) Refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var body refreshBody
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		a.fail(w, r, err)
		return
	}
	resp, err := a.svc.Auth.Refresh(r.Context(), body.Refresh)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// Logout POST /api/auth/logout revokes the refresh token.
func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var body refreshBody
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.svc.Auth.Logout(r.Context(), body.Refresh); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

// Me GET /api/auth/me
func (a *API) Me(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	actor, ok := a.actor(w, r)
	if !ok {
		return
	}
	user, err := a.svc.Auth.Me(r.Context(), actor)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(user))
}
