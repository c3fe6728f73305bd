package httpapi

import (
	"net/http"
	"strconv"

	"rentalhub/internal/service"
)

type applicationBody struct {
	Property text   `json:"property"`
	Message  string `json:"message"`
}

type statusBody struct {
	Status string `json:"status"`
}

type paymentBody struct {
	Application text `json:"application"`
	Amount      text `json:"amount"`
}

type reviewBody struct {
	Property text   `json:"property"`
	Rating   text   `json:"rating"`
	Comment  string `json:"comment"`
}

// ============================================
// Applications
// ============================================

// Applications GET (scoped list) | POST (apply) /api/applications
func (a *API) Applications(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.actor(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		res, err := a.svc.Applications.List(r.Context(), actor, a.page(r))
		if err != nil {
			a.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, Ok(pageOf(res)))
	case http.MethodPost:
		var body applicationBody
		if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
			a.fail(w, r, err)
			return
		}
		fe := service.FieldErrors{}
		propertyID := idField(fe, "property", body.Property)
		if err := fe.Err(); err != nil {
			a.fail(w, r, err)
			return
		}
		app, err := a.svc.Applications.Apply(r.Context(), actor, service.ApplyRequest{
			PropertyID: propertyID,
			Message:    body.Message,
		})
		if err != nil {
			a.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, Ok(app))
	default:
		methodNotAllowed(w, r, "GET, POST")
	}
}

// ApplicationByID GET | PUT | PATCH /api/applications/{id}; only status is writable.
func (a *API) ApplicationByID(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r)
	if !ok {
		return
	}
	actor, ok := a.actor(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		app, err := a.svc.Applications.Get(r.Context(), actor, id)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, Ok(app))
	case http.MethodPut, http.MethodPatch:
		var body statusBody
		if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
			a.fail(w, r, err)
			return
		}
		app, err := a.svc.Applications.UpdateStatus(r.Context(), actor, id, service.UpdateStatusRequest{Status: body.Status})
		if err != nil {
			a.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, Ok(app))
	default:
		methodNotAllowed(w, r, "GET, PUT, PATCH")
	}
}

// ============================================
// Payments
// ============================================

// Payments GET (scoped list) | POST (pay) /api/payments
func (a *API) Payments(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.actor(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		res, err := a.svc.Payments.List(r.Context(), actor, a.page(r))
		if err != nil {
			a.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, Ok(pageOf(res)))
	case http.MethodPost:
		var body paymentBody
		if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
			a.fail(w, r, err)
			return
		}
		fe := service.FieldErrors{}
		applicationID := idField(fe, "application", body.Application)
		if err := fe.Err(); err != nil {
			a.fail(w, r, err)
			return
		}
		pay, err := a.svc.Payments.Pay(r.Context(), actor, service.PayRequest{
			ApplicationID: applicationID,
			Amount:        string(body.Amount),
		})
		if err != nil {
			a.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, Ok(pay))
	default:
		methodNotAllowed(w, r, "GET, POST")
	}
}

// PaymentByID GET /api/payments/{id}
func (a *API) PaymentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	id, ok := a.pathID(w, r)
	if !ok {
		return
	}
	actor, ok := a.actor(w, r)
	if !ok {
		return
	}
	pay, err := a.svc.Payments.Get(r.Context(), actor, id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(pay))
}

// ============================================
// Reviews
// ============================================

// Reviews GET ?property= | POST /api/reviews
func (a *API) Reviews(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.actor(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		var propertyID int64
		if raw := r.URL.Query().Get("property"); raw != "" {
			// unparsable filter matches nothing rather than everything
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				writeJSON(w, http.StatusOK, Ok(pageOf(&service.ListResult[service.ReviewDTO]{Page: a.page(r)})))
				return
			}
			propertyID = id
		}
		res, err := a.svc.Reviews.List(r.Context(), actor, propertyID, a.page(r))
		if err != nil {
			a.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, Ok(pageOf(res)))
	case http.MethodPost:
		var body reviewBody
		if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
			a.fail(w, r, err)
			return
		}
		fe := service.FieldErrors{}
		propertyID := idField(fe, "property", body.Property)
		if err := fe.Err(); err != nil {
			a.fail(w, r, err)
			return
		}
		review, err := a.svc.Reviews.Create(r.Context(), actor, service.CreateReviewRequest{
			PropertyID: propertyID,
			Rating:     string(body.Rating),
			Comment:    body.Comment,
		})
		if err != nil {
			a.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, Ok(review))
	default:
		methodNotAllowed(w, r, "GET, POST")
	}
}

// ReviewByID GET /api/reviews/{id}
func (a *API) ReviewByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	id, ok := a.pathID(w, r)
	if !ok {
		return
	}
	actor, ok := a.actor(w, r)
	if !ok {
		return
	}
	review, err := a.svc.Reviews.Get(r.Context(), actor, id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(review))
}
