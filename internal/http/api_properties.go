package httpapi

import (
	"net/http"

	"rentalhub/internal/search"
	"rentalhub/internal/service"
)

type propertyBody struct {
	Name        *string `json:"name"`
	Category    *string `json:"category"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
	Price       *text   `json:"price"`
	IsAvailable *bool   `json:"is_available"`
}

// full PUT semantics: omitted fields are sent as empty and fail validation where required
func (b *propertyBody) fill() {
	empty := func(p **string) {
		if *p == nil {
			s := ""
			*p = &s
		}
	}
	empty(&b.Name)
	empty(&b.Category)
	empty(&b.Description)
	empty(&b.Location)
	if b.Price == nil {
		t := text("")
		b.Price = &t
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Properties GET (filtered list) | POST (create) /api/properties
func (a *API) Properties(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.actor(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		res, err := a.svc.Properties.List(r.Context(), actor, search.ParseCriteria(r.URL.Query()), a.page(r))
		if err != nil {
			a.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, Ok(pageOf(res)))
	case http.MethodPost:
		var body propertyBody
		if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
			a.fail(w, r, err)
			return
		}
		created, err := a.svc.Properties.Create(r.Context(), actor, service.CreatePropertyRequest{
			Name:        deref(body.Name),
			Category:    deref(body.Category),
			Description: deref(body.Description),
			Location:    deref(body.Location),
			Price:       deref(body.Price.ptr()),
			IsAvailable: body.IsAvailable,
		})
		if err != nil {
			a.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, Ok(created))
	default:
		methodNotAllowed(w, r, "GET, POST")
	}
}

// PropertyByID GET | PUT | PATCH | DELETE /api/properties/{id}
func (a *API) PropertyByID(w http.ResponseWriter, r *http.Request) {
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
		p, err := a.svc.Properties.Get(r.Context(), actor, id)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, Ok(p))
	case http.MethodPut, http.MethodPatch:
		var body propertyBody
		if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
			a.fail(w, r, err)
			return
		}
		if r.Method == http.MethodPut {
			body.fill()
		}
		updated, err := a.svc.Properties.Update(r.Context(), actor, id, service.UpdatePropertyRequest{
			Name:        body.Name,
			Category:    body.Category,
			Description: body.Description,
			Location:    body.Location,
			Price:       body.Price.ptr(),
			IsAvailable: body.IsAvailable,
		})
		if err != nil {
			a.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, Ok(updated))
	case http.MethodDelete:
		if err := a.svc.Properties.Delete(r.Context(), actor, id); err != nil {
			a.fail(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, "GET, PUT, PATCH, DELETE")
	}
}

// PropertyReviews GET /api/properties/{id}/reviews
func (a *API) PropertyReviews(w http.ResponseWriter, r *http.Request) {
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
	// unknown property is a 404, not an empty list
	if _, err := a.svc.Properties.Get(r.Context(), actor, id); err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.svc.Reviews.List(r.Context(), actor, id, a.page(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(pageOf(res)))
}
