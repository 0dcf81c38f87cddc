package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/kmutombo/veridoc/core/catalog"
	"github.com/kmutombo/veridoc/core/user"
)

func TestCountryAPI(t *testing.T) {
	app := initTestApp(t)
	student := app.addUser(t, "leila", user.StudentRoles)
	director := app.addUser(t, "awa", user.DirectorRoles)

	t.Run("creation is director-only", func(t *testing.T) {
		body := catalog.NewCountry{Code: "CA", Name: "Canada"}

		rec := app.do(newRequest(t, http.MethodPost, "/v1/countries", body))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("code = %d, want %d", rec.Code, http.StatusUnauthorized)
		}

		rec = app.do(newAuthRequest(t, http.MethodPost, "/v1/countries", body, getToken(t, student)))
		if rec.Code != http.StatusForbidden {
			t.Errorf("code = %d, want %d", rec.Code, http.StatusForbidden)
		}

		rec = app.do(newAuthRequest(t, http.MethodPost, "/v1/countries", body, getToken(t, director)))
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var cty catalog.Country
		decodeBody(t, rec, &cty)
		if cty.Code != "CA" || !cty.Active() {
			t.Errorf("country = %+v, want active CA", cty)
		}
	})

	t.Run("students only list active destinations", func(t *testing.T) {
		inactive := catalog.Country{Code: "GB", Name: "United Kingdom"}
		if _, err := app.catRepo.CreateCountry(context.Background(), inactive); err != nil {
			t.Fatalf("CreateCountry() error = %v", err)
		}

		rec := app.do(newAuthRequest(t, http.MethodGet, "/v1/countries", nil, getToken(t, student)))
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d, want %d", rec.Code, http.StatusOK)
		}
		var ctys []catalog.Country
		decodeBody(t, rec, &ctys)
		if len(ctys) != 1 {
			t.Errorf("countries = %d, want 1", len(ctys))
		}

		rec = app.do(newAuthRequest(t, http.MethodGet, "/v1/countries", nil, getToken(t, director)))
		ctys = nil
		decodeBody(t, rec, &ctys)
		if len(ctys) != 2 {
			t.Errorf("countries = %d, want 2", len(ctys))
		}
	})

	t.Run("update", func(t *testing.T) {
		cty, _ := app.seedCatalog(t)
		body := catalog.UpdateCountry{Name: "Canada (updated)"}

		rec := app.do(newAuthRequest(t, http.MethodPut, "/v1/countries/"+cty.ID, body, getToken(t, student)))
		if rec.Code != http.StatusForbidden {
			t.Errorf("code = %d, want %d", rec.Code, http.StatusForbidden)
		}

		rec = app.do(newAuthRequest(t, http.MethodPut, "/v1/countries/"+cty.ID, body, getToken(t, director)))
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var got catalog.Country
		decodeBody(t, rec, &got)
		if got.Name != body.Name {
			t.Errorf("name = %v, want %v", got.Name, body.Name)
		}
	})

	t.Run("unknown country", func(t *testing.T) {
		rec := app.do(newAuthRequest(t, http.MethodGet, "/v1/countries/missing", nil, getToken(t, director)))
		if rec.Code != http.StatusNotFound {
			t.Errorf("code = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})
}

func TestRequirementAPI(t *testing.T) {
	app := initTestApp(t)
	cty, reqmt := app.seedCatalog(t)
	student := app.addUser(t, "leila", user.StudentRoles)
	director := app.addUser(t, "awa", user.DirectorRoles)

	t.Run("creation validates the country", func(t *testing.T) {
		body := catalog.NewRequirement{
			CountryID:    "11111111-2222-4333-8444-555555555555",
			DocumentType: catalog.DocumentTypePhoto,
			Title:        "Passport Photo",
			MaxFileSize:  2 << 20,
			AllowedTypes: []string{"jpg"},
		}
		rec := app.do(newAuthRequest(t, http.MethodPost, "/v1/requirements", body, getToken(t, director)))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %d, want %d: %s", rec.Code, http.StatusBadRequest, rec.Body.String())
		}

		body.CountryID = cty.ID
		rec = app.do(newAuthRequest(t, http.MethodPost, "/v1/requirements", body, getToken(t, director)))
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
	})

	t.Run("listing", func(t *testing.T) {
		rec := app.do(newAuthRequest(t, http.MethodGet, "/v1/requirements?country_id="+cty.ID, nil, getToken(t, student)))
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d, want %d", rec.Code, http.StatusOK)
		}
		var reqmts []catalog.Requirement
		decodeBody(t, rec, &reqmts)
		if len(reqmts) == 0 {
			t.Error("requirements = 0, want some")
		}
	})

	t.Run("deletion is director-only", func(t *testing.T) {
		rec := app.do(newAuthRequest(t, http.MethodDelete, "/v1/requirements/"+reqmt.ID, nil, getToken(t, student)))
		if rec.Code != http.StatusForbidden {
			t.Errorf("code = %d, want %d", rec.Code, http.StatusForbidden)
		}

		rec = app.do(newAuthRequest(t, http.MethodDelete, "/v1/requirements/"+reqmt.ID, nil, getToken(t, director)))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("code = %d, want %d: %s", rec.Code, http.StatusNoContent, rec.Body.String())
		}

		rec = app.do(newAuthRequest(t, http.MethodGet, "/v1/requirements/"+reqmt.ID, nil, getToken(t, director)))
		if rec.Code != http.StatusNotFound {
			t.Errorf("code = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})
}
