package catalog_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/kmutombo/veridoc/core"
	"github.com/kmutombo/veridoc/core/catalog"
	"github.com/kmutombo/veridoc/core/user"
	"github.com/kmutombo/veridoc/storage/database/inmem"
)

func setup(t *testing.T) (catalog.Service, catalog.Repository) {
	t.Helper()
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() error = %v", err)
	}
	repo := inmemdb.NewCatalogRepository(db)
	return catalog.NewService(nil, repo), repo
}

func actor(roles []string) user.User {
	usr := user.User{ID: "actor-id", Name: "Test Actor", Roles: roles}
	usr.SetActive(true)
	return usr
}

func addCountry(t *testing.T, svc catalog.Service, code, name string) catalog.Country {
	t.Helper()
	cty, err := svc.CreateCountry(context.Background(), actor(user.DirectorRoles), catalog.NewCountry{Code: code, Name: name})
	if err != nil {
		t.Fatalf("CreateCountry(%s) error = %v", code, err)
	}
	return cty
}

func TestServiceCreateCountry(t *testing.T) {
	ctx := context.Background()

	t.Run("created active with an upper-cased code", func(t *testing.T) {
		svc, _ := setup(t)
		cty, err := svc.CreateCountry(ctx, actor(user.DirectorRoles), catalog.NewCountry{Code: "ca", Name: "Canada"})
		if err != nil {
			t.Fatalf("CreateCountry() error = %v", err)
		}
		if cty.Code != "CA" {
			t.Errorf("CreateCountry() code = %v, want CA", cty.Code)
		}
		if !cty.Active() {
			t.Error("CreateCountry() inactive, want active")
		}
	})

	t.Run("directors only", func(t *testing.T) {
		svc, _ := setup(t)
		for name, roles := range map[string][]string{
			"associate": user.AssociateRoles,
			"student":   user.StudentRoles,
		} {
			_, err := svc.CreateCountry(ctx, actor(roles), catalog.NewCountry{Code: "CA", Name: "Canada"})
			if err != core.ErrPermissionDenied {
				t.Errorf("CreateCountry(%s) error = %v, want %v", name, err, core.ErrPermissionDenied)
			}
		}
	})

	t.Run("code is unique", func(t *testing.T) {
		svc, _ := setup(t)
		addCountry(t, svc, "CA", "Canada")

		_, err := svc.CreateCountry(ctx, actor(user.DirectorRoles), catalog.NewCountry{Code: "ca", Name: "Canada bis"})
		var vErr *core.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("CreateCountry() error = %v, want *core.ValidationError", err)
		}
		if len(vErr.Fields) != 1 || vErr.Fields[0].Field != "code" {
			t.Errorf("CreateCountry() fields = %v, want code", vErr.Fields)
		}
	})
}

func TestServiceUpdateCountry(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)
	cty := addCountry(t, svc, "CA", "Canada")
	addCountry(t, svc, "GB", "United Kingdom")

	t.Run("deactivation", func(t *testing.T) {
		active := false
		got, err := svc.UpdateCountry(ctx, actor(user.DirectorRoles), cty.ID, catalog.UpdateCountry{IsActive: &active})
		if err != nil {
			t.Fatalf("UpdateCountry() error = %v", err)
		}
		if got.Active() {
			t.Error("UpdateCountry() active, want inactive")
		}
	})

	t.Run("code collision", func(t *testing.T) {
		_, err := svc.UpdateCountry(ctx, actor(user.DirectorRoles), cty.ID, catalog.UpdateCountry{Code: "gb"})
		var vErr *core.ValidationError
		if !errors.As(err, &vErr) {
			t.Errorf("UpdateCountry() error = %v, want *core.ValidationError", err)
		}
	})

	t.Run("unknown country", func(t *testing.T) {
		_, err := svc.UpdateCountry(ctx, actor(user.DirectorRoles), "missing", catalog.UpdateCountry{Name: "Nowhere"})
		if errors.Cause(err) != catalog.ErrCountryNotFound {
			t.Errorf("UpdateCountry() error = %v, want %v", err, catalog.ErrCountryNotFound)
		}
	})
}

func TestServiceQueryCountries(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)
	addCountry(t, svc, "CA", "Canada")
	inactive := addCountry(t, svc, "GB", "United Kingdom")
	off := false
	if _, err := svc.UpdateCountry(ctx, actor(user.DirectorRoles), inactive.ID, catalog.UpdateCountry{IsActive: &off}); err != nil {
		t.Fatalf("UpdateCountry() error = %v", err)
	}

	tests := []struct {
		name       string
		actor      user.User
		activeOnly bool
		want       int
	}{
		{"staff see everything", actor(user.DirectorRoles), false, 2},
		{"staff can filter", actor(user.AssociateRoles), true, 1},
		{"students only see active destinations", actor(user.StudentRoles), false, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctys, err := svc.QueryCountries(ctx, tt.actor, tt.activeOnly)
			if err != nil {
				t.Fatalf("QueryCountries() error = %v", err)
			}
			if len(ctys) != tt.want {
				t.Errorf("QueryCountries() len = %d, want %d", len(ctys), tt.want)
			}
		})
	}
}

func TestServiceCreateRequirement(t *testing.T) {
	ctx := context.Background()
	director := actor(user.DirectorRoles)
	newReqmt := func(countryID string) catalog.NewRequirement {
		return catalog.NewRequirement{
			CountryID:    countryID,
			DocumentType: catalog.DocumentTypePassport,
			Title:        "Valid Passport",
			Required:     true,
			MaxFileSize:  5 << 20,
			AllowedTypes: []string{"PDF", "jpg", ""},
		}
	}

	t.Run("created active with cleaned extensions", func(t *testing.T) {
		svc, _ := setup(t)
		cty := addCountry(t, svc, "CA", "Canada")

		reqmt, err := svc.CreateRequirement(ctx, director, newReqmt(cty.ID))
		if err != nil {
			t.Fatalf("CreateRequirement() error = %v", err)
		}
		if !reqmt.Active() {
			t.Error("CreateRequirement() inactive, want active")
		}
		if len(reqmt.AllowedTypes) != 2 || reqmt.AllowedTypes[0] != "pdf" || reqmt.AllowedTypes[1] != "jpg" {
			t.Errorf("CreateRequirement() allowed types = %v, want [pdf jpg]", reqmt.AllowedTypes)
		}
	})

	t.Run("country must exist", func(t *testing.T) {
		svc, _ := setup(t)
		_, err := svc.CreateRequirement(ctx, director, newReqmt("11111111-2222-4333-8444-555555555555"))
		var vErr *core.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("CreateRequirement() error = %v, want *core.ValidationError", err)
		}
		if len(vErr.Fields) != 1 || vErr.Fields[0].Field != "country_id" {
			t.Errorf("CreateRequirement() fields = %v, want country_id", vErr.Fields)
		}
	})

	t.Run("directors only", func(t *testing.T) {
		svc, _ := setup(t)
		cty := addCountry(t, svc, "CA", "Canada")
		if _, err := svc.CreateRequirement(ctx, actor(user.AssociateRoles), newReqmt(cty.ID)); err != core.ErrPermissionDenied {
			t.Errorf("CreateRequirement() error = %v, want %v", err, core.ErrPermissionDenied)
		}
	})

	t.Run("an active requirement needs allowed types", func(t *testing.T) {
		svc, _ := setup(t)
		cty := addCountry(t, svc, "CA", "Canada")

		nr := newReqmt(cty.ID)
		nr.AllowedTypes = nil
		_, err := svc.CreateRequirement(ctx, director, nr)
		var vErr *core.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("CreateRequirement() error = %v, want *core.ValidationError", err)
		}
		if len(vErr.Fields) != 1 || vErr.Fields[0].Field != "allowed_types" {
			t.Errorf("CreateRequirement() fields = %v, want allowed_types", vErr.Fields)
		}

		// an inactive draft may leave them out
		off := false
		nr.Active = &off
		if _, err := svc.CreateRequirement(ctx, director, nr); err != nil {
			t.Errorf("CreateRequirement() error = %v", err)
		}
	})
}

func TestServiceUpdateRequirement(t *testing.T) {
	ctx := context.Background()
	director := actor(user.DirectorRoles)
	svc, repo := setup(t)
	cty := addCountry(t, svc, "CA", "Canada")
	reqmt, err := svc.CreateRequirement(ctx, director, catalog.NewRequirement{
		CountryID:    cty.ID,
		DocumentType: catalog.DocumentTypePassport,
		Title:        "Valid Passport",
		Required:     true,
		MaxFileSize:  5 << 20,
		AllowedTypes: []string{"pdf"},
	})
	if err != nil {
		t.Fatalf("CreateRequirement() error = %v", err)
	}

	t.Run("partial update", func(t *testing.T) {
		got, err := svc.UpdateRequirement(ctx, director, reqmt.ID, catalog.UpdateRequirement{Title: "Passport"})
		if err != nil {
			t.Fatalf("UpdateRequirement() error = %v", err)
		}
		if got.Title != "Passport" {
			t.Errorf("UpdateRequirement() title = %v, want Passport", got.Title)
		}
		if got.MaxFileSize != reqmt.MaxFileSize {
			t.Errorf("UpdateRequirement() max size = %d, want %d", got.MaxFileSize, reqmt.MaxFileSize)
		}
	})

	t.Run("an active requirement keeps its allowed types", func(t *testing.T) {
		// empty out the type set directly; the API validators refuse min=1
		stored, err := repo.GetRequirement(ctx, reqmt.ID)
		if err != nil {
			t.Fatalf("GetRequirement() error = %v", err)
		}
		stored.AllowedTypes = nil
		if _, err := repo.UpdateRequirement(ctx, stored); err != nil {
			t.Fatalf("UpdateRequirement() error = %v", err)
		}

		on := true
		_, err = svc.UpdateRequirement(ctx, director, reqmt.ID, catalog.UpdateRequirement{Active: &on})
		var vErr *core.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("UpdateRequirement() error = %v, want *core.ValidationError", err)
		}
		if len(vErr.Fields) != 1 || vErr.Fields[0].Field != "allowed_types" {
			t.Errorf("UpdateRequirement() fields = %v, want allowed_types", vErr.Fields)
		}
	})
}

func TestServiceDeleteRequirement(t *testing.T) {
	ctx := context.Background()
	director := actor(user.DirectorRoles)
	svc, _ := setup(t)
	cty := addCountry(t, svc, "CA", "Canada")
	reqmt, err := svc.CreateRequirement(ctx, director, catalog.NewRequirement{
		CountryID:    cty.ID,
		DocumentType: catalog.DocumentTypePhoto,
		Title:        "Passport Photo",
		MaxFileSize:  2 << 20,
		AllowedTypes: []string{"jpg", "png"},
	})
	if err != nil {
		t.Fatalf("CreateRequirement() error = %v", err)
	}

	if err := svc.DeleteRequirement(ctx, actor(user.StudentRoles), reqmt.ID); err != core.ErrPermissionDenied {
		t.Errorf("DeleteRequirement() error = %v, want %v", err, core.ErrPermissionDenied)
	}
	if err := svc.DeleteRequirement(ctx, director, reqmt.ID); err != nil {
		t.Fatalf("DeleteRequirement() error = %v", err)
	}
	if _, err := svc.GetRequirement(ctx, reqmt.ID); errors.Cause(err) != catalog.ErrRequirementNotFound {
		t.Errorf("GetRequirement() error = %v, want %v", err, catalog.ErrRequirementNotFound)
	}
}

func TestServiceQueryRequirements(t *testing.T) {
	ctx := context.Background()
	director := actor(user.DirectorRoles)
	svc, _ := setup(t)
	cty := addCountry(t, svc, "CA", "Canada")

	inactive := false
	specs := []catalog.NewRequirement{
		{CountryID: cty.ID, DocumentType: catalog.DocumentTypePassport, Title: "Valid Passport", Required: true, MaxFileSize: 5 << 20, AllowedTypes: []string{"pdf"}, Order: 1},
		{CountryID: cty.ID, DocumentType: catalog.DocumentTypePhoto, Title: "Passport Photo", MaxFileSize: 2 << 20, AllowedTypes: []string{"jpg"}, Order: 0},
		{CountryID: cty.ID, DocumentType: catalog.DocumentTypeResume, Title: "Resume", MaxFileSize: 2 << 20, AllowedTypes: []string{"pdf"}, Order: 2, Active: &inactive},
	}
	for _, nr := range specs {
		if _, err := svc.CreateRequirement(ctx, director, nr); err != nil {
			t.Fatalf("CreateRequirement(%s) error = %v", nr.Title, err)
		}
	}

	t.Run("staff see the full set in display order", func(t *testing.T) {
		reqmts, err := svc.QueryRequirements(ctx, director, catalog.QueryFilter{CountryID: cty.ID})
		if err != nil {
			t.Fatalf("QueryRequirements() error = %v", err)
		}
		if len(reqmts) != 3 {
			t.Fatalf("QueryRequirements() len = %d, want 3", len(reqmts))
		}
		want := []string{"Passport Photo", "Valid Passport", "Resume"}
		for i, reqmt := range reqmts {
			if reqmt.Title != want[i] {
				t.Errorf("QueryRequirements()[%d] = %v, want %v", i, reqmt.Title, want[i])
			}
		}
	})

	t.Run("students only see the active set", func(t *testing.T) {
		reqmts, err := svc.QueryRequirements(ctx, actor(user.StudentRoles), catalog.QueryFilter{CountryID: cty.ID})
		if err != nil {
			t.Fatalf("QueryRequirements() error = %v", err)
		}
		if len(reqmts) != 2 {
			t.Errorf("QueryRequirements() len = %d, want 2", len(reqmts))
		}
	})
}
