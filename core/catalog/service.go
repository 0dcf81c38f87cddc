package catalog

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/kmutombo/veridoc/core"
	"github.com/kmutombo/veridoc/core/user"
)

var (
	// errors
	ErrCountryNotFound     = errors.New("country not found")
	ErrCountryExists       = errors.New("a country with this code already exists")
	ErrRequirementNotFound = errors.New("document requirement not found")
)

type (
	Repository interface {
		CreateCountry(ctx context.Context, cty Country, exec ...core.DBExecutor) (Country, error)
		// QueryCountries returns countries sorted by name.
		QueryCountries(ctx context.Context, activeOnly bool, exec ...core.DBExecutor) ([]Country, error)
		GetCountry(ctx context.Context, id string, exec ...core.DBExecutor) (Country, error)
		CheckCountryCodeUniqueness(ctx context.Context, code string, excluded []Country, exec ...core.DBExecutor) error
		UpdateCountry(ctx context.Context, cty Country, exec ...core.DBExecutor) (Country, error)

		CreateRequirement(ctx context.Context, req Requirement, exec ...core.DBExecutor) (Requirement, error)
		// QueryRequirements returns requirements sorted by Order ascending,
		// then creation time, then id (stable display/evaluation order).
		QueryRequirements(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]Requirement, error)
		GetRequirement(ctx context.Context, id string, exec ...core.DBExecutor) (Requirement, error)
		UpdateRequirement(ctx context.Context, req Requirement, exec ...core.DBExecutor) (Requirement, error)
		DeleteRequirement(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	Service interface {
		CreateCountry(ctx context.Context, actor user.User, nc NewCountry) (Country, error)
		QueryCountries(ctx context.Context, actor user.User, activeOnly bool) ([]Country, error)
		GetCountry(ctx context.Context, id string) (Country, error)
		UpdateCountry(ctx context.Context, actor user.User, id string, uc UpdateCountry) (Country, error)

		CreateRequirement(ctx context.Context, actor user.User, nr NewRequirement) (Requirement, error)
		QueryRequirements(ctx context.Context, actor user.User, filter QueryFilter) ([]Requirement, error)
		GetRequirement(ctx context.Context, id string) (Requirement, error)
		UpdateRequirement(ctx context.Context, actor user.User, id string, ur UpdateRequirement) (Requirement, error)
		DeleteRequirement(ctx context.Context, actor user.User, id string) error
	}

	service struct {
		db   core.DB
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository) Service {
	return &service{db: db, repo: repo}
}

func (svc *service) CreateCountry(ctx context.Context, actor user.User, nc NewCountry) (Country, error) {
	if !actor.IsDirector() {
		return Country{}, core.ErrPermissionDenied
	}
	if err := nc.Validate(); err != nil {
		return Country{}, err
	}
	if err := svc.repo.CheckCountryCodeUniqueness(ctx, nc.Code, nil); err != nil {
		if errors.Cause(err) == ErrCountryExists {
			return Country{}, core.NewValidationError(err, core.FieldError{Field: "code", Error: err.Error()})
		}
		return Country{}, err
	}

	now := time.Now().UTC()
	cty := Country{
		Code:      nc.Code,
		Name:      nc.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	cty.SetActive(true)
	return svc.repo.CreateCountry(ctx, cty)
}

func (svc *service) QueryCountries(ctx context.Context, actor user.User, activeOnly bool) ([]Country, error) {
	// students only ever see active destinations
	if actor.IsStudent() && !actor.IsStaff() {
		activeOnly = true
	}
	return svc.repo.QueryCountries(ctx, activeOnly)
}

func (svc *service) GetCountry(ctx context.Context, id string) (Country, error) {
	return svc.repo.GetCountry(ctx, id)
}

func (svc *service) UpdateCountry(ctx context.Context, actor user.User, id string, uc UpdateCountry) (Country, error) {
	if !actor.IsDirector() {
		return Country{}, core.ErrPermissionDenied
	}
	if err := uc.Validate(); err != nil {
		return Country{}, err
	}

	cty, err := svc.repo.GetCountry(ctx, id)
	if err != nil {
		return Country{}, err
	}
	if uc.Code != "" && uc.Code != cty.Code {
		if err := svc.repo.CheckCountryCodeUniqueness(ctx, uc.Code, []Country{cty}); err != nil {
			if errors.Cause(err) == ErrCountryExists {
				return Country{}, core.NewValidationError(err, core.FieldError{Field: "code", Error: err.Error()})
			}
			return Country{}, err
		}
		cty.Code = uc.Code
	}
	if uc.Name != "" {
		cty.Name = uc.Name
	}
	if uc.IsActive != nil {
		cty.IsActive = uc.IsActive
	}
	cty.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCountry(ctx, cty)
}

func (svc *service) CreateRequirement(ctx context.Context, actor user.User, nr NewRequirement) (Requirement, error) {
	if !actor.IsDirector() {
		return Requirement{}, core.ErrPermissionDenied
	}
	if err := nr.Validate(); err != nil {
		return Requirement{}, err
	}
	if _, err := svc.repo.GetCountry(ctx, nr.CountryID); err != nil {
		if errors.Cause(err) == ErrCountryNotFound {
			return Requirement{}, core.NewValidationError(err, core.FieldError{Field: "country_id", Error: err.Error()})
		}
		return Requirement{}, err
	}

	now := time.Now().UTC()
	req := Requirement{
		CountryID:    nr.CountryID,
		DocumentType: nr.DocumentType,
		Title:        nr.Title,
		Description:  nr.Description,
		Required:     nr.Required,
		MaxFileSize:  nr.MaxFileSize,
		AllowedTypes: nr.AllowedTypes,
		Order:        nr.Order,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if nr.Active != nil {
		req.IsActive = nr.Active
	} else {
		req.SetActive(true)
	}
	if err := checkAllowedTypes(req); err != nil {
		return Requirement{}, err
	}
	return svc.repo.CreateRequirement(ctx, req)
}

func (svc *service) QueryRequirements(ctx context.Context, actor user.User, filter QueryFilter) ([]Requirement, error) {
	// students only see the active requirement set they submit against
	if actor.IsStudent() && !actor.IsStaff() {
		filter.ActiveOnly = true
	}
	return svc.repo.QueryRequirements(ctx, filter)
}

func (svc *service) GetRequirement(ctx context.Context, id string) (Requirement, error) {
	return svc.repo.GetRequirement(ctx, id)
}

func (svc *service) UpdateRequirement(ctx context.Context, actor user.User, id string, ur UpdateRequirement) (Requirement, error) {
	if !actor.IsDirector() {
		return Requirement{}, core.ErrPermissionDenied
	}
	if err := ur.Validate(); err != nil {
		return Requirement{}, err
	}

	req, err := svc.repo.GetRequirement(ctx, id)
	if err != nil {
		return Requirement{}, err
	}
	if ur.DocumentType != "" {
		req.DocumentType = ur.DocumentType
	}
	if ur.Title != "" {
		req.Title = ur.Title
	}
	if ur.Description != nil {
		req.Description = *ur.Description
	}
	if ur.Required != nil {
		req.Required = *ur.Required
	}
	if ur.MaxFileSize > 0 {
		req.MaxFileSize = ur.MaxFileSize
	}
	if ur.AllowedTypes != nil {
		req.AllowedTypes = ur.AllowedTypes
	}
	if ur.Order != nil {
		req.Order = *ur.Order
	}
	if ur.Active != nil {
		req.IsActive = ur.Active
	}

	if err := checkAllowedTypes(req); err != nil {
		return Requirement{}, err
	}

	req.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateRequirement(ctx, req)
}

// an active requirement must keep a non-empty allowed type set
func checkAllowedTypes(req Requirement) error {
	if req.Active() && len(req.AllowedTypes) == 0 {
		err := errors.New("an active requirement must allow at least one file type")
		return core.NewValidationError(err, core.FieldError{Field: "allowed_types", Error: err.Error()})
	}
	return nil
}

func (svc *service) DeleteRequirement(ctx context.Context, actor user.User, id string) error {
	if !actor.IsDirector() {
		return core.ErrPermissionDenied
	}
	if _, err := svc.repo.GetRequirement(ctx, id); err != nil {
		return err
	}
	// in-flight documents keep their historical requirement_id; no cascade
	return svc.repo.DeleteRequirement(ctx, id)
}
