package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/kmutombo/veridoc/core"
	"github.com/kmutombo/veridoc/core/catalog"
)

type catalogRepository struct {
	countries    *countryTable
	requirements *requirementTable
}

var _ catalog.Repository = (*catalogRepository)(nil)

func NewCatalogRepository(db *DB) *catalogRepository {
	return &catalogRepository{countries: db.country, requirements: db.requirement}
}

func (repo *catalogRepository) CreateCountry(ctx context.Context, cty catalog.Country, exec ...core.DBExecutor) (catalog.Country, error) {
	repo.countries.mutex.Lock()
	defer repo.countries.mutex.Unlock()

	if cty.ID == "" {
		cty.ID = uuid.NewString()
	}
	repo.countries.table[cty.ID] = &cty
	return cty, nil
}

func (repo *catalogRepository) QueryCountries(ctx context.Context, activeOnly bool, exec ...core.DBExecutor) ([]catalog.Country, error) {
	repo.countries.mutex.RLock()
	defer repo.countries.mutex.RUnlock()

	countries := make([]catalog.Country, 0, len(repo.countries.table))
	for _, cty := range repo.countries.table {
		if activeOnly && !cty.Active() {
			continue
		}
		countries = append(countries, *cty)
	}
	sort.Slice(countries, func(i, j int) bool { return countries[i].Name < countries[j].Name })
	return countries, nil
}

func (repo *catalogRepository) GetCountry(ctx context.Context, id string, exec ...core.DBExecutor) (catalog.Country, error) {
	repo.countries.mutex.RLock()
	defer repo.countries.mutex.RUnlock()

	if cty, ok := repo.countries.table[id]; ok {
		return *cty, nil
	}
	return catalog.Country{}, catalog.ErrCountryNotFound
}

func (repo *catalogRepository) CheckCountryCodeUniqueness(ctx context.Context, code string, excluded []catalog.Country, exec ...core.DBExecutor) error {
	repo.countries.mutex.RLock()
	defer repo.countries.mutex.RUnlock()

	excludedIDs := make(map[string]bool, len(excluded))
	for _, cty := range excluded {
		excludedIDs[cty.ID] = true
	}
	for _, cty := range repo.countries.table {
		if cty.Code == code && !excludedIDs[cty.ID] {
			return catalog.ErrCountryExists
		}
	}
	return nil
}

func (repo *catalogRepository) UpdateCountry(ctx context.Context, cty catalog.Country, exec ...core.DBExecutor) (catalog.Country, error) {
	repo.countries.mutex.Lock()
	defer repo.countries.mutex.Unlock()

	if _, ok := repo.countries.table[cty.ID]; !ok {
		return catalog.Country{}, catalog.ErrCountryNotFound
	}
	repo.countries.table[cty.ID] = &cty
	return cty, nil
}

func (repo *catalogRepository) CreateRequirement(ctx context.Context, req catalog.Requirement, exec ...core.DBExecutor) (catalog.Requirement, error) {
	repo.requirements.mutex.Lock()
	defer repo.requirements.mutex.Unlock()

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	repo.requirements.table[req.ID] = &req
	return req, nil
}

func (repo *catalogRepository) QueryRequirements(ctx context.Context, filter catalog.QueryFilter, exec ...core.DBExecutor) ([]catalog.Requirement, error) {
	repo.requirements.mutex.RLock()
	defer repo.requirements.mutex.RUnlock()

	reqs := make([]catalog.Requirement, 0, len(repo.requirements.table))
	for _, req := range repo.requirements.table {
		if filter.CountryID != "" && req.CountryID != filter.CountryID {
			continue
		}
		if filter.ActiveOnly && !req.Active() {
			continue
		}
		reqs = append(reqs, *req)
	}
	sort.Slice(reqs, func(i, j int) bool {
		if reqs[i].Order != reqs[j].Order {
			return reqs[i].Order < reqs[j].Order
		}
		if !reqs[i].CreatedAt.Equal(reqs[j].CreatedAt) {
			return reqs[i].CreatedAt.Before(reqs[j].CreatedAt)
		}
		return reqs[i].ID < reqs[j].ID
	})
	return reqs, nil
}

func (repo *catalogRepository) GetRequirement(ctx context.Context, id string, exec ...core.DBExecutor) (catalog.Requirement, error) {
	repo.requirements.mutex.RLock()
	defer repo.requirements.mutex.RUnlock()

	if req, ok := repo.requirements.table[id]; ok {
		return *req, nil
	}
	return catalog.Requirement{}, catalog.ErrRequirementNotFound
}

func (repo *catalogRepository) UpdateRequirement(ctx context.Context, req catalog.Requirement, exec ...core.DBExecutor) (catalog.Requirement, error) {
	repo.requirements.mutex.Lock()
	defer repo.requirements.mutex.Unlock()

	if _, ok := repo.requirements.table[req.ID]; !ok {
		return catalog.Requirement{}, catalog.ErrRequirementNotFound
	}
	repo.requirements.table[req.ID] = &req
	return req, nil
}

func (repo *catalogRepository) DeleteRequirement(ctx context.Context, id string, exec ...core.DBExecutor) error {
	repo.requirements.mutex.Lock()
	defer repo.requirements.mutex.Unlock()

	if _, ok := repo.requirements.table[id]; !ok {
		return catalog.ErrRequirementNotFound
	}
	delete(repo.requirements.table, id)
	return nil
}
