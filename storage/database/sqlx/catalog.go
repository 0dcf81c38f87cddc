package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"

	"github.com/kmutombo/veridoc/core"
	"github.com/kmutombo/veridoc/core/catalog"
)

const (
	countryTable     = "country"
	requirementTable = "document_requirement"
)

type countryRow struct {
	ID        string    `db:"id"`
	Code      string    `db:"code"`
	Name      string    `db:"name"`
	IsActive  null.Bool `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

var countryColumns = []string{"id", "code", "name", "is_active", "created_at", "updated_at"}

func newCountryRow(cty catalog.Country) countryRow {
	row := countryRow{
		ID:        cty.ID,
		Code:      cty.Code,
		Name:      cty.Name,
		CreatedAt: cty.CreatedAt,
		UpdatedAt: cty.UpdatedAt,
	}
	if cty.IsActive != nil {
		row.IsActive = null.BoolFrom(*cty.IsActive)
	}
	return row
}

func (row countryRow) toCountry() catalog.Country {
	cty := catalog.Country{
		ID:        row.ID,
		Code:      row.Code,
		Name:      row.Name,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if row.IsActive.Valid {
		cty.SetActive(row.IsActive.Bool)
	}
	return cty
}

type requirementRow struct {
	ID           string         `db:"id"`
	CountryID    string         `db:"country_id"`
	DocumentType string         `db:"document_type"`
	Title        string         `db:"title"`
	Description  null.String    `db:"description"`
	IsRequired   bool           `db:"is_required"`
	MaxFileSize  int64          `db:"max_file_size"`
	AllowedTypes pq.StringArray `db:"allowed_types"`
	DisplayOrder int            `db:"display_order"`
	IsActive     null.Bool      `db:"is_active"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

var requirementColumns = []string{
	"id", "country_id", "document_type", "title", "description", "is_required",
	"max_file_size", "allowed_types", "display_order", "is_active", "created_at", "updated_at",
}

func newRequirementRow(req catalog.Requirement) requirementRow {
	row := requirementRow{
		ID:           req.ID,
		CountryID:    req.CountryID,
		DocumentType: string(req.DocumentType),
		Title:        req.Title,
		IsRequired:   req.Required,
		MaxFileSize:  req.MaxFileSize,
		AllowedTypes: req.AllowedTypes,
		DisplayOrder: req.Order,
		CreatedAt:    req.CreatedAt,
		UpdatedAt:    req.UpdatedAt,
	}
	if req.Description != "" {
		row.Description = null.StringFrom(req.Description)
	}
	if req.IsActive != nil {
		row.IsActive = null.BoolFrom(*req.IsActive)
	}
	return row
}

func (row requirementRow) toRequirement() catalog.Requirement {
	req := catalog.Requirement{
		ID:           row.ID,
		CountryID:    row.CountryID,
		DocumentType: catalog.DocumentType(row.DocumentType),
		Title:        row.Title,
		Description:  row.Description.String,
		Required:     row.IsRequired,
		MaxFileSize:  row.MaxFileSize,
		AllowedTypes: row.AllowedTypes,
		Order:        row.DisplayOrder,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if row.IsActive.Valid {
		req.SetActive(row.IsActive.Bool)
	}
	return req
}

func (row requirementRow) values() []interface{} {
	return []interface{}{
		row.ID, row.CountryID, row.DocumentType, row.Title, row.Description, row.IsRequired,
		row.MaxFileSize, row.AllowedTypes, row.DisplayOrder, row.IsActive, row.CreatedAt, row.UpdatedAt,
	}
}

type catalogRepository struct {
	db core.DB
}

var _ catalog.Repository = (*catalogRepository)(nil)

func NewCatalogRepository(db core.DB) *catalogRepository {
	return &catalogRepository{db: db}
}

func (repo *catalogRepository) CreateCountry(ctx context.Context, cty catalog.Country, exec ...core.DBExecutor) (catalog.Country, error) {
	if cty.ID == "" {
		cty.ID = uuid.NewString()
	}
	row := newCountryRow(cty)
	qb := psql.Insert(countryTable).Columns(countryColumns...).
		Values(row.ID, row.Code, row.Name, row.IsActive, row.CreatedAt, row.UpdatedAt)
	if _, err := execQuery(ctx, getExec(repo.db, exec), qb); err != nil {
		return catalog.Country{}, err
	}
	return cty, nil
}

func (repo *catalogRepository) QueryCountries(ctx context.Context, activeOnly bool, exec ...core.DBExecutor) ([]catalog.Country, error) {
	qb := psql.Select(countryColumns...).From(countryTable).OrderBy("name ASC")
	if activeOnly {
		qb = qb.Where(sq.Eq{"is_active": true})
	}

	var rows []countryRow
	if err := selectQuery(ctx, getExec(repo.db, exec), &rows, qb); err != nil {
		return nil, err
	}
	countries := make([]catalog.Country, 0, len(rows))
	for _, row := range rows {
		countries = append(countries, row.toCountry())
	}
	return countries, nil
}

func (repo *catalogRepository) GetCountry(ctx context.Context, id string, exec ...core.DBExecutor) (catalog.Country, error) {
	var rows []countryRow
	qb := psql.Select(countryColumns...).From(countryTable).Where(sq.Eq{"id": id}).Limit(1)
	if err := selectQuery(ctx, getExec(repo.db, exec), &rows, qb); err != nil {
		return catalog.Country{}, err
	}
	if len(rows) == 0 {
		return catalog.Country{}, catalog.ErrCountryNotFound
	}
	return rows[0].toCountry(), nil
}

func (repo *catalogRepository) CheckCountryCodeUniqueness(ctx context.Context, code string, excluded []catalog.Country, exec ...core.DBExecutor) error {
	qb := psql.Select("COUNT(*) AS count").From(countryTable).Where(sq.Eq{"code": code})
	if len(excluded) > 0 {
		ids := make([]string, 0, len(excluded))
		for _, cty := range excluded {
			ids = append(ids, cty.ID)
		}
		qb = qb.Where(sq.NotEq{"id": ids})
	}

	var counts []struct {
		Count int `db:"count"`
	}
	if err := selectQuery(ctx, getExec(repo.db, exec), &counts, qb); err != nil {
		return err
	}
	if len(counts) > 0 && counts[0].Count > 0 {
		return catalog.ErrCountryExists
	}
	return nil
}

func (repo *catalogRepository) UpdateCountry(ctx context.Context, cty catalog.Country, exec ...core.DBExecutor) (catalog.Country, error) {
	row := newCountryRow(cty)
	qb := psql.Update(countryTable).
		Set("code", row.Code).
		Set("name", row.Name).
		Set("is_active", row.IsActive).
		Set("updated_at", row.UpdatedAt).
		Where(sq.Eq{"id": cty.ID})

	res, err := execQuery(ctx, getExec(repo.db, exec), qb)
	if err != nil {
		return catalog.Country{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return catalog.Country{}, catalog.ErrCountryNotFound
	}
	return cty, nil
}

func (repo *catalogRepository) CreateRequirement(ctx context.Context, req catalog.Requirement, exec ...core.DBExecutor) (catalog.Requirement, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	qb := psql.Insert(requirementTable).Columns(requirementColumns...).Values(newRequirementRow(req).values()...)
	if _, err := execQuery(ctx, getExec(repo.db, exec), qb); err != nil {
		return catalog.Requirement{}, err
	}
	return req, nil
}

func (repo *catalogRepository) QueryRequirements(ctx context.Context, filter catalog.QueryFilter, exec ...core.DBExecutor) ([]catalog.Requirement, error) {
	qb := psql.Select(requirementColumns...).From(requirementTable).
		OrderBy("display_order ASC", "created_at ASC", "id ASC")
	if filter.CountryID != "" {
		qb = qb.Where(sq.Eq{"country_id": filter.CountryID})
	}
	if filter.ActiveOnly {
		qb = qb.Where(sq.Eq{"is_active": true})
	}

	var rows []requirementRow
	if err := selectQuery(ctx, getExec(repo.db, exec), &rows, qb); err != nil {
		return nil, err
	}
	reqs := make([]catalog.Requirement, 0, len(rows))
	for _, row := range rows {
		reqs = append(reqs, row.toRequirement())
	}
	return reqs, nil
}

func (repo *catalogRepository) GetRequirement(ctx context.Context, id string, exec ...core.DBExecutor) (catalog.Requirement, error) {
	var rows []requirementRow
	qb := psql.Select(requirementColumns...).From(requirementTable).Where(sq.Eq{"id": id}).Limit(1)
	if err := selectQuery(ctx, getExec(repo.db, exec), &rows, qb); err != nil {
		return catalog.Requirement{}, err
	}
	if len(rows) == 0 {
		return catalog.Requirement{}, catalog.ErrRequirementNotFound
	}
	return rows[0].toRequirement(), nil
}

func (repo *catalogRepository) UpdateRequirement(ctx context.Context, req catalog.Requirement, exec ...core.DBExecutor) (catalog.Requirement, error) {
	row := newRequirementRow(req)
	qb := psql.Update(requirementTable).
		Set("document_type", row.DocumentType).
		Set("title", row.Title).
		Set("description", row.Description).
		Set("is_required", row.IsRequired).
		Set("max_file_size", row.MaxFileSize).
		Set("allowed_types", row.AllowedTypes).
		Set("display_order", row.DisplayOrder).
		Set("is_active", row.IsActive).
		Set("updated_at", row.UpdatedAt).
		Where(sq.Eq{"id": req.ID})

	res, err := execQuery(ctx, getExec(repo.db, exec), qb)
	if err != nil {
		return catalog.Requirement{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return catalog.Requirement{}, catalog.ErrRequirementNotFound
	}
	return req, nil
}

func (repo *catalogRepository) DeleteRequirement(ctx context.Context, id string, exec ...core.DBExecutor) error {
	res, err := execQuery(ctx, getExec(repo.db, exec), psql.Delete(requirementTable).Where(sq.Eq{"id": id}))
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return catalog.ErrRequirementNotFound
	}
	return nil
}
