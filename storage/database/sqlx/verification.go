package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/kmutombo/veridoc/core"
	"github.com/kmutombo/veridoc/core/verification"
)

const (
	requestTable  = "verification_request"
	documentTable = "student_document"
)

type requestRow struct {
	ID           string      `db:"id"`
	StudentID    string      `db:"student_id"`
	CountryID    string      `db:"country_id"`
	Status       string      `db:"status"`
	AssignedToID null.String `db:"assigned_to_id"`
	ReviewedByID null.String `db:"reviewed_by_id"`
	ReviewedAt   null.Time   `db:"reviewed_at"`
	ReviewNotes  null.String `db:"review_notes"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

var requestColumns = []string{
	"id", "student_id", "country_id", "status", "assigned_to_id",
	"reviewed_by_id", "reviewed_at", "review_notes", "created_at", "updated_at",
}

func newRequestRow(req verification.Request) requestRow {
	row := requestRow{
		ID:        req.ID,
		StudentID: req.StudentID,
		CountryID: req.CountryID,
		Status:    string(req.Status),
		CreatedAt: req.CreatedAt,
		UpdatedAt: req.UpdatedAt,
	}
	if req.AssignedToID != "" {
		row.AssignedToID = null.StringFrom(req.AssignedToID)
	}
	if req.ReviewedByID != "" {
		row.ReviewedByID = null.StringFrom(req.ReviewedByID)
	}
	if !req.ReviewedAt.IsZero() {
		row.ReviewedAt = null.TimeFrom(req.ReviewedAt)
	}
	if req.ReviewNotes != "" {
		row.ReviewNotes = null.StringFrom(req.ReviewNotes)
	}
	return row
}

func (row requestRow) toRequest() verification.Request {
	return verification.Request{
		ID:           row.ID,
		StudentID:    row.StudentID,
		CountryID:    row.CountryID,
		Status:       verification.Status(row.Status),
		AssignedToID: row.AssignedToID.String,
		ReviewedByID: row.ReviewedByID.String,
		ReviewedAt:   row.ReviewedAt.Time,
		ReviewNotes:  row.ReviewNotes.String,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func (row requestRow) values() []interface{} {
	return []interface{}{
		row.ID, row.StudentID, row.CountryID, row.Status, row.AssignedToID,
		row.ReviewedByID, row.ReviewedAt, row.ReviewNotes, row.CreatedAt, row.UpdatedAt,
	}
}

type documentRow struct {
	ID               string      `db:"id"`
	RequestID        string      `db:"request_id"`
	RequirementID    string      `db:"requirement_id"`
	StudentID        string      `db:"student_id"`
	FileName         string      `db:"file_name"`
	OriginalName     string      `db:"original_name"`
	FileURL          string      `db:"file_url"`
	FileSize         int64       `db:"file_size"`
	MimeType         string      `db:"mime_type"`
	Status           string      `db:"status"`
	ReviewedByID     null.String `db:"reviewed_by_id"`
	ReviewedAt       null.Time   `db:"reviewed_at"`
	ReviewNotes      null.String `db:"review_notes"`
	RejectionReason  null.String `db:"rejection_reason"`
	ParentDocumentID null.String `db:"parent_document_id"`
	CreatedAt        time.Time   `db:"created_at"`
	UpdatedAt        time.Time   `db:"updated_at"`
}

var documentColumns = []string{
	"id", "request_id", "requirement_id", "student_id", "file_name", "original_name",
	"file_url", "file_size", "mime_type", "status", "reviewed_by_id", "reviewed_at",
	"review_notes", "rejection_reason", "parent_document_id", "created_at", "updated_at",
}

func newDocumentRow(doc verification.Document) documentRow {
	row := documentRow{
		ID:            doc.ID,
		RequestID:     doc.RequestID,
		RequirementID: doc.RequirementID,
		StudentID:     doc.StudentID,
		FileName:      doc.FileName,
		OriginalName:  doc.OriginalName,
		FileURL:       doc.FileURL,
		FileSize:      doc.FileSize,
		MimeType:      doc.MimeType,
		Status:        string(doc.Status),
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
	if doc.ReviewedByID != "" {
		row.ReviewedByID = null.StringFrom(doc.ReviewedByID)
	}
	if !doc.ReviewedAt.IsZero() {
		row.ReviewedAt = null.TimeFrom(doc.ReviewedAt)
	}
	if doc.ReviewNotes != "" {
		row.ReviewNotes = null.StringFrom(doc.ReviewNotes)
	}
	if doc.RejectionReason != "" {
		row.RejectionReason = null.StringFrom(doc.RejectionReason)
	}
	if doc.ParentDocumentID != "" {
		row.ParentDocumentID = null.StringFrom(doc.ParentDocumentID)
	}
	return row
}

func (row documentRow) toDocument() verification.Document {
	return verification.Document{
		ID:               row.ID,
		RequestID:        row.RequestID,
		RequirementID:    row.RequirementID,
		StudentID:        row.StudentID,
		FileName:         row.FileName,
		OriginalName:     row.OriginalName,
		FileURL:          row.FileURL,
		FileSize:         row.FileSize,
		MimeType:         row.MimeType,
		Status:           verification.DocumentStatus(row.Status),
		ReviewedByID:     row.ReviewedByID.String,
		ReviewedAt:       row.ReviewedAt.Time,
		ReviewNotes:      row.ReviewNotes.String,
		RejectionReason:  row.RejectionReason.String,
		ParentDocumentID: row.ParentDocumentID.String,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
}

func (row documentRow) values() []interface{} {
	return []interface{}{
		row.ID, row.RequestID, row.RequirementID, row.StudentID, row.FileName, row.OriginalName,
		row.FileURL, row.FileSize, row.MimeType, row.Status, row.ReviewedByID, row.ReviewedAt,
		row.ReviewNotes, row.RejectionReason, row.ParentDocumentID, row.CreatedAt, row.UpdatedAt,
	}
}

type verificationRepository struct {
	db core.DB
}

var _ verification.Repository = (*verificationRepository)(nil)

func NewVerificationRepository(db core.DB) *verificationRepository {
	return &verificationRepository{db: db}
}

func (repo *verificationRepository) CreateRequest(ctx context.Context, req verification.Request, docs []verification.Document, exec ...core.DBExecutor) (verification.Request, error) {
	ex := getExec(repo.db, exec)

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	qb := psql.Insert(requestTable).Columns(requestColumns...).Values(newRequestRow(req).values()...)
	if _, err := execQuery(ctx, ex, qb); err != nil {
		return verification.Request{}, err
	}

	req.Documents = make([]verification.Document, 0, len(docs))
	for _, doc := range docs {
		doc.RequestID = req.ID
		created, err := repo.CreateDocument(ctx, doc, ex)
		if err != nil {
			return verification.Request{}, err
		}
		req.Documents = append(req.Documents, created)
	}
	return req, nil
}

func (repo *verificationRepository) GetRequest(ctx context.Context, id string, exec ...core.DBExecutor) (verification.Request, error) {
	ex := getExec(repo.db, exec)

	var rows []requestRow
	qb := psql.Select(requestColumns...).From(requestTable).Where(sq.Eq{"id": id}).Limit(1)
	if err := selectQuery(ctx, ex, &rows, qb); err != nil {
		return verification.Request{}, err
	}
	if len(rows) == 0 {
		return verification.Request{}, verification.ErrRequestNotFound
	}

	req := rows[0].toRequest()
	docs, err := repo.QueryDocuments(ctx, req.ID, ex)
	if err != nil {
		return verification.Request{}, err
	}
	req.Documents = docs
	return req, nil
}

func (repo *verificationRepository) QueryRequests(ctx context.Context, filter *verification.QueryFilter, pg core.Pagination, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]verification.Request, error) {
	qb := psql.Select(requestColumns...).From(requestTable)

	if filter != nil {
		if filter.StudentID != "" {
			qb = qb.Where(sq.Eq{"student_id": filter.StudentID})
		}
		if filter.CountryID != "" {
			qb = qb.Where(sq.Eq{"country_id": filter.CountryID})
		}
		if filter.Status != "" {
			qb = qb.Where(sq.Eq{"status": string(filter.Status)})
		}
		if filter.AssignedToID != "" {
			qb = qb.Where(sq.Eq{"assigned_to_id": filter.AssignedToID})
		}
	}

	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at", Ascending: false}}
	}
	for _, ord := range ordering {
		qb = qb.OrderBy(ord.String())
	}
	qb = qb.Limit(uint64(pg.Limit)).Offset(uint64(pg.Offset))

	var rows []requestRow
	if err := selectQuery(ctx, getExec(repo.db, exec), &rows, qb); err != nil {
		return nil, err
	}
	reqs := make([]verification.Request, 0, len(rows))
	for _, row := range rows {
		reqs = append(reqs, row.toRequest())
	}
	return reqs, nil
}

func (repo *verificationRepository) UpdateRequest(ctx context.Context, req verification.Request, exec ...core.DBExecutor) (verification.Request, error) {
	row := newRequestRow(req)
	qb := psql.Update(requestTable).
		Set("status", row.Status).
		Set("assigned_to_id", row.AssignedToID).
		Set("reviewed_by_id", row.ReviewedByID).
		Set("reviewed_at", row.ReviewedAt).
		Set("review_notes", row.ReviewNotes).
		Set("updated_at", row.UpdatedAt).
		Where(sq.Eq{"id": req.ID})

	res, err := execQuery(ctx, getExec(repo.db, exec), qb)
	if err != nil {
		return verification.Request{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return verification.Request{}, verification.ErrRequestNotFound
	}
	return req, nil
}

func (repo *verificationRepository) GetDocument(ctx context.Context, id string, exec ...core.DBExecutor) (verification.Document, error) {
	var rows []documentRow
	qb := psql.Select(documentColumns...).From(documentTable).Where(sq.Eq{"id": id}).Limit(1)
	if err := selectQuery(ctx, getExec(repo.db, exec), &rows, qb); err != nil {
		return verification.Document{}, err
	}
	if len(rows) == 0 {
		return verification.Document{}, verification.ErrDocumentNotFound
	}
	return rows[0].toDocument(), nil
}

func (repo *verificationRepository) QueryDocuments(ctx context.Context, requestID string, exec ...core.DBExecutor) ([]verification.Document, error) {
	qb := psql.Select(documentColumns...).From(documentTable).
		Where(sq.Eq{"request_id": requestID}).
		OrderBy("created_at ASC", "id ASC")

	var rows []documentRow
	if err := selectQuery(ctx, getExec(repo.db, exec), &rows, qb); err != nil {
		return nil, err
	}
	docs := make([]verification.Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, row.toDocument())
	}
	return docs, nil
}

func (repo *verificationRepository) CreateDocument(ctx context.Context, doc verification.Document, exec ...core.DBExecutor) (verification.Document, error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	qb := psql.Insert(documentTable).Columns(documentColumns...).Values(newDocumentRow(doc).values()...)
	if _, err := execQuery(ctx, getExec(repo.db, exec), qb); err != nil {
		return verification.Document{}, err
	}
	return doc, nil
}

func (repo *verificationRepository) UpdateDocument(ctx context.Context, doc verification.Document, exec ...core.DBExecutor) (verification.Document, error) {
	row := newDocumentRow(doc)
	qb := psql.Update(documentTable).
		Set("status", row.Status).
		Set("reviewed_by_id", row.ReviewedByID).
		Set("reviewed_at", row.ReviewedAt).
		Set("review_notes", row.ReviewNotes).
		Set("rejection_reason", row.RejectionReason).
		Set("updated_at", row.UpdatedAt).
		Where(sq.Eq{"id": doc.ID})

	res, err := execQuery(ctx, getExec(repo.db, exec), qb)
	if err != nil {
		return verification.Document{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return verification.Document{}, verification.ErrDocumentNotFound
	}
	return doc, nil
}
