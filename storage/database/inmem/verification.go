package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/kmutombo/veridoc/core"
	"github.com/kmutombo/veridoc/core/verification"
)

type verificationRepository struct {
	requests  *requestTable
	documents *documentTable
}

var _ verification.Repository = (*verificationRepository)(nil)

func NewVerificationRepository(db *DB) *verificationRepository {
	return &verificationRepository{requests: db.request, documents: db.document}
}

func (repo *verificationRepository) CreateRequest(ctx context.Context, req verification.Request, docs []verification.Document, exec ...core.DBExecutor) (verification.Request, error) {
	repo.requests.mutex.Lock()
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	stored := req
	stored.Documents = nil
	repo.requests.table[req.ID] = &stored
	repo.requests.mutex.Unlock()

	req.Documents = make([]verification.Document, 0, len(docs))
	for _, doc := range docs {
		doc.RequestID = req.ID
		created, err := repo.CreateDocument(ctx, doc, exec...)
		if err != nil {
			return verification.Request{}, err
		}
		req.Documents = append(req.Documents, created)
	}
	return req, nil
}

func (repo *verificationRepository) GetRequest(ctx context.Context, id string, exec ...core.DBExecutor) (verification.Request, error) {
	repo.requests.mutex.RLock()
	stored, ok := repo.requests.table[id]
	if !ok {
		repo.requests.mutex.RUnlock()
		return verification.Request{}, verification.ErrRequestNotFound
	}
	req := *stored
	repo.requests.mutex.RUnlock()

	docs, err := repo.QueryDocuments(ctx, req.ID, exec...)
	if err != nil {
		return verification.Request{}, err
	}
	req.Documents = docs
	return req, nil
}

func (repo *verificationRepository) QueryRequests(ctx context.Context, filter *verification.QueryFilter, pg core.Pagination, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]verification.Request, error) {
	repo.requests.mutex.RLock()
	defer repo.requests.mutex.RUnlock()

	reqs := make([]verification.Request, 0, len(repo.requests.table))
	for _, req := range repo.requests.table {
		if filter != nil {
			if filter.StudentID != "" && req.StudentID != filter.StudentID {
				continue
			}
			if filter.CountryID != "" && req.CountryID != filter.CountryID {
				continue
			}
			if filter.Status != "" && req.Status != filter.Status {
				continue
			}
			if filter.AssignedToID != "" && req.AssignedToID != filter.AssignedToID {
				continue
			}
		}
		reqs = append(reqs, *req)
	}
	// newest first, like the SQL repository
	sort.Slice(reqs, func(i, j int) bool {
		if reqs[i].CreatedAt.Equal(reqs[j].CreatedAt) {
			return reqs[i].ID > reqs[j].ID
		}
		return reqs[i].CreatedAt.After(reqs[j].CreatedAt)
	})

	pg = pg.Clean()
	if pg.Offset >= len(reqs) {
		return []verification.Request{}, nil
	}
	reqs = reqs[pg.Offset:]
	if pg.Limit < len(reqs) {
		reqs = reqs[:pg.Limit]
	}
	return reqs, nil
}

func (repo *verificationRepository) UpdateRequest(ctx context.Context, req verification.Request, exec ...core.DBExecutor) (verification.Request, error) {
	repo.requests.mutex.Lock()
	defer repo.requests.mutex.Unlock()

	if _, ok := repo.requests.table[req.ID]; !ok {
		return verification.Request{}, verification.ErrRequestNotFound
	}
	stored := req
	stored.Documents = nil
	repo.requests.table[req.ID] = &stored
	return req, nil
}

func (repo *verificationRepository) GetDocument(ctx context.Context, id string, exec ...core.DBExecutor) (verification.Document, error) {
	repo.documents.mutex.RLock()
	defer repo.documents.mutex.RUnlock()

	if doc, ok := repo.documents.table[id]; ok {
		return *doc, nil
	}
	return verification.Document{}, verification.ErrDocumentNotFound
}

func (repo *verificationRepository) QueryDocuments(ctx context.Context, requestID string, exec ...core.DBExecutor) ([]verification.Document, error) {
	repo.documents.mutex.RLock()
	defer repo.documents.mutex.RUnlock()

	docs := make([]verification.Document, 0, len(repo.documents.table))
	for _, doc := range repo.documents.table {
		if doc.RequestID == requestID {
			docs = append(docs, *doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].ID < docs[j].ID
		}
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})
	return docs, nil
}

func (repo *verificationRepository) CreateDocument(ctx context.Context, doc verification.Document, exec ...core.DBExecutor) (verification.Document, error) {
	repo.documents.mutex.Lock()
	defer repo.documents.mutex.Unlock()

	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	repo.documents.table[doc.ID] = &doc
	return doc, nil
}

func (repo *verificationRepository) UpdateDocument(ctx context.Context, doc verification.Document, exec ...core.DBExecutor) (verification.Document, error) {
	repo.documents.mutex.Lock()
	defer repo.documents.mutex.Unlock()

	if _, ok := repo.documents.table[doc.ID]; !ok {
		return verification.Document{}, verification.ErrDocumentNotFound
	}
	repo.documents.table[doc.ID] = &doc
	return doc, nil
}
