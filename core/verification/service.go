package verification

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/kmutombo/veridoc/core"
	"github.com/kmutombo/veridoc/core/catalog"
	"github.com/kmutombo/veridoc/core/user"
)

type (
	Repository interface {
		// CreateRequest inserts the request and all of its documents.
		CreateRequest(ctx context.Context, req Request, docs []Document, exec ...core.DBExecutor) (Request, error)
		// GetRequest returns the request with all of its documents loaded.
		GetRequest(ctx context.Context, id string, exec ...core.DBExecutor) (Request, error)
		// QueryRequests applies AND operation on available QueryFilter fields.
		// Documents are not loaded.
		QueryRequests(ctx context.Context, filter *QueryFilter, pg core.Pagination, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Request, error)
		UpdateRequest(ctx context.Context, req Request, exec ...core.DBExecutor) (Request, error)

		GetDocument(ctx context.Context, id string, exec ...core.DBExecutor) (Document, error)
		// QueryDocuments returns all documents of a request, historical
		// uploads included, ordered by creation time then id.
		QueryDocuments(ctx context.Context, requestID string, exec ...core.DBExecutor) ([]Document, error)
		CreateDocument(ctx context.Context, doc Document, exec ...core.DBExecutor) (Document, error)
		UpdateDocument(ctx context.Context, doc Document, exec ...core.DBExecutor) (Document, error)
	}

	Service interface {
		Create(ctx context.Context, actor user.User, nr NewRequest) (Request, error)
		Get(ctx context.Context, actor user.User, id string) (Request, error)
		Query(ctx context.Context, actor user.User, filter *QueryFilter, pg core.Pagination, ordering []core.DBOrdering) ([]Request, error)
		Assign(ctx context.Context, actor user.User, requestID, assigneeID string) (Request, error)
		Review(ctx context.Context, actor user.User, documentID string, rd ReviewDocument) (Document, error)
		Resubmit(ctx context.Context, actor user.User, requestID string, rs ResubmitDocument) (Document, error)
	}

	service struct {
		db      core.DB
		repo    Repository
		catRepo catalog.Repository
		usrRepo user.Repository
		mailSvc core.EmailService

		syncMail bool // tests only
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository, catRepo catalog.Repository, usrRepo user.Repository, mailSvc core.EmailService) Service {
	return &service{db: db, repo: repo, catRepo: catRepo, usrRepo: usrRepo, mailSvc: mailSvc}
}

func (svc *service) Create(ctx context.Context, actor user.User, nr NewRequest) (Request, error) {
	if !actor.IsStudent() {
		return Request{}, core.ErrPermissionDenied
	}
	if err := nr.Validate(); err != nil {
		return Request{}, err
	}

	cty, err := svc.catRepo.GetCountry(ctx, nr.CountryID)
	if err != nil {
		if errors.Cause(err) == catalog.ErrCountryNotFound {
			return Request{}, core.NewValidationError(err, core.FieldError{Field: "country_id", Error: err.Error()})
		}
		return Request{}, err
	}
	if !cty.Active() {
		err := errors.New("this destination is not open for submissions")
		return Request{}, core.NewValidationError(err, core.FieldError{Field: "country_id", Error: err.Error()})
	}

	reqmts, err := svc.catRepo.QueryRequirements(ctx, catalog.QueryFilter{CountryID: cty.ID, ActiveOnly: true})
	if err != nil {
		return Request{}, err
	}
	reqmtsByID := make(map[string]catalog.Requirement, len(reqmts))
	for _, r := range reqmts {
		reqmtsByID[r.ID] = r
	}

	now := time.Now().UTC()
	seen := make(map[string]bool, len(nr.Documents))
	docs := make([]Document, 0, len(nr.Documents))
	for _, nd := range nr.Documents {
		reqmt, ok := reqmtsByID[nd.RequirementID]
		if !ok {
			return Request{}, &InvalidRequirementError{RequirementID: nd.RequirementID}
		}
		seen[nd.RequirementID] = true
		if err := nd.File.CheckAgainst(reqmt); err != nil {
			return Request{}, err
		}
		docs = append(docs, Document{
			RequirementID: nd.RequirementID,
			StudentID:     actor.ID,
			FileName:      nd.File.FileName,
			OriginalName:  nd.File.OriginalName,
			FileURL:       nd.File.FileURL,
			FileSize:      nd.File.FileSize,
			MimeType:      nd.File.MimeType,
			Status:        DocumentStatusPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}

	var missing []string
	for _, r := range reqmts {
		if r.Required && !seen[r.ID] {
			missing = append(missing, r.ID)
		}
	}
	if len(missing) > 0 {
		return Request{}, &MissingRequiredDocumentError{RequirementIDs: missing}
	}

	req := Request{
		StudentID: actor.ID,
		CountryID: cty.ID,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var created Request
	err = core.Atomic(ctx, svc.db, func(tx core.DBExecutor) error {
		created, err = svc.repo.CreateRequest(ctx, req, docs, tx)
		return err
	})
	if err != nil {
		return Request{}, err
	}
	return created, nil
}

func (svc *service) Get(ctx context.Context, actor user.User, id string) (Request, error) {
	req, err := svc.repo.GetRequest(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if err := scopeRequest(actor, req); err != nil {
		return Request{}, err
	}
	return req, nil
}

func (svc *service) Query(ctx context.Context, actor user.User, filter *QueryFilter, pg core.Pagination, ordering []core.DBOrdering) ([]Request, error) {
	if filter == nil {
		filter = &QueryFilter{}
	}
	switch {
	case actor.IsDirector():
		// unrestricted
	case actor.IsAssociate():
		filter.AssignedToID = actor.ID
	default:
		filter.StudentID = actor.ID
	}
	return svc.repo.QueryRequests(ctx, filter, pg.Clean(), ordering)
}

func (svc *service) Assign(ctx context.Context, actor user.User, requestID, assigneeID string) (Request, error) {
	if !actor.IsDirector() {
		return Request{}, core.ErrPermissionDenied
	}

	assignee, err := svc.usrRepo.GetUser(ctx, user.GetFilter{ID: assigneeID})
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return Request{}, core.NewValidationError(err, core.FieldError{Field: "assigned_to_id", Error: err.Error()})
		}
		return Request{}, err
	}
	if !assignee.IsStaff() || !assignee.Active() {
		err := errors.New("requests can only be assigned to active staff members")
		return Request{}, core.NewValidationError(err, core.FieldError{Field: "assigned_to_id", Error: err.Error()})
	}

	req, err := svc.repo.GetRequest(ctx, requestID)
	if err != nil {
		return Request{}, err
	}
	req.AssignedToID = assignee.ID
	req.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateRequest(ctx, req)
}

func (svc *service) Review(ctx context.Context, actor user.User, documentID string, rd ReviewDocument) (Document, error) {
	if !actor.IsStaff() {
		return Document{}, core.ErrPermissionDenied
	}
	if err := rd.Validate(); err != nil {
		return Document{}, err
	}

	var (
		doc       Document
		req       Request
		newStatus Status
	)
	err := core.Atomic(ctx, svc.db, func(tx core.DBExecutor) error {
		var err error
		if doc, err = svc.repo.GetDocument(ctx, documentID, tx); err != nil {
			return err
		}
		if req, err = svc.repo.GetRequest(ctx, doc.RequestID, tx); err != nil {
			return err
		}
		// associates only see the requests assigned to them
		if !actor.IsDirector() && req.AssignedToID != actor.ID {
			return ErrDocumentNotFound
		}
		// APPROVED is terminal; a rejection may still be corrected
		if doc.Status == DocumentStatusApproved {
			return ErrInvalidTransition
		}

		docs, err := svc.repo.QueryDocuments(ctx, req.ID, tx)
		if err != nil {
			return err
		}
		// once a resubmission replaced this document, its verdict is frozen
		for _, d := range docs {
			if d.ParentDocumentID == doc.ID {
				return ErrInvalidTransition
			}
		}

		now := time.Now().UTC()
		doc.Status = DocumentStatus(rd.Decision)
		doc.ReviewedByID = actor.ID
		doc.ReviewedAt = now
		doc.ReviewNotes = rd.Notes
		doc.RejectionReason = ""
		if rd.Decision != DecisionApproved {
			doc.RejectionReason = rd.RejectionReason
		}
		doc.UpdatedAt = now
		if doc, err = svc.repo.UpdateDocument(ctx, doc, tx); err != nil {
			return err
		}

		for i := range docs {
			if docs[i].ID == doc.ID {
				docs[i] = doc
			}
		}
		newStatus = DeriveStatus(docs)
		req.Status = newStatus
		req.ReviewedByID = actor.ID
		req.ReviewedAt = now
		req.UpdatedAt = now
		req, err = svc.repo.UpdateRequest(ctx, req, tx)
		return err
	})
	if err != nil {
		return Document{}, err
	}

	svc.notifyReviewed(ctx, req, doc, rd, newStatus)
	return doc, nil
}

func (svc *service) Resubmit(ctx context.Context, actor user.User, requestID string, rs ResubmitDocument) (Document, error) {
	if !actor.IsStudent() {
		return Document{}, core.ErrPermissionDenied
	}
	if err := rs.Validate(); err != nil {
		return Document{}, err
	}

	var created Document
	err := core.Atomic(ctx, svc.db, func(tx core.DBExecutor) error {
		req, err := svc.repo.GetRequest(ctx, requestID, tx)
		if err != nil {
			return err
		}
		if req.StudentID != actor.ID {
			return ErrRequestNotFound
		}
		if req.Status.Terminal() {
			return ErrNotResubmittable
		}

		parent, err := svc.repo.GetDocument(ctx, rs.ParentDocumentID, tx)
		if err != nil {
			return err
		}
		if parent.RequestID != req.ID {
			return ErrDocumentNotFound
		}
		if !parent.Resubmittable() {
			return ErrNotResubmittable
		}

		docs, err := svc.repo.QueryDocuments(ctx, req.ID, tx)
		if err != nil {
			return err
		}
		for _, d := range docs {
			if d.ParentDocumentID == parent.ID {
				// the chain already moved on
				return ErrNotResubmittable
			}
		}

		// a requirement deleted since the original submission only gets a
		// completeness check; there is nothing left to size-check against
		reqmt, err := svc.catRepo.GetRequirement(ctx, parent.RequirementID, tx)
		if err != nil && errors.Cause(err) != catalog.ErrRequirementNotFound {
			return err
		}
		if err == nil {
			if err := rs.File.CheckAgainst(reqmt); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		created, err = svc.repo.CreateDocument(ctx, Document{
			RequestID:        req.ID,
			RequirementID:    parent.RequirementID,
			StudentID:        actor.ID,
			FileName:         rs.File.FileName,
			OriginalName:     rs.File.OriginalName,
			FileURL:          rs.File.FileURL,
			FileSize:         rs.File.FileSize,
			MimeType:         rs.File.MimeType,
			Status:           DocumentStatusPending,
			ParentDocumentID: parent.ID,
			CreatedAt:        now,
			UpdatedAt:        now,
		}, tx)
		if err != nil {
			return err
		}

		req.Status = DeriveStatus(append(docs, created))
		req.UpdatedAt = now
		_, err = svc.repo.UpdateRequest(ctx, req, tx)
		return err
	})
	if err != nil {
		return Document{}, err
	}
	return created, nil
}

func scopeRequest(actor user.User, req Request) error {
	switch {
	case actor.IsDirector():
		return nil
	case actor.IsAssociate():
		if req.AssignedToID != actor.ID {
			return ErrRequestNotFound
		}
	default:
		if req.StudentID != actor.ID {
			return ErrRequestNotFound
		}
	}
	return nil
}

func (svc *service) notifyReviewed(ctx context.Context, req Request, doc Document, rd ReviewDocument, newStatus Status) {
	student, err := svc.usrRepo.GetUser(ctx, user.GetFilter{ID: req.StudentID})
	if err != nil {
		return
	}
	to := []mail.Address{{Name: student.Name, Address: student.Email}}

	var messages []*core.EmailMessage
	if rd.Decision != DecisionApproved {
		title := "your document"
		if reqmt, err := svc.catRepo.GetRequirement(ctx, doc.RequirementID); err == nil {
			title = reqmt.Title
		}
		messages = append(messages, &core.EmailMessage{
			To:           to,
			Subject:      "A document needs your attention",
			TemplateName: "document-rejected",
			TemplateData: struct {
				StudentName   string
				DocumentTitle string
				Decision      string
				Reason        string
				RequestID     string
			}{student.Name, title, string(rd.Decision), rd.RejectionReason, req.ID},
		})
	}
	if newStatus == StatusCompleted {
		messages = append(messages, &core.EmailMessage{
			To:           to,
			Subject:      "Your documents have been verified",
			TemplateName: "request-completed",
			TemplateData: struct {
				StudentName string
				RequestID   string
			}{student.Name, req.ID},
		})
	}
	if len(messages) == 0 {
		return
	}

	if svc.syncMail {
		svc.mailSvc.SendMessages(messages...)
		return
	}
	go svc.mailSvc.SendMessages(messages...)
}
