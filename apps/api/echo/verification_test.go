package echoapi

import (
	"net/http"
	"testing"

	"github.com/kmutombo/veridoc/core/user"
	"github.com/kmutombo/veridoc/core/verification"
)

func TestVerificationRequestAPI(t *testing.T) {
	app := initTestApp(t)
	cty, reqmt := app.seedCatalog(t)

	student := app.addUser(t, "leila", user.StudentRoles)
	otherStudent := app.addUser(t, "fatou", user.StudentRoles)
	associate := app.addUser(t, "moussa", user.AssociateRoles)
	director := app.addUser(t, "awa", user.DirectorRoles)

	newRequestBody := func() verification.NewRequest {
		return verification.NewRequest{
			CountryID: cty.ID,
			Documents: []verification.NewDocument{
				{RequirementID: reqmt.ID, File: testFile("passport")},
			},
		}
	}

	t.Run("submission requires authentication", func(t *testing.T) {
		rec := app.do(newRequest(t, http.MethodPost, "/v1/verification-requests", newRequestBody()))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("code = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("student submits", func(t *testing.T) {
		rec := app.do(newAuthRequest(t, http.MethodPost, "/v1/verification-requests", newRequestBody(), getToken(t, student)))
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var req verification.Request
		decodeBody(t, rec, &req)
		if req.Status != verification.StatusPending {
			t.Errorf("status = %v, want %v", req.Status, verification.StatusPending)
		}
		if len(req.Documents) != 1 {
			t.Errorf("documents = %d, want 1", len(req.Documents))
		}
	})

	t.Run("staff may not submit", func(t *testing.T) {
		rec := app.do(newAuthRequest(t, http.MethodPost, "/v1/verification-requests", newRequestBody(), getToken(t, director)))
		if rec.Code != http.StatusForbidden {
			t.Errorf("code = %d, want %d", rec.Code, http.StatusForbidden)
		}
	})

	t.Run("incomplete submission is rejected", func(t *testing.T) {
		body := newRequestBody()
		body.Documents[0].File.OriginalName = "passport.exe"
		rec := app.do(newAuthRequest(t, http.MethodPost, "/v1/verification-requests", body, getToken(t, student)))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %d, want %d: %s", rec.Code, http.StatusBadRequest, rec.Body.String())
		}
	})

	t.Run("listing is scoped to the caller", func(t *testing.T) {
		mine := app.submit(t, otherStudent, cty, reqmt)

		rec := app.do(newAuthRequest(t, http.MethodGet, "/v1/verification-requests", nil, getToken(t, otherStudent)))
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d, want %d", rec.Code, http.StatusOK)
		}
		var reqs []verification.Request
		decodeBody(t, rec, &reqs)
		if len(reqs) != 1 || reqs[0].ID != mine.ID {
			t.Errorf("requests = %v, want only %v", reqs, mine.ID)
		}

		// an unassigned associate sees nothing
		rec = app.do(newAuthRequest(t, http.MethodGet, "/v1/verification-requests", nil, getToken(t, associate)))
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d, want %d", rec.Code, http.StatusOK)
		}
		reqs = nil
		decodeBody(t, rec, &reqs)
		if len(reqs) != 0 {
			t.Errorf("requests = %d, want 0", len(reqs))
		}
	})

	t.Run("foreign requests are hidden", func(t *testing.T) {
		req := app.submit(t, student, cty, reqmt)
		rec := app.do(newAuthRequest(t, http.MethodGet, "/v1/verification-requests/"+req.ID, nil, getToken(t, otherStudent)))
		if rec.Code != http.StatusNotFound {
			t.Errorf("code = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("assignment is director-only", func(t *testing.T) {
		req := app.submit(t, student, cty, reqmt)
		body := AssignRequest{AssignedToID: associate.ID}

		rec := app.do(newAuthRequest(t, http.MethodPut, "/v1/verification-requests/"+req.ID+"/assign", body, getToken(t, associate)))
		if rec.Code != http.StatusForbidden {
			t.Errorf("code = %d, want %d", rec.Code, http.StatusForbidden)
		}

		rec = app.do(newAuthRequest(t, http.MethodPut, "/v1/verification-requests/"+req.ID+"/assign", body, getToken(t, director)))
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var got verification.Request
		decodeBody(t, rec, &got)
		if got.AssignedToID != associate.ID {
			t.Errorf("assignee = %v, want %v", got.AssignedToID, associate.ID)
		}
	})
}

func TestDocumentReviewAPI(t *testing.T) {
	app := initTestApp(t)
	cty, reqmt := app.seedCatalog(t)

	student := app.addUser(t, "leila", user.StudentRoles)
	director := app.addUser(t, "awa", user.DirectorRoles)

	approve := verification.ReviewDocument{Decision: verification.DecisionApproved}
	reject := verification.ReviewDocument{
		Decision:        verification.DecisionRejected,
		RejectionReason: "The scan is not legible",
	}

	t.Run("students may not review", func(t *testing.T) {
		req := app.submit(t, student, cty, reqmt)
		rec := app.do(newAuthRequest(t, http.MethodPut, "/v1/documents/"+req.Documents[0].ID+"/review", approve, getToken(t, student)))
		if rec.Code != http.StatusForbidden {
			t.Errorf("code = %d, want %d", rec.Code, http.StatusForbidden)
		}
	})

	t.Run("approval", func(t *testing.T) {
		req := app.submit(t, student, cty, reqmt)
		rec := app.do(newAuthRequest(t, http.MethodPut, "/v1/documents/"+req.Documents[0].ID+"/review", approve, getToken(t, director)))
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var doc verification.Document
		decodeBody(t, rec, &doc)
		if doc.Status != verification.DocumentStatusApproved {
			t.Errorf("status = %v, want %v", doc.Status, verification.DocumentStatusApproved)
		}

		// a second verdict on the same document conflicts
		rec = app.do(newAuthRequest(t, http.MethodPut, "/v1/documents/"+req.Documents[0].ID+"/review", reject, getToken(t, director)))
		if rec.Code != http.StatusConflict {
			t.Errorf("code = %d, want %d", rec.Code, http.StatusConflict)
		}
	})

	t.Run("rejection without a reason fails", func(t *testing.T) {
		req := app.submit(t, student, cty, reqmt)
		body := verification.ReviewDocument{Decision: verification.DecisionRejected}
		rec := app.do(newAuthRequest(t, http.MethodPut, "/v1/documents/"+req.Documents[0].ID+"/review", body, getToken(t, director)))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %d, want %d: %s", rec.Code, http.StatusBadRequest, rec.Body.String())
		}
	})

	t.Run("unknown document", func(t *testing.T) {
		rec := app.do(newAuthRequest(t, http.MethodPut, "/v1/documents/missing/review", approve, getToken(t, director)))
		if rec.Code != http.StatusNotFound {
			t.Errorf("code = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("resubmission after rejection", func(t *testing.T) {
		req := app.submit(t, student, cty, reqmt)
		parent := req.Documents[0]
		rec := app.do(newAuthRequest(t, http.MethodPut, "/v1/documents/"+parent.ID+"/review", reject, getToken(t, director)))
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
		}

		body := verification.ResubmitDocument{ParentDocumentID: parent.ID, File: testFile("passport-v2")}
		rec = app.do(newAuthRequest(t, http.MethodPost, "/v1/verification-requests/"+req.ID+"/documents", body, getToken(t, student)))
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var doc verification.Document
		decodeBody(t, rec, &doc)
		if doc.ParentDocumentID != parent.ID {
			t.Errorf("parent = %v, want %v", doc.ParentDocumentID, parent.ID)
		}

		// the replaced document cannot be resubmitted twice
		body.File = testFile("passport-v3")
		rec = app.do(newAuthRequest(t, http.MethodPost, "/v1/verification-requests/"+req.ID+"/documents", body, getToken(t, student)))
		if rec.Code != http.StatusConflict {
			t.Errorf("code = %d, want %d", rec.Code, http.StatusConflict)
		}
	})
}
