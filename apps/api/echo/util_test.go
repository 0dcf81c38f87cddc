package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kmutombo/veridoc/core/catalog"
	"github.com/kmutombo/veridoc/core/user"
	"github.com/kmutombo/veridoc/core/verification"
	"github.com/kmutombo/veridoc/services/email"
	"github.com/kmutombo/veridoc/services/logger"
	"github.com/kmutombo/veridoc/storage/database/inmem"
)

const testPassword = "t3Stp@ssw0rd!"

type testApp struct {
	server Server

	usrSvc   user.Service
	catSvc   catalog.Service
	verifSvc verification.Service

	usrRepo   user.Repository
	catRepo   catalog.Repository
	verifRepo verification.Repository
}

func initTestApp(t *testing.T) *testApp {
	t.Helper()
	emailsvc.ClearSentMessages()

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() error = %v", err)
	}
	app := &testApp{
		usrRepo:   inmemdb.NewUserRepository(db),
		catRepo:   inmemdb.NewCatalogRepository(db),
		verifRepo: inmemdb.NewVerificationRepository(db),
	}
	mailSvc := emailsvc.NewConsoleServiceMock()
	app.usrSvc = user.NewServiceMock(nil, app.usrRepo, mailSvc)
	app.catSvc = catalog.NewService(nil, app.catRepo)
	app.verifSvc = verification.NewServiceMock(nil, app.verifRepo, app.catRepo, app.usrRepo, mailSvc)

	app.server = NewServer("127.0.0.1:0", ServerDeps{
		Logger:          logsvc.NewStdLogger(log.New(ioutil.Discard, "", 0)),
		UserSvc:         app.usrSvc,
		CatalogSvc:      app.catSvc,
		VerificationSvc: app.verifSvc,
		DisableReqLogs:  true,
	})
	return app
}

func (app *testApp) addUser(t *testing.T, name string, roles []string) user.User {
	t.Helper()
	usr := user.User{
		Name:     name,
		Username: name + "123",
		Email:    name + "@test.cm",
		Roles:    roles,
	}
	usr.SetActive(true)
	if err := usr.SetPassword(testPassword); err != nil {
		t.Fatalf("SetPassword() error = %v", err)
	}
	usr, err := app.usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser(%s) error = %v", name, err)
	}
	return usr
}

// seedCatalog loads one active country with a single required passport
// requirement, enough for a complete submission.
func (app *testApp) seedCatalog(t *testing.T) (catalog.Country, catalog.Requirement) {
	t.Helper()
	ctx := context.Background()

	cty := catalog.Country{Code: "CA", Name: "Canada"}
	cty.SetActive(true)
	cty, err := app.catRepo.CreateCountry(ctx, cty)
	if err != nil {
		t.Fatalf("CreateCountry() error = %v", err)
	}

	reqmt := catalog.Requirement{
		CountryID:    cty.ID,
		DocumentType: catalog.DocumentTypePassport,
		Title:        "Valid Passport",
		Required:     true,
		MaxFileSize:  5 << 20,
		AllowedTypes: []string{"pdf", "jpg"},
	}
	reqmt.SetActive(true)
	if reqmt, err = app.catRepo.CreateRequirement(ctx, reqmt); err != nil {
		t.Fatalf("CreateRequirement() error = %v", err)
	}
	return cty, reqmt
}

func (app *testApp) submit(t *testing.T, student user.User, cty catalog.Country, reqmt catalog.Requirement) verification.Request {
	t.Helper()
	req, err := app.verifSvc.Create(context.Background(), student, verification.NewRequest{
		CountryID: cty.ID,
		Documents: []verification.NewDocument{
			{RequirementID: reqmt.ID, File: testFile("passport")},
		},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return req
}

func testFile(name string) verification.FileMetadata {
	return verification.FileMetadata{
		FileName:     name + ".pdf",
		OriginalName: name + ".pdf",
		FileURL:      "https://cdn.test.cm/uploads/" + name + ".pdf",
		FileSize:     2048,
		MimeType:     "application/pdf",
	}
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	return token
}

func newRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json.Marshal() error = %v", err)
		}
		buf = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func newAuthRequest(t *testing.T, method, target string, body interface{}, token string) *http.Request {
	t.Helper()
	req := newRequest(t, method, target, body)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func (app *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.server.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dest); err != nil {
		t.Fatalf("json.Unmarshal(%s) error = %v", rec.Body.String(), err)
	}
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	return data
}

// jsonBytesEqual compares the JSON in the two byte slices, ignoring list order.
func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	t.Helper()
	var j1, j2 []interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return assert.ElementsMatch(t, j1, j2), nil
}
