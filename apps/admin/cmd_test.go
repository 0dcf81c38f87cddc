package main

import (
	"context"
	"database/sql"
	"io/ioutil"
	"log"
	"testing"

	"github.com/kmutombo/veridoc/core/catalog"
	"github.com/kmutombo/veridoc/core/user"
	"github.com/kmutombo/veridoc/storage/database/inmem"
)

func initCLI(t *testing.T) *commandLine {
	t.Helper()
	logger = log.New(ioutil.Discard, "", 0)

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() error = %v", err)
	}
	return &commandLine{
		usrRepo: inmemdb.NewUserRepository(db),
		catRepo: inmemdb.NewCatalogRepository(db),
	}
}

func mockPassword(pwd string) func() {
	orig := readPasswordFunc
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte(pwd), nil }
	return func() { readPasswordFunc = orig }
}

func TestCLIUsage(t *testing.T) {
	cli := initCLI(t)

	tests := []struct {
		name string
		args []string
	}{
		{"no command", []string{"veridoc-admin"}},
		{"unknown command", []string{"veridoc-admin", "destroyeverything"}},
		{"migrate without direction", []string{"veridoc-admin", "migrate"}},
		{"adduser without flags", []string{"veridoc-admin", "adduser"}},
		{"resetpassword without flags", []string{"veridoc-admin", "resetpassword"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(tt.args); err != errHelp {
				t.Errorf("run(%v) error = %v, want %v", tt.args, err, errHelp)
			}
		})
	}
}

func TestCLIMigrate(t *testing.T) {
	cli := initCLI(t)

	var gotCommand string
	var gotArgs []string
	origGoose := gooseRunFunc
	gooseRunFunc = func(command string, db *sql.DB, dir string, args ...string) error {
		gotCommand = command
		gotArgs = args
		return nil
	}
	defer func() { gooseRunFunc = origGoose }()

	if err := cli.run([]string{"veridoc-admin", "migrate", "up-to", "3"}); err != nil {
		t.Fatalf("run(migrate) error = %v", err)
	}
	if gotCommand != "up-to" {
		t.Errorf("goose command = %v, want up-to", gotCommand)
	}
	if len(gotArgs) != 1 || gotArgs[0] != "3" {
		t.Errorf("goose args = %v, want [3]", gotArgs)
	}
}

func TestCLIAddUser(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		args      []string
		wantRoles []string
	}{
		{
			"student by default",
			[]string{"veridoc-admin", "adduser", "-username", "leila123", "-email", "leila@test.cm"},
			user.StudentRoles,
		},
		{
			"associate",
			[]string{"veridoc-admin", "adduser", "-username", "moussa123", "-email", "moussa@test.cm", "-associate"},
			user.AssociateRoles,
		},
		{
			"director gets everything",
			[]string{"veridoc-admin", "adduser", "-username", "awa123", "-email", "awa@test.cm", "-director"},
			user.AllRoles,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli := initCLI(t)
			restore := mockPassword("t3Stp@ssw0rd!")
			defer restore()

			if err := cli.run(tt.args); err != nil {
				t.Fatalf("run(adduser) error = %v", err)
			}
			usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Username: tt.args[3]})
			if err != nil {
				t.Fatalf("GetUser() error = %v", err)
			}
			if !usr.Active() {
				t.Error("user inactive, want active")
			}
			if len(usr.Roles) != len(tt.wantRoles) {
				t.Errorf("roles = %v, want %v", usr.Roles, tt.wantRoles)
			}
			if err := usr.CheckPassword("t3Stp@ssw0rd!"); err != nil {
				t.Errorf("CheckPassword() error = %v", err)
			}
		})
	}

	t.Run("empty password aborts", func(t *testing.T) {
		cli := initCLI(t)
		restore := mockPassword("")
		defer restore()

		err := cli.run([]string{"veridoc-admin", "adduser", "-username", "leila123", "-email", "leila@test.cm"})
		if err != errHelp {
			t.Errorf("run(adduser) error = %v, want %v", err, errHelp)
		}
	})
}

func TestCLIResetPassword(t *testing.T) {
	ctx := context.Background()
	cli := initCLI(t)

	usr := user.User{Username: "leila123", Email: "leila@test.cm"}
	usr.SetActive(true)
	if err := usr.SetPassword("old-password"); err != nil {
		t.Fatalf("SetPassword() error = %v", err)
	}
	if _, err := cli.usrRepo.CreateUser(ctx, usr); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	restore := mockPassword("new-password")
	defer restore()

	if err := cli.run([]string{"veridoc-admin", "resetpassword", "-username", "leila123"}); err != nil {
		t.Fatalf("run(resetpassword) error = %v", err)
	}
	got, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Username: "leila123"})
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if err := got.CheckPassword("new-password"); err != nil {
		t.Errorf("CheckPassword() error = %v", err)
	}

	t.Run("unknown user", func(t *testing.T) {
		err := cli.run([]string{"veridoc-admin", "resetpassword", "-username", "ghost"})
		if err != user.ErrNotFound {
			t.Errorf("run(resetpassword) error = %v, want %v", err, user.ErrNotFound)
		}
	})
}

func TestCLISeedCatalog(t *testing.T) {
	ctx := context.Background()
	cli := initCLI(t)

	if err := cli.run([]string{"veridoc-admin", "seedcatalog"}); err != nil {
		t.Fatalf("run(seedcatalog) error = %v", err)
	}
	ctys, err := cli.catRepo.QueryCountries(ctx, false)
	if err != nil {
		t.Fatalf("QueryCountries() error = %v", err)
	}
	if len(ctys) != len(defaultCountries) {
		t.Fatalf("countries = %d, want %d", len(ctys), len(defaultCountries))
	}
	for _, cty := range ctys {
		reqmts, err := cli.catRepo.QueryRequirements(ctx, catalog.QueryFilter{CountryID: cty.ID})
		if err != nil {
			t.Fatalf("QueryRequirements(%s) error = %v", cty.Code, err)
		}
		if len(reqmts) != len(defaultRequirements) {
			t.Errorf("requirements for %s = %d, want %d", cty.Code, len(reqmts), len(defaultRequirements))
		}
	}

	// a second run leaves existing countries untouched
	if err := cli.run([]string{"veridoc-admin", "seedcatalog"}); err != nil {
		t.Fatalf("run(seedcatalog) error = %v", err)
	}
	if ctys, _ = cli.catRepo.QueryCountries(ctx, false); len(ctys) != len(defaultCountries) {
		t.Errorf("countries after reseed = %d, want %d", len(ctys), len(defaultCountries))
	}
}
