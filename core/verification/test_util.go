package verification

import (
	"github.com/kmutombo/veridoc/core"
	"github.com/kmutombo/veridoc/core/catalog"
	"github.com/kmutombo/veridoc/core/user"
)

// NewServiceMock returns a Service whose side effects (emails) run synchronously.
func NewServiceMock(db core.DB, repo Repository, catRepo catalog.Repository, usrRepo user.Repository, mailSvc core.EmailService) Service {
	return &service{
		db:       db,
		repo:     repo,
		catRepo:  catRepo,
		usrRepo:  usrRepo,
		mailSvc:  mailSvc,
		syncMail: true,
	}
}
