package inmemdb

import (
	"sync"

	"github.com/kmutombo/veridoc/core/catalog"
	"github.com/kmutombo/veridoc/core/user"
	"github.com/kmutombo/veridoc/core/verification"
)

type (
	DB struct {
		user        *userTable
		country     *countryTable
		requirement *requirementTable
		request     *requestTable
		document    *documentTable
	}

	userTable struct {
		table map[string]*user.User
		mutex sync.RWMutex
	}

	countryTable struct {
		table map[string]*catalog.Country
		mutex sync.RWMutex
	}

	requirementTable struct {
		table map[string]*catalog.Requirement
		mutex sync.RWMutex
	}

	requestTable struct {
		table map[string]*verification.Request
		mutex sync.RWMutex
	}

	documentTable struct {
		table map[string]*verification.Document
		mutex sync.RWMutex
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:        &userTable{table: make(map[string]*user.User)},
		country:     &countryTable{table: make(map[string]*catalog.Country)},
		requirement: &requirementTable{table: make(map[string]*catalog.Requirement)},
		request:     &requestTable{table: make(map[string]*verification.Request)},
		document:    &documentTable{table: make(map[string]*verification.Document)},
	}
	return db, nil
}
