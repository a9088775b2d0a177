package project

import (
	"errors"

	"github.com/dmitrymomot/tenantkit/core"
)

var (
	// ErrProjectNotFound is returned when no project matches within the
	// current tenant. A project of another tenant is indistinguishable from
	// a missing one.
	ErrProjectNotFound = errors.Join(core.ErrNotFound, errors.New("project not found"))
	// ErrNameRequired is returned when a project name is empty or blank.
	ErrNameRequired = errors.New("project name is required")
	// ErrInvalidStatus is returned when a status is not recognized.
	ErrInvalidStatus = errors.New("project status is invalid")
)
