package core

import (
	"strings"
	"time"
)

// Club is the tenant every record belongs to.
type Club struct {
	ID        string
	Nombre    string
	CreatedAt time.Time
}

func (c Club) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return ErrEmptyClub
	}
	if strings.TrimSpace(c.Nombre) == "" {
		return ErrEmptyNombre
	}
	return nil
}
