package core

import (
	"encoding/json"
	"fmt"
	"time"
)

// AuditEntry records one administrative action on a club.
type AuditEntry struct {
	ID        string
	ClubID    string
	UsuarioID string
	Accion    string // create, update, delete, pago
	Entidad   string // colecta, aporte, gasto, ...
	EntidadID string
	Details   AuditDetails
	CreatedAt time.Time
}

// AuditDetails is the closed set of detail payloads an AuditEntry can carry.
type AuditDetails interface {
	detailsType() string
}

const (
	detailsUserAffected = "user_affected"
	detailsUserDeleted  = "user_deleted"
	detailsFieldChanges = "field_changes"
)

// UserAffected names the user an action was performed on.
type UserAffected struct {
	UsuarioID string `json:"usuario_id"`
	Email     string `json:"email"`
	Rol       Rol    `json:"rol"`
}

// UserDeleted keeps a snapshot of a removed account.
type UserDeleted struct {
	UsuarioID string `json:"usuario_id"`
	Email     string `json:"email"`
	Nombre    string `json:"nombre"`
}

// FieldChange is one field before/after an update.
type FieldChange struct {
	Field string `json:"field"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// FieldChanges lists the fields modified by an update.
type FieldChanges struct {
	Changes []FieldChange `json:"changes"`
}

func (UserAffected) detailsType() string { return detailsUserAffected }
func (UserDeleted) detailsType() string  { return detailsUserDeleted }
func (FieldChanges) detailsType() string { return detailsFieldChanges }

type detailsEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// MarshalAuditDetails encodes d with a "type" discriminator. A nil d encodes
// to JSON null.
func MarshalAuditDetails(d AuditDetails) ([]byte, error) {
	if d == nil {
		return []byte("null"), nil
	}
	data, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return json.Marshal(detailsEnvelope{Type: d.detailsType(), Data: data})
}

// UnmarshalAuditDetails decodes the output of MarshalAuditDetails.
func UnmarshalAuditDetails(b []byte) (AuditDetails, error) {
	if len(b) == 0 || string(b) == "null" {
		return nil, nil
	}
	var env detailsEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("decode audit details: %w", err)
	}
	switch env.Type {
	case detailsUserAffected:
		var v UserAffected
		err := json.Unmarshal(env.Data, &v)
		return v, err
	case detailsUserDeleted:
		var v UserDeleted
		err := json.Unmarshal(env.Data, &v)
		return v, err
	case detailsFieldChanges:
		var v FieldChanges
		err := json.Unmarshal(env.Data, &v)
		return v, err
	default:
		return nil, fmt.Errorf("unknown audit details type %q", env.Type)
	}
}

// DiffFields compares two flat field maps and returns the changed ones in
// the order given by keys.
func DiffFields(keys []string, before, after map[string]string) FieldChanges {
	var out FieldChanges
	for _, k := range keys {
		if before[k] != after[k] {
			out.Changes = append(out.Changes, FieldChange{Field: k, From: before[k], To: after[k]})
		}
	}
	return out
}
