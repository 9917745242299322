package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"colectas/internal/core"
)

// ActivityMessage announces one administrative action on a club. The audit
// worker turns it into an audit log entry.
type ActivityMessage struct {
	ID        string          `json:"id"`
	ClubID    string          `json:"club_id"`
	UsuarioID string          `json:"usuario_id"`
	Accion    string          `json:"accion"`
	Entidad   string          `json:"entidad"`
	EntidadID string          `json:"entidad_id"`
	Details   json.RawMessage `json:"details,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewActivityMessage encodes an audit entry for publishing.
func NewActivityMessage(e core.AuditEntry) (*ActivityMessage, error) {
	details, err := core.MarshalAuditDetails(e.Details)
	if err != nil {
		return nil, fmt.Errorf("encode details: %w", err)
	}
	ts := e.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return &ActivityMessage{
		ID:        e.ID,
		ClubID:    e.ClubID,
		UsuarioID: e.UsuarioID,
		Accion:    e.Accion,
		Entidad:   e.Entidad,
		EntidadID: e.EntidadID,
		Details:   details,
		Timestamp: ts,
	}, nil
}

// AuditEntry decodes the message back into an audit entry.
func (m *ActivityMessage) AuditEntry() (core.AuditEntry, error) {
	details, err := core.UnmarshalAuditDetails(m.Details)
	if err != nil {
		return core.AuditEntry{}, err
	}
	return core.AuditEntry{
		ID:        m.ID,
		ClubID:    m.ClubID,
		UsuarioID: m.UsuarioID,
		Accion:    m.Accion,
		Entidad:   m.Entidad,
		EntidadID: m.EntidadID,
		Details:   details,
		CreatedAt: m.Timestamp,
	}, nil
}

// ToJSON converts the message to JSON bytes
func (m *ActivityMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ActivityMessageFromJSON parses a message and checks the fields every
// audit entry needs.
func ActivityMessageFromJSON(data []byte) (*ActivityMessage, error) {
	var msg ActivityMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" || msg.ClubID == "" || msg.Accion == "" {
		return nil, fmt.Errorf("activity message missing id, club_id or accion")
	}
	return &msg, nil
}
