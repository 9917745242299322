package core

import (
	"reflect"
	"testing"
)

func TestAuditDetailsEncoding(t *testing.T) {
	cases := []AuditDetails{
		UserAffected{UsuarioID: "u1", Email: "a@b.c", Rol: RolTesorero},
		UserDeleted{UsuarioID: "u2", Email: "x@y.z", Nombre: "X"},
		FieldChanges{Changes: []FieldChange{{Field: "objetivo", From: "10", To: "20"}}},
	}
	for _, in := range cases {
		b, err := MarshalAuditDetails(in)
		if err != nil {
			t.Fatalf("marshal %T: %v", in, err)
		}
		out, err := UnmarshalAuditDetails(b)
		if err != nil {
			t.Fatalf("unmarshal %s: %v", b, err)
		}
		if !reflect.DeepEqual(in, out) {
			t.Fatalf("got %#v, want %#v", out, in)
		}
	}
}

func TestAuditDetailsUnknownType(t *testing.T) {
	if _, err := UnmarshalAuditDetails([]byte(`{"type":"bogus","data":{}}`)); err == nil {
		t.Fatal("expected error for unknown type")
	}
	d, err := UnmarshalAuditDetails([]byte("null"))
	if err != nil || d != nil {
		t.Fatalf("null should decode to nil, got %v %v", d, err)
	}
}

func TestDiffFields(t *testing.T) {
	got := DiffFields([]string{"nombre", "objetivo", "estado"},
		map[string]string{"nombre": "A", "objetivo": "10", "estado": "activa"},
		map[string]string{"nombre": "A", "objetivo": "20", "estado": "cerrada"})
	if len(got.Changes) != 2 || got.Changes[0].Field != "objetivo" || got.Changes[1].Field != "estado" {
		t.Fatalf("unexpected diff: %+v", got)
	}
}
