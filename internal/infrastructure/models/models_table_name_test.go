package models

import (
	"testing"

	"gorm.io/gorm/schema"
)

func TestTableNames(t *testing.T) {
	namer := schema.NamingStrategy{}
	cases := map[string]string{
		"Tenant":   "tenants",
		"ApiToken": "api_tokens",
		"Event":    "events",
		"AuditLog": "audit_logs",
	}
	for model, want := range cases {
		if got := namer.TableName(model); got != want {
			t.Fatalf("unexpected %s table name: %s", model, got)
		}
	}
	if got := namer.ColumnName("", "ASN"); got != "asn" {
		t.Fatalf("unexpected ASN column name: %s", got)
	}
}
