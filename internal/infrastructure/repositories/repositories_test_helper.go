package repositories

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open sqlite")
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func createTenantTable(t *testing.T, db *gorm.DB) {
	t.Helper()
	mustExec(t, db, `CREATE TABLE tenants (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		retention_days INTEGER NOT NULL DEFAULT 30,
		is_active BOOLEAN NOT NULL DEFAULT true,
		created_by TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createApiTokenTable(t *testing.T, db *gorm.DB) {
	t.Helper()
	mustExec(t, db, `CREATE TABLE api_tokens (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		name TEXT NOT NULL,
		token_hash TEXT NOT NULL UNIQUE,
		token_preview TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT true,
		expires_at DATETIME,
		grace_period_until DATETIME,
		last_used_at DATETIME,
		created_by TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createEventTable(t *testing.T, db *gorm.DB) {
	t.Helper()
	mustExec(t, db, `CREATE TABLE events (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		source_ip TEXT NOT NULL,
		declared_source_ip TEXT,
		service TEXT NOT NULL,
		path TEXT NOT NULL,
		method TEXT NOT NULL,
		user_agent TEXT,
		username TEXT,
		headers TEXT DEFAULT '{}',
		body TEXT,
		payload_size INTEGER NOT NULL DEFAULT 0,
		risk_score INTEGER NOT NULL DEFAULT 0,
		country TEXT,
		asn TEXT,
		org TEXT,
		tags TEXT,
		notes TEXT,
		created_at DATETIME
	);`)
}

func createAuditLogTable(t *testing.T, db *gorm.DB) {
	t.Helper()
	mustExec(t, db, `CREATE TABLE audit_logs (
		id TEXT PRIMARY KEY,
		action TEXT NOT NULL,
		user_id TEXT,
		user_email TEXT NOT NULL,
		details TEXT,
		ip_address TEXT,
		created_at DATETIME
	);`)
}
