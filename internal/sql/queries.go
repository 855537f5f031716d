package sql

import "embed"

// Migrations holds the schema DDL, applied in filename order.
//
//go:embed migrations/*.sql
var Migrations embed.FS

//go:embed queries/insert_audit_result.sql
var InsertAuditResult string

//go:embed queries/get_audit_result.sql
var GetAuditResult string

//go:embed queries/count_audit_results.sql
var CountAuditResults string
