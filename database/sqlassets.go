package sqlassets

import _ "embed"

//go:embed schema/001_access.sql
var AccessSQL string

//go:embed schema/002_units.sql
var UnitsSQL string

//go:embed schema/003_naming.sql
var NamingSQL string

//go:embed schema/004_entities.sql
var EntitiesSQL string

//go:embed schema/005_rls.sql
var RowSecuritySQL string

// Ordered lists the DDL files in the order they must be applied.
func Ordered() []string {
	return []string{AccessSQL, UnitsSQL, NamingSQL, EntitiesSQL, RowSecuritySQL}
}
