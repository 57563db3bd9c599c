package db

import (
	"context"
	"fmt"

	"github.com/tordrt/d2schema/internal/schema"
)

const varcharType = "varchar"

// PostgresCatalog reads table, column and key metadata from
// information_schema.
type PostgresCatalog struct {
	client     *PostgresClient
	shortTypes bool
}

// NewPostgresCatalog creates a catalog reader on an open client. With
// shortTypes, verbose SQL type names are mapped to their common aliases.
func NewPostgresCatalog(client *PostgresClient, shortTypes bool) *PostgresCatalog {
	return &PostgresCatalog{
		client:     client,
		shortTypes: shortTypes,
	}
}

// Schemas lists the non-system schemas of the database
func (c *PostgresCatalog) Schemas(ctx context.Context) ([]string, error) {
	query := `
		SELECT schema_name
		FROM information_schema.schemata
		WHERE schema_name NOT IN ('information_schema', 'pg_catalog', 'pg_toast')
			AND schema_name NOT LIKE 'pg_temp_%'
			AND schema_name NOT LIKE 'pg_toast_temp_%'
		ORDER BY schema_name
	`

	rows, err := c.client.GetConnection().Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schemas []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		schemas = append(schemas, name)
	}

	return schemas, rows.Err()
}

// Columns lists every column of every table and view in the schema
func (c *PostgresCatalog) Columns(ctx context.Context, schemaName string) ([]schema.ColumnRow, error) {
	query := `
		SELECT table_name, column_name
		FROM information_schema.columns
		WHERE table_schema = $1
		ORDER BY table_name, ordinal_position
	`

	rows, err := c.client.GetConnection().Query(ctx, query, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []schema.ColumnRow
	for rows.Next() {
		var row schema.ColumnRow
		if err := rows.Scan(&row.Table, &row.Column); err != nil {
			return nil, err
		}
		columns = append(columns, row)
	}

	return columns, rows.Err()
}

// Constraints lists primary key, foreign key and other key constraints
// per participating column. Referenced columns are matched by position so
// composite and cross-schema foreign keys resolve column by column.
func (c *PostgresCatalog) Constraints(ctx context.Context, schemaName string) ([]schema.ConstraintRow, error) {
	query := `
		SELECT
			tc.table_name,
			kcu.column_name,
			tc.constraint_type,
			rkcu.table_schema AS foreign_table_schema,
			rkcu.table_name AS foreign_table_name,
			rkcu.column_name AS foreign_column_name
		FROM information_schema.table_constraints AS tc
		JOIN information_schema.key_column_usage AS kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.constraint_schema = kcu.constraint_schema
		LEFT JOIN information_schema.referential_constraints AS rc
			ON rc.constraint_name = tc.constraint_name
			AND rc.constraint_schema = tc.constraint_schema
		LEFT JOIN information_schema.key_column_usage AS rkcu
			ON rkcu.constraint_name = rc.unique_constraint_name
			AND rkcu.constraint_schema = rc.unique_constraint_schema
			AND rkcu.ordinal_position = kcu.position_in_unique_constraint
		WHERE tc.table_schema = $1
		ORDER BY tc.table_name, kcu.ordinal_position
	`

	rows, err := c.client.GetConnection().Query(ctx, query, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var constraints []schema.ConstraintRow
	for rows.Next() {
		var row schema.ConstraintRow
		if err := rows.Scan(
			&row.Table,
			&row.Column,
			&row.ConstraintType,
			&row.ForeignSchema,
			&row.ForeignTable,
			&row.ForeignColumn,
		); err != nil {
			return nil, err
		}
		constraints = append(constraints, row)
	}

	return constraints, rows.Err()
}

// ColumnType resolves the type and nullability of one column
func (c *PostgresCatalog) ColumnType(ctx context.Context, schemaName, table, column string) (schema.ColumnType, bool, error) {
	query := `
		SELECT data_type, udt_name, character_maximum_length::int, is_nullable
		FROM information_schema.columns
		WHERE table_schema = $1
			AND table_name = $2
			AND column_name = $3
	`

	rows, err := c.client.GetConnection().Query(ctx, query, schemaName, table, column)
	if err != nil {
		return schema.ColumnType{}, false, err
	}
	defer rows.Close()

	if !rows.Next() {
		return schema.ColumnType{}, false, rows.Err()
	}

	var (
		dataType, udtName, nullable string
		charMaxLength               *int
	)
	if err := rows.Scan(&dataType, &udtName, &charMaxLength, &nullable); err != nil {
		return schema.ColumnType{}, false, err
	}

	return c.columnType(dataType, udtName, charMaxLength, nullable), true, nil
}

// ColumnTypes resolves every column of the schema in one query
func (c *PostgresCatalog) ColumnTypes(ctx context.Context, schemaName string) (map[schema.ColumnKey]schema.ColumnType, error) {
	query := `
		SELECT table_name, column_name, data_type, udt_name, character_maximum_length::int, is_nullable
		FROM information_schema.columns
		WHERE table_schema = $1
	`

	rows, err := c.client.GetConnection().Query(ctx, query, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := make(map[schema.ColumnKey]schema.ColumnType)
	for rows.Next() {
		var (
			key                         schema.ColumnKey
			dataType, udtName, nullable string
			charMaxLength               *int
		)
		if err := rows.Scan(&key.Table, &key.Column, &dataType, &udtName, &charMaxLength, &nullable); err != nil {
			return nil, err
		}
		types[key] = c.columnType(dataType, udtName, charMaxLength, nullable)
	}

	return types, rows.Err()
}

func (c *PostgresCatalog) columnType(dataType, udtName string, charMaxLength *int, nullable string) schema.ColumnType {
	if c.shortTypes {
		dataType = normalizePostgresType(dataType, udtName, charMaxLength)
	}
	return schema.ColumnType{
		DataType: dataType,
		Nullable: nullable == "YES",
	}
}

// Close releases the connection
func (c *PostgresCatalog) Close() error {
	return c.client.Close(context.Background())
}

// normalizePostgresType maps verbose SQL type names to commonly-used PostgreSQL equivalents
func normalizePostgresType(dataType, udtName string, charMaxLength *int) string {
	switch dataType {
	case "timestamp with time zone":
		return "timestamptz"
	case "timestamp without time zone":
		return "timestamp"
	case "time with time zone":
		return "timetz"
	case "time without time zone":
		return "time"
	case "character varying":
		if charMaxLength != nil {
			return fmt.Sprintf("varchar(%d)", *charMaxLength)
		}
		return varcharType
	case "character":
		if charMaxLength != nil {
			return fmt.Sprintf("char(%d)", *charMaxLength)
		}
		return "char"
	case "ARRAY":
		// udt_name of an array is the element type with a leading underscore
		if len(udtName) > 0 && udtName[0] == '_' {
			return normalizeUdtName(udtName[1:]) + "[]"
		}
		return "array"
	case "USER-DEFINED":
		return udtName
	default:
		return dataType
	}
}

// normalizeUdtName converts PostgreSQL internal type names to more readable forms
func normalizeUdtName(udtName string) string {
	switch udtName {
	case "int4":
		return "integer"
	case "int8":
		return "bigint"
	case "int2":
		return "smallint"
	case "float4":
		return "real"
	case "float8":
		return "double precision"
	case "bool":
		return "boolean"
	case "bpchar":
		return "char"
	case varcharType:
		return varcharType
	default:
		return udtName
	}
}
