package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tordrt/d2schema/internal/schema"
)

// MySQLCatalog reads table, column and key metadata from MySQL's
// information_schema. A MySQL database is treated as a schema.
type MySQLCatalog struct {
	client *MySQLClient
}

// NewMySQLCatalog creates a catalog reader on an open client
func NewMySQLCatalog(client *MySQLClient) *MySQLCatalog {
	return &MySQLCatalog{client: client}
}

// Schemas lists the non-system databases
func (c *MySQLCatalog) Schemas(ctx context.Context) ([]string, error) {
	query := `
		SELECT schema_name
		FROM information_schema.schemata
		WHERE schema_name NOT IN ('information_schema', 'mysql', 'performance_schema', 'sys')
		ORDER BY schema_name
	`

	rows, err := c.client.GetDB().QueryContext(ctx, query)
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
func (c *MySQLCatalog) Columns(ctx context.Context, schemaName string) ([]schema.ColumnRow, error) {
	query := `
		SELECT table_name, column_name
		FROM information_schema.columns
		WHERE table_schema = ?
		ORDER BY table_name, ordinal_position
	`

	rows, err := c.client.GetDB().QueryContext(ctx, query, schemaName)
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

// Constraints lists key constraints per participating column. MySQL
// records the referenced column directly on key_column_usage.
func (c *MySQLCatalog) Constraints(ctx context.Context, schemaName string) ([]schema.ConstraintRow, error) {
	query := `
		SELECT
			kcu.table_name,
			kcu.column_name,
			tc.constraint_type,
			kcu.referenced_table_schema,
			kcu.referenced_table_name,
			kcu.referenced_column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_schema = kcu.constraint_schema
			AND tc.table_name = kcu.table_name
			AND tc.constraint_name = kcu.constraint_name
		WHERE tc.table_schema = ?
		ORDER BY kcu.table_name, kcu.ordinal_position
	`

	rows, err := c.client.GetDB().QueryContext(ctx, query, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var constraints []schema.ConstraintRow
	for rows.Next() {
		var (
			row                                        schema.ConstraintRow
			foreignSchema, foreignTable, foreignColumn sql.NullString
		)
		if err := rows.Scan(
			&row.Table,
			&row.Column,
			&row.ConstraintType,
			&foreignSchema,
			&foreignTable,
			&foreignColumn,
		); err != nil {
			return nil, err
		}
		row.ForeignSchema = nullString(foreignSchema)
		row.ForeignTable = nullString(foreignTable)
		row.ForeignColumn = nullString(foreignColumn)
		constraints = append(constraints, row)
	}

	return constraints, rows.Err()
}

// ColumnType resolves the type and nullability of one column
func (c *MySQLCatalog) ColumnType(ctx context.Context, schemaName, table, column string) (schema.ColumnType, bool, error) {
	query := `
		SELECT data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = ?
			AND table_name = ?
			AND column_name = ?
	`

	var dataType, nullable string
	err := c.client.GetDB().QueryRowContext(ctx, query, schemaName, table, column).Scan(&dataType, &nullable)
	if errors.Is(err, sql.ErrNoRows) {
		return schema.ColumnType{}, false, nil
	}
	if err != nil {
		return schema.ColumnType{}, false, err
	}

	return schema.ColumnType{DataType: dataType, Nullable: nullable == "YES"}, true, nil
}

// ColumnTypes resolves every column of the schema in one query
func (c *MySQLCatalog) ColumnTypes(ctx context.Context, schemaName string) (map[schema.ColumnKey]schema.ColumnType, error) {
	query := `
		SELECT table_name, column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = ?
	`

	rows, err := c.client.GetDB().QueryContext(ctx, query, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := make(map[schema.ColumnKey]schema.ColumnType)
	for rows.Next() {
		var (
			key                schema.ColumnKey
			dataType, nullable string
		)
		if err := rows.Scan(&key.Table, &key.Column, &dataType, &nullable); err != nil {
			return nil, err
		}
		types[key] = schema.ColumnType{DataType: dataType, Nullable: nullable == "YES"}
	}

	return types, rows.Err()
}

// Close releases the connection
func (c *MySQLCatalog) Close() error {
	return c.client.Close()
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}
