package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/tordrt/d2schema/internal/schema"
)

// SQLiteCatalog reads metadata through SQLite's pragma table-valued
// functions. Attached databases ("main", ...) play the role of schemas.
type SQLiteCatalog struct {
	client *SQLiteClient
}

// NewSQLiteCatalog creates a catalog reader on an open client
func NewSQLiteCatalog(client *SQLiteClient) *SQLiteCatalog {
	return &SQLiteCatalog{client: client}
}

// Schemas lists the attached databases except temp
func (c *SQLiteCatalog) Schemas(ctx context.Context) ([]string, error) {
	query := `SELECT name FROM pragma_database_list WHERE name != 'temp' ORDER BY seq`

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
func (c *SQLiteCatalog) Columns(ctx context.Context, schemaName string) ([]schema.ColumnRow, error) {
	query := fmt.Sprintf(`
		SELECT m.name, p.name
		FROM %s.sqlite_master AS m
		JOIN pragma_table_info(m.name, ?) AS p
		WHERE m.type IN ('table', 'view')
			AND m.name NOT LIKE 'sqlite_%%'
		ORDER BY m.name, p.cid
	`, quoteIdentifier(schemaName))

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

// Constraints lists primary key columns followed by foreign key columns.
// A foreign key declared without parent columns references the parent's
// primary key, matched by key position. If the parent has no declared
// primary key the row is reported without foreign fields.
func (c *SQLiteCatalog) Constraints(ctx context.Context, schemaName string) ([]schema.ConstraintRow, error) {
	primaryKeys, err := c.primaryKeys(ctx, schemaName)
	if err != nil {
		return nil, err
	}

	foreignKeys, err := c.foreignKeys(ctx, schemaName)
	if err != nil {
		return nil, err
	}

	return append(primaryKeys, foreignKeys...), nil
}

func (c *SQLiteCatalog) primaryKeys(ctx context.Context, schemaName string) ([]schema.ConstraintRow, error) {
	query := fmt.Sprintf(`
		SELECT m.name, p.name
		FROM %s.sqlite_master AS m
		JOIN pragma_table_info(m.name, ?) AS p
		WHERE m.type = 'table'
			AND m.name NOT LIKE 'sqlite_%%'
			AND p.pk > 0
		ORDER BY m.name, p.pk
	`, quoteIdentifier(schemaName))

	rows, err := c.client.GetDB().QueryContext(ctx, query, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var constraints []schema.ConstraintRow
	for rows.Next() {
		row := schema.ConstraintRow{ConstraintType: schema.ConstraintPrimaryKey}
		if err := rows.Scan(&row.Table, &row.Column); err != nil {
			return nil, err
		}
		constraints = append(constraints, row)
	}

	return constraints, rows.Err()
}

func (c *SQLiteCatalog) foreignKeys(ctx context.Context, schemaName string) ([]schema.ConstraintRow, error) {
	query := fmt.Sprintf(`
		SELECT m.name, f."from", f."table", COALESCE(f."to", (
			SELECT p.name
			FROM pragma_table_info(f."table", ?) AS p
			WHERE p.pk = f.seq + 1
		))
		FROM %s.sqlite_master AS m
		JOIN pragma_foreign_key_list(m.name, ?) AS f
		WHERE m.type = 'table'
			AND m.name NOT LIKE 'sqlite_%%'
		ORDER BY m.name, f.id, f.seq
	`, quoteIdentifier(schemaName))

	rows, err := c.client.GetDB().QueryContext(ctx, query, schemaName, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var constraints []schema.ConstraintRow
	for rows.Next() {
		var (
			row                         = schema.ConstraintRow{ConstraintType: schema.ConstraintForeignKey}
			foreignTable, foreignColumn sql.NullString
		)
		if err := rows.Scan(&row.Table, &row.Column, &foreignTable, &foreignColumn); err != nil {
			return nil, err
		}
		if foreignTable.Valid && foreignColumn.Valid {
			foreignSchema := schemaName
			row.ForeignSchema = &foreignSchema
			row.ForeignTable = nullString(foreignTable)
			row.ForeignColumn = nullString(foreignColumn)
		}
		constraints = append(constraints, row)
	}

	return constraints, rows.Err()
}

// ColumnType resolves the declared type and nullability of one column
func (c *SQLiteCatalog) ColumnType(ctx context.Context, schemaName, table, column string) (schema.ColumnType, bool, error) {
	query := `SELECT type, "notnull" FROM pragma_table_info(?, ?) WHERE name = ?`

	var (
		dataType string
		notNull  int
	)
	err := c.client.GetDB().QueryRowContext(ctx, query, table, schemaName, column).Scan(&dataType, &notNull)
	if errors.Is(err, sql.ErrNoRows) {
		return schema.ColumnType{}, false, nil
	}
	if err != nil {
		return schema.ColumnType{}, false, err
	}

	return schema.ColumnType{DataType: dataType, Nullable: notNull == 0}, true, nil
}

// ColumnTypes resolves every column of the schema in one query
func (c *SQLiteCatalog) ColumnTypes(ctx context.Context, schemaName string) (map[schema.ColumnKey]schema.ColumnType, error) {
	query := fmt.Sprintf(`
		SELECT m.name, p.name, p.type, p."notnull"
		FROM %s.sqlite_master AS m
		JOIN pragma_table_info(m.name, ?) AS p
		WHERE m.type IN ('table', 'view')
			AND m.name NOT LIKE 'sqlite_%%'
	`, quoteIdentifier(schemaName))

	rows, err := c.client.GetDB().QueryContext(ctx, query, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := make(map[schema.ColumnKey]schema.ColumnType)
	for rows.Next() {
		var (
			key      schema.ColumnKey
			dataType string
			notNull  int
		)
		if err := rows.Scan(&key.Table, &key.Column, &dataType, &notNull); err != nil {
			return nil, err
		}
		types[key] = schema.ColumnType{DataType: dataType, Nullable: notNull == 0}
	}

	return types, rows.Err()
}

// Close releases the connection
func (c *SQLiteCatalog) Close() error {
	return c.client.Close()
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
