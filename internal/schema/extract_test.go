package schema

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCatalog serves synthetic rows per schema and counts round trips.
type fakeCatalog struct {
	columns     map[string][]ColumnRow
	constraints map[string][]ConstraintRow
	types       map[string]map[ColumnKey]ColumnType
	failOn      string

	typeCalls int
}

func (c *fakeCatalog) Columns(ctx context.Context, schemaName string) ([]ColumnRow, error) {
	if c.failOn == "columns" {
		return nil, errors.New("relation does not exist")
	}
	return c.columns[schemaName], nil
}

func (c *fakeCatalog) Constraints(ctx context.Context, schemaName string) ([]ConstraintRow, error) {
	if c.failOn == "constraints" {
		return nil, errors.New("permission denied")
	}
	return c.constraints[schemaName], nil
}

func (c *fakeCatalog) ColumnType(ctx context.Context, schemaName, table, column string) (ColumnType, bool, error) {
	c.typeCalls++
	if c.failOn == "type" {
		return ColumnType{}, false, errors.New("connection reset")
	}
	ct, ok := c.types[schemaName][ColumnKey{Table: table, Column: column}]
	return ct, ok, nil
}

// batchCatalog adds one-query type resolution.
type batchCatalog struct {
	*fakeCatalog
	batchCalls int
}

func (c *batchCatalog) ColumnTypes(ctx context.Context, schemaName string) (map[ColumnKey]ColumnType, error) {
	c.batchCalls++
	if c.failOn == "batch" {
		return nil, errors.New("canceling statement")
	}
	return c.types[schemaName], nil
}

func shopCatalog() *fakeCatalog {
	return &fakeCatalog{
		columns: map[string][]ColumnRow{
			"public": {
				{Table: "users", Column: "id"},
				{Table: "users", Column: "name"},
				{Table: "orders", Column: "id"},
				{Table: "orders", Column: "user_id"},
			},
			"audit": {
				{Table: "events", Column: "id"},
				{Table: "events", Column: "actor_id"},
			},
		},
		constraints: map[string][]ConstraintRow{
			"public": {
				{Table: "users", Column: "id", ConstraintType: ConstraintPrimaryKey},
				{Table: "orders", Column: "id", ConstraintType: ConstraintPrimaryKey},
				{
					Table: "orders", Column: "user_id", ConstraintType: ConstraintForeignKey,
					ForeignSchema: strPtr("public"), ForeignTable: strPtr("users"), ForeignColumn: strPtr("id"),
				},
			},
			"audit": {
				{
					Table: "events", Column: "actor_id", ConstraintType: ConstraintForeignKey,
					ForeignSchema: strPtr("public"), ForeignTable: strPtr("users"), ForeignColumn: strPtr("id"),
				},
			},
		},
		types: map[string]map[ColumnKey]ColumnType{
			"public": {
				{Table: "users", Column: "id"}:       {DataType: "integer"},
				{Table: "users", Column: "name"}:     {DataType: "text", Nullable: true},
				{Table: "orders", Column: "id"}:      {DataType: "integer"},
				{Table: "orders", Column: "user_id"}: {DataType: "integer", Nullable: true},
			},
			"audit": {
				{Table: "events", Column: "id"}: {DataType: "bigint"},
			},
		},
	}
}

func TestExtractMergesSchemasInOrder(t *testing.T) {
	m, err := Extract(context.Background(), shopCatalog(), []string{"public", "audit"}, ExtractOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"public.users", "public.orders", "audit.events"}, tableNames(m))

	events, _ := m.Table("audit.events")
	actor, _ := events.Column("actor_id")
	assert.Equal(t, &Reference{Table: "public.users", Column: "id"}, actor.References)
	assert.False(t, actor.Resolved)
}

func TestExtractBatchedMatchesPerColumn(t *testing.T) {
	perColumnCatalog := shopCatalog()
	perColumn, err := Extract(context.Background(), perColumnCatalog, []string{"public", "audit"}, ExtractOptions{Batch: true})
	require.NoError(t, err)
	assert.Equal(t, 6, perColumnCatalog.typeCalls, "catalog without batch support resolves each column")

	batched := &batchCatalog{fakeCatalog: shopCatalog()}
	batchedModel, err := Extract(context.Background(), batched, []string{"public", "audit"}, ExtractOptions{Batch: true})
	require.NoError(t, err)
	assert.Equal(t, 2, batched.batchCalls)
	assert.Zero(t, batched.typeCalls)

	assert.Equal(t, tableNames(perColumn), tableNames(batchedModel))
	for _, table := range perColumn.Tables() {
		other, ok := batchedModel.Table(table.QualifiedName())
		require.True(t, ok)
		assert.Equal(t, table.Columns(), other.Columns())
	}
}

func TestExtractBatchDisabled(t *testing.T) {
	catalog := &batchCatalog{fakeCatalog: shopCatalog()}

	_, err := Extract(context.Background(), catalog, []string{"public"}, ExtractOptions{Batch: false})
	require.NoError(t, err)

	assert.Zero(t, catalog.batchCalls)
	assert.Equal(t, 4, catalog.typeCalls)
}

func TestExtractCatalogFailure(t *testing.T) {
	tests := []struct {
		name   string
		failOn string
		batch  bool
		wantOp string
	}{
		{name: "columns", failOn: "columns", wantOp: "enumerate columns"},
		{name: "constraints", failOn: "constraints", wantOp: "enumerate constraints"},
		{name: "per-column type", failOn: "type", wantOp: "resolve type of users.id"},
		{name: "batched types", failOn: "batch", batch: true, wantOp: "resolve column types"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := &batchCatalog{fakeCatalog: shopCatalog()}
			catalog.failOn = tt.failOn

			m, err := Extract(context.Background(), catalog, []string{"public", "audit"}, ExtractOptions{Batch: tt.batch})
			require.Error(t, err)
			assert.Nil(t, m)

			var catalogErr *CatalogError
			require.ErrorAs(t, err, &catalogErr)
			assert.Equal(t, "public", catalogErr.Schema)
			assert.Equal(t, tt.wantOp, catalogErr.Op)
		})
	}
}

func TestExtractNoSchemas(t *testing.T) {
	m, err := Extract(context.Background(), shopCatalog(), nil, ExtractOptions{})
	require.NoError(t, err)
	assert.Zero(t, m.Len())
}
