package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(i int) *int { return &i }

func TestNormalizePostgresType(t *testing.T) {
	tests := []struct {
		dataType      string
		udtName       string
		charMaxLength *int
		want          string
	}{
		{dataType: "timestamp with time zone", udtName: "timestamptz", want: "timestamptz"},
		{dataType: "timestamp without time zone", udtName: "timestamp", want: "timestamp"},
		{dataType: "time with time zone", udtName: "timetz", want: "timetz"},
		{dataType: "time without time zone", udtName: "time", want: "time"},
		{dataType: "character varying", udtName: "varchar", charMaxLength: intPtr(255), want: "varchar(255)"},
		{dataType: "character varying", udtName: "varchar", want: "varchar"},
		{dataType: "character", udtName: "bpchar", charMaxLength: intPtr(2), want: "char(2)"},
		{dataType: "ARRAY", udtName: "_int4", want: "integer[]"},
		{dataType: "ARRAY", udtName: "_text", want: "text[]"},
		{dataType: "ARRAY", udtName: "_bpchar", want: "char[]"},
		{dataType: "USER-DEFINED", udtName: "order_status", want: "order_status"},
		{dataType: "integer", udtName: "int4", want: "integer"},
		{dataType: "jsonb", udtName: "jsonb", want: "jsonb"},
	}

	for _, tt := range tests {
		t.Run(tt.dataType+"/"+tt.udtName, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizePostgresType(tt.dataType, tt.udtName, tt.charMaxLength))
		})
	}
}

func TestPostgresColumnType(t *testing.T) {
	verbose := &PostgresCatalog{}
	short := &PostgresCatalog{shortTypes: true}

	assert.Equal(t, "character varying", verbose.columnType("character varying", "varchar", intPtr(40), "YES").DataType)
	assert.True(t, verbose.columnType("text", "text", nil, "YES").Nullable)
	assert.False(t, verbose.columnType("text", "text", nil, "NO").Nullable)

	assert.Equal(t, "varchar(40)", short.columnType("character varying", "varchar", intPtr(40), "NO").DataType)
}
