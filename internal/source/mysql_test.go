package source

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/godecomp/internal/config"
	"github.com/dbsmedya/godecomp/internal/logger"
	"github.com/dbsmedya/godecomp/internal/types"
)

func newMockSource(t *testing.T, cfg config.MySQLConfig) (*MySQL, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &MySQL{DB: db, cfg: cfg, logger: logger.NewDefault()}, mock
}

func spanColumns() []string {
	return []string{"side", "entity_id", "group_id", "time_id", "industry_code", "statement_id", "category_id"}
}

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.MySQLConfig
		want string
	}{
		{
			name: "default tls",
			cfg: config.MySQLConfig{
				Host: "localhost", Port: 3306,
				User: "reader", Password: "pw", Database: "spans_db",
			},
			want: "reader:pw@tcp(localhost:3306)/spans_db?parseTime=true&tls=preferred",
		},
		{
			name: "tls disabled",
			cfg: config.MySQLConfig{
				Host: "db.internal", Port: 3307,
				User: "reader", Password: "pw", Database: "spans_db",
				TLS: "disable",
			},
			want: "reader:pw@tcp(db.internal:3307)/spans_db?parseTime=true&tls=false",
		},
		{
			name: "tls required no database",
			cfg: config.MySQLConfig{
				Host: "db.internal", Port: 3306,
				User: "reader", Password: "pw",
				TLS: "required",
			},
			want: "reader:pw@tcp(db.internal:3306)/?parseTime=true&tls=true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildDSN(tt.cfg))
		})
	}
}

func TestSpans(t *testing.T) {
	src, mock := newMockSource(t, config.MySQLConfig{Table: "spans"})

	rows := sqlmock.NewRows(spanColumns()).
		AddRow("cause", int64(1001), "AI", "2019Q3", int64(3711), "st-1", int64(1)).
		AddRow("EFFECT", "1002", "Cloud", "8078", "2800", "st-2", int64(4))

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT side, entity_id, group_id, time_id, industry_code, statement_id, category_id FROM `spans`",
	)).WillReturnRows(rows)

	spans, err := src.Spans(context.Background())
	require.NoError(t, err)
	require.Len(t, spans, 2)

	assert.Equal(t, types.Span{
		Side: types.SideCause, EntityID: 1001, Technology: "AI",
		Period: 2019*4 + 2, IndustryCode: 3711, StatementID: "st-1", Category: 1,
	}, spans[0])

	// Driver variance: side casing, string-typed ids, integer periods.
	assert.Equal(t, types.SideEffect, spans[1].Side)
	assert.Equal(t, int64(1002), spans[1].EntityID)
	assert.Equal(t, 8078, spans[1].Period)
	assert.Equal(t, 2800, spans[1].IndustryCode)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSpans_WhereFilter(t *testing.T) {
	src, mock := newMockSource(t, config.MySQLConfig{
		Table: "spans",
		Where: "time_id >= 8000",
	})

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT side, entity_id, group_id, time_id, industry_code, statement_id, category_id FROM `spans` WHERE time_id >= 8000",
	)).WillReturnRows(sqlmock.NewRows(spanColumns()))

	spans, err := src.Spans(context.Background())
	require.NoError(t, err)
	assert.Empty(t, spans)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSpans_InvalidTable(t *testing.T) {
	src, _ := newMockSource(t, config.MySQLConfig{Table: "spans; DROP TABLE x"})

	_, err := src.Spans(context.Background())
	assert.Error(t, err)
}

func TestSpans_BadRow(t *testing.T) {
	tests := []struct {
		name string
		row  []driverValue
	}{
		{"bad side", []driverValue{"upstream", int64(1), "AI", "8078", int64(3711), "st", int64(1)}},
		{"bad entity", []driverValue{"cause", "n/a", "AI", "8078", int64(3711), "st", int64(1)}},
		{"bad period", []driverValue{"cause", int64(1), "AI", "2019Q7", int64(3711), "st", int64(1)}},
		{"bad category", []driverValue{"cause", int64(1), "AI", "8078", int64(3711), "st", "worst"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, mock := newMockSource(t, config.MySQLConfig{Table: "spans"})

			rows := sqlmock.NewRows(spanColumns()).AddRow(tt.row...)
			mock.ExpectQuery("SELECT side, entity_id").WillReturnRows(rows)

			_, err := src.Spans(context.Background())
			assert.Error(t, err)
		})
	}
}

type driverValue = driver.Value

func TestClose(t *testing.T) {
	src, mock := newMockSource(t, config.MySQLConfig{Table: "spans"})
	mock.ExpectClose()
	assert.NoError(t, src.Close())

	empty := &MySQL{}
	assert.NoError(t, empty.Close())
}
