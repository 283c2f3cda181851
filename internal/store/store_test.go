package store

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return AttachDB(db), mock
}

func TestIncrVisitUnique(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE _welcome_stats_total SET total_views")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO _welcome_stats_daily(day, views)")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE _welcome_stats_total SET total_visitors")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO _welcome_stats_daily(day, visitors)")).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.IncrVisit(context.Background(), true))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrVisitRepeat(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE _welcome_stats_total SET total_views")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO _welcome_stats_daily(day, views)")).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.IncrVisit(context.Background(), false))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrVisitError(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec("UPDATE _welcome_stats_total").WillReturnError(sql.ErrConnDone)
	assert.ErrorIs(t, s.IncrVisit(context.Background(), true), sql.ErrConnDone)
}

func TestGetTotals(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery("SELECT total_views, total_visitors FROM _welcome_stats_total").
		WillReturnRows(sqlmock.NewRows([]string{"total_views", "total_visitors"}).AddRow(42, 7))
	mock.ExpectQuery("SELECT views, visitors FROM _welcome_stats_daily").
		WillReturnRows(sqlmock.NewRows([]string{"views", "visitors"}))
	tot, err := s.GetTotals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Totals{Views: 42, Visitors: 7}, *tot)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordVisitor(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec("INSERT INTO _welcome_recent_visitors").
		WithArgs(int64(0x01020304), "湖北省", "武汉市").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.RecordVisitor(context.Background(), "1.2.3.4", "湖北省", "武汉市"))
	require.NoError(t, s.RecordVisitor(context.Background(), "114.xxx.xxx.xxx", "湖北省", "武汉市"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTopPlaces(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery("FROM _welcome_recent_visitors").
		WithArgs(24, 10).
		WillReturnRows(sqlmock.NewRows([]string{"province", "city", "n"}).
			AddRow("湖北省", "武汉市", 3).
			AddRow("北京市", "北京市", 1))
	got, err := s.TopPlaces(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, Place{Province: "湖北省", City: "武汉市", Visitors: 3}, got[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIPToInt(t *testing.T) {
	v, err := ipToInt("255.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, uint32(0xff000001), v)
	_, err = ipToInt("256.1.1.1")
	assert.Error(t, err)
}
