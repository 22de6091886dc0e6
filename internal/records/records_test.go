package records_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-viewgen/internal/records"
	"github.com/goliatone/go-viewgen/pkg/detail"
	"github.com/goliatone/go-viewgen/pkg/schema"
)

func loadFixtures(t *testing.T) *records.Memory {
	t.Helper()
	mem, err := records.LoadFixtures(os.DirFS("testdata"))
	require.NoError(t, err)
	return mem
}

func TestLoadFixtures_SkipsCatalogDocuments(t *testing.T) {
	mem := loadFixtures(t)

	rows, err := mem.List(context.Background(), "contacts", records.Query{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Ada Lovelace", rows[0].String("full_name"))
}

func TestMemory_ListFiltersAndLimits(t *testing.T) {
	mem := loadFixtures(t)

	rows, err := mem.List(context.Background(), "deals", records.Query{
		Limit:  2,
		Filter: map[string]string{"contact_id": "c1"},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "d1", rows[0].ID())
	assert.Equal(t, "d3", rows[1].ID())
}

func TestMemory_GetReturnsCopy(t *testing.T) {
	mem := loadFixtures(t)
	ctx := context.Background()

	got, err := mem.Get(ctx, "contacts", "c2")
	require.NoError(t, err)
	got["full_name"] = "changed"

	again, err := mem.Get(ctx, "contacts", "c2")
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", again.String("full_name"))

	_, err = mem.Get(ctx, "contacts", "missing")
	assert.ErrorIs(t, err, records.ErrNotFound)
}

func TestForeignKey(t *testing.T) {
	assert.Equal(t, "contact_id", records.ForeignKey(detail.RelatedListSection{}, "contacts"))
	assert.Equal(t, "owner", records.ForeignKey(detail.RelatedListSection{ForeignKey: " owner "}, "contacts"))
}

func TestFetchDetail_LoadsRecordAndRelated(t *testing.T) {
	mem := loadFixtures(t)
	desc := detail.Descriptor{
		Entity: "contacts",
		Sections: []detail.Section{
			detail.RelatedListSection{ID: "deals", Entity: "deals", Limit: 1, ForeignKey: "contact_id"},
			detail.DescriptionSection{ID: "notes"},
		},
	}

	record, related, err := records.FetchDetail(context.Background(), mem, desc, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", record.String("full_name"))
	// limit plus one so the page can report hidden rows
	assert.Len(t, related["deals"], 2)
}

func TestFetchDetail_MissingRecord(t *testing.T) {
	mem := loadFixtures(t)
	desc := detail.Descriptor{Entity: "contacts"}

	_, _, err := records.FetchDetail(context.Background(), mem, desc, "nope")
	assert.ErrorIs(t, err, records.ErrNotFound)
}

func TestForDashboard(t *testing.T) {
	src := records.ForDashboard(records.NewMemory(map[string][]schema.Record{
		"deals": {{"id": "a"}, {"id": "b"}, {"id": "c"}},
	}))

	rows, err := src.List(context.Background(), "deals", 2)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestPostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, data FROM records WHERE entity = $1 AND data->>$2 = $3 ORDER BY created_at DESC LIMIT $4",
	)).
		WithArgs("deals", "contact_id", "c1", 5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "data"}).
			AddRow("d4", []byte(`{"name":"Difference engine","amount":4000}`)).
			AddRow("d1", []byte(`{"name":"Engine retrofit"}`)))

	rows, err := records.NewPostgres(db).List(context.Background(), "deals", records.Query{
		Limit:  5,
		Filter: map[string]string{"contact_id": "c1"},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "d4", rows[0].ID())
	assert.Equal(t, float64(4000), rows[0]["amount"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	query := regexp.QuoteMeta("SELECT data FROM records WHERE entity = $1 AND id = $2")
	mock.ExpectQuery(query).WithArgs("contacts", "c1").
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow([]byte(`{"full_name":"Ada"}`)))
	mock.ExpectQuery(query).WithArgs("contacts", "zz").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(query).WithArgs("contacts", "boom").WillReturnError(errors.New("conn reset"))

	pg := records.NewPostgres(db)
	ctx := context.Background()

	got, err := pg.Get(ctx, "contacts", "c1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.String("full_name"))
	assert.Equal(t, "c1", got.ID())

	_, err = pg.Get(ctx, "contacts", "zz")
	assert.ErrorIs(t, err, records.ErrNotFound)

	_, err = pg.Get(ctx, "contacts", "boom")
	require.Error(t, err)
	assert.NotErrorIs(t, err, records.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
