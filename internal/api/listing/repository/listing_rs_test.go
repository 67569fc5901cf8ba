package listingRepository

import (
	"Replicaide/internal/api/listing"
	"Replicaide/internal/entity"
	"context"
	"errors"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var listingColumns = []string{
	"id", "user_id", "image", "audio", "eng", "esp", "price_raw", "price_amount",
	"price_currency", "transcript", "created_at", "updated_at",
}

func newMockClient(t *testing.T) (Client, sqlmock.Sqlmock) {
	t.Helper()

	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	client, err := New(sqlx.NewDb(raw, "postgres"), logger).NewClient(false)
	require.NoError(t, err)
	return client, mock
}

func sampleListing() entity.Listing {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	return entity.Listing{
		ID:     "01HZ",
		UserID: "u1",
		Image:  "https://cdn.example/images/taco.png",
		Audio:  "https://cdn.example/audio/taco.webm",
		English: entity.LanguageContent{
			Title: "Al Pastor Taco", Description: "Pork", MarketingDescription: "Spit-roasted", EnhancedAudio: "https://cdn.example/a.mp3",
		},
		Spanish: entity.LanguageContent{
			Title: "Taco al Pastor", Description: "Cerdo", MarketingDescription: "Al trompo", EnhancedAudio: "https://cdn.example/b.mp3",
		},
		Price:      entity.Price{Raw: "USD 12.50", Amount: 12.5, Currency: "USD"},
		Transcript: "taco al pastor twelve fifty",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestSaveListing(t *testing.T) {
	client, mock := newMockClient(t)
	l := sampleListing()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO menu_items")).
		WithArgs(l.ID, "u1", l.Image, l.Audio, sqlmock.AnyArg(), sqlmock.AnyArg(),
			"USD 12.50", 12.5, "USD", l.Transcript, l.CreatedAt, l.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, client.Listings.Save(context.Background(), l))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAndGetListing(t *testing.T) {
	client, mock := newMockClient(t)
	l := sampleListing()

	rows := func() *sqlmock.Rows {
		return sqlmock.NewRows(listingColumns).AddRow(
			l.ID, "u1", l.Image, l.Audio,
			`{"title":"Al Pastor Taco","description":"Pork","marketing_description":"Spit-roasted","enhanced_audio":"https://cdn.example/a.mp3"}`,
			`{"title":"Taco al Pastor","description":"Cerdo","marketing_description":"Al trompo","enhanced_audio":"https://cdn.example/b.mp3"}`,
			"USD 12.50", 12.5, "USD", l.Transcript, l.CreatedAt, l.UpdatedAt,
		)
	}

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC")).WillReturnRows(rows())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id =")).WithArgs(l.ID).WillReturnRows(rows())

	listings, err := client.Listings.List(context.Background())
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, l, listings[0])

	got, err := client.Listings.GetByID(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, "Taco al Pastor", got.Spanish.Title)
}

func TestGetListingNotFound(t *testing.T) {
	client, mock := newMockClient(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id =")).WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(listingColumns))

	_, err := client.Listings.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, listing.ErrListingNotFound)
}

func TestUpdateWritesOnlyRequestedLanguage(t *testing.T) {
	client, mock := newMockClient(t)
	title := "Taco de Trompo"
	price := entity.Price{Raw: "USD 14", Amount: 14, Currency: "USD"}

	mock.ExpectExec(`SET esp = esp \|\|`).
		WithArgs(`{"title":"Taco de Trompo"}`, "USD 14", 14.0, "USD", sqlmock.AnyArg(), "01HZ").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := client.Listings.Update(context.Background(), "01HZ", entity.LanguageSpanish, ContentUpdate{
		Title: &title,
		Price: &price,
	})
	require.NoError(t, err)

	mock.ExpectExec(`SET eng = eng \|\|`).
		WithArgs(`{"description":"Pork shoulder"}`, nil, nil, nil, sqlmock.AnyArg(), "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	desc := "Pork shoulder"
	err = client.Listings.Update(context.Background(), "missing", entity.LanguageEnglish, ContentUpdate{Description: &desc})
	assert.ErrorIs(t, err, listing.ErrListingNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteThenGetIsNotFound(t *testing.T) {
	client, mock := newMockClient(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM menu_items")).WithArgs("01HZ").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id =")).WithArgs("01HZ").
		WillReturnRows(sqlmock.NewRows(listingColumns))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM menu_items")).WithArgs("01HZ").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, client.Listings.Delete(context.Background(), "01HZ"))

	_, err := client.Listings.GetByID(context.Background(), "01HZ")
	assert.ErrorIs(t, err, listing.ErrListingNotFound)

	assert.ErrorIs(t, client.Listings.Delete(context.Background(), "01HZ"), listing.ErrListingNotFound)
}

func TestAppendErrorLog(t *testing.T) {
	client, mock := newMockClient(t)
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO errors_log")).
		WithArgs("e1", "ana", "transcribing", "boom", "img", "aud", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO errors_log")).
		WillReturnError(errors.New("db down"))

	entry := entity.ErrorLog{
		ID: "e1", Username: "ana", Stage: "transcribing", Error: "boom",
		ImageURL: "img", AudioURL: "aud", CreatedAt: now,
	}
	require.NoError(t, client.ErrorLogs.Append(context.Background(), entry))
	assert.Error(t, client.ErrorLogs.Append(context.Background(), entry))
}
