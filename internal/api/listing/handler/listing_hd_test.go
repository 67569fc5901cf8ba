package listingHandler

import (
	"Replicaide/internal/api/listing"
	"Replicaide/internal/entity"
	"Replicaide/internal/middleware"
	jwtPkg "Replicaide/pkg/jwt"
	"Replicaide/pkg/utils"
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "listing-secret"

func TestMain(m *testing.M) {
	os.Setenv("APP_ENV", "test")
	os.Exit(m.Run())
}

type fakeActors struct {
	lastLocale string
}

func (f *fakeActors) Actor(_ context.Context, userID string, requested string) (entity.Actor, error) {
	f.lastLocale = requested
	locale := entity.LocaleEnglish
	if requested != "" {
		l, err := entity.ParseLocale(requested)
		if err != nil {
			return entity.Actor{}, listing.ErrInvalidLocale
		}
		locale = l
	}
	return entity.Actor{UserID: userID, Username: "ana", Locale: locale}, nil
}

type fakeListingService struct {
	created    listing.CreateListingInput
	lastActor  entity.Actor
	lastUpdate entity.ListingUpdate
	createErr  error
	records    map[string]entity.Listing
}

func (f *fakeListingService) Create(_ context.Context, actor entity.Actor, in listing.CreateListingInput) (entity.Listing, error) {
	f.created = in
	f.lastActor = actor
	if f.createErr != nil {
		return entity.Listing{}, f.createErr
	}
	rec := entity.Listing{ID: "01L", Image: "img", Audio: "aud", Price: entity.Price{Raw: "USD 12.50", Amount: 12.5, Currency: "USD"}}
	f.records[rec.ID] = rec
	return rec, nil
}

func (f *fakeListingService) List(context.Context) ([]entity.Listing, error) {
	out := make([]entity.Listing, 0, len(f.records))
	for _, l := range f.records {
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeListingService) Get(_ context.Context, id string) (entity.Listing, error) {
	l, ok := f.records[id]
	if !ok {
		return entity.Listing{}, listing.ErrListingNotFound
	}
	return l, nil
}

func (f *fakeListingService) Update(_ context.Context, actor entity.Actor, id string, u entity.ListingUpdate) (entity.Listing, error) {
	f.lastActor = actor
	f.lastUpdate = u
	if u.Empty() {
		return entity.Listing{}, listing.ErrEmptyUpdate
	}
	return f.Get(context.Background(), id)
}

func (f *fakeListingService) Delete(_ context.Context, id string) error {
	if _, ok := f.records[id]; !ok {
		return listing.ErrListingNotFound
	}
	delete(f.records, id)
	return nil
}

func newTestApp(t *testing.T) (*fiber.App, *fakeListingService, *fakeActors, string) {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	svc := &fakeListingService{records: map[string]entity.Listing{}}
	actors := &fakeActors{}
	mw := middleware.New(logger, middleware.Config{JWTSecret: testSecret})

	app := fiber.New()
	app.Use(mw.NewRequestIDMiddleware())
	New(logger, validator.New(), mw, svc, actors, utils.New()).Start(app.Group("/api/v1"))

	token, _, err := jwtPkg.Sign(map[string]interface{}{"id": "u1", "email": "ana@example.com", "username": "ana"}, testSecret, time.Hour)
	require.NoError(t, err)

	return app, svc, actors, "Bearer " + token
}

func addPart(t *testing.T, w *multipart.Writer, field, filename, contentType string, data []byte) {
	t.Helper()
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, field, filename))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
}

func uploadRequest(t *testing.T, path, token string, withAudio bool) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	addPart(t, w, "image", "img.png", "image/png", []byte("png-bytes"))
	if withAudio {
		addPart(t, w, "audio", "rec.webm", "audio/webm;codecs=opus", []byte("webm-bytes"))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", token)
	return req
}

func decode(t *testing.T, res *http.Response) map[string]interface{} {
	t.Helper()
	out := map[string]interface{}{}
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, jsoniter.Unmarshal(raw, &out))
	}
	return out
}

func TestCreateListing(t *testing.T) {
	app, svc, actors, token := newTestApp(t)

	res, err := app.Test(uploadRequest(t, "/api/v1/listings?lang=es", token, true), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, res.StatusCode)

	body := decode(t, res)
	assert.Equal(t, "01L", body["id"])
	assert.Equal(t, "$12.50", body["price"].(map[string]interface{})["formatted"])

	assert.Equal(t, "es", actors.lastLocale)
	assert.Equal(t, []byte("png-bytes"), svc.created.Image)
	assert.Equal(t, "audio/webm", svc.created.AudioMIMEType)
	assert.Equal(t, "rec.webm", svc.created.AudioName)
}

func TestCreateListingMissingAudio(t *testing.T) {
	app, _, _, token := newTestApp(t)

	res, err := app.Test(uploadRequest(t, "/api/v1/listings", token, false), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, listing.ErrMissingArtifact.Error(), decode(t, res)["error"])
}

func TestCreateListingPassesEmptyRecordingThrough(t *testing.T) {
	app, svc, _, token := newTestApp(t)

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	addPart(t, w, "image", "img.png", "image/png", []byte("png-bytes"))
	addPart(t, w, "audio", "rec.webm", "audio/webm", nil)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", token)

	res, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, res.StatusCode)
	require.NotNil(t, svc.created.Audio)
	assert.Empty(t, svc.created.Audio)
}

func TestCreateListingReportsStage(t *testing.T) {
	app, svc, _, token := newTestApp(t)
	svc.createErr = &listing.PipelineError{
		Stage: listing.StageAnalyzing,
		Kind:  listing.ErrAnalysisRejected,
		Err:   &listing.AnalysisRejectedError{Reason: "not food"},
	}

	res, err := app.Test(uploadRequest(t, "/api/v1/listings", token, true), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)

	body := decode(t, res)
	assert.Equal(t, "analyzing", body["stage"])
	assert.Equal(t, "analysis rejected: not food", body["error"])
}

func TestListingsRequireAuth(t *testing.T) {
	app, _, _, _ := newTestApp(t)

	res, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/listings", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestUpdateUsesLocaleHeader(t *testing.T) {
	app, svc, actors, token := newTestApp(t)
	svc.records["01L"] = entity.Listing{ID: "01L"}

	req := httptest.NewRequest(http.MethodPut, "/api/v1/listings/01L", strings.NewReader(`{"title":"Taco"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", token)
	req.Header.Set(LocaleHeader, "es-MX")

	res, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "es-MX", actors.lastLocale)
	assert.Equal(t, entity.LocaleSpanish, svc.lastActor.Locale)
	require.NotNil(t, svc.lastUpdate.Title)
	assert.Equal(t, "Taco", *svc.lastUpdate.Title)
	assert.Nil(t, svc.lastUpdate.Price)
}

func TestUpdateRejectsUnknownLocaleAndEmptyBody(t *testing.T) {
	app, svc, _, token := newTestApp(t)
	svc.records["01L"] = entity.Listing{ID: "01L"}

	send := func(body, lang string) *http.Response {
		req := httptest.NewRequest(http.MethodPut, "/api/v1/listings/01L?lang="+lang, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", token)
		res, err := app.Test(req)
		require.NoError(t, err)
		return res
	}

	assert.Equal(t, http.StatusBadRequest, send(`{"title":"Taco"}`, "xx").StatusCode)
	assert.Equal(t, http.StatusBadRequest, send(`{}`, "en").StatusCode)
	assert.Equal(t, http.StatusBadRequest, send(`{"title":""}`, "en").StatusCode)
}

func TestGetAndDeleteListing(t *testing.T) {
	app, svc, _, token := newTestApp(t)
	svc.records["01L"] = entity.Listing{ID: "01L"}

	do := func(method string) *http.Response {
		req := httptest.NewRequest(method, "/api/v1/listings/01L", nil)
		req.Header.Set("Authorization", token)
		res, err := app.Test(req)
		require.NoError(t, err)
		return res
	}

	assert.Equal(t, http.StatusOK, do(http.MethodGet).StatusCode)
	assert.Equal(t, http.StatusNoContent, do(http.MethodDelete).StatusCode)
	assert.Equal(t, http.StatusNotFound, do(http.MethodGet).StatusCode)
	assert.Equal(t, http.StatusNotFound, do(http.MethodDelete).StatusCode)
}
