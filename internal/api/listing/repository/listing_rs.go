package listingRepository

import (
	"Replicaide/internal/api/listing"
	"Replicaide/internal/entity"
	contextPkg "Replicaide/pkg/context"
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

type ListingDB struct {
	ID            string         `db:"id"`
	UserID        sql.NullString `db:"user_id"`
	Image         string         `db:"image"`
	Audio         string         `db:"audio"`
	English       types.JSONText `db:"eng"`
	Spanish       types.JSONText `db:"esp"`
	PriceRaw      string         `db:"price_raw"`
	PriceAmount   float64        `db:"price_amount"`
	PriceCurrency string         `db:"price_currency"`
	Transcript    string         `db:"transcript"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (r *listingRepository) Save(c context.Context, l entity.Listing) error {
	requestID := contextPkg.GetRequestID(c)

	eng, err := jsoniter.Marshal(l.English)
	if err != nil {
		return err
	}
	esp, err := jsoniter.Marshal(l.Spanish)
	if err != nil {
		return err
	}

	argsKV := map[string]interface{}{
		"id":             l.ID,
		"user_id":        sql.NullString{String: l.UserID, Valid: l.UserID != ""},
		"image":          l.Image,
		"audio":          l.Audio,
		"eng":            types.JSONText(eng),
		"esp":            types.JSONText(esp),
		"price_raw":      l.Price.Raw,
		"price_amount":   l.Price.Amount,
		"price_currency": l.Price.Currency,
		"transcript":     l.Transcript,
		"created_at":     l.CreatedAt,
		"updated_at":     l.UpdatedAt,
	}

	query, args, err := sqlx.Named(queryCreateListing, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for Save")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(c, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"listing_id": l.ID,
			"error":      err.Error(),
		}).Error("Database error when saving listing")
		return err
	}

	return nil
}

func (r *listingRepository) List(c context.Context) ([]entity.Listing, error) {
	requestID := contextPkg.GetRequestID(c)

	rows, err := r.q.QueryxContext(c, queryListListings)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("List execution err")
		return nil, err
	}
	defer rows.Close()

	listings := make([]entity.Listing, 0)
	for rows.Next() {
		var row ListingDB
		if err := rows.StructScan(&row); err != nil {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Error("List scan err")
			return nil, err
		}

		l, err := r.makeListing(row)
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}

	return listings, rows.Err()
}

func (r *listingRepository) GetByID(c context.Context, id string) (entity.Listing, error) {
	requestID := contextPkg.GetRequestID(c)

	query, args, err := sqlx.Named(queryGetListingByID, map[string]interface{}{"id": id})
	if err != nil {
		return entity.Listing{}, err
	}
	query = r.q.Rebind(query)

	var row ListingDB
	if err := r.q.QueryRowxContext(c, query, args...).StructScan(&row); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"listing_id": id,
			}).Warn("GetByID no rows found")
			return entity.Listing{}, listing.ErrListingNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetByID execution err")
		return entity.Listing{}, err
	}

	return r.makeListing(row)
}

// Update merges the given fields into the stored variant for lang. The
// other variant is never written.
func (r *listingRepository) Update(c context.Context, id string, lang entity.Language, update ContentUpdate) error {
	requestID := contextPkg.GetRequestID(c)

	patch := map[string]string{}
	if update.Title != nil {
		patch["title"] = *update.Title
	}
	if update.Description != nil {
		patch["description"] = *update.Description
	}
	patchJSON, err := jsoniter.Marshal(patch)
	if err != nil {
		return err
	}

	argsKV := map[string]interface{}{
		"id":             id,
		"patch":          string(patchJSON),
		"price_raw":      nil,
		"price_amount":   nil,
		"price_currency": nil,
		"updated_at":     time.Now(),
	}
	if update.Price != nil {
		argsKV["price_raw"] = update.Price.Raw
		argsKV["price_amount"] = update.Price.Amount
		argsKV["price_currency"] = update.Price.Currency
	}

	namedQuery := queryUpdateEnglish
	if lang == entity.LanguageSpanish {
		namedQuery = queryUpdateSpanish
	}

	query, args, err := sqlx.Named(namedQuery, argsKV)
	if err != nil {
		return err
	}
	query = r.q.Rebind(query)

	res, err := r.q.ExecContext(c, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"listing_id": id,
			"error":      err.Error(),
		}).Error("Database error when updating listing")
		return err
	}

	return expectOneRow(res)
}

func (r *listingRepository) Delete(c context.Context, id string) error {
	requestID := contextPkg.GetRequestID(c)

	query, args, err := sqlx.Named(queryDeleteListing, map[string]interface{}{"id": id})
	if err != nil {
		return err
	}
	query = r.q.Rebind(query)

	res, err := r.q.ExecContext(c, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"listing_id": id,
			"error":      err.Error(),
		}).Error("Database error when deleting listing")
		return err
	}

	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return listing.ErrListingNotFound
	}
	return nil
}

func (r *listingRepository) makeListing(row ListingDB) (entity.Listing, error) {
	l := entity.Listing{
		ID:     row.ID,
		UserID: row.UserID.String,
		Image:  row.Image,
		Audio:  row.Audio,
		Price: entity.Price{
			Raw:      row.PriceRaw,
			Amount:   row.PriceAmount,
			Currency: row.PriceCurrency,
		},
		Transcript: row.Transcript,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}

	if err := row.English.Unmarshal(&l.English); err != nil {
		return entity.Listing{}, err
	}
	if err := row.Spanish.Unmarshal(&l.Spanish); err != nil {
		return entity.Listing{}, err
	}

	return l, nil
}
