package listingRepository

import (
	"Replicaide/internal/entity"
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

func New(db *sqlx.DB, log *logrus.Logger) Repository {
	return &repository{
		DB:  db,
		log: log,
	}
}

type repository struct {
	DB  *sqlx.DB
	log *logrus.Logger
}

type Repository interface {
	NewClient(tx bool) (Client, error)
}

func (r *repository) NewClient(tx bool) (Client, error) {
	var db sqlx.ExtContext
	var commitFunc, rollbackFunc func() error

	db = r.DB

	if tx {
		txx, err := r.DB.Beginx()
		if err != nil {
			return Client{}, err
		}

		db = txx
		commitFunc = txx.Commit
		rollbackFunc = txx.Rollback
	} else {
		commitFunc = func() error { return nil }
		rollbackFunc = func() error { return nil }
	}

	return Client{
		Listings:  &listingRepository{q: db, log: r.log},
		ErrorLogs: &errorLogRepository{q: db, log: r.log},
		Commit:    commitFunc,
		Rollback:  rollbackFunc,
	}, nil
}

type ListingRepository interface {
	Save(ctx context.Context, listing entity.Listing) error
	List(ctx context.Context) ([]entity.Listing, error)
	GetByID(ctx context.Context, id string) (entity.Listing, error)
	Update(ctx context.Context, id string, lang entity.Language, update ContentUpdate) error
	Delete(ctx context.Context, id string) error
}

type ErrorLogRepository interface {
	Append(ctx context.Context, entry entity.ErrorLog) error
}

type Client struct {
	Listings  ListingRepository
	ErrorLogs ErrorLogRepository

	Commit   func() error
	Rollback func() error
}

// ContentUpdate is a validated edit of one language variant. Nil fields are
// left as stored.
type ContentUpdate struct {
	Title       *string
	Description *string
	Price       *entity.Price
}

type listingRepository struct {
	q   sqlx.ExtContext
	log *logrus.Logger
}

type errorLogRepository struct {
	q   sqlx.ExtContext
	log *logrus.Logger
}
