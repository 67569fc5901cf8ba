package listingRepository

import (
	"Replicaide/internal/entity"
	contextPkg "Replicaide/pkg/context"
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

func (r *errorLogRepository) Append(c context.Context, entry entity.ErrorLog) error {
	query, args, err := sqlx.Named(queryAppendErrorLog, entry)
	if err != nil {
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(c, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(c),
			"stage":      entry.Stage,
			"error":      err.Error(),
		}).Error("Failed to append error log")
		return err
	}

	return nil
}
