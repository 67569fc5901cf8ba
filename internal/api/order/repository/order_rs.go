package orderRepository

import (
	"Replicaide/internal/entity"
	contextPkg "Replicaide/pkg/context"
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

type OrderDB struct {
	ID           string         `db:"id"`
	UserID       sql.NullString `db:"user_id"`
	CustomerName string         `db:"customer_name"`
	Items        types.JSONText `db:"items"`
	Total        float64        `db:"total"`
	Language     string         `db:"language"`
	CreatedAt    time.Time      `db:"created_at"`
}

func (r *orderRepository) Save(c context.Context, o entity.Order) error {
	requestID := contextPkg.GetRequestID(c)

	items := o.Items
	if items == nil {
		items = []entity.OrderItem{}
	}
	itemsJSON, err := jsoniter.Marshal(items)
	if err != nil {
		return err
	}

	argsKV := map[string]interface{}{
		"id":            o.ID,
		"user_id":       sql.NullString{String: o.UserID, Valid: o.UserID != ""},
		"customer_name": o.CustomerName,
		"items":         types.JSONText(itemsJSON),
		"total":         o.Total,
		"language":      o.Language,
		"created_at":    o.CreatedAt,
	}

	query, args, err := sqlx.Named(queryCreateOrder, argsKV)
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
			"order_id":   o.ID,
			"error":      err.Error(),
		}).Error("Database error when saving order")
		return err
	}

	return nil
}

func (r *orderRepository) List(c context.Context) ([]entity.Order, error) {
	requestID := contextPkg.GetRequestID(c)

	rows, err := r.q.QueryxContext(c, queryListOrders)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("List execution err")
		return nil, err
	}
	defer rows.Close()

	orders := make([]entity.Order, 0)
	for rows.Next() {
		var row OrderDB
		if err := rows.StructScan(&row); err != nil {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Error("List scan err")
			return nil, err
		}

		o, err := makeOrder(row)
		if err != nil {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"order_id":   row.ID,
				"error":      err.Error(),
			}).Error("List decode items err")
			return nil, err
		}
		orders = append(orders, o)
	}

	return orders, rows.Err()
}

func makeOrder(row OrderDB) (entity.Order, error) {
	items := make([]entity.OrderItem, 0)
	if len(row.Items) > 0 {
		if err := jsoniter.Unmarshal(row.Items, &items); err != nil {
			return entity.Order{}, err
		}
	}

	return entity.Order{
		ID:           row.ID,
		UserID:       row.UserID.String,
		CustomerName: row.CustomerName,
		Items:        items,
		Total:        row.Total,
		Language:     row.Language,
		CreatedAt:    row.CreatedAt,
	}, nil
}
