// Package seed populates sample pricing records for local development.
package seed

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type record struct {
	table  string
	id     string
	title  string
	column string
	price  float64
}

// Sample records cover the column drift the resolver handles: each row
// carries its price under a different historical column name.
var samples = []record{
	{table: "leads", id: "lead-sample-1", title: "Lead: peneira vibratória", column: "price", price: 50},
	{table: "leads", id: "lead-sample-2", title: "Lead: britador de mandíbula", column: "valor", price: 80},
	{table: "opportunities", id: "opp-sample-1", title: "Oportunidade: correia transportadora", column: "value", price: 120},
	{table: "demands", id: "demand-sample-1", title: "Demanda: locação de escavadeira", column: "preco", price: 35},
}

// EnsureDevData inserts sample purchasable records when they are absent.
// Only called outside production.
func EnsureDevData(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, r := range samples {
			err := tx.WithContext(ctx).Exec(
				`INSERT INTO `+r.table+` (id, title, `+r.column+`) VALUES (?, ?, ?)
				 ON CONFLICT (id) DO NOTHING`,
				r.id, r.title, r.price,
			).Error
			if err != nil {
				return err
			}
		}
		return tx.WithContext(ctx).Exec(
			`INSERT INTO demand_leads (demand_id, lead_id, amount) VALUES (?, ?, ?)
			 ON CONFLICT (demand_id, lead_id) DO NOTHING`,
			"demand-sample-1", "lead-sample-1", 65.0,
		).Error
	})
}
