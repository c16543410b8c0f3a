package introspect

import (
	"context"

	"github.com/davebowl/Canna-spot-mobile/internal/schema"
)

// Observed is the live state of every item in the expected catalog.
type Observed struct {
	present map[string]bool
	// Baseline lists items found in the database that the ledger does not
	// record yet, in catalog order.
	Baseline []schema.Item
	// Probes counts catalog queries issued.
	Probes int
}

// Has reports whether the item was observed (or vouched for by the ledger).
func (o *Observed) Has(it schema.Item) bool {
	return o.present[it.ID()]
}

// HasTable reports whether the table exists.
func (o *Observed) HasTable(name string) bool {
	return o.present["table:"+name]
}

// NewObserved builds an Observed from a set of present item IDs. Used by
// callers that already know the state, such as tests and dry runs.
func NewObserved(presentIDs ...string) *Observed {
	o := &Observed{present: make(map[string]bool, len(presentIDs))}
	for _, id := range presentIDs {
		o.present[id] = true
	}

	return o
}

// Observe probes the database for every catalog item. Items recorded in the
// ledger with a matching checksum are trusted without a probe unless verify
// is set. Columns and indexes of a missing table are absent without probing.
// Any probe failure aborts observation.
func Observe(ctx context.Context, in Introspector, cat *schema.Catalog, known map[string]string, verify bool) (*Observed, error) {
	obs := NewObserved()

	for _, it := range cat.Items() {
		if !verify && known[it.ID()] == it.Checksum() {
			obs.present[it.ID()] = true

			continue
		}

		if it.Kind != schema.KindTable && !obs.HasTable(it.Table) {
			continue
		}

		ok, err := probe(ctx, in, it)
		obs.Probes++

		if err != nil {
			return nil, err
		}

		if !ok {
			continue
		}

		obs.present[it.ID()] = true

		if known[it.ID()] != it.Checksum() {
			obs.Baseline = append(obs.Baseline, it)
		}
	}

	return obs, nil
}

func probe(ctx context.Context, in Introspector, it schema.Item) (bool, error) {
	switch it.Kind {
	case schema.KindTable:
		return in.TableExists(ctx, it.Table)
	case schema.KindColumn:
		return in.ColumnExists(ctx, it.Table, it.Column.Name)
	case schema.KindIndex:
		return in.IndexExists(ctx, it.Index.Name)
	default:
		return false, nil
	}
}
