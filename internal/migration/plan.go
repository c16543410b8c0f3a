package migration

import (
	"fmt"

	"github.com/davebowl/Canna-spot-mobile/internal/database"
	"github.com/davebowl/Canna-spot-mobile/internal/introspect"
	"github.com/davebowl/Canna-spot-mobile/internal/schema"
)

// Build computes the plan that brings the observed schema up to the catalog.
// It has no side effects. Missing tables are created in foreign key order
// together with their indexes; missing columns of existing tables follow in
// declaration order; missing indexes of existing tables come last. An
// observed schema that already satisfies the catalog yields an empty plan.
func Build(cat *schema.Catalog, obs *introspect.Observed, d database.Dialect) (*Plan, error) {
	tables, err := schema.DependencyOrder(cat.Tables)
	if err != nil {
		return nil, fmt.Errorf("ordering tables: %w", err)
	}

	var steps []Step

	for _, t := range tables {
		if !obs.HasTable(t.Name) {
			steps = append(steps, createTableStep(t, d))

			continue
		}

		for _, c := range t.Columns {
			if it := schema.ColumnItem(t.Name, c); !obs.Has(it) {
				steps = append(steps, addColumnStep(t.Name, c, d))
			}
		}

		for _, ix := range t.Indexes {
			if it := schema.IndexItem(ix); !obs.Has(it) {
				steps = append(steps, createIndexStep(ix, d))
			}
		}
	}

	return &Plan{CatalogVersion: cat.Version, Steps: Sort(steps)}, nil
}

func createTableStep(t schema.Table, d database.Dialect) Step {
	target := schema.TableItem(t)
	stmts := []string{d.CreateTable(t, false)}
	covers := []schema.Item{target}

	for _, c := range t.Columns {
		covers = append(covers, schema.ColumnItem(t.Name, c))
	}

	for _, ix := range t.Indexes {
		stmts = append(stmts, d.CreateIndex(ix, false, false))
		covers = append(covers, schema.IndexItem(ix))
	}

	return newStep(CreateTable, t.Name, "create table "+t.Name, target, covers, stmts, true)
}

func addColumnStep(table string, c schema.Column, d database.Dialect) Step {
	target := schema.ColumnItem(table, c)

	return newStep(AddColumn, table, "add column "+table+"."+c.Name, target,
		[]schema.Item{target}, []string{d.AddColumn(table, c)}, true)
}

// createIndexStep builds the index without blocking writes where the engine
// can, which rules out a surrounding transaction. An index only reaches the
// plan when no valid one exists, so a leftover invalid one is dropped first.
func createIndexStep(ix schema.Index, d database.Dialect) Step {
	target := schema.IndexItem(ix)
	concurrent := d.SupportsConcurrentIndex()

	var stmts []string
	if drop := d.DropInvalidIndex(ix.Name); concurrent && drop != "" {
		stmts = append(stmts, drop)
	}

	stmts = append(stmts, d.CreateIndex(ix, false, concurrent))

	return newStep(CreateIndex, ix.Table, "create index "+ix.Name, target,
		[]schema.Item{target}, stmts, !concurrent)
}

func newStep(kind Kind, table, name string, target schema.Item, covers []schema.Item, stmts []string, tx bool) Step {
	s := Step{
		ID:            target.ID(),
		Kind:          kind,
		Table:         table,
		Name:          name,
		Statements:    stmts,
		Transactional: tx,
		Target:        target,
		Covers:        covers,
	}
	s.Checksum = ComputeChecksum(s.SQL())

	return s
}
