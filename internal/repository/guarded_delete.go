package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-dashboard-api/internal/models"
)

// dependentQuery counts one dependent relation of a record. Remove detaches or deletes the
// dependents and is empty for relations that can only block.
type dependentQuery struct {
	relation models.Relation
	count    string
	remove   string
}

// guardedDelete describes the statements of an integrity-guarded delete.
type guardedDelete struct {
	entity     string
	lock       string
	dependents []dependentQuery
	remove     string
}

// run locks the root row, counts dependents, consults guard, applies the plan and deletes the root,
// all in one transaction. A guard error aborts with nothing written.
func (d guardedDelete) run(ctx context.Context, db *sqlx.DB, id string, guard models.DeleteGuard) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete %s: %w", d.entity, err)
	}
	defer func() { _ = tx.Rollback() }()

	var locked string
	if err := tx.GetContext(ctx, &locked, d.lock, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return fmt.Errorf("lock %s: %w", d.entity, err)
	}

	deps := make(models.Dependents, len(d.dependents))
	for _, q := range d.dependents {
		var n int
		if err := tx.GetContext(ctx, &n, q.count, id); err != nil {
			return fmt.Errorf("count %s %s: %w", d.entity, q.relation, err)
		}
		deps[q.relation] = n
	}

	var plan models.DeletePlan
	if guard != nil {
		if plan, err = guard(deps); err != nil {
			return err
		}
	}

	for _, rel := range append(append([]models.Relation{}, plan.Detach...), plan.Cascade...) {
		stmt := d.removal(rel)
		if stmt == "" {
			return fmt.Errorf("delete %s: relation %s cannot be removed", d.entity, rel)
		}
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("remove %s %s: %w", d.entity, rel, err)
		}
	}

	res, err := tx.ExecContext(ctx, d.remove, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", d.entity, err)
	}
	if err := expectAffected(res, "delete "+d.entity); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete %s: %w", d.entity, err)
	}
	return nil
}

func (d guardedDelete) removal(rel models.Relation) string {
	for _, q := range d.dependents {
		if q.relation == rel {
			return q.remove
		}
	}
	return ""
}
