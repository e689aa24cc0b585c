package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-dashboard-api/internal/models"
)

var parentDelete = guardedDelete{
	entity: "parent",
	lock:   `SELECT id FROM parents WHERE id = $1 FOR UPDATE`,
	dependents: []dependentQuery{
		{relation: models.RelationStudents, count: `SELECT COUNT(*) FROM students WHERE parent_id = $1`},
	},
	remove: `DELETE FROM parents WHERE id = $1`,
}

// ParentRepository manages persistence for parents.
type ParentRepository struct {
	db *sqlx.DB
}

// NewParentRepository constructs a ParentRepository.
func NewParentRepository(db *sqlx.DB) *ParentRepository {
	return &ParentRepository{db: db}
}

// FindByID fetches a parent by id.
func (r *ParentRepository) FindByID(ctx context.Context, id string) (*models.Parent, error) {
	const query = `SELECT id, username, name, surname, email, phone, address, created_at FROM parents WHERE id = $1`
	var parent models.Parent
	if err := r.db.GetContext(ctx, &parent, query, id); err != nil {
		return nil, err
	}
	return &parent, nil
}

// Create inserts a parent.
func (r *ParentRepository) Create(ctx context.Context, parent *models.Parent) error {
	if parent.CreatedAt.IsZero() {
		parent.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO parents (id, username, name, surname, email, phone, address, created_at)
		VALUES (:id, :username, :name, :surname, :email, :phone, :address, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, parent); err != nil {
		return fmt.Errorf("create parent: %w", err)
	}
	return nil
}

// Update modifies a parent.
func (r *ParentRepository) Update(ctx context.Context, parent *models.Parent) error {
	const query = `UPDATE parents SET username = :username, name = :name, surname = :surname, email = :email, phone = :phone, address = :address WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, parent)
	if err != nil {
		return fmt.Errorf("update parent: %w", err)
	}
	return expectAffected(res, "update parent")
}

// Delete removes a parent once guard approves its dependents.
func (r *ParentRepository) Delete(ctx context.Context, id string, guard models.DeleteGuard) error {
	return parentDelete.run(ctx, r.db, id, guard)
}
