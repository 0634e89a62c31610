package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const listItems = `
SELECT id, name, price, sales_fee, is_active, created_at, updated_at
FROM items
ORDER BY name
`

func (q *Queries) ListItems(ctx context.Context) ([]Item, error) {
	rows, err := q.db.Query(ctx, listItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Item
	for rows.Next() {
		var i Item
		if err := rows.Scan(&i.ID, &i.Name, &i.Price, &i.SalesFee, &i.IsActive, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listActiveItems = `
SELECT id, name, price, sales_fee, is_active, created_at, updated_at
FROM items
WHERE is_active = true
ORDER BY name
`

func (q *Queries) ListActiveItems(ctx context.Context) ([]Item, error) {
	rows, err := q.db.Query(ctx, listActiveItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Item
	for rows.Next() {
		var i Item
		if err := rows.Scan(&i.ID, &i.Name, &i.Price, &i.SalesFee, &i.IsActive, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getItem = `
SELECT id, name, price, sales_fee, is_active, created_at, updated_at
FROM items
WHERE id = $1
`

func (q *Queries) GetItem(ctx context.Context, id uuid.UUID) (Item, error) {
	row := q.db.QueryRow(ctx, getItem, id)
	var i Item
	err := row.Scan(&i.ID, &i.Name, &i.Price, &i.SalesFee, &i.IsActive, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const getActiveItem = `
SELECT id, name, price, sales_fee, is_active, created_at, updated_at
FROM items
WHERE id = $1 AND is_active = true
`

func (q *Queries) GetActiveItem(ctx context.Context, id uuid.UUID) (Item, error) {
	row := q.db.QueryRow(ctx, getActiveItem, id)
	var i Item
	err := row.Scan(&i.ID, &i.Name, &i.Price, &i.SalesFee, &i.IsActive, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const createItem = `
INSERT INTO items (name, price, sales_fee)
VALUES ($1, $2, $3)
RETURNING id, name, price, sales_fee, is_active, created_at, updated_at
`

type CreateItemParams struct {
	Name     string
	Price    pgtype.Numeric
	SalesFee pgtype.Numeric
}

func (q *Queries) CreateItem(ctx context.Context, arg CreateItemParams) (Item, error) {
	row := q.db.QueryRow(ctx, createItem, arg.Name, arg.Price, arg.SalesFee)
	var i Item
	err := row.Scan(&i.ID, &i.Name, &i.Price, &i.SalesFee, &i.IsActive, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const updateItem = `
UPDATE items
SET name = $2, price = $3, sales_fee = $4, updated_at = now()
WHERE id = $1
RETURNING id, name, price, sales_fee, is_active, created_at, updated_at
`

type UpdateItemParams struct {
	ID       uuid.UUID
	Name     string
	Price    pgtype.Numeric
	SalesFee pgtype.Numeric
}

func (q *Queries) UpdateItem(ctx context.Context, arg UpdateItemParams) (Item, error) {
	row := q.db.QueryRow(ctx, updateItem, arg.ID, arg.Name, arg.Price, arg.SalesFee)
	var i Item
	err := row.Scan(&i.ID, &i.Name, &i.Price, &i.SalesFee, &i.IsActive, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const setItemActive = `
UPDATE items
SET is_active = $2, updated_at = now()
WHERE id = $1
RETURNING id, name, price, sales_fee, is_active, created_at, updated_at
`

type SetItemActiveParams struct {
	ID       uuid.UUID
	IsActive bool
}

func (q *Queries) SetItemActive(ctx context.Context, arg SetItemActiveParams) (Item, error) {
	row := q.db.QueryRow(ctx, setItemActive, arg.ID, arg.IsActive)
	var i Item
	err := row.Scan(&i.ID, &i.Name, &i.Price, &i.SalesFee, &i.IsActive, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}
