package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/bistro-kart/internal/domain/menu"
)

const (
	listCategoriesSQL = `SELECT key, title FROM menu_categories ORDER BY position`

	listEntriesSQL = `SELECT e.id, e.name, e.description, e.price, e.category_key, e.popular, e.image
		FROM menu_entries e
		JOIN menu_categories c ON c.key = e.category_key
		ORDER BY c.position, e.position`

	getEntrySQL = `SELECT id, name, description, price, category_key, popular, image
		FROM menu_entries WHERE id = $1`

	listExtrasSQL = `SELECT entry_id, id, name, price FROM menu_extras ORDER BY entry_id, position`

	getEntryExtrasSQL = `SELECT entry_id, id, name, price FROM menu_extras WHERE entry_id = $1 ORDER BY position`

	countEntriesSQL = `SELECT count(*) FROM menu_entries`

	deleteCatalogSQL = `DELETE FROM menu_categories`

	insertCategorySQL = `INSERT INTO menu_categories (key, title, position) VALUES ($1, $2, $3)`

	insertEntrySQL = `INSERT INTO menu_entries
		(id, category_key, name, description, price, image, popular, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	insertExtraSQL = `INSERT INTO menu_extras (entry_id, id, name, price, position)
		VALUES ($1, $2, $3, $4, $5)`
)

var _ menu.Catalog = (*MenuRepository)(nil)

// MenuRepository implements menu.Catalog backed by PostgreSQL.
type MenuRepository struct {
	pool *pgxpool.Pool
}

// NewMenuRepository returns a MenuRepository that uses the given pool.
func NewMenuRepository(pool *pgxpool.Pool) *MenuRepository {
	return &MenuRepository{pool: pool}
}

type extraRow struct {
	entryID string
	extra   menu.Extra
}

// Categories returns every category with its entries and extras in display
// order.
func (r *MenuRepository) Categories(ctx context.Context) ([]menu.Category, error) {
	rows, err := r.pool.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	categories, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (menu.Category, error) {
		var c menu.Category
		err := row.Scan(&c.Key, &c.Title)
		return c, err
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan categories")
	}

	rows, err = r.pool.Query(ctx, listEntriesSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list entries")
	}
	entries, err := pgx.CollectRows(rows, scanEntry)
	if err != nil {
		return nil, errors.Wrap(err, "scan entries")
	}

	rows, err = r.pool.Query(ctx, listExtrasSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list extras")
	}
	extras, err := pgx.CollectRows(rows, scanExtra)
	if err != nil {
		return nil, errors.Wrap(err, "scan extras")
	}

	byEntry := make(map[string][]menu.Extra)
	for _, x := range extras {
		byEntry[x.entryID] = append(byEntry[x.entryID], x.extra)
	}
	index := make(map[string]int, len(categories))
	for i, c := range categories {
		index[c.Key] = i
	}
	for _, e := range entries {
		e.Extras = byEntry[e.ID]
		i := index[e.Category]
		categories[i].Entries = append(categories[i].Entries, e)
	}
	return categories, nil
}

// Entry returns one entry with its extras, or menu.ErrNotFound.
func (r *MenuRepository) Entry(ctx context.Context, id string) (*menu.Entry, error) {
	rows, err := r.pool.Query(ctx, getEntrySQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get entry %q", id)
	}
	entry, err := pgx.CollectExactlyOneRow(rows, scanEntry)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, menu.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get entry %q", id)
	}

	rows, err = r.pool.Query(ctx, getEntryExtrasSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get extras of %q", id)
	}
	extras, err := pgx.CollectRows(rows, scanExtra)
	if err != nil {
		return nil, errors.Wrapf(err, "scan extras of %q", id)
	}
	for _, x := range extras {
		entry.Extras = append(entry.Extras, x.extra)
	}
	return &entry, nil
}

// Count returns the number of stored menu entries.
func (r *MenuRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, countEntriesSQL).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count entries")
	}
	return n, nil
}

// SaveCatalog replaces the stored catalog with categories in one
// transaction. Positions follow slice order.
func (r *MenuRepository) SaveCatalog(ctx context.Context, categories []menu.Category) error {
	if err := menu.Validate(categories); err != nil {
		return errors.Wrap(err, "validate catalog")
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, deleteCatalogSQL); err != nil {
			return errors.Wrap(err, "delete catalog")
		}

		b := &pgx.Batch{}
		for ci, c := range categories {
			b.Queue(insertCategorySQL, c.Key, c.Title, ci)
			for ei, e := range c.Entries {
				b.Queue(insertEntrySQL, e.ID, c.Key, e.Name, e.Description, e.Price, e.Image, e.Popular, ei)
				for xi, x := range e.Extras {
					b.Queue(insertExtraSQL, e.ID, x.ID, x.Name, x.Price, xi)
				}
			}
		}
		if err := tx.SendBatch(ctx, b).Close(); err != nil {
			return errors.Wrap(err, "insert catalog")
		}
		return nil
	})
}

func scanEntry(row pgx.CollectableRow) (menu.Entry, error) {
	var e menu.Entry
	err := row.Scan(&e.ID, &e.Name, &e.Description, &e.Price, &e.Category, &e.Popular, &e.Image)
	return e, err
}

func scanExtra(row pgx.CollectableRow) (extraRow, error) {
	var x extraRow
	err := row.Scan(&x.entryID, &x.extra.ID, &x.extra.Name, &x.extra.Price)
	return x, err
}
