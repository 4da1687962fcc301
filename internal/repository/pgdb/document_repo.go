package pgdb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/tr"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// DocumentRepo реализует хранилище документов поверх таблицы documents (jsonb).
// Внутри транзакции из контекста запросы идут через неё, иначе через пул.
type DocumentRepo struct {
	pool *pgxpool.Pool
	conv converter.DocumentConverter
}

func NewDocumentRepo(pool *pgxpool.Pool, conv converter.DocumentConverter) *DocumentRepo {
	return &DocumentRepo{
		pool: pool,
		conv: conv,
	}
}

// List возвращает все документы коллекции в порядке создания.
func (d *DocumentRepo) List(ctx context.Context, collection string) ([]domain.Document, error) {
	query := `
		SELECT id, fields
		FROM documents
		WHERE collection = $1
		ORDER BY created_at, id
	`

	rows, err := tr.QuerierFromCtx(ctx, d.pool).Query(ctx, query, collection)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	docs := make([]domain.Document, 0)
	for rows.Next() {
		var model converter.DocumentModel
		if err := rows.Scan(&model.ID, &model.Fields); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		doc, err := d.conv.ToEntity(&model)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return docs, nil
}

// Get возвращает документ или e.ErrDocumentNotFound.
func (d *DocumentRepo) Get(ctx context.Context, collection, id string) (*domain.Document, error) {
	query := `
		SELECT id, fields
		FROM documents
		WHERE collection = $1 AND id = $2
	`

	var model converter.DocumentModel
	err := tr.QuerierFromCtx(ctx, d.pool).QueryRow(ctx, query, collection, id).Scan(&model.ID, &model.Fields)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrDocumentNotFound)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	doc, err := d.conv.ToEntity(&model)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return doc, nil
}

// Add создаёт документ со сгенерированным id.
func (d *DocumentRepo) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	data, err := d.conv.FieldsToJSON(fields)
	if err != nil {
		return "", e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		INSERT INTO documents (collection, id, fields)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id string
	if err := tr.QuerierFromCtx(ctx, d.pool).QueryRow(ctx, query, collection, uuid.NewString(), data).Scan(&id); err != nil {
		return "", e.Wrap(whereami.WhereAmI(), err)
	}

	return id, nil
}

// Set создаёт или перезаписывает документ. При merge поля сливаются с существующими.
func (d *DocumentRepo) Set(ctx context.Context, collection, id string, fields map[string]any, merge bool) error {
	data, err := d.conv.FieldsToJSON(fields)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		INSERT INTO documents (collection, id, fields)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, id)
		DO UPDATE SET fields = EXCLUDED.fields, updated_at = NOW()
	`
	if merge {
		query = `
			INSERT INTO documents (collection, id, fields)
			VALUES ($1, $2, $3)
			ON CONFLICT (collection, id)
			DO UPDATE SET fields = documents.fields || EXCLUDED.fields, updated_at = NOW()
		`
	}

	if _, err := tr.QuerierFromCtx(ctx, d.pool).Exec(ctx, query, collection, id, data); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// Update сливает поля с существующим документом; для отсутствующего документа возвращает e.ErrDocumentNotFound.
func (d *DocumentRepo) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	data, err := d.conv.FieldsToJSON(fields)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		UPDATE documents
		SET fields = fields || $3, updated_at = NOW()
		WHERE collection = $1 AND id = $2
	`

	tag, err := tr.QuerierFromCtx(ctx, d.pool).Exec(ctx, query, collection, id, data)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if tag.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrDocumentNotFound)
	}

	return nil
}

// Delete удаляет документ; удаление отсутствующего документа не ошибка.
func (d *DocumentRepo) Delete(ctx context.Context, collection, id string) error {
	query := `DELETE FROM documents WHERE collection = $1 AND id = $2`

	if _, err := tr.QuerierFromCtx(ctx, d.pool).Exec(ctx, query, collection, id); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
