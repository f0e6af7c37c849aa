package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"docvault/internal/model"
	"docvault/internal/query"
	"docvault/internal/repository"
)

const documentColumns = `id, title, description, tags, price, document_date, file_name,
		attachment_name, attachment_content_type, attachment_size, attachment_object_id,
		version, created_at, updated_at`

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*model.Document, error) {
	var (
		d        model.Document
		tags     []byte
		price    sql.NullFloat64
		fileName sql.NullString
		attName  sql.NullString
		attType  sql.NullString
		attSize  sql.NullInt64
		attObj   sql.NullString
	)
	if err := row.Scan(
		&d.ID,
		&d.Title,
		&d.Description,
		&tags,
		&price,
		&d.DocumentDate,
		&fileName,
		&attName,
		&attType,
		&attSize,
		&attObj,
		&d.Version,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}

	d.Tags = []string{}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &d.Tags); err != nil {
			return nil, fmt.Errorf("decode tags: %w", err)
		}
	}
	if price.Valid {
		p := price.Float64
		d.Price = &p
	}
	d.FileName = fileName.String
	if attObj.Valid {
		d.Attachment = &model.Attachment{
			Name:        attName.String,
			ContentType: attType.String,
			SizeBytes:   attSize.Int64,
			ObjectID:    attObj.String,
		}
	}
	return &d, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(b), nil
}

// attachmentArgs flattens an optional attachment into nullable column values.
func attachmentArgs(a *model.Attachment) (name, contentType, size, objectID any) {
	if a == nil {
		return nil, nil, nil, nil
	}
	return a.Name, a.ContentType, a.SizeBytes, a.ObjectID
}

func nullablePrice(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	q := `
		INSERT INTO documents (id, title, description, tags, price, document_date, file_name,
			attachment_name, attachment_content_type, attachment_size, attachment_object_id,
			version, created_at, updated_at)
		VALUES ($1, $2, $3, $4::jsonb, $5, $6, $7, $8, $9, $10, $11, 1, $12, $13)
		RETURNING ` + documentColumns

	tags, err := encodeTags(doc.Tags)
	if err != nil {
		return nil, err
	}
	attName, attType, attSize, attObj := attachmentArgs(doc.Attachment)

	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.Title,
		doc.Description,
		tags,
		nullablePrice(doc.Price),
		doc.DocumentDate,
		nullableString(doc.FileName),
		attName,
		attType,
		attSize,
		attObj,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	return scanDocument(row)
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}

// List returns the documents matching c.
func (r *DocumentPostgres) List(ctx context.Context, c query.Criteria) ([]model.Document, error) {
	q, args, err := buildListQuery(c)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// buildListQuery translates criteria into SQL. The text branch ORs, in
// precedence order: full-text, title substring, description substring,
// price equality and document-date day match.
func buildListQuery(c query.Criteria) (string, []any, error) {
	var (
		where []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if len(c.Tags) > 0 {
		tags, err := encodeTags(c.Tags)
		if err != nil {
			return "", nil, err
		}
		where = append(where, "tags @> "+next(tags)+"::jsonb")
	}

	if c.HasTerm() {
		term := next(c.Term)
		like := next("%" + query.EscapeLike(c.Term) + "%")
		or := []string{
			"search_vector @@ plainto_tsquery('simple', " + term + ")",
			"title ILIKE " + like + ` ESCAPE '\'`,
			"description ILIKE " + like + ` ESCAPE '\'`,
		}
		if c.Price != nil {
			or = append(or, "price = "+next(*c.Price))
		}
		if c.DateFrom != nil && c.DateTo != nil {
			or = append(or, "(document_date >= "+next(*c.DateFrom)+" AND document_date < "+next(*c.DateTo)+")")
		}
		where = append(where, "("+strings.Join(or, " OR ")+")")
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + documentColumns + " FROM documents")
	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY " + orderBy(c.Sort))
	return sb.String(), args, nil
}

func orderBy(s query.Sort) string {
	switch s {
	case query.SortCreatedAsc:
		return "created_at ASC, id ASC"
	case query.SortDateDesc:
		return "document_date DESC, id DESC"
	case query.SortDateAsc:
		return "document_date ASC, id ASC"
	case query.SortTitleAsc:
		return "lower(title) ASC, id ASC"
	case query.SortPriceDesc:
		return "price DESC NULLS LAST, id DESC"
	case query.SortPriceAsc:
		return "price ASC NULLS LAST, id ASC"
	default:
		return "created_at DESC, id DESC"
	}
}

// Update writes the mutable fields of doc and increments its version.
func (r *DocumentPostgres) Update(ctx context.Context, doc *model.Document, expectedVersion int) (*model.Document, error) {
	q := `
		UPDATE documents SET
			title = $2,
			description = $3,
			tags = $4::jsonb,
			price = $5,
			document_date = $6,
			file_name = $7,
			attachment_name = $8,
			attachment_content_type = $9,
			attachment_size = $10,
			attachment_object_id = $11,
			updated_at = $12,
			version = version + 1
		WHERE id = $1 AND ($13::int = 0 OR version = $13::int)
		RETURNING ` + documentColumns

	tags, err := encodeTags(doc.Tags)
	if err != nil {
		return nil, err
	}
	attName, attType, attSize, attObj := attachmentArgs(doc.Attachment)

	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.Title,
		doc.Description,
		tags,
		nullablePrice(doc.Price),
		doc.DocumentDate,
		nullableString(doc.FileName),
		attName,
		attType,
		attSize,
		attObj,
		doc.UpdatedAt,
		expectedVersion,
	)
	out, err := scanDocument(row)
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, sql.ErrNoRows) || expectedVersion == 0 {
		return nil, err
	}

	var exists bool
	if qErr := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM documents WHERE id = $1)`, doc.ID).Scan(&exists); qErr != nil {
		return nil, qErr
	}
	if exists {
		return nil, repository.ErrVersionMismatch
	}
	return nil, sql.ErrNoRows
}

// Delete removes a document by ID, returning sql.ErrNoRows when nothing was deleted.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ReferencedObjectIDs reports which of objectIDs are attached to a document.
func (r *DocumentPostgres) ReferencedObjectIDs(ctx context.Context, objectIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(objectIDs))
	if len(objectIDs) == 0 {
		return out, nil
	}
	ids, err := json.Marshal(objectIDs)
	if err != nil {
		return nil, err
	}

	const q = `
		SELECT attachment_object_id
		FROM documents
		WHERE attachment_object_id IN (SELECT jsonb_array_elements_text($1::jsonb))
	`
	rows, err := r.db.QueryContext(ctx, q, string(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

// TagUsage counts documents per tag.
func (r *DocumentPostgres) TagUsage(ctx context.Context) (map[string]int, error) {
	const q = `
		SELECT t.name, COUNT(*)
		FROM documents d, jsonb_array_elements_text(d.tags) AS t(name)
		GROUP BY t.name
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var (
			name  string
			count int
		)
		if err := rows.Scan(&name, &count); err != nil {
			return nil, err
		}
		out[name] = count
	}
	return out, rows.Err()
}
