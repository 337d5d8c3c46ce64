package sqlite

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/custodia-labs/opsmind/internal/adapters/driven/storage/similarity"
	"github.com/custodia-labs/opsmind/internal/core/domain"
	"github.com/custodia-labs/opsmind/internal/core/ports/driven"
)

// loadBatch bounds the number of bound parameters in one IN clause.
const loadBatch = 500

// chunkIndex implements driven.ChunkIndex.
type chunkIndex struct {
	store     *Store
	precision domain.VectorPrecision
}

var _ driven.ChunkIndex = (*chunkIndex)(nil)

// chunkRow is one row of the chunks table.
type chunkRow struct {
	ID             string  `db:"id"`
	DocumentName   string  `db:"document_name"`
	PageRef        string  `db:"page_ref"`
	Section        string  `db:"section"`
	Content        string  `db:"content"`
	Position       int     `db:"position"`
	Embedding      []byte  `db:"embedding"`
	EmbeddingQ8    []byte  `db:"embedding_q8"`
	Q8Scale        float64 `db:"q8_scale"`
	Dimensions     int     `db:"dimensions"`
	EmbeddingModel string  `db:"embedding_model"`
	UploadedAt     int64   `db:"uploaded_at"`
}

// candidateRow is the slice of a chunk the prefilter needs.
type candidateRow struct {
	ID             string  `db:"id"`
	DocumentName   string  `db:"document_name"`
	EmbeddingQ8    []byte  `db:"embedding_q8"`
	Q8Scale        float64 `db:"q8_scale"`
	Dimensions     int     `db:"dimensions"`
	EmbeddingModel string  `db:"embedding_model"`
}

type roleRow struct {
	ChunkID string `db:"chunk_id"`
	Role    string `db:"role"`
}

// ReplaceDocument deletes and reinserts a document's chunks in one transaction.
func (s *chunkIndex) ReplaceDocument(ctx context.Context, name string, chunks []domain.DocumentChunk) (int, error) {
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			return 0, fmt.Errorf("%w: chunk %s has no embedding", domain.ErrInvalidInput, c.ID)
		}
	}

	tx, err := s.store.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, indexErr("beginning transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	removed, err := deleteDocument(ctx, tx, name)
	if err != nil {
		return 0, err
	}

	chunkStmt, err := tx.PreparexContext(ctx, `
		INSERT INTO chunks (id, document_name, page_ref, section, content, position,
			embedding, embedding_q8, q8_scale, dimensions, embedding_model, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, indexErr("preparing chunk insert", err)
	}
	defer chunkStmt.Close()

	roleStmt, err := tx.PreparexContext(ctx, "INSERT INTO chunk_roles (chunk_id, role, ord) VALUES (?, ?, ?)")
	if err != nil {
		return 0, indexErr("preparing role insert", err)
	}
	defer roleStmt.Close()

	for _, c := range chunks {
		q := similarity.Quantize(c.Embedding)
		if _, err := chunkStmt.ExecContext(ctx, c.ID, name, c.PageRef, c.Section, c.Text, c.Position,
			float32SliceToBytes(c.Embedding), q.Bytes(), float64(q.Scale), len(c.Embedding),
			c.EmbeddingModel, c.UploadedAt.UnixNano()); err != nil {
			return 0, indexErr("saving chunk", err)
		}
		for i, role := range c.AllowedRoles {
			if _, err := roleStmt.ExecContext(ctx, c.ID, string(role), i); err != nil {
				return 0, indexErr("saving chunk role", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, indexErr("committing transaction", err)
	}
	return removed, nil
}

// DeleteDocument removes a document. Absent names return zero.
func (s *chunkIndex) DeleteDocument(ctx context.Context, name string) (int, error) {
	tx, err := s.store.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, indexErr("beginning transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	removed, err := deleteDocument(ctx, tx, name)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, indexErr("committing transaction", err)
	}
	return removed, nil
}

// deleteDocument removes chunks by name; role rows cascade.
func deleteDocument(ctx context.Context, tx *sqlx.Tx, name string) (int, error) {
	res, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_name = ?", name)
	if err != nil {
		return 0, indexErr("deleting chunks", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, indexErr("counting deleted chunks", err)
	}
	return int(n), nil
}

// Search ranks the chunks visible to q.Role. Invisible chunks are excluded by
// the SQL join and never scored.
func (s *chunkIndex) Search(ctx context.Context, q domain.VectorQuery) ([]domain.ScoredChunk, error) {
	var candidates []candidateRow
	err := s.store.db.SelectContext(ctx, &candidates, `
		SELECT c.id, c.document_name, c.embedding_q8, c.q8_scale, c.dimensions, c.embedding_model
		FROM chunks c
		JOIN chunk_roles r ON r.chunk_id = c.id
		WHERE r.role = ?
	`, string(q.Role))
	if err != nil {
		return nil, indexErr("querying candidates", err)
	}

	for _, c := range candidates {
		if c.Dimensions != len(q.Vector) {
			return nil, fmt.Errorf("%w: chunk %s of %q has %d dimensions (model %s), query has %d",
				domain.ErrDimensionMismatch, c.ID, c.DocumentName, c.Dimensions, c.EmbeddingModel, len(q.Vector))
		}
	}

	if s.precision == domain.VectorPrecisionInt8 && q.Candidates > 0 && len(candidates) > q.Candidates {
		candidates = prefilter(candidates, similarity.Quantize(q.Vector), q.Candidates)
	}

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	chunks, err := s.load(ctx, ids)
	if err != nil {
		return nil, err
	}

	results := make([]domain.ScoredChunk, 0, len(chunks))
	for _, c := range chunks {
		results = append(results, domain.ScoredChunk{
			Chunk: c,
			Score: similarity.Cosine(q.Vector, c.Embedding),
		})
	}
	return similarity.Top(results, q.Limit), nil
}

// prefilter keeps the n candidates with the best approximate score.
func prefilter(candidates []candidateRow, query similarity.Quantized, n int) []candidateRow {
	type scored struct {
		row   candidateRow
		score float64
	}
	ranked := make([]scored, len(candidates))
	for i, c := range candidates {
		ranked[i] = scored{c, similarity.ApproxCosine(query, similarity.QuantizedFromBytes(c.EmbeddingQ8, float32(c.Q8Scale)))}
	}
	slices.SortStableFunc(ranked, func(a, b scored) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		case a.row.ID < b.row.ID:
			return -1
		case a.row.ID > b.row.ID:
			return 1
		}
		return 0
	})
	out := make([]candidateRow, n)
	for i := range out {
		out[i] = ranked[i].row
	}
	return out
}

// load fetches full chunks with their roles, in batches.
func (s *chunkIndex) load(ctx context.Context, ids []string) ([]domain.DocumentChunk, error) {
	out := make([]domain.DocumentChunk, 0, len(ids))
	for start := 0; start < len(ids); start += loadBatch {
		batch := ids[start:min(start+loadBatch, len(ids))]

		query, args, err := sqlx.In(`
			SELECT id, document_name, page_ref, section, content, position, embedding,
				embedding_q8, q8_scale, dimensions, embedding_model, uploaded_at
			FROM chunks WHERE id IN (?)
		`, batch)
		if err != nil {
			return nil, indexErr("building chunk query", err)
		}
		var rows []chunkRow
		if err := s.store.db.SelectContext(ctx, &rows, s.store.db.Rebind(query), args...); err != nil {
			return nil, indexErr("loading chunks", err)
		}

		query, args, err = sqlx.In("SELECT chunk_id, role FROM chunk_roles WHERE chunk_id IN (?) ORDER BY ord", batch)
		if err != nil {
			return nil, indexErr("building role query", err)
		}
		var roles []roleRow
		if err := s.store.db.SelectContext(ctx, &roles, s.store.db.Rebind(query), args...); err != nil {
			return nil, indexErr("loading chunk roles", err)
		}
		byChunk := make(map[string][]domain.Role, len(rows))
		for _, r := range roles {
			byChunk[r.ChunkID] = append(byChunk[r.ChunkID], domain.Role(r.Role))
		}

		for _, r := range rows {
			out = append(out, r.toDomain(byChunk[r.ID]))
		}
	}
	return out, nil
}

func (r chunkRow) toDomain(roles []domain.Role) domain.DocumentChunk {
	return domain.DocumentChunk{
		ID:             r.ID,
		DocumentName:   r.DocumentName,
		PageRef:        r.PageRef,
		Section:        r.Section,
		Position:       r.Position,
		Text:           r.Content,
		Embedding:      bytesToFloat32Slice(r.Embedding),
		EmbeddingModel: r.EmbeddingModel,
		AllowedRoles:   roles,
		UploadedAt:     time.Unix(0, r.UploadedAt).UTC(),
	}
}

// summaryRow is one aggregated document.
type summaryRow struct {
	Name       string `db:"document_name"`
	Chunks     int    `db:"chunks"`
	Pages      int    `db:"pages"`
	UploadedAt int64  `db:"uploaded_at"`
}

// ListDocuments summarises documents with at least one chunk visible to role.
func (s *chunkIndex) ListDocuments(ctx context.Context, role domain.Role) ([]domain.DocumentSummary, error) {
	var rows []summaryRow
	err := s.store.db.SelectContext(ctx, &rows, `
		SELECT c.document_name, COUNT(*) AS chunks, COUNT(DISTINCT c.page_ref) AS pages,
			MAX(c.uploaded_at) AS uploaded_at
		FROM chunks c
		WHERE c.document_name IN (
			SELECT v.document_name FROM chunks v
			JOIN chunk_roles r ON r.chunk_id = v.id
			WHERE r.role = ?
		)
		GROUP BY c.document_name
		ORDER BY c.document_name
	`, string(role))
	if err != nil {
		return nil, indexErr("listing documents", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	var roles []struct {
		Name string `db:"document_name"`
		Role string `db:"role"`
	}
	err = s.store.db.SelectContext(ctx, &roles, `
		SELECT c.document_name, r.role
		FROM chunks c
		JOIN chunk_roles r ON r.chunk_id = c.id
		GROUP BY c.document_name, r.role
		ORDER BY c.document_name, MIN(r.ord)
	`)
	if err != nil {
		return nil, indexErr("listing document roles", err)
	}
	byName := make(map[string][]domain.Role)
	for _, r := range roles {
		byName[r.Name] = append(byName[r.Name], domain.Role(r.Role))
	}

	out := make([]domain.DocumentSummary, len(rows))
	for i, r := range rows {
		out[i] = domain.DocumentSummary{
			Name:         r.Name,
			Chunks:       r.Chunks,
			Pages:        r.Pages,
			AllowedRoles: byName[r.Name],
			UploadedAt:   time.Unix(0, r.UploadedAt).UTC(),
		}
	}
	return out, nil
}

// CountChunks returns the number of stored chunks.
func (s *chunkIndex) CountChunks(ctx context.Context) (int, error) {
	var n int
	if err := s.store.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM chunks"); err != nil {
		return 0, indexErr("counting chunks", err)
	}
	return n, nil
}
