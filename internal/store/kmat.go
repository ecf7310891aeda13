package store

import (
	"context"

	"github.com/lib/pq"

	"github.com/tmkeil/variantconf/internal/apperr"
	"github.com/tmkeil/variantconf/internal/model"
)

// CreateKmatReference inserts a KMAT export mapping for one complete
// path through a family (§4, "Supplemented features": KMAT export).
func (s *Store) CreateKmatReference(ctx context.Context, q Querier, k *model.KmatReference) (int64, error) {
	var id int64
	row := q.QueryRowContext(ctx, `
		INSERT INTO kmat_references (family_id, path_node_ids, full_typecode, kmat_reference)
		VALUES ($1,$2,$3,$4) RETURNING id`,
		k.FamilyID, pq.Array(k.PathNodeIDs), k.FullTypeCode, k.KmatReference)
	if err := row.Scan(&id); err != nil {
		return 0, classifyPQError(err, "")
	}
	return id, nil
}

// DeleteKmatReference removes a KMAT mapping by id.
func (s *Store) DeleteKmatReference(ctx context.Context, q Querier, id int64) error {
	res, err := q.ExecContext(ctx, `DELETE FROM kmat_references WHERE id = $1`, id)
	if err != nil {
		return classifyPQError(err, "")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return apperr.Internal(err, "rows affected")
	}
	if affected == 0 {
		return apperr.NotFound("kmat reference %d not found", id)
	}
	return nil
}

// KmatReferencesFor returns every mapping recorded for a family.
func (s *Store) KmatReferencesFor(ctx context.Context, q Querier, familyID int64) ([]*model.KmatReference, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, family_id, path_node_ids, full_typecode, kmat_reference
		FROM kmat_references WHERE family_id = $1 ORDER BY id`, familyID)
	if err != nil {
		return nil, apperr.Internal(err, "query kmat references")
	}
	defer rows.Close()
	var out []*model.KmatReference
	for rows.Next() {
		k := &model.KmatReference{}
		if err := rows.Scan(&k.ID, &k.FamilyID, pq.Array(&k.PathNodeIDs), &k.FullTypeCode, &k.KmatReference); err != nil {
			return nil, apperr.Internal(err, "scan kmat reference")
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// KmatReferenceByPath looks up the mapping for an exact path, used to
// detect duplicates before insert (the UNIQUE constraint backstops
// this, but a friendlier conflict message needs the lookup first).
func (s *Store) KmatReferenceByPath(ctx context.Context, q Querier, familyID int64, pathNodeIDs []int64) (*model.KmatReference, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, family_id, path_node_ids, full_typecode, kmat_reference
		FROM kmat_references WHERE family_id = $1 AND path_node_ids = $2`,
		familyID, pq.Array(pathNodeIDs))
	k := &model.KmatReference{}
	if err := row.Scan(&k.ID, &k.FamilyID, pq.Array(&k.PathNodeIDs), &k.FullTypeCode, &k.KmatReference); err != nil {
		return nil, classifyPQError(err, "no kmat reference for that path")
	}
	return k, nil
}
