package store

import (
	"context"
	"database/sql"

	"github.com/tmkeil/variantconf/internal/apperr"
	"github.com/tmkeil/variantconf/internal/model"
)

// PutRawLabel upserts the as-ingested label text for a node, kept
// separate from its parsed segments (spec "Label segment" entity).
func (s *Store) PutRawLabel(ctx context.Context, q Querier, nodeID int64, de, en string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO node_labels (node_id, raw_label, raw_label_en) VALUES ($1, $2, $3)
		ON CONFLICT (node_id) DO UPDATE SET raw_label = EXCLUDED.raw_label, raw_label_en = EXCLUDED.raw_label_en`,
		nodeID, de, en)
	if err != nil {
		return apperr.Internal(err, "upsert raw label")
	}
	return nil
}

// RawLabel fetches the as-ingested label text for a node.
func (s *Store) RawLabel(ctx context.Context, q Querier, nodeID int64) (de, en string, err error) {
	row := q.QueryRowContext(ctx, `SELECT raw_label, raw_label_en FROM node_labels WHERE node_id = $1`, nodeID)
	if err := row.Scan(&de, &en); err != nil {
		if err == sql.ErrNoRows {
			return "", "", nil
		}
		return "", "", apperr.Internal(err, "read raw label")
	}
	return de, en, nil
}

// ReplaceSegments deletes and reinserts the parsed label segments for
// a node, used both on initial ingest and on reparse (spec
// "Supplemented features": merge-on-reimport never loses segments it
// doesn't touch, but a full reparse of one node's label is atomic).
func (s *Store) ReplaceSegments(ctx context.Context, tx *sql.Tx, nodeID int64, segs []model.LabelSegment) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM segment_subsegments WHERE node_id = $1`, nodeID); err != nil {
		return apperr.Internal(err, "clear old segments")
	}
	for _, seg := range segs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO segment_subsegments
				(node_id, title, code_segment, position_start, position_end, label_de, label_en, display_order)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			nodeID, seg.Title, seg.CodeSegment, seg.PositionStart, seg.PositionEnd,
			seg.LabelDE, seg.LabelEN, seg.DisplayOrder); err != nil {
			return apperr.Internal(err, "insert label segment")
		}
	}
	return nil
}

// SegmentsFor returns the parsed label segments for a node, ordered
// for display.
func (s *Store) SegmentsFor(ctx context.Context, q Querier, nodeID int64) ([]model.LabelSegment, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, node_id, title, code_segment, position_start, position_end, label_de, label_en, display_order
		FROM segment_subsegments WHERE node_id = $1 ORDER BY display_order, id`, nodeID)
	if err != nil {
		return nil, apperr.Internal(err, "query label segments")
	}
	defer rows.Close()
	var out []model.LabelSegment
	for rows.Next() {
		var seg model.LabelSegment
		if err := rows.Scan(&seg.ID, &seg.NodeID, &seg.Title, &seg.CodeSegment,
			&seg.PositionStart, &seg.PositionEnd, &seg.LabelDE, &seg.LabelEN, &seg.DisplayOrder); err != nil {
			return nil, apperr.Internal(err, "scan label segment")
		}
		out = append(out, seg)
	}
	return out, rows.Err()
}
