package attendance

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"qrattend/internal/apperror"
	"qrattend/internal/store"
)

const collection = "attendance"

// Repository persists attendance records. Each record lives at the composite
// key of its meeting and participant, so the key itself is the uniqueness gate.
type Repository struct {
	docs store.Documents
	log  *zap.Logger
}

// NewRepository creates a repo.
func NewRepository(docs store.Documents, log *zap.Logger) *Repository {
	if log == nil {
		log = zap.NewNop()
	}
	return &Repository{docs: docs, log: log}
}

// Key returns the record id for a (meeting, participant) pair.
func Key(meetingID, participantID string) string {
	return meetingID + "_" + participantID
}

// Find returns the record for the pair, or nil.
func (r *Repository) Find(ctx context.Context, meetingID, participantID string) (*Record, error) {
	id := Key(meetingID, participantID)
	raw, err := r.docs.Get(ctx, store.Path(collection, id))
	if err != nil {
		return nil, apperror.Store("read attendance", err)
	}
	if raw == nil {
		return nil, nil
	}
	rec, err := decode(id, raw)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Create writes rec only if no record exists for its pair. It reports false
// when another writer got there first.
func (r *Repository) Create(ctx context.Context, rec Record) (bool, error) {
	id := Key(rec.MeetingID, rec.ParticipantID)
	rec.ID = ""
	body, err := json.Marshal(rec)
	if err != nil {
		return false, apperror.Store("encode attendance", err)
	}
	created, err := r.docs.CompareAndSwap(ctx, store.Path(collection, id), nil, body)
	if err != nil {
		return false, apperror.Store("write attendance", err)
	}
	return created, nil
}

// List returns every attendance record in no particular order. Records that
// fail to decode are logged and skipped.
func (r *Repository) List(ctx context.Context) ([]Record, error) {
	all, err := r.docs.List(ctx, collection)
	if err != nil {
		return nil, apperror.Store("list attendance", err)
	}
	out := make([]Record, 0, len(all))
	for id, raw := range all {
		rec, err := decode(id, raw)
		if err != nil {
			r.log.Warn("skipping undecodable attendance record", zap.String("attendance_id", id), zap.Error(err))
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func decode(id string, raw []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, apperror.Store("decode attendance", err)
	}
	rec.ID = id
	return rec, nil
}
