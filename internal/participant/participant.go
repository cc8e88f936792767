// Package participant owns attendee registrations and the mobile-number
// uniqueness rule.
package participant

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"qrattend/internal/apperror"
	"qrattend/internal/store"
)

const (
	collection      = "participants"
	mobileIndex     = "participantMobiles"
	conflictMessage = "Mobile number already registered."
)

// Participant is a registered attendee. Records are immutable once created.
type Participant struct {
	ID         string    `json:"id,omitempty"`
	FullName   string    `json:"fullName"`
	Mobile     string    `json:"mobile"`
	Email      string    `json:"email"`
	Department string    `json:"department"`
	EmployeeID string    `json:"employeeId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Registration is the self-service sign-up payload.
type Registration struct {
	FullName   string
	Mobile     string
	Email      string
	Department string
	EmployeeID string
}

type indexEntry struct {
	ParticipantID string `json:"participantId"`
}

// NormalizeMobile returns the uniqueness key for a mobile number.
func NormalizeMobile(mobile string) string {
	return strings.ToLower(strings.TrimSpace(mobile))
}

// Directory registers and looks up participants. A secondary index keyed by
// normalized mobile gates uniqueness. Records written before the index existed
// are indexed by a single scan on the first lookup; after that an index miss
// means the mobile is unknown.
type Directory struct {
	docs store.Documents
	log  *zap.Logger
	now  func() time.Time

	indexMu sync.Mutex
	indexed bool
}

// NewDirectory creates a directory over docs.
func NewDirectory(docs store.Documents, log *zap.Logger) *Directory {
	return &Directory{docs: docs, log: log, now: time.Now}
}

// Get returns the participant with id, or nil.
func (d *Directory) Get(ctx context.Context, id string) (*Participant, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	raw, err := d.docs.Get(ctx, store.Path(collection, id))
	if err != nil {
		return nil, apperror.Store("read participant", err)
	}
	if raw == nil {
		return nil, nil
	}
	p, err := decode(id, raw)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByMobile returns the participant registered with mobile, or nil.
func (d *Directory) FindByMobile(ctx context.Context, mobile string) (*Participant, error) {
	key := NormalizeMobile(mobile)
	if key == "" {
		return nil, nil
	}

	if err := d.backfillIndex(ctx); err != nil {
		return nil, err
	}

	raw, err := d.docs.Get(ctx, store.Path(mobileIndex, key))
	if err != nil {
		return nil, apperror.Store("read mobile index", err)
	}
	if raw == nil {
		return nil, nil
	}
	var entry indexEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		d.log.Warn("skipping undecodable mobile index entry", zap.String("mobile_key", key), zap.Error(err))
		return nil, nil
	}
	return d.Get(ctx, entry.ParticipantID)
}

// backfillIndex claims an index entry for every stored participant. It runs
// once per Directory; a failed run is retried by the next lookup.
func (d *Directory) backfillIndex(ctx context.Context) error {
	d.indexMu.Lock()
	defer d.indexMu.Unlock()
	if d.indexed {
		return nil
	}

	all, err := d.docs.List(ctx, collection)
	if err != nil {
		return apperror.Store("list participants", err)
	}
	added := 0
	for id, body := range all {
		p, err := decode(id, body)
		if err != nil {
			d.log.Warn("skipping undecodable participant", zap.String("participant_id", id), zap.Error(err))
			continue
		}
		key := NormalizeMobile(p.Mobile)
		if key == "" {
			continue
		}
		entry, _ := json.Marshal(indexEntry{ParticipantID: id})
		claimed, err := d.docs.CompareAndSwap(ctx, store.Path(mobileIndex, key), nil, entry)
		if err != nil {
			return apperror.Store("backfill mobile index", err)
		}
		if claimed {
			added++
		}
	}
	d.indexed = true
	if added > 0 {
		d.log.Info("mobile index backfilled", zap.Int("entries", added), zap.Int("participants", len(all)))
	}
	return nil
}

// claimMobile points the index entry for key at id. An entry naming a
// participant that no longer exists is taken over.
func (d *Directory) claimMobile(ctx context.Context, key, id string) (bool, error) {
	path := store.Path(mobileIndex, key)
	entry, _ := json.Marshal(indexEntry{ParticipantID: id})
	claimed, err := d.docs.CompareAndSwap(ctx, path, nil, entry)
	if err != nil || claimed {
		return claimed, err
	}

	cur, err := d.docs.Get(ctx, path)
	if err != nil {
		return false, err
	}
	if cur == nil {
		return d.docs.CompareAndSwap(ctx, path, nil, entry)
	}
	var held indexEntry
	if err := json.Unmarshal(cur, &held); err == nil {
		if held.ParticipantID == id {
			return true, nil
		}
		owner, err := d.Get(ctx, held.ParticipantID)
		if err != nil {
			return false, err
		}
		if owner != nil {
			return false, nil
		}
	}
	d.log.Warn("replacing stale mobile index entry", zap.String("mobile_key", key), zap.String("participant_id", held.ParticipantID))
	return d.docs.CompareAndSwap(ctx, path, cur, entry)
}

// Register creates a participant if the mobile number is not taken.
func (d *Directory) Register(ctx context.Context, reg Registration) (Participant, error) {
	p := Participant{
		FullName:   strings.TrimSpace(reg.FullName),
		Mobile:     strings.TrimSpace(reg.Mobile),
		Email:      strings.TrimSpace(reg.Email),
		Department: strings.TrimSpace(reg.Department),
		EmployeeID: strings.TrimSpace(reg.EmployeeID),
	}
	if p.FullName == "" || p.Mobile == "" {
		return Participant{}, apperror.Validation("Full name and mobile are required.")
	}

	existing, err := d.FindByMobile(ctx, p.Mobile)
	if err != nil {
		return Participant{}, err
	}
	if existing != nil {
		return Participant{}, apperror.Conflict(conflictMessage)
	}

	p.CreatedAt = d.now()
	body, err := json.Marshal(p)
	if err != nil {
		return Participant{}, apperror.Store("encode participant", err)
	}
	id, err := d.docs.Push(ctx, collection, body)
	if err != nil {
		return Participant{}, apperror.Store("write participant", err)
	}
	p.ID = id

	claimed, err := d.claimMobile(ctx, NormalizeMobile(p.Mobile), id)
	if err != nil || !claimed {
		if derr := d.docs.Delete(ctx, store.Path(collection, id)); derr != nil {
			d.log.Error("remove unclaimed participant", zap.String("participant_id", id), zap.Error(derr))
		}
		if err != nil {
			return Participant{}, apperror.Store("claim mobile", err)
		}
		return Participant{}, apperror.Conflict(conflictMessage)
	}

	d.log.Info("participant registered", zap.String("participant_id", id))
	return p, nil
}

func decode(id string, raw []byte) (Participant, error) {
	var p Participant
	if err := json.Unmarshal(raw, &p); err != nil {
		return Participant{}, apperror.Store("decode participant", err)
	}
	p.ID = id
	return p, nil
}
