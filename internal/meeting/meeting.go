// Package meeting owns meeting records and the active-meeting pointer.
package meeting

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"qrattend/internal/apperror"
	"qrattend/internal/store"
)

// Meeting statuses.
const (
	StatusActive = "active"
	StatusEnded  = "ended"
)

const (
	collection  = "meetings"
	pointerPath = "state/activeMeeting"
)

// DateLayout is the calendar-day format used for meeting and attendance dates.
const DateLayout = "2006-01-02"

// Meeting is a single organizer-run session.
type Meeting struct {
	ID        string     `json:"id,omitempty"`
	Title     string     `json:"title"`
	Venue     string     `json:"venue"`
	Time      string     `json:"time"`
	Status    string     `json:"status"`
	Date      string     `json:"date"`
	StartedAt time.Time  `json:"startTimestamp"`
	EndedAt   *time.Time `json:"endTimestamp,omitempty"`
}

// Active reports whether the meeting still accepts check-ins.
func (m Meeting) Active() bool { return m.Status == StatusActive }

type pointer struct {
	MeetingID string `json:"meetingId"`
}

// Registry enforces that at most one meeting is active. The pointer at
// state/activeMeeting is the source of truth; a pointer to a missing or
// ended meeting reads as "no active meeting".
type Registry struct {
	docs store.Documents
	log  *zap.Logger
	now  func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the time source used for dates and timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// NewRegistry creates a registry over docs.
func NewRegistry(docs store.Documents, log *zap.Logger, opts ...Option) *Registry {
	r := &Registry{docs: docs, log: log, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the meeting with id, or nil when it does not exist.
func (r *Registry) Get(ctx context.Context, id string) (*Meeting, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	raw, err := r.docs.Get(ctx, store.Path(collection, id))
	if err != nil {
		return nil, apperror.Store("read meeting", err)
	}
	if raw == nil {
		return nil, nil
	}
	var m Meeting
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, apperror.Store("decode meeting", err)
	}
	m.ID = id
	return &m, nil
}

// Active returns the currently active meeting, or nil.
func (r *Registry) Active(ctx context.Context) (*Meeting, error) {
	m, _, err := r.active(ctx)
	return m, err
}

// active also returns the raw pointer body it observed so callers can swap
// against exactly that value.
func (r *Registry) active(ctx context.Context) (*Meeting, []byte, error) {
	raw, err := r.docs.Get(ctx, pointerPath)
	if err != nil {
		return nil, nil, apperror.Store("read active meeting", err)
	}
	if raw == nil {
		return nil, nil, nil
	}
	var p pointer
	if err := json.Unmarshal(raw, &p); err != nil || p.MeetingID == "" {
		r.log.Warn("ignoring malformed active meeting pointer", zap.ByteString("pointer", raw))
		return nil, raw, nil
	}
	m, err := r.Get(ctx, p.MeetingID)
	if err != nil {
		return nil, raw, err
	}
	if m == nil || !m.Active() {
		return nil, raw, nil
	}
	return m, raw, nil
}

// Start creates a meeting and makes it the active one.
func (r *Registry) Start(ctx context.Context, title, venue, at string) (Meeting, error) {
	title, venue, at = strings.TrimSpace(title), strings.TrimSpace(venue), strings.TrimSpace(at)
	if title == "" || venue == "" || at == "" {
		return Meeting{}, apperror.Validation("Title, venue, and time are required.")
	}

	existing, observed, err := r.active(ctx)
	if err != nil {
		return Meeting{}, err
	}
	if existing != nil {
		return Meeting{}, apperror.Conflict("A meeting is already active. End it before starting a new one.")
	}

	now := r.now()
	m := Meeting{
		Title:     title,
		Venue:     venue,
		Time:      at,
		Status:    StatusActive,
		Date:      now.Format(DateLayout),
		StartedAt: now,
	}
	body, err := json.Marshal(m)
	if err != nil {
		return Meeting{}, apperror.Store("encode meeting", err)
	}
	// The meeting must exist before the pointer references it.
	id, err := r.docs.Push(ctx, collection, body)
	if err != nil {
		return Meeting{}, apperror.Store("write meeting", err)
	}
	m.ID = id

	next, _ := json.Marshal(pointer{MeetingID: id})
	swapped, err := r.docs.CompareAndSwap(ctx, pointerPath, observed, next)
	if err != nil || !swapped {
		if derr := r.docs.Delete(ctx, store.Path(collection, id)); derr != nil {
			r.log.Error("remove orphaned meeting", zap.String("meeting_id", id), zap.Error(derr))
		}
		if err != nil {
			return Meeting{}, apperror.Store("set active meeting", err)
		}
		return Meeting{}, apperror.Conflict("A meeting is already active. End it before starting a new one.")
	}

	r.log.Info("meeting started",
		zap.String("meeting_id", id),
		zap.String("title", title),
		zap.String("date", m.Date),
	)
	return m, nil
}

// End marks the active meeting ended and clears the pointer.
func (r *Registry) End(ctx context.Context) (string, error) {
	m, observed, err := r.active(ctx)
	if err != nil {
		return "", err
	}
	if m == nil {
		return "", apperror.NotFound("No active meeting to end.")
	}

	endedAt := r.now()
	if err := r.docs.Update(ctx, store.Path(collection, m.ID), map[string]any{
		"status":       StatusEnded,
		"endTimestamp": endedAt,
	}); err != nil {
		return "", apperror.Store("end meeting", err)
	}

	swapped, err := r.docs.CompareAndSwap(ctx, pointerPath, observed, nil)
	if err != nil {
		return "", apperror.Store("clear active meeting", err)
	}
	if !swapped {
		// Another caller already moved the pointer; the meeting is ended either way.
		r.log.Warn("active meeting pointer changed while ending", zap.String("meeting_id", m.ID))
	}

	r.log.Info("meeting ended", zap.String("meeting_id", m.ID))
	return m.ID, nil
}
