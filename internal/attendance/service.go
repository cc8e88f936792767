package attendance

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"qrattend/internal/apperror"
	"qrattend/internal/meeting"
	"qrattend/internal/participant"
)

// Record is a single check-in. Participant and meeting fields are snapshots
// taken at check-in time so reports do not move when the sources change.
type Record struct {
	ID                    string    `json:"id,omitempty"`
	ParticipantID         string    `json:"participantId"`
	ParticipantName       string    `json:"participantName"`
	ParticipantMobile     string    `json:"participantMobile"`
	ParticipantEmail      string    `json:"participantEmail"`
	ParticipantDepartment string    `json:"participantDepartment"`
	MeetingID             string    `json:"meetingId"`
	MeetingTitle          string    `json:"meetingTitle"`
	MeetingVenue          string    `json:"meetingVenue"`
	MeetingTime           string    `json:"meetingTime"`
	Date                  string    `json:"date"`
	Timestamp             time.Time `json:"timestamp"`
}

// Outcome of a check-in. Both values are successes.
type Outcome string

const (
	OutcomeMarked        Outcome = "marked"
	OutcomeAlreadyMarked Outcome = "already_marked"
)

// Result carries the outcome and the record that now represents the pair.
type Result struct {
	Outcome     Outcome
	Record      Record
	Participant participant.Participant
	Meeting     meeting.Meeting
}

// Request is an incoming check-in. Either Mobile or ParticipantID identifies
// the attendee; MeetingID is the optional hint carried by a QR link.
type Request struct {
	Mobile        string
	ParticipantID string
	MeetingID     string
}

// Meetings is the read side of the meeting registry the ledger depends on.
type Meetings interface {
	Get(ctx context.Context, id string) (*meeting.Meeting, error)
	Active(ctx context.Context) (*meeting.Meeting, error)
}

// Participants is the read side of the participant directory.
type Participants interface {
	Get(ctx context.Context, id string) (*participant.Participant, error)
	FindByMobile(ctx context.Context, mobile string) (*participant.Participant, error)
}

// Service coordinates check-ins and deduplication.
type Service struct {
	repo         *Repository
	meetings     Meetings
	participants Participants
	log          *zap.Logger
	now          func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source for check-in timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a service backed by a repository.
func NewService(repo *Repository, meetings Meetings, participants Participants, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		repo:         repo,
		meetings:     meetings,
		participants: participants,
		log:          log,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResolveIdentity finds the attendee by id or, failing that, by mobile.
func (s *Service) ResolveIdentity(ctx context.Context, mobile, participantID string) (participant.Participant, error) {
	participantID = strings.TrimSpace(participantID)
	mobile = strings.TrimSpace(mobile)

	if participantID != "" {
		p, err := s.participants.Get(ctx, participantID)
		if err != nil {
			return participant.Participant{}, err
		}
		if p == nil {
			return participant.Participant{}, apperror.NotFound("Participant not found.")
		}
		return *p, nil
	}
	if mobile == "" {
		return participant.Participant{}, apperror.Validation("Mobile number or participant ID is required.")
	}
	p, err := s.participants.FindByMobile(ctx, mobile)
	if err != nil {
		return participant.Participant{}, err
	}
	if p == nil {
		return participant.Participant{}, apperror.NotFound("You must register first.")
	}
	return *p, nil
}

// ResolveMeeting prefers the hinted meeting while it is still active and
// otherwise falls back to whatever meeting is active now.
func (s *Service) ResolveMeeting(ctx context.Context, hint string) (meeting.Meeting, error) {
	if hint = strings.TrimSpace(hint); hint != "" {
		m, err := s.meetings.Get(ctx, hint)
		if err != nil {
			return meeting.Meeting{}, err
		}
		if m != nil && m.Active() {
			return *m, nil
		}
	}
	m, err := s.meetings.Active(ctx)
	if err != nil {
		return meeting.Meeting{}, err
	}
	if m == nil {
		return meeting.Meeting{}, apperror.NotFound("No active meeting. Please start a meeting first.")
	}
	return *m, nil
}

// CheckIn records that p attended m, at most once per pair.
func (s *Service) CheckIn(ctx context.Context, p participant.Participant, m meeting.Meeting) (Result, error) {
	res := Result{Participant: p, Meeting: m}

	existing, err := s.repo.Find(ctx, m.ID, p.ID)
	if err != nil {
		return Result{}, err
	}
	if existing != nil {
		res.Outcome, res.Record = OutcomeAlreadyMarked, *existing
		return res, nil
	}

	now := s.now()
	date := m.Date
	if date == "" {
		date = now.Format(meeting.DateLayout)
	}
	rec := Record{
		ParticipantID:         p.ID,
		ParticipantName:       p.FullName,
		ParticipantMobile:     p.Mobile,
		ParticipantEmail:      p.Email,
		ParticipantDepartment: p.Department,
		MeetingID:             m.ID,
		MeetingTitle:          m.Title,
		MeetingVenue:          m.Venue,
		MeetingTime:           m.Time,
		Date:                  date,
		Timestamp:             now,
	}

	created, err := s.repo.Create(ctx, rec)
	if err != nil {
		return Result{}, err
	}
	if !created {
		// A concurrent check-in for the same pair won the write.
		winner, err := s.repo.Find(ctx, m.ID, p.ID)
		if err != nil {
			return Result{}, err
		}
		if winner != nil {
			rec = *winner
		}
		res.Outcome, res.Record = OutcomeAlreadyMarked, rec
		return res, nil
	}

	rec.ID = Key(m.ID, p.ID)
	s.log.Info("attendance marked",
		zap.String("participant_id", p.ID),
		zap.String("meeting_id", m.ID),
		zap.String("date", date),
	)
	res.Outcome, res.Record = OutcomeMarked, rec
	return res, nil
}

// Mark resolves the attendee and meeting for req and checks in.
func (s *Service) Mark(ctx context.Context, req Request) (Result, error) {
	p, err := s.ResolveIdentity(ctx, req.Mobile, req.ParticipantID)
	if err != nil {
		return Result{}, err
	}
	m, err := s.ResolveMeeting(ctx, req.MeetingID)
	if err != nil {
		return Result{}, err
	}
	return s.CheckIn(ctx, p, m)
}

// Records lists the full ledger.
func (s *Service) Records(ctx context.Context) ([]Record, error) {
	return s.repo.List(ctx)
}
