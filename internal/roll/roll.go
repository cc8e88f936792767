// Package roll derives the read-side views of the attendance ledger: the live
// roll of the active meeting, per-date and per-meeting rolls, and the flat
// rows fed to the export renderers.
package roll

import (
	"context"
	"sort"
	"time"

	"qrattend/internal/attendance"
	"qrattend/internal/meeting"
)

// TimestampLayout formats check-in times in export rows.
const TimestampLayout = "2006-01-02 15:04:05"

// Ledger is the read side of the attendance ledger.
type Ledger interface {
	Records(ctx context.Context) ([]attendance.Record, error)
}

// Query filters and orders ledger records.
type Query struct {
	ledger Ledger
}

// NewQuery creates a query over ledger.
func NewQuery(ledger Ledger) *Query {
	return &Query{ledger: ledger}
}

// Live returns the active meeting's records, newest first. A nil meeting
// yields an empty roll.
func (q *Query) Live(ctx context.Context, active *meeting.Meeting) ([]attendance.Record, error) {
	if active == nil {
		return []attendance.Record{}, nil
	}
	return q.ByMeeting(ctx, active.ID)
}

// ByMeeting returns every record of one meeting, newest first.
func (q *Query) ByMeeting(ctx context.Context, meetingID string) ([]attendance.Record, error) {
	return q.filter(ctx, func(r attendance.Record) bool {
		return r.MeetingID == meetingID
	})
}

// ByDate returns records whose date equals date exactly, optionally narrowed
// to one meeting, newest first.
func (q *Query) ByDate(ctx context.Context, date, meetingID string) ([]attendance.Record, error) {
	return q.filter(ctx, func(r attendance.Record) bool {
		return r.Date == date && (meetingID == "" || r.MeetingID == meetingID)
	})
}

func (q *Query) filter(ctx context.Context, keep func(attendance.Record) bool) ([]attendance.Record, error) {
	all, err := q.ledger.Records(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]attendance.Record, 0, len(all))
	for _, r := range all {
		if keep(r) {
			out = append(out, r)
		}
	}
	SortNewestFirst(out)
	return out, nil
}

// SortNewestFirst orders records by timestamp descending; ties break on id
// so repeated reads are stable.
func SortNewestFirst(records []attendance.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		return a.ID < b.ID
	})
}

// Row is one flat export line.
type Row struct {
	FullName      string `json:"fullName"`
	Email         string `json:"email"`
	Mobile        string `json:"mobile"`
	Department    string `json:"department"`
	MeetingTitle  string `json:"meetingTitle"`
	MeetingVenue  string `json:"meetingVenue"`
	MeetingTime   string `json:"meetingTime"`
	MeetingID     string `json:"meetingId"`
	Timestamp     string `json:"timestamp"`
	Date          string `json:"date"`
	ParticipantID string `json:"participantId"`
}

// ExportRows maps records to rows in input order, formatting timestamps in loc.
func ExportRows(records []attendance.Record, loc *time.Location) []Row {
	if loc == nil {
		loc = time.Local
	}
	rows := make([]Row, 0, len(records))
	for _, r := range records {
		ts := ""
		if !r.Timestamp.IsZero() {
			ts = r.Timestamp.In(loc).Format(TimestampLayout)
		}
		rows = append(rows, Row{
			FullName:      r.ParticipantName,
			Email:         r.ParticipantEmail,
			Mobile:        r.ParticipantMobile,
			Department:    r.ParticipantDepartment,
			MeetingTitle:  r.MeetingTitle,
			MeetingVenue:  r.MeetingVenue,
			MeetingTime:   r.MeetingTime,
			MeetingID:     r.MeetingID,
			Timestamp:     ts,
			Date:          r.Date,
			ParticipantID: r.ParticipantID,
		})
	}
	return rows
}
