package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"qrattend/internal/attendance"
	"qrattend/internal/export"
	"qrattend/internal/roll"
)

type checkInRequest struct {
	Mobile        string `json:"mobile"`
	ParticipantID string `json:"participantId"`
	MeetingID     string `json:"meetingId"`
}

// MarkAttendance checks the caller in. The meeting id from a QR link may
// arrive in the body or the query string.
func (h *Handler) MarkAttendance(c *gin.Context) {
	var req checkInRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.MeetingID) == "" {
		req.MeetingID = c.Query("meetingId")
	}

	res, err := h.Ledger.Mark(c.Request.Context(), attendance.Request{
		Mobile:        req.Mobile,
		ParticipantID: req.ParticipantID,
		MeetingID:     req.MeetingID,
	})
	if err != nil {
		h.Metrics.CheckIns.WithLabelValues(outcomeLabel(err)).Inc()
		h.fail(c, err, "Could not mark attendance.")
		return
	}
	h.Metrics.CheckIns.WithLabelValues(string(res.Outcome)).Inc()

	message := "Attendance marked successfully."
	if res.Outcome == attendance.OutcomeAlreadyMarked {
		message = "Attendance already marked today."
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    res.Outcome,
		"message":   message,
		"timestamp": res.Record.Timestamp,
		"participant": gin.H{
			"name":       res.Participant.FullName,
			"mobile":     res.Participant.Mobile,
			"email":      res.Participant.Email,
			"department": res.Participant.Department,
		},
		"meeting": gin.H{
			"id":    res.Meeting.ID,
			"title": res.Meeting.Title,
			"venue": res.Meeting.Venue,
			"time":  res.Meeting.Time,
			"date":  res.Record.Date,
		},
	})
}

// LiveAttendance lists the active meeting's check-ins, newest first.
func (h *Handler) LiveAttendance(c *gin.Context) {
	ctx := c.Request.Context()
	m, err := h.Meetings.Active(ctx)
	if err != nil {
		h.fail(c, err, "Could not fetch attendance.")
		return
	}
	records, err := h.Roll.Live(ctx, m)
	if err != nil {
		h.fail(c, err, "Could not fetch attendance.")
		return
	}
	c.JSON(http.StatusOK, records)
}

// AttendanceByDate lists one day's roll, optionally narrowed by ?meetingId.
func (h *Handler) AttendanceByDate(c *gin.Context) {
	records, err := h.Roll.ByDate(c.Request.Context(), c.Param("date"), strings.TrimSpace(c.Query("meetingId")))
	if err != nil {
		h.fail(c, err, "Could not fetch attendance.")
		return
	}
	c.JSON(http.StatusOK, records)
}

// ExportAttendance downloads one day's roll as xlsx (default) or pdf.
func (h *Handler) ExportAttendance(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		h.fail(c, err, "Could not export attendance.")
		return
	}
	date := c.Param("date")
	records, err := h.Roll.ByDate(c.Request.Context(), date, strings.TrimSpace(c.Query("meetingId")))
	if err != nil {
		h.fail(c, err, "Could not export attendance.")
		return
	}
	file, err := export.Render(roll.ExportRows(records, h.settings.Location), format, date)
	if err != nil {
		h.fail(c, err, "Could not export attendance.")
		return
	}
	h.Metrics.Exports.WithLabelValues(string(format)).Inc()
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Body)
}
