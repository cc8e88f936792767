package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type startMeetingRequest struct {
	Title string `json:"title"`
	Venue string `json:"venue"`
	Time  string `json:"time"`
}

// ActiveMeeting reports the meeting currently accepting check-ins.
func (h *Handler) ActiveMeeting(c *gin.Context) {
	m, err := h.Meetings.Active(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Could not fetch active meeting.")
		return
	}
	if m == nil {
		c.JSON(http.StatusOK, gin.H{"active": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": true, "meeting": m})
}

// StartMeeting opens a meeting; it conflicts while another is active.
func (h *Handler) StartMeeting(c *gin.Context) {
	var req startMeetingRequest
	if !h.bindJSON(c, &req) {
		return
	}
	m, err := h.Meetings.Start(c.Request.Context(), req.Title, req.Venue, req.Time)
	if err != nil {
		h.fail(c, err, "Could not start meeting.")
		return
	}
	h.Metrics.Meetings.WithLabelValues("started").Inc()
	c.JSON(http.StatusOK, gin.H{"message": "Meeting started", "meetingId": m.ID, "meeting": m})
}

// EndMeeting closes the active meeting.
func (h *Handler) EndMeeting(c *gin.Context) {
	id, err := h.Meetings.End(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Could not end meeting.")
		return
	}
	h.Metrics.Meetings.WithLabelValues("ended").Inc()
	c.JSON(http.StatusOK, gin.H{"message": "Meeting ended", "meetingId": id})
}
