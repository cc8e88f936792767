package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"qrattend/internal/apperror"
	"qrattend/internal/participant"
)

type registerRequest struct {
	FullName   string `json:"fullName"`
	Mobile     string `json:"mobile"`
	Email      string `json:"email"`
	Department string `json:"department"`
	EmployeeID string `json:"employeeId"`
}

type checkRegistrationRequest struct {
	Mobile string `json:"mobile"`
}

// Register signs up a participant.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if !h.bindJSON(c, &req) {
		return
	}
	p, err := h.Participants.Register(c.Request.Context(), participant.Registration{
		FullName:   req.FullName,
		Mobile:     req.Mobile,
		Email:      req.Email,
		Department: req.Department,
		EmployeeID: req.EmployeeID,
	})
	if err != nil {
		switch apperror.KindOf(err) {
		case apperror.KindConflict:
			h.Metrics.Registrations.WithLabelValues("duplicate").Inc()
		case apperror.KindValidation:
			h.Metrics.Registrations.WithLabelValues("invalid").Inc()
		default:
			h.Metrics.Registrations.WithLabelValues("error").Inc()
		}
		h.fail(c, err, "Could not register participant.")
		return
	}
	h.Metrics.Registrations.WithLabelValues("created").Inc()
	c.JSON(http.StatusCreated, gin.H{"id": p.ID, "message": "Registration successful."})
}

// CheckRegistration tells the check-in page whether a mobile number is known.
func (h *Handler) CheckRegistration(c *gin.Context) {
	var req checkRegistrationRequest
	if !h.bindJSON(c, &req) {
		return
	}
	mobile := strings.TrimSpace(req.Mobile)
	if mobile == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Mobile number is required."})
		return
	}
	p, err := h.Participants.FindByMobile(c.Request.Context(), mobile)
	if err != nil {
		h.fail(c, err, "Error checking registration.")
		return
	}
	if p == nil {
		c.JSON(http.StatusOK, gin.H{"registered": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"registered": true, "participant": p})
}
