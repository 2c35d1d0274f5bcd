package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"parimarket/internal/service"
)

type BetHandler struct {
	Admission *service.Admission
}

func (h *BetHandler) Register(r *gin.Engine) {
	r.POST("/api/bets", h.place)
}

type placeBetRequest struct {
	EventID    uint64 `json:"event_id"`
	UserID     uint64 `json:"user_id"`
	Prediction string `json:"prediction"`
	EntryFee   int64  `json:"entry_fee"`
}

func (h *BetHandler) place(c *gin.Context) {
	var req placeBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	req.Prediction = strings.TrimSpace(req.Prediction)
	if req.EventID == 0 || req.UserID == 0 || req.Prediction == "" || req.EntryFee <= 0 {
		Error(c, http.StatusBadRequest, "event_id, user_id, prediction and entry_fee required", nil)
		return
	}

	placed, err := h.Admission.PlaceBet(c.Request.Context(), req.EventID, req.UserID, req.Prediction, req.EntryFee)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, gin.H{
		"participant": placed.Participant,
		"new_balance": placed.NewBalance,
	}, nil)
}
