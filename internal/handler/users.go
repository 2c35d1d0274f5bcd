package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"parimarket/internal/repository"
	"parimarket/internal/service"
)

type UserHandler struct {
	Repo    repository.Repository
	Account *service.Account
}

func (h *UserHandler) Register(r *gin.Engine) {
	group := r.Group("/api/users")
	group.POST("/register", h.register)
	group.GET("/:id", h.get)
	group.POST("/:id/daily-claim", h.dailyClaim)
	group.GET("/:id/ledger", h.ledger)
	group.GET("/:id/bets", h.bets)
}

type registerRequest struct {
	Username string `json:"username"`
}

func (h *UserHandler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	if strings.TrimSpace(req.Username) == "" {
		Error(c, http.StatusBadRequest, "username required", nil)
		return
	}
	user, err := h.Account.Register(c.Request.Context(), req.Username)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, user, nil)
}

func (h *UserHandler) get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	user, err := h.Repo.GetUserByID(c.Request.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		ServiceError(c, service.ErrUserNotFound)
		return
	}
	if err != nil {
		Error(c, http.StatusInternalServerError, "get user failed", nil)
		return
	}
	Ok(c, user, nil)
}

func (h *UserHandler) dailyClaim(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	balance, err := h.Account.DailyClaim(c.Request.Context(), id)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, gin.H{"user_id": id, "new_balance": balance}, nil)
}

func (h *UserHandler) ledger(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	params := repository.ListLedgerParams{
		UserID: id,
		Limit:  parseIntQuery(c, "limit", 200),
		Offset: parseIntQuery(c, "offset", 0),
		Asc:    c.Query("order") == "asc",
	}
	if v := strings.TrimSpace(c.Query("reason")); v != "" {
		params.Reason = &v
	}
	items, err := h.Repo.ListLedgerEntries(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusInternalServerError, "list ledger failed", nil)
		return
	}
	Ok(c, items, map[string]any{"count": len(items)})
}

func (h *UserHandler) bets(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	items, err := h.Repo.ListParticipantsByUser(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusInternalServerError, "list bets failed", nil)
		return
	}
	Ok(c, items, map[string]any{"count": len(items)})
}
