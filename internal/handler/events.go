package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"parimarket/internal/models"
	"parimarket/internal/repository"
	"parimarket/internal/service"
)

type EventHandler struct {
	Repo       repository.Repository
	Settlement *service.Settlement
}

func (h *EventHandler) Register(r *gin.Engine) {
	group := r.Group("/api/events")
	group.POST("", h.create)
	group.GET("", h.list)
	group.GET("/:id", h.get)
	group.GET("/:id/settlement", h.settlementDetail)
	group.POST("/:id/suspend", h.suspend)
	group.POST("/:id/unsuspend", h.unsuspend)
	group.POST("/:id/resolve", h.resolve)

	r.GET("/api/resolution-state", h.resolutionState)
}

type createEventRequest struct {
	Title string `json:"title"`
	Kind  string `json:"kind"`
	// Options accepts bare strings or {label,value} objects; both are
	// normalized into the canonical list before storage.
	Options          []json.RawMessage `json:"options"`
	AllowedEntryFees []int64           `json:"allowed_entry_fees"`
	StartTime        time.Time         `json:"start_time"`
	EndTime          time.Time         `json:"end_time"`
	PriceSymbol      *string           `json:"price_symbol"`
	InitialPrice     *string           `json:"initial_price"`
}

func (h *EventHandler) create(c *gin.Context) {
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		Error(c, http.StatusBadRequest, "title required", nil)
		return
	}
	if !req.EndTime.After(req.StartTime) {
		Error(c, http.StatusBadRequest, "end_time must be after start_time", nil)
		return
	}
	kind := strings.TrimSpace(req.Kind)
	switch kind {
	case "":
		kind = models.EventKindCustom
	case models.EventKindCryptoPrice, models.EventKindSportsMatch, models.EventKindCustom:
	default:
		Error(c, http.StatusBadRequest, "unknown event kind", nil)
		return
	}

	options, err := models.NormalizeOptions(req.Options)
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	event := &models.Event{
		Title:            req.Title,
		Kind:             kind,
		Options:          models.MustJSON(options),
		StartTime:        req.StartTime.UTC(),
		EndTime:          req.EndTime.UTC(),
		Status:           models.EventStatusActive,
		ResolutionStatus: models.ResolutionPending,
		PriceSymbol:      req.PriceSymbol,
	}
	if len(req.AllowedEntryFees) > 0 {
		event.AllowedEntryFees = models.MustJSON(req.AllowedEntryFees)
	}
	if req.InitialPrice != nil && strings.TrimSpace(*req.InitialPrice) != "" {
		price, err := decimal.NewFromString(strings.TrimSpace(*req.InitialPrice))
		if err != nil {
			Error(c, http.StatusBadRequest, "invalid initial_price", nil)
			return
		}
		event.InitialPrice = &price
	}
	if kind == models.EventKindCryptoPrice && (event.PriceSymbol == nil || event.InitialPrice == nil) {
		Error(c, http.StatusBadRequest, "crypto_price events need price_symbol and initial_price", nil)
		return
	}

	if err := h.Repo.CreateEvent(c.Request.Context(), event); err != nil {
		Error(c, http.StatusInternalServerError, "create event failed", nil)
		return
	}
	Ok(c, event, nil)
}

func (h *EventHandler) list(c *gin.Context) {
	params := repository.ListEventsParams{
		Limit:  parseIntQuery(c, "limit", 100),
		Offset: parseIntQuery(c, "offset", 0),
	}
	if v := strings.TrimSpace(c.Query("status")); v != "" {
		params.Status = &v
	}
	if v := strings.TrimSpace(c.Query("resolution_status")); v != "" {
		params.ResolutionStatus = &v
	}
	if v := strings.TrimSpace(c.Query("kind")); v != "" {
		params.Kind = &v
	}
	items, err := h.Repo.ListEvents(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusInternalServerError, "list events failed", nil)
		return
	}
	Ok(c, items, map[string]any{"count": len(items)})
}

func (h *EventHandler) get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	event, err := h.Repo.GetEventByID(c.Request.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		ServiceError(c, service.ErrEventNotFound)
		return
	}
	if err != nil {
		Error(c, http.StatusInternalServerError, "get event failed", nil)
		return
	}
	Ok(c, event, nil)
}

func (h *EventHandler) settlementDetail(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	event, err := h.Repo.GetEventByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		ServiceError(c, service.ErrEventNotFound)
		return
	}
	if err != nil {
		Error(c, http.StatusInternalServerError, "get event failed", nil)
		return
	}
	outcomes, err := h.Repo.ListOutcomesByEvent(ctx, id)
	if err != nil {
		Error(c, http.StatusInternalServerError, "list outcomes failed", nil)
		return
	}
	fees, err := h.Repo.ListPlatformFeesByEvent(ctx, id)
	if err != nil {
		Error(c, http.StatusInternalServerError, "list fees failed", nil)
		return
	}
	audits, err := h.Repo.ListAuditLogsByEvent(ctx, id)
	if err != nil {
		Error(c, http.StatusInternalServerError, "list audit logs failed", nil)
		return
	}
	Ok(c, gin.H{
		"event":         event,
		"outcomes":      outcomes,
		"platform_fees": fees,
		"audit_logs":    audits,
	}, nil)
}

func (h *EventHandler) suspend(c *gin.Context) {
	h.setSuspended(c, true, models.AuditEventSuspended)
}

func (h *EventHandler) unsuspend(c *gin.Context) {
	h.setSuspended(c, false, models.AuditEventUnsuspended)
}

func (h *EventHandler) setSuspended(c *gin.Context, suspended bool, action string) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	event, err := h.Repo.GetEventByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		ServiceError(c, service.ErrEventNotFound)
		return
	}
	if err != nil {
		Error(c, http.StatusInternalServerError, "get event failed", nil)
		return
	}
	if event.ResolutionStatus == models.ResolutionResolved {
		ServiceError(c, service.ErrAlreadyResolved)
		return
	}
	if err := h.Repo.SetEventSuspended(ctx, id, suspended); err != nil {
		Error(c, http.StatusInternalServerError, "update event failed", nil)
		return
	}
	err = h.Repo.InTx(ctx, func(tx *gorm.DB) error {
		return h.Repo.InsertAuditLogTx(ctx, tx, &models.AuditLog{
			EventID: id,
			Action:  action,
			Details: models.MustJSON(map[string]any{"suspended": suspended}),
		})
	})
	if err != nil {
		Error(c, http.StatusInternalServerError, "write audit log failed", nil)
		return
	}
	Ok(c, gin.H{"event_id": id, "suspended": suspended, "action": action}, nil)
}

type resolveEventRequest struct {
	WinningOutcome string  `json:"winning_outcome"`
	FinalPrice     *string `json:"final_price"`
	Resolver       string  `json:"resolver"`
}

func (h *EventHandler) resolve(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req resolveEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	req.WinningOutcome = strings.TrimSpace(req.WinningOutcome)
	if req.WinningOutcome == "" {
		Error(c, http.StatusBadRequest, "winning_outcome required", nil)
		return
	}
	var finalPrice *decimal.Decimal
	if req.FinalPrice != nil && strings.TrimSpace(*req.FinalPrice) != "" {
		price, err := decimal.NewFromString(strings.TrimSpace(*req.FinalPrice))
		if err != nil {
			Error(c, http.StatusBadRequest, "invalid final_price", nil)
			return
		}
		finalPrice = &price
	}
	resolver := strings.TrimSpace(req.Resolver)
	if resolver == "" {
		resolver = "admin"
	}

	result, err := h.Settlement.Resolve(c.Request.Context(), id, req.WinningOutcome, finalPrice, resolver)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, result, nil)
}

func (h *EventHandler) resolutionState(c *gin.Context) {
	state, err := h.Repo.GetResolutionState(c.Request.Context(), service.SchedulerScope)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		Ok(c, nil, map[string]any{"status": "never_ran"})
		return
	}
	if err != nil {
		Error(c, http.StatusInternalServerError, "get resolution state failed", nil)
		return
	}
	Ok(c, state, nil)
}

func parseIDParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return 0, false
	}
	return id, true
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
