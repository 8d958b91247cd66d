package api

import (
	"errors"
	"net/http"
	"strconv"

	"blackjack-service/internal/middleware"
	"blackjack-service/internal/service"
	appErr "blackjack-service/pkg/errors"
	"blackjack-service/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	services *service.Container
}

func RegisterRoutes(r *gin.Engine, services *service.Container) {
	handler := &Handler{services: services}

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"message": "pong"})
	})

	v1 := r.Group("/blackjack/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", handler.Register)
			authGroup.POST("/login", handler.Login)
		}

		player := v1.Group("/")
		player.Use(middleware.AuthRequired())
		{
			player.GET("/profile", handler.GetProfile)
			player.GET("/wallet", handler.GetWallet)
			player.GET("/wallet/transactions", handler.ListTransactions)
			player.GET("/sessions/:id", handler.GetSession)

			player.POST("/round/start", handler.StartRound)
			player.POST("/round/hit", handler.Hit)
			player.POST("/round/stand", handler.Stand)
			player.GET("/round/state", handler.RoundState)
		}
	}
}

type registerBody struct {
	Email    string `json:"email" binding:"required"`
	Pseudo   string `json:"pseudo" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginBody struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type startRoundBody struct {
	Bet int64 `json:"bet" binding:"required,min=1"`
}

func accountID(c *gin.Context) int64 {
	return c.GetInt64(middleware.ContextAccountIDKey)
}

// statusFor maps the closed error set to HTTP statuses. Unknown errors are
// storage failures and become 500s.
func statusFor(err error) int {
	switch {
	case errors.Is(err, appErr.ErrInvalidRegistration),
		errors.Is(err, appErr.ErrInvalidBet):
		return http.StatusBadRequest
	case errors.Is(err, appErr.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, appErr.ErrAccountDisabled):
		return http.StatusForbidden
	case errors.Is(err, appErr.ErrTooManyLoginAttempts):
		return http.StatusTooManyRequests
	case errors.Is(err, appErr.ErrEmailTaken),
		errors.Is(err, appErr.ErrRoundInProgress),
		errors.Is(err, appErr.ErrRoundSettled):
		return http.StatusConflict
	case errors.Is(err, appErr.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, appErr.ErrAccountNotFound),
		errors.Is(err, appErr.ErrSessionNotFound),
		errors.Is(err, appErr.ErrNoActiveRound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) Register(c *gin.Context) {
	var body registerBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.services.Auth.Register(c.Request.Context(), body.Email, body.Pseudo, body.Password)
	if err != nil {
		response.Error(c, statusFor(err), err.Error())
		return
	}
	response.Success(c, resp)
}

func (h *Handler) Login(c *gin.Context) {
	var body loginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.services.Auth.Login(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		response.Error(c, statusFor(err), err.Error())
		return
	}
	response.Success(c, resp)
}

func (h *Handler) GetProfile(c *gin.Context) {
	account, err := h.services.Ledger.GetAccount(c.Request.Context(), accountID(c))
	if err != nil {
		response.Error(c, statusFor(err), err.Error())
		return
	}
	response.Success(c, gin.H{
		"id":        account.ID,
		"email":     account.Email,
		"pseudo":    account.Pseudo,
		"status":    account.Status,
		"createdAt": account.CreatedAt,
	})
}

func (h *Handler) GetWallet(c *gin.Context) {
	balance, err := h.services.Ledger.GetBalance(c.Request.Context(), accountID(c))
	if err != nil {
		response.Error(c, statusFor(err), err.Error())
		return
	}
	response.Success(c, gin.H{"balance": balance})
}

func (h *Handler) ListTransactions(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			response.Error(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	entries, err := h.services.Ledger.ListTransactions(c.Request.Context(), accountID(c), limit)
	if err != nil {
		response.Error(c, statusFor(err), err.Error())
		return
	}
	response.Success(c, gin.H{"items": entries, "total": len(entries)})
}

func (h *Handler) GetSession(c *gin.Context) {
	sessionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid session id")
		return
	}

	session, err := h.services.Ledger.GetSession(c.Request.Context(), accountID(c), sessionID)
	if err != nil {
		response.Error(c, statusFor(err), err.Error())
		return
	}
	response.Success(c, session)
}

func (h *Handler) StartRound(c *gin.Context) {
	var body startRoundBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	state, err := h.services.Game.StartRound(c.Request.Context(), accountID(c), body.Bet)
	if err != nil {
		response.Error(c, statusFor(err), err.Error())
		return
	}
	response.Success(c, state)
}

func (h *Handler) Hit(c *gin.Context) {
	state, err := h.services.Game.Hit(c.Request.Context(), accountID(c))
	if err != nil {
		response.Error(c, statusFor(err), err.Error())
		return
	}
	response.Success(c, state)
}

func (h *Handler) Stand(c *gin.Context) {
	state, err := h.services.Game.Stand(c.Request.Context(), accountID(c))
	if err != nil {
		response.Error(c, statusFor(err), err.Error())
		return
	}
	response.Success(c, state)
}

func (h *Handler) RoundState(c *gin.Context) {
	state, err := h.services.Game.State(c.Request.Context(), accountID(c))
	if err != nil {
		response.Error(c, statusFor(err), err.Error())
		return
	}
	response.Success(c, state)
}
