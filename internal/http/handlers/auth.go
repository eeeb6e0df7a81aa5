package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wisdomhub/filekeep/internal/accounts"
	"github.com/wisdomhub/filekeep/internal/domain/user"
	"github.com/wisdomhub/filekeep/internal/http/middlewares"
)

type Authenticator interface {
	Register(ctx context.Context, in accounts.RegisterInput) (user.User, error)
	Login(ctx context.Context, in accounts.LoginInput) (accounts.LoginResult, error)
}

type AuthHandler struct {
	accounts Authenticator
	log      *slog.Logger
}

func NewAuthHandler(svc Authenticator, log *slog.Logger) *AuthHandler {
	return &AuthHandler{accounts: svc, log: log}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,max=64"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// bcrypt dominates this call
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	u, err := h.accounts.Register(cctx, accounts.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})

	if err != nil {
		RespondAccountsError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"msg":  "User registered successfully",
		"user": u.Public(),
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	res, err := h.accounts.Login(cctx, accounts.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})

	if err != nil {
		RespondAccountsError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"token":     res.Token.Value,
		"expiresAt": res.Token.ExpiresAt,
		"user":      res.User.Public(),
	})
}

// Session echoes the identity carried by a valid bearer token.
func (h *AuthHandler) Session(ctx *gin.Context) {
	id, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"user": gin.H{"id": id},
	})
}
