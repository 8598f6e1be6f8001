package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"lxrose/internal/auth"
	"lxrose/internal/models"
)

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email,max=320"`
	Password string `json:"password" validate:"required,min=8,bcryptmax"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type verifyTokenRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

/*
POST /register
- Username and email are unique
*/
func Register(users UserStore) gin.HandlerFunc {
	const route = "Register"
	return func(c *gin.Context) {
		defer handlePanic(c, route)

		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
		if !checkRequest(c, &req) {
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			slog.Error("password hash failed", "route", route, "error", err)
			respondWithError(c, http.StatusInternalServerError, route, "registration failed")
			return
		}

		ctx, cancel := storeContext(c)
		defer cancel()

		userID, err := users.CreateUser(ctx, models.User{
			Username:     req.Username,
			Email:        req.Email,
			PasswordHash: hash,
			Role:         models.RoleUser,
		})
		if errors.Is(err, models.ErrDuplicate) {
			respondWithError(c, http.StatusConflict, route, "username or email already exists")
			return
		}
		if err != nil {
			respondStoreError(c, route, err)
			return
		}

		slog.Info("user registered", "route", route, "userId", userID)
		c.JSON(http.StatusCreated, gin.H{
			"message": "User registered successfully",
			"userId":  userID,
		})
	}
}

/*
POST /login
- Unknown user and wrong password look the same to the caller
*/
func Login(users UserStore, tokens TokenService) gin.HandlerFunc {
	const route = "Login"
	return func(c *gin.Context) {
		defer handlePanic(c, route)

		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		if !checkRequest(c, &req) {
			return
		}

		ctx, cancel := storeContext(c)
		defer cancel()

		user, err := users.FindUserByUsername(ctx, req.Username)
		if errors.Is(err, models.ErrNotFound) {
			slog.Info("login failed", "route", route, "reason", "unknown user")
			respondWithError(c, http.StatusUnauthorized, route, "invalid username or password")
			return
		}
		if err != nil {
			respondStoreError(c, route, err)
			return
		}

		if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
			slog.Info("login failed", "route", route, "reason", "password mismatch", "userId", user.ID)
			respondWithError(c, http.StatusUnauthorized, route, "invalid username or password")
			return
		}

		token, err := tokens.Issue(user.ID)
		if err != nil {
			slog.Error("token generation failed", "route", route, "error", err)
			respondWithError(c, http.StatusInternalServerError, route, "token generation failed")
			return
		}

		slog.Info("login succeeded", "route", route, "userId", user.ID)
		c.JSON(http.StatusOK, gin.H{
			"token":  token,
			"userId": user.ID,
		})
	}
}

// POST /verifyToken
func VerifyToken(verifier auth.IDTokenVerifier) gin.HandlerFunc {
	const route = "VerifyToken"
	return func(c *gin.Context) {
		defer handlePanic(c, route)

		var req verifyTokenRequest
		if !bindAndValidate(c, &req) {
			return
		}

		uid, err := verifier.Verify(c.Request.Context(), req.IDToken)
		if err != nil {
			slog.Info("id token rejected", "route", route, "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "Invalid token"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "uid": uid})
	}
}

/*
GET /getUser/:userId
- Never includes the password hash
*/
func GetUser(users UserStore) gin.HandlerFunc {
	const route = "GetUser"
	return func(c *gin.Context) {
		defer handlePanic(c, route)

		ctx, cancel := storeContext(c)
		defer cancel()

		user, err := users.FindUserByID(ctx, c.Param("userId"))
		if err != nil {
			respondStoreError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, user.Profile())
	}
}

// GET /api/users/all
func ListUsers(users UserStore) gin.HandlerFunc {
	const route = "ListUsers"
	return func(c *gin.Context) {
		defer handlePanic(c, route)

		ctx, cancel := storeContext(c)
		defer cancel()

		all, err := users.ListUsers(ctx)
		if err != nil {
			respondStoreError(c, route, err)
			return
		}

		out := make([]models.UserSummary, 0, len(all))
		for _, u := range all {
			out = append(out, u.Summary())
		}
		c.JSON(http.StatusOK, out)
	}
}
