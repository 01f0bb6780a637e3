package http

import (
	"net/http"
	"path/filepath"
	"strings"

	"authkit/pkg/logger"
	"authkit/pkg/middleware"
	"authkit/pkg/s3"
	"authkit/services/auth/internal/entity"
	"authkit/services/auth/internal/usecase"

	"github.com/gin-gonic/gin"
)

const maxAvatarSize = 5 << 20

var allowedAvatarExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

type AuthHandler struct {
	accountUseCase usecase.AccountUseCase
	tokenUseCase   usecase.TokenUseCase
	cookies        CookieSettings
	logger         *logger.Logger
}

func NewAuthHandler(accountUseCase usecase.AccountUseCase, tokenUseCase usecase.TokenUseCase, cookies CookieSettings, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		accountUseCase: accountUseCase,
		tokenUseCase:   tokenUseCase,
		cookies:        cookies,
		logger:         log,
	}
}

// RegisterRoutes mounts the auth API on api. protect authenticates the caller.
func (h *AuthHandler) RegisterRoutes(api *gin.RouterGroup, protect gin.HandlerFunc) {
	api.POST("/register", h.Register)
	api.POST("/login", h.Login)
	api.GET("/logout", h.Logout)
	api.GET("/login-status", h.LoginStatus)
	api.POST("/verify-user/:verificationToken", h.VerifyUser)
	api.POST("/forgot-password", h.ForgotPassword)
	api.POST("/reset-password/:resetPasswordToken", h.ResetPassword)

	protected := api.Group("")
	protected.Use(protect)
	{
		protected.GET("/user", h.ListUsers)
		protected.GET("/me", h.Me)
		protected.PATCH("/user", h.UpdateUser)
		protected.POST("/avatar", h.UploadAvatar)
		protected.PATCH("/change-password", h.ChangePassword)
		protected.POST("/verify-email", h.VerifyEmail)
	}

	admin := api.Group("/admin")
	admin.Use(protect)
	{
		admin.GET("/users", middleware.CreatorMiddleware(), h.ListUsers)
		admin.GET("/users/:id", middleware.AdminMiddleware(), h.GetUser)
	}
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string          `json:"token"`
	User  *entity.Account `json:"user"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// Register godoc
// @Summary      Register a new user
// @Description  Creates a member account and starts a session
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration data"
// @Success      201  {object}  AuthResponse
// @Failure      400  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	account, token, err := h.accountUseCase.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.cookies.set(c, token)
	c.JSON(http.StatusCreated, AuthResponse{Token: token, User: account})
}

// Login godoc
// @Summary      Login user
// @Description  Authenticates by email and password and starts a session
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200  {object}  AuthResponse
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	account, token, err := h.accountUseCase.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.cookies.set(c, token)
	c.JSON(http.StatusOK, AuthResponse{Token: token, User: account})
}

// Logout godoc
// @Summary      Logout user
// @Description  Clears the session cookie
// @Tags         auth
// @Produce      json
// @Success      200  {object}  MessageResponse
// @Router       /logout [get]
func (h *AuthHandler) Logout(c *gin.Context) {
	h.cookies.clear(c)
	c.JSON(http.StatusOK, MessageResponse{Message: "User logged out"})
}

// LoginStatus godoc
// @Summary      Check login status
// @Description  Returns true when the request carries a valid session
// @Tags         auth
// @Produce      json
// @Success      200  {boolean}  boolean
// @Failure      401  {boolean}  boolean
// @Router       /login-status [get]
func (h *AuthHandler) LoginStatus(c *gin.Context) {
	if h.accountUseCase.CheckLoginStatus(middleware.TokenFromRequest(c)) {
		c.JSON(http.StatusOK, true)
		return
	}
	c.JSON(http.StatusUnauthorized, false)
}

// ListUsers godoc
// @Summary      List users
// @Description  Returns every account
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   entity.Account
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /user [get]
// @Router       /admin/users [get]
func (h *AuthHandler) ListUsers(c *gin.Context) {
	accounts, err := h.accountUseCase.ListAccounts(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, accounts)
}

// Me godoc
// @Summary      Get current user info
// @Description  Get information about the currently authenticated user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  entity.Account
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		respondError(c, h.logger, middleware.ErrUnauthenticated)
		return
	}

	account, err := h.accountUseCase.GetAccount(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

// GetUser godoc
// @Summary      Get user by ID
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "User ID"
// @Success      200  {object}  entity.Account
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /admin/users/{id} [get]
func (h *AuthHandler) GetUser(c *gin.Context) {
	account, err := h.accountUseCase.GetAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

// UpdateUser godoc
// @Summary      Update profile
// @Description  Partially updates name, email, photo and bio of the current user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body entity.ProfilePatch true "Fields to change"
// @Success      200  {object}  entity.Account
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /user [patch]
func (h *AuthHandler) UpdateUser(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		respondError(c, h.logger, middleware.ErrUnauthenticated)
		return
	}

	var patch entity.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	account, err := h.accountUseCase.UpdateProfile(c.Request.Context(), userID, patch)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

// UploadAvatar godoc
// @Summary      Upload user avatar
// @Description  Upload avatar image for the current user
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        avatar formData file true "Avatar image file"
// @Success      200  {object}  entity.Account
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /avatar [post]
func (h *AuthHandler) UploadAvatar(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		respondError(c, h.logger, middleware.ErrUnauthenticated)
		return
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "avatar file is required"})
		return
	}
	if file.Size > maxAvatarSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "avatar must be at most 5MB"})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedAvatarExt[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image format, allowed: jpg, jpeg, png, gif, webp"})
		return
	}

	src, err := file.Open()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	defer src.Close()

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	account, err := h.accountUseCase.UploadAvatar(c.Request.Context(), userID, src, s3.AvatarKey(userID, file.Filename), contentType)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

// ChangePassword godoc
// @Summary      Change password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body ChangePasswordRequest true "Current and new password"
// @Success      200  {object}  MessageResponse
// @Failure      400  {object}  map[string]string
// @Router       /change-password [patch]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		respondError(c, h.logger, middleware.ErrUnauthenticated)
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.accountUseCase.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Password changed successfully"})
}

// VerifyEmail godoc
// @Summary      Send verification email
// @Tags         verification
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  MessageResponse
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /verify-email [post]
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		respondError(c, h.logger, middleware.ErrUnauthenticated)
		return
	}

	if err := h.tokenUseCase.RequestVerification(c.Request.Context(), userID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Verification email sent"})
}

// VerifyUser godoc
// @Summary      Verify email address
// @Tags         verification
// @Produce      json
// @Param        verificationToken path string true "Token from the verification link"
// @Success      200  {object}  MessageResponse
// @Failure      400  {object}  map[string]string
// @Router       /verify-user/{verificationToken} [post]
func (h *AuthHandler) VerifyUser(c *gin.Context) {
	if err := h.tokenUseCase.ConsumeVerification(c.Request.Context(), c.Param("verificationToken")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "User verified"})
}

// ForgotPassword godoc
// @Summary      Request password reset
// @Tags         verification
// @Accept       json
// @Produce      json
// @Param        request body ForgotPasswordRequest true "Account email"
// @Success      200  {object}  MessageResponse
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.tokenUseCase.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Password reset link sent"})
}

// ResetPassword godoc
// @Summary      Reset password
// @Tags         verification
// @Accept       json
// @Produce      json
// @Param        resetPasswordToken path string true "Token from the reset link"
// @Param        request body ResetPasswordRequest true "New password"
// @Success      200  {object}  MessageResponse
// @Failure      400  {object}  map[string]string
// @Router       /reset-password/{resetPasswordToken} [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.tokenUseCase.ConsumePasswordReset(c.Request.Context(), c.Param("resetPasswordToken"), req.Password); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Password reset successfully"})
}
