package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"blog-api/internal/domain"
	"blog-api/internal/service"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	articles  service.ArticleService
	users     service.UserService
	logger    *logrus.Logger
	jwtSecret string
	tokenTTL  time.Duration
}

func NewHandler(articles service.ArticleService, users service.UserService, logger *logrus.Logger, jwtSecret string, tokenTTL time.Duration) *Handler {
	return &Handler{
		articles:  articles,
		users:     users,
		logger:    logger,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware(), requestLogger(h.logger))

	api := router.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.register)
			auth.POST("/login", h.login)
			auth.GET("/me", h.authRequired(), h.me)
		}

		articles := api.Group("/articles")
		{
			articles.GET("", h.authOptional(), h.listArticles)
			articles.GET("/:id", h.authOptional(), h.getArticle)
			articles.POST("", h.authRequired(), h.createArticle)
			articles.PATCH("/:id", h.authRequired(), h.updateArticle)
			articles.DELETE("/:id", h.authRequired(), h.deleteArticle)
		}

		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})
	}
}

// Success responses are wrapped in {"data": ...}, failures in {"errors": [...]}.
func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"data": data})
}

func respondErrors(c *gin.Context, status int, messages ...string) {
	c.JSON(status, gin.H{"errors": messages})
}

// serviceError maps service failures onto HTTP statuses and envelope messages.
func (h *Handler) serviceError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		respondErrors(c, http.StatusUnprocessableEntity, verr.Msg)
	case errors.Is(err, service.ErrArticleNotFound):
		respondErrors(c, http.StatusNotFound, "Article not found")
	case errors.Is(err, service.ErrNotOwner):
		respondErrors(c, http.StatusForbidden, "You are not allowed to modify this article.")
	case errors.Is(err, service.ErrInvalidCredentials):
		respondErrors(c, http.StatusUnauthorized, "Invalid email or password.")
	case errors.Is(err, service.ErrEmailTaken):
		respondErrors(c, http.StatusConflict, "Email has already been taken")
	default:
		h.logger.WithError(err).Error("request failed")
		respondErrors(c, http.StatusInternalServerError, "Something went wrong.")
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createArticleRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type updateArticleRequest struct {
	Title  *string `json:"title"`
	Body   *string `json:"body"`
	Status *string `json:"status"`
}

type UserResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

type AuthResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

type ArticleResponse struct {
	ID        int64                `json:"id"`
	Title     string               `json:"title"`
	Body      string               `json:"body"`
	UserID    *int64               `json:"user_id"`
	Status    domain.ArticleStatus `json:"status"`
	CreatedAt string               `json:"created_at"`
	UpdatedAt string               `json:"updated_at"`
}

func userToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}

func articleToResponse(article domain.Article) ArticleResponse {
	return ArticleResponse{
		ID:        article.ID,
		Title:     article.Title,
		Body:      article.Body,
		UserID:    article.UserID,
		Status:    article.Status,
		CreatedAt: article.CreatedAt.Format(time.RFC3339),
		UpdatedAt: article.UpdatedAt.Format(time.RFC3339),
	}
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrors(c, http.StatusUnprocessableEntity, "Invalid request payload")
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	token, err := h.issueToken(user)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	respondData(c, http.StatusOK, AuthResponse{User: userToResponse(user), Token: token})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrors(c, http.StatusUnprocessableEntity, "Invalid request payload")
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	token, err := h.issueToken(user)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	respondData(c, http.StatusOK, AuthResponse{User: userToResponse(user), Token: token})
}

func (h *Handler) me(c *gin.Context) {
	userID := currentUserID(c)
	if userID == nil {
		respondErrors(c, http.StatusUnauthorized, signInMessage)
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), *userID)
	if err != nil {
		respondErrors(c, http.StatusUnauthorized, signInMessage)
		return
	}

	respondData(c, http.StatusOK, userToResponse(user))
}

func (h *Handler) listArticles(c *gin.Context) {
	articles, err := h.articles.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.serviceError(c, err)
		return
	}

	resp := make([]ArticleResponse, len(articles))
	for i := range articles {
		resp[i] = articleToResponse(articles[i])
	}
	respondData(c, http.StatusOK, resp)
}

func (h *Handler) getArticle(c *gin.Context) {
	id, ok := articleID(c)
	if !ok {
		return
	}

	article, err := h.articles.Get(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		h.serviceError(c, err)
		return
	}

	respondData(c, http.StatusOK, articleToResponse(*article))
}

func (h *Handler) createArticle(c *gin.Context) {
	userID := currentUserID(c)
	if userID == nil {
		respondErrors(c, http.StatusUnauthorized, signInMessage)
		return
	}

	var req createArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrors(c, http.StatusUnprocessableEntity, "Invalid request payload")
		return
	}

	article, err := h.articles.Create(c.Request.Context(), *userID, service.ArticleInput{
		Title: req.Title,
		Body:  req.Body,
	})
	if err != nil {
		h.serviceError(c, err)
		return
	}

	respondData(c, http.StatusOK, articleToResponse(*article))
}

func (h *Handler) updateArticle(c *gin.Context) {
	userID := currentUserID(c)
	if userID == nil {
		respondErrors(c, http.StatusUnauthorized, signInMessage)
		return
	}

	id, ok := articleID(c)
	if !ok {
		return
	}

	var req updateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrors(c, http.StatusUnprocessableEntity, "Invalid request payload")
		return
	}

	article, err := h.articles.Update(c.Request.Context(), id, *userID, service.ArticleUpdate{
		Title:  req.Title,
		Body:   req.Body,
		Status: req.Status,
	})
	if err != nil {
		h.serviceError(c, err)
		return
	}

	respondData(c, http.StatusOK, articleToResponse(*article))
}

func (h *Handler) deleteArticle(c *gin.Context) {
	userID := currentUserID(c)
	if userID == nil {
		respondErrors(c, http.StatusUnauthorized, signInMessage)
		return
	}

	id, ok := articleID(c)
	if !ok {
		return
	}

	if err := h.articles.Delete(c.Request.Context(), id, *userID); err != nil {
		h.serviceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func articleID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondErrors(c, http.StatusNotFound, "Article not found")
		return 0, false
	}
	return id, true
}
