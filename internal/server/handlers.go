package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"sportswire/internal/domain"
	"sportswire/internal/ports"
	"sportswire/internal/usecase"
)

// StoryProvider is the coordinator surface the handlers depend on.
type StoryProvider interface {
	TopStories(ctx context.Context, userID int64, window time.Duration) (usecase.Result, error)
	Halt(userID int64)
}

// ArticleProcessor is the single-URL flow surface.
type ArticleProcessor interface {
	Process(ctx context.Context, userID int64, pageURL string) (usecase.ArticleResult, error)
}

// Server bundles the handlers' dependencies.
type Server struct {
	stories  StoryProvider
	articles ArticleProcessor
	captions ports.CaptionStore
	users    ports.UserStore
	sessions *Sessions
	logger   *slog.Logger
}

// New wires the HTTP surface.
func New(stories StoryProvider, articles ArticleProcessor, captions ports.CaptionStore, users ports.UserStore, sessions *Sessions, logger *slog.Logger) *Server {
	return &Server{
		stories:  stories,
		articles: articles,
		captions: captions,
		users:    users,
		sessions: sessions,
		logger:   logger,
	}
}

type credentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) register(c *gin.Context) {
	var creds credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "username and password are required"})
		return
	}

	user, err := s.users.Create(c.Request.Context(), creds.Username, hashPassword(creds.Password))
	if errors.Is(err, ports.ErrDuplicate) {
		c.JSON(http.StatusConflict, gin.H{"status": "error", "error": "username already taken"})
		return
	}
	if err != nil {
		s.logger.Error("register failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "could not create user"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "username": user.Username})
}

func (s *Server) login(c *gin.Context) {
	var creds credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "username and password are required"})
		return
	}

	user, err := s.users.LookupByName(c.Request.Context(), creds.Username)
	if errors.Is(err, ports.ErrNotFound) || (err == nil && user.PasswordHash != hashPassword(creds.Password)) {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "error": "invalid credentials"})
		return
	}
	if err != nil {
		s.logger.Error("login failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "could not log in"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": s.sessions.Issue(user.ID)})
}

// breakingNews serves the coordinator's top stories for the acting user. The
// time_limit query parameter is the recency window in hours; absent means no
// lower bound.
func (s *Server) breakingNews(c *gin.Context) {
	userID := currentUser(c)

	var window time.Duration
	if raw := c.Query("time_limit"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "time_limit must be a positive integer of hours"})
			return
		}
		window = time.Duration(hours) * time.Hour
	}

	result, err := s.stories.TopStories(c.Request.Context(), userID, window)
	if errors.Is(err, usecase.ErrNoNewContent) {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "no new content found to analyze"})
		return
	}
	if err != nil {
		s.logger.Error("breaking news run failed", "user", userID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"status": "error", "error": err.Error()})
		return
	}

	switch result.Status {
	case domain.StatusHalted:
		c.JSON(http.StatusOK, gin.H{"status": "halted", "message": "News processing was halted."})
	case domain.StatusEmpty:
		c.JSON(http.StatusOK, gin.H{"status": "empty", "message": "No significant news found to process."})
	default:
		c.JSON(http.StatusOK, gin.H{
			"status":     "ok",
			"cached":     result.Cached,
			"computedAt": result.ComputedAt,
			"stories":    result.Stories,
		})
	}
}

func (s *Server) haltLoop(c *gin.Context) {
	s.stories.Halt(currentUser(c))
	c.JSON(http.StatusOK, gin.H{"message": "Halt signal sent."})
}

type processURLRequest struct {
	URL string `json:"url" binding:"required"`
}

type processURLResponse struct {
	domain.NewsStory
	StorageError string `json:"storageError,omitempty"`
}

func (s *Server) processURL(c *gin.Context) {
	var req processURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "url is required"})
		return
	}

	result, err := s.articles.Process(c.Request.Context(), currentUser(c), req.URL)
	if err != nil {
		s.logger.Error("process url failed", "url", req.URL, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"status": "error", "error": err.Error()})
		return
	}
	if result.AlreadyKnown {
		c.JSON(http.StatusOK, gin.H{"status": "empty", "message": "This article has already been processed."})
		return
	}

	c.JSON(http.StatusOK, processURLResponse{NewsStory: result.Story, StorageError: result.StorageError})
}

type saveCaptionRequest struct {
	Headline        string `json:"headline" binding:"required"`
	Summary         string `json:"summary" binding:"required"`
	SourceExcerpt   string `json:"sourceExcerpt"`
	StylizedCaption string `json:"stylizedCaption" binding:"required"`
}

func (s *Server) saveCaption(c *gin.Context) {
	var req saveCaptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "headline, summary, and stylizedCaption are required"})
		return
	}

	id, err := s.captions.Save(c.Request.Context(), domain.SavedCaption{
		UserID:          currentUser(c),
		Headline:        req.Headline,
		Summary:         req.Summary,
		SourceExcerpt:   req.SourceExcerpt,
		StylizedCaption: req.StylizedCaption,
	})
	if errors.Is(err, ports.ErrDuplicate) {
		c.JSON(http.StatusConflict, gin.H{"status": "error", "error": "caption already saved"})
		return
	}
	if err != nil {
		s.logger.Error("save caption failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "could not save caption"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (s *Server) listCaptions(c *gin.Context) {
	captions, err := s.captions.List(c.Request.Context(), currentUser(c))
	if err != nil {
		s.logger.Error("list captions failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "could not list captions"})
		return
	}
	if captions == nil {
		captions = []domain.SavedCaption{}
	}

	c.JSON(http.StatusOK, gin.H{"captions": captions})
}

func (s *Server) deleteCaption(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "invalid caption id"})
		return
	}

	err = s.captions.Delete(c.Request.Context(), currentUser(c), id)
	if errors.Is(err, ports.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "caption not found"})
		return
	}
	if err != nil {
		s.logger.Error("delete caption failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "could not delete caption"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Caption deleted."})
}
