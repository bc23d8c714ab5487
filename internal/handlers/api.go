package handlers

import (
	"net/http"
	"strings"

	"crushboard/internal/board"
	"crushboard/internal/feed"
	"crushboard/internal/middleware"
	"crushboard/internal/services"
	"crushboard/internal/utils"

	"github.com/gin-gonic/gin"
)

type APIHandler struct {
	*Deps
}

func NewAPIHandler(d *Deps) *APIHandler {
	return &APIHandler{Deps: d}
}

// Session reports the caller's anonymous identity.
func (h *APIHandler) Session(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"userId": middleware.UserID(c),
		"ready":  h.Board.Ready(),
	})
}

// queryState builds the board state a list request describes.
func queryState(c *gin.Context) board.State {
	s := board.Initial()
	if v := c.Query("view"); v != "" {
		// Unknown views are kept so they select nothing.
		s.View = feed.View(strings.TrimSpace(v))
	}
	return board.ReduceAll(s,
		board.SetSearchCategory{Category: c.DefaultQuery("category", string(feed.CategoryText))},
		board.SetSearchTerm{Term: c.Query("q")},
		board.ConsumeDeepLink{ID: c.Query("shared")},
	)
}

// List answers GET /api/confessions.
func (h *APIHandler) List(c *gin.Context) {
	state := queryState(c)
	list, rev, err := h.Board.Feed(state.Query())
	if err != nil {
		JSONError(c, err)
		return
	}
	views := h.views(list, middleware.UserID(c))
	if limit := utils.StringToInt(c.Query("limit")); limit > 0 && limit < len(views) {
		views = views[:limit]
	}
	c.JSON(http.StatusOK, gin.H{
		"title":       state.Title(),
		"revision":    rev,
		"confessions": views,
	})
}

func (h *APIHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if conf, ok := h.Board.Confession(id); ok {
		c.JSON(http.StatusOK, h.view(conf, middleware.UserID(c)))
		return
	}
	conf, err := h.Store.GetConfession(c.Request.Context(), id)
	if err != nil {
		JSONError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view(*conf, middleware.UserID(c)))
}

// Create posts a confession.
func (h *APIHandler) Create(c *gin.Context) {
	var in services.ConfessionInput
	if err := c.ShouldBind(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	conf, err := h.Submit.PostConfession(c.Request.Context(), middleware.UserID(c), in)
	if err != nil {
		JSONError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.view(*conf, middleware.UserID(c)))
}

type likeRequest struct {
	Liked *bool `json:"liked" form:"liked"`
}

// Like toggles the caller's like. Without an explicit "liked" the state from the held
// snapshot is used.
func (h *APIHandler) Like(c *gin.Context) {
	id := c.Param("id")
	userID := middleware.UserID(c)

	var req likeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBind(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	liked := false
	if req.Liked != nil {
		liked = *req.Liked
	} else if conf, ok := h.Board.Confession(id); ok {
		liked = conf.IsLikedBy(userID)
	}

	res, err := h.Likes.Toggle(c.Request.Context(), id, userID, liked)
	if err != nil {
		JSONError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *APIHandler) Share(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.Board.Confession(id); !ok {
		if _, err := h.Store.GetConfession(c.Request.Context(), id); err != nil {
			JSONError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "url": h.ShareURL(id)})
}
