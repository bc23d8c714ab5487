package handlers

import (
	"errors"
	"net/http"

	"crushboard/internal/board"
	"crushboard/internal/middleware"
	"crushboard/internal/models"
	"crushboard/internal/store"

	"github.com/gin-gonic/gin"
)

type ReplyHandler struct {
	*Deps
}

func NewReplyHandler(d *Deps) *ReplyHandler {
	return &ReplyHandler{Deps: d}
}

// confession resolves id from the held snapshot, then from the store.
func (h *ReplyHandler) confession(c *gin.Context, id string) (models.Confession, error) {
	if conf, ok := h.Board.Confession(id); ok {
		return conf, nil
	}
	conf, err := h.Store.GetConfession(c.Request.Context(), id)
	if err != nil {
		return models.Confession{}, err
	}
	return *conf, nil
}

// Show renders the reply thread of one confession.
func (h *ReplyHandler) Show(c *gin.Context) {
	id := c.Param("id")
	conf, err := h.confession(c, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			RenderError(c, http.StatusNotFound, "This confession no longer exists.")
			return
		}
		RenderError(c, http.StatusInternalServerError, err.Error())
		return
	}

	state := dispatch(c, board.OpenReplies{ConfessionID: id})
	data := gin.H{
		"State":      state,
		"Confession": h.view(conf, middleware.UserID(c)),
		"Draft":      loadReplyDraft(c, id),
	}
	replies, err := h.Store.ListReplies(c.Request.Context(), id)
	if err != nil {
		data["StreamError"] = err.Error()
	}
	data["Replies"] = replies
	Render(c, http.StatusOK, "replies.html", data)
}

// Create posts the reply form. A rejected reply stays in the textarea.
func (h *ReplyHandler) Create(c *gin.Context) {
	id := c.Param("id")
	message := c.PostForm("message")
	if _, err := h.Submit.PostReply(c.Request.Context(), middleware.UserID(c), id, message); err != nil {
		setReplyDraft(c, &replyDraft{ConfessionID: id, Message: message})
		dispatch(c, board.ShowNotice{Message: err.Error()})
	} else {
		setReplyDraft(c, nil)
		dispatch(c, board.DismissNotice{})
	}
	c.Redirect(http.StatusSeeOther, "/confessions/"+id+"/replies")
}

func (h *ReplyHandler) Close(c *gin.Context) {
	dispatch(c, board.CloseReplies{})
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *ReplyHandler) ListJSON(c *gin.Context) {
	replies, err := h.Store.ListReplies(c.Request.Context(), c.Param("id"))
	if err != nil {
		JSONError(c, err)
		return
	}
	if replies == nil {
		replies = []models.Reply{}
	}
	c.JSON(http.StatusOK, gin.H{"replies": replies})
}

type replyRequest struct {
	Message string `json:"message" form:"message"`
}

func (h *ReplyHandler) CreateJSON(c *gin.Context) {
	var req replyRequest
	if err := c.ShouldBind(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	reply, err := h.Submit.PostReply(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Message)
	if err != nil {
		JSONError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reply)
}
