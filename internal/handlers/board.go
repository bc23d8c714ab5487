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

// DeepLinkParam carries a shared confession id on the board URL.
const DeepLinkParam = "confessionId"

const msgPosted = "Your confession has been posted successfully!"

type BoardHandler struct {
	*Deps
}

func NewBoardHandler(d *Deps) *BoardHandler {
	return &BoardHandler{Deps: d}
}

// Index renders the board. A deep link is consumed once and removed from the address.
func (h *BoardHandler) Index(c *gin.Context) {
	if id := strings.TrimSpace(c.Query(DeepLinkParam)); id != "" {
		dispatch(c, board.ConsumeDeepLink{ID: id})
		c.Redirect(http.StatusFound, "/")
		return
	}

	state := loadState(c)
	if state.ReplyTarget != "" {
		state = dispatch(c, board.CloseReplies{})
	}
	userID := middleware.UserID(c)

	data := gin.H{
		"State":      state,
		"Title":      state.Title(),
		"Views":      []feed.View{feed.ViewRecent, feed.ViewArchive, feed.ViewPopular},
		"Categories": feed.Categories,
		"Draft":      loadDraft(c),
		"Ready":      h.Board.Ready(),
	}
	if err := h.Board.LastError(); err != nil {
		data["StreamError"] = err.Error()
	}

	list, _, err := h.Board.Feed(state.Query())
	if err != nil {
		data["Loading"] = true
		Render(c, http.StatusOK, "board.html", data)
		return
	}
	data["Confessions"] = h.views(list, userID)
	Render(c, http.StatusOK, "board.html", data)
}

func (h *BoardHandler) ChangeView(c *gin.Context) {
	dispatch(c, board.ChangeView{View: c.Param("view")})
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *BoardHandler) Search(c *gin.Context) {
	actions := []board.Action{board.SetSearchCategory{Category: c.DefaultPostForm("category", string(feed.CategoryText))}}
	if c.PostForm("open") != "" {
		actions = append(actions, board.OpenSearch{})
	} else {
		actions = append(actions, board.SetSearchTerm{Term: c.PostForm("term")})
	}
	dispatch(c, actions...)
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *BoardHandler) ClearSearch(c *gin.Context) {
	dispatch(c, board.ClearSearch{})
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *BoardHandler) ClearShared(c *gin.Context) {
	dispatch(c, board.ClearShared{})
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *BoardHandler) DismissNotice(c *gin.Context) {
	dispatch(c, board.DismissNotice{})
	redirectBack(c, "/")
}

// Post submits the confession form. Rejected input is kept for the next render.
func (h *BoardHandler) Post(c *gin.Context) {
	var in services.ConfessionInput
	if err := c.ShouldBind(&in); err != nil {
		dispatch(c, board.ShowNotice{Message: err.Error()})
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	if _, err := h.Submit.PostConfession(c.Request.Context(), middleware.UserID(c), in); err != nil {
		setDraft(c, &in)
		dispatch(c, board.ShowNotice{Message: err.Error()})
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	setDraft(c, nil)
	dispatch(c, board.ShowNotice{Message: msgPosted})
	c.Redirect(http.StatusSeeOther, "/")
}

// Like toggles the reader's like. The form carries the liked state the reader saw.
func (h *BoardHandler) Like(c *gin.Context) {
	id := c.Param("id")
	liked := utils.StringToBool(c.PostForm("liked"))
	if _, err := h.Likes.Toggle(c.Request.Context(), id, middleware.UserID(c), liked); err != nil {
		dispatch(c, board.ShowNotice{Message: err.Error()})
	}
	redirectBack(c, "/#c-"+id)
}

// RateLimited is the form-post answer to a throttled write.
func (h *BoardHandler) RateLimited(c *gin.Context) {
	dispatch(c, board.ShowNotice{Message: middleware.RateLimitMessage()})
	redirectBack(c, "/")
}
