package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"crushboard/internal/board"
	"crushboard/internal/middleware"
	"crushboard/internal/models"
	"crushboard/internal/services"
	"crushboard/internal/store"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	stateKey      = "board_state"
	draftKey      = "board_draft"
	replyDraftKey = "reply_draft"
)

// Deps are the services shared by every handler.
type Deps struct {
	Store    *store.Store
	Board    *services.BoardService
	Submit   *services.SubmitService
	Likes    *services.LikeService
	ShareURL func(confessionID string) string
}

func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}
	obj["UserID"] = middleware.UserID(c)
	obj["CurrentPath"] = c.Request.URL.Path
	c.HTML(code, name, obj)
}

// RenderError renders the error page.
func RenderError(c *gin.Context, code int, message string) {
	Render(c, code, "error.html", gin.H{"Error": message})
}

// JSONError writes {"error": msg} with the status err maps to.
func JSONError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case services.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNoIdentity):
		return http.StatusUnauthorized
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInFlight):
		return http.StatusConflict
	case errors.Is(err, services.ErrNotReady):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func loadState(c *gin.Context) board.State {
	raw, ok := sessions.Default(c).Get(stateKey).(string)
	if !ok || raw == "" {
		return board.Initial()
	}
	var s board.State
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		log.Debug().Err(err).Msg("discarding unreadable board state")
		return board.Initial()
	}
	return s.Normalize()
}

func saveState(c *gin.Context, s board.State) {
	raw, err := json.Marshal(s)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode board state")
		return
	}
	session := sessions.Default(c)
	session.Set(stateKey, string(raw))
	if err := session.Save(); err != nil {
		log.Error().Err(err).Msg("failed to save board state")
	}
}

// dispatch applies actions to the session state and stores the result.
func dispatch(c *gin.Context, actions ...board.Action) board.State {
	s := board.ReduceAll(loadState(c), actions...)
	saveState(c, s)
	return s
}

func loadDraft(c *gin.Context) services.ConfessionInput {
	var in services.ConfessionInput
	raw, ok := sessions.Default(c).Get(draftKey).(string)
	if ok && raw != "" {
		_ = json.Unmarshal([]byte(raw), &in)
	}
	return in
}

// setDraft keeps the rejected form input so the board can show it again.
func setDraft(c *gin.Context, in *services.ConfessionInput) {
	session := sessions.Default(c)
	if in == nil {
		session.Delete(draftKey)
	} else if raw, err := json.Marshal(in); err == nil {
		session.Set(draftKey, string(raw))
	}
	if err := session.Save(); err != nil {
		log.Error().Err(err).Msg("failed to save draft")
	}
}

type replyDraft struct {
	ConfessionID string `json:"confessionId"`
	Message      string `json:"message"`
}

// loadReplyDraft is the unsent reply for confessionID, if any.
func loadReplyDraft(c *gin.Context, confessionID string) string {
	var d replyDraft
	raw, ok := sessions.Default(c).Get(replyDraftKey).(string)
	if !ok || json.Unmarshal([]byte(raw), &d) != nil || d.ConfessionID != confessionID {
		return ""
	}
	return d.Message
}

func setReplyDraft(c *gin.Context, d *replyDraft) {
	session := sessions.Default(c)
	if d == nil {
		session.Delete(replyDraftKey)
	} else if raw, err := json.Marshal(d); err == nil {
		session.Set(replyDraftKey, string(raw))
	}
	if err := session.Save(); err != nil {
		log.Error().Err(err).Msg("failed to save reply draft")
	}
}

// redirectBack sends a form post back to the page it came from. Only the path and query of
// the referer are used.
func redirectBack(c *gin.Context, fallback string) {
	target := fallback
	if ref, err := url.Parse(c.Request.Referer()); err == nil && ref.Path != "" {
		target = ref.Path
		if ref.RawQuery != "" {
			target += "?" + ref.RawQuery
		}
	}
	c.Redirect(http.StatusSeeOther, target)
}

// ConfessionView is a confession as one reader sees it.
type ConfessionView struct {
	models.Confession
	Liked    bool   `json:"liked"`
	Date     string `json:"date"`
	ShareURL string `json:"shareUrl"`
}

func (d *Deps) view(c models.Confession, userID string) ConfessionView {
	v := ConfessionView{
		Confession: c,
		Liked:      c.IsLikedBy(userID),
		Date:       d.Board.FormatDate(c.CreatedAt),
	}
	if d.ShareURL != nil {
		v.ShareURL = d.ShareURL(c.ID)
	}
	return v
}

func (d *Deps) views(list []models.Confession, userID string) []ConfessionView {
	out := make([]ConfessionView, 0, len(list))
	for _, c := range list {
		out = append(out, d.view(c, userID))
	}
	return out
}
