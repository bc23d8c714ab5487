package router

import (
	"fmt"
	"time"

	"crushboard/internal/handlers"
	"crushboard/internal/middleware"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type Options struct {
	TemplatesDir  string
	SessionSecret string
	Location      *time.Location
	Limits        Limits
}

// New builds the gin engine with sessions, identity, templates and every route.
func New(d *handlers.Deps, opts Options) (*gin.Engine, error) {
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.Logger())

	store, err := middleware.SessionStore(opts.SessionSecret)
	if err != nil {
		return nil, err
	}
	r.Use(sessions.Sessions(middleware.SessionName, store))
	r.Use(middleware.Identity())

	if opts.Location == nil {
		opts.Location = time.UTC
	}
	render, err := LoadTemplates(opts.TemplatesDir, opts.Location)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}
	r.HTMLRender = render

	RegisterRoutes(r, d, opts.Limits)
	return r, nil
}
