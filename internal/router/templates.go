package router

import (
	"fmt"
	"html/template"
	"path/filepath"
	"time"

	"crushboard/internal/utils"

	"github.com/gin-contrib/multitemplate"
)

func FuncMap(loc *time.Location) template.FuncMap {
	return template.FuncMap{
		"dict": func(values ...interface{}) (map[string]interface{}, error) {
			if len(values)%2 != 0 {
				return nil, fmt.Errorf("invalid dict call")
			}
			dict := make(map[string]interface{}, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict keys must be strings")
				}
				dict[key] = values[i+1]
			}
			return dict, nil
		},
		"formatDate": func(t *time.Time) string {
			return utils.FormatTimestamp(t, loc)
		},
		"timeAgo":    utils.TimeAgo,
		"markdown":   utils.RenderMarkdown,
		"shortID":    utils.ShortID,
		"avatar":     utils.AvatarFor,
		"socialLink": utils.SocialLink,
		"eq": func(a, b interface{}) bool {
			return fmt.Sprint(a) == fmt.Sprint(b)
		},
	}
}

// LoadTemplates registers each view together with the layouts.
func LoadTemplates(templatesDir string, loc *time.Location) (multitemplate.Renderer, error) {
	r := multitemplate.NewRenderer()

	layouts, err := filepath.Glob(filepath.Join(templatesDir, "layouts", "*.html"))
	if err != nil {
		return nil, err
	}
	if len(layouts) == 0 {
		return nil, fmt.Errorf("no layouts found in %s", templatesDir)
	}
	includes, err := filepath.Glob(filepath.Join(templatesDir, "includes", "*.html"))
	if err != nil {
		return nil, err
	}

	assemble := func(view string) []string {
		files := make([]string, 0, len(layouts)+len(includes)+1)
		files = append(files, layouts...)
		files = append(files, includes...)
		return append(files, filepath.Join(templatesDir, "views", view))
	}

	funcMap := FuncMap(loc)
	for _, view := range []string{"board.html", "replies.html", "error.html"} {
		r.AddFromFilesFuncs(view, funcMap, assemble(view)...)
	}
	return r, nil
}
