// Package layouts holds the page shell shared by every status page.
package layouts

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

const datastarScript = `https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.5/bundles/datastar.js`

const style = `body{font-family:system-ui,sans-serif;background:#17141c;color:#eee;margin:0}
.container{max-width:48rem;margin:0 auto;padding:1.5rem}
.dead{opacity:.55;text-decoration:line-through}
.locked{color:#e0a84f}
table{width:100%;border-collapse:collapse}td,th{padding:.3rem;text-align:left}`

// Base wraps body in the html document
func Base(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!doctype html><html lang="en"><head><meta charset="utf-8">`+
			`<meta name="viewport" content="width=device-width, initial-scale=1.0">`+
			`<title>`+templ.EscapeString(title)+`</title>`+
			`<script type="module" src="`+datastarScript+`"></script>`+
			`<style>`+style+`</style></head><body><main class="container">`); err != nil {
			return err
		}
		if body != nil {
			if err := body.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</main></body></html>`)
		return err
	})
}
