// Package render turns view snapshots into HTML pages using the embedded
// pongo2 templates.
package render

import (
	"embed"
	"fmt"
	"html"
	"io"
	"io/fs"
	"sync"

	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/atinyakov/cardash/internal/models"
	"github.com/atinyakov/cardash/internal/view"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

const (
	pageHome     = "home.html"
	pageForm     = "form.html"
	pageCarList  = "carlist.html"
	pageNotFound = "notfound.html"
)

// Card is one car as displayed, each field the backend's text as received.
type Card struct {
	Key       string
	Make      string
	ModelName string
	Year      string
	Price     string
}

// FormPage is the template data for the sign-up and sign-in pages.
type FormPage struct {
	ViewID    string
	Title     string
	Action    string
	Username  string
	Phase     string
	AltPrompt string
	AltHref   string
	AltLabel  string
}

// CarListPage is the template data for the inventory page.
type CarListPage struct {
	ViewID     string
	Phase      string
	Cards      []Card
	RefreshURL string
}

// Renderer executes the page templates. It is safe for concurrent use.
type Renderer struct {
	pages map[string]*pongo2.Template
	log   *zap.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets where markup found in backend data is reported.
func WithLogger(l *zap.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.log = l
		}
	}
}

// New parses every page template up front so a broken template fails at
// startup rather than on first request.
func New(opts ...Option) (*Renderer, error) {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return nil, fmt.Errorf("render: templates fs: %w", err)
	}
	set := pongo2.NewSet("cardash", pongo2.NewFSLoader(sub))

	r := &Renderer{pages: make(map[string]*pongo2.Template), log: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	for _, name := range []string{pageHome, pageForm, pageCarList, pageNotFound} {
		tpl, err := set.FromFile(name)
		if err != nil {
			return nil, fmt.Errorf("render: load template %q: %w", name, err)
		}
		r.pages[name] = tpl
	}
	return r, nil
}

// Home writes the landing page.
func (r *Renderer) Home(w io.Writer) error {
	return r.execute(w, pageHome, pongo2.Context{"view": "home"})
}

// Form writes a sign-up or sign-in page for snap.
func (r *Renderer) Form(w io.Writer, snap view.FormSnapshot) error {
	return r.execute(w, pageForm, pongo2.Context{
		"view": snap.Kind.String(),
		"form": NewFormPage(snap),
	})
}

// CarList writes the inventory page for snap. While the fetch is in flight
// the page refreshes itself against refreshURL.
func (r *Renderer) CarList(w io.Writer, snap view.CarListSnapshot, refreshURL string) error {
	page := CarListPage{
		ViewID: snap.ID,
		Phase:  snap.State.Phase.String(),
		Cards:  Cards(snap.Cars()),
	}
	r.reportMarkup(snap.ID, page.Cards)
	if snap.State.Phase == view.Loading {
		page.RefreshURL = refreshURL
	}
	return r.execute(w, pageCarList, pongo2.Context{
		"view": "carlist",
		"list": page,
	})
}

// NotFound writes the page for an unmatched path.
func (r *Renderer) NotFound(w io.Writer, path string) error {
	return r.execute(w, pageNotFound, pongo2.Context{
		"view": "notfound",
		"path": path,
	})
}

func (r *Renderer) execute(w io.Writer, name string, ctx pongo2.Context) error {
	tpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("render: unknown page %q", name)
	}
	if err := tpl.ExecuteWriter(ctx, w); err != nil {
		return fmt.Errorf("render: execute %q: %w", name, err)
	}
	return nil
}

// NewFormPage maps a form snapshot to template data.
func NewFormPage(snap view.FormSnapshot) FormPage {
	page := FormPage{
		ViewID:   snap.ID,
		Username: snap.Credentials.Username,
		Phase:    snap.State.Phase.String(),
	}
	if snap.Kind == view.SignIn {
		page.Title = "Sign In"
		page.Action = "/signin"
		page.AltPrompt = "Don't have an account?"
		page.AltHref = "/signup"
		page.AltLabel = "Sign Up"
		return page
	}
	page.Title = "Sign Up"
	page.Action = "/signup"
	page.AltPrompt = "Already have an account?"
	page.AltHref = "/signin"
	page.AltLabel = "Sign In"
	return page
}

// Cards converts cars to display cards in the given order. Every field is
// the backend's text unchanged; templates escape it on output.
func Cards(cars []models.Car) []Card {
	cards := make([]Card, 0, len(cars))
	for _, c := range cars {
		cards = append(cards, Card{
			Key:       string(c.ID),
			Make:      c.Make,
			ModelName: c.ModelName,
			Year:      c.Year.String(),
			Price:     c.Price.String(),
		})
	}
	return cards
}

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

// HasMarkup reports whether raw would lose anything to a strict HTML
// policy, i.e. whether it looks like markup rather than plain text.
func HasMarkup(raw string) bool {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return html.UnescapeString(textPolicy.Sanitize(raw)) != raw
}

func (r *Renderer) reportMarkup(viewID string, cards []Card) {
	for _, c := range cards {
		fields := []struct{ name, value string }{
			{"make", c.Make},
			{"modelName", c.ModelName},
			{"year", c.Year},
			{"price", c.Price},
		}
		for _, f := range fields {
			if HasMarkup(f.value) {
				r.log.Warn("car text contains markup",
					zap.String("view", viewID),
					zap.String("key", c.Key),
					zap.String("field", f.name),
				)
			}
		}
	}
}
