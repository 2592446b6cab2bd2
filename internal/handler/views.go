// Package handler serves the back-office pages. Pages are rendered from the
// embedded templates in web/; forms post back and redirect with a flash
// message on success or re-render with field errors on failure.
package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/schema"

	"github.com/Kauanrodrigues01/academy/internal/auth"
	"github.com/Kauanrodrigues01/academy/internal/finance"
	"github.com/Kauanrodrigues01/academy/internal/flash"
	"github.com/Kauanrodrigues01/academy/internal/validate"
	"github.com/Kauanrodrigues01/academy/web"
)

var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.SetAliasTag("form")
	d.IgnoreUnknownKeys(true)
	return d
}

// decodeForm parses the request body into dst using the form tags.
func decodeForm(r *http.Request, dst any) error {
	if err := r.ParseForm(); err != nil {
		return err
	}
	return decoder.Decode(dst, r.PostForm)
}

// Views renders pages inside the shared layout.
type Views struct {
	pages  map[string]*template.Template
	loc    *time.Location
	today  func() time.Time
	logger *slog.Logger
}

// NewViews parses the embedded templates. today returns the current
// business day and loc is used to show timestamps.
func NewViews(loc *time.Location, today func() time.Time, logger *slog.Logger) (*Views, error) {
	if loc == nil {
		loc = time.Local
	}
	v := &Views{loc: loc, today: today, logger: logger.With("component", "views")}
	pages, err := web.Templates(v.funcs())
	if err != nil {
		return nil, err
	}
	v.pages = pages
	return v, nil
}

func (v *Views) funcs() template.FuncMap {
	return template.FuncMap{
		"date":      func(t time.Time) string { return t.Format("02/01/2006") },
		"inputDate": func(t time.Time) string { return t.Format("2006-01-02") },
		"dateTime":  func(t time.Time) string { return t.In(v.loc).Format("02/01/2006 15:04") },
		"longDate":  longDate,
		"pageQuery": pageQuery,
		"bytes":     humanBytes,
		"dict":      dict,
	}
}

// page returns the data every page template expects. It consumes the
// pending flash message, so call it before writing the response.
func (v *Views) page(w http.ResponseWriter, r *http.Request, title, nav string) map[string]any {
	var staff *auth.StaffContext
	if sc, ok := auth.FromContext(r.Context()); ok {
		staff = &sc
	}
	return map[string]any{
		"Title":  title,
		"Nav":    nav,
		"Staff":  staff,
		"Live":   staff != nil,
		"Flash":  flash.Pop(w, r),
		"Today":  v.today(),
		"Errors": validate.Errors(nil),
	}
}

// render executes the page into a buffer first so a template error never
// leaves a half-written page behind.
func (v *Views) render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	t, ok := v.pages[name]
	if !ok {
		v.logger.Error("unknown template", "template", name)
		http.Error(w, "Erro interno", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		v.logger.Error("render template", "template", name, "path", r.URL.Path, "error", err)
		http.Error(w, "Erro interno", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (v *Views) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	data := v.page(w, r, http.StatusText(status), "")
	switch status {
	case http.StatusNotFound:
		data["Title"] = "Página não encontrada"
	case http.StatusInternalServerError:
		data["Title"] = "Erro interno"
	}
	data["Message"] = message
	v.render(w, r, status, "error.html", data)
}

func (v *Views) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	v.logger.Error(msg, "path", r.URL.Path, "error", err)
	v.renderError(w, r, http.StatusInternalServerError, "Algo deu errado. Tente novamente em instantes.")
}

// redirect sends the browser to target after a successful POST.
func redirect(w http.ResponseWriter, r *http.Request, level flash.Level, text, target string) {
	if text != "" {
		flash.Set(w, level, text)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

func longDate(t time.Time) string {
	return fmt.Sprintf("%d de %s de %d", t.Day(), strings.ToLower(finance.MonthName(int(t.Month()))), t.Year())
}

// pageQuery builds the link to page keeping the active filters. It returns
// a template.URL so the separators survive escaping.
func pageQuery(q url.Values, page int) template.URL {
	out := url.Values{}
	for k, vs := range q {
		if k == "page" {
			continue
		}
		for _, s := range vs {
			if s != "" {
				out.Add(k, s)
			}
		}
	}
	out.Set("page", strconv.Itoa(page))
	return template.URL("?" + out.Encode())
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGT"[exp])
}

func dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments")
	}
	m := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		k, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", pairs[i])
		}
		m[k] = pairs[i+1]
	}
	return m, nil
}
