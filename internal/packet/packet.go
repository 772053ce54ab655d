// Package packet renders the appeal packet as Markdown and HTML.
package packet

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	"text/template"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/evcraddock/tax-appeal/internal/appeal"
	"github.com/evcraddock/tax-appeal/internal/currency"
	"github.com/evcraddock/tax-appeal/internal/evidence"
	"github.com/evcraddock/tax-appeal/internal/narrative"
	"github.com/evcraddock/tax-appeal/internal/property"
	"github.com/evcraddock/tax-appeal/internal/valuation"
)

//go:embed templates/*
var templateFS embed.FS

var (
	mdTemplate   = template.Must(template.New("packet.md.tmpl").Funcs(funcMap).ParseFS(templateFS, "templates/packet.md.tmpl"))
	pageTemplate = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/page.html"))
	markdown     = goldmark.New(goldmark.WithExtensions(extension.GFM))
)

var funcMap = template.FuncMap{
	"money":    currency.Whole,
	"moneyPtr": tmplMoneyPtr,
	"cents":    currency.Format,
	"decimal":  currency.FormatDecimal,
	"pct":      tmplPercent,
	"rate":     tmplRate,
	"sqft":     tmplSqFt,
	"year":     tmplYear,
	"date":     tmplDate,
	"orDash":   tmplOrDash,
}

// Input is everything that goes into a packet.
type Input struct {
	Property       *property.Property
	Workup         valuation.ValuationWorkup
	Evidence       []*evidence.Note
	Narrative      narrative.Narrative
	Savings        *appeal.SavingsResult
	Classification *appeal.Classification
	// Synthetic marks comparables or narrative taken from demo data.
	Synthetic   bool
	GeneratedAt time.Time
}

// Build renders the packet as Markdown.
func Build(in Input) (string, error) {
	if in.Property == nil {
		return "", fmt.Errorf("packet needs a property")
	}
	if in.GeneratedAt.IsZero() {
		in.GeneratedAt = time.Now()
	}
	in.Synthetic = in.Synthetic || in.Narrative.Synthetic

	var buf bytes.Buffer
	if err := mdTemplate.Execute(&buf, in); err != nil {
		return "", fmt.Errorf("rendering packet: %w", err)
	}
	return buf.String(), nil
}

// HTML converts packet Markdown into a standalone HTML document.
func HTML(title, md string) ([]byte, error) {
	var body bytes.Buffer
	if err := markdown.Convert([]byte(md), &body); err != nil {
		return nil, fmt.Errorf("converting markdown: %w", err)
	}

	var page bytes.Buffer
	err := pageTemplate.Execute(&page, struct {
		Title string
		Body  htmltemplate.HTML
	}{
		Title: title,
		// goldmark escapes raw HTML unless WithUnsafe is set.
		Body: htmltemplate.HTML(body.String()),
	})
	if err != nil {
		return nil, fmt.Errorf("rendering page: %w", err)
	}
	return page.Bytes(), nil
}

func tmplMoneyPtr(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return currency.Whole(*v)
}

func tmplPercent(v float64) string {
	return decimal.NewFromFloat(v).Round(2).String() + "%"
}

// tmplRate renders a fraction such as a vacancy rate as a percentage.
func tmplRate(v float64) string {
	return tmplPercent(v * 100)
}

func tmplSqFt(v float64) string {
	if v == 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f sq ft", v)
}

func tmplYear(y int) string {
	if y == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", y)
}

func tmplDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}

func tmplOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
