package report

import (
	"encoding/json"
	"fmt"
	"io"

	"fjacquet/bwa-report/internal/models"
)

// JSONRenderer writes the report as indented JSON with amounts as numbers.
type JSONRenderer struct{}

type jsonReport struct {
	Title        string       `json:"title"`
	Organization string       `json:"organization,omitempty"`
	Year         int          `json:"year,omitempty"`
	Policy       string       `json:"policy"`
	GeneratedAt  string       `json:"generated_at,omitempty"`
	Sources      []string     `json:"sources,omitempty"`
	Periods      []jsonPeriod `json:"periods"`
}

type jsonPeriod struct {
	Label       string           `json:"label"`
	Quarter     int              `json:"quarter"`
	Start       string           `json:"start,omitempty"`
	End         string           `json:"end,omitempty"`
	Categories  []jsonCategory   `json:"categories"`
	SuperGroups []jsonSuperGroup `json:"super_groups"`
	Total       json.Number      `json:"total"`
	Included    int              `json:"included"`
	Undated     int              `json:"undated"`
	OutOfWindow int              `json:"out_of_window"`
}

type jsonCategory struct {
	Name       string      `json:"name"`
	SuperGroup string      `json:"super_group"`
	Count      int         `json:"count"`
	Amount     json.Number `json:"amount"`
}

type jsonSuperGroup struct {
	Name   string      `json:"name"`
	Amount json.Number `json:"amount"`
}

func (r *JSONRenderer) Render(w io.Writer, rep Report) error {
	out := jsonReport{
		Title:        rep.Heading(),
		Organization: rep.Organization,
		Year:         rep.Year,
		Policy:       string(rep.Policy),
		Sources:      rep.Sources,
		Periods:      make([]jsonPeriod, 0, len(rep.Periods)),
	}
	if !rep.GeneratedAt.IsZero() {
		out.GeneratedAt = rep.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z")
	}
	for _, s := range rep.Periods {
		p := jsonPeriod{
			Label:       s.Label(),
			Quarter:     s.Quarter,
			Categories:  []jsonCategory{},
			SuperGroups: []jsonSuperGroup{},
			Total:       json.Number(models.Present(s.Total)),
			Included:    s.Included,
			Undated:     s.Undated,
			OutOfWindow: s.OutOfWindow,
		}
		if s.Year != 0 {
			p.Start = s.Window.Start.Format(models.DateLayoutISO)
			p.End = s.Window.End.Format(models.DateLayoutISO)
		}
		for _, c := range s.Categories() {
			p.Categories = append(p.Categories, jsonCategory{
				Name:       c,
				SuperGroup: s.CategoryGroups[c],
				Count:      s.CategoryCounts[c],
				Amount:     json.Number(models.Present(s.CategoryTotal(c))),
			})
		}
		for _, g := range s.SuperGroups() {
			p.SuperGroups = append(p.SuperGroups, jsonSuperGroup{Name: g, Amount: json.Number(models.Present(s.SuperGroupTotal(g)))})
		}
		out.Periods = append(out.Periods, p)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to marshal JSON report: %w", err)
	}
	return nil
}
