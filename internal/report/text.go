package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"fjacquet/bwa-report/internal/models"
)

// TextRenderer writes aligned plain-text tables.
type TextRenderer struct{}

func (r *TextRenderer) Render(w io.Writer, rep Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	line := func(format string, args ...interface{}) {
		fmt.Fprintf(tw, format+"\n", args...)
	}

	line("%s\t", rep.Heading())
	if rep.Organization != "" {
		line("%s\t", rep.Organization)
	}
	for _, s := range rep.Periods {
		line("\t")
		if s.Year != 0 {
			line("%s\t%s - %s\t", s.Label(),
				s.Window.Start.Format(models.DateLayoutGerman), s.Window.End.Format(models.DateLayoutGerman))
		} else {
			line("%s\t", s.Label())
		}
		line("Super-group\tCategory\tCount\tAmount\t")
		for _, group := range s.SuperGroups() {
			for _, category := range s.CategoriesOf(group) {
				line("%s\t%s\t%d\t%s\t", group, category, s.CategoryCounts[category], rep.amount(s.CategoryTotal(category)))
			}
			line("%s\t%s\t\t%s\t", group, "Subtotal", rep.amount(s.SuperGroupTotal(group)))
		}
		line("Total\t\t%d\t%s\t", s.Included, rep.amount(s.Total))
		if s.Undated > 0 {
			line("Undated (excluded)\t\t%d\t\t", s.Undated)
		}
	}
	return tw.Flush()
}
