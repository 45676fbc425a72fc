package models

// RowIssue describes one row that was skipped or degraded during loading.
type RowIssue struct {
	Sheet  string `json:"sheet,omitempty"`
	Row    int    `json:"row"`
	Field  string `json:"field"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
	// Kept is true when the row was loaded with the field left empty.
	Kept bool `json:"kept"`
}

// Diagnostics summarises what a load did with its input.
type Diagnostics struct {
	Source        string     `json:"source"`
	Kind          SourceKind `json:"kind"`
	Encoding      string     `json:"encoding,omitempty"`
	Delimiter     string     `json:"delimiter,omitempty"`
	RowsRead      int        `json:"rows_read"`
	Loaded        int        `json:"loaded"`
	Skipped       int        `json:"skipped"`
	Undated       int        `json:"undated"`
	Issues        []RowIssue `json:"issues,omitempty"`
	SkippedSheets []string   `json:"skipped_sheets,omitempty"`
}

// Skip records a row that was dropped.
func (d *Diagnostics) Skip(issue RowIssue) {
	issue.Kept = false
	d.Skipped++
	d.Issues = append(d.Issues, issue)
}

// Degrade records a row that was kept with a field left empty.
func (d *Diagnostics) Degrade(issue RowIssue) {
	issue.Kept = true
	d.Issues = append(d.Issues, issue)
}

// Merge folds the counters and issues of other into d.
func (d *Diagnostics) Merge(other Diagnostics) {
	d.RowsRead += other.RowsRead
	d.Loaded += other.Loaded
	d.Skipped += other.Skipped
	d.Undated += other.Undated
	d.Issues = append(d.Issues, other.Issues...)
	d.SkippedSheets = append(d.SkippedSheets, other.SkippedSheets...)
}
