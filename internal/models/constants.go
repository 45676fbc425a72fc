package models

// Unmapped is the category and super-group label used when no mapping exists.
const Unmapped = "unmapped"

// Date layouts used for the exchange format and reports.
const (
	DateLayoutISO    = "2006-01-02"
	DateLayoutGerman = "02.01.2006"
)

// File permissions
const (
	PermissionConfigFile = 0600
	PermissionDirectory  = 0750
	PermissionReportFile = 0644
)
