package catalogue

// Control names for the two supported frameworks. Only controls referenced by
// the built-in rules are listed.

var nistControls = map[string]string{
	"AC-2":  "Account Management",
	"AC-6":  "Least Privilege",
	"AU-2":  "Audit Events",
	"CM-2":  "Baseline Configuration",
	"SC-7":  "Boundary Protection",
	"SC-28": "Protection of Information at Rest",
}

var isoControls = map[string]string{
	"A.8.9":    "Configuration Management",
	"A.9.2.3":  "Management of Privileged Access Rights",
	"A.12.3.1": "Information Backup",
	"A.12.4.1": "Event Logging",
	"A.13.1.3": "Segregation in Networks",
}
