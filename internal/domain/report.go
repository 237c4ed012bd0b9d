package domain

// ReportEntry is the outcome of one row.
type ReportEntry struct {
	Name      string
	Succeeded bool
	// Skipped marks rows whose file already existed and were not fetched.
	Skipped        bool
	SourceURL      string
	FailureDetails string
}

// SkippedEntry reports a row suppressed by the existence gate.
func SkippedEntry(name string) ReportEntry {
	return ReportEntry{Name: name, Succeeded: true, Skipped: true}
}

// Summary counts report entries by outcome.
type Summary struct {
	Total     int
	Succeeded int
	Skipped   int
	Failed    int
}

// Summarize tallies entries.
func Summarize(entries []ReportEntry) Summary {
	s := Summary{Total: len(entries)}
	for _, e := range entries {
		switch {
		case e.Skipped:
			s.Skipped++
		case e.Succeeded:
			s.Succeeded++
		default:
			s.Failed++
		}
	}
	return s
}
