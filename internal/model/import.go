package model

// ImportRowError describes an upload row that was dropped.
type ImportRowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// ImportResult summarizes one upload.
type ImportResult struct {
	Filename            string           `json:"filename"`
	ValidRows           int              `json:"valid_rows"`
	Inserted            int              `json:"inserted"`
	Duplicates          int              `json:"duplicates"`
	FailedRows          int              `json:"failed_rows"`
	SkippedRows         []ImportRowError `json:"skipped_rows"`
	// RejectedRows are valid rows the record store refused to insert.
	RejectedRows        []ImportRowError `json:"rejected_rows"`
	PredictionTriggered bool             `json:"prediction_triggered"`
}

// RowRejection is one row of an insert chunk that the record store refused.
type RowRejection struct {
	Index  int
	Reason string
}

// BulkInsertResult reports what happened to one chunk of new students.
// Rows not accounted for by Inserted, Duplicates or Rejected were never
// attempted.
type BulkInsertResult struct {
	Inserted   int
	Duplicates int
	Rejected   []RowRejection
}
