package domain

// Result values carried by test records
const (
	ResultPass   = "pass"
	ResultFail   = "fail"
	ResultIgnore = "ignore"
)

// Record is one line of the structured stream written by a test image.
// A group record has TestGroup set; every other record has Test set.
type Record struct {
	TestGroup  string `json:"test_group,omitempty"`
	TestCount  *int   `json:"test_count,omitempty"`
	Test       string `json:"test,omitempty"`
	Result     string `json:"result,omitempty"`
	CycleCount uint64 `json:"cycle_count"`
	Location   string `json:"location,omitempty"`
	Message    string `json:"message,omitempty"`
}

// IsGroup reports whether r starts a test group
func (r Record) IsGroup() bool {
	return r.TestGroup != "" || r.TestCount != nil
}
