package domain

// TestFailure represents a failed test, or an image that did not complete
type TestFailure struct {
	TestName  string `json:"test_name"`
	ImagePath string `json:"image_path"`
	Group     string `json:"group"`
	Location  string `json:"location"`
	File      string `json:"file"`
	Line      int    `json:"line"`
	Message   string `json:"message"`
	Resolved  bool   `json:"resolved,omitempty"` // Track if the failure is marked as resolved
}
