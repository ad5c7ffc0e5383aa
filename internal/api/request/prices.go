package request

// UpdateRequest is the admin payload carrying pasted community price text
// observed at Date and Time.
type UpdateRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
	Text string `json:"text"`
}

// ProductQuery holds the raw query parameters identifying a product history window.
type ProductQuery struct {
	Source   string
	Category string
	Product  string
	Window   string
}
