package model

// IngestRequest is the payload forwarded to the external ingestion pipeline.
type IngestRequest struct {
	Date    string `json:"date"`
	Time    string `json:"time"`
	RawText string `json:"rawText"`
}

// IngestResult is the ingestion pipeline's reply.
type IngestResult struct {
	Status          string `json:"status"` // "success" or "error"
	Count           int    `json:"count"`
	TotalCategories int    `json:"totalCategories"`
	Message         string `json:"message"`
}
