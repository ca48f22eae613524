package statuses

// Status is a stage an order moves through.
type Status struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

// Request creates or replaces a status.
type Request struct {
	Title       string  `json:"title" validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}
