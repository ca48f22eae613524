package skills

// Skill is a marketable ability attached to users and orders.
type Skill struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Image       string  `json:"image,omitempty"`
	Description *string `json:"description"`
	Rating      float64 `json:"rating"`
}

// CreateRequest is the payload of POST /api/skills.
type CreateRequest struct {
	Title       string   `json:"title" validate:"required,max=100"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	Rating      *float64 `json:"rating" validate:"omitempty,gte=0,lte=5"`
}

// UpdateRequest changes the provided fields only.
type UpdateRequest struct {
	Title       *string  `json:"title" validate:"omitempty,min=1,max=100"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	Rating      *float64 `json:"rating" validate:"omitempty,gte=0,lte=5"`
}

// UploadResponse reports the public URL of the stored image.
type UploadResponse struct {
	URL string `json:"url"`
}
