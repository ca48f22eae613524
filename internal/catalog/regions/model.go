package regions

// Region is a country users and orders can be located in.
type Region struct {
	ID     int64  `json:"id"`
	Alpha2 string `json:"alpha2"`
	Alpha3 string `json:"alpha3"`
	Name   string `json:"name"`
}

// Request creates or replaces a region. Codes follow ISO 3166-1.
type Request struct {
	Alpha2 string `json:"alpha2" validate:"required,iso3166_1_alpha2"`
	Alpha3 string `json:"alpha3" validate:"required,iso3166_1_alpha3"`
	Name   string `json:"name" validate:"required,max=100"`
}
