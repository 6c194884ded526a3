package dto

type PageResponse struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}
