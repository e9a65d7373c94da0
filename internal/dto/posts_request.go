package dto

type CreatePostRequest struct {
	Title     string `json:"title" binding:"required,min=1,max=64"`
	Content   string `json:"content" binding:"required"`
	ImageURL  string `json:"image_url" binding:"required,url"`
	Published bool   `json:"published"`
}

type EditPostRequest struct {
	Title     *string `json:"title" binding:"omitempty,min=1,max=64"`
	Content   *string `json:"content"`
	ImageURL  *string `json:"image_url" binding:"omitempty,url"`
	Published *bool   `json:"published"`
}
