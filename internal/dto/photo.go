package dto

// PhotoResponse 照片元数据
type PhotoResponse struct {
	ID          string  `json:"id"`
	RemarkID    *string `json:"remark_id,omitempty"`
	AnswerID    *string `json:"answer_id,omitempty"`
	Filename    string  `json:"filename"`
	FileSize    int64   `json:"file_size"`
	ContentType string  `json:"content_type,omitempty"`
	UploadedBy  string  `json:"uploaded_by"`
	URL         string  `json:"url"`
	CreatedAt   string  `json:"created_at"`
}
