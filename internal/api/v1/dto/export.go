package dto

// ExportRequest represents parameters for export requests
type ExportRequest struct {
	Format string  `form:"format" json:"format" binding:"omitempty,oneof=csv xlsx"`
	IDs    []int64 `form:"ids" json:"ids"`
	Query  string  `form:"q" json:"q"`
}
