package models

// GalleryImage is a photo attached to a model's public library page.
// Removed together with the model.
type GalleryImage struct {
	ID           uint64 `gorm:"primaryKey"`
	CreatedAt    int64
	ModelID      uint64 `gorm:"not null;index"`
	Model        Model  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Path         string `gorm:"type:varchar(255)"`
	ThumbPath    string `gorm:"type:varchar(255)"`
	Size         int64
	ThumbSize    int64
	Width        uint16
	Height       uint16
	DisplayOrder int
	IsThumbnail  bool // marks the image used as the library card thumbnail
}
