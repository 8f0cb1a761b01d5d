package models

// ShareContent is one shared file or text snippet.
type ShareContent struct {
	ID       string `gorm:"primaryKey" json:"id"`
	Type     string `gorm:"not null" json:"type"`
	Preview  string `gorm:"not null" json:"preview"`
	Contents []byte `gorm:"not null" json:"-"`
	Modified int64  `gorm:"not null;index" json:"modified"`
}

func (ShareContent) TableName() string {
	return "share_contents"
}
