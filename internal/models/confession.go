package models

import (
	"time"
)

type Confession struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id" bson:"_id"`
	Message     string     `gorm:"type:text;not null" json:"message" bson:"message"`
	CrushName   string     `gorm:"size:200;not null;index" json:"crushName" bson:"crushName"`
	SocialMedia string     `gorm:"size:500" json:"socialMedia" bson:"socialMedia"`
	AuthorID    string     `gorm:"size:64;not null;index" json:"-" bson:"authorId"`
	CreatedAt   *time.Time `gorm:"index" json:"createdAt" bson:"createdAt"` // nil until committed
	LikesCount  int        `gorm:"not null;default:0" json:"likesCount" bson:"likesCount"`
	LikedBy     LikedBy    `gorm:"type:jsonb" json:"likedBy" bson:"likedBy"`
}

// IsLikedBy reports whether userID currently likes the confession.
func (c *Confession) IsLikedBy(userID string) bool {
	if userID == "" {
		return false
	}
	return c.LikedBy[userID]
}

// LikerCount counts the identifiers mapped to true. Eventually equals LikesCount.
func (c *Confession) LikerCount() int {
	n := 0
	for _, v := range c.LikedBy {
		if v {
			n++
		}
	}
	return n
}
