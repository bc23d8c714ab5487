package models

import (
	"time"
)

// Reply is a threaded comment scoped to one confession.
type Reply struct {
	ID                 string     `gorm:"primaryKey;size:36" json:"id" bson:"_id"`
	ParentConfessionID string     `gorm:"size:36;not null;index" json:"parentConfessionId" bson:"parentConfessionId"`
	Parent             Confession `gorm:"foreignKey:ParentConfessionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-" bson:"-"`
	Message            string     `gorm:"type:text;not null" json:"message" bson:"message"`
	AuthorID           string     `gorm:"size:64;not null" json:"authorId" bson:"authorId"`
	CreatedAt          *time.Time `gorm:"index" json:"createdAt" bson:"createdAt"`
}
