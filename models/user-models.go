package models

import "time"

// User is hard-deleted so the unique email is released with the account.
type User struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Nickname   string    `json:"nickname" gorm:"size:64"`
	Firstname  string    `json:"firstname" gorm:"size:64"`
	Lastname   string    `json:"lastname" gorm:"size:64"`
	Email      string    `json:"email" gorm:"uniqueIndex;not null"`
	Password   string    `json:"-" gorm:"not null"`
	PictureURL string    `json:"pictureUrl"`
	IsAdmin    bool      `json:"isAdmin" gorm:"not null;default:false"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`

	Posts    []Post    `json:"-" gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Comments []Comment `json:"-" gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Likes    []Like    `json:"-" gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// SessionRevocation holds the session generation of a user. Tokens issued
// under an older generation are rejected.
type SessionRevocation struct {
	UserID     uint      `gorm:"primaryKey;autoIncrement:false"`
	Generation int64     `gorm:"not null;default:0"`
	RevokedAt  time.Time `gorm:"not null"`
}
