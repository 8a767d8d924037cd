package models

import "time"

// ContactMessage is a message left through the public contact form.
type ContactMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Email     string    `gorm:"type:varchar(255);not null" json:"email"`
	Subject   string    `gorm:"type:varchar(255)" json:"subject"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	Urgent    bool      `gorm:"default:false" json:"urgent"`
	CreatedAt time.Time `json:"created_at"`
}
