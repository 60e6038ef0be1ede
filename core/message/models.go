package message

import "time"

type Message struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Class     string    `json:"class" db:"class"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
}

// ClassMessage is a Message as shown in a class feed.
type ClassMessage struct {
	ID         int64     `json:"id" db:"id"`
	Content    string    `json:"message_content" db:"message_content"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	SenderName string    `json:"sender_name" db:"sender_name"`
	SenderRole string    `json:"sender_role" db:"sender_role"`
}

type NewMessage struct {
	ClassName      string `json:"className"`
	MessageContent string `json:"messageContent"`
}
