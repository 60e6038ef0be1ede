package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/iatic/ecole/core"
	"github.com/iatic/ecole/core/message"
)

const selectClassMessage = `SELECT m.id, m.content AS message_content, m.created_at,
	u.firstname AS sender_name, u.role AS sender_role
FROM messages m
JOIN users u ON m.user_id = u.id`

var errMessageNotFound = core.NewNotFoundError("Message non trouvé")

type messageRepository struct {
	repository
}

var _ message.Repository = (*messageRepository)(nil) // interface compliance check

func NewMessageRepository(exec core.DBExecutor) *messageRepository {
	return &messageRepository{repository{exec: exec}}
}

func (repo messageRepository) CreateMessage(ctx context.Context, m message.Message, exec ...core.DBExecutor) (message.Message, error) {
	id, err := insert(ctx, repo.getExec(exec),
		"INSERT INTO messages (user_id, class, content, created_at) VALUES (?, ?, ?, ?) RETURNING id",
		m.UserID, m.Class, m.Content, m.CreatedAt.UTC())
	if err != nil {
		return message.Message{}, errors.Wrap(err, "inserting message")
	}
	m.ID = id
	return m, nil
}

func (repo messageRepository) GetClassMessage(ctx context.Context, id int64, exec ...core.DBExecutor) (message.ClassMessage, error) {
	var cm message.ClassMessage
	if err := get(ctx, repo.getExec(exec), &cm, selectClassMessage+" WHERE m.id = ?", id); err != nil {
		return message.ClassMessage{}, trapNoRowsErr(err, errMessageNotFound, "selecting message")
	}
	return cm, nil
}

func (repo messageRepository) QueryClassMessages(ctx context.Context, class string, exec ...core.DBExecutor) ([]message.ClassMessage, error) {
	messages := make([]message.ClassMessage, 0)
	err := selectAll(ctx, repo.getExec(exec), &messages,
		selectClassMessage+" WHERE m.class = ? ORDER BY m.created_at ASC, m.id ASC", class)
	if err != nil {
		return nil, errors.Wrap(err, "selecting class messages")
	}
	return messages, nil
}
