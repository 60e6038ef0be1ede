package message

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/iatic/ecole/core"
	"github.com/iatic/ecole/core/access"
	"github.com/iatic/ecole/core/user"
)

var (
	// errors
	ErrEmptyContent     = core.NewValidationError(errors.New("Le contenu du message ne peut pas être vide"))
	ErrInvalidClass     = core.NewValidationError(errors.New("Classe invalide"))
	ErrClassForbidden   = core.NewAuthorizationError("Accès non autorisé à cette classe")
	ErrPostingForbidden = core.NewAuthorizationError("Envoi non autorisé dans cette classe")
)

type (
	Repository interface {
		CreateMessage(ctx context.Context, m Message, exec ...core.DBExecutor) (Message, error)
		// GetClassMessage returns the message with id joined with its sender.
		GetClassMessage(ctx context.Context, id int64, exec ...core.DBExecutor) (ClassMessage, error)
		// QueryClassMessages returns the messages of class, oldest first.
		QueryClassMessages(ctx context.Context, class string, exec ...core.DBExecutor) ([]ClassMessage, error)
	}

	// Service is a poll-based class feed: students read and post in their own class, other roles in any class.
	Service interface {
		List(ctx context.Context, id access.Identity, class string) ([]ClassMessage, error)
		Post(ctx context.Context, id access.Identity, nm NewMessage) (ClassMessage, error)
	}

	service struct {
		db      core.DB
		repo    Repository
		usrRepo user.Repository
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository, usrRepo user.Repository) Service {
	return &service{
		db:      db,
		repo:    repo,
		usrRepo: usrRepo,
	}
}

// checkScope re-reads the sender, since its class is not carried by the token.
func (svc *service) checkScope(ctx context.Context, id access.Identity, class string, denied error, exec core.DBExecutor) error {
	sender, err := svc.usrRepo.GetUser(ctx, user.GetFilter{ID: id.UserID}, exec)
	if err != nil {
		return errors.Wrap(err, "finding sender")
	}
	if sender.IsStudent() && sender.Class.String != class {
		return denied
	}
	if !core.IsValidClass(class) {
		return ErrInvalidClass
	}
	return nil
}

func (svc *service) List(ctx context.Context, id access.Identity, class string) ([]ClassMessage, error) {
	class = core.CleanString(class)
	if err := svc.checkScope(ctx, id, class, ErrClassForbidden, svc.db); err != nil {
		return nil, err
	}

	messages, err := svc.repo.QueryClassMessages(ctx, class)
	if err != nil {
		return nil, errors.Wrap(err, "querying class messages")
	}
	if messages == nil {
		messages = []ClassMessage{}
	}
	return messages, nil
}

func (svc *service) Post(ctx context.Context, id access.Identity, nm NewMessage) (ClassMessage, error) {
	content := strings.TrimSpace(nm.MessageContent)
	class := core.CleanString(nm.ClassName)
	if content == "" {
		return ClassMessage{}, ErrEmptyContent
	}

	var cm ClassMessage
	err := core.WithTx(ctx, svc.db, func(tx core.DBExecutor) error {
		if err := svc.checkScope(ctx, id, class, ErrPostingForbidden, tx); err != nil {
			return err
		}

		m, err := svc.repo.CreateMessage(ctx, Message{
			UserID:    id.UserID,
			Class:     class,
			Content:   content,
			CreatedAt: core.Now(),
		}, tx)
		if err != nil {
			return errors.Wrap(err, "creating message")
		}
		cm, err = svc.repo.GetClassMessage(ctx, m.ID, tx)
		return errors.Wrap(err, "finding created message")
	})
	if err != nil {
		return ClassMessage{}, err
	}
	return cm, nil
}
