package projection

import (
	"context"
	"errors"

	"github.com/dgc-network/dgc-indexer/pkg/model"
	"github.com/dgc-network/dgc-indexer/pkg/storage"
	"go.uber.org/zap"
)

// ParticipantView is a participant's public profile, plus the private
// account fields when the caller is the participant themselves.
type ParticipantView struct {
	Name      string `json:"name"`
	PublicKey string `json:"publicKey"`
	Balance   int64  `json:"balance"`

	// Private fields, present only for an authenticated self-lookup.
	Username     string `json:"username,omitempty"`
	Email        string `json:"email,omitempty"`
	EncryptedKey string `json:"encryptedKey,omitempty"`
}

// FetchParticipant returns a participant by public key. When authed is
// true the caller has proven they hold publicKey, and the stored account
// fields are merged into the view.
func (p *Projector) FetchParticipant(ctx context.Context, publicKey string, authed bool) (*ParticipantView, error) {
	var view *ParticipantView
	err := p.resolver.WithCurrentBlock(ctx, func(ctx context.Context, block uint64) error {
		participants, err := scanCurrent[model.Participant](ctx, p, storage.Participants, block, storage.Filter{
			"publicKey": publicKey,
		})
		if err != nil {
			return err
		}
		if len(participants) == 0 {
			return ErrNotFound
		}

		pa := participants[0]
		view = &ParticipantView{
			Name:      pa.Name,
			PublicKey: pa.PublicKey,
			Balance:   pa.Balance,
		}

		if !authed {
			return nil
		}
		user, err := p.adapter.GetUser(ctx, publicKey)
		if errors.Is(err, storage.ErrNotFound) {
			p.logger.Warn("participant has no account record",
				zap.String("public_key", publicKey),
			)
			return nil
		}
		if err != nil {
			return err
		}
		view.Username = user.Username
		view.Email = user.Email
		view.EncryptedKey = user.EncryptedKey
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// ListParticipants returns the public profile of every participant
// current at the horizon.
func (p *Projector) ListParticipants(ctx context.Context) ([]ParticipantView, error) {
	views := []ParticipantView{}
	err := p.resolver.WithCurrentBlock(ctx, func(ctx context.Context, block uint64) error {
		participants, err := scanCurrent[model.Participant](ctx, p, storage.Participants, block, nil)
		if err != nil {
			return err
		}
		for _, pa := range participants {
			views = append(views, ParticipantView{
				Name:      pa.Name,
				PublicKey: pa.PublicKey,
				Balance:   pa.Balance,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}
