package localstore

import (
	"context"
	"encoding/json"
	"errors"
)

const (
	sessionCollection = "session"
	tokenID           = "token"
)

type tokenDoc struct {
	Token string `json:"token"`
}

// TokenPersister keeps the session bearer token in a Store so it survives
// restarts. It satisfies session.Persister.
type TokenPersister struct {
	Store Store
}

func (p TokenPersister) LoadToken(ctx context.Context) (string, error) {
	raw, err := p.Store.Get(ctx, sessionCollection, tokenID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	var doc tokenDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", err
	}
	return doc.Token, nil
}

func (p TokenPersister) SaveToken(ctx context.Context, token string) error {
	raw, err := json.Marshal(tokenDoc{Token: token})
	if err != nil {
		return err
	}
	return p.Store.Put(ctx, sessionCollection, tokenID, raw)
}

func (p TokenPersister) DeleteToken(ctx context.Context) error {
	return p.Store.Delete(ctx, sessionCollection, tokenID)
}
