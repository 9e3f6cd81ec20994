package firebase

import (
	"context"

	"firebase.google.com/go/v4/auth"
)

// Identity is what a verified ID token tells us about the caller.
type Identity struct {
	UID   string
	Email string
	Name  string
}

type FirebaseAuthClient struct {
	client *auth.Client
}

func NewFirebaseAuthClient(client *auth.Client) *FirebaseAuthClient {
	return &FirebaseAuthClient{
		client: client,
	}
}

func (f *FirebaseAuthClient) VerifyToken(ctx context.Context, token string) (*Identity, error) {
	result, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, err
	}

	identity := &Identity{UID: result.UID}
	if email, ok := result.Claims["email"].(string); ok {
		identity.Email = email
	}
	if name, ok := result.Claims["name"].(string); ok {
		identity.Name = name
	}
	return identity, nil
}
