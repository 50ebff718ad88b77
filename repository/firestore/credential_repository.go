package firestore

import (
	"context"
	"strings"

	"cloud.google.com/go/firestore"

	"alightgram/model"
	"alightgram/repository"
)

type credentialRepository struct {
	client *firestore.Client
}

func NewCredentialRepository(client *firestore.Client) repository.CredentialRepository {
	return &credentialRepository{client: client}
}

// credentialKey is the id of the document that reserves a sign-in key, so two
// accounts cannot claim the same email or provider subject.
func credentialKey(cred *models.Credential) string {
	if cred.Provider == models.ProviderPassword {
		return cred.Provider + ":" + strings.ToLower(cred.Email)
	}
	return cred.Provider + ":" + cred.ProviderSubject
}

func (r *credentialRepository) Create(ctx context.Context, cred *models.Credential) error {
	credRef := r.client.Collection(credentialsCollection).Doc(cred.UID)
	keyRef := r.client.Collection(credentialKeysCollection).Doc(credentialKey(cred))

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := tx.Create(keyRef, map[string]interface{}{"uid": cred.UID}); err != nil {
			return err
		}
		return tx.Create(credRef, cred)
	})
	return translate(err, "create credential")
}

func (r *credentialRepository) GetByEmail(ctx context.Context, email string) (*models.Credential, error) {
	query := r.client.Collection(credentialsCollection).
		Where("provider", "==", models.ProviderPassword).
		Where("email", "==", email)
	return r.first(ctx, query)
}

func (r *credentialRepository) GetByProviderSubject(ctx context.Context, provider, subject string) (*models.Credential, error) {
	query := r.client.Collection(credentialsCollection).
		Where("provider", "==", provider).
		Where("providerSubject", "==", subject)
	return r.first(ctx, query)
}

func (r *credentialRepository) first(ctx context.Context, query firestore.Query) (*models.Credential, error) {
	snaps, err := query.Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return nil, translate(err, "get credential")
	}
	if len(snaps) == 0 {
		return nil, repository.ErrNotFound
	}

	var cred models.Credential
	if err := snaps[0].DataTo(&cred); err != nil {
		return nil, translate(err, "decode credential")
	}
	return &cred, nil
}
