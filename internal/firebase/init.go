package firebase

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// Options selects the Firebase project and credentials.
type Options struct {
	ProjectID          string
	ServiceAccountPath string
	StorageBucket      string
}

// Clients bundles the Firebase services the API talks to.
type Clients struct {
	App       *firebase.App
	Auth      *auth.Client
	Firestore *firestore.Client
	Bucket    *gcs.BucketHandle
}

// InitFirebase initializes and returns a Firebase app instance
func InitFirebase(ctx context.Context, opts Options) (*firebase.App, error) {
	config := &firebase.Config{
		ProjectID:     opts.ProjectID,
		StorageBucket: opts.StorageBucket,
	}

	var clientOpts []option.ClientOption
	if opts.ServiceAccountPath != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.ServiceAccountPath))
	}
	// Without a service account file the default credentials are used, which
	// is what Google Cloud deployments expect.
	app, err := firebase.NewApp(ctx, config, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}
	return app, nil
}

// NewClients opens the auth client, and the Firestore and Storage clients
// when the caller asks for them.
func NewClients(ctx context.Context, app *firebase.App, withFirestore, withStorage bool) (*Clients, error) {
	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Firebase Auth client: %w", err)
	}
	clients := &Clients{App: app, Auth: authClient}

	if withFirestore {
		fs, err := app.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get Firestore client: %w", err)
		}
		clients.Firestore = fs
	}

	if withStorage {
		st, err := app.Storage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get Storage client: %w", err)
		}
		bucket, err := st.DefaultBucket()
		if err != nil {
			return nil, fmt.Errorf("failed to open storage bucket: %w", err)
		}
		clients.Bucket = bucket
	}

	return clients, nil
}

// Close releases the Firestore connection if one was opened.
func (c *Clients) Close() error {
	if c.Firestore != nil {
		return c.Firestore.Close()
	}
	return nil
}
