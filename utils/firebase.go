// File: servease/utils/firebase.go
package utils

import (
	"context"
	"log"

	"servease/config"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

var FCMClient *messaging.Client

// FirebaseInit initializes the Firebase App and Messaging client. When no
// service account key is configured, pushes are disabled and FCMClient
// stays nil; callers are expected to treat that as a degraded mode, not
// an error.
func FirebaseInit() {
	if config.AppConfig.FirebaseServiceAccountKeyPath == "" {
		log.Println("firebase: no service account key configured, push delivery disabled")
		return
	}

	ctx := context.Background()
	opt := option.WithCredentialsFile(config.AppConfig.FirebaseServiceAccountKeyPath)

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		log.Fatalf("firebase: error initializing app: %v", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		log.Fatalf("firebase: error getting Messaging client: %v", err)
	}

	FCMClient = client
}
