package main

import (
	"fmt"
	"log"
	"os"

	"paybridge.backend/pkg/crypto"
)

var (
	printfFn         = fmt.Printf
	fatalfFn         = log.Fatalf
	generateSecretFn = crypto.GenerateWebhookSecret
	hashSecretFn     = crypto.HashSecret
)

// resolveSecret uses the first argument, or generates a fresh secret.
func resolveSecret(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	return generateSecretFn()
}

func main() {
	secret, err := resolveSecret(os.Args[1:])
	if err != nil {
		fatalfFn("Failed to generate webhook secret: %v", err)
		return
	}

	hash, err := hashSecretFn(secret)
	if err != nil {
		fatalfFn("Failed to hash webhook secret: %v", err)
		return
	}

	printfFn("WEBHOOK_SECRET=%s\n", secret)
	printfFn("WEBHOOK_SECRET_HASH=%s\n", hash)
}
