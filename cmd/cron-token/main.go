package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"paybridge.backend/internal/config"
	"paybridge.backend/pkg/jwt"
)

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	stdout     io.Writer = os.Stdout
)

// issueToken signs a scheduler token for the cron trigger endpoint.
func issueToken(secret string, expiry time.Duration, scope string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("JWT_SECRET is empty")
	}
	return jwt.NewJWTService(secret, expiry).GenerateServiceToken(jwt.SubjectScheduler, scope)
}

func run(args []string) error {
	fs := flag.NewFlagSet("cron-token", flag.ContinueOnError)
	scope := fs.String("scope", "billing", "token scope")
	expiry := fs.Duration("expiry", 0, "token lifetime (defaults to CRON_TOKEN_EXPIRY)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	_ = loadDotenv()
	cfg := loadCfg()
	if *expiry <= 0 {
		*expiry = cfg.JWT.TokenExpiry
	}

	token, err := issueToken(cfg.JWT.Secret, *expiry, *scope)
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, "Generated scheduler token")
	fmt.Fprintf(stdout, "CRON_TOKEN=%s\n", token)
	fmt.Fprintf(stdout, "EXPIRES_AT=%s\n", time.Now().Add(*expiry).UTC().Format(time.RFC3339))
	return nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("failed to issue scheduler token: %v", err)
	}
}
