package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/authgate/internal/client/storage"
)

func (c *Cli) runStatus(ctx context.Context) error {
	c.io.Println("=== Authentication Status ===")
	c.io.Println()

	authData, err := c.authService.Status(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			c.io.Println("Status: Not authenticated")
			c.io.Println()
			c.io.Println("Run 'authgate login' to authenticate.")
			return nil
		}
		return fmt.Errorf("failed to get auth data: %w", err)
	}

	identity := c.users.Current()

	expiresAt := time.Unix(authData.ExpiresAt, 0)
	remaining := time.Until(expiresAt)

	c.io.Println("Status: Authenticated")
	c.io.Printf("Username: %s\n", identity.Username)
	c.io.Printf("Full name: %s\n", identity.FullName)
	c.io.Printf("Role: %s\n", identity.Role)
	c.io.Printf("Token expires: %s\n", expiresAt.Format(time.RFC3339))

	if remaining > 0 {
		c.io.Printf("Time remaining: %s\n", remaining.Round(time.Second))
	} else {
		c.io.Println("Token has expired: it will be renewed on the next request.")
	}

	return nil
}
