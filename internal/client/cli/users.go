package cli

import (
	"context"
	"fmt"
)

func (c *Cli) runUsers(ctx context.Context) error {
	c.io.Println("=== Users ===")
	c.io.Println()

	users, err := c.authService.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	if len(users) == 0 {
		c.io.Println("No users found.")
		return nil
	}

	for _, u := range users {
		c.io.Printf("%-36s  %-20s  %-8s  %s %s <%s>\n",
			u.ID, u.Username, u.Role, u.FirstName, u.LastName, u.Email)
	}

	c.io.Println()
	c.io.Printf("Total: %d user(s)\n", len(users))

	return nil
}
