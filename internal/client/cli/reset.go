package cli

import (
	"context"
	"fmt"
)

func (c *Cli) runResetRequest(ctx context.Context) error {
	c.io.Println("=== Password Reset Request ===")
	c.io.Println()

	email, err := c.io.ReadInput("Email: ")
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}

	if err := c.authService.RequestReset(ctx, email); err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("✓ If the email is registered, a reset code has been sent.")
	c.io.Println("Run 'authgate reset-password' once you have the code.")

	return nil
}

func (c *Cli) runResetPassword(ctx context.Context) error {
	c.io.Println("=== Password Reset ===")
	c.io.Println()

	email, err := c.io.ReadInput("Email: ")
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}

	code, err := c.io.ReadInput("Reset code: ")
	if err != nil {
		return fmt.Errorf("failed to read reset code: %w", err)
	}

	newPassword, err := c.io.ReadPassword("New password (min 6 chars): ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	confirmPassword, err := c.io.ReadPassword("Confirm new password: ")
	if err != nil {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}

	if err := c.authService.ResetPassword(ctx, email, newPassword, confirmPassword, code); err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("✓ Password updated!")
	c.io.Println("Run 'authgate login' with your new password.")

	return nil
}
