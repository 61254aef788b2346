// Package cli реализует интерактивные команды клиента
package cli

import (
	"github.com/iudanet/authgate/internal/client/auth"
	"github.com/iudanet/authgate/internal/client/iocli"
	"github.com/iudanet/authgate/internal/client/userstore"
)

type Cli struct {
	io          iocli.IO
	authService *auth.Service
	users       *userstore.Store
}

func New(io iocli.IO, authService *auth.Service, users *userstore.Store) *Cli {
	return &Cli{
		io:          io,
		authService: authService,
		users:       users,
	}
}

func PrintUsage() {
	out := iocli.NewStdio()
	out.Println("AuthGate Client")
	out.Println()
	out.Println("Usage:")
	out.Println("  authgate [OPTIONS] COMMAND")
	out.Println()
	out.Println("Options:")
	out.Println("  --version       Show version information")
	out.Println("  --server URL    Server URL (default: http://localhost:8080)")
	out.Println("  --db PATH       Path to local database (default: authgate-client.db)")
	out.Println()
	out.Println("Commands:")
	out.Println("  register        Register new user")
	out.Println("  login           Login to server")
	out.Println("  logout          Logout from server")
	out.Println("  status          Show authentication status")
	out.Println("  users           List users (admin only)")
	out.Println("  reset-request   Request password reset email")
	out.Println("  reset-password  Set new password using emailed code")
	out.Println()
	out.Println("Examples:")
	out.Println("  authgate register")
	out.Println("  authgate login")
	out.Println("  authgate --server https://example.com status")
}
