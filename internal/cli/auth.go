package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/SigNoz/storefront-go-client/internal/app"
	"github.com/SigNoz/storefront-go-client/internal/httpclient"
	"github.com/SigNoz/storefront-go-client/internal/models"
	"github.com/spf13/cobra"
)

func (r *runner) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and persist the session tokens",
		RunE: r.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			if password == "" {
				password = os.Getenv("STOREFRONT_PASSWORD")
			}
			if err := a.Session.Login(cmd.Context(), email, password); err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "Logged in as %s\n", email)
			return nil
		}),
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (default $STOREFRONT_PASSWORD)")
	cmd.MarkFlagRequired("email")
	return cmd
}

func (r *runner) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session tokens",
		RunE: r.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			if err := a.Session.Logout(cmd.Context()); err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "Logged out\n")
			return nil
		}),
	}
}

func (r *runner) registerCmd() *cobra.Command {
	var req models.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account (does not log in)",
		RunE: r.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			user, err := a.Session.Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "Account %s created, run `storefront login` to sign in\n", user.Email)
			return nil
		}),
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password")
	cmd.Flags().StringVar(&req.ConfirmPassword, "confirm-password", "", "Password again")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&req.PhoneNumber, "phone", "", "Phone number")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func (r *runner) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in profile",
		RunE: r.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			user, err := a.Session.FetchProfile(cmd.Context())
			if err != nil {
				return err
			}
			if r.jsonOut {
				return r.printJSON(cmd.OutOrStdout(), user)
			}
			printUser(cmd.OutOrStdout(), user)
			if exp, ok := a.Session.ExpiresAt(cmd.Context()); ok {
				printf(cmd.OutOrStdout(), "Token:   expires %s\n", exp.Local().Format(time.RFC1123))
			}
			return nil
		}),
	}
}

func (r *runner) profileCmd() *cobra.Command {
	profile := &cobra.Command{
		Use:   "profile",
		Short: "Manage the account profile",
	}

	var firstName, lastName, phone, picture string
	update := &cobra.Command{
		Use:   "update",
		Short: "Update profile fields and picture",
		RunE: r.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			var fields models.ProfileUpdate
			if cmd.Flags().Changed("first-name") {
				fields.FirstName = &firstName
			}
			if cmd.Flags().Changed("last-name") {
				fields.LastName = &lastName
			}
			if cmd.Flags().Changed("phone") {
				fields.PhoneNumber = &phone
			}

			var file *httpclient.FilePart
			if picture != "" {
				f, err := os.Open(picture)
				if err != nil {
					return fmt.Errorf("failed to open picture: %w", err)
				}
				defer f.Close()
				file = &httpclient.FilePart{Field: "profile_picture", Filename: filepath.Base(picture), Content: f}
			}

			user, err := a.Session.UpdateProfile(cmd.Context(), fields, file)
			if err != nil {
				return err
			}
			if r.jsonOut {
				return r.printJSON(cmd.OutOrStdout(), user)
			}
			printUser(cmd.OutOrStdout(), user)
			return nil
		}),
	}
	update.Flags().StringVar(&firstName, "first-name", "", "First name")
	update.Flags().StringVar(&lastName, "last-name", "", "Last name")
	update.Flags().StringVar(&phone, "phone", "", "Phone number")
	update.Flags().StringVar(&picture, "picture", "", "Path to a profile picture")

	profile.AddCommand(update)
	return profile
}
