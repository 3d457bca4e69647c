package main

import (
	"errors"
	"fmt"

	"github.com/geocoder89/authhub/internal/client/api"
	"github.com/geocoder89/authhub/internal/client/guard"
	"github.com/spf13/cobra"
)

var errNotSignedIn = errors.New("not signed in")

func newSignupCmd(root *rootConfig) *cobra.Command {
	var data api.SignupData

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if data.Password == "" {
				pw, err := root.readPassword(cmd, "Password: ")
				if err != nil {
					return err
				}
				data.Password = pw
			}

			if err := api.ValidateSignup(data); err != nil {
				return displayErr(err)
			}

			s, err := root.store()
			if err != nil {
				return err
			}

			p, err := s.Signup(cmd.Context(), data)
			if err != nil {
				return displayErr(err)
			}

			cmd.Printf("Account created for %s (%s). Run `authctl signin` to continue.\n", p.Name, p.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&data.Email, "email", "", "email address")
	cmd.Flags().StringVar(&data.Name, "name", "", "display name")
	cmd.Flags().StringVar(&data.Password, "password", "", "password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newSigninCmd(root *rootConfig) *cobra.Command {
	var creds api.Credentials

	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in and keep the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if creds.Password == "" {
				pw, err := root.readPassword(cmd, "Password: ")
				if err != nil {
					return err
				}
				creds.Password = pw
			}

			if err := api.ValidateSignin(creds); err != nil {
				return displayErr(err)
			}

			s, err := root.store()
			if err != nil {
				return err
			}

			if err := s.Signin(cmd.Context(), creds); err != nil {
				return displayErr(err)
			}

			cmd.Printf("Signed in as %s\n", s.State().User.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&creds.Email, "email", "", "email address")
	cmd.Flags().StringVar(&creds.Password, "password", "", "password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newMeCmd(root *rootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the signed-in profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := root.store()
			if err != nil {
				return err
			}

			s.Mount(cmd.Context())

			st := s.State()
			if !st.Authenticated() {
				return errNotSignedIn
			}

			cmd.Printf("id:    %s\nemail: %s\nname:  %s\n", st.User.ID, st.User.Email, st.User.Name)
			return nil
		},
	}
}

// newOpenCmd opens the protected app view through the route guard.
func newOpenCmd(root *rootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "open",
		Short: "Open the protected app view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := root.store()
			if err != nil {
				return err
			}

			var last guard.Decision
			stop := guard.Watch(s, func(d guard.Decision) {
				if d.Outcome == guard.Loading && last.Outcome != guard.Loading {
					cmd.Println("Loading...")
				}
				last = d
			})
			defer stop()

			s.Mount(cmd.Context())

			d := guard.Evaluate(s.State())
			switch d.Outcome {
			case guard.Render:
				cmd.Printf("Welcome, %s!\n", s.State().User.Name)
				return nil
			case guard.Redirect:
				cmd.Printf("Redirecting to %s: run `authctl signin`.\n", d.Target)
				return errNotSignedIn
			default:
				return errors.New("session did not settle")
			}
		},
	}
}

func newLogoutCmd(root *rootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := root.store()
			if err != nil {
				return err
			}
			if err := s.Logout(); err != nil {
				return err
			}
			cmd.Println("Signed out.")
			return nil
		},
	}
}

// displayErr reduces API errors to the single line a user should see.
func displayErr(err error) error {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return errors.New(apiErr.Display())
	}
	return fmt.Errorf("request failed: %w", err)
}
