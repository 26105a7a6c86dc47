package main

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"drinkd/client"
)

var (
	serverURL    string
	redirectURI  string
	clientID     string
	authorizeURL string
	timeout      time.Duration
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	root := &cobra.Command{
		Use:           "drinkctl",
		Short:         "Client for the drinkd session service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:4000", "drinkd server base URL")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "request timeout")

	login := &cobra.Command{
		Use:   "login",
		Short: "Sign in through the OAuth provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, logger)
		},
	}
	login.Flags().StringVar(&redirectURI, "redirect", "http://localhost:3000/auth/kakao/callback", "registered redirect URI")
	login.Flags().StringVar(&clientID, "client-id", "", "OAuth client id")
	login.Flags().StringVar(&authorizeURL, "authorize-url", "https://kauth.kakao.com/oauth/authorize", "provider authorize endpoint")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the current session state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, logger)
		},
	}

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Delete the stored session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(logger)
		},
	}

	root.AddCommand(login, status, logout)

	if err := root.Execute(); err != nil {
		logger.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func buildAuthorizeURL(state string) string {
	params := url.Values{}
	params.Set("client_id", clientID)
	params.Set("redirect_uri", redirectURI)
	params.Set("response_type", "code")
	if state != "" {
		params.Set("state", state)
	}
	return authorizeURL + "?" + params.Encode()
}

func runLogin(cmd *cobra.Command, logger zerolog.Logger) error {
	store, err := client.NewFileTokenStore()
	if err != nil {
		return err
	}

	api := client.NewAPI(serverURL, timeout, logger)
	bridge, err := client.NewBridge(api, store, buildAuthorizeURL, redirectURI, logger)
	if err != nil {
		return err
	}

	fmt.Println("Open this URL in your browser to sign in:")
	fmt.Println("  " + bridge.Start())

	if err := bridge.ListenAndAuthorize(cmd.Context()); err != nil {
		return fmt.Errorf("sign-in failed: %w", err)
	}

	result := client.NewBootstrapper(store, api, timeout, logger).Bootstrap(cmd.Context())
	fmt.Printf("Signed in as %s (%s)\n", result.Name, result.State)
	if result.State == client.AuthenticatedIncompleteProfile {
		fmt.Println("Profile incomplete: finish onboarding in the app.")
	}
	return nil
}

func runStatus(cmd *cobra.Command, logger zerolog.Logger) error {
	store, err := client.NewFileTokenStore()
	if err != nil {
		return err
	}

	api := client.NewAPI(serverURL, timeout, logger)
	result := client.NewBootstrapper(store, api, timeout, logger).Bootstrap(cmd.Context())

	switch result.State {
	case client.Anonymous:
		fmt.Println("Not signed in.")
	default:
		fmt.Printf("Signed in as %s (%s): %s\n", result.Name, result.UID, result.State)
	}
	return nil
}

func runLogout(logger zerolog.Logger) error {
	store, err := client.NewFileTokenStore()
	if err != nil {
		return err
	}

	nav := client.NewNavigator(client.BootstrapResult{State: client.AuthenticatedComplete}, store, logger)
	if err := nav.Logout(); err != nil {
		return err
	}

	fmt.Println("Signed out.")
	return nil
}
