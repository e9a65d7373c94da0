package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BloggingApp/journal-service/internal/client"
	"github.com/BloggingApp/journal-service/internal/composer"
	"github.com/BloggingApp/journal-service/internal/config"
	"github.com/BloggingApp/journal-service/pkg/utils"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var errNotSignedIn = errors.New("not signed in: set JOURNAL_TOKEN or pass --token")

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "journalctl",
		Short:         "Read and write journal comments from the terminal",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().String("api", "http://localhost:8080", "journal-service base URL")
	root.PersistentFlags().String("token", "", "access token of the signed-in user")
	root.PersistentFlags().Duration("timeout", 10*time.Second, "request timeout")
	root.PersistentFlags().Bool("verbose", false, "log requests to stderr")

	viper.SetEnvPrefix("JOURNAL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	_ = viper.BindPFlag("api", root.PersistentFlags().Lookup("api"))
	_ = viper.BindPFlag("token", root.PersistentFlags().Lookup("token"))
	_ = viper.BindPFlag("timeout", root.PersistentFlags().Lookup("timeout"))
	_ = viper.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))

	root.AddCommand(
		newThreadCommand(),
		newCommentCommand(),
		newEditCommand(),
		newDeleteCommand(),
	)

	return root
}

func newLogger() *zap.Logger {
	if !viper.GetBool("verbose") {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func newController(postID int64) *composer.Controller {
	logger := newLogger()
	store := client.New(logger, config.ClientConfig{
		APIURL:      viper.GetString("api"),
		AccessToken: viper.GetString("token"),
		Timeout:     viper.GetDuration("timeout"),
	})
	return composer.NewController(store, postID, logger)
}

// currentActor returns the signed-in user, or nil when no token is set.
func currentActor() (*composer.Actor, error) {
	token := viper.GetString("token")
	if token == "" {
		return nil, nil
	}

	claims, err := utils.UnverifiedClaims(token)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	idString, _ := claims["id"].(string)
	id, err := uuid.Parse(idString)
	if err != nil {
		return nil, fmt.Errorf("invalid token: user id %q", idString)
	}

	return &composer.Actor{UserID: id, AccessToken: token}, nil
}
