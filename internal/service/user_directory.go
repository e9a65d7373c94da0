package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/BloggingApp/journal-service/internal/dto"
	"github.com/BloggingApp/journal-service/internal/model"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const meEndpoint = "/users/@me"

// userDirectory fetches profiles from the user service on behalf of a token
// holder. The base URL is read per call so config reloads take effect.
type userDirectory struct {
	logger *zap.Logger
	http   *http.Client
}

func newUserDirectory(logger *zap.Logger) *userDirectory {
	return &userDirectory{
		logger: logger,
		http:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Me returns the profile the access token belongs to. A rejected token maps
// to ErrUserNotFound, transport and decode failures to ErrInternal.
func (d *userDirectory) Me(ctx context.Context, accessToken string) (*model.CachedUser, error) {
	url := strings.TrimSuffix(viper.GetString("user-service.api"), "/") + meEndpoint

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		d.logger.Sugar().Errorf("failed to build user-service request(%s): %s", meEndpoint, err.Error())
		return nil, ErrInternal
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := d.http.Do(req)
	if err != nil {
		d.logger.Sugar().Errorf("user-service request(%s) failed: %s", meEndpoint, err.Error())
		return nil, ErrInternal
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var failure dto.BasicResponse
		_ = json.NewDecoder(resp.Body).Decode(&failure)
		d.logger.Sugar().Warnf("user-service endpoint(%s) answered %d: %s", meEndpoint, resp.StatusCode, failure.Details)
		return nil, ErrUserNotFound
	}

	var user model.CachedUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		d.logger.Sugar().Errorf("failed to decode user-service profile: %s", err.Error())
		return nil, ErrInternal
	}
	if err := checkProfile(&user); err != nil {
		d.logger.Sugar().Errorf("user-service returned an unusable profile: %s", err.Error())
		return nil, ErrInternal
	}

	return &user, nil
}

func checkProfile(user *model.CachedUser) error {
	if user.ID == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	if user.Username == "" {
		return fmt.Errorf("user(%s) has no username", user.ID.String())
	}
	return nil
}
