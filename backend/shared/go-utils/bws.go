package utils

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	sdk "github.com/bitwarden/sdk-go"
)

const (
	bwsLoginAttempts = 3
	bwsLoginBackoff  = time.Second
)

// FetchBWSSecrets logs in to Bitwarden Secrets Manager with BWS_ACCESS_TOKEN
// and returns the requested keys from the project named projectName in the
// BWS_ORGANIZATION_ID organization. Keys absent from the project are simply
// missing from the result.
func FetchBWSSecrets(projectName string, keys ...string) (map[string]string, error) {
	token := strings.TrimSpace(os.Getenv("BWS_ACCESS_TOKEN"))
	orgID := strings.TrimSpace(os.Getenv("BWS_ORGANIZATION_ID"))
	if token == "" || orgID == "" {
		return nil, errors.New("BWS_ACCESS_TOKEN and BWS_ORGANIZATION_ID are required")
	}

	bw, err := sdk.NewBitwardenClient(nil, nil)
	if err != nil {
		return nil, fmt.Errorf("creating Bitwarden client: %w", err)
	}
	defer bw.Close()

	if err := bwsLogin(bw, token); err != nil {
		return nil, err
	}

	projects, err := bw.Projects().List(orgID)
	if err != nil {
		return nil, fmt.Errorf("listing Bitwarden projects: %w", err)
	}
	var projectID string
	for _, p := range projects.Data {
		if strings.EqualFold(p.Name, projectName) {
			projectID = p.ID
			break
		}
	}
	if projectID == "" {
		return nil, fmt.Errorf("Bitwarden project %q not found", projectName)
	}

	synced, err := bw.Secrets().Sync(orgID, nil)
	if err != nil {
		return nil, fmt.Errorf("syncing Bitwarden secrets: %w", err)
	}

	wanted := make(map[string]bool, len(keys))
	for _, k := range keys {
		wanted[k] = true
	}
	out := make(map[string]string, len(keys))
	for _, s := range synced.Secrets {
		if s.ProjectID == nil || *s.ProjectID != projectID || !wanted[s.Key] {
			continue
		}
		out[s.Key] = s.Value
	}
	Logger.Debugf("Fetched %d/%d secrets from Bitwarden project %s", len(out), len(keys), projectName)
	return out, nil
}

// bwsLogin retries only on rate limiting; sdk-go reports it as text.
func bwsLogin(bw sdk.BitwardenClientInterface, token string) error {
	backoff := bwsLoginBackoff
	var err error
	for attempt := 1; attempt <= bwsLoginAttempts; attempt++ {
		if err = bw.AccessTokenLogin(token, nil); err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "429") {
			break
		}
		Logger.WithError(err).Warnf("Bitwarden login rate limited (attempt %d/%d)", attempt, bwsLoginAttempts)
		time.Sleep(backoff)
		backoff *= 2
	}
	return fmt.Errorf("Bitwarden access-token login failed: %w", err)
}
