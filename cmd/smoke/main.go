// Command smoke exercises the read-only endpoints of a running roster
// server: health, candidate lists, clusters, a dismissal lookup and a
// dependents lookup for the top organization pair.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/agenthands/roster/internal/logging"
)

func main() {
	baseURL := os.Getenv("ROSTER_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	log := logging.Default()
	client := &http.Client{Timeout: 30 * time.Second}

	if err := waitHealthy(client, baseURL, 10*time.Second); err != nil {
		log.Fatal().Err(err).Str("url", baseURL).Msg("FAILED: server not healthy")
	}
	log.Info().Msg("PASSED: health")

	var orgs struct {
		Count      int `json:"count"`
		Candidates []struct {
			Key   string `json:"key"`
			Score int    `json:"score"`
			A     struct {
				ID string `json:"id"`
			} `json:"a"`
			B struct {
				ID string `json:"id"`
			} `json:"b"`
		} `json:"candidates"`
	}
	if err := getJSON(client, baseURL+"/candidates/organizations?refresh=true", &orgs); err != nil {
		log.Fatal().Err(err).Msg("FAILED: organization candidates")
	}
	log.Info().Int("count", orgs.Count).Msg("PASSED: organization candidates")

	var contacts struct {
		Count int `json:"count"`
	}
	if err := getJSON(client, baseURL+"/candidates/contacts?refresh=true", &contacts); err != nil {
		log.Fatal().Err(err).Msg("FAILED: contact candidates")
	}
	log.Info().Int("count", contacts.Count).Msg("PASSED: contact candidates")

	var clusters struct {
		Clusters []json.RawMessage `json:"clusters"`
	}
	if err := getJSON(client, baseURL+"/clusters/organizations", &clusters); err != nil {
		log.Fatal().Err(err).Msg("FAILED: organization clusters")
	}
	log.Info().Int("count", len(clusters.Clusters)).Msg("PASSED: organization clusters")

	if len(orgs.Candidates) == 0 {
		log.Info().Msg("No organization candidates; skipping pair checks")
		return
	}
	top := orgs.Candidates[0]

	var check struct {
		Dismissed bool `json:"dismissed"`
	}
	q := url.Values{"a": {top.A.ID}, "b": {top.B.ID}}
	if err := getJSON(client, baseURL+"/dismissals/check?"+q.Encode(), &check); err != nil {
		log.Fatal().Err(err).Msg("FAILED: dismissal check")
	}
	if check.Dismissed {
		log.Fatal().Str("key", top.Key).Msg("FAILED: listed candidate is marked dismissed")
	}
	log.Info().Str("key", top.Key).Int("score", top.Score).Msg("PASSED: dismissal check")

	var deps struct {
		Dependents []json.RawMessage `json:"dependents"`
	}
	if err := getJSON(client, baseURL+"/dependents/organizations/"+url.PathEscape(top.A.ID), &deps); err != nil {
		log.Fatal().Err(err).Msg("FAILED: dependents")
	}
	log.Info().Str("organization", top.A.ID).Int("count", len(deps.Dependents)).Msg("PASSED: dependents")
}

func waitHealthy(client *http.Client, baseURL string, within time.Duration) error {
	deadline := time.Now().Add(within)
	for {
		resp, err := client.Get(baseURL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		if time.Now().After(deadline) {
			if err == nil {
				err = fmt.Errorf("status %d", resp.StatusCode)
			}
			return err
		}
		time.Sleep(500 * time.Millisecond)
	}
}

func getJSON(client *http.Client, target string, into any) error {
	resp, err := client.Get(target)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d: %s", target, resp.StatusCode, body)
	}
	return json.Unmarshal(body, into)
}
