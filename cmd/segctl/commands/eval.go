package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/segmentd/internal/cli"
	"github.com/TimurManjosov/segmentd/internal/client"
	"github.com/TimurManjosov/segmentd/internal/evaluation"
	"github.com/TimurManjosov/segmentd/internal/rulecache"
)

var (
	evalUser   string
	evalRemote bool
)

var evalCmd = &cobra.Command{
	Use:   "eval <condition>",
	Short: "Evaluate a rule against a user document",
	Long: `Evaluate a rule condition against a user document given as JSON.
By default the evaluation runs locally; with --remote the request is sent
to the configured segmentd server instead.

A user matches only when the rule is definitely true. Missing attributes
and hard errors (type mismatches, division by zero) never match.

Examples:
  segctl eval "age > 21" --user '{"id":"u1","attributes":{"age":30}}'
  segctl eval "country = 'DE'" --user @user.json
  segctl eval "score / visits > 2" --user '{"id":"u2","attributes":{"score":10,"visits":0}}'
  segctl eval "age > 21" --user '{"id":"u1","attributes":{"age":30}}' --remote`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := args[0]

		if evalUser == "" {
			return fmt.Errorf("--user is required")
		}

		userJSON := []byte(evalUser)
		if strings.HasPrefix(evalUser, "@") {
			data, err := os.ReadFile(strings.TrimPrefix(evalUser, "@"))
			if err != nil {
				return fmt.Errorf("failed to read user file: %w", err)
			}
			userJSON = data
		}

		var user client.EvaluateUser
		if err := json.Unmarshal(userJSON, &user); err != nil {
			return fmt.Errorf("invalid user JSON: %w", err)
		}
		if user.ID == "" {
			return fmt.Errorf("user JSON must carry an 'id' field")
		}

		segments := map[string]string{"rule": text}

		var results []evaluation.Result
		if evalRemote {
			envCfg, _, err := cli.GetEnvConfig(env, baseURL, apiKey)
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			c := client.NewClient(envCfg.BaseURL, envCfg.APIKey)
			resp, err := c.Evaluate(context.Background(), client.EvaluateRequest{
				User:     user,
				Segments: segments,
			})
			if err != nil {
				return fmt.Errorf("evaluation failed: %w", err)
			}
			results = resp.Results
		} else {
			ev := evaluation.New(rulecache.New(), nil)
			var err error
			results, err = ev.EvaluateAdhoc(segments, evaluation.Context{
				UserID:     user.ID,
				Attributes: user.Attributes,
			})
			if err != nil {
				return fmt.Errorf("evaluation failed: %w", err)
			}
		}

		if !quiet {
			return cli.PrintResults(results, cli.OutputFormat(format))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().StringVar(&evalUser, "user", "", "User document as JSON")
	evalCmd.Flags().BoolVar(&evalRemote, "remote", false, "Evaluate on the server instead of locally")
}
