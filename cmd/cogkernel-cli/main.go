// Command cogkernel-cli is an admin client for a running cogkerneld
// instance, similar in spirit to redis-cli: a cobra command tree for
// scripting, falling back to an interactive shell when invoked bare.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// cli holds the shared state for all subcommands.
type cli struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func main() {
	var addr string
	var apiKey string
	var interactive bool

	c := &cli{httpClient: &http.Client{Timeout: 30 * time.Second}}

	rootCmd := &cobra.Command{
		Use:   "cogkernel-cli",
		Short: "cogkernel-cli - admin client for cogkerneld",
		Long:  "A command-line client for driving a cogkerneld instance's ingest, status, sleep, and holographic file store operations.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = os.Getenv("COGKERNEL_CLI_ADDR")
			}
			if addr == "" {
				addr = "http://localhost:7070"
			}
			if apiKey == "" {
				apiKey = os.Getenv("COGKERNEL_CLI_API_KEY")
			}
			c.baseURL = strings.TrimSuffix(addr, "/")
			c.apiKey = apiKey
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			runREPL(c)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&addr, "addr", "", "cogkerneld base URL (overrides COGKERNEL_CLI_ADDR)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Shared API key (overrides COGKERNEL_CLI_API_KEY)")
	rootCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Start interactive shell (default when no subcommand given)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "ping",
		Short: "Check daemon health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.getJSON("/health")
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show kernel status: energy, cache, sleep cycles, substrate",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.getJSON("/v1/status")
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "sleep",
		Short: "Trigger a manual sleep cycle",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.postJSON("/v1/sleep", "")
		},
	})

	ingestCmd := &cobra.Command{
		Use:   "ingest [payload]",
		Short: "Ingest one data stream through the reflex/deep-think loop",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			datasetType, _ := cmd.Flags().GetString("type")
			datasetID, _ := cmd.Flags().GetString("id")
			dim, _ := cmd.Flags().GetInt("dim")
			body, err := json.Marshal(ingestRequest{DatasetType: datasetType, DatasetID: datasetID, Payload: args[0], DimHint: dim})
			if err != nil {
				return err
			}
			return c.postJSON("/v1/ingest", string(body))
		},
	}
	ingestCmd.Flags().String("type", "log", "Dataset type tag")
	ingestCmd.Flags().String("id", "", "Dataset id (auto-generated when empty)")
	ingestCmd.Flags().Int("dim", 1024, "Vector dimension hint")
	rootCmd.AddCommand(ingestCmd)

	hfsCmd := &cobra.Command{
		Use:   "hfs",
		Short: "Holographic file store operations",
	}

	hfsWriteCmd := &cobra.Command{
		Use:   "write [intent] [content]",
		Short: "Write an intent/content pair into the holographic file store",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dim, _ := cmd.Flags().GetInt("dim")
			body, err := json.Marshal(hfsWriteRequest{Intent: args[0], Content: args[1], Dim: dim})
			if err != nil {
				return err
			}
			return c.postJSON("/v1/hfs/write", string(body))
		},
	}
	hfsWriteCmd.Flags().Int("dim", 1024, "Vector dimension")
	hfsCmd.AddCommand(hfsWriteCmd)

	hfsSearchCmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the holographic file store by blended intent/payload similarity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dim, _ := cmd.Flags().GetInt("dim")
			limit, _ := cmd.Flags().GetInt("limit")
			return c.getJSON(fmt.Sprintf("/v1/hfs/search?q=%s&dim=%d&limit=%d", urlEscape(args[0]), dim, limit))
		},
	}
	hfsSearchCmd.Flags().Int("dim", 1024, "Vector dimension")
	hfsSearchCmd.Flags().Int("limit", 10, "Max results")
	hfsCmd.AddCommand(hfsSearchCmd)

	rootCmd.AddCommand(hfsCmd)

	rootCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if interactive {
			runREPL(c)
			os.Exit(0)
		}
		return nil
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type ingestRequest struct {
	DatasetType string `json:"dataset_type"`
	DatasetID   string `json:"dataset_id"`
	Payload     string `json:"payload"`
	DimHint     int    `json:"dim_hint"`
}

type hfsWriteRequest struct {
	Intent  string `json:"intent"`
	Content string `json:"content"`
	Dim     int    `json:"dim"`
}

func urlEscape(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), " ", "+")
}

// ── HTTP helpers ────────────────────────────────────────────

func (c *cli) doRequest(method, path, body string) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 {
		fmt.Fprintf(os.Stderr, "Error %d: %s\n", resp.StatusCode, string(data))
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	var prettyJSON map[string]any
	if err := json.Unmarshal(data, &prettyJSON); err == nil {
		out, _ := json.MarshalIndent(prettyJSON, "", "  ")
		fmt.Println(string(out))
		return nil
	}
	var arr []any
	if err := json.Unmarshal(data, &arr); err == nil {
		out, _ := json.MarshalIndent(arr, "", "  ")
		fmt.Println(string(out))
		return nil
	}
	fmt.Println(string(data))
	return nil
}

func (c *cli) getJSON(path string) error        { return c.doRequest("GET", path, "") }
func (c *cli) postJSON(path, body string) error { return c.doRequest("POST", path, body) }

// silentGet performs a request without printing output — used for a
// reachability check at REPL startup.
func (c *cli) silentGet(path string) error {
	req, err := http.NewRequest("GET", c.baseURL+path, nil)
	if err != nil {
		return err
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return nil
}
