package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	propmatch "github.com/kailas-cloud/propmatch/pkg/sdk"
)

func queryCommand(c *cli.Context) error {
	client := propmatch.New(c.String("addr"), propmatch.WithAPIKey(c.String("api-key")))

	req := propmatch.SearchRequest{}
	if c.IsSet("max-price") {
		req.MaxPrice = propmatch.Float(c.Float64("max-price"))
	}
	if c.IsSet("min-bedrooms") {
		req.MinBedrooms = propmatch.Int(c.Int("min-bedrooms"))
	}
	if c.IsSet("threshold") {
		req.Threshold = propmatch.Float(c.Float64("threshold"))
	}
	if c.IsSet("limit") {
		req.Limit = propmatch.Int(c.Int("limit"))
	}

	// One-shot mode when the query is given as an argument.
	if c.Args().Present() {
		req.Query = strings.Join(c.Args().Slice(), " ")
		return runSearch(c.Context, client, req)
	}

	return interactiveLoop(c.Context, client, req)
}

func interactiveLoop(ctx context.Context, client *propmatch.Client, base propmatch.SearchRequest) error {
	if st, err := client.Status(ctx); err == nil {
		fmt.Fprintf(os.Stderr, "Connected to %s v%s (%s, %d listings)\n",
			st.Service, st.Version, st.Status, st.CorpusSize)
	}
	fmt.Fprintln(os.Stderr, `Type a query and press Enter ("exit" to quit).`)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(os.Stderr, "query> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		req := base
		req.Query = line
		if err := runSearch(ctx, client, req); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
	return scanner.Err()
}

func runSearch(ctx context.Context, client *propmatch.Client, req propmatch.SearchRequest) error {
	resp, err := client.Search(ctx, req)
	if err != nil {
		if errors.Is(err, propmatch.ErrEngineNotReady) {
			return errors.New("server is still ingesting the corpus, try again shortly")
		}
		return err
	}

	if len(resp.Results) == 0 {
		fmt.Printf("No listings above threshold %.2f\n", resp.Threshold)
		return nil
	}

	fmt.Printf("%d match(es), showing %d (threshold %.2f)\n\n",
		resp.TotalMatches, len(resp.Results), resp.Threshold)
	for i, r := range resp.Results {
		fmt.Printf("%2d. score %.3f (hard %.2f, semantic %.3f)\n", i+1, r.FinalScore, r.HardScore, r.SemanticScore)
		fmt.Printf("    $%.0f/mo, %d bd, %.1f ba", r.Price, r.Bedrooms, r.Bathrooms)
		if r.City != "" {
			fmt.Printf(", %s", r.City)
		}
		fmt.Println()
		fmt.Printf("    %s\n\n", snippet(r.Description, 160))
	}
	return nil
}

// snippet truncates the description to at most n runes on a word boundary.
func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	cut := string(runes[:n])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}
