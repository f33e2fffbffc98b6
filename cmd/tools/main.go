package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	host       = flag.String("host", "http://localhost:8080", "custody server host")
	flatPreset = flag.String("preset", "", "preset to execute")
)

var presets = map[string]func(context.Context) error{
	"depositNative":  depositNative,
	"withdrawNative": withdrawNative,
}

func main() {
	flag.Parse()

	if *flatPreset == "" {
		panic("preset is required")
	}
	fn, ok := presets[*flatPreset]
	if !ok {
		panic(fmt.Sprintf("unknown preset: %s", *flatPreset))
	}

	ctx := context.Background()
	err := fn(ctx)
	if err != nil {
		panic(err)
	}
}

func submit(ctx context.Context, path string, payload map[string]string) (string, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, *host+path, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make http call: %w", err)
	}
	defer func() {
		_ = res.Body.Close()
	}()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if res.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("transfer not accepted: %s: %s", res.Status, body)
	}

	var accepted struct {
		ID string `json:"id"`
	}
	err = json.Unmarshal(body, &accepted)
	if err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return accepted.ID, nil
}

// await polls the transfer until the worker concludes it.
func await(ctx context.Context, id string) (map[string]any, error) {
	for attempt := 0; attempt < 30; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}

		res, err := http.DefaultClient.Get(*host + "/v1/transfers/" + id)
		if err != nil {
			return nil, fmt.Errorf("failed to make http call: %w", err)
		}
		body, err := io.ReadAll(res.Body)
		_ = res.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}
		if res.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("failed to load transfer: %s: %s", res.Status, body)
		}

		var transfer map[string]any
		err = json.Unmarshal(body, &transfer)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal response: %w", err)
		}
		if transfer["status"] != "pending" {
			return transfer, nil
		}
	}
	return nil, fmt.Errorf("transfer %s still pending after 30s", id)
}

func depositNative(ctx context.Context) error {
	id, err := submit(ctx, "/v1/deposits", map[string]string{
		"account":  "0xcB9B049B9c937acFDB87EeCfAa9e7f2c51E754f5",
		"asset":    "native",
		"quantity": "1000000000000000000",
	})
	if err != nil {
		return fmt.Errorf("failed to submit deposit: %w", err)
	}
	fmt.Printf("deposit accepted: %s\n", id)

	transfer, err := await(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to await deposit: %w", err)
	}
	fmt.Printf("%+v\n", transfer)
	return nil
}

func withdrawNative(ctx context.Context) error {
	id, err := submit(ctx, "/v1/withdrawals", map[string]string{
		"account":     "0xcB9B049B9c937acFDB87EeCfAa9e7f2c51E754f5",
		"destination": "0x000000000000000000000000000000000000dEaD",
		"asset":       "native",
		"quantity":    "10000000000000000",
	})
	if err != nil {
		return fmt.Errorf("failed to submit withdrawal: %w", err)
	}
	fmt.Printf("withdrawal accepted: %s\n", id)

	transfer, err := await(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to await withdrawal: %w", err)
	}
	fmt.Printf("%+v\n", transfer)
	return nil
}
