//go:build ignore

// Smoke test against a running API server:
//
//	go run scripts/smoke_api.go [base-url]
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
)

var baseURL = "http://localhost:3000/api"

func prettyPrint(body []byte) {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		fmt.Println(string(body))
		return
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func sendRequest(method, path, token string, body interface{}) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, nil, err
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+path, bodyReader)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 2 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

// step runs one request, prints the outcome and returns the data field.
func step(title, method, path, token string, body interface{}) map[string]interface{} {
	color.Yellow("\n%s", title)
	resp, raw, err := sendRequest(method, path, token, body)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	if resp.StatusCode >= 400 {
		color.Red("Status: %s", resp.Status)
	} else {
		color.Green("Status: %s", resp.Status)
	}
	prettyPrint(raw)

	var env struct {
		Data map[string]interface{} `json:"data"`
	}
	_ = json.Unmarshal(raw, &env)
	return env.Data
}

func main() {
	if len(os.Args) > 1 {
		baseURL = os.Args[1]
	}
	color.Cyan("Design companion API smoke test against %s", baseURL)

	status := step("1. Setup status", "GET", "/setup/v1/status", "", nil)
	if has, _ := status["hasApiKey"].(bool); !has {
		color.Red("Server has no GEMINI_API_KEY; consultation steps will answer 412")
	}

	login := step("2. Select ARCHITECT role", "POST", "/auth/v1/role", "", map[string]string{"role": "ARCHITECT"})
	token, _ := login["token"].(string)
	if token == "" {
		color.Red("No token issued")
		os.Exit(1)
	}

	step("3. Create session", "POST", "/consultation/v1/sessions", token, map[string]string{})
	step("4. Ask a question", "POST", "/consultation/v1/messages", token, map[string]string{
		"content": "How wide should a hospital corridor be for two passing beds?",
	})
	step("5. List sessions", "GET", "/consultation/v1/sessions", token, nil)
	step("6. Library state", "GET", "/library/v1", token, nil)
	step("7. Error slots", "GET", "/consultation/v1/errors", token, nil)

	admin := step("8. Select ADMIN role", "POST", "/auth/v1/role", "", map[string]string{"role": "ADMIN"})
	if adminToken, _ := admin["token"].(string); adminToken != "" {
		step("9. Recent logs", "GET", "/admin/v1/logs?limit=5", adminToken, nil)
	}

	color.Cyan("\nDone.")
}
