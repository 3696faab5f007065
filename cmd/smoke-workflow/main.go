// smoke-workflow exercises the full happy path against a running API:
// register, login, feedback triage, conversion, sprint cycle.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"time"
)

var (
	baseURL = "http://localhost:8080"
	token   = ""
	client  = &http.Client{Timeout: 10 * time.Second}
)

func main() {
	if v := os.Getenv("FUSION_API_URL"); v != "" {
		baseURL = v
	}

	email := fmt.Sprintf("smoke-%d@example.test", rand.New(rand.NewSource(time.Now().UnixNano())).Int31())

	call(http.MethodPost, "/v1/auth/register", map[string]any{
		"tenant_code": "demo",
		"email":       email,
		"password":    "smoke-pass",
		"full_name":   "Smoke Runner",
		"role":        "admin",
	}, nil)

	var login struct {
		Tokens struct {
			AccessToken string `json:"access_token"`
		} `json:"tokens"`
	}
	call(http.MethodPost, "/v1/auth/login", map[string]any{
		"tenant_code": "demo",
		"email":       email,
		"password":    "smoke-pass",
	}, &login)
	token = login.Tokens.AccessToken

	var proj struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	call(http.MethodPost, "/v1/projects/", map[string]any{
		"name":        "Smoke Project",
		"description": "Workspace exercised end to end",
	}, &proj)
	if proj.Status != "proposal" {
		log.Fatalf("expected proposal project, got %s", proj.Status)
	}

	var fb struct {
		ID        string `json:"id"`
		ProjectID string `json:"project_id"`
		Status    string `json:"status"`
	}
	call(http.MethodPost, "/v1/feedback/", map[string]any{
		"project_id": proj.ID,
		"title":      "Login button misaligned",
		"content":    "The button drifts on narrow screens.",
		"priority":   "HIGH",
	}, &fb)
	if fb.Status != "NEW" {
		log.Fatalf("expected NEW feedback, got %s", fb.Status)
	}

	call(http.MethodPatch, "/v1/feedback/"+fb.ID, map[string]any{
		"status": "TRIAGED",
	}, &fb)
	if fb.Status != "TRIAGED" {
		log.Fatalf("expected TRIAGED feedback, got %s", fb.Status)
	}

	var task struct {
		ID        string `json:"id"`
		ProjectID string `json:"project_id"`
	}
	call(http.MethodPost, "/v1/feedback/"+fb.ID+"/convert", nil, &task)
	if task.ProjectID != fb.ProjectID {
		log.Fatalf("task project mismatch: %s != %s", task.ProjectID, fb.ProjectID)
	}

	var sp struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	now := time.Now().UTC()
	call(http.MethodPost, "/v1/sprints/", map[string]any{
		"project_id": fb.ProjectID,
		"name":       "Smoke Sprint",
		"goal":       "Verify the workflow end to end",
		"start_date": now.Format(time.RFC3339),
		"end_date":   now.Add(14 * 24 * time.Hour).Format(time.RFC3339),
	}, &sp)

	call(http.MethodPost, "/v1/sprints/"+sp.ID+"/tasks", map[string]any{
		"task_id": task.ID,
	}, nil)

	call(http.MethodPost, "/v1/sprints/"+sp.ID+"/start", nil, &sp)
	if sp.Status != "ACTIVE" {
		log.Fatalf("expected ACTIVE sprint, got %s", sp.Status)
	}
	call(http.MethodPost, "/v1/sprints/"+sp.ID+"/close", nil, &sp)
	if sp.Status != "CLOSED" {
		log.Fatalf("expected CLOSED sprint, got %s", sp.Status)
	}

	fmt.Printf("✅ workflow smoke test passed: project=%s feedback=%s task=%s sprint=%s\n", proj.ID, fb.ID, task.ID, sp.ID)
}

func call(method, path string, body any, out any) {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			log.Fatalf("marshal %s: %v", path, err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, baseURL+path, reader)
	if err != nil {
		log.Fatalf("request %s: %v", path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var payload map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		log.Fatalf("%s %s -> %d: %v", method, path, resp.StatusCode, payload)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			log.Fatalf("decode %s: %v", path, err)
		}
	}
}
