package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const baseURL = "http://localhost:8080"

// Smoke client for a locally running server. Exercises the dashboard
// and explain endpoints, which need no audio input or live session.
func main() {
	// Wait for server to start
	time.Sleep(2 * time.Second)

	fmt.Println("Starting Smoke Test...")

	// 1. List patients
	fmt.Println("1. Listing Patients...")
	patients := getJSON("/api/patients")
	fmt.Printf("   -> %s\n", truncate(patients, 200))

	// 2. Send an intake request
	fmt.Println("2. Sending Intake Request for patient 2...")
	postJSON("/api/patients/2/intake-request", nil)

	// 3. Explain an insight against the demo record
	fmt.Println("3. Explaining an Insight...")
	body := map[string]string{
		"insight": "Recurring headaches consistent with chronic migraine history",
	}
	resp := postJSON("/api/explain", body)
	fmt.Printf("   -> %s\n", truncate(resp, 200))

	// 4. Simulate a completion signal and confirm idempotency
	fmt.Println("4. Delivering Completion Signal (twice)...")
	getJSON("/api/dashboard/completions?patientId=2")
	getJSON("/api/dashboard/completions?patientId=2")

	notes := getJSON("/api/notifications")
	var parsed struct {
		Notifications []json.RawMessage `json:"notifications"`
	}
	if err := json.Unmarshal([]byte(notes), &parsed); err != nil {
		fail("failed to parse notifications: %v", err)
	}
	// One "sent" and one "completed"; re-delivery must not add a third.
	if len(parsed.Notifications) != 2 {
		fail("expected 2 notifications, got %d", len(parsed.Notifications))
	}

	fmt.Println("Smoke Test Passed.")
}

func getJSON(path string) string {
	resp, err := http.Get(baseURL + path)
	if err != nil {
		fail("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		fail("GET %s: status %d: %s", path, resp.StatusCode, data)
	}
	return string(data)
}

func postJSON(path string, body interface{}) string {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			fail("encode body: %v", err)
		}
	}
	resp, err := http.Post(baseURL+path, "application/json", &buf)
	if err != nil {
		fail("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		fail("POST %s: status %d: %s", path, resp.StatusCode, data)
	}
	return string(data)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func fail(format string, args ...interface{}) {
	fmt.Printf("FAIL: "+format+"\n", args...)
	os.Exit(1)
}
