package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// --- API Query Struct ---
type SummaryRequest struct {
	Application string `json:"application,omitempty"`
	StorageName string `json:"storage_name,omitempty"`
	EndTime     string `json:"end_time,omitempty"`
}

// --- Main Function ---
func main() {
	// Define command-line flags
	mode := flag.String("mode", "api", "Query mode: 'api' to query via HTTP API, 'direct' to query ClickHouse directly.")
	application := flag.String("app", "", "The application to query (optional).")
	storageName := flag.String("counter", "", "The counter storage name to query (optional).")

	defaultEnd := time.Now().UTC().Format(time.RFC3339)
	endTimeStr := flag.String("end", defaultEnd, "End time in RFC3339 format (e.g., 2026-08-30T15:10:00Z).")

	flag.Parse()

	log.Printf("Running in '%s' mode.", *mode)

	switch *mode {
	case "api":
		queryViaAPI(*application, *storageName, *endTimeStr)
	case "direct":
		directQueryClickHouse(*application, *storageName, *endTimeStr)
	default:
		log.Fatalf("Invalid mode: %s. Use 'api' or 'direct'.", *mode)
	}
}

// --- API Query Logic ---
func queryViaAPI(application, storageName, endTime string) {
	apiURL := "http://localhost:8080/api/v1/counters/summary"

	reqBody := SummaryRequest{
		Application: application,
		StorageName: storageName,
		EndTime:     endTime,
	}

	jsonReqBody, err := json.Marshal(reqBody)
	if err != nil {
		log.Fatalf("Error marshalling request body: %v", err)
	}

	log.Printf("Sending request to %s with body:\n%s\n", apiURL, string(jsonReqBody))

	resp, err := http.Post(apiURL, "application/json", bytes.NewBuffer(jsonReqBody))
	if err != nil {
		log.Fatalf("Error sending request: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("Error reading response body: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Fatalf("API returned non-200 status code: %d\nResponse: %s", resp.StatusCode, string(respBody))
	}

	var prettyJSON bytes.Buffer
	err = json.Indent(&prettyJSON, respBody, "", "  ")
	if err != nil {
		log.Printf("Could not prettify JSON, printing raw response:")
		fmt.Println(string(respBody))
		return
	}

	log.Println("---")
	fmt.Println(prettyJSON.String())
}

// --- Direct ClickHouse Query Logic ---
func directQueryClickHouse(application, storageName, endTimeStr string) {
	connOpts := clickhouse.Options{
		Addr: []string{"localhost:9000"},
		Auth: clickhouse.Auth{
			Database: "default",
			Username: "default",
			Password: "",
		},
	}

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT
			Application,
			StorageName,
			argMax(Requests, Timestamp) AS LatestRequests,
			argMax(Errors, Timestamp) AS LatestErrors
		FROM counter_metrics
`)

	var whereClauses []string
	args := []interface{}{}

	endTime, err := time.Parse(time.RFC3339, endTimeStr)
	if err != nil {
		log.Fatalf("Invalid end time format: %v", err)
	}
	whereClauses = append(whereClauses, "Timestamp <= ?")
	args = append(args, endTime)

	if application != "" {
		whereClauses = append(whereClauses, "Application = ?")
		args = append(args, application)
	}
	if storageName != "" {
		whereClauses = append(whereClauses, "StorageName = ?")
		args = append(args, storageName)
	}

	queryBuilder.WriteString(" WHERE " + strings.Join(whereClauses, " AND "))
	queryBuilder.WriteString("\n\t\tGROUP BY Application, StorageName\n")

	conn, err := clickhouse.Open(&connOpts)
	if err != nil {
		log.Fatalf("Error connecting to ClickHouse: %v", err)
	}
	defer conn.Close()

	log.Println("Successfully connected to ClickHouse.")

	rows, err := conn.Query(context.Background(), queryBuilder.String(), args...)
	if err != nil {
		log.Fatalf("Error executing query: %v", err)
	}
	defer rows.Close()

	log.Println("--- Counter Query Results (Direct) ---")

	var foundResult bool
	for rows.Next() {
		foundResult = true
		var (
			queriedApplication string
			queriedStorageName string
			requests           uint64
			errorsCount        uint64
		)

		if err := rows.Scan(&queriedApplication, &queriedStorageName, &requests, &errorsCount); err != nil {
			log.Printf("Error scanning row: %v", err)
			continue
		}

		fmt.Printf("Application: %s\n", queriedApplication)
		fmt.Printf("  StorageName: %s\n", queriedStorageName)
		fmt.Printf("  Requests: %d\n", requests)
		fmt.Printf("  Errors: %d\n", errorsCount)
		fmt.Println("---------------------")
	}

	if !foundResult {
		log.Println("No data found for the specified criteria.")
	}

	if err := rows.Err(); err != nil {
		log.Printf("An error occurred during row iteration: %v", err)
	}
}
