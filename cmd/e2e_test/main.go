package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const baseURL = "http://localhost:8080"

func main() {
	// Wait for server to start
	time.Sleep(2 * time.Second)

	// 1. Health Check
	checkEndpoint("GET", "/health", nil, 200)

	// 2. Register a fund
	fundCode := fmt.Sprintf("E2E%d", time.Now().Unix()%100000)
	checkEndpoint("POST", "/funds", map[string]interface{}{
		"fund_code": fundCode,
		"fund_name": "E2E Fund",
		"last_nav":  "1.2345",
	}, 201)

	// 3. Disclose holdings
	checkEndpoint("PUT", "/funds/"+fundCode+"/holdings", map[string]interface{}{
		"holdings": []map[string]interface{}{
			{"stock_code": "E2E-A", "stock_name": "Alpha", "ratio": 60, "report_date": "2025-12-31"},
			{"stock_code": "E2E-B", "stock_name": "Beta", "ratio": 40, "report_date": "2025-12-31"},
		},
	}, 200)

	// 4. Estimate (quotes may be missing; the result must still come back)
	res := getJSON("/valuation/" + fundCode)
	fmt.Printf("Estimated NAV: %v (reliable: %v)\n", res["estimated_nav"], res["data_quality"].(map[string]interface{})["is_reliable"])

	// 5. Report
	checkEndpoint("GET", "/valuation?fundCode="+fundCode+"&format=report", nil, 200)

	// 6. Ad-hoc estimate
	checkEndpoint("POST", "/valuation/estimate", map[string]interface{}{
		"fund_code": "adhoc",
		"last_nav":  1.2345,
		"holdings":  []map[string]interface{}{{"stock_code": "A", "ratio": 60}, {"stock_code": "B", "ratio": 40}},
		"quotes":    []map[string]interface{}{{"code": "A", "change_percent": 2.0}, {"code": "B", "change_percent": -1.0}},
	}, 200)

	// 7. Stats
	checkEndpoint("GET", "/stats", nil, 200)

	// 8. Remove and verify
	checkEndpoint("DELETE", "/funds/"+fundCode, nil, 200)
	checkEndpoint("GET", "/valuation/"+fundCode, nil, 404)

	fmt.Println("ALL TESTS PASSED")
}

func checkEndpoint(method, path string, body interface{}, expectedStatus int) []byte {
	fmt.Printf("Testing %s %s...\n", method, path)
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, _ := http.NewRequest(method, baseURL+path, bodyReader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != expectedStatus {
		log.Fatalf("Expected status %d, got %d. Body: %s", expectedStatus, resp.StatusCode, string(respBody))
	}
	fmt.Printf("Response: %s\n", string(respBody))
	return respBody
}

func getJSON(path string) map[string]interface{} {
	var res map[string]interface{}
	if err := json.Unmarshal(checkEndpoint("GET", path, nil, 200), &res); err != nil {
		log.Fatalf("decode %s: %v", path, err)
	}
	return res
}
