package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Dev smoke tool: registers a customer, reads free slots for a date, books
// one, and optionally cancels it again.
func main() {
	var (
		baseURL = flag.String("base-url", getenv("BASE_URL", "http://localhost:8080"), "api base url")
		email   = flag.String("email", getenv("CUSTOMER_EMAIL", ""), "customer email")
		name    = flag.String("name", getenv("CUSTOMER_NAME", "Sim Customer"), "customer full name")
		date    = flag.String("date", getenv("BOOK_DATE", time.Now().AddDate(0, 0, 1).Format("2006-01-02")), "booking date (YYYY-MM-DD)")
		cancel  = flag.Bool("cancel", false, "cancel the appointment after booking")
	)
	flag.Parse()

	if strings.TrimSpace(*email) == "" {
		*email = fmt.Sprintf("sim-%d@example.com", time.Now().UnixNano())
	}
	base := strings.TrimRight(*baseURL, "/")

	customer := postJSON(base+"/api/v1/customers", map[string]any{
		"email":     *email,
		"full_name": *name,
	})
	customerID, _ := customer["customer_id"].(string)
	if customerID == "" {
		fatal("customer creation returned no customer_id")
	}
	fmt.Printf("customer_id=%s\n", customerID)

	slots := getJSON(base + "/api/v1/slots?date=" + *date)
	free, _ := slots["slots"].([]any)
	if len(free) == 0 {
		fatal("no free slots on " + *date)
	}
	slot, _ := free[0].(string)
	fmt.Printf("booking slot=%s date=%s\n", slot, *date)

	booked := postJSON(base+"/api/v1/book", map[string]any{
		"customer_id": customerID,
		"date":        *date,
		"time":        slot,
	})
	appointmentID, _ := booked["appointment_id"].(string)
	if appointmentID == "" {
		fatal("booking returned no appointment_id")
	}
	fmt.Printf("appointment_id=%s starts_at=%v\n", appointmentID, booked["starts_at"])

	if *cancel {
		resp := postJSON(base+"/api/v1/appointments/cancel", map[string]any{
			"appointment_id": appointmentID,
		})
		fmt.Printf("canceled status=%v\n", resp["status"])
	}
}

func postJSON(url string, body map[string]any) map[string]any {
	raw, err := json.Marshal(body)
	if err != nil {
		fatal(err.Error())
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		fatal(err.Error())
	}
	defer resp.Body.Close()
	return decode(resp)
}

func getJSON(url string) map[string]any {
	resp, err := http.Get(url)
	if err != nil {
		fatal(err.Error())
	}
	defer resp.Body.Close()
	return decode(resp)
}

func decode(resp *http.Response) map[string]any {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		fatal(err.Error())
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		fatal(fmt.Sprintf("%s returned %d: %s", resp.Request.URL.Path, resp.StatusCode, strings.TrimSpace(string(data))))
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		fatal(err.Error())
	}
	return out
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(2)
}
