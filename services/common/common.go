package common

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"pickemEngine/models"

	"gorm.io/gorm"
)

// LogError prints the error and records it in the error_logs table so
// operators can review failures without scraping process output.
func LogError(db *gorm.DB, source string, err error) {
	log.Printf("[%s] %v", source, err)

	if db == nil {
		return
	}
	errLog := models.ErrorLog{
		Source:  source,
		Message: fmt.Sprintf("%v", err),
	}
	db.Create(&errLog)
}

// FeedGet performs an authenticated GET against the feed with the shared
// request timeout. A timed-out call is a failure, never "no data"; callers
// must not touch local state on error.
func FeedGet(ctx context.Context, requestUrl string) (*http.Response, error) {
	feedToken := os.Getenv("FEED_TOKEN")
	if feedToken == "" {
		return nil, fmt.Errorf("FEED_TOKEN not set in environment variables")
	}

	req, err := http.NewRequestWithContext(ctx, "GET", requestUrl, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", feedToken))

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != 200 {
		resp.Body.Close()
		return nil, fmt.Errorf("feed returned status %d for %s", resp.StatusCode, requestUrl)
	}
	return resp, nil
}

func Contains[T comparable](s []T, e T) bool {
	for _, v := range s {
		if v == e {
			return true
		}
	}
	return false
}
