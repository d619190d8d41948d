package client

import "github.com/dm/stockwatch/internal/model"

const statusNoResults = "no_results"

// latestResponse is the body of /api/latest-results: a snapshot plus a
// status field that is "success" or "no_results".
type latestResponse struct {
	Status string `json:"status"`
	model.Snapshot
}
